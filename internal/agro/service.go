// Package agro exposes the agricultural CRUD operations as thin pass-throughs
// over the Apidog gateway. Records (properties, farmers) are opaque maps owned
// by the external API; this layer only translates calls and tolerates the
// gateway's varying payload shapes.
package agro

import (
	"context"
	"fmt"

	"agrolake/internal/apidog"
	"agrolake/internal/logging"
)

// Gateway is the slice of the apidog client the service needs.
type Gateway interface {
	Execute(ctx context.Context, req apidog.Request) apidog.Response
}

type Service struct {
	gateway Gateway
	logger  *logging.AppLogger
}

func NewService(gateway Gateway, logger *logging.AppLogger) *Service {
	return &Service{gateway: gateway, logger: logger}
}

// Properties lists all registered properties. Gateway failures degrade to an
// empty list; the caller still gets a well-formed reply.
func (s *Service) Properties(ctx context.Context) []map[string]any {
	resp := s.gateway.Execute(ctx, apidog.Request{
		EndpointID: "properties_list",
		Method:     "GET",
		Path:       "/api/properties",
	})
	if resp.StatusCode != 200 || resp.Data == nil {
		s.logger.Warn("properties fetch failed", "status", resp.StatusCode, "error", resp.Err)
		return []map[string]any{}
	}

	items, ok := extractList(resp.Data)
	if !ok {
		s.logger.Warn("properties payload had no usable shape")
		return []map[string]any{}
	}
	return items
}

// Property fetches a single property by ID. The second return value reports
// whether the record was found.
func (s *Service) Property(ctx context.Context, id string) (map[string]any, bool) {
	resp := s.gateway.Execute(ctx, apidog.Request{
		EndpointID: "properties_get",
		Method:     "GET",
		Path:       fmt.Sprintf("/api/properties/%s", id),
	})
	if resp.StatusCode != 200 || resp.Data == nil {
		s.logger.Warn("property fetch failed", "id", id, "status", resp.StatusCode, "error", resp.Err)
		return nil, false
	}

	record, ok := resp.Data.(map[string]any)
	if !ok {
		s.logger.Warn("property payload was not an object", "id", id)
		return nil, false
	}
	return record, true
}

// CreateProperty forwards a new property record to the gateway. The name
// field is required; everything else passes through untouched.
func (s *Service) CreateProperty(ctx context.Context, fields map[string]any) (map[string]any, error) {
	name, _ := fields["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("property name is required")
	}

	resp := s.gateway.Execute(ctx, apidog.Request{
		EndpointID: "properties_create",
		Method:     "POST",
		Path:       "/api/properties",
		Body:       fields,
	})
	if resp.Err != "" {
		return nil, fmt.Errorf("gateway error: %s", resp.Err)
	}
	if record, ok := resp.Data.(map[string]any); ok {
		return record, nil
	}
	// Some mock configurations answer creations with an empty body; echo the
	// submitted record so the caller sees what was stored.
	return fields, nil
}

// Farmer fetches a single farmer by ID.
func (s *Service) Farmer(ctx context.Context, id string) (map[string]any, bool) {
	resp := s.gateway.Execute(ctx, apidog.Request{
		EndpointID: "farmer_get",
		Method:     "GET",
		Path:       fmt.Sprintf("/api/farmers/%s", id),
	})
	if resp.StatusCode != 200 || resp.Data == nil {
		s.logger.Warn("farmer fetch failed", "id", id, "status", resp.StatusCode, "error", resp.Err)
		return nil, false
	}

	record, ok := resp.Data.(map[string]any)
	if !ok {
		s.logger.Warn("farmer payload was not an object", "id", id)
		return nil, false
	}
	return record, true
}

// FarmerProperties lists the properties belonging to one farmer. When the
// dedicated endpoint fails it falls back to filtering the full property list
// client-side, matching either farmer_id or the legacy owner field.
func (s *Service) FarmerProperties(ctx context.Context, farmerID string) []map[string]any {
	resp := s.gateway.Execute(ctx, apidog.Request{
		EndpointID: "farmer_properties_list",
		Method:     "GET",
		Path:       fmt.Sprintf("/api/farmers/%s/properties", farmerID),
	})
	if resp.StatusCode == 200 && resp.Data != nil {
		if items, ok := extractList(resp.Data); ok {
			return items
		}
	}

	s.logger.Warn("farmer properties fetch failed, filtering full list", "farmer_id", farmerID)
	filtered := []map[string]any{}
	for _, prop := range s.Properties(ctx) {
		if prop["farmer_id"] == farmerID || prop["owner"] == farmerID {
			filtered = append(filtered, prop)
		}
	}
	return filtered
}

// extractList pulls a list of records out of the shapes the gateway is known
// to answer with: a bare array, {"properties": [...]}, or {"data": [...]}.
func extractList(data any) ([]map[string]any, bool) {
	switch v := data.(type) {
	case []any:
		return toRecords(v), true
	case map[string]any:
		if inner, ok := v["properties"].([]any); ok {
			return toRecords(inner), true
		}
		if inner, ok := v["data"].([]any); ok {
			return toRecords(inner), true
		}
	}
	return nil, false
}

func toRecords(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if record, ok := item.(map[string]any); ok {
			out = append(out, record)
		}
	}
	return out
}
