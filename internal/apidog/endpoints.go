package apidog

import "fmt"

// Parameter documents one endpoint parameter in the catalog.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// Endpoint is one entry in the known-endpoint catalog. The gateway offers no
// discovery API, so the catalog is maintained here.
type Endpoint struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Description    string         `json:"description"`
	Parameters     []Parameter    `json:"parameters"`
	ResponseSchema map[string]any `json:"response_schema"`
}

var knownEndpoints = []Endpoint{
	{
		ID:          "properties_list",
		Name:        "Listar Propriedades",
		Method:      "GET",
		Path:        "/api/properties",
		Description: "Lista todas as propriedades agrícolas",
		Parameters:  []Parameter{},
		ResponseSchema: map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
	},
	{
		ID:          "properties_get",
		Name:        "Obter Propriedade",
		Method:      "GET",
		Path:        "/api/properties/{id}",
		Description: "Obtém detalhes de uma propriedade específica",
		Parameters: []Parameter{
			{Name: "id", Type: "string", Required: true, Description: "ID da propriedade"},
		},
		ResponseSchema: map[string]any{"type": "object"},
	},
	{
		ID:             "properties_create",
		Name:           "Criar Propriedade",
		Method:         "POST",
		Path:           "/api/properties",
		Description:    "Cadastra uma nova propriedade agrícola",
		Parameters:     []Parameter{},
		ResponseSchema: map[string]any{"type": "object"},
	},
	{
		ID:          "farmer_get",
		Name:        "Obter dados do agricultor",
		Method:      "GET",
		Path:        "/api/farmers/{id}",
		Description: "Obtém dados completos de um agricultor específico",
		Parameters: []Parameter{
			{Name: "id", Type: "string", Required: true, Description: "ID do agricultor"},
		},
		ResponseSchema: map[string]any{"type": "object"},
	},
	{
		ID:          "farmer_properties_list",
		Name:        "Listar propriedades do agricultor",
		Method:      "GET",
		Path:        "/api/farmers/{id}/properties",
		Description: "Lista todas as propriedades de um agricultor específico",
		Parameters: []Parameter{
			{Name: "id", Type: "string", Required: true, Description: "ID do agricultor"},
		},
		ResponseSchema: map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
	},
}

// Endpoints returns a copy of the known-endpoint catalog.
func (c *Client) Endpoints() []Endpoint {
	out := make([]Endpoint, len(knownEndpoints))
	copy(out, knownEndpoints)
	return out
}

// EndpointDetails looks up one endpoint by ID. Unknown IDs get a generic
// stub entry rather than an error, so callers can still attempt the call.
func (c *Client) EndpointDetails(id string) Endpoint {
	for _, ep := range knownEndpoints {
		if ep.ID == id {
			return ep
		}
	}
	return Endpoint{
		ID:             id,
		Name:           fmt.Sprintf("Endpoint %s", id),
		Method:         "GET",
		Path:           "/api/" + id,
		Description:    fmt.Sprintf("Endpoint %s", id),
		Parameters:     []Parameter{},
		ResponseSchema: map[string]any{},
	}
}
