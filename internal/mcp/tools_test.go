package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"agrolake/internal/agro"
	"agrolake/internal/apidog"
	"agrolake/internal/docs"
	"agrolake/internal/gemini"
	"agrolake/internal/logging"
	"agrolake/internal/urlfetch"
	"agrolake/internal/weather"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires a server against an httptest gateway. Gemini stays
// unconfigured so availability gating is observable.
func newTestServer(t *testing.T, gatewayHandler http.HandlerFunc) *Server {
	t.Helper()

	gatewayURL := "http://127.0.0.1:1"
	if gatewayHandler != nil {
		backend := httptest.NewServer(gatewayHandler)
		t.Cleanup(backend.Close)
		gatewayURL = backend.URL
	}

	logger, _ := logging.NewTestLogger()
	gateway := apidog.NewClient(apidog.Config{BaseURL: gatewayURL}, logger)

	srv, err := NewServer(Deps{
		Gateway: gateway,
		Agro:    agro.NewService(gateway, logger),
		Gemini:  gemini.NewClient(gemini.Config{}, logger),
		Weather: weather.NewClient(weather.Config{BaseURL: gatewayURL + "/weather"}, logger),
		Fetcher: urlfetch.NewFetcher(),
		Logger:  logger,
	})
	require.NoError(t, err)
	return srv
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func decodeEnvelope(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)

	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "tool reply should be text content")

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &envelope))
	return envelope
}

func TestListEndpointsEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.handleListEndpoints(context.Background(), callRequest("list_api_endpoints", nil))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "success", envelope["status"])
	assert.EqualValues(t, 5, envelope["total"])
}

func TestEndpointDetailsValidatesID(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.handleEndpointDetails(context.Background(),
		callRequest("get_endpoint_details", map[string]any{"endpoint_id": "bad id!"}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "error", envelope["status"])
	assert.Contains(t, envelope["message"], "endpoint_id")
}

func TestExecuteAPICallForwardsToGateway(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/properties", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": "p1"}]`))
	})

	res, err := srv.handleExecuteAPICall(context.Background(),
		callRequest("execute_api_call", map[string]any{
			"endpoint_id": "properties_list",
			"method":      "get",
			"path":        "/api/properties",
		}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "success", envelope["status"])
	assert.EqualValues(t, 200, envelope["status_code"])
	assert.NotNil(t, envelope["data"])
}

func TestExecuteAPICallTransportFailureIsErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.handleExecuteAPICall(context.Background(),
		callRequest("execute_api_call", map[string]any{
			"endpoint_id": "properties_list",
			"method":      "GET",
			"path":        "/api/properties",
		}))
	// A dead upstream is still a tool reply, not a protocol error.
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "error", envelope["status"])
	assert.EqualValues(t, 0, envelope["status_code"])
	assert.Contains(t, envelope["error"], "connection error")
}

func TestExecuteAPICallRejectsUnknownMethod(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.handleExecuteAPICall(context.Background(),
		callRequest("execute_api_call", map[string]any{
			"endpoint_id": "properties_list",
			"method":      "TRACE",
			"path":        "/api/properties",
		}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "error", envelope["status"])
}

func TestGetPropertiesEnvelope(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "p1"}, {"id": "p2"}]`))
	})

	res, err := srv.handleGetProperties(context.Background(), callRequest("get_properties", nil))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "success", envelope["status"])
	assert.EqualValues(t, 2, envelope["total"])
}

func TestCreatePropertyRequiresName(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.handleCreateProperty(context.Background(),
		callRequest("create_property", map[string]any{"location": "GO"}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "error", envelope["status"])
	assert.Contains(t, envelope["message"], "name")
}

func TestCreatePropertySanitizesStringFields(t *testing.T) {
	var received map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
	})

	res, err := srv.handleCreateProperty(context.Background(),
		callRequest("create_property", map[string]any{
			"name":     "Fazenda Sul",
			"location": `<script>alert("x")</script>Goiás`,
		}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "success", envelope["status"])
	// Markup is stripped before anything reaches the gateway.
	assert.Equal(t, "Goiás", received["location"])
}

func TestGetFarmerNotFound(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res, err := srv.handleGetFarmer(context.Background(),
		callRequest("get_farmer", map[string]any{"farmer_id": "f404"}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "error", envelope["status"])
	assert.Contains(t, envelope["message"], "f404")
}

func TestConsultGeminiUnavailableWithoutKey(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.handleConsultGemini(context.Background(),
		callRequest("consult_gemini", map[string]any{"prompt": "pergunta"}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "error", envelope["status"])
	assert.Contains(t, envelope["message"], "GOOGLE_API_KEY")
}

func TestWeatherByCoordinatesRangeCheck(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.handleGetWeatherByCoordinates(context.Background(),
		callRequest("get_weather_by_coordinates", map[string]any{
			"latitude":  95.0,
			"longitude": 0.0,
		}))
	require.NoError(t, err)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "error", envelope["status"])
	assert.Contains(t, envelope["message"], "coordenadas")
}

func TestPlanCropSeasonPrompt(t *testing.T) {
	srv := newTestServer(t, nil)

	req := mcp.GetPromptRequest{}
	req.Params.Name = "plan_crop_season"
	req.Params.Arguments = map[string]string{
		"property_name": "Fazenda Boa Vista",
		"crop_type":     "milho",
	}

	result, err := srv.handlePlanCropSeason(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	text, ok := mcp.AsTextContent(result.Messages[0].Content)
	require.True(t, ok)
	assert.Contains(t, text.Text, "milho")
	assert.Contains(t, text.Text, "Fazenda Boa Vista")
	assert.Contains(t, text.Text, "próxima")
}

func TestPlanCropSeasonRequiresArguments(t *testing.T) {
	srv := newTestServer(t, nil)

	req := mcp.GetPromptRequest{}
	req.Params.Name = "plan_crop_season"
	req.Params.Arguments = map[string]string{"crop_type": "soja"}

	_, err := srv.handlePlanCropSeason(context.Background(), req)
	assert.Error(t, err)
}

func TestPropertiesResource(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "p1", "name": "Fazenda Sul"}]`))
	})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = propertiesResourceURI

	contents, err := srv.handlePropertiesResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, propertiesResourceURI, text.URI)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	assert.EqualValues(t, 1, payload["count"])
}

// newDocsServer builds a server whose docs manager sees one document under
// the irrigacao category.
func newDocsServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "irrigacao"), 0755))
	content := "---\ndescription: Guia de gotejamento\n---\n# Gotejamento\n\nVazão recomendada por hectare."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "irrigacao", "gotejamento.md"), []byte(content), 0644))

	logger, _ := logging.NewTestLogger()
	manager, err := docs.NewManager(dir, logger)
	require.NoError(t, err)

	gateway := apidog.NewClient(apidog.Config{BaseURL: "http://127.0.0.1:1"}, logger)
	srv, err := NewServer(Deps{
		Gateway: gateway,
		Agro:    agro.NewService(gateway, logger),
		Gemini:  gemini.NewClient(gemini.Config{}, logger),
		Weather: weather.NewClient(weather.Config{}, logger),
		Docs:    manager,
		Logger:  logger,
	})
	require.NoError(t, err)
	return srv
}

func TestDocResourceServesDocumentContent(t *testing.T) {
	srv := newDocsServer(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "agrolake://docs/irrigacao/gotejamento"

	contents, err := srv.handleDocResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "text/markdown", text.MIMEType)
	assert.Contains(t, text.Text, "Vazão recomendada")
}

func TestDocResourceUnknownDocument(t *testing.T) {
	srv := newDocsServer(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "agrolake://docs/irrigacao/inexistente"

	_, err := srv.handleDocResource(context.Background(), req)
	assert.Error(t, err)
}

func TestDocResourceRejectsMalformedURI(t *testing.T) {
	srv := newDocsServer(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "agrolake://docs/irrigacao"

	_, err := srv.handleDocResource(context.Background(), req)
	assert.Error(t, err)
}

func TestNewServerRequiresCoreDeps(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}
