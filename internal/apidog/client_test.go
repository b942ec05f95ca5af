package apidog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrolake/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := logging.NewTestLogger()
	return NewClient(Config{
		BaseURL:     server.URL,
		AccessToken: "test-token",
	}, logger)
}

func TestExecuteDecodesJSONReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/properties", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties": [{"id": "p1"}]}`))
	})

	resp := client.Execute(context.Background(), Request{
		EndpointID: "properties_list",
		Method:     "GET",
		Path:       "/api/properties",
	})

	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Err)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "properties")
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
}

func TestExecuteSendsQueryParamsAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Fazenda Boa Vista", body["name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "p2"}`))
	})

	resp := client.Execute(context.Background(), Request{
		EndpointID: "properties_create",
		Method:     "post",
		Path:       "api/properties",
		Params:     map[string]any{"limit": 10},
		Body:       map[string]any{"name": "Fazenda Boa Vista"},
	})

	assert.Equal(t, 201, resp.StatusCode)
	assert.Empty(t, resp.Err)
}

func TestExecuteErrorStatusIsAReplyNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "not found"}`))
	})

	resp := client.Execute(context.Background(), Request{
		EndpointID: "farmer_get",
		Method:     "GET",
		Path:       "/api/farmers/missing",
	})

	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "upstream status 404", resp.Err)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not found", data["detail"])
}

func TestExecuteTransportFailureYieldsStatusZero(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	client := NewClient(Config{
		// Nothing listens here; the dial fails immediately.
		BaseURL: "http://127.0.0.1:1",
	}, logger)

	resp := client.Execute(context.Background(), Request{
		EndpointID: "properties_list",
		Method:     "GET",
		Path:       "/api/properties",
	})

	assert.Equal(t, 0, resp.StatusCode)
	assert.Contains(t, resp.Err, "connection error")
	assert.NotNil(t, resp.Data)
	assert.NotNil(t, resp.Headers)
}

func TestExecuteRetriesTransportErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Kill the first connection mid-flight to force a transport error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(server.Close)

	logger, _ := logging.NewTestLogger()
	client := NewClient(Config{BaseURL: server.URL, MaxRetries: 2}, logger)

	resp := client.Execute(context.Background(), Request{
		EndpointID: "properties_list",
		Method:     "GET",
		Path:       "/api/properties",
	})

	assert.Equal(t, 200, resp.StatusCode)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestExecutePlainTextBodyFallsBackToString(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal failure"))
	})

	resp := client.Execute(context.Background(), Request{
		EndpointID: "properties_list",
		Method:     "GET",
		Path:       "/api/properties",
	})

	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "internal failure", resp.Data)
}

func TestEndpointsCatalog(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	client := NewClient(Config{BaseURL: "http://localhost"}, logger)

	endpoints := client.Endpoints()
	require.NotEmpty(t, endpoints)

	ids := make(map[string]bool, len(endpoints))
	for _, e := range endpoints {
		ids[e.ID] = true
	}
	assert.True(t, ids["properties_list"])
	assert.True(t, ids["properties_create"])
	assert.True(t, ids["farmer_get"])
}

func TestEndpointDetailsUnknownID(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	client := NewClient(Config{BaseURL: "http://localhost"}, logger)

	detail := client.EndpointDetails("does_not_exist")
	assert.Equal(t, "does_not_exist", detail.ID)
	assert.NotEmpty(t, detail.Description)
}
