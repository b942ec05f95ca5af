package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrolake/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelReply(text string) string {
	return `{"candidates": [{"content": {"parts": [{"text": ` + mustJSON(text) + `}]}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := logging.NewTestLogger()
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, logger)
}

func TestAvailable(t *testing.T) {
	logger, _ := logging.NewTestLogger()

	assert.True(t, NewClient(Config{APIKey: "k"}, logger).Available())
	assert.False(t, NewClient(Config{}, logger).Available())
}

func TestGenerateContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload, "contents")
		assert.Contains(t, payload, "generationConfig")

		_, _ = w.Write([]byte(modelReply("O milho prefere solo bem drenado.")))
	})

	result, err := client.GenerateContent(context.Background(), GenerateRequest{
		Prompt: "Qual solo para milho?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Qual solo para milho?", result.Prompt)
	assert.Equal(t, "O milho prefere solo bem drenado.", result.Response)
	assert.Equal(t, "gemini-1.5-flash", result.Model)
}

func TestGenerateContentPrependsContext(t *testing.T) {
	var sentPrompt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		sentPrompt = payload.Contents[0].Parts[0].Text
		_, _ = w.Write([]byte(modelReply("ok")))
	})

	_, err := client.GenerateContent(context.Background(), GenerateRequest{
		Prompt:  "pergunta",
		Context: "contexto agrícola",
	})
	require.NoError(t, err)
	assert.Equal(t, "contexto agrícola\n\npergunta", sentPrompt)
}

func TestGenerateContentWithoutKey(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	client := NewClient(Config{}, logger)

	_, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestGenerateContentAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid"}}`))
	})

	_, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestAnalyzeDataEmbedsDataAndQuestion(t *testing.T) {
	var sent struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_, _ = w.Write([]byte(modelReply("análise")))
	})

	data := map[string]any{"propriedade": "Fazenda Sul", "area": 50}
	_, err := client.AnalyzeData(context.Background(), data, "Qual a maior área?")
	require.NoError(t, err)

	prompt := sent.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "DADOS AGRÍCOLAS")
	assert.Contains(t, prompt, "Fazenda Sul")
	assert.Contains(t, prompt, "Qual a maior área?")

	require.NotNil(t, sent.SystemInstruction)
	assert.Contains(t, sent.SystemInstruction.Parts[0].Text, "dados agrícolas")
}

func TestGenerateVisionSendsInlineImage(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Contents []struct {
				Parts []struct {
					Text       string `json:"text"`
					InlineData *struct {
						MimeType string `json:"mime_type"`
						Data     string `json:"data"`
					} `json:"inline_data"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		parts := payload.Contents[0].Parts
		require.Len(t, parts, 2)
		assert.Equal(t, "identifique a planta", parts[0].Text)
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "image/jpeg", parts[1].InlineData.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), parts[1].InlineData.Data)

		_, _ = w.Write([]byte(modelReply(`{"name": "Samambaia"}`)))
	})

	text, err := client.GenerateVision(context.Background(), "identifique a planta", image, "")
	require.NoError(t, err)
	assert.Contains(t, text, "Samambaia")
}

func TestListModelsFiltersByGenerationSupport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"models": [
			{"name": "models/gemini-1.5-flash", "supportedGenerationMethods": ["generateContent"]},
			{"name": "models/embedding-001", "supportedGenerationMethods": ["embedContent"]},
			{"name": "models/gemini-1.5-pro", "supportedGenerationMethods": ["generateContent", "countTokens"]}
		]}`))
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"models/gemini-1.5-flash", "models/gemini-1.5-pro"}, models)
}
