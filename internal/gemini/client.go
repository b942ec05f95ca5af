// Package gemini is a REST client for the Google Generative Language API.
// It covers the three uses the server has for a model: free-form consultation,
// analysis of agricultural data, and multimodal plant identification.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agrolake/internal/logging"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// analysisInstruction is the fixed system instruction for AnalyzeData.
const analysisInstruction = `Você é um assistente especializado em dados agrícolas.
Analise os dados fornecidos e responda a pergunta do usuário de forma detalhada e útil.
Seja preciso e baseie suas respostas apenas nos dados fornecidos.`

type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logging.AppLogger
}

func NewClient(cfg Config, logger *logging.AppLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 2048
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Available reports whether the client has an API key configured. Tools gate
// themselves on this instead of failing mid-call.
func (c *Client) Available() bool {
	return c.cfg.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// GenerateRequest is one text-generation call. Temperature overrides the
// configured default when non-nil.
type GenerateRequest struct {
	Prompt            string
	Context           string
	SystemInstruction string
	Temperature       *float64
}

// GenerateResult carries the model reply plus the metadata the tool envelope
// reports back.
type GenerateResult struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Model    string `json:"model"`
}

// GenerateContent sends a text prompt and returns the model reply.
func (c *Client) GenerateContent(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if !c.Available() {
		return GenerateResult{}, fmt.Errorf("gemini is not available: no API key configured")
	}

	prompt := req.Prompt
	if req.Context != "" {
		prompt = req.Context + "\n\n" + prompt
	}

	parts := []part{{Text: prompt}}
	text, err := c.generate(ctx, parts, req.SystemInstruction, req.Temperature)
	if err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		Prompt:   req.Prompt,
		Response: text,
		Model:    c.cfg.Model,
	}, nil
}

// AnalyzeData asks the model a question about a block of agricultural data
// using the fixed agronomy system instruction.
func (c *Client) AnalyzeData(ctx context.Context, data any, question string) (GenerateResult, error) {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return GenerateResult{}, fmt.Errorf("encode data for analysis: %w", err)
	}

	prompt := fmt.Sprintf("DADOS AGRÍCOLAS:\n%s\n\nPERGUNTA: %s\n\nForneça uma resposta detalhada baseada nos dados fornecidos.",
		encoded, question)

	return c.GenerateContent(ctx, GenerateRequest{
		Prompt:            prompt,
		SystemInstruction: analysisInstruction,
	})
}

// GenerateVision sends a prompt plus an inline image and returns the raw
// model text. Normalization of that text is the caller's concern.
func (c *Client) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("gemini is not available: no API key configured")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return c.generate(ctx, parts, "", nil)
}

// ListModels returns the model names that support content generation.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if !c.Available() {
		return nil, fmt.Errorf("gemini is not available: no API key configured")
	}

	endpoint := fmt.Sprintf("%s/models?key=%s", c.cfg.BaseURL, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models: status %d", resp.StatusCode)
	}

	var payload struct {
		Models []struct {
			Name                       string   `json:"name"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	var names []string
	for _, m := range payload.Models {
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				names = append(names, m.Name)
				break
			}
		}
	}
	return names, nil
}

// Wire types for the generateContent endpoint.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generate(ctx context.Context, parts []part, systemInstruction string, temperature *float64) (string, error) {
	temp := c.cfg.Temperature
	if temperature != nil {
		temp = *temperature
	}

	payload := generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     temp,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}
	if systemInstruction != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("gemini API error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API status %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, cand := range decoded.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		break
	}
	return sb.String(), nil
}
