// Package apidog is the HTTP client for the Apidog mock gateway that fronts
// the agricultural REST API. Tool calls are translated into plain HTTP
// requests against the configured base URL and the gateway's JSON reply is
// returned with minimal reshaping.
package apidog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agrolake/internal/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Request describes one forwarded gateway call.
type Request struct {
	EndpointID string            `json:"endpoint_id"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Params     map[string]any    `json:"params,omitempty"`
	Body       map[string]any    `json:"body,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Response mirrors the envelope the original service returned to its tools:
// status code, decoded body, response headers, and an error string instead of
// a raised error. Transport failures yield StatusCode 0.
type Response struct {
	StatusCode int               `json:"status_code"`
	Data       any               `json:"data"`
	Headers    map[string]string `json:"headers"`
	Err        string            `json:"error,omitempty"`
}

// Config holds the client settings. Values come from the application config,
// not from package-level state, so tests can point the client anywhere.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	MaxRetries  uint64
}

// Client forwards requests to the gateway. A circuit breaker guards the
// upstream and transport errors are retried with exponential backoff; HTTP
// error statuses are not retried, they are part of the reply.
type Client struct {
	baseURL    string
	token      string
	maxRetries uint64
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.AppLogger
}

func NewClient(cfg Config, logger *logging.AppLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "apidog",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      cfg.AccessToken,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// Execute forwards one call to the gateway. It never returns a Go error:
// transport failures come back as a Response with StatusCode 0 and Err set,
// matching the envelope tools hand to their callers.
func (c *Client) Execute(ctx context.Context, req Request) Response {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, req)
	})
	if err != nil {
		c.logger.Error("gateway call failed", "endpoint", req.EndpointID, "error", err)
		return Response{
			StatusCode: 0,
			Data:       map[string]any{},
			Headers:    map[string]string{},
			Err:        fmt.Sprintf("connection error: %v", err),
		}
	}
	return out.(Response)
}

func (c *Client) do(ctx context.Context, req Request) (Response, error) {
	var httpResp *http.Response

	op := func() error {
		httpReq, err := c.newRequest(ctx, req)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		httpResp = resp
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return Response{}, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		StatusCode: httpResp.StatusCode,
		Data:       decodeBody(body),
		Headers:    flattenHeaders(httpResp.Header),
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		resp.Err = fmt.Sprintf("upstream status %d", httpResp.StatusCode)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	path := strings.TrimLeft(req.Path, "/")
	target := c.baseURL
	if path != "" {
		target = c.baseURL + "/" + path
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), target, body)
	if err != nil {
		return nil, err
	}

	if len(req.Params) > 0 {
		query := url.Values{}
		for k, v := range req.Params {
			query.Set(k, fmt.Sprint(v))
		}
		httpReq.URL.RawQuery = query.Encode()
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if c.token != "" && httpReq.Header.Get("Authorization") == "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

// decodeBody tries JSON first and falls back to the raw text, mirroring the
// gateway's habit of answering some errors with plain strings.
func decodeBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return string(body)
	}
	return data
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
