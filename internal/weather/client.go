// Package weather wraps the HG Brasil weather API for crop-planning queries.
// Replies are normalized into a small current-conditions block plus the raw
// forecast list; every failure path yields a structurally valid report.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"agrolake/internal/logging"
)

const defaultBaseURL = "https://api.hgbrasil.com/weather"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
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

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.cfg.APIKey != ""
}

// Current holds the normalized current-conditions block. Field names follow
// the provider's JSON so callers see familiar keys.
type Current struct {
	Temp          any `json:"temp"`
	Description   any `json:"description"`
	City          any `json:"city"`
	Humidity      any `json:"humidity"`
	WindSpeedy    any `json:"wind_speedy"`
	Time          any `json:"time"`
	Date          any `json:"date"`
	ConditionCode any `json:"condition_code,omitempty"`
	ConditionSlug any `json:"condition_slug,omitempty"`
	Sunrise       any `json:"sunrise,omitempty"`
	Sunset        any `json:"sunset,omitempty"`
	Cloudiness    any `json:"cloudiness,omitempty"`
}

// Report is the normalized reply for both query styles. OK is false on any
// failure, with Error carrying the reason; the shape is always complete.
type Report struct {
	OK       bool           `json:"ok"`
	Provider string         `json:"provider"`
	Query    map[string]any `json:"query,omitempty"`
	Current  Current        `json:"current,omitempty"`
	Forecast []any          `json:"forecast,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ByCity fetches weather for a city in "Cidade,UF" form. An explicit apiKey
// overrides the configured one for this call only.
func (c *Client) ByCity(ctx context.Context, cityName, apiKey string) Report {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("city_name", cityName)
	params.Set("key", c.key(apiKey))

	report := c.fetch(ctx, params)
	report.Query = map[string]any{"city_name": cityName}
	return report
}

// ByCoordinates fetches weather for a GPS position, useful for rural
// properties outside named localities.
func (c *Client) ByCoordinates(ctx context.Context, latitude, longitude float64, apiKey string) Report {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%g", latitude))
	params.Set("lon", fmt.Sprintf("%g", longitude))
	params.Set("key", c.key(apiKey))

	report := c.fetch(ctx, params)
	report.Query = map[string]any{"latitude": latitude, "longitude": longitude}
	return report
}

func (c *Client) key(override string) string {
	if override != "" {
		return override
	}
	return c.cfg.APIKey
}

func (c *Client) fetch(ctx context.Context, params url.Values) Report {
	endpoint := c.cfg.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failed(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("weather fetch failed", "error", err)
		return failed(fmt.Errorf("connection error: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("weather fetch returned error status", "status", resp.StatusCode)
		return failed(fmt.Errorf("HTTP status %d", resp.StatusCode))
	}

	var payload struct {
		Results map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("weather payload decode failed", "error", err)
		return failed(fmt.Errorf("decode response: %w", err))
	}

	results := payload.Results
	if results == nil {
		results = map[string]any{}
	}

	forecast, _ := results["forecast"].([]any)

	return Report{
		OK:       true,
		Provider: "HG Brasil",
		Current: Current{
			Temp:          results["temp"],
			Description:   results["description"],
			City:          results["city"],
			Humidity:      results["humidity"],
			WindSpeedy:    results["wind_speedy"],
			Time:          results["time"],
			Date:          results["date"],
			ConditionCode: results["condition_code"],
			ConditionSlug: results["condition_slug"],
			Sunrise:       results["sunrise"],
			Sunset:        results["sunset"],
			Cloudiness:    results["cloudiness"],
		},
		Forecast: forecast,
	}
}

func failed(err error) Report {
	return Report{
		OK:       false,
		Provider: "HG Brasil",
		Error:    err.Error(),
	}
}
