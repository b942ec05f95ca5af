// Package config loads the agrolake configuration from the platform config
// directory and layers environment overrides on top, so the server works both
// from a saved config file and from a bare environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"agrolake/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "agrolake" // application name used for config directory

// Config holds the full server configuration.
type Config struct {
	Apidog   ApidogConfig  `yaml:"apidog"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	Weather  WeatherConfig `yaml:"weather"`
	DocsDir  string        `yaml:"docs_dir"`
	HTTPAddr string        `yaml:"http_addr"`
	Version  string        `yaml:"version"`
	InitTime int64         `yaml:"init_time"` // Unix timestamp of first setup
}

// ApidogConfig configures the Apidog mock gateway.
type ApidogConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// GeminiConfig configures the Google Generative Language client.
type GeminiConfig struct {
	APIKey          string  `yaml:"api_key,omitempty"`
	BaseURL         string  `yaml:"base_url,omitempty"`
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// WeatherConfig configures the HG Brasil weather client.
type WeatherConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ConfigPath returns the standard config file path for the current platform.
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	return primary, false
}

// Load reads the config file if one exists, otherwise starts from defaults,
// then applies environment overrides. It never fails just because no file has
// been saved yet; the environment alone is a valid configuration.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path, exists := FindConfigFile(); exists {
		loaded, err := LoadFrom(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	cfg.applyEnv()
	return &cfg, nil
}

// LoadFrom loads config from a specific path without environment overrides.
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Apidog: ApidogConfig{
			TimeoutSecs: 30,
			MaxRetries:  3,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-1.5-flash",
			Temperature:     0.7,
			MaxOutputTokens: 2048,
		},
		DocsDir:  filepath.Join(xdg.DataHome, APP_NAME, "docs"),
		HTTPAddr: ":8080",
		Version:  "1.0",
	}
}

// applyEnv layers environment variables over the loaded values. Environment
// always wins, matching how the server runs in containers.
func (c *Config) applyEnv() {
	setString(&c.Apidog.BaseURL, "APIDOG_API_BASE_URL")
	setString(&c.Apidog.AccessToken, "APIDOG_ACCESS_TOKEN")
	setInt(&c.Apidog.TimeoutSecs, "API_TIMEOUT")

	setString(&c.Gemini.APIKey, "GOOGLE_API_KEY")
	setString(&c.Gemini.BaseURL, "GEMINI_BASE_URL")
	setString(&c.Gemini.Model, "GEMINI_MODEL")

	setString(&c.Weather.APIKey, "HG_BRASIL_API_KEY")
	setString(&c.Weather.BaseURL, "HG_BRASIL_BASE_URL")

	setString(&c.DocsDir, "AGROLAKE_DOCS_DIR")
	setString(&c.HTTPAddr, "AGROLAKE_HTTP_ADDR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

// Timeout returns the gateway timeout as a duration.
func (a ApidogConfig) Timeout() time.Duration {
	if a.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSecs) * time.Second
}

// Save writes the config to the standard location.
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions: the file may carry API keys.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
