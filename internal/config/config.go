// Package config loads the runtime configuration from a JSON file with
// environment-variable overrides for deployment secrets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/funcall-ai/funcall/internal/consts"
)

// Config is the full runtime configuration.
type Config struct {
	APIKey          string  `json:"api_key"`
	Model           string  `json:"model"`
	BaseURL         string  `json:"base_url"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	SystemPrompt    string  `json:"system_prompt,omitempty"`
	LogLevel        string  `json:"log_level,omitempty"`
	LogFile         string  `json:"log_file,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Model:           "gpt-4o-mini",
		BaseURL:         "https://api.openai.com/v1",
		Temperature:     consts.DefaultTemperature,
		MaxOutputTokens: consts.DefaultMaxTokens,
		SystemPrompt:    consts.DefaultSystemPrompt,
		LogLevel:        "info",
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "funcall", "config.json"), nil
}

// Load reads the config file at path, fills in defaults for absent fields,
// applies environment overrides and validates the result. A missing file is
// not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets the environment override file values; secrets usually arrive
// this way.
func (c *Config) applyEnv() {
	if v := os.Getenv("FUNCALL_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("FUNCALL_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("FUNCALL_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("FUNCALL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the ranges the completion client will assume.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("config: model must not be empty")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base_url must not be empty")
	}
	if c.Temperature < consts.MinTemperature || c.Temperature > consts.MaxTemperature {
		return fmt.Errorf("config: temperature %.2f outside [%.0f, %.0f]",
			c.Temperature, consts.MinTemperature, consts.MaxTemperature)
	}
	if c.MaxOutputTokens < consts.MinMaxTokens || c.MaxOutputTokens > consts.MaxMaxTokens {
		return fmt.Errorf("config: max_output_tokens %d outside [%d, %d]",
			c.MaxOutputTokens, consts.MinMaxTokens, consts.MaxMaxTokens)
	}
	return nil
}

// Save writes the config as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
