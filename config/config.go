package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// LLMConfig selects the generative text/image backend.
type LLMConfig struct {
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	ImageModel string `json:"image_model,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
}

// Integration describes one CMS deployment target.
type Integration struct {
	Platform   string `json:"platform"`
	BaseURL    string `json:"base_url"`
	Credential string `json:"credential"`
}

// Config is the on-disk configuration for the studio.
type Config struct {
	LLM                *LLMConfig    `json:"llm,omitempty"`
	DatabasePath       string        `json:"database_path,omitempty"`
	ServerAddr         string        `json:"server_addr,omitempty"`
	AutosaveDebounceMS int           `json:"autosave_debounce_ms,omitempty"`
	Integrations       []Integration `json:"integrations,omitempty"`
}

// Load reads and validates a JSON config file. A missing API key falls back
// to OPENAI_API_KEY so keys can stay out of the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if cfg.LLM != nil && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "drafts.db"
	}
	if cfg.AutosaveDebounceMS <= 0 {
		cfg.AutosaveDebounceMS = 1500
	}
	return cfg, nil
}
