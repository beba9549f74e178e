package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Provider tags accepted in llm_config.json.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMConfig selects the active remote provider and carries per-provider
// credentials. Loaded once at startup; a missing or malformed file is fatal.
type LLMConfig struct {
	Provider  string          `json:"provider"`
	OpenAI    ProviderSettings `json:"openai"`
	Anthropic ProviderSettings `json:"anthropic"`
}

type ProviderSettings struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// LoadLLMConfig reads and validates the provider config file.
func LoadLLMConfig(path string) (*LLMConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LLM config file not found at %s: %w", path, err)
	}

	var cfg LLMConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in config file at %s: %w", path, err)
	}

	if cfg.Provider == "" {
		return nil, fmt.Errorf("missing required field %q in config at %s", "provider", path)
	}
	if cfg.Provider != ProviderOpenAI && cfg.Provider != ProviderAnthropic {
		return nil, fmt.Errorf("unsupported provider %q in config at %s", cfg.Provider, path)
	}

	return &cfg, nil
}

// Settings returns the credentials block for the given provider tag.
func (c *LLMConfig) Settings(provider string) (ProviderSettings, error) {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAI, nil
	case ProviderAnthropic:
		return c.Anthropic, nil
	default:
		return ProviderSettings{}, fmt.Errorf("provider %q not found in config", provider)
	}
}

// Alternate returns the fallback counterpart of the given provider tag.
func Alternate(provider string) string {
	if provider == ProviderOpenAI {
		return ProviderAnthropic
	}
	return ProviderOpenAI
}
