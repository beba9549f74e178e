package llm

import (
	"context"
	"fmt"

	"calparse/internal/config"
)

// Client is the capability every remote provider exposes: turn a prompt into
// raw text. Implementations must not retry internally; fallback is decided by
// the caller.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns a human-readable provider name for logs and errors.
	Name() string
}

// ProviderError wraps a network/HTTP failure or malformed envelope from a
// provider backend.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewClient maps a provider tag from the LLM config to a concrete client.
func NewClient(provider string, cfg *config.LLMConfig) (Client, error) {
	settings, err := cfg.Settings(provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(settings.APIKey, settings.Model)
	case config.ProviderAnthropic:
		return NewAnthropicClient(settings.APIKey, settings.Model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
