package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicSystemPrompt = "You are a precise event parser. Always return valid JSON " +
	"following the specified format."

// AnthropicClient talks to the Anthropic messages API. The request shape is
// single-message style rather than chat-completion style, so it gets its own
// request/response types instead of sharing the OpenAI path.
type AnthropicClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *anthropicError `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	return &AnthropicClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.anthropic.com/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := anthropicRequest{
		Model:       c.model,
		MaxTokens:   1000,
		Temperature: 0.1,
		System:      anthropicSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: "Return the following as JSON. " + prompt},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Err: fmt.Errorf("marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider: c.Name(),
			Err:      fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)),
		}
	}

	var aResp anthropicResponse
	if err := json.Unmarshal(respBody, &aResp); err != nil {
		return "", &ProviderError{Provider: c.Name(), Err: fmt.Errorf("parsing response: %w", err)}
	}

	if aResp.Error != nil {
		return "", &ProviderError{Provider: c.Name(), Err: fmt.Errorf("API error: %s", aResp.Error.Message)}
	}

	if len(aResp.Content) == 0 {
		return "", &ProviderError{Provider: c.Name(), Err: fmt.Errorf("empty response")}
	}

	return strings.TrimSpace(aResp.Content[0].Text), nil
}
