// Package llm provides hosted model client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartroom-ai/environment-router/internal/model"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for hosted model providers.
//
// Implementations wrap failures so callers can classify them with errors.Is:
// model.ErrTransport when the backend cannot be reached or rejects the call,
// model.ErrFormat when the response carries no usable content.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderAnthropic  Provider = "anthropic"
)

// ParseProvider maps a configuration value to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderOpenRouter, "openai", "":
		return ProviderOpenRouter, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	}
	return "", fmt.Errorf("%w: unknown provider %q", model.ErrConfiguration, s)
}

// ErrNoAPIKey is returned by constructors when the credential is empty.
var ErrNoAPIKey = fmt.Errorf("%w: API key is required", model.ErrConfiguration)

func transportError(provider string, err error) error {
	if errors.Is(err, model.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", model.ErrTransport, provider, err)
}
