package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/smartroom-ai/environment-router/internal/model"
)

// OpenAIConfig configures an OpenAI-compatible endpoint such as OpenRouter.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	// Headers are added to every request. OpenRouter uses HTTP-Referer and
	// X-Title for attribution.
	Headers map[string]string
}

// OpenAIClient talks to an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if len(cfg.Headers) > 0 {
		clientCfg.HTTPClient = &http.Client{
			Transport: &headerTransport{base: http.DefaultTransport, headers: cfg.Headers},
		}
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenRouter)
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	// The SDK drops a zero temperature through omitempty.
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        req.Stop,
	})
	if err != nil {
		return nil, transportError(c.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return nil, formatError(c.Name(), "no choices in response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	stopReason := string(resp.Choices[0].FinishReason)
	// A stop sequence may legitimately cut the output to nothing; callers
	// treat empty content as a format error either way.
	if content == "" {
		return nil, formatError(c.Name(), "empty content (finish reason "+stopReason+")")
	}

	return &CompletionResponse{
		Content:    content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: stopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}

func formatError(provider, detail string) error {
	return fmt.Errorf("%w: %s: %s", model.ErrFormat, provider, detail)
}
