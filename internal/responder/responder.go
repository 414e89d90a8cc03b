// Package responder is the gateway to the hosted generation model.
package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/llm"
	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/pkg/logger"
	"github.com/smartroom-ai/environment-router/pkg/metrics"
	"github.com/smartroom-ai/environment-router/pkg/tracing"
)

// Apology replaces a reply whenever generation fails.
const Apology = "Sorry, I'm having trouble generating a full answer right now. " +
	"I can still try to help based on what I remember: " +
	"please ask again or check the conversation history."

// Config tunes generation calls.
type Config struct {
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Responder produces natural-language replies.
type Responder struct {
	client llm.Client
	cfg    Config
	logger *logger.Logger
}

// New creates a responder. A nil client makes every call fail with
// model.ErrConfiguration.
func New(client llm.Client, cfg Config, log *logger.Logger) *Responder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	return &Responder{client: client, cfg: cfg, logger: log}
}

// Configured reports whether a backend credential was supplied.
func (r *Responder) Configured() bool {
	return r.client != nil
}

// Generate sends prompt as a single user turn. Errors wrap one of
// model.ErrConfiguration, model.ErrTransport or model.ErrFormat.
func (r *Responder) Generate(ctx context.Context, prompt string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("%w: no generation API key configured", model.ErrConfiguration)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	ctx, span := tracing.Start(ctx, "responder.generate",
		attribute.String("model", r.cfg.Model),
		attribute.String("provider", r.client.Name()),
	)

	start := time.Now()
	resp, err := r.client.Complete(ctx, &llm.CompletionRequest{
		Model:       r.cfg.Model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		if !errors.Is(err, model.ErrTransport) && !errors.Is(err, model.ErrFormat) {
			err = fmt.Errorf("%w: %v", model.ErrTransport, err)
		}
		metrics.RecordLLMCall("responder", r.cfg.Model, "error", time.Since(start).Seconds(), 0, 0)
		tracing.End(span, err)
		return "", err
	}

	metrics.RecordLLMCall("responder", resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	tracing.End(span, nil)
	return resp.Content, nil
}

// GenerateOrApologize never fails; any gateway error yields Apology.
func (r *Responder) GenerateOrApologize(ctx context.Context, prompt string) (string, bool) {
	reply, err := r.Generate(ctx, prompt)
	if err != nil {
		r.logger.Error("generation failed, using apology", zap.Error(err))
		return Apology, false
	}
	return reply, true
}
