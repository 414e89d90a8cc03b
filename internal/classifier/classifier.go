// Package classifier decides whether a chat message needs a fresh sensor scan
// or can be answered from stored history.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/llm"
	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/query"
	"github.com/smartroom-ai/environment-router/pkg/logger"
	"github.com/smartroom-ai/environment-router/pkg/metrics"
	"github.com/smartroom-ai/environment-router/pkg/tracing"
)

// ScanGate reports whether the scan cooldown has elapsed.
type ScanGate interface {
	CanScan() bool
}

// Config tunes the hosted classification call.
type Config struct {
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Sources recorded in metrics.
const (
	sourceKeyword  = "keyword"
	sourceModel    = "model"
	sourceFallback = "fallback"
)

var scanKeywords = []string{
	"scan",
	"check environment",
	"current conditions",
	"real-time",
	"right now",
	"live data",
	"update sensors",
}

// Stop sequences cut generation as soon as the model drifts into query text.
var stopSequences = []string{"\nSELECT", "\nINSERT", "```sql", "SQL", "query"}

const systemInstruction = "You are a strict JSON-only classifier. Your ONLY purpose is to classify if the user message " +
	"requires CURRENT sensor data or can be answered using HISTORICAL data. " +
	"NEVER generate SQL, code, or any database fragments. " +
	"Output ONLY a single JSON object with keys: needs_sensor_data (true/false), " +
	"message_type (one of: real_time_optimization/past_data_query/contextual_adjustment/explanation_request), " +
	"reasoning (short string explaining your classification). " +
	"No extra text."

// Classifier is the classification gateway.
type Classifier struct {
	client llm.Client
	gate   ScanGate
	cfg    Config
	logger *logger.Logger
}

// New creates a classifier. client may be nil, in which case every
// non-keyword message takes the safe fallback.
func New(client llm.Client, gate ScanGate, cfg Config, log *logger.Logger) *Classifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 120
	}
	return &Classifier{client: client, gate: gate, cfg: cfg, logger: log}
}

// NeedsExplicitScan reports whether message asks for a scan in so many words.
func NeedsExplicitScan(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range scanKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Classify routes message. It never fails: every error becomes the safe
// default of needing a fresh scan.
func (c *Classifier) Classify(ctx context.Context, message, sessionID string) model.Classification {
	if NeedsExplicitScan(message) {
		var cls model.Classification
		if c.gate.CanScan() {
			cls = model.Classification{
				NeedsSensorData: true,
				MessageType:     model.MessageTypeRealTimeScan,
				Reasoning:       "Explicit scan request detected",
			}
		} else {
			cls = model.Classification{
				NeedsSensorData: false,
				MessageType:     model.MessageTypeCachedDataResponse,
				Reasoning:       "Explicit scan requested but in cooldown, using cached data",
			}
		}
		return c.finish(cls, sessionID, sourceKeyword)
	}

	d, err := c.ask(ctx, message)
	if err != nil {
		c.logger.Warn("classification fell back to sensor scan",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return c.finish(Fallback(), sessionID, sourceFallback)
	}

	reasoning := d.reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	return c.finish(model.Classification{
		NeedsSensorData: d.needsSensorData,
		MessageType:     d.messageType,
		Reasoning:       reasoning,
	}, sessionID, sourceModel)
}

// Fallback is the decision used whenever the model cannot be trusted.
func Fallback() model.Classification {
	return model.Classification{
		NeedsSensorData: true,
		MessageType:     model.MessageTypeRealTimeOptimization,
		Reasoning:       "Fallback: classification failed or unparsable model output",
	}
}

// finish attaches queries. History answers always get exactly the fixed
// templates; nothing from the model is ever used to build them.
func (c *Classifier) finish(cls model.Classification, sessionID, source string) model.Classification {
	if cls.NeedsSensorData {
		cls.Queries = nil
	} else {
		cls.Queries = query.Predefined(sessionID)
	}
	metrics.ClassificationsTotal.WithLabelValues(string(cls.MessageType), source).Inc()
	c.logger.Info("message classified",
		zap.String("session_id", sessionID),
		zap.Bool("needs_sensor_data", cls.NeedsSensorData),
		zap.String("message_type", string(cls.MessageType)),
		zap.String("source", source),
	)
	return cls
}

func (c *Classifier) ask(ctx context.Context, message string) (decision, error) {
	if c.client == nil {
		return decision{}, fmt.Errorf("%w: no classification backend", model.ErrConfiguration)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	ctx, span := tracing.Start(ctx, "classifier.classify", attribute.String("model", c.cfg.Model))

	start := time.Now()
	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model:  c.cfg.Model,
		System: systemInstruction,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: userPrompt(message)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0,
		Stop:        stopSequences,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, model.ErrTransport) {
			err = fmt.Errorf("%w: %v", model.ErrTransport, err)
		}
		metrics.RecordLLMCall("classifier", c.cfg.Model, "error", time.Since(start).Seconds(), 0, 0)
		tracing.End(span, err)
		return decision{}, err
	}
	metrics.RecordLLMCall("classifier", c.cfg.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	obj, err := extractJSONObject(resp.Content)
	if err != nil {
		tracing.End(span, err)
		return decision{}, err
	}
	d, err := parseDecision(obj)
	tracing.End(span, err)
	return d, err
}

func userPrompt(message string) string {
	return fmt.Sprintf(`USER QUESTION: %q

Return ONLY this JSON format:
{
  "needs_sensor_data": true/false,
  "message_type": "real_time_optimization/past_data_query/contextual_adjustment/explanation_request",
  "reasoning": "brief explanation for classification"
}`, message)
}
