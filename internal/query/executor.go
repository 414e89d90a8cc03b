package query

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/store"
	"github.com/smartroom-ai/environment-router/pkg/logger"
	"github.com/smartroom-ai/environment-router/pkg/metrics"
	"github.com/smartroom-ai/environment-router/pkg/tracing"
)

// Result is the outcome of one template.
type Result struct {
	Label    string           `json:"label"`
	Purpose  string           `json:"purpose"`
	Rows     []map[string]any `json:"data"`
	RowCount int              `json:"row_count"`
	Err      error            `json:"-"`
}

// Results holds per-template outcomes in template order. Err is set instead
// when the store itself was unreachable.
type Results struct {
	Err     error
	Queries []Result
}

// Get returns the result for label.
func (r Results) Get(label string) (Result, bool) {
	for _, q := range r.Queries {
		if q.Label == label {
			return q, true
		}
	}
	return Result{}, false
}

// Executor validates and runs history templates.
type Executor struct {
	db      store.Querier
	timeout time.Duration
	logger  *logger.Logger
}

// NewExecutor creates an executor. timeout bounds each store call.
func NewExecutor(db store.Querier, timeout time.Duration, log *logger.Logger) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Executor{db: db, timeout: timeout, logger: log}
}

// Execute runs every template that passes Validate. A rejected or failing
// template never stops its siblings.
func (e *Executor) Execute(ctx context.Context, templates []model.QueryTemplate) Results {
	ctx, span := tracing.Start(ctx, "query.execute", attribute.Int("templates", len(templates)))

	pingCtx, cancel := context.WithTimeout(ctx, e.timeout)
	err := e.db.Ping(pingCtx)
	cancel()
	if err != nil {
		e.logger.Error("history store unreachable", zap.Error(err))
		tracing.End(span, err)
		return Results{Err: fmt.Errorf("database connection failed: %w", err)}
	}

	out := Results{Queries: make([]Result, 0, len(templates))}
	for i, t := range templates {
		label := t.Label
		if label == "" {
			label = fmt.Sprintf("query_%d", i+1)
		}
		res := Result{Label: label, Purpose: t.Purpose, Rows: []map[string]any{}}
		if res.Purpose == "" {
			res.Purpose = label
		}

		if err := Validate(t); err != nil {
			e.logger.Warn("query template rejected", zap.String("label", label), zap.Error(err))
			metrics.QueryResultsTotal.WithLabelValues(label, "rejected").Inc()
			res.Err = err
			out.Queries = append(out.Queries, res)
			continue
		}

		queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
		rows, err := e.db.QueryRows(queryCtx, t.SQL, t.Params...)
		cancel()
		if err != nil {
			e.logger.Error("query template failed", zap.String("label", label), zap.Error(err))
			metrics.QueryResultsTotal.WithLabelValues(label, "error").Inc()
			res.Err = err
			out.Queries = append(out.Queries, res)
			continue
		}

		if rows != nil {
			res.Rows = rows
		}
		res.RowCount = len(res.Rows)
		metrics.QueryResultsTotal.WithLabelValues(label, "ok").Inc()
		e.logger.Debug("query template executed", zap.String("label", label), zap.Int("rows", res.RowCount))
		out.Queries = append(out.Queries, res)
	}

	tracing.End(span, nil)
	return out
}
