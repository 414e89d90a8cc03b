// Package convlog appends conversation turns and environment changes.
//
// Writes are best-effort: a failing store or mirror is logged and counted but
// never surfaces to the caller.
package convlog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/store"
	"github.com/smartroom-ai/environment-router/pkg/logger"
	"github.com/smartroom-ai/environment-router/pkg/metrics"
)

// Publisher mirrors log rows to an event stream.
type Publisher interface {
	PublishTurn(ctx context.Context, turn model.ConversationTurn) error
	PublishChange(ctx context.Context, change model.EnvironmentChange) error
	PublishCommands(ctx context.Context, class model.DeviceClass, commands map[string]any) error
}

// Log is the append-only conversation and change log.
type Log struct {
	store   store.Appender
	mirror  Publisher
	timeout time.Duration
	logger  *logger.Logger
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithMirror publishes every row to p after it is stored.
func WithMirror(p Publisher) Option {
	return func(l *Log) { l.mirror = p }
}

// WithTimeout bounds each store write.
func WithTimeout(d time.Duration) Option {
	return func(l *Log) { l.timeout = d }
}

// New creates a log writing to s.
func New(s store.Appender, log *logger.Logger, opts ...Option) *Log {
	l := &Log{
		store:   s,
		timeout: 10 * time.Second,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordTurn appends one conversation turn.
func (l *Log) RecordTurn(ctx context.Context, turn model.ConversationTurn) {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = l.now()
	}

	wctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.store.AppendTurn(wctx, turn); err != nil {
		metrics.LogWriteFailuresTotal.WithLabelValues(store.TableConversations).Inc()
		l.logger.Error("failed to store conversation turn",
			zap.String("session_id", turn.SessionID),
			zap.String("role", string(turn.Role)),
			zap.Error(err),
		)
		return
	}

	if l.mirror != nil {
		if err := l.mirror.PublishTurn(wctx, turn); err != nil {
			l.logger.Warn("failed to mirror conversation turn", zap.Error(err))
		}
	}
}

// RecordChange appends one environment change.
func (l *Log) RecordChange(ctx context.Context, change model.EnvironmentChange) {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = l.now()
	}

	wctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.store.AppendChange(wctx, change); err != nil {
		metrics.LogWriteFailuresTotal.WithLabelValues(store.TableEnvironmentChanges).Inc()
		l.logger.Error("failed to store environment change",
			zap.String("session_id", change.SessionID),
			zap.String("request_id", change.RequestID),
			zap.String("factor", string(change.Factor)),
			zap.Error(err),
		)
		return
	}

	if l.mirror != nil {
		if err := l.mirror.PublishChange(wctx, change); err != nil {
			l.logger.Warn("failed to mirror environment change", zap.Error(err))
		}
	}
}

// RecordCommands mirrors a batch of queued device commands. Commands are not
// stored relationally.
func (l *Log) RecordCommands(ctx context.Context, class model.DeviceClass, commands map[string]any) {
	if l.mirror == nil || len(commands) == 0 {
		return
	}

	wctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.mirror.PublishCommands(wctx, class, commands); err != nil {
		l.logger.Warn("failed to mirror device commands",
			zap.String("device_class", string(class)),
			zap.Error(err),
		)
	}
}
