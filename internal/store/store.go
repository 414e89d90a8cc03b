// Package store persists the conversation and environment-change tables.
package store

import (
	"context"

	"github.com/smartroom-ai/environment-router/internal/model"
)

// Table names. The history query allow-list is built from these.
const (
	TableConversations      = "conversations"
	TableEnvironmentChanges = "environment_changes"
)

// Querier runs read-only statements and returns rows keyed by column name.
type Querier interface {
	Ping(ctx context.Context) error
	QueryRows(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// Appender writes immutable log rows.
type Appender interface {
	AppendTurn(ctx context.Context, turn model.ConversationTurn) error
	AppendChange(ctx context.Context, change model.EnvironmentChange) error
}

// Store is a relational backend for both tables.
type Store interface {
	Querier
	Appender
	Close() error
}
