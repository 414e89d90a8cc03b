package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartroom-ai/environment-router/internal/model"
)

// PostgresStore keeps conversations and environment changes in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and bootstraps the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := InitSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// InitSchema creates both tables and their indexes if missing.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
			content TEXT NOT NULL,
			metadata JSONB,
			sensor_data JSONB,
			request_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_session_created ON conversations (session_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_request ON conversations (request_id);`,
		`CREATE TABLE IF NOT EXISTS environment_changes (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			request_id TEXT NOT NULL,
			factor TEXT NOT NULL CHECK (factor IN ('temperature', 'humidity', 'light', 'fan_speed', 'rgb_color')),
			previous_value VARCHAR(100),
			new_value VARCHAR(100),
			reasoning TEXT,
			activity_context VARCHAR(100),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_environment_changes_session_created ON environment_changes (session_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_environment_changes_request ON environment_changes (request_id);`,
		`CREATE INDEX IF NOT EXISTS idx_environment_changes_activity ON environment_changes (activity_context);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Ping checks the pool can reach the server.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: postgres: %v", model.ErrTransport, err)
	}
	return nil
}

// QueryRows runs sql and collects every row into a column map.
func (s *PostgresStore) QueryRows(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}
	return out, nil
}

// AppendTurn inserts one conversation turn.
func (s *PostgresStore) AppendTurn(ctx context.Context, turn model.ConversationTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	metadata, err := jsonOrNil(turn.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	sensors, err := jsonOrNil(turn.SensorSnapshot)
	if err != nil {
		return fmt.Errorf("encode sensor data: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (session_id, role, content, metadata, sensor_data, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		turn.SessionID,
		string(turn.Role),
		turn.Content,
		metadata,
		sensors,
		nullIfEmpty(turn.RequestID),
		turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// AppendChange inserts one environment change.
func (s *PostgresStore) AppendChange(ctx context.Context, change model.EnvironmentChange) error {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO environment_changes (session_id, request_id, factor, previous_value, new_value, reasoning, activity_context, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		change.SessionID,
		change.RequestID,
		string(change.Factor),
		change.PreviousValue,
		change.NewValue,
		change.Reasoning,
		change.ActivityContext,
		change.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert environment change: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func jsonOrNil[M ~map[string]any](m M) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
