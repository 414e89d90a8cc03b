package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/smartroom-ai/environment-router/internal/model"
)

var (
	fromClause  = regexp.MustCompile(`(?i)\bfrom\s+([a-z_][a-z0-9_]*)`)
	limitClause = regexp.MustCompile(`(?i)\blimit\s+(\d+)`)
)

// MemoryStore is an in-process stand-in for local runs and tests. It answers
// recency queries of the form "FROM <table> WHERE session_id = $1 ... LIMIT n".
type MemoryStore struct {
	mu      sync.RWMutex
	turns   []model.ConversationTurn
	changes []model.EnvironmentChange
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// AppendTurn stores a copy of turn.
func (s *MemoryStore) AppendTurn(_ context.Context, turn model.ConversationTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	turn.SensorSnapshot = turn.SensorSnapshot.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return nil
}

// AppendChange stores a copy of change.
func (s *MemoryStore) AppendChange(_ context.Context, change model.EnvironmentChange) error {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, change)
	return nil
}

// QueryRows returns the newest rows of the table named in sql for the session
// passed as the first argument.
func (s *MemoryStore) QueryRows(_ context.Context, sql string, args ...any) ([]map[string]any, error) {
	m := fromClause.FindStringSubmatch(sql)
	if m == nil {
		return nil, fmt.Errorf("memory store: no FROM clause in query")
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("memory store: expected 1 argument, got %d", len(args))
	}
	sessionID, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("memory store: session argument must be a string")
	}
	limit := -1
	if lm := limitClause.FindStringSubmatch(sql); lm != nil {
		limit, _ = strconv.Atoi(lm[1])
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []map[string]any
	var stamps []time.Time
	switch m[1] {
	case TableConversations:
		for _, t := range s.turns {
			if t.SessionID != sessionID {
				continue
			}
			rows = append(rows, turnRow(t))
			stamps = append(stamps, t.CreatedAt)
		}
	case TableEnvironmentChanges:
		for _, c := range s.changes {
			if c.SessionID != sessionID {
				continue
			}
			rows = append(rows, changeRow(c))
			stamps = append(stamps, c.CreatedAt)
		}
	default:
		return nil, fmt.Errorf("memory store: unknown table %q", m[1])
	}

	return newestFirst(rows, stamps, limit), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func newestFirst(rows []map[string]any, stamps []time.Time, limit int) []map[string]any {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	// Later inserts win ties so same-instant writes still read back newest first.
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := stamps[idx[a]], stamps[idx[b]]
		if ta.Equal(tb) {
			return idx[a] > idx[b]
		}
		return ta.After(tb)
	})
	if limit >= 0 && limit < len(idx) {
		idx = idx[:limit]
	}
	out := make([]map[string]any, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func turnRow(t model.ConversationTurn) map[string]any {
	row := map[string]any{
		"session_id": t.SessionID,
		"role":       string(t.Role),
		"content":    t.Content,
		"created_at": t.CreatedAt,
	}
	if len(t.Metadata) > 0 {
		row["metadata"] = t.Metadata
	}
	if len(t.SensorSnapshot) > 0 {
		row["sensor_data"] = map[string]any(t.SensorSnapshot)
	}
	if t.RequestID != "" {
		row["request_id"] = t.RequestID
	}
	return row
}

func changeRow(c model.EnvironmentChange) map[string]any {
	return map[string]any{
		"session_id":       c.SessionID,
		"request_id":       c.RequestID,
		"factor":           string(c.Factor),
		"previous_value":   c.PreviousValue,
		"new_value":        c.NewValue,
		"reasoning":        c.Reasoning,
		"activity_context": c.ActivityContext,
		"created_at":       c.CreatedAt,
	}
}
