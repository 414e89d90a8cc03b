package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroom-ai/environment-router/internal/model"
)

func TestMemoryStoreNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendTurn(ctx, model.ConversationTurn{
			SessionID: "s1",
			Role:      model.RoleUser,
			Content:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.AppendTurn(ctx, model.ConversationTurn{SessionID: "other", Role: model.RoleUser, Content: "x"}))

	rows, err := s.QueryRows(ctx, "SELECT role, content FROM conversations WHERE session_id = $1 ORDER BY created_at DESC LIMIT 3", "s1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "e", rows[0]["content"])
	assert.Equal(t, "d", rows[1]["content"])
	assert.Equal(t, "c", rows[2]["content"])
}

func TestMemoryStoreSameInstantReadsLatestInsertFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendChange(ctx, model.EnvironmentChange{SessionID: "s1", RequestID: "r1", Factor: model.FactorLight, CreatedAt: at}))
	require.NoError(t, s.AppendChange(ctx, model.EnvironmentChange{SessionID: "s1", RequestID: "r2", Factor: model.FactorFanSpeed, CreatedAt: at}))

	rows, err := s.QueryRows(ctx, "SELECT factor FROM environment_changes WHERE session_id = $1 LIMIT 15", "s1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "fan_speed", rows[0]["factor"])
}

func TestMemoryStoreRejectsUnknownTable(t *testing.T) {
	_, err := NewMemoryStore().QueryRows(context.Background(), "SELECT * FROM users WHERE id = $1", "s1")
	assert.Error(t, err)
}
