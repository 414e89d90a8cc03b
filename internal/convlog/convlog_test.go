package convlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/query"
	"github.com/smartroom-ai/environment-router/internal/store"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

type failingStore struct{}

func (failingStore) AppendTurn(context.Context, model.ConversationTurn) error {
	return errors.New("disk full")
}

func (failingStore) AppendChange(context.Context, model.EnvironmentChange) error {
	return errors.New("disk full")
}

type recordingMirror struct {
	turns    []model.ConversationTurn
	changes  []model.EnvironmentChange
	commands map[model.DeviceClass]map[string]any
}

func (m *recordingMirror) PublishTurn(_ context.Context, t model.ConversationTurn) error {
	m.turns = append(m.turns, t)
	return nil
}

func (m *recordingMirror) PublishChange(_ context.Context, c model.EnvironmentChange) error {
	m.changes = append(m.changes, c)
	return nil
}

func (m *recordingMirror) PublishCommands(_ context.Context, class model.DeviceClass, cmds map[string]any) error {
	if m.commands == nil {
		m.commands = map[model.DeviceClass]map[string]any{}
	}
	m.commands[class] = cmds
	return nil
}

func TestRecordedTurnsAreReadableByHistoryQueries(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	l := New(mem, logger.NewNop())
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	l.RecordTurn(ctx, model.ConversationTurn{SessionID: "s1", Role: model.RoleUser, Content: "going to study", CreatedAt: base})
	l.RecordTurn(ctx, model.ConversationTurn{
		SessionID:      "s1",
		Role:           model.RoleAssistant,
		Content:        "Lower the temperature.",
		RequestID:      "req_1",
		SensorSnapshot: model.SensorSnapshot{"temperature": 27.0},
		CreatedAt:      base.Add(time.Minute),
	})
	l.RecordChange(ctx, model.EnvironmentChange{
		SessionID:       "s1",
		RequestID:       "req_1",
		Factor:          model.FactorTemperature,
		PreviousValue:   "27",
		NewValue:        "22",
		ActivityContext: "study",
	})

	res := query.NewExecutor(mem, time.Second, logger.NewNop()).Execute(ctx, query.Predefined("s1"))
	require.NoError(t, res.Err)

	turns, ok := res.Get(query.LabelConversations)
	require.True(t, ok)
	require.NoError(t, turns.Err)
	require.Equal(t, 2, turns.RowCount)
	assert.Equal(t, "Lower the temperature.", turns.Rows[0]["content"])
	assert.Equal(t, "req_1", turns.Rows[0]["request_id"])
	assert.Equal(t, "going to study", turns.Rows[1]["content"])

	changes, ok := res.Get(query.LabelEnvironmentChanges)
	require.True(t, ok)
	require.Equal(t, 1, changes.RowCount)
	assert.Equal(t, "22", changes.Rows[0]["new_value"])
}

func TestStoreFailureIsSwallowed(t *testing.T) {
	mirror := &recordingMirror{}
	l := New(failingStore{}, logger.NewNop(), WithMirror(mirror))

	assert.NotPanics(t, func() {
		l.RecordTurn(context.Background(), model.ConversationTurn{SessionID: "s1", Role: model.RoleUser, Content: "hi"})
		l.RecordChange(context.Background(), model.EnvironmentChange{SessionID: "s1", RequestID: "r", Factor: model.FactorLight})
	})
	assert.Empty(t, mirror.turns, "rows that failed to store are not mirrored")
	assert.Empty(t, mirror.changes)
}

func TestMirrorReceivesStoredRows(t *testing.T) {
	mirror := &recordingMirror{}
	l := New(store.NewMemoryStore(), logger.NewNop(), WithMirror(mirror))
	ctx := context.Background()

	l.RecordTurn(ctx, model.ConversationTurn{SessionID: "s1", Role: model.RoleUser, Content: "hi"})
	l.RecordCommands(ctx, model.DeviceESP8266, map[string]any{"rgb_color": "red"})
	l.RecordCommands(ctx, model.DeviceESP8266, nil)

	require.Len(t, mirror.turns, 1)
	assert.False(t, mirror.turns[0].CreatedAt.IsZero())
	assert.Equal(t, map[string]any{"rgb_color": "red"}, mirror.commands[model.DeviceESP8266])
}
