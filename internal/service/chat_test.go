package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroom-ai/environment-router/internal/convlog"
	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/query"
	"github.com/smartroom-ai/environment-router/internal/store"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

type fixedClassifier struct {
	cls   model.Classification
	calls int
}

func (f *fixedClassifier) Classify(_ context.Context, _, sessionID string) model.Classification {
	f.calls++
	cls := f.cls
	if !cls.NeedsSensorData {
		cls.Queries = query.Predefined(sessionID)
	}
	return cls
}

type scriptedGenerator struct {
	reply   string
	prompts []string
}

func (g *scriptedGenerator) GenerateOrApologize(_ context.Context, prompt string) (string, bool) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, true
}

type fixture struct {
	svc   *ChatService
	coord *Coordinator
	mem   *store.MemoryStore
	gen   *scriptedGenerator
	cls   *fixedClassifier
}

func newFixture(needsSensors bool, reply string) *fixture {
	mem := store.NewMemoryStore()
	coord, _ := newTestCoordinator()
	gen := &scriptedGenerator{reply: reply}
	cls := &fixedClassifier{cls: model.Classification{
		NeedsSensorData: needsSensors,
		MessageType:     model.MessageTypeRealTimeOptimization,
	}}
	if !needsSensors {
		cls.cls.MessageType = model.MessageTypePastDataQuery
	}
	lg := logger.NewNop()
	svc := NewChatService(coord, cls, query.NewExecutor(mem, time.Second, lg), gen, convlog.New(mem, lg), lg)
	return &fixture{svc: svc, coord: coord, mem: mem, gen: gen, cls: cls}
}

func (f *fixture) turns(t *testing.T, session string) []map[string]any {
	t.Helper()
	rows, err := f.mem.QueryRows(context.Background(), "SELECT * FROM conversations WHERE session_id = $1 LIMIT 50", session)
	require.NoError(t, err)
	return rows
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	f := newFixture(true, "")

	_, err := f.svc.Chat(context.Background(), model.ChatRequest{UserActivity: "   ", SessionID: "s1"})
	assert.ErrorIs(t, err, model.ErrInput)
	assert.Zero(t, f.cls.calls)
	assert.Empty(t, f.turns(t, "s1"))
}

func TestActionPathRoundTrip(t *testing.T) {
	f := newFixture(true, "The temperature is high, set the lights to blue and turn on the fan.")
	ctx := context.Background()

	resp, err := f.svc.Chat(ctx, model.ChatRequest{UserActivity: "I'm going to study", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitingForSensors, resp.Status)
	assert.True(t, resp.NeedsSensorData)
	require.NotEmpty(t, resp.RequestID)
	assert.Empty(t, f.gen.prompts, "no generation before sensors arrive")

	next, ok := f.coord.NextWaiting()
	require.True(t, ok)
	assert.Equal(t, resp.RequestID, next.RequestID)

	done, err := f.svc.CompleteWithSensorData(ctx, resp.RequestID, model.SensorSnapshot{"temperature": 28.0, "humidity": 40.0, "light": 300.0})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, "blue", done.HardwareCommands[model.CommandRGBColor])
	assert.Equal(t, "STUDY", done.HardwareCommands[model.CommandOLEDDisplay])

	require.Len(t, f.gen.prompts, 1)
	assert.Contains(t, f.gen.prompts[0], "ACTIVITY CONTEXT: study")
	assert.Contains(t, f.gen.prompts[0], "- Temperature: 28°C")

	st, err := f.coord.Status(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, st.Status)
	assert.Equal(t, done.Response, st.Response)
	assert.False(t, f.coord.CanScan())
	assert.Equal(t, 28.0, f.coord.Sensors()["temperature"])
	assert.Equal(t, "STUDY", f.coord.Activity())

	turns := f.turns(t, "s1")
	require.Len(t, turns, 3)
	assert.Equal(t, "assistant", turns[0]["role"])
	assert.Equal(t, resp.RequestID, turns[0]["request_id"])
	assert.Equal(t, "user", turns[1]["role"])
	assert.NotNil(t, turns[1]["sensor_data"], "the delivery logs the message with its readings")
	assert.Equal(t, "user", turns[2]["role"])

	changes, err := f.mem.QueryRows(ctx, "SELECT * FROM environment_changes WHERE session_id = $1 LIMIT 15", "s1")
	require.NoError(t, err)
	factors := map[any]bool{}
	for _, c := range changes {
		assert.Equal(t, resp.RequestID, c["request_id"])
		factors[c["factor"]] = true
	}
	assert.Equal(t, map[any]bool{"temperature": true, "light": true, "fan_speed": true}, factors)

	_, err = f.svc.CompleteWithSensorData(ctx, resp.RequestID, model.SensorSnapshot{})
	assert.ErrorIs(t, err, model.ErrAlreadyCompleted)

	_, err = f.svc.CompleteWithSensorData(ctx, "req_unknown", model.SensorSnapshot{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeliverySurvivesCancelledContext(t *testing.T) {
	f := newFixture(true, "ok")

	resp, err := f.svc.Chat(context.Background(), model.ChatRequest{UserActivity: "make it cosy", SessionID: "s1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.CompleteWithSensorData(ctx, resp.RequestID, nil)
	require.NoError(t, err)

	st, err := f.coord.Status(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, st.Status)
}

func TestInfoPathUsesHistory(t *testing.T) {
	f := newFixture(false, "Yesterday you studied with red light.")
	ctx := context.Background()

	require.NoError(t, f.mem.AppendTurn(ctx, model.ConversationTurn{
		SessionID: "s1",
		Role:      model.RoleUser,
		Content:   "earlier message",
		CreatedAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	resp, err := f.svc.Chat(ctx, model.ChatRequest{UserActivity: "What did I do yesterday?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, resp.Status)
	assert.False(t, resp.NeedsSensorData)
	assert.Equal(t, model.MessageTypePastDataQuery, resp.MessageType)
	assert.Equal(t, "red", resp.HardwareCommands[model.CommandRGBColor])

	require.Len(t, f.gen.prompts, 1)
	assert.Contains(t, f.gen.prompts[0], "earlier message")
	assert.Contains(t, f.gen.prompts[0], "What did I do yesterday?")

	_, waiting := f.coord.NextWaiting()
	assert.False(t, waiting)
	assert.Equal(t, "red", f.coord.PeekCommands(model.DeviceESP8266)[model.CommandRGBColor])

	turns := f.turns(t, "s1")
	require.Len(t, turns, 3)
	assert.Equal(t, "assistant", turns[0]["role"])
	meta, ok := turns[0]["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "info_response", meta["type"])
}

func TestChatDefaultsSession(t *testing.T) {
	f := newFixture(false, "hello")

	_, err := f.svc.Chat(context.Background(), model.ChatRequest{UserActivity: "hi"})
	require.NoError(t, err)

	assert.Len(t, f.turns(t, DefaultSessionID), 2)
}
