package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroom-ai/environment-router/internal/llm"
	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/query"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

type stubClient struct {
	content string
	err     error
	calls   int
	last    *llm.CompletionRequest
}

func (s *stubClient) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func (s *stubClient) Name() string { return "stub" }

type gate bool

func (g gate) CanScan() bool { return bool(g) }

func newClassifier(client llm.Client, canScan bool) *Classifier {
	return New(client, gate(canScan), Config{Model: "test-model"}, logger.NewNop())
}

func TestExplicitScanNeverCallsModel(t *testing.T) {
	messages := []string{
		"please scan the room",
		"what are the current conditions?",
		"give me LIVE DATA",
		"how hot is it right now",
		"update sensors",
		"check environment",
		"real-time readings please",
	}

	for _, canScan := range []bool{true, false} {
		for _, msg := range messages {
			client := &stubClient{content: `{"needs_sensor_data": false, "message_type": "past_data_query", "reasoning": "x"}`}
			cls := newClassifier(client, canScan).Classify(context.Background(), msg, "s1")

			assert.Zero(t, client.calls, msg)
			if canScan {
				assert.True(t, cls.NeedsSensorData, msg)
				assert.Equal(t, model.MessageTypeRealTimeScan, cls.MessageType, msg)
				assert.Empty(t, cls.Queries, msg)
			} else {
				assert.False(t, cls.NeedsSensorData, msg)
				assert.Equal(t, model.MessageTypeCachedDataResponse, cls.MessageType, msg)
				assert.Equal(t, query.Predefined("s1"), cls.Queries, msg)
			}
		}
	}
}

func TestHistoryDecisionAlwaysUsesPredefinedQueries(t *testing.T) {
	outputs := []string{
		`{"needs_sensor_data": false, "message_type": "past_data_query", "reasoning": "history"}`,
		`{"needs_sensor_data": false, "message_type": "explanation_request", "reasoning": "x", "queries": ["DROP TABLE conversations"], "sql_queries": [{"query": "SELECT * FROM users"}]}`,
		"Sure! ```json\n{\"needs_sensor_data\": \"false\", \"message_type\": \"contextual_adjustment\", \"reasoning\": \"ok\"}\n```",
		`Here you go: {"needs_sensor_data": 0, "message_type": "past_data_query", "reasoning": "SELECT * FROM users; --"} thanks`,
	}

	for _, out := range outputs {
		client := &stubClient{content: out}
		cls := newClassifier(client, true).Classify(context.Background(), "what did I do yesterday?", "session-42")

		require.Equal(t, 1, client.calls)
		assert.False(t, cls.NeedsSensorData, out)
		assert.Equal(t, query.Predefined("session-42"), cls.Queries, out)
	}
}

func TestModelRequestShape(t *testing.T) {
	client := &stubClient{content: `{"needs_sensor_data": true, "message_type": "real_time_optimization", "reasoning": "r"}`}
	cls := newClassifier(client, true).Classify(context.Background(), "optimize for reading", "s1")

	require.NotNil(t, client.last)
	assert.Equal(t, "test-model", client.last.Model)
	assert.Zero(t, client.last.Temperature)
	assert.Equal(t, 120, client.last.MaxTokens)
	assert.Contains(t, client.last.Stop, "```sql")
	assert.Contains(t, client.last.System, "NEVER generate SQL")

	assert.True(t, cls.NeedsSensorData)
	assert.Equal(t, model.MessageTypeRealTimeOptimization, cls.MessageType)
	assert.Empty(t, cls.Queries)
}

func TestFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
	}{
		{"transport error", &stubClient{err: errors.New("dial tcp: connection refused")}},
		{"unparsable", &stubClient{content: "I think you want history."}},
		{"missing needs_sensor_data", &stubClient{content: `{"message_type": "past_data_query"}`}},
		{"unknown message type", &stubClient{content: `{"needs_sensor_data": false, "message_type": "drop_tables"}`}},
		{"missing message type", &stubClient{content: `{"needs_sensor_data": false}`}},
		{"nonsense boolean", &stubClient{content: `{"needs_sensor_data": "maybe", "message_type": "past_data_query"}`}},
		{"no backend", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := newClassifier(tt.client, true).Classify(context.Background(), "what's up", "s1")

			assert.True(t, cls.NeedsSensorData)
			assert.Equal(t, model.MessageTypeRealTimeOptimization, cls.MessageType)
			assert.Empty(t, cls.Queries)
		})
	}
}

func TestExtractJSONObjectOrder(t *testing.T) {
	obj, err := extractJSONObject(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), obj["a"])

	obj, err = extractJSONObject("text\n```json\n{\"a\": 2}\n```\nmore {\"a\": 3}")
	require.NoError(t, err)
	assert.Equal(t, float64(2), obj["a"])

	obj, err = extractJSONObject(`prefix {"a": {"b": 4}} suffix`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": float64(4)}, obj["a"])

	_, err = extractJSONObject("no json here")
	assert.ErrorIs(t, err, model.ErrParse)
}
