package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroom-ai/environment-router/internal/model"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		handler(w, body, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClientComplete(t *testing.T) {
	var gotBody map[string]any
	var gotReferer, gotTitle string

	srv := newTestServer(t, func(w http.ResponseWriter, body map[string]any, r *http.Request) {
		gotBody = body
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"model": "openai/gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  Dim the lights.  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`))
	})

	client, err := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Headers: map[string]string{"HTTP-Referer": "http://localhost", "X-Title": "Router"},
	})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Model:       "openai/gpt-4o-mini",
		System:      "be brief",
		Messages:    []ChatMessage{{Role: "user", Content: "hello"}},
		MaxTokens:   50,
		Temperature: 0,
		Stop:        []string{"SQL"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Dim the lights.", resp.Content)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 4, resp.TokensOut)
	assert.Equal(t, "http://localhost", gotReferer)
	assert.Equal(t, "Router", gotTitle)

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, []any{"SQL"}, gotBody["stop"])
	assert.Contains(t, gotBody, "temperature")
}

func TestOpenAIClientEmptyChoicesIsFormatError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ map[string]any, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cmpl-2", "choices": []}`))
	})

	client, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrFormat)
}

func TestOpenAIClientServerErrorIsTransportError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ map[string]any, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream down"}}`))
	})

	client, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransport)
}

func TestConstructorsRequireKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = NewAnthropicClient("")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("anthropic")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p)

	p, err = ParseProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenRouter, p)

	_, err = ParseProvider("carrier-pigeon")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
