package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/query"
)

func TestBuildHistoryPrompt(t *testing.T) {
	cls := model.Classification{MessageType: model.MessageTypePastDataQuery, Reasoning: "asks about yesterday"}
	results := query.Results{Queries: []query.Result{
		{
			Purpose:  "Recent conversation turns",
			RowCount: 1,
			Rows:     []map[string]any{{"role": "user", "content": "I studied", "metadata": nil}},
		},
		{Purpose: "Recent environment changes", Rows: []map[string]any{}},
		{Purpose: "Broken", Err: errors.New("boom"), Rows: []map[string]any{}},
	}}

	out := BuildHistoryPrompt("what did I do?", cls, results)

	assert.Contains(t, out, "USER QUESTION: what did I do?")
	assert.Contains(t, out, "QUESTION TYPE: past_data_query")
	assert.Contains(t, out, "Record 1:\n  content: I studied\n  role: user\n")
	assert.NotContains(t, out, "metadata")
	assert.Contains(t, out, "No historical data found")
	assert.Contains(t, out, "Query Error: boom")
	assert.Contains(t, out, "RESPONSE:")
}

func TestBuildHistoryPromptStoreDown(t *testing.T) {
	out := BuildHistoryPrompt("hi", model.Classification{}, query.Results{Err: errors.New("connection refused")})

	assert.Contains(t, out, "DATABASE ERROR: connection refused")
	assert.NotContains(t, out, "RECENT CONVERSATION HISTORY")
}

func TestBuildOptimizationPrompt(t *testing.T) {
	out := BuildOptimizationPrompt("going to study", "study", model.SensorSnapshot{"temperature": 26.5, "light": 120})

	assert.Contains(t, out, "ACTIVITY CONTEXT: study")
	assert.Contains(t, out, "- Temperature: 26.5°C")
	assert.Contains(t, out, "- Humidity: N/A%")
	assert.Contains(t, out, "- Light Level: 120")
}
