package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/store"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

func TestPredefinedTemplatesPassValidation(t *testing.T) {
	templates := Predefined("session-1")
	require.Len(t, templates, 2)

	assert.Equal(t, LabelConversations, templates[0].Label)
	assert.Equal(t, LabelEnvironmentChanges, templates[1].Label)
	for _, tpl := range templates {
		assert.NoError(t, Validate(tpl), tpl.Label)
		assert.Equal(t, []any{"session-1"}, tpl.Params)
	}
	assert.Contains(t, templates[0].SQL, "LIMIT 20")
	assert.Contains(t, templates[1].SQL, "LIMIT 15")
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		params []any
	}{
		{"empty", "   ", nil},
		{"not a select", "DELETE FROM conversations WHERE session_id = $1", []any{"s"}},
		{"question mark placeholder", "SELECT * FROM conversations WHERE session_id = ?", []any{"s"}},
		{"printf placeholder", "SELECT * FROM conversations WHERE session_id = %s", []any{"s"}},
		{"too few params", "SELECT * FROM conversations WHERE session_id = $1 AND role = $2", []any{"s"}},
		{"too many params", "SELECT * FROM conversations WHERE session_id = $1", []any{"s", "extra"}},
		{"gap in numbering", "SELECT * FROM conversations WHERE session_id = $2", []any{"s"}},
		{"unknown table", "SELECT * FROM users WHERE id = $1", []any{"s"}},
		{"join to unknown table", "SELECT * FROM conversations JOIN secrets ON true WHERE session_id = $1", []any{"s"}},
		{"no table", "SELECT $1", []any{"s"}},
		{"stacked statements", "SELECT * FROM conversations WHERE session_id = $1; DROP TABLE conversations;", []any{"s"}},
		{"line comment", "SELECT * FROM conversations WHERE session_id = $1 -- trailing", []any{"s"}},
		{"block comment", "SELECT * FROM conversations /* x */ WHERE session_id = $1", []any{"s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(model.QueryTemplate{SQL: tt.sql, Params: tt.params})
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrSafetyViolation)
		})
	}
}

func TestValidateAcceptsSingleTerminatorAndCasts(t *testing.T) {
	err := Validate(model.QueryTemplate{
		SQL:    "SELECT created_at::date FROM environment_changes WHERE session_id = $1;",
		Params: []any{"s"},
	})
	assert.NoError(t, err)
}

type downQuerier struct{}

func (downQuerier) Ping(context.Context) error { return errors.New("connection refused") }
func (downQuerier) QueryRows(context.Context, string, ...any) ([]map[string]any, error) {
	return nil, errors.New("unreachable")
}

func TestExecuteStoreDownIsTopLevelError(t *testing.T) {
	e := NewExecutor(downQuerier{}, 0, logger.NewNop())

	res := e.Execute(context.Background(), Predefined("s1"))

	require.Error(t, res.Err)
	assert.Empty(t, res.Queries)
}

func TestExecuteRejectedTemplateDoesNotStopSiblings(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	require.NoError(t, db.AppendTurn(ctx, model.ConversationTurn{SessionID: "s1", Role: model.RoleUser, Content: "hello"}))

	bad := model.QueryTemplate{Label: "injected", SQL: "SELECT * FROM users WHERE id = $1", Params: []any{"s1"}}
	templates := append([]model.QueryTemplate{bad}, Predefined("s1")...)

	res := NewExecutor(db, 0, logger.NewNop()).Execute(ctx, templates)
	require.NoError(t, res.Err)
	require.Len(t, res.Queries, 3)

	injected, ok := res.Get("injected")
	require.True(t, ok)
	assert.ErrorIs(t, injected.Err, model.ErrSafetyViolation)

	convs, ok := res.Get(LabelConversations)
	require.True(t, ok)
	require.NoError(t, convs.Err)
	assert.Equal(t, 1, convs.RowCount)
	assert.Equal(t, "hello", convs.Rows[0]["content"])

	changes, ok := res.Get(LabelEnvironmentChanges)
	require.True(t, ok)
	require.NoError(t, changes.Err)
	assert.Equal(t, 0, changes.RowCount)
	assert.NotNil(t, changes.Rows)
}
