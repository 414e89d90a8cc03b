// Package query holds the fixed history query templates and the allow-listed
// executor that runs them. Model output never reaches this package.
package query

import (
	"fmt"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/store"
)

const (
	// ConversationHistoryLimit bounds the conversation template.
	ConversationHistoryLimit = 20
	// ChangeHistoryLimit bounds the environment-change template.
	ChangeHistoryLimit = 15

	LabelConversations      = "recent_conversations"
	LabelEnvironmentChanges = "recent_environment_changes"
)

var conversationsSQL = fmt.Sprintf(`SELECT
	session_id,
	role,
	content,
	metadata,
	sensor_data,
	request_id,
	created_at
FROM %s
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT %d`, store.TableConversations, ConversationHistoryLimit)

var changesSQL = fmt.Sprintf(`SELECT
	factor,
	previous_value,
	new_value,
	reasoning,
	activity_context,
	created_at
FROM %s
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT %d`, store.TableEnvironmentChanges, ChangeHistoryLimit)

// Predefined returns the only two history templates, bound to sessionID.
func Predefined(sessionID string) []model.QueryTemplate {
	return []model.QueryTemplate{
		{
			Label:   LabelConversations,
			Purpose: "Get recent conversation history for context",
			SQL:     conversationsSQL,
			Params:  []any{sessionID},
		},
		{
			Label:   LabelEnvironmentChanges,
			Purpose: "Get recent environment changes for context",
			SQL:     changesSQL,
			Params:  []any{sessionID},
		},
	}
}
