// Package prompt assembles the text sent to the generation model.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/query"
)

const historyInstructions = `
INSTRUCTIONS:
1. Answer the user's question conversationally using the available historical data
2. If specific data isn't available, acknowledge this but provide helpful insights
3. Look for patterns in the conversation history and environment changes
4. For questions about past activities, reference specific events from the data
5. Keep your response clear and focused on what the data shows

RESPONSE:`

// BuildHistoryPrompt renders a history-backed question together with the
// rows returned for it.
func BuildHistoryPrompt(message string, cls model.Classification, results query.Results) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER QUESTION: %s\n\n", message)
	fmt.Fprintf(&b, "QUESTION TYPE: %s\n", cls.MessageType)
	fmt.Fprintf(&b, "REASONING: %s\n\n", cls.Reasoning)

	if results.Err != nil {
		fmt.Fprintf(&b, "DATABASE ERROR: %v\n\n", results.Err)
		b.WriteString("Please acknowledge the data limitation but try to answer based on general knowledge.\n\n")
	} else {
		b.WriteString("RECENT CONVERSATION HISTORY AND ENVIRONMENT DATA:\n")
		b.WriteString(strings.Repeat("=", 50) + "\n\n")
		for _, r := range results.Queries {
			writeResult(&b, r)
		}
	}

	b.WriteString(historyInstructions)
	return b.String()
}

func writeResult(b *strings.Builder, r query.Result) {
	fmt.Fprintf(b, "\n--- %s ---\n", r.Purpose)
	fmt.Fprintf(b, "Rows returned: %d\n", r.RowCount)

	switch {
	case r.Err != nil:
		fmt.Fprintf(b, "Query Error: %v\n", r.Err)
	case len(r.Rows) == 0:
		b.WriteString("No historical data found\n")
	default:
		for i, row := range r.Rows {
			fmt.Fprintf(b, "\nRecord %d:\n", i+1)
			keys := make([]string, 0, len(row))
			for k := range row {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if v := renderValue(row[k]); v != "" {
					fmt.Fprintf(b, "  %s: %s\n", k, v)
				}
			}
		}
	}
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return strings.TrimSpace(string(t))
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// BuildOptimizationPrompt renders the action-path prompt from fresh readings.
func BuildOptimizationPrompt(message, activity string, readings model.SensorSnapshot) string {
	return fmt.Sprintf(`You are a smart environment assistant that analyzes current room conditions and optimizes them for different activities.

USER ACTIVITY: %s
ACTIVITY CONTEXT: %s

CURRENT SENSOR READINGS:
- Temperature: %s°C
- Humidity: %s%%
- Light Level: %s

Please analyze the current conditions and provide optimization recommendations. Focus on:
1. What's problematic about current conditions for this activity
2. Specific adjustments needed for temperature, light, etc.
3. Clear reasoning for each change

Provide your response in a helpful, conversational tone with specific recommendations.
`,
		message,
		activity,
		readings.Value("temperature", "N/A"),
		readings.Value("humidity", "N/A"),
		readings.Value("light", "N/A"),
	)
}
