// Package intent derives device commands, activity labels and environment
// changes from chat text by ordered keyword matching.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/smartroom-ai/environment-router/internal/model"
)

// Kind identifies a device command.
type Kind string

const (
	KindRGB     Kind = "rgb"
	KindBuzzer  Kind = "buzzer"
	KindAlarm   Kind = "alarm"
	KindDisplay Kind = "display"
)

// Alarm types.
const (
	AlarmStandard = "standard"
	AlarmUrgent   = "urgent"
	AlarmReminder = "reminder"
)

const (
	defaultBuzzerSeconds = 2
	defaultAlarmSeconds  = 10

	// ActivityGeneral is returned when no activity keyword matches.
	ActivityGeneral = "general"
)

// Command is one device instruction inferred from text.
type Command struct {
	Kind      Kind   `json:"kind"`
	Color     string `json:"color,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	AlarmType string `json:"alarm_type,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Fields expands the command into the flat names the firmware reads.
func (c Command) Fields() map[string]any {
	switch c.Kind {
	case KindRGB:
		return map[string]any{model.CommandRGBColor: c.Color}
	case KindBuzzer:
		return map[string]any{
			model.CommandBuzzerAction:   "beep",
			model.CommandBuzzerDuration: c.Duration,
		}
	case KindAlarm:
		return map[string]any{
			model.CommandAlarm:         true,
			model.CommandAlarmDuration: c.Duration,
			model.CommandAlarmType:     c.AlarmType,
		}
	case KindDisplay:
		return map[string]any{model.CommandOLEDDisplay: c.Text}
	}
	return nil
}

// Flatten merges the fields of every command, later commands winning.
func Flatten(cmds []Command) map[string]any {
	out := make(map[string]any)
	for _, c := range cmds {
		for k, v := range c.Fields() {
			out[k] = v
		}
	}
	return out
}

// Colors in precedence order. Exactly one may match.
var colors = []string{"red", "blue", "green", "yellow", "purple", "cyan", "white"}

type activity struct {
	name     string
	synonyms []string
}

// Activities in precedence order.
var activities = []activity{
	{"study", []string{"study", "learn", "exam", "homework", "concentrate"}},
	{"sleep", []string{"sleep", "bed", "tired", "nap", "rest"}},
	{"yoga", []string{"yoga", "exercise", "workout", "meditate"}},
	{"read", []string{"read", "book", "novel", "article"}},
	{"work", []string{"work", "focus", "project", "deadline"}},
	{"relax", []string{"relax", "chill", "unwind", "tv", "movie"}},
}

var secondsPattern = regexp.MustCompile(`(\d+)\s*-?\s*sec`)

// ExtractDeviceCommands scans user text and model reply together.
func ExtractDeviceCommands(userMessage, modelResponse string) []Command {
	text := strings.ToLower(userMessage + " " + modelResponse)
	var cmds []Command

	for _, c := range colors {
		if strings.Contains(text, c) {
			cmds = append(cmds, Command{Kind: KindRGB, Color: c})
			break
		}
	}

	if containsAny(text, "buzzer", "beep") {
		cmds = append(cmds, Command{Kind: KindBuzzer, Duration: seconds(text, defaultBuzzerSeconds)})
	}

	if strings.Contains(text, "alarm") {
		cmds = append(cmds, Command{
			Kind:      KindAlarm,
			Duration:  seconds(text, defaultAlarmSeconds),
			AlarmType: alarmType(text),
		})
	}

	if name, ok := matchActivity(text); ok {
		cmds = append(cmds, Command{Kind: KindDisplay, Text: strings.ToUpper(name)})
	}

	return cmds
}

// ExtractActivityContext returns the first matching activity in userMessage,
// or ActivityGeneral.
func ExtractActivityContext(userMessage string) string {
	if name, ok := matchActivity(strings.ToLower(userMessage)); ok {
		return name
	}
	return ActivityGeneral
}

// ChangeRecord is an inferred environment change before it is tied to a session.
type ChangeRecord struct {
	Factor          model.Factor
	PreviousValue   string
	NewValue        string
	Reasoning       string
	ActivityContext string
}

// ExtractEnvironmentChanges flags factors the reply talks about. Target values
// are fixed per factor; they are not parsed from the reply.
func ExtractEnvironmentChanges(modelResponse string, snapshot model.SensorSnapshot, activityContext string) []ChangeRecord {
	text := strings.ToLower(modelResponse)
	var out []ChangeRecord

	if strings.Contains(text, "temperature") {
		out = append(out, ChangeRecord{
			Factor:          model.FactorTemperature,
			PreviousValue:   snapshot.Value("temperature", "unknown"),
			NewValue:        "22",
			Reasoning:       "Optimal temperature for comfort and focus",
			ActivityContext: activityContext,
		})
	}
	if containsAny(text, "light", "bright") {
		out = append(out, ChangeRecord{
			Factor:          model.FactorLight,
			PreviousValue:   snapshot.Value("light", "unknown"),
			NewValue:        "2500",
			Reasoning:       "Improved lighting for the activity",
			ActivityContext: activityContext,
		})
	}
	if containsAny(text, "fan", "airflow") {
		out = append(out, ChangeRecord{
			Factor:          model.FactorFanSpeed,
			PreviousValue:   "off",
			NewValue:        "medium",
			Reasoning:       "Better air circulation",
			ActivityContext: activityContext,
		})
	}
	return out
}

func matchActivity(lower string) (string, bool) {
	for _, a := range activities {
		if containsAny(lower, a.synonyms...) {
			return a.name, true
		}
	}
	return "", false
}

func seconds(text string, fallback int) int {
	m := secondsPattern.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func alarmType(text string) string {
	switch {
	case containsAny(text, "urgent", "emergency"):
		return AlarmUrgent
	case strings.Contains(text, "reminder"):
		return AlarmReminder
	}
	return AlarmStandard
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
