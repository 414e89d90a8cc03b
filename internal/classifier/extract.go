package classifier

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/smartroom-ai/environment-router/internal/model"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSONObject decodes the first JSON object it can find in text: the
// whole text, then a fenced block, then the outermost braces.
func extractJSONObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, nil
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		obj = nil
		if err := json.Unmarshal([]byte(m[1]), &obj); err == nil && obj != nil {
			return obj, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		obj = nil
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON object in model output", model.ErrParse)
}

// decision is the validated subset of the classifier output.
type decision struct {
	needsSensorData bool
	messageType     model.MessageType
	reasoning       string
}

func parseDecision(obj map[string]any) (decision, error) {
	var d decision

	needs, ok := parseBool(obj["needs_sensor_data"])
	if !ok {
		return d, fmt.Errorf("%w: needs_sensor_data missing or not a boolean", model.ErrParse)
	}
	d.needsSensorData = needs

	raw, _ := obj["message_type"].(string)
	mt, ok := model.ParseMessageType(strings.TrimSpace(raw))
	if !ok {
		return d, fmt.Errorf("%w: unrecognized message_type %q", model.ErrParse, raw)
	}
	d.messageType = mt

	if r, ok := obj["reasoning"].(string); ok {
		d.reasoning = strings.TrimSpace(r)
	}
	return d, nil
}

func parseBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case float64:
		if t == 0 || t == 1 {
			return t == 1, true
		}
	}
	return false, false
}
