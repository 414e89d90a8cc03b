package model

// MessageType is the closed set of routes the classifier may assign.
type MessageType string

const (
	MessageTypeRealTimeScan         MessageType = "real_time_scan"
	MessageTypeCachedDataResponse   MessageType = "cached_data_response"
	MessageTypeRealTimeOptimization MessageType = "real_time_optimization"
	MessageTypePastDataQuery        MessageType = "past_data_query"
	MessageTypeContextualAdjustment MessageType = "contextual_adjustment"
	MessageTypeExplanationRequest   MessageType = "explanation_request"
)

// ParseMessageType validates a tag coming from outside the process.
func ParseMessageType(s string) (MessageType, bool) {
	switch t := MessageType(s); t {
	case MessageTypeRealTimeScan,
		MessageTypeCachedDataResponse,
		MessageTypeRealTimeOptimization,
		MessageTypePastDataQuery,
		MessageTypeContextualAdjustment,
		MessageTypeExplanationRequest:
		return t, true
	}
	return "", false
}

// QueryTemplate is a fixed, parameterized history query.
type QueryTemplate struct {
	Label   string `json:"label"`
	Purpose string `json:"purpose"`
	SQL     string `json:"query"`
	Params  []any  `json:"parameters"`
}

// Classification is the routing decision for one chat message.
type Classification struct {
	NeedsSensorData bool            `json:"needs_sensor_data"`
	MessageType     MessageType     `json:"message_type"`
	Reasoning       string          `json:"reasoning"`
	Queries         []QueryTemplate `json:"queries,omitempty"`
}
