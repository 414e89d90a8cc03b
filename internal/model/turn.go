// Package model defines data structures for the smart-environment router.
package model

import (
	"time"
)

// Role represents the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the roles the conversations table accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// SensorSnapshot maps a sensor name to its last reported reading.
type SensorSnapshot map[string]any

// Value returns the reading for name formatted for prompts and change records,
// or fallback when the sensor did not report.
func (s SensorSnapshot) Value(name, fallback string) string {
	v, ok := s[name]
	if !ok || v == nil {
		return fallback
	}
	return formatReading(v)
}

// Clone returns a shallow copy of the snapshot.
func (s SensorSnapshot) Clone() SensorSnapshot {
	if s == nil {
		return nil
	}
	out := make(SensorSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ConversationTurn is one immutable row of the conversations log.
type ConversationTurn struct {
	SessionID      string         `json:"session_id"`
	Role           Role           `json:"role"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	SensorSnapshot SensorSnapshot `json:"sensor_data,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserActivity string `json:"user_activity"`
	SessionID    string `json:"session_id"`
}

// ChatResponse is returned by POST /chat for both routes.
type ChatResponse struct {
	Status           Status         `json:"status"`
	RequestID        string         `json:"request_id,omitempty"`
	UserMessage      string         `json:"user_message,omitempty"`
	Message          string         `json:"message,omitempty"`
	Response         string         `json:"response,omitempty"`
	NeedsSensorData  bool           `json:"needs_sensor_data"`
	MessageType      MessageType    `json:"message_type,omitempty"`
	HardwareCommands map[string]any `json:"hardware_commands,omitempty"`
}
