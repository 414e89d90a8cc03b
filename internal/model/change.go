package model

import (
	"time"
)

// Factor is an environment property an optimization can change.
type Factor string

const (
	FactorTemperature Factor = "temperature"
	FactorHumidity    Factor = "humidity"
	FactorLight       Factor = "light"
	FactorFanSpeed    Factor = "fan_speed"
	FactorRGBColor    Factor = "rgb_color"
)

// EnvironmentChange records one inferred change produced by a completed request.
type EnvironmentChange struct {
	SessionID       string    `json:"session_id"`
	RequestID       string    `json:"request_id"`
	Factor          Factor    `json:"factor"`
	PreviousValue   string    `json:"previous_value"`
	NewValue        string    `json:"new_value"`
	Reasoning       string    `json:"reasoning"`
	ActivityContext string    `json:"activity_context"`
	CreatedAt       time.Time `json:"created_at"`
}
