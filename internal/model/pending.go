package model

import (
	"time"
)

// Status is the lifecycle state of a pending action request.
type Status string

const (
	StatusWaitingForSensors Status = "waiting_for_sensors"
	StatusCompleted         Status = "completed"
)

// PendingRequest is an action request waiting for a sensor scan.
type PendingRequest struct {
	RequestID      string         `json:"request_id"`
	UserMessage    string         `json:"user_message"`
	SessionID      string         `json:"session_id"`
	Classification Classification `json:"classification"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	SensorData     SensorSnapshot `json:"sensor_data,omitempty"`
	Result         *string        `json:"result,omitempty"`
}

// StatusResponse is returned by GET /check_status/{request_id}.
type StatusResponse struct {
	Status      Status `json:"status"`
	Response    string `json:"response,omitempty"`
	Message     string `json:"message,omitempty"`
	UserMessage string `json:"user_message"`
}

// SensorDeliveryRequest is the body of POST /provide_sensor_data/{request_id}.
type SensorDeliveryRequest struct {
	SensorData SensorSnapshot `json:"sensor_data"`
}

// SensorDeliveryResponse is returned once a pending request completes.
type SensorDeliveryResponse struct {
	Status           Status         `json:"status"`
	RequestID        string         `json:"request_id"`
	Response         string         `json:"response"`
	HardwareCommands map[string]any `json:"hardware_commands"`
	Message          string         `json:"message,omitempty"`
}

// ScanStatus describes the scan cooldown gate.
type ScanStatus struct {
	ScanReady            bool    `json:"scan_ready"`
	CooldownSeconds      float64 `json:"cooldown_seconds"`
	SecondsSinceLastScan int     `json:"seconds_since_last_scan"`
	SecondsUntilNextScan int     `json:"seconds_until_next_scan"`
	LastScanTime         float64 `json:"last_scan_time"`
}
