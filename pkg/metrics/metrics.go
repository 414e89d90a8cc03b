// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartenv_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartenv_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// LLMCallDuration tracks hosted model call latency per gateway.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartenv_llm_call_duration_seconds",
			Help:    "Hosted model call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"gateway", "model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartenv_llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ClassificationsTotal counts routing decisions by message type and source.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartenv_classifications_total",
			Help: "Classifier decisions",
		},
		[]string{"message_type", "source"},
	)

	// PendingRequests tracks entries in the pending-request table by status.
	PendingRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smartenv_pending_requests",
			Help: "Pending action requests held in memory",
		},
		[]string{"status"},
	)

	// DeviceCommandsTotal counts commands queued per device class.
	DeviceCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartenv_device_commands_total",
			Help: "Device commands queued",
		},
		[]string{"device_class", "command"},
	)

	// QueryResultsTotal counts history template executions by outcome.
	QueryResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartenv_query_results_total",
			Help: "History query template executions",
		},
		[]string{"label", "outcome"},
	)

	// LogWriteFailuresTotal counts best-effort log writes that failed.
	LogWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartenv_log_write_failures_total",
			Help: "Failed conversation or change log writes",
		},
		[]string{"table"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordLLMCall records metrics for one hosted model call.
func RecordLLMCall(gateway, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCallDuration.WithLabelValues(gateway, model, status).Observe(duration)
	if tokensIn > 0 {
		LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
	}
}

// SetPending publishes the current size of the pending-request table.
func SetPending(waiting, completed int) {
	PendingRequests.WithLabelValues("waiting_for_sensors").Set(float64(waiting))
	PendingRequests.WithLabelValues("completed").Set(float64(completed))
}
