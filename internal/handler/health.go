package handler

import (
	"context"
	"net/http"
	"time"

	natsclient "github.com/smartroom-ai/environment-router/internal/nats"
	"github.com/smartroom-ai/environment-router/internal/service"
	"github.com/smartroom-ai/environment-router/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db                   store.Querier
	natsClient           *natsclient.Client
	coord                *service.Coordinator
	classifierConfigured bool
	generatorConfigured  bool
	cooldown             time.Duration
}

// HealthConfig describes what the health endpoint reports about.
type HealthConfig struct {
	DB                   store.Querier
	NATS                 *natsclient.Client
	Coordinator          *service.Coordinator
	ClassifierConfigured bool
	GeneratorConfigured  bool
	ScanCooldown         time.Duration
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	return &HealthHandler{
		db:                   cfg.DB,
		natsClient:           cfg.NATS,
		coord:                cfg.Coordinator,
		classifierConfigured: cfg.ClassifierConfigured,
		generatorConfigured:  cfg.GeneratorConfigured,
		cooldown:             cfg.ScanCooldown,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if err := h.ping(r.Context()); err != nil {
		database = "disconnected"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":                "healthy",
		"database":              database,
		"nats":                  h.natsStatus(),
		"generator_configured":  h.generatorConfigured,
		"classifier_configured": h.classifierConfigured,
		"scan_cooldown":         h.cooldown.Seconds(),
		"can_scan_now":          h.coord.CanScan(),
		"current_activity":      h.coord.Activity(),
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unreachable",
		})
		return
	}

	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *HealthHandler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.Ping(ctx)
}

func (h *HealthHandler) natsStatus() string {
	switch {
	case h.natsClient == nil:
		return "disabled"
	case h.natsClient.IsConnected():
		return "connected"
	default:
		return "disconnected"
	}
}
