package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartroom-ai/environment-router/internal/middleware"
	"github.com/smartroom-ai/environment-router/internal/service"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Chat              *service.ChatService
	Health            HealthConfig
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Logger            *logger.Logger
}

// NewRouter builds the chi router with every endpoint mounted.
func NewRouter(cfg RouterConfig) http.Handler {
	chatHandler := NewChatHandler(cfg.Chat, cfg.Logger)
	deviceHandler := NewDeviceHandler(cfg.Chat)
	if cfg.Health.Coordinator == nil {
		cfg.Health.Coordinator = cfg.Chat.Coordinator()
	}
	healthHandler := NewHealthHandler(cfg.Health)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		r.Post("/chat", chatHandler.Chat)
	})

	r.Post("/provide_sensor_data/{request_id}", chatHandler.ProvideSensorData)
	r.Get("/check_status/{request_id}", chatHandler.CheckStatus)
	r.Get("/get_pending_request", chatHandler.PendingRequest)

	r.Post("/sensor_data", deviceHandler.SensorData)
	r.Get("/get_commands/{device_class}", deviceHandler.GetCommands)
	r.Post("/clear_commands/{device_class}", deviceHandler.ClearCommands)
	for path, fn := range map[string]http.HandlerFunc{
		"/control_rgb":    deviceHandler.ControlRGB,
		"/control_buzzer": deviceHandler.ControlBuzzer,
		"/set_alarm":      deviceHandler.SetAlarm,
		"/stop_alarm":     deviceHandler.StopAlarm,
		"/set_oled":       deviceHandler.SetOLED,
	} {
		r.Get(path, fn)
		r.Post(path, fn)
	}

	r.Get("/current_sensor_data", deviceHandler.CurrentSensorData)
	r.Get("/current_activity", deviceHandler.CurrentActivity)
	r.Get("/scan_status", deviceHandler.ScanStatus)
	r.Post("/force_scan", deviceHandler.ForceScan)

	return r
}
