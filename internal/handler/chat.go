package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/middleware"
	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/service"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

// ChatHandler handles the chat and request lifecycle endpoints.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := middleware.ValidateMessageContent(req.UserActivity); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := middleware.ValidateSessionID(req.SessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	resp, err := h.chatService.Chat(r.Context(), req)
	if err != nil {
		h.logger.Error("chat failed",
			zap.String("session_id", req.SessionID),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ProvideSensorData handles POST /provide_sensor_data/{request_id}
func (h *ChatHandler) ProvideSensorData(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")

	var req model.SensorDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	resp, err := h.chatService.CompleteWithSensorData(r.Context(), requestID, req.SensorData)
	if err != nil {
		h.logger.Warn("sensor delivery rejected",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CheckStatus handles GET /check_status/{request_id}
func (h *ChatHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.chatService.Coordinator().Status(chi.URLParam(r, "request_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// PendingRequest handles GET /get_pending_request
func (h *ChatHandler) PendingRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.chatService.Coordinator().NextWaiting()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"request_id": ""})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"request_id":   req.RequestID,
		"user_message": req.UserMessage,
	})
}
