package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartroom-ai/environment-router/internal/intent"
	"github.com/smartroom-ai/environment-router/internal/middleware"
	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/service"
)

// DeviceHandler serves the sensor and device-command endpoints polled by the
// microcontrollers and the dashboard.
type DeviceHandler struct {
	chatService *service.ChatService
	coord       *service.Coordinator
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(chatSvc *service.ChatService) *DeviceHandler {
	return &DeviceHandler{chatService: chatSvc, coord: chatSvc.Coordinator()}
}

// SensorData handles POST /sensor_data
func (h *DeviceHandler) SensorData(w http.ResponseWriter, r *http.Request) {
	var readings model.SensorSnapshot
	if err := decodeJSON(r, &readings); err != nil {
		writeServiceError(w, err)
		return
	}
	h.coord.UpdateSensors(readings)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GetCommands handles GET /get_commands/{device_class}. The read consumes the
// queue unless ?peek=true.
func (h *DeviceHandler) GetCommands(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "device_class")
	if err := middleware.ValidateDeviceClass(class); err != nil {
		writeServiceError(w, err)
		return
	}

	if r.URL.Query().Get("peek") == "true" {
		writeJSON(w, http.StatusOK, h.coord.PeekCommands(model.DeviceClass(class)))
		return
	}
	writeJSON(w, http.StatusOK, h.coord.TakeCommands(model.DeviceClass(class)))
}

// ClearCommands handles POST /clear_commands/{device_class}
func (h *DeviceHandler) ClearCommands(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "device_class")
	if err := middleware.ValidateDeviceClass(class); err != nil {
		writeServiceError(w, err)
		return
	}
	h.coord.ClearCommands(model.DeviceClass(class))

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ControlRGB handles GET|POST /control_rgb
func (h *DeviceHandler) ControlRGB(w http.ResponseWriter, r *http.Request) {
	p, err := params(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	color := stringParam(p, "color", "")
	if color == "" {
		writeServiceError(w, fmt.Errorf("%w: color is required", model.ErrInput))
		return
	}
	h.chatService.ApplyCommands(r.Context(), map[string]any{model.CommandRGBColor: color})

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "color": color})
}

// ControlBuzzer handles GET|POST /control_buzzer
func (h *DeviceHandler) ControlBuzzer(w http.ResponseWriter, r *http.Request) {
	p, err := params(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	action := stringParam(p, "action", "")
	if action == "" {
		writeServiceError(w, fmt.Errorf("%w: action is required", model.ErrInput))
		return
	}

	fields := map[string]any{model.CommandBuzzerAction: action}
	if action == "alarm" {
		fields[model.CommandAlarm] = true
	}
	h.chatService.ApplyCommands(r.Context(), fields)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "action": action})
}

// SetAlarm handles GET|POST /set_alarm
func (h *DeviceHandler) SetAlarm(w http.ResponseWriter, r *http.Request) {
	p, err := params(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	duration, err := intParam(p, "duration", 10)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	alarmType := stringParam(p, "type", intent.AlarmStandard)
	switch alarmType {
	case intent.AlarmStandard, intent.AlarmUrgent, intent.AlarmReminder:
	default:
		writeServiceError(w, fmt.Errorf("%w: unknown alarm type %q", model.ErrInput, alarmType))
		return
	}

	h.chatService.ApplyCommands(r.Context(), map[string]any{
		model.CommandAlarm:         true,
		model.CommandAlarmDuration: duration,
		model.CommandAlarmType:     alarmType,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Alarm set for %d seconds", duration),
		"type":    alarmType,
	})
}

// StopAlarm handles GET|POST /stop_alarm
func (h *DeviceHandler) StopAlarm(w http.ResponseWriter, r *http.Request) {
	h.chatService.ApplyCommands(r.Context(), map[string]any{
		model.CommandAlarm:        false,
		model.CommandBuzzerAction: "stop",
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Alarm stopped"})
}

// SetOLED handles GET|POST /set_oled
func (h *DeviceHandler) SetOLED(w http.ResponseWriter, r *http.Request) {
	p, err := params(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	text := stringParam(p, "text", service.DefaultActivity)
	if err := middleware.ValidateDisplayText(text); err != nil {
		writeServiceError(w, err)
		return
	}
	h.chatService.ApplyCommands(r.Context(), map[string]any{model.CommandOLEDDisplay: text})

	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"message":      "OLED set to: " + text,
		"display_text": text,
	})
}

// CurrentSensorData handles GET /current_sensor_data
func (h *DeviceHandler) CurrentSensorData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "success",
		"sensor_data":      h.coord.Sensors(),
		"current_activity": h.coord.Activity(),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

// CurrentActivity handles GET /current_activity
func (h *DeviceHandler) CurrentActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":           "success",
		"current_activity": h.coord.Activity(),
	})
}

// ForceScan handles POST /force_scan
func (h *DeviceHandler) ForceScan(w http.ResponseWriter, r *http.Request) {
	h.coord.ForceScan()

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Scan cooldown reset"})
}

// ScanStatus handles GET /scan_status
func (h *DeviceHandler) ScanStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coord.ScanStatus())
}
