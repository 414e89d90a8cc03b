package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/smartroom-ai/environment-router/internal/model"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":  message,
		"status": "error",
	})
}

// writeServiceError maps a wrapped sentinel to its HTTP status.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes an optional JSON body into v. An empty body is not an
// error.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid request body", model.ErrInput)
}

// params collects setter arguments from the query string, a form body or a
// JSON object body, in that order of precedence.
func params(r *http.Request) (map[string]any, error) {
	out := make(map[string]any)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &out); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: invalid form body", model.ErrInput)
	}

	for k, vs := range r.Form {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out, nil
}

func stringParam(p map[string]any, key, fallback string) string {
	switch v := p[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return fallback
}

func intParam(p map[string]any, key string, fallback int) (int, error) {
	switch v := p[key].(type) {
	case nil:
		return fallback, nil
	case float64:
		if v > 0 && v == float64(int(v)) {
			return int(v), nil
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback, nil
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %s must be a positive whole number", model.ErrInput, key)
}
