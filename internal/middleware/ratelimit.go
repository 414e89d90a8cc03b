package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// SessionHeader lets a chat client identify its session to the rate limiter.
const SessionHeader = "X-Session-ID"

// RateLimit creates rate limiting middleware keyed by session when the client
// sends one, otherwise by client IP.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if session := r.Header.Get(SessionHeader); session != "" {
				return "session:" + session, nil
			}
			ip, err := httprate.KeyByIP(r)
			if err != nil {
				return "", err
			}
			return "ip:" + ip, nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","status":"error","retry_after":60}`))
		}),
	)
}
