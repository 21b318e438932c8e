package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/klv/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(wrapped.statusCode), durationMs)
		if wrapped.statusCode >= http.StatusBadRequest {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, getErrorType(wrapped.statusCode))
		}
	}
}

// RateLimit rejects requests with 429 once limiter runs dry. A nil limiter
// lets everything through.
func RateLimit(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	if limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind("api.rate_limit", ErrRateLimited))
			return
		}
		next(w, r)
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "server_error"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case statusCode == http.StatusNotFound:
		return "not_found"
	case statusCode == http.StatusConflict:
		return "conflict"
	case statusCode >= http.StatusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
