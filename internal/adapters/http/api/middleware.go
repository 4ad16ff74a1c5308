package api

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusConflict        = 409
	statusTooManyRequests = 429
	statusInternalError   = 500
	statusBadGateway      = 502
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics and a
// debug line per request.
func MetricsMiddleware(next http.HandlerFunc, endpoint string, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		durationMs := float64(elapsed.Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if wrapped.statusCode >= statusBadRequest {
			errorType := getErrorType(wrapped.statusCode)
			severity := getErrorSeverity(wrapped.statusCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, severity)
			metrics.RecordErrorLatency("http", errorType, durationMs)
		}
		if log != nil {
			log.Debug(r.Context(), "http request",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.Int("status", wrapped.statusCode),
				logger.Duration("elapsed", elapsed),
			)
		}
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode == statusBadGateway:
		return "upstream_error"
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode == statusConflict:
		return "conflict"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
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

// Hijack lets websocket upgrades pass through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot be hijacked")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}
