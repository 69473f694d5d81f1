package logging

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestInfo collects fields that inner handlers learn about a request.
type requestInfo struct {
	id   string
	user string
}

type infoKey struct{}

// SetUser records the authenticated username for the request log line.
// It is a no-op outside RequestLogger.
func SetUser(ctx context.Context, username string) {
	if info, ok := ctx.Value(infoKey{}).(*requestInfo); ok {
		info.user = username
	}
}

// RequestID returns the ID RequestLogger assigned to the request, or "".
func RequestID(ctx context.Context) string {
	if info, ok := ctx.Value(infoKey{}).(*requestInfo); ok {
		return info.id
	}
	return ""
}

// requestID keeps a sane inbound ID so proxies can correlate lines.
func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" && len(id) <= 64 && !strings.ContainsAny(id, " \t\r\n") {
		return id
	}
	return uuid.NewString()
}

// RequestLogger is middleware that logs HTTP requests and tags each one
// with a request ID.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip noisy paths
		if strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		info := &requestInfo{id: requestID(r)}
		w.Header().Set(RequestIDHeader, info.id)
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), infoKey{}, info)))

		duration := time.Since(start)

		level := slog.LevelInfo
		if rw.status >= 500 {
			level = slog.LevelError
		} else if rw.status >= 400 {
			level = slog.LevelWarn
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", duration.String(),
			"ip", r.RemoteAddr,
			"request_id", info.id,
		}
		if info.user != "" {
			attrs = append(attrs, "user", info.user)
		}
		slog.Log(r.Context(), level, "request", attrs...)
	})
}
