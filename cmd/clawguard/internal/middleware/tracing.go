package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type traceIDKey struct{}
type spanIDKey struct{}

// TracingMiddleware attaches a trace/span ID to every request, propagating
// an inbound W3C traceparent header when present.
type TracingMiddleware struct {
	logger *zap.Logger
}

// NewTracingMiddleware creates a new tracing middleware.
func NewTracingMiddleware(logger *zap.Logger) *TracingMiddleware {
	return &TracingMiddleware{logger: logger}
}

// Middleware returns the HTTP middleware function.
func (tm *TracingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		traceID := tm.extractTraceID(r)
		if traceID == "" {
			traceID = tm.generateID()
		}
		spanID := tm.generateID()[:16]

		ctx = context.WithValue(ctx, traceIDKey{}, traceID)
		ctx = context.WithValue(ctx, spanIDKey{}, spanID)

		w.Header().Set("X-Trace-ID", traceID)
		w.Header().Set("X-Span-ID", spanID)

		tm.logger.Debug("request received",
			zap.String("trace_id", traceID),
			zap.String("span_id", spanID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (tm *TracingMiddleware) extractTraceID(r *http.Request) string {
	if traceparent := r.Header.Get("traceparent"); traceparent != "" {
		parts := strings.Split(traceparent, "-")
		if len(parts) >= 2 {
			return parts[1]
		}
	}
	if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
		return traceID
	}
	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		return requestID
	}
	return ""
}

func (tm *TracingMiddleware) generateID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ServeHTTP implements http.Handler.
func (tm *TracingMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
	w.Write([]byte(`{"error":"direct access not allowed"}`))
}
