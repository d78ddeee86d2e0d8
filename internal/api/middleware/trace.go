package middleware

import (
	"log/slog"
	"net/http"

	"github.com/atelierhq/atelier-api/internal/api/shared"
	"github.com/atelierhq/atelier-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context and stores a
// trace-tagged logger alongside it, so handlers and stores resolving their
// logger from the context correlate all of a request's log lines.
// This middleware should be applied early in the middleware chain to ensure
// that all subsequent handlers have access to the trace ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := slog.With(slog.String("trace_id", traceID))
		ctx = logger.WithContext(ctx, log)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
