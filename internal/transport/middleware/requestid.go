package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// RequestID reuses an incoming trace ID or mints one, and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logger.With(ctx, "request_id", reqID)
		}

		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
