package middleware

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/tracing"
)

// AccessLog пишет строку на каждый запрос с request_id и trace_id
func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			entry := log.With("request_id", RequestIDFromContext(r.Context()))
			if traceID := tracing.TraceID(r.Context()); traceID != "" {
				entry = entry.With("trace_id", traceID)
			}
			if rec.status >= http.StatusInternalServerError {
				entry.Error("%s %s - %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
				return
			}
			entry.Info("%s %s - %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}
