package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"decode/internal/engine/routing"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request. Surface annotations are read from
// the response headers set by Pipeline.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		event := log.Info()
		if rec.status >= 500 {
			event = log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("host", r.Host).
			Str("tenant", w.Header().Get(routing.HeaderTenantSlug)).
			Bool("admin", w.Header().Get(routing.HeaderAdminAccess) == "true").
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
