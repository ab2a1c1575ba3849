package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/metrics"
)

// Metrics records request count and latency per route pattern.
func Metrics(m metrics.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.status
			if status == 0 {
				status = http.StatusOK
			}
			m.IncRequestsTotal(route, status)
			m.ObserveRequestDuration(route, time.Since(start))
		})
	}
}
