package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/version"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Sessions      int     `json:"sessions"`
	version.Info
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: time.Since(start).Seconds(),
			Sessions:      d.Sessions.Len(),
			Info:          version.Get(),
		})
	}
}
