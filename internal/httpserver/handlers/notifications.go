package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
)

// Notifications hands over and clears the caller's pending notifications.
func Notifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Notifications.For(mw.UserID(r.Context())).Drain())
	}
}
