package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/submission"
)

type moderateRequest struct {
	Status domain.SubmissionStatus `json:"status"`
}

// Submissions lists submissions, optionally filtered by ?status=.
func Submissions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.SubmissionStatus(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			writeError(w, r, d, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidSubmission, status))
			return
		}
		items, err := d.Submissions.List(r.Context(), status)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// Submit records a new pending submission for the caller.
func Submit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in submission.Input
		if err := decode(r, &in); err != nil {
			writeError(w, r, d, err)
			return
		}
		user := mw.UserID(r.Context())
		sub, err := d.Submissions.Submit(r.Context(), in, user)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		d.Notifications.For(user).Notify("Channel submitted for review", domain.SeveritySuccess)
		writeJSON(w, http.StatusCreated, sub)
	}
}

// Moderate approves or rejects a submission. Every open session is
// refreshed so approved channels show up right away.
func Moderate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moderateRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		sub, err := d.Submissions.Moderate(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		refreshed := d.Sessions.RefreshAll(r.Context())
		d.Logger.Info("submission moderated",
			logger.String("id", sub.ID),
			logger.String("status", string(sub.Status)),
			logger.Int("sessions_refreshed", refreshed))
		writeJSON(w, http.StatusOK, sub)
	}
}
