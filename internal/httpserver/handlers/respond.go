package handlers

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/minichannels"
	"github.com/MrSnakeDoc/minichannels/internal/wallet"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Redirect string `json:"redirect,omitempty"`
}

type errorMapping struct {
	err      error
	status   int
	code     string
	redirect string
	// notified errors already produced a notification further down
	notified bool
}

var errorMappings = []errorMapping{
	{domain.ErrNotVerified, http.StatusForbidden, "not_verified", "verification", true},
	{domain.ErrWalletNotConnected, http.StatusConflict, "wallet_not_connected", "wallet", true},
	{domain.ErrInvalidRating, http.StatusBadRequest, "invalid_rating", "", true},
	{domain.ErrCategoryLimit, http.StatusConflict, "category_limit", "", true},
	{domain.ErrTransferFailed, http.StatusBadGateway, "transfer_failed", "", true},
	{domain.ErrInvalidSort, http.StatusBadRequest, "invalid_sort", "", false},
	{domain.ErrInvalidCategory, http.StatusBadRequest, "invalid_category", "", false},
	{domain.ErrInvalidSubmission, http.StatusBadRequest, "invalid_submission", "", false},
	{wallet.ErrInvalidAddress, http.StatusBadRequest, "invalid_address", "", false},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "", false},
	{domain.ErrPixelTaken, http.StatusConflict, "pixel_taken", "", false},
	{domain.ErrChannelNotFound, http.StatusNotFound, "channel_not_found", "", false},
	{domain.ErrSubmissionNotFound, http.StatusNotFound, "submission_not_found", "", false},
	{domain.ErrPixelNotFound, http.StatusNotFound, "pixel_not_found", "", false},
	{domain.ErrStorage, http.StatusServiceUnavailable, "storage_unavailable", "", false},
	{errBadRequest, http.StatusBadRequest, "bad_request", "", false},
	{minichannels.ErrEmptyUserID, http.StatusBadRequest, "bad_request", "", false},
}

var errBadRequest = errors.New("malformed request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError maps err to a status code and tells the user through their
// notification feed unless a lower layer already did.
func writeError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	m := errorMapping{status: http.StatusInternalServerError, code: "internal"}
	for _, candidate := range errorMappings {
		if errors.Is(err, candidate.err) {
			m = candidate
			break
		}
	}

	if m.status >= http.StatusInternalServerError {
		d.Logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	if user := mw.UserID(r.Context()); user != "" && !m.notified {
		d.Notifications.For(user).Notify(userMessage(m, err), domain.SeverityError)
	}

	writeJSON(w, m.status, errorResponse{
		Error:    err.Error(),
		Code:     m.code,
		Redirect: m.redirect,
	})
}

func userMessage(m errorMapping, err error) string {
	switch m.code {
	case "internal", "storage_unavailable":
		return "Something went wrong, please try again"
	default:
		return err.Error()
	}
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Join(errBadRequest, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// session returns the caller's directory state.
func session(r *http.Request, d deps.Deps) (*minichannels.State, error) {
	return d.Sessions.Get(r.Context(), mw.UserID(r.Context()))
}
