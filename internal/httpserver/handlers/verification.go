package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/minichannels"
)

type processRequest struct {
	Demo bool `json:"demo"`
}

func GetVerification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, st.Verification())
	}
}

// VerificationAction runs one transition and answers with the record as it
// stands afterwards.
func VerificationAction(d deps.Deps, action func(*minichannels.State, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := action(st, r.Context()); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, st.Verification())
	}
}

func StartVerification(d deps.Deps) http.HandlerFunc {
	return VerificationAction(d, (*minichannels.State).StartVerification)
}

// ProcessVerification sends the transfer, or simulates it when the body
// carries {"demo": true}.
func ProcessVerification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		VerificationAction(d, func(st *minichannels.State, ctx context.Context) error {
			return st.ProcessVerification(ctx, req.Demo)
		})(w, r)
	}
}

func CancelVerification(d deps.Deps) http.HandlerFunc {
	return VerificationAction(d, (*minichannels.State).CancelVerification)
}

func RetryVerification(d deps.Deps) http.HandlerFunc {
	return VerificationAction(d, (*minichannels.State).RetryVerification)
}

func ResetVerification(d deps.Deps) http.HandlerFunc {
	return VerificationAction(d, (*minichannels.State).ResetVerification)
}
