package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
)

type connectRequest struct {
	Address string `json:"address"`
}

func Wallet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Wallets.For(mw.UserID(r.Context())).Status())
	}
}

func ConnectWallet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req connectRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		user := mw.UserID(r.Context())
		wl := d.Wallets.For(user)
		if err := wl.Connect(req.Address); err != nil {
			writeError(w, r, d, err)
			return
		}
		d.Notifications.For(user).Notify("Wallet connected", domain.SeveritySuccess)
		writeJSON(w, http.StatusOK, wl.Status())
	}
}

func DisconnectWallet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wl := d.Wallets.For(mw.UserID(r.Context()))
		wl.Disconnect()
		writeJSON(w, http.StatusOK, wl.Status())
	}
}
