package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerWallet) }

func registerWallet(r chi.Router, d deps.Deps) {
	r.Get("/wallet", handlers.Wallet(d))
	r.Post("/wallet/connect", handlers.ConnectWallet(d))
	r.Post("/wallet/disconnect", handlers.DisconnectWallet(d))
	r.Get("/notifications", handlers.Notifications(d))
}
