package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerChannels) }

func registerChannels(r chi.Router, d deps.Deps) {
	r.Get("/channels", handlers.Channels(d))
	r.Get("/channels/{id}", handlers.Channel(d))
	r.Post("/channels/{id}/rating", handlers.Rate(d))
	r.Post("/channels/{id}/locate", handlers.Locate(d))
	r.Get("/categories", handlers.Categories(d))
}
