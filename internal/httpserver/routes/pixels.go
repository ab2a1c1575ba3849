package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerPixels) }

func registerPixels(r chi.Router, d deps.Deps) {
	r.Post("/pixels/{id}/purchase", handlers.Purchase(d))
}
