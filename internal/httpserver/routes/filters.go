package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerFilters) }

func registerFilters(r chi.Router, d deps.Deps) {
	r.Get("/filters", handlers.GetFilters(d))
	r.Put("/filters", handlers.PutFilters(d))
	r.Post("/filters/categories/{category}", handlers.ToggleCategory(d))
	r.Delete("/filters/categories", handlers.ClearCategories(d))
}
