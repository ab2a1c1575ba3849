package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
)

func init() { RegisterAPI(registerSubmissions) }

func registerSubmissions(r chi.Router, d deps.Deps) {
	r.Get("/submissions", handlers.Submissions(d))
	r.Post("/submissions", handlers.Submit(d))
	r.With(mw.AdminOnly(d.AdminToken)).Post("/submissions/{id}/moderate", handlers.Moderate(d))
}
