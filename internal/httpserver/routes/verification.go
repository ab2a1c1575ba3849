package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerVerification) }

func registerVerification(r chi.Router, d deps.Deps) {
	r.Get("/verification", handlers.GetVerification(d))
	r.Post("/verification/start", handlers.StartVerification(d))
	r.Post("/verification/process", handlers.ProcessVerification(d))
	r.Post("/verification/cancel", handlers.CancelVerification(d))
	r.Post("/verification/retry", handlers.RetryVerification(d))
	r.Post("/verification/reset", handlers.ResetVerification(d))
}
