package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
)

func init() { Register(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	ops := r.With(mw.AllowOnlyCIDRS(d.OpsCIDRs, d.TrustProxy, d.Logger))
	ops.Get("/readyz", handlers.Readyz(d))
	ops.Get("/metrics", handlers.Metrics(d).ServeHTTP)
	ops.Post("/reload", handlers.Reload(d))
}
