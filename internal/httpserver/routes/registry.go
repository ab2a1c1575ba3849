package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var (
	registry    []entry
	apiRegistry []entry
)

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAPI adds a registrar mounted under /api, behind user identity and
// rate limiting.
func RegisterAPI(reg Registrar, mws ...Middleware) {
	apiRegistry = append(apiRegistry, entry{reg: reg, mws: mws})
}

// Called once from httpserver.NewRouter()
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		mount(r, e, d)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(mw.Identity())
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:         d.RateLimit.Burst,
			RefillPerMin:  d.RateLimit.RefillPerMin,
			MaxEntries:    10000,
			SweepInterval: time.Minute,
			IdleTTL:       10 * time.Minute,
			TrustProxy:    d.TrustProxy,
		}))
		for _, e := range apiRegistry {
			mount(api, e, d)
		}
	})
}

func mount(r chi.Router, e entry, d deps.Deps) {
	if len(e.mws) == 0 {
		e.reg(r, d)
		return
	}
	e.reg(r.With(e.mws...), d)
}
