package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
)

func Metrics(d deps.Deps) http.Handler {
	return d.Metrics.Handler()
}
