package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/mw"
	"github.com/MrSnakeDoc/minichannels/internal/sources/grid"
)

type purchaseResponse struct {
	PixelID int          `json:"pixelId"`
	Pixel   domain.Pixel `json:"pixel"`
}

// Purchase buys a free pixel for the caller and links it to a channel.
func Purchase(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, fmt.Errorf("%w: %q", domain.ErrPixelNotFound, chi.URLParam(r, "id")))
			return
		}
		var p grid.Purchase
		if err := decode(r, &p); err != nil {
			writeError(w, r, d, err)
			return
		}
		user := mw.UserID(r.Context())
		px, err := d.Grid.Buy(r.Context(), user, id, p)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		d.Notifications.For(user).Notify("Pixel purchased", domain.SeveritySuccess)
		writeJSON(w, http.StatusCreated, purchaseResponse{PixelID: id, Pixel: px})
	}
}
