package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
)

type rateRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

type locateResponse struct {
	PixelID int `json:"pixelId"`
}

// Channels returns the caller's filtered and sorted channel list. The
// optional search and sort query parameters update the stored filters first.
func Channels(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		q := r.URL.Query()
		if q.Has("sort") {
			if err := st.SetSort(q.Get("sort")); err != nil {
				writeError(w, r, d, err)
				return
			}
		}
		if q.Has("search") {
			st.SetSearch(q.Get("search"))
		}
		data, err := st.ViewJSON()
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeRaw(w, http.StatusOK, data)
	}
}

func Channel(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		ch, err := st.Channel(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, ch)
	}
}

// Rate stores the caller's star rating for a channel.
func Rate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rateRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		entry, err := st.Rate(r.Context(), chi.URLParam(r, "id"), req.Stars, req.Comment)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// Locate focuses the grid on the channel's pixel.
func Locate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		id, err := st.Locate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, locateResponse{PixelID: id})
	}
}
