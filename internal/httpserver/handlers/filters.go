package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/minichannels"
)

type toggleResponse struct {
	Category string               `json:"category"`
	Active   bool                 `json:"active"`
	Filters  minichannels.Filters `json:"filters"`
}

func GetFilters(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, st.Filters())
	}
}

// PutFilters replaces search, sort and categories in one step. Nothing is
// applied if any part is invalid.
func PutFilters(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		f := st.Filters()
		if err := decode(r, &f); err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := st.SetFilters(f); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, st.Filters())
	}
}

func ToggleCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		category := chi.URLParam(r, "category")
		active, err := st.ToggleCategory(category)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, toggleResponse{
			Category: category,
			Active:   active,
			Filters:  st.Filters(),
		})
	}
}

func ClearCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		st.ClearCategories()
		writeJSON(w, http.StatusOK, st.Filters())
	}
}

// Categories lists every category with its channel count.
func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := session(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, st.Categories())
	}
}
