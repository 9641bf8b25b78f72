package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Image serves a single generated file. The store validates both path
// segments, so traversal attempts surface as 404s here.
func (a *App) Image(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	filename := chi.URLParam(r, "filename")

	path, err := a.Store.Open(provider, filename)
	if err != nil {
		a.error(w, http.StatusNotFound, "image not found")
		return
	}
	http.ServeFile(w, r, path)
}
