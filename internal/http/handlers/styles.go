package handlers

import (
	"net/http"

	"server/internal/domain"
)

// Styles lists the style catalog in its presentation order so clients can
// render the picker without hardcoding keys.
func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"styles": domain.Styles()})
}
