package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/providers/image"
)

type generateRequest struct {
	Prompt   string `json:"prompt"`
	Style    string `json:"style"`
	Provider string `json:"provider"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Generate accepts a generation request and dispatches the background
// pipeline. It returns as soon as the run is started; progress is observable
// through /api/status. A blank prompt is rejected without touching the
// shared status.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		a.error(w, http.StatusBadRequest, domain.ErrEmptyPrompt.Error())
		return
	}
	styleKey := req.Style
	if styleKey == "" {
		styleKey = domain.DefaultStyleKey
	}
	provider := req.Provider
	if provider == "" {
		provider = image.ProxyAPIName
	}

	a.Runner.Start(prompt, styleKey, provider)
	a.json(w, http.StatusAccepted, generateResponse{Success: true, Message: "generation started"})
}
