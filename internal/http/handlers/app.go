package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/storage"
)

// JobStarter dispatches one background generation run.
type JobStarter interface {
	Start(prompt, styleKey, providerKey string)
}

// StatusSource exposes the shared status record.
type StatusSource interface {
	Snapshot() domain.GenerationStatus
}

// ImageStore is the slice of the file store the handlers need.
type ImageStore interface {
	ListRecent(provider string, limit int) ([]storage.ImageFile, error)
	Open(provider, filename string) (string, error)
}

// App carries the handler dependencies.
type App struct {
	Logger    zerolog.Logger
	Runner    JobStarter
	Tracker   StatusSource
	Store     ImageStore
	Providers []string
}

// NewApp builds the handler container.
func NewApp(logger zerolog.Logger, runner JobStarter, tracker StatusSource, store ImageStore, providers []string) *App {
	return &App{
		Logger:    logger,
		Runner:    runner,
		Tracker:   tracker,
		Store:     store,
		Providers: providers,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
