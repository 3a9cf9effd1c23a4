package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
)

// Check probes one dependency for the health endpoint.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// App holds the collaborators behind the ops endpoints.
type App struct {
	Generations domain.GenerationRepository
	Checks      []Check
	Logger      *infra.Logger
}

// NewApp builds an App.
func NewApp(generations domain.GenerationRepository, logger *infra.Logger, checks ...Check) *App {
	return &App{Generations: generations, Checks: checks, Logger: infra.LoggerOrDiscard(logger)}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
