package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/http/handlers"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/middleware"
)

const readbackPerMinute = 120

// NewRouter exposes health, generation readback and the stored artifacts
// under /static when staticDir is set.
func NewRouter(app *handlers.App, logger infra.Logger, staticDir string) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	r.Get("/v1/healthz", app.Health)
	r.With(middleware.RateLimit(readbackPerMinute, time.Minute)).Get("/v1/generations/{id}", app.GetGeneration)

	if staticDir != "" {
		r.Handle("/static/*", stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(staticDir))))
	}
	return r
}
