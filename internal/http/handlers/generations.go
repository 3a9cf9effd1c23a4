package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

// GetGeneration returns the stored record for operators.
func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		a.error(w, http.StatusBadRequest, "generation id is required")
		return
	}
	rec, err := a.Generations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", id).Msg("http: load generation failed")
		a.error(w, http.StatusInternalServerError, "internal error")
		return
	}
	a.json(w, http.StatusOK, rec)
}
