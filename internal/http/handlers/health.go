package handlers

import (
	"context"
	"net/http"
	"time"
)

const probeTimeout = 3 * time.Second

// Health runs every dependency probe and answers 503 if any fails.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(a.Checks))
	for _, c := range a.Checks {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := c.Probe(ctx)
		cancel()
		if err != nil {
			a.Logger.Warn().Err(err).Str("check", c.Name).Msg("http: health probe failed")
			checks[c.Name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}
	a.json(w, code, map[string]any{"status": status, "checks": checks})
}
