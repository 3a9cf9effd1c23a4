package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

// Registry maps presets to engines. It is built once at startup.
type Registry struct {
	engines  map[domain.EnginePreset]Engine
	fallback domain.EnginePreset
}

// NewRegistry throttles every engine to perMinute calls shared across
// workers. Unknown presets resolve to BALANCED.
func NewRegistry(perMinute int, engines map[domain.EnginePreset]Engine) *Registry {
	wrapped := make(map[domain.EnginePreset]Engine, len(engines))
	for preset, e := range engines {
		if e == nil {
			continue
		}
		if perMinute > 0 {
			e = &throttled{
				Engine:  e,
				limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 2),
			}
		}
		wrapped[preset] = e
	}
	return &Registry{engines: wrapped, fallback: domain.EnginePresetBalanced}
}

// Select returns the engine for preset.
func (r *Registry) Select(preset domain.EnginePreset) (Engine, error) {
	if e, ok := r.engines[preset]; ok {
		return e, nil
	}
	if e, ok := r.engines[r.fallback]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPreset, preset)
}

type throttled struct {
	Engine
	limiter *rate.Limiter
}

func (t *throttled) Generate(ctx context.Context, spec Spec) (Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Result{}, wrap(t.Name(), "rate limit", err)
	}
	return t.Engine.Generate(ctx, spec)
}
