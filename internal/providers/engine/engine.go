// Package engine abstracts the image generation backends behind one
// capability interface.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
)

// MaxEdge is the native resolution ceiling shared by every backend.
const MaxEdge = 1024

const maxSeed = 4294967295

var (
	// ErrPollTimeout means a polled prediction never reached a terminal status.
	ErrPollTimeout = errors.New("poll timeout")
	// ErrMissingAPIKey indicates that a backend was configured without credentials.
	ErrMissingAPIKey = errors.New("api key is required")
)

// Spec describes one generation call.
type Spec struct {
	Prompt         string
	Pose           string
	Background     domain.Background
	BackgroundHex  string
	Width          int
	Height         int
	Seed           *int64
	StrictMode     bool
	NegativePrompt string
	Steps          int
	GuidanceScale  float64
}

// Result is a generated candidate.
type Result struct {
	ImageURL string
	Seed     int64
	Engine   string
}

// Engine produces an image from a Spec.
type Engine interface {
	Name() string
	Generate(ctx context.Context, spec Spec) (Result, error)
}

// Error wraps any backend failure with the engine and operation.
type Error struct {
	Engine string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(engine, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Engine: engine, Op: op, Err: err}
}

// clampSize caps both edges at MaxEdge.
func clampSize(w, h int) (int, int) {
	if w <= 0 {
		w = MaxEdge
	}
	if h <= 0 {
		h = MaxEdge
	}
	return min(w, MaxEdge), min(h, MaxEdge)
}

// resolveSeed returns the requested seed or a fresh one below limit.
func resolveSeed(seed *int64, limit int64) int64 {
	if seed != nil && *seed > 0 {
		return *seed
	}
	return rand.Int64N(limit)
}

func discardLogger(l *infra.Logger) *infra.Logger {
	return infra.LoggerOrDiscard(l)
}
