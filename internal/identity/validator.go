package identity

import (
	"context"
	"fmt"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
)

// ReasonNoFace is reported when the candidate yields no usable face embedding.
const ReasonNoFace = "no face detected in generated image"

// Embedding is a face embedding extracted from an image.
type Embedding struct {
	Vector       []float64
	FaceDetected bool
}

// Embedder extracts face embeddings and optionally scores them remotely.
type Embedder interface {
	Embed(ctx context.Context, imageURL string) (Embedding, error)
	Similarity(ctx context.Context, a, b []float64) (float64, error)
}

// Validator runs the identity lock gate.
type Validator struct {
	embedder Embedder
	logger   *infra.Logger
}

// NewValidator builds a Validator. A nil logger discards output.
func NewValidator(embedder Embedder, logger *infra.Logger) *Validator {
	return &Validator{embedder: embedder, logger: infra.LoggerOrDiscard(logger)}
}

// Validate compares the candidate face against every reference embedding and
// passes when the best match reaches threshold. It never returns an error:
// an unreachable embedding service is treated as no face detected.
func (v *Validator) Validate(ctx context.Context, references [][]float64, candidateURL string, threshold float64) domain.GateResult {
	if v.embedder == nil {
		return domain.GateResult{Reason: ReasonNoFace}
	}
	emb, err := v.embedder.Embed(ctx, candidateURL)
	if err != nil {
		v.logger.Warn().Err(err).Msg("identity: embedding failed, failing closed")
		return domain.GateResult{Reason: ReasonNoFace}
	}
	if !emb.FaceDetected || len(emb.Vector) == 0 {
		return domain.GateResult{Reason: ReasonNoFace}
	}

	best := 0.0
	for _, ref := range references {
		if sim := v.similarity(ctx, ref, emb.Vector); sim > best {
			best = sim
		}
	}

	if best < threshold {
		return domain.GateResult{
			Score:  best,
			Reason: fmt.Sprintf("Face similarity %.3f below threshold %v", best, threshold),
		}
	}
	return domain.GateResult{Passed: true, Score: best}
}

// similarity prefers the remote scorer and falls back to the local cosine.
func (v *Validator) similarity(ctx context.Context, a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	sim, err := v.embedder.Similarity(ctx, a, b)
	if err != nil {
		v.logger.Debug().Err(err).Msg("identity: remote similarity unavailable, using local cosine")
		return CosineSimilarity(a, b)
	}
	return clampUnit(sim)
}
