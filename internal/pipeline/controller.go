// Package pipeline runs the bounded, quality-gated generation loop for one
// request at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/rs/zerolog"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/fidelity"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/processing"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/providers/engine"
)

const (
	maxErrorLength = 500

	ledgerTypeGeneration = "GENERATION"
	generationCost       = 1
)

// EngineSelector resolves a preset to an engine.
type EngineSelector interface {
	Select(preset domain.EnginePreset) (engine.Engine, error)
}

// IdentityGate scores a candidate against reference face embeddings.
type IdentityGate interface {
	Validate(ctx context.Context, references [][]float64, candidateURL string, threshold float64) domain.GateResult
}

// Deps are the collaborators the controller drives.
type Deps struct {
	Engines     EngineSelector
	Identity    IdentityGate
	Blobs       domain.BlobStore
	References  domain.BlobStore // optional; used for the product reference image
	Generations domain.GenerationRepository
	Ledger      domain.CreditLedger
	Logger      *infra.Logger
}

// Controller is the retry state machine.
type Controller struct {
	opts        Options
	engines     EngineSelector
	identity    IdentityGate
	blobs       domain.BlobStore
	references  domain.BlobStore
	generations domain.GenerationRepository
	ledger      domain.CreditLedger
	logger      *infra.Logger
}

// NewController wires a Controller. Options are normalized once here.
func NewController(opts Options, deps Deps) *Controller {
	logger := infra.LoggerOrDiscard(deps.Logger)
	refs := deps.References
	if refs == nil {
		refs = deps.Blobs
	}
	return &Controller{
		opts:        opts.normalized(),
		engines:     deps.Engines,
		identity:    deps.Identity,
		blobs:       deps.Blobs,
		references:  refs,
		generations: deps.Generations,
		ledger:      deps.Ledger,
		logger:      logger,
	}
}

// Options returns the effective options.
func (c *Controller) Options() Options {
	return c.opts
}

// Run processes one request to a terminal outcome. A request whose stored
// status is already terminal is returned as recorded without any side
// effects. A non-nil error means the outcome could not be durably recorded
// and the delivery should be retried.
func (c *Controller) Run(ctx context.Context, req domain.GenerationRequest) (domain.Outcome, error) {
	logger := c.logger.With().Str("job_id", req.GenerationID).Logger()

	record, err := c.generations.Get(ctx, req.GenerationID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("pipeline: load generation: %w", err)
	}
	if record.Status.IsTerminal() {
		logger.Info().Str("status", string(record.Status)).Msg("pipeline: generation already terminal, skipping")
		return outcomeFromRecord(record), nil
	}

	if err := c.generations.ReportStatus(ctx, req.GenerationID, domain.JobStatusProcessing, nil); err != nil {
		return domain.Outcome{}, fmt.Errorf("pipeline: report processing: %w", err)
	}

	out := c.attempt(ctx, &logger, req)

	if out.Status == domain.JobStatusCompleted {
		debited, err := c.ledger.DebitGeneration(ctx, domain.LedgerEntry{
			UserID:       req.UserID,
			GenerationID: req.GenerationID,
			Amount:       generationCost,
			Type:         ledgerTypeGeneration,
			Description:  fmt.Sprintf("Generated image for pose %s", req.Pose),
		})
		if err != nil {
			return out, fmt.Errorf("pipeline: debit credit: %w", err)
		}
		if !debited {
			logger.Warn().Msg("pipeline: credit already debited for generation")
		}
	}

	if err := c.generations.ReportStatus(ctx, req.GenerationID, out.Status, &out); err != nil {
		return out, fmt.Errorf("pipeline: report %s: %w", out.Status, err)
	}

	event := logger.Info()
	if out.Status == domain.JobStatusFailed {
		event = logger.Error().Str("error", out.Error)
	}
	event.Str("status", string(out.Status)).
		Int("attempts", out.AttemptCount).
		Str("reason", out.Reason).
		Msg("pipeline: generation finished")
	return out, nil
}

// attempt runs the sequential retry loop and returns the terminal outcome.
func (c *Controller) attempt(ctx context.Context, logger *zerolog.Logger, req domain.GenerationRequest) domain.Outcome {
	if err := req.Validate(); err != nil {
		return failed(0, err)
	}
	eng, err := c.engines.Select(req.EnginePreset)
	if err != nil {
		return failed(0, err)
	}

	identityThreshold := c.opts.IdentityThreshold
	if req.IdentityThreshold > 0 {
		identityThreshold = req.IdentityThreshold
	}
	fidelityThreshold := c.opts.FidelityThreshold
	if req.FidelityThreshold > 0 {
		fidelityThreshold = req.FidelityThreshold
	}
	edge := req.Resolution.Edge()

	var (
		seed         = req.Seed
		reason       string
		lastIdentity *float64
		lastFidelity *float64
		bestIdentity *float64
		bestFidelity *float64
	)

	for index := 1; index <= c.opts.MaxRetries; index++ {
		res, err := eng.Generate(ctx, engine.Spec{
			Prompt:        req.Prompt,
			Pose:          req.Pose,
			Background:    req.Background,
			BackgroundHex: req.BackgroundHex,
			Width:         edge,
			Height:        edge,
			Seed:          seed,
			StrictMode:    req.StrictMode,
		})
		if err != nil {
			return failed(index, err)
		}
		// Retries reuse the seed the engine reported for this attempt.
		resolved := res.Seed
		seed = &resolved

		att := domain.Attempt{Index: index, ImageURL: res.ImageURL, Seed: res.Seed, Engine: res.Engine, Gate: domain.GateResult{Passed: true}}
		var candidate []byte

		if req.IdentityLockRequested() {
			gate := c.identity.Validate(ctx, req.ModelEmbeddings, res.ImageURL, identityThreshold)
			att.IdentityScore = domain.Float(gate.Score)
			lastIdentity = att.IdentityScore
			bestIdentity = maxScore(bestIdentity, gate.Score)
			if !gate.Passed {
				att.Gate = gate
			}
		}

		if att.Gate.Passed && req.FidelityRequested() {
			reference, err := c.references.Download(ctx, req.ProductImageURL)
			if err != nil {
				return failed(index, fmt.Errorf("download product image: %w", err))
			}
			candidate, err = c.blobs.Download(ctx, res.ImageURL)
			if err != nil {
				return failed(index, fmt.Errorf("download candidate: %w", err))
			}
			result, err := fidelity.Score(reference, candidate, nil, fidelityThreshold)
			if err != nil {
				logger.Warn().Err(err).Int("attempt", index).Msg("pipeline: ssim could not be computed")
				result = fidelity.Result{}
			}
			att.FidelityScore = domain.Float(result.Score)
			lastFidelity = att.FidelityScore
			bestFidelity = maxScore(bestFidelity, result.Score)
			if !result.Passed {
				att.Gate = domain.GateResult{
					Score:  result.Score,
					Reason: fmt.Sprintf("Product SSIM %.3f below threshold %v", result.Score, fidelityThreshold),
				}
			}
		}

		logAttempt(logger, att)

		if att.Gate.Passed {
			out, err := c.finalize(ctx, req, res.ImageURL, candidate, edge)
			if err != nil {
				return failed(index, err)
			}
			out.Seed = res.Seed
			out.AttemptCount = index
			out.IdentityScore = bestIdentity
			out.FidelityScore = bestFidelity
			return out
		}
		reason = att.Gate.Reason
	}

	return domain.Outcome{
		Status:        domain.JobStatusRejected,
		Reason:        reason,
		AttemptCount:  c.opts.MaxRetries,
		Seed:          derefSeed(seed),
		IdentityScore: lastIdentity,
		FidelityScore: lastFidelity,
	}
}

// finalize post-processes the accepted candidate and uploads both artifacts.
func (c *Controller) finalize(ctx context.Context, req domain.GenerationRequest, imageURL string, raw []byte, edge int) (domain.Outcome, error) {
	if raw == nil {
		var err error
		raw, err = c.blobs.Download(ctx, imageURL)
		if err != nil {
			return domain.Outcome{}, fmt.Errorf("download candidate: %w", err)
		}
	}
	format := req.OutputFormat.Normalize()
	processed, err := processing.Process(raw, processing.Options{
		Width:  edge,
		Height: edge,
		Format: format,
		DPI:    c.opts.OutputDPI,
	})
	if err != nil {
		return domain.Outcome{}, err
	}

	folder := path.Join("generations", req.UserID)
	rawURL, err := c.blobs.Upload(ctx, raw, path.Join(folder, "raw"), "")
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("upload raw artifact: %w", err)
	}
	name := fmt.Sprintf("%s_%s%s", req.GenerationID, req.Pose, format.Extension())
	processedURL, err := c.blobs.Upload(ctx, processed, path.Join(folder, "processed"), name)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("upload processed artifact: %w", err)
	}
	return domain.Outcome{
		Status:       domain.JobStatusCompleted,
		RawURL:       rawURL,
		ProcessedURL: processedURL,
	}, nil
}

func logAttempt(logger *zerolog.Logger, att domain.Attempt) {
	event := logger.Info()
	if !att.Gate.Passed {
		event = logger.Warn().Str("reason", att.Gate.Reason)
	}
	if att.IdentityScore != nil {
		event = event.Float64("identity_score", *att.IdentityScore)
	}
	if att.FidelityScore != nil {
		event = event.Float64("fidelity_score", *att.FidelityScore)
	}
	event.Int("attempt", att.Index).
		Str("engine", att.Engine).
		Int64("seed", att.Seed).
		Bool("passed", att.Gate.Passed).
		Msg("pipeline: attempt evaluated")
}

func failed(attempts int, err error) domain.Outcome {
	return domain.Outcome{
		Status:       domain.JobStatusFailed,
		AttemptCount: attempts,
		Error:        truncate(err.Error(), maxErrorLength),
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func maxScore(best *float64, score float64) *float64 {
	if best == nil || score > *best {
		return domain.Float(score)
	}
	return best
}

func derefSeed(seed *int64) int64 {
	if seed == nil {
		return 0
	}
	return *seed
}

func outcomeFromRecord(r *domain.GenerationRecord) domain.Outcome {
	out := domain.Outcome{
		Status:        r.Status,
		RawURL:        r.ResultImageURL,
		ProcessedURL:  r.ProcessedImageURL,
		AttemptCount:  r.AttemptCount,
		IdentityScore: r.SimilarityScore,
		FidelityScore: r.SSIMScore,
	}
	if r.Seed != nil {
		out.Seed = *r.Seed
	}
	if r.Status == domain.JobStatusFailed {
		out.Error = r.RejectionReason
	} else {
		out.Reason = r.RejectionReason
	}
	return out
}

// IsRetryable reports whether a Run error should lead to redelivery. Missing
// generations are dropped.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, domain.ErrNotFound)
}
