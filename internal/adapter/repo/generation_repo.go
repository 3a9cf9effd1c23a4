package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/sqlinline"
)

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	db infra.SQLExecutor
}

// NewGenerationRepository creates a repository on top of the marker-checked runner.
func NewGenerationRepository(db infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{db: db}
}

// Get fetches a generation by id.
func (r *GenerationRepositoryPG) Get(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	var (
		rec    domain.GenerationRecord
		status string
	)
	err := r.db.QueryRow(ctx, sqlinline.QSelectGeneration, id).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Pose,
		&status,
		&rec.ResultImageURL,
		&rec.ProcessedImageURL,
		&rec.Seed,
		&rec.AttemptCount,
		&rec.SimilarityScore,
		&rec.SSIMScore,
		&rec.RejectionReason,
		&rec.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("generation %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	rec.Status = domain.JobStatus(strings.ToUpper(status))
	return &rec, nil
}

// ReportStatus records a transition. Rows already in a terminal status are
// left untouched by the statement itself.
func (r *GenerationRepositoryPG) ReportStatus(ctx context.Context, id string, status domain.JobStatus, out *domain.Outcome) error {
	var (
		rawURL, processedURL, reason string
		seed                         *int64
		attempts                     *int
		similarity, ssim             *float64
	)
	if out != nil {
		rawURL = out.RawURL
		processedURL = out.ProcessedURL
		reason = out.Reason
		if out.Error != "" {
			reason = out.Error
		}
		if out.AttemptCount > 0 {
			s := out.Seed
			seed = &s
		}
		n := out.AttemptCount
		attempts = &n
		similarity = out.IdentityScore
		ssim = out.FidelityScore
	}
	_, err := r.db.Exec(ctx, sqlinline.QReportGenerationStatus,
		id,
		string(status),
		rawURL,
		processedURL,
		seed,
		attempts,
		similarity,
		ssim,
		reason,
	)
	return err
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
