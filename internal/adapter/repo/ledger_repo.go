package repo

import (
	"context"
	"errors"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/sqlinline"
)

// LedgerRepositoryPG implements domain.CreditLedger.
type LedgerRepositoryPG struct {
	db infra.SQLExecutor
}

// NewLedgerRepository creates a ledger backed by PostgreSQL.
func NewLedgerRepository(db infra.SQLExecutor) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{db: db}
}

// DebitGeneration appends the entry and decrements the user's credits. A
// second call for the same generation changes nothing and reports false.
func (r *LedgerRepositoryPG) DebitGeneration(ctx context.Context, e domain.LedgerEntry) (bool, error) {
	if e.GenerationID == "" || e.UserID == "" {
		return false, errors.New("ledger: user and generation are required")
	}
	amount := e.Amount
	if amount <= 0 {
		amount = 1
	}
	var inserted bool
	if err := r.db.QueryRow(ctx, sqlinline.QDebitGenerationCredit,
		e.UserID,
		e.GenerationID,
		amount,
		e.Type,
		e.Description,
	).Scan(&inserted); err != nil {
		return false, err
	}
	return inserted, nil
}

var _ domain.CreditLedger = (*LedgerRepositoryPG)(nil)
