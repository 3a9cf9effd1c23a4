package domain

import "context"

// GenerationRepository persists generation status reported by the pipeline.
type GenerationRepository interface {
	// Get returns ErrNotFound when the generation does not exist.
	Get(ctx context.Context, id string) (*GenerationRecord, error)
	// ReportStatus writes a status transition. Writes against a terminal
	// record are ignored.
	ReportStatus(ctx context.Context, id string, status JobStatus, outcome *Outcome) error
}

// LedgerEntry describes a credit movement tied to a generation.
type LedgerEntry struct {
	UserID       string
	GenerationID string
	Amount       int
	Type         string
	Description  string
}

// CreditLedger debits user credits and appends the matching ledger entry.
type CreditLedger interface {
	// DebitGeneration applies the entry at most once per generation and
	// reports whether this call performed the debit.
	DebitGeneration(ctx context.Context, entry LedgerEntry) (bool, error)
}

// BlobStore stores artifacts and resolves locators to bytes.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, folder, name string) (string, error)
	Download(ctx context.Context, locator string) ([]byte, error)
}
