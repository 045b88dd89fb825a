package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
)

// QuoteRepository is the Ledger's entity-scoped gateway for Quote rows.
// Every status transition goes through UpdateStatusCAS; no caller writes
// Status via Update directly.
type QuoteRepository interface {
	Create(ctx context.Context, quote *entities.Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Quote, error)
	GetByNonce(ctx context.Context, nonce string) (*entities.Quote, error)

	// UpdateStatusCAS transitions the row from `from` to `to` only if the
	// current status equals `from`. ok=false with err=nil means the CAS
	// failed to match (caller should read fresh and surface InvalidState).
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to entities.QuoteStatus) (ok bool, err error)

	// ExpireDue bulk-transitions Pending/Committed quotes whose expires_at
	// has passed into Expired, returning the affected IDs.
	ExpireDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
