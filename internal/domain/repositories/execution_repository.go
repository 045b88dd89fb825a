package repositories

import (
	"context"

	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
)

// ExecutionRepository is the Ledger's gateway for Execution rows. Create
// relies on the UNIQUE(quote_id) constraint for idempotency: a second
// Create for the same quote must surface errors.ErrDuplicateExecution.
type ExecutionRepository interface {
	Create(ctx context.Context, exec *entities.Execution) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Execution, error)
	GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*entities.Execution, error)
	Complete(ctx context.Context, id uuid.UUID, status entities.ExecutionStatus, txHash string, gasUsed *uint64, errMsg string) error
}
