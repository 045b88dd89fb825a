package repositories

import (
	"context"

	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
)

// SettlementRepository is the Ledger's gateway for Settlement rows. Create
// relies on UNIQUE(execution_id).
type SettlementRepository interface {
	Create(ctx context.Context, settlement *entities.Settlement) error
	GetByExecutionID(ctx context.Context, executionID uuid.UUID) (*entities.Settlement, error)
}
