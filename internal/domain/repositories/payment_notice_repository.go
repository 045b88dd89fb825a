package repositories

import (
	"context"

	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
)

// PaymentNoticeRepository is the Ledger's gateway for the durable webhook
// work table. Create relies on UNIQUE(tx_hash) so a replayed webhook call
// surfaces as a duplicate, not as a second dispatch.
type PaymentNoticeRepository interface {
	Create(ctx context.Context, notice *entities.PaymentNotice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentNotice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.PaymentNoticeStatus, quoteID *uuid.UUID, errMsg string) error
}
