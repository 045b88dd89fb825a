package repositories

import (
	"context"

	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
)

// TokenApprovalRepository is the Ledger's gateway for TokenApproval rows.
type TokenApprovalRepository interface {
	Create(ctx context.Context, approval *entities.TokenApproval) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TokenApproval, error)
	GetByNonce(ctx context.Context, nonce string) (*entities.TokenApproval, error)
	// CountLiveByQuote counts approvals in a live status for quoteID, used
	// to enforce "one active approval per quote".
	CountLiveByQuote(ctx context.Context, quoteID uuid.UUID) (int64, error)
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to entities.ApprovalStatus) (ok bool, err error)
	Update(ctx context.Context, approval *entities.TokenApproval) error
}

// WalletVerificationRepository is the Ledger's gateway for
// WalletVerification rows.
type WalletVerificationRepository interface {
	Create(ctx context.Context, wv *entities.WalletVerification) error
	GetPending(ctx context.Context, userID uuid.UUID, chain entities.Chain, address string) (*entities.WalletVerification, error)
	GetVerified(ctx context.Context, userID uuid.UUID, chain entities.Chain, address string) (*entities.WalletVerification, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
}
