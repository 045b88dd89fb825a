package usecases

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"
)

// ApprovalResult is returned by CreateApproval: the message the caller must
// sign, alongside the row's identifying fields.
type ApprovalResult struct {
	ApprovalID    uuid.UUID
	MessageToSign string
	Nonce         string
	ExpiresAt     time.Time
}

// TokenApprovalUsecase replaces "user transfers funds" with "user signs a
// treasury-pull authorization" for quotes funded by signature rather than an
// on-chain deposit.
type TokenApprovalUsecase struct {
	approvalRepo   repositories.TokenApprovalRepository
	walletRepo     repositories.WalletVerificationRepository
	quoteRepo      repositories.QuoteRepository
	auditRepo      repositories.AuditLogRepository
	uow            repositories.UnitOfWork
	approvalTTL    time.Duration
	priceTolerance decimal.Decimal
}

// NewTokenApprovalUsecase creates a TokenApprovalUsecase.
func NewTokenApprovalUsecase(
	approvalRepo repositories.TokenApprovalRepository,
	walletRepo repositories.WalletVerificationRepository,
	quoteRepo repositories.QuoteRepository,
	auditRepo repositories.AuditLogRepository,
	uow repositories.UnitOfWork,
	approvalTTL time.Duration,
	priceTolerance decimal.Decimal,
) *TokenApprovalUsecase {
	return &TokenApprovalUsecase{
		approvalRepo:   approvalRepo,
		walletRepo:     walletRepo,
		quoteRepo:      quoteRepo,
		auditRepo:      auditRepo,
		uow:            uow,
		approvalTTL:    approvalTTL,
		priceTolerance: priceTolerance,
	}
}

// CreateApproval mints a pending TokenApproval for a caller-owned, Pending
// quote against userWallet, which must already be verified on chain.
func (u *TokenApprovalUsecase) CreateApproval(ctx context.Context, quoteID, userID uuid.UUID, chain entities.Chain, userWallet, token, amount, recipient string) (*ApprovalResult, error) {
	quote, err := u.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.UserID != userID {
		return nil, domainerrors.Forbidden(domainerrors.CodeInvalidParameters, "quote does not belong to caller")
	}
	if quote.Status != entities.QuoteStatusPending {
		return nil, &domainerrors.ErrInvalidState{Entity: "Quote", Current: string(quote.Status), Expected: string(entities.QuoteStatusPending)}
	}

	wallet, err := u.walletRepo.GetVerified(ctx, userID, chain, userWallet)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domainerrors.BadRequest(domainerrors.CodeWalletNotVerified, "wallet is not verified on this chain")
	}

	now := nowFunc()
	nonce := entities.NormalizeNonce(uuid.New().String())
	expiresAt := now.Add(u.approvalTTL)
	message := entities.CanonicalMessage(token, amount, recipient, nonce, expiresAt)

	approval := &entities.TokenApproval{
		QuoteID:    quoteID,
		UserID:     userID,
		UserWallet: wallet.Address,
		Chain:      chain,
		Token:      token,
		Amount:     decimal.RequireFromString(amount),
		Recipient:  recipient,
		Nonce:      nonce,
		Message:    message,
		Status:     entities.ApprovalStatusPending,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	}

	err = u.uow.Do(ctx, func(ctx context.Context) error {
		return u.approvalRepo.Create(ctx, approval)
	})
	if err != nil {
		return nil, err
	}

	return &ApprovalResult{
		ApprovalID:    approval.ID,
		MessageToSign: message,
		Nonce:         nonce,
		ExpiresAt:     expiresAt,
	}, nil
}

// SubmitApproval verifies a signed approval and, on success, advances the
// approval to Signed and the underlying quote to Committed in one
// transaction. Execution dispatch is the caller's responsibility.
func (u *TokenApprovalUsecase) SubmitApproval(ctx context.Context, input *entities.SubmitApprovalInput, currentExecutionPrice decimal.Decimal) (*entities.TokenApproval, error) {
	var result *entities.TokenApproval
	err := u.uow.Do(ctx, func(ctx context.Context) error {
		approval, err := u.approvalRepo.GetByID(u.uow.WithLock(ctx), input.ApprovalID)
		if err != nil {
			return err
		}
		if approval.IsExpired(nowFunc()) {
			return domainerrors.BadRequest(domainerrors.CodeApprovalExpired, "approval expired")
		}
		if approval.Status != entities.ApprovalStatusPending {
			return &domainerrors.ErrInvalidState{Entity: "TokenApproval", Current: string(approval.Status), Expected: string(entities.ApprovalStatusPending)}
		}
		if input.UserWallet != approval.UserWallet {
			return domainerrors.Conflict(domainerrors.CodeMessageTampered, "wallet does not match approval")
		}
		if entities.NormalizeNonce(input.Nonce) != approval.Nonce {
			return domainerrors.Conflict(domainerrors.CodeNonceReused, "nonce does not match approval")
		}

		rebuiltMessage := entities.CanonicalMessage(input.Token, input.Amount, input.Recipient, input.Nonce, approval.ExpiresAt)
		if ok, err := verifySignature(approval.Chain, approval.UserWallet, rebuiltMessage, input.Signature); err != nil {
			return err
		} else if !ok {
			return domainerrors.Unauthorized(domainerrors.CodeSignatureInvalid, "signature verification failed")
		}

		if input.Token != approval.Token || input.Recipient != approval.Recipient {
			return domainerrors.Conflict(domainerrors.CodeMessageTampered, "submitted fields do not match approval")
		}
		if submittedAmount, err := decimal.NewFromString(input.Amount); err != nil || !submittedAmount.Equal(approval.Amount) {
			return domainerrors.Conflict(domainerrors.CodeMessageTampered, "submitted amount does not match approval")
		}

		quote, err := u.quoteRepo.GetByID(ctx, approval.QuoteID)
		if err != nil {
			return err
		}
		if quote.IsExpired(nowFunc()) {
			return domainerrors.BadRequest(domainerrors.CodeQuoteExpired, "quote expired")
		}
		if !currentExecutionPrice.IsZero() {
			drift := currentExecutionPrice.Sub(quote.ExecutionCost).Abs().Div(quote.ExecutionCost)
			if drift.GreaterThan(u.priceTolerance) {
				return domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "execution price moved outside tolerance")
			}
		}

		ok, err := u.approvalRepo.UpdateStatusCAS(ctx, approval.ID, entities.ApprovalStatusPending, entities.ApprovalStatusSigned)
		if err != nil {
			return err
		}
		if !ok {
			return &domainerrors.ErrInvalidState{Entity: "TokenApproval", Current: string(approval.Status), Expected: string(entities.ApprovalStatusPending)}
		}
		ok, err = u.quoteRepo.UpdateStatusCAS(ctx, quote.ID, entities.QuoteStatusPending, entities.QuoteStatusCommitted)
		if err != nil {
			return err
		}
		if !ok {
			return &domainerrors.ErrInvalidState{Entity: "Quote", Current: string(quote.Status), Expected: string(entities.QuoteStatusPending)}
		}
		if err := u.logAudit(ctx, entities.AuditEventApprovalSubmitted, &approval.ID, &approval.UserID, nil); err != nil {
			return err
		}

		fresh, err := u.approvalRepo.GetByID(ctx, approval.ID)
		if err != nil {
			return err
		}
		result = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetStatus reads an approval, transitioning it to Expired on read if its
// TTL has elapsed and it is still in a non-terminal status.
func (u *TokenApprovalUsecase) GetStatus(ctx context.Context, id uuid.UUID) (*entities.TokenApproval, error) {
	approval, err := u.approvalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if approval.IsExpired(nowFunc()) && entities.LiveApprovalStatuses[approval.Status] {
		ok, err := u.approvalRepo.UpdateStatusCAS(ctx, id, approval.Status, entities.ApprovalStatusExpired)
		if err != nil {
			return nil, err
		}
		if ok {
			approval.Status = entities.ApprovalStatusExpired
		}
	}
	return approval, nil
}

func (u *TokenApprovalUsecase) logAudit(ctx context.Context, eventType entities.AuditEventType, entityID, userID *uuid.UUID, details []byte) error {
	return u.auditRepo.Log(ctx, &entities.AuditLog{
		EventType: eventType,
		EntityID:  entityID,
		UserID:    userID,
		Details:   details,
	})
}

// verifySignature checks signature against message for wallet, dispatching
// on the wallet's transaction-building model: ECDSA/secp256k1 recovery for
// EVM wallets, ed25519 for SVM wallets.
func verifySignature(chain entities.Chain, wallet, message, signature string) (bool, error) {
	sigBytes, err := hex.DecodeString(trimHexPrefix(signature))
	if err != nil {
		return false, domainerrors.BadRequest(domainerrors.CodeSignatureInvalid, "signature is not valid hex")
	}

	switch chain.Type() {
	case entities.ChainTypeEVM:
		if len(sigBytes) != 65 {
			return false, nil
		}
		hash := crypto.Keccak256Hash([]byte(message))
		pub, err := crypto.SigToPub(hash.Bytes(), sigBytes)
		if err != nil {
			return false, nil
		}
		recovered := crypto.PubkeyToAddress(*pub).Hex()
		return strings.EqualFold(recovered, wallet), nil
	case entities.ChainTypeSVM:
		pubBytes := base58Decode(wallet)
		if len(pubBytes) != ed25519.PublicKeySize {
			return false, nil
		}
		return ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(message), sigBytes), nil
	default:
		return false, fmt.Errorf("unsupported chain type for signature verification: %s", chain)
	}
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
