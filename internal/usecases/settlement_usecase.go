package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"
)

// PaymentNoticeInput is the normalized funding-chain payment notice the
// webhook recorder receives: {chain, tx_hash, from, to, amount, asset,
// memo, timestamp}.
type PaymentNoticeInput struct {
	Chain     entities.Chain
	TxHash    string
	From      string
	To        string
	Amount    decimal.Decimal
	Asset     string
	Memo      string
	Timestamp time.Time
}

// SettlementUsecase is the Webhook/Settlement recorder: the alternative
// trigger that replaces "user signs a treasury-pull authorization" with
// "user deposits on the funding chain." It durably enqueues every notice
// before acknowledging, then commits the quote and dispatches execution in
// the background, finally recording a Settlement on success.
type SettlementUsecase struct {
	noticeRepo     repositories.PaymentNoticeRepository
	quoteRepo      repositories.QuoteRepository
	settlementRepo repositories.SettlementRepository
	quoteEngine    *QuoteEngine
	router         *ExecutionRouter
	auditRepo      repositories.AuditLogRepository
	uow            repositories.UnitOfWork
}

// NewSettlementUsecase creates a SettlementUsecase.
func NewSettlementUsecase(
	noticeRepo repositories.PaymentNoticeRepository,
	quoteRepo repositories.QuoteRepository,
	settlementRepo repositories.SettlementRepository,
	quoteEngine *QuoteEngine,
	router *ExecutionRouter,
	auditRepo repositories.AuditLogRepository,
	uow repositories.UnitOfWork,
) *SettlementUsecase {
	return &SettlementUsecase{
		noticeRepo:     noticeRepo,
		quoteRepo:      quoteRepo,
		settlementRepo: settlementRepo,
		quoteEngine:    quoteEngine,
		router:         router,
		auditRepo:      auditRepo,
		uow:            uow,
	}
}

// RecordPayment parses memo as the quote nonce or id, validates the notice
// against the quote, durably persists it, and returns immediately. Commit
// and dispatch proceed on a detached background task; the caller only
// learns the notice was accepted for processing, not that it completed.
func (s *SettlementUsecase) RecordPayment(ctx context.Context, input *PaymentNoticeInput) (*entities.PaymentNotice, error) {
	quote, err := s.resolveMemo(ctx, input.Memo)
	if err != nil {
		return nil, err
	}
	if quote.FundingChain != input.Chain {
		return nil, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "payment chain does not match quote funding chain")
	}
	if input.Amount.LessThan(quote.MaxFundingAmount) {
		return nil, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "payment amount below max_funding_amount")
	}

	notice := &entities.PaymentNotice{
		QuoteID:     &quote.ID,
		Chain:       input.Chain,
		TxHash:      input.TxHash,
		FromAddress: input.From,
		ToAddress:   input.To,
		Amount:      input.Amount,
		Asset:       input.Asset,
		Memo:        input.Memo,
		OccurredAt:  input.Timestamp,
		Status:      entities.PaymentNoticeStatusPending,
	}
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.noticeRepo.Create(ctx, notice); err != nil {
			return err
		}
		return s.auditRepo.Log(ctx, &entities.AuditLog{
			EventType: entities.AuditEventQuoteCommitted,
			EntityID:  &quote.ID,
			Chain:     &input.Chain,
		})
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.Conflict(domainerrors.CodeDuplicateExecution, "payment notice already recorded")
		}
		return nil, err
	}

	noticeID := notice.ID
	spawnDispatch(func() { s.dispatch(context.Background(), noticeID) })

	return notice, nil
}

// spawnDispatch runs the background settlement dispatch. Tests override this
// to run synchronously instead of detaching a goroutine.
var spawnDispatch = func(fn func()) { go fn() }

// resolveMemo parses memo as a quote id first, falling back to a normalized
// nonce lookup; an informative error is returned if neither resolves.
func (s *SettlementUsecase) resolveMemo(ctx context.Context, memo string) (*entities.Quote, error) {
	if memo == "" {
		return nil, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "memo must reference a quote nonce or id")
	}
	if id, err := uuid.Parse(memo); err == nil {
		return s.quoteRepo.GetByID(ctx, id)
	}
	return s.quoteRepo.GetByNonce(ctx, memo)
}

// dispatch commits the quote and hands off to the ExecutionRouter, then
// records the outcome on the notice and, on execution success, a
// Settlement linking the funding-chain payment to the Execution.
func (s *SettlementUsecase) dispatch(ctx context.Context, noticeID uuid.UUID) {
	notice, err := s.noticeRepo.GetByID(ctx, noticeID)
	if err != nil || notice.QuoteID == nil {
		return
	}

	quote, err := s.quoteEngine.CommitQuote(ctx, *notice.QuoteID)
	if err != nil {
		_ = s.noticeRepo.UpdateStatus(ctx, noticeID, entities.PaymentNoticeStatusRejected, notice.QuoteID, err.Error())
		return
	}

	execution, err := s.router.Dispatch(ctx, quote)
	switch {
	case errors.Is(err, domainerrors.ErrConfirmationTimeout):
		// Leave the notice Pending: the execution and quote are themselves
		// non-terminal, so reconciliation drives this to a final state.
		return
	case err != nil:
		_ = s.noticeRepo.UpdateStatus(ctx, noticeID, entities.PaymentNoticeStatusRejected, notice.QuoteID, err.Error())
		return
	}

	settlement := &entities.Settlement{
		ExecutionID:   execution.ID,
		FundingChain:  notice.Chain,
		FundingTxHash: notice.TxHash,
		FundingAmount: notice.Amount,
		SettledAt:     nowFunc(),
	}
	_ = s.uow.Do(ctx, func(ctx context.Context) error {
		return s.settlementRepo.Create(ctx, settlement)
	})

	_ = s.noticeRepo.UpdateStatus(ctx, noticeID, entities.PaymentNoticeStatusProcessed, notice.QuoteID, "")
}
