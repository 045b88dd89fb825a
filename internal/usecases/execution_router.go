package usecases

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/internal/metrics"
)

// ConfirmationStatus is the tri-valued outcome of polling a submitted
// transaction for confirmation.
type ConfirmationStatus string

const (
	ConfirmationConfirmed ConfirmationStatus = "CONFIRMED"
	ConfirmationReverted  ConfirmationStatus = "REVERTED"
	ConfirmationTimeout   ConfirmationStatus = "TIMEOUT"
)

// ChainSubmitter is the narrow, per-chain seam ExecutionRouter drives: the
// chain-specific parts of executing a Quote (deserialize instructions,
// build a native transaction, simulate, submit, poll). Everything else —
// idempotency, the Execution row lifecycle, risk checks, audit logging —
// is shared orchestration that ExecutionRouter owns for every chain.
type ChainSubmitter interface {
	Chain() entities.Chain
	TreasuryBalance(ctx context.Context) (decimal.Decimal, error)
	Submit(ctx context.Context, quote *entities.Quote) (txHash string, err error)
	PollConfirmation(ctx context.Context, txHash string) (ConfirmationStatus, *uint64, error)
}

// ExecutionRouter maps Chain -> ChainSubmitter and drives the Executor
// contract identically for every chain: create-then-commit the Execution
// row before any network I/O, risk-gate, submit, poll, and complete the
// row in a second transaction.
type ExecutionRouter struct {
	mu             sync.RWMutex
	submitters     map[entities.Chain]ChainSubmitter
	executionRepo  repositories.ExecutionRepository
	quoteEngine    *QuoteEngine
	riskController *RiskController
	auditRepo      repositories.AuditLogRepository
	uow            repositories.UnitOfWork
}

// NewExecutionRouter creates an ExecutionRouter with no submitters
// registered; callers Register each configured chain at startup.
func NewExecutionRouter(
	executionRepo repositories.ExecutionRepository,
	quoteEngine *QuoteEngine,
	riskController *RiskController,
	auditRepo repositories.AuditLogRepository,
	uow repositories.UnitOfWork,
) *ExecutionRouter {
	return &ExecutionRouter{
		submitters:     make(map[entities.Chain]ChainSubmitter),
		executionRepo:  executionRepo,
		quoteEngine:    quoteEngine,
		riskController: riskController,
		auditRepo:      auditRepo,
		uow:            uow,
	}
}

// Register wires a ChainSubmitter in under its own Chain(). Only chains
// with credentials configured at startup are registered; an unconfigured
// chain simply has no entry and Dispatch reports UnsupportedChain.
func (r *ExecutionRouter) Register(s ChainSubmitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitters[s.Chain()] = s
}

func (r *ExecutionRouter) lookup(chain entities.Chain) (ChainSubmitter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submitters[chain]
	return s, ok
}

// RegisteredChains lists the chains with a ChainSubmitter wired in, for the
// admin treasury overview and health checks.
func (r *ExecutionRouter) RegisteredChains() []entities.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]entities.Chain, 0, len(r.submitters))
	for chain := range r.submitters {
		chains = append(chains, chain)
	}
	return chains
}

// TreasuryBalance reads the treasury balance on chain through its
// registered ChainSubmitter.
func (r *ExecutionRouter) TreasuryBalance(ctx context.Context, chain entities.Chain) (decimal.Decimal, error) {
	submitter, ok := r.lookup(chain)
	if !ok {
		return decimal.Decimal{}, domainerrors.InternalError(domainerrors.ErrUnsupportedChain)
	}
	return submitter.TreasuryBalance(ctx)
}

// Dispatch executes a Committed quote on its execution chain, following the
// Executor contract. Returns the Execution row; on ErrConfirmationTimeout
// the row is left non-terminal by design, not an indication of failure.
func (r *ExecutionRouter) Dispatch(ctx context.Context, quote *entities.Quote) (*entities.Execution, error) {
	if !entities.AllowedPair(quote.FundingChain, quote.ExecutionChain) {
		return nil, domainerrors.BadRequest(domainerrors.CodeUnsupportedChainPair, "unsupported chain pair")
	}

	submitter, ok := r.lookup(quote.ExecutionChain)
	if !ok {
		return nil, domainerrors.InternalError(domainerrors.ErrUnsupportedChain)
	}
	if submitter.Chain() != quote.ExecutionChain {
		return nil, domainerrors.InternalError(domainerrors.ErrExecutorChainMismatch)
	}

	if existing, err := r.executionRepo.GetByQuoteID(ctx, quote.ID); err == nil && existing != nil {
		return existing, domainerrors.Conflict(domainerrors.CodeDuplicateExecution, "execution already exists for quote")
	}

	execution := &entities.Execution{
		QuoteID:        quote.ID,
		ExecutionChain: quote.ExecutionChain,
		Status:         entities.ExecutionStatusPending,
	}
	err := r.uow.Do(ctx, func(ctx context.Context) error {
		return r.executionRepo.Create(ctx, execution)
	})
	if err != nil {
		return nil, err
	}

	if err := r.riskController.CheckExecutionAllowed(ctx, quote.ExecutionChain, quote.ExecutionCost); err != nil {
		r.failExecution(ctx, execution.ID, quote.ID, "", err.Error())
		return execution, err
	}

	balance, err := submitter.TreasuryBalance(ctx)
	if err != nil {
		r.failExecution(ctx, execution.ID, quote.ID, "", err.Error())
		return execution, err
	}
	balanceFloat, _ := balance.Float64()
	metrics.TreasuryBalance.WithLabelValues(string(quote.ExecutionChain)).Set(balanceFloat)
	if balance.LessThan(quote.ExecutionCost) {
		treasuryErr := &domainerrors.ErrInsufficientTreasury{Chain: string(quote.ExecutionChain)}
		r.failExecution(ctx, execution.ID, quote.ID, "", treasuryErr.Error())
		return execution, treasuryErr
	}

	txHash, err := submitter.Submit(ctx, quote)
	if err != nil {
		r.failExecution(ctx, execution.ID, quote.ID, txHash, err.Error())
		return execution, err
	}

	status, gasUsed, err := submitter.PollConfirmation(ctx, txHash)
	if err != nil {
		r.failExecution(ctx, execution.ID, quote.ID, txHash, err.Error())
		return execution, err
	}

	switch status {
	case ConfirmationConfirmed:
		metrics.ExecutionsTotal.WithLabelValues(string(quote.ExecutionChain), "success").Inc()
		return execution, r.succeedExecution(ctx, execution.ID, quote, txHash, gasUsed)
	case ConfirmationReverted:
		metrics.ExecutionsTotal.WithLabelValues(string(quote.ExecutionChain), "reverted").Inc()
		r.failExecution(ctx, execution.ID, quote.ID, txHash, "transaction reverted")
		return execution, domainerrors.BadRequest(domainerrors.CodeExecutionFailed, "transaction reverted")
	default:
		// Timeout: the row stays Pending for reconciliation. Neither the
		// Execution nor the Quote is transitioned to a terminal status.
		metrics.ExecutionsTotal.WithLabelValues(string(quote.ExecutionChain), "timeout").Inc()
		return execution, domainerrors.ErrConfirmationTimeout
	}
}

func (r *ExecutionRouter) succeedExecution(ctx context.Context, executionID uuid.UUID, quote *entities.Quote, txHash string, gasUsed *uint64) error {
	return r.uow.Do(ctx, func(ctx context.Context) error {
		if err := r.executionRepo.Complete(ctx, executionID, entities.ExecutionStatusSuccess, txHash, gasUsed, ""); err != nil {
			return err
		}
		if err := r.quoteEngine.MarkExecuted(ctx, quote.ID); err != nil {
			return err
		}
		if err := r.riskController.RecordSpending(ctx, quote.ExecutionChain, quote.ExecutionCost); err != nil {
			return err
		}
		return r.auditRepo.Log(ctx, &entities.AuditLog{
			EventType: entities.AuditEventExecutionSucceeded,
			EntityID:  &executionID,
			Chain:     &quote.ExecutionChain,
		})
	})
}

func (r *ExecutionRouter) failExecution(ctx context.Context, executionID, quoteID uuid.UUID, txHash, errMsg string) {
	_ = r.uow.Do(ctx, func(ctx context.Context) error {
		if err := r.executionRepo.Complete(ctx, executionID, entities.ExecutionStatusFailed, txHash, nil, errMsg); err != nil {
			return err
		}
		if err := r.quoteEngine.MarkFailed(ctx, quoteID); err != nil {
			return err
		}
		return r.auditRepo.Log(ctx, &entities.AuditLog{
			EventType: entities.AuditEventExecutionFailed,
			EntityID:  &executionID,
		})
	})
}
