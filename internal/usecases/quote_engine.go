package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"
)

// QuoteEngineConfig carries the pricing and TTL parameters QuoteEngine
// needs to cost a quote. QuoteEngine owns pricing/TTL configuration
// exclusively; it is process configuration, not a persisted row.
type QuoteEngineConfig struct {
	ServiceFeeRate     decimal.Decimal
	QuoteTTL           time.Duration
	MaxComputeUnits    uint64
	ComputeUnitPrice   decimal.Decimal
	FixedSignatureCost decimal.Decimal
	FlatBaseFee        map[entities.Chain]decimal.Decimal
	GasUpperBound      map[entities.Chain]decimal.Decimal
	PriorityBufferRate decimal.Decimal
	FlatFeeBufferRate  decimal.Decimal
}

// DefaultQuoteEngineConfig returns the service's default pricing and TTL
// parameters.
func DefaultQuoteEngineConfig() QuoteEngineConfig {
	return QuoteEngineConfig{
		ServiceFeeRate:     decimal.NewFromFloat(0.001),
		QuoteTTL:           DefaultQuoteTTL,
		MaxComputeUnits:    1_400_000,
		ComputeUnitPrice:   decimal.NewFromFloat(0.000001),
		FixedSignatureCost: decimal.NewFromFloat(0.000005),
		FlatBaseFee:        map[entities.Chain]decimal.Decimal{},
		GasUpperBound: map[entities.Chain]decimal.Decimal{
			entities.ChainEthereum: decimal.NewFromFloat(5.0),
			entities.ChainBase:     decimal.NewFromFloat(0.5),
		},
		PriorityBufferRate: decimal.NewFromFloat(0.20),
		FlatFeeBufferRate:  decimal.NewFromFloat(0.20),
	}
}

// QuoteEngine prices, mints, commits and retires Quotes. It owns
// pricing/TTL configuration exclusively; the Ledger owns the rows it
// produces.
type QuoteEngine struct {
	quoteRepo repositories.QuoteRepository
	auditRepo repositories.AuditLogRepository
	uow       repositories.UnitOfWork
	cfg       QuoteEngineConfig
}

// NewQuoteEngine creates a new QuoteEngine.
func NewQuoteEngine(quoteRepo repositories.QuoteRepository, auditRepo repositories.AuditLogRepository, uow repositories.UnitOfWork, cfg QuoteEngineConfig) *QuoteEngine {
	return &QuoteEngine{quoteRepo: quoteRepo, auditRepo: auditRepo, uow: uow, cfg: cfg}
}

var nowFunc = time.Now

// GenerateQuote prices and persists a new Quote at status Pending.
func (e *QuoteEngine) GenerateQuote(ctx context.Context, input *entities.CreateQuoteInput) (*entities.Quote, error) {
	if input.FundingChain == input.ExecutionChain {
		return nil, domainerrors.BadRequest(domainerrors.CodeSameChainFunding, "funding_chain must differ from execution_chain")
	}
	if !entities.AllowedPair(input.FundingChain, input.ExecutionChain) {
		return nil, domainerrors.BadRequest(domainerrors.CodeUnsupportedChainPair, "unsupported chain pair")
	}
	if len(input.Instructions) == 0 {
		return nil, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "instructions must not be empty")
	}

	pricing := input.ExecutionChain.PricingModel()
	if pricing == entities.PricingCompute {
		if input.EstimatedComputeUnits == nil || *input.EstimatedComputeUnits == 0 || *input.EstimatedComputeUnits > e.cfg.MaxComputeUnits {
			return nil, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "compute_units out of range")
		}
	}

	executionCost, err := e.priceExecution(input.ExecutionChain, pricing, input.EstimatedComputeUnits)
	if err != nil {
		return nil, err
	}
	serviceFee := executionCost.Mul(e.cfg.ServiceFeeRate).Round(0)
	maxFunding := executionCost.Add(serviceFee)

	now := nowFunc()
	nonce := entities.NormalizeNonce(uuid.New().String())

	quote := &entities.Quote{
		UserID:                input.UserID,
		Nonce:                 nonce,
		FundingChain:          input.FundingChain,
		ExecutionChain:        input.ExecutionChain,
		FundingAssetSymbol:    input.FundingAssetSymbol,
		ExecutionAssetSymbol:  input.ExecutionAssetSymbol,
		MaxFundingAmount:      maxFunding,
		ExecutionCost:         executionCost,
		ServiceFee:            serviceFee,
		ExecutionInstructions: input.Instructions,
		EstimatedComputeUnits: input.EstimatedComputeUnits,
		Status:                entities.QuoteStatusPending,
		PaymentAddress:        derivePaymentAddress(input.FundingChain, nonce),
		ExpiresAt:             now.Add(e.cfg.QuoteTTL),
		CreatedAt:             now,
	}
	if err := quote.Validate(); err != nil {
		return nil, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error())
	}

	err = e.uow.Do(ctx, func(ctx context.Context) error {
		if err := e.quoteRepo.Create(ctx, quote); err != nil {
			return err
		}
		return e.logAudit(ctx, entities.AuditEventQuoteCreated, &quote.ID, &quote.UserID, map[string]interface{}{
			"funding_chain":   quote.FundingChain,
			"execution_chain": quote.ExecutionChain,
		})
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// CommitQuote transitions a Quote Pending -> Committed.
func (e *QuoteEngine) CommitQuote(ctx context.Context, id uuid.UUID) (*entities.Quote, error) {
	var result *entities.Quote
	err := e.uow.Do(ctx, func(ctx context.Context) error {
		quote, err := e.quoteRepo.GetByID(e.uow.WithLock(ctx), id)
		if err != nil {
			return err
		}
		if quote.Status != entities.QuoteStatusPending {
			return &domainerrors.ErrInvalidState{Entity: "Quote", Current: string(quote.Status), Expected: string(entities.QuoteStatusPending)}
		}
		if quote.IsExpired(nowFunc()) {
			return domainerrors.BadRequest(domainerrors.CodeQuoteExpired, "quote expired")
		}
		if !entities.AllowedPair(quote.FundingChain, quote.ExecutionChain) {
			return domainerrors.BadRequest(domainerrors.CodeUnsupportedChainPair, "unsupported chain pair")
		}
		ok, err := e.quoteRepo.UpdateStatusCAS(ctx, id, entities.QuoteStatusPending, entities.QuoteStatusCommitted)
		if err != nil {
			return err
		}
		if !ok {
			return &domainerrors.ErrInvalidState{Entity: "Quote", Current: string(quote.Status), Expected: string(entities.QuoteStatusPending)}
		}
		if err := e.logAudit(ctx, entities.AuditEventQuoteCommitted, &id, &quote.UserID, nil); err != nil {
			return err
		}
		fresh, err := e.quoteRepo.GetByID(ctx, id)
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

// ValidateForExecution loads a Quote and checks it is Committed, unexpired
// and still allowlisted, without mutating it.
func (e *QuoteEngine) ValidateForExecution(ctx context.Context, id uuid.UUID) (*entities.Quote, error) {
	quote, err := e.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != entities.QuoteStatusCommitted {
		return nil, &domainerrors.ErrInvalidState{Entity: "Quote", Current: string(quote.Status), Expected: string(entities.QuoteStatusCommitted)}
	}
	if quote.IsExpired(nowFunc()) {
		return nil, domainerrors.BadRequest(domainerrors.CodeQuoteExpired, "quote expired")
	}
	if !entities.AllowedPair(quote.FundingChain, quote.ExecutionChain) {
		return nil, domainerrors.BadRequest(domainerrors.CodeUnsupportedChainPair, "unsupported chain pair")
	}
	return quote, nil
}

// MarkExecuted CAS-transitions Committed -> Executed. Called by an Executor
// inside its own outer transaction.
func (e *QuoteEngine) MarkExecuted(ctx context.Context, id uuid.UUID) error {
	ok, err := e.quoteRepo.UpdateStatusCAS(ctx, id, entities.QuoteStatusCommitted, entities.QuoteStatusExecuted)
	if err != nil {
		return err
	}
	if !ok {
		return &domainerrors.ErrInvalidState{Entity: "Quote", Current: "unknown", Expected: string(entities.QuoteStatusCommitted)}
	}
	return nil
}

// MarkFailed CAS-transitions Committed -> Failed. Called by an Executor
// inside its own outer transaction.
func (e *QuoteEngine) MarkFailed(ctx context.Context, id uuid.UUID) error {
	ok, err := e.quoteRepo.UpdateStatusCAS(ctx, id, entities.QuoteStatusCommitted, entities.QuoteStatusFailed)
	if err != nil {
		return err
	}
	if !ok {
		return &domainerrors.ErrInvalidState{Entity: "Quote", Current: "unknown", Expected: string(entities.QuoteStatusCommitted)}
	}
	return nil
}

// ExpireDue bulk-expires Pending/Committed quotes past their TTL. Intended
// to be called periodically by the expire_quotes background job.
func (e *QuoteEngine) ExpireDue(ctx context.Context) ([]uuid.UUID, error) {
	return e.quoteRepo.ExpireDue(ctx, nowFunc())
}

func (e *QuoteEngine) priceExecution(chain entities.Chain, pricing entities.PricingModel, computeUnits *uint64) (decimal.Decimal, error) {
	switch pricing {
	case entities.PricingCompute:
		units := decimal.NewFromInt(int64(*computeUnits))
		base := units.Mul(e.cfg.ComputeUnitPrice).Add(e.cfg.FixedSignatureCost)
		priorityBuffer := units.Mul(e.cfg.ComputeUnitPrice).Mul(e.cfg.PriorityBufferRate)
		return base.Add(priorityBuffer).Round(0), nil
	case entities.PricingFlat:
		baseFee, ok := e.cfg.FlatBaseFee[chain]
		if !ok {
			return decimal.Zero, domainerrors.InternalError(fmt.Errorf("no flat base fee configured for %s", chain))
		}
		return baseFee.Mul(decimal.NewFromInt(1).Add(e.cfg.FlatFeeBufferRate)).Round(0), nil
	case entities.PricingGas:
		bound, ok := e.cfg.GasUpperBound[chain]
		if !ok {
			return decimal.Zero, domainerrors.InternalError(fmt.Errorf("no gas upper bound configured for %s", chain))
		}
		return bound.Round(0), nil
	default:
		return decimal.Zero, domainerrors.InternalError(fmt.Errorf("unknown pricing model for %s", chain))
	}
}

func (e *QuoteEngine) logAudit(ctx context.Context, eventType entities.AuditEventType, entityID, userID *uuid.UUID, details map[string]interface{}) error {
	var raw json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		raw = b
	}
	return e.auditRepo.Log(ctx, &entities.AuditLog{
		EventType: eventType,
		EntityID:  entityID,
		UserID:    userID,
		Details:   raw,
	})
}

// derivePaymentAddress is a pure function of (funding chain, nonce): no I/O
// beyond the Ledger write of the Quote itself. EVM addresses are hex;
// Solana addresses are base58, reusing the same encoder the SVM executor
// uses for account keys.
func derivePaymentAddress(chain entities.Chain, nonce string) string {
	sum := sha256.Sum256([]byte(string(chain) + ":" + nonce))
	if chain.Type() == entities.ChainTypeSVM {
		return base58Encode(sum[:20])
	}
	return "0x" + hex.EncodeToString(sum[:20])
}
