package usecases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/internal/metrics"
)

// RiskController gates treasury outflow: per-chain daily limits and a
// per-chain circuit breaker. It holds no mutable state of its own — every
// check reads through to the Ledger, so two processes sharing a database
// see the same risk posture.
type RiskController struct {
	dailyRepo   repositories.DailySpendingRepository
	breakerRepo repositories.CircuitBreakerRepository
	auditRepo   repositories.AuditLogRepository
	dailyLimits map[entities.Chain]decimal.Decimal
	hourlyRate  decimal.Decimal
}

// NewRiskController creates a RiskController. dailyLimits maps each
// execution chain to its configured daily_limit; hourlyOutflowThreshold is
// the fraction of treasury balance (default 0.2) that trips the
// hourly-outflow breaker.
func NewRiskController(
	dailyRepo repositories.DailySpendingRepository,
	breakerRepo repositories.CircuitBreakerRepository,
	auditRepo repositories.AuditLogRepository,
	dailyLimits map[entities.Chain]decimal.Decimal,
	hourlyOutflowThreshold decimal.Decimal,
) *RiskController {
	return &RiskController{
		dailyRepo:   dailyRepo,
		breakerRepo: breakerRepo,
		auditRepo:   auditRepo,
		dailyLimits: dailyLimits,
		hourlyRate:  hourlyOutflowThreshold,
	}
}

// CheckExecutionAllowed fails if chain has an active circuit breaker or if
// amount would push today's spending past the configured daily limit.
// Called by an Executor before submission, inside its outer transaction.
func (r *RiskController) CheckExecutionAllowed(ctx context.Context, chain entities.Chain, amount decimal.Decimal) error {
	breaker, err := r.breakerRepo.GetActive(ctx, chain)
	if err != nil {
		return err
	}
	if breaker != nil {
		return &domainerrors.ErrCircuitBreakerTriggered{Chain: string(chain), Reason: breaker.Reason}
	}

	limit, hasLimit := r.dailyLimits[chain]
	if !hasLimit {
		return nil
	}
	spent, err := r.dailyRepo.Get(ctx, chain, time.Now())
	if err != nil {
		return err
	}
	projected := spent.AmountSpent.Add(amount)
	if projected.GreaterThan(limit) {
		return &domainerrors.ErrDailyLimitExceeded{
			Chain:   string(chain),
			Current: spent.AmountSpent.String(),
			Limit:   limit.String(),
		}
	}
	return nil
}

// RecordSpending increments today's spend for chain inside the caller's
// outer transaction, so it commits atomically with the Execution it
// accounts for.
func (r *RiskController) RecordSpending(ctx context.Context, chain entities.Chain, amount decimal.Decimal) error {
	return r.dailyRepo.IncrementSpending(ctx, chain, time.Now(), amount)
}

// TriggerCircuitBreaker records a new active breaker for chain. A second
// trigger while one is already active is a no-op that returns the existing
// breaker (enforced by the repository's partial unique index).
func (r *RiskController) TriggerCircuitBreaker(ctx context.Context, chain entities.Chain, reason string) (*entities.CircuitBreakerState, error) {
	breaker, err := r.breakerRepo.Trigger(ctx, chain, reason)
	if err != nil {
		return nil, err
	}
	metrics.CircuitBreakerTripsTotal.WithLabelValues(string(chain)).Inc()
	if err := r.auditRepo.Log(ctx, &entities.AuditLog{
		EventType: entities.AuditEventCircuitBreaker,
		Chain:     &chain,
	}); err != nil {
		return nil, err
	}
	return breaker, nil
}

// CheckHourlyOutflow compares the last hour's spending on chain against
// treasuryBalance and trips the circuit breaker if the ratio exceeds the
// configured threshold. Intended to be called periodically by a background
// watcher that owns the treasury balance lookup (Executors hold the keys;
// RiskController never does).
func (r *RiskController) CheckHourlyOutflow(ctx context.Context, chain entities.Chain, treasuryBalance decimal.Decimal) (bool, error) {
	if treasuryBalance.IsZero() || treasuryBalance.IsNegative() {
		return false, nil
	}
	outflow, err := r.dailyRepo.SumSince(ctx, chain, time.Now().Add(-time.Hour))
	if err != nil {
		return false, err
	}
	ratio := outflow.Div(treasuryBalance)
	if ratio.LessThanOrEqual(r.hourlyRate) {
		return false, nil
	}
	if _, err := r.TriggerCircuitBreaker(ctx, chain, "hourly outflow exceeded threshold"); err != nil {
		return false, err
	}
	return true, nil
}
