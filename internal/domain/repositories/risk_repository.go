package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"pay-chain.backend/internal/domain/entities"
)

// DailySpendingRepository upserts and reads per-(chain, date) outflow
// totals. IncrementSpending must be safe to call inside the outer Ledger
// transaction so it commits atomically with the Execution it accounts for.
type DailySpendingRepository interface {
	IncrementSpending(ctx context.Context, chain entities.Chain, date time.Time, amount decimal.Decimal) error
	Get(ctx context.Context, chain entities.Chain, date time.Time) (*entities.DailySpending, error)
	// SumSince returns total spending across all chains since `since`, used
	// by the hourly-outflow watcher to approximate recent treasury outflow.
	SumSince(ctx context.Context, chain entities.Chain, since time.Time) (decimal.Decimal, error)
}

// CircuitBreakerRepository is the Ledger's gateway for CircuitBreakerState
// rows. At most one active (ResolvedAt == nil) row per chain is enforced by
// a partial unique index.
type CircuitBreakerRepository interface {
	GetActive(ctx context.Context, chain entities.Chain) (*entities.CircuitBreakerState, error)
	Trigger(ctx context.Context, chain entities.Chain, reason string) (*entities.CircuitBreakerState, error)
	Resolve(ctx context.Context, chain entities.Chain) error
}
