package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySpending tracks cumulative treasury outflow per (chain, date). The
// Ledger upserts this row on every completed execution so the RiskController
// can compare it against the configured daily_limit without ever holding a
// package-level counter.
type DailySpending struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Chain            Chain           `json:"chain" gorm:"type:varchar(20);not null;uniqueIndex:idx_daily_spending_chain_date"`
	Date             time.Time       `json:"date" gorm:"type:date;not null;uniqueIndex:idx_daily_spending_chain_date"`
	AmountSpent      decimal.Decimal `json:"amount_spent" gorm:"type:decimal(78,0);not null;default:0"`
	TransactionCount int             `json:"transaction_count" gorm:"not null;default:0"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CircuitBreakerState is a per-chain kill switch. "Active" means
// ResolvedAt is nil; at most one active row per chain is ever observable.
type CircuitBreakerState struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Chain       Chain      `json:"chain" gorm:"type:varchar(20);not null;index"`
	TriggeredAt time.Time  `json:"triggered_at" gorm:"not null"`
	Reason      string     `json:"reason" gorm:"not null"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// IsActive reports whether the breaker is still in effect.
func (c *CircuitBreakerState) IsActive() bool {
	return c.ResolvedAt == nil
}
