package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus is the Quote state machine. Transitions are enforced
// exclusively by the Ledger's compare-and-swap update, never by direct
// writes from a usecase.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "PENDING"
	QuoteStatusCommitted QuoteStatus = "COMMITTED"
	QuoteStatusExecuted  QuoteStatus = "EXECUTED"
	QuoteStatusFailed    QuoteStatus = "FAILED"
	QuoteStatusExpired   QuoteStatus = "EXPIRED"
)

// Quote is the central entity: a priced, expiring, nonce-bound promise to
// execute a transaction on execution_chain in exchange for a payment on
// funding_chain. Amounts are decimal.Decimal (shopspring), persisted as
// string-backed numeric columns for exact 78-digit arithmetic.
type Quote struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID                uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Nonce                 string          `json:"nonce" gorm:"uniqueIndex;not null"`
	FundingChain          Chain           `json:"funding_chain" gorm:"type:varchar(20);not null"`
	ExecutionChain        Chain           `json:"execution_chain" gorm:"type:varchar(20);not null"`
	FundingAssetSymbol    string          `json:"funding_asset" gorm:"not null"`
	ExecutionAssetSymbol  string          `json:"execution_asset" gorm:"not null"`
	MaxFundingAmount      decimal.Decimal `json:"max_funding_amount" gorm:"type:decimal(78,0);not null"`
	ExecutionCost         decimal.Decimal `json:"execution_cost" gorm:"type:decimal(78,0);not null"`
	ServiceFee            decimal.Decimal `json:"service_fee" gorm:"type:decimal(78,0);not null"`
	ExecutionInstructions []byte          `json:"execution_instructions" gorm:"type:bytea;not null"`
	EstimatedComputeUnits *uint64         `json:"estimated_compute_units,omitempty"`
	Status                QuoteStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	PaymentAddress        string          `json:"payment_address" gorm:"not null"`
	ExpiresAt             time.Time       `json:"expires_at" gorm:"not null"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// PairKey returns a stable identifier for the (funding, execution) pair,
// used for allowlist lookups and logging.
func (q *Quote) PairKey() string {
	return fmt.Sprintf("%s->%s", q.FundingChain, q.ExecutionChain)
}

// IsExpired reports whether the quote's TTL has elapsed as of now.
func (q *Quote) IsExpired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// Validate checks the invariants that must hold for any Quote row:
// distinct chains, allowlisted pair, max_funding_amount =
// execution_cost + service_fee, and positive amounts.
func (q *Quote) Validate() error {
	if q.FundingChain == q.ExecutionChain {
		return fmt.Errorf("funding_chain must differ from execution_chain")
	}
	if !AllowedPair(q.FundingChain, q.ExecutionChain) {
		return fmt.Errorf("unsupported chain pair %s", q.PairKey())
	}
	if q.ExecutionCost.LessThanOrEqual(decimal.Zero) || q.ServiceFee.IsNegative() {
		return fmt.Errorf("amounts must be positive")
	}
	if !q.MaxFundingAmount.Equal(q.ExecutionCost.Add(q.ServiceFee)) {
		return fmt.Errorf("max_funding_amount must equal execution_cost + service_fee")
	}
	if !q.ExpiresAt.After(q.CreatedAt) {
		return fmt.Errorf("expires_at must be after created_at")
	}
	return nil
}

// CreateQuoteInput is the input to QuoteEngine.GenerateQuote.
type CreateQuoteInput struct {
	UserID                uuid.UUID
	FundingChain          Chain
	ExecutionChain        Chain
	FundingAssetSymbol    string
	ExecutionAssetSymbol  string
	Instructions          []byte
	EstimatedComputeUnits *uint64
}
