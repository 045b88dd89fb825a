package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement links an Execution back to the concrete funding-chain payment
// that backed it. ExecutionID is UNIQUE: one settlement per execution.
type Settlement struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ExecutionID    uuid.UUID       `json:"execution_id" gorm:"type:uuid;uniqueIndex;not null"`
	FundingChain   Chain           `json:"funding_chain" gorm:"type:varchar(20);not null"`
	FundingTxHash  string          `json:"funding_txn_hash" gorm:"not null"`
	FundingAmount  decimal.Decimal `json:"funding_amount" gorm:"type:decimal(78,0);not null"`
	SettledAt      time.Time       `json:"settled_at"`
	VerifiedAt     *time.Time      `json:"verified_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
