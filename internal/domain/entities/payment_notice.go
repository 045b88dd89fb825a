package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentNoticeStatus tracks a funding-chain payment notice from durable
// enqueue through background dispatch.
type PaymentNoticeStatus string

const (
	PaymentNoticeStatusPending   PaymentNoticeStatus = "PENDING"
	PaymentNoticeStatusProcessed PaymentNoticeStatus = "PROCESSED"
	PaymentNoticeStatusRejected  PaymentNoticeStatus = "REJECTED"
)

// PaymentNotice is the durable work-table row a normalized funding-chain
// payment notice is inserted into before the webhook recorder acknowledges
// receipt. Dispatch (commit quote, execute, settle) runs against this row
// in a background task, so a crash between ack and dispatch never loses the
// notice: TxHash is UNIQUE, so a replayed webhook call is a no-op.
type PaymentNotice struct {
	ID           uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	QuoteID      *uuid.UUID          `json:"quote_id,omitempty" gorm:"type:uuid;index"`
	Chain        Chain               `json:"chain" gorm:"type:varchar(20);not null"`
	TxHash       string              `json:"tx_hash" gorm:"uniqueIndex;not null"`
	FromAddress  string              `json:"from_address"`
	ToAddress    string              `json:"to_address"`
	Amount       decimal.Decimal     `json:"amount" gorm:"type:decimal(78,0);not null"`
	Asset        string              `json:"asset"`
	Memo         string              `json:"memo"`
	OccurredAt   time.Time           `json:"occurred_at"`
	Status       PaymentNoticeStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	ErrorMessage string              `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	ProcessedAt  *time.Time          `json:"processed_at,omitempty"`
}
