package entities

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the terminal-or-pending state of a single execute
// attempt. There is no Reverted/Timeout status stored on the row itself:
// Reverted maps to Failed, and Timeout leaves the row Pending for
// reconciliation.
type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "PENDING"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
)

// Execution records one attempt by the treasury to perform a committed
// quote on the execution chain. QuoteID is UNIQUE: it is the idempotency
// primitive that makes a second execute() on the same quote a no-op.
type Execution struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	QuoteID        uuid.UUID       `json:"quote_id" gorm:"type:uuid;uniqueIndex;not null"`
	ExecutionChain Chain           `json:"execution_chain" gorm:"type:varchar(20);not null"`
	TransactionHash string         `json:"transaction_hash,omitempty"`
	Status         ExecutionStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	GasUsed        *uint64         `json:"gas_used,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	RetryCount     int             `json:"retry_count" gorm:"default:0"`
	ExecutedAt     *time.Time      `json:"executed_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the execution has reached Success or Failed.
func (e *Execution) IsTerminal() bool {
	return e.Status == ExecutionStatusSuccess || e.Status == ExecutionStatusFailed
}
