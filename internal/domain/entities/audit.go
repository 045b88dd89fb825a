package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditEventType enumerates the events the Ledger records. New event types
// are added here as new components need to log one; the table itself is
// append-only and never migrated in place.
type AuditEventType string

const (
	AuditEventQuoteCreated       AuditEventType = "QUOTE_CREATED"
	AuditEventQuoteCommitted     AuditEventType = "QUOTE_COMMITTED"
	AuditEventQuoteExpired       AuditEventType = "QUOTE_EXPIRED"
	AuditEventExecutionSucceeded AuditEventType = "EXECUTION_SUCCEEDED"
	AuditEventExecutionFailed    AuditEventType = "EXECUTION_FAILED"
	AuditEventApprovalSubmitted  AuditEventType = "APPROVAL_SUBMITTED"
	AuditEventCircuitBreaker     AuditEventType = "CIRCUIT_BREAKER_TRIGGERED"
)

// AuditLog is an append-only record of a notable event. Details is a raw
// JSON blob rather than a typed column, to hold heterogeneous per-event
// payloads without a migration per event type.
type AuditLog struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	EventType AuditEventType  `json:"event_type" gorm:"type:varchar(50);not null;index"`
	Chain     *Chain          `json:"chain,omitempty" gorm:"type:varchar(20)"`
	EntityID  *uuid.UUID      `json:"entity_id,omitempty" gorm:"type:uuid;index"`
	UserID    *uuid.UUID      `json:"user_id,omitempty" gorm:"type:uuid"`
	Details   json.RawMessage `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"created_at"`
}
