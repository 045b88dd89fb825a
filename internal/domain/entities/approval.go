package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalStatus is the TokenApproval state machine.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "PENDING"
	ApprovalStatusSigned    ApprovalStatus = "SIGNED"
	ApprovalStatusSubmitted ApprovalStatus = "SUBMITTED"
	ApprovalStatusConfirmed ApprovalStatus = "CONFIRMED"
	ApprovalStatusExecuted  ApprovalStatus = "EXECUTED"
	ApprovalStatusFailed    ApprovalStatus = "FAILED"
	ApprovalStatusExpired   ApprovalStatus = "EXPIRED"
	ApprovalStatusCancelled ApprovalStatus = "CANCELLED"
)

// LiveApprovalStatuses are the statuses counted against the "one active
// approval per quote" invariant.
var LiveApprovalStatuses = map[ApprovalStatus]bool{
	ApprovalStatusPending:   true,
	ApprovalStatusSubmitted: true,
	ApprovalStatusConfirmed: true,
}

// TokenApproval is a user-signed, off-chain authorization binding a wallet
// to a treasury pull on behalf of a Quote.
type TokenApproval struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	QuoteID         uuid.UUID       `json:"quote_id" gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	UserWallet      string          `json:"user_wallet" gorm:"not null"`
	Chain           Chain           `json:"chain" gorm:"type:varchar(20);not null"`
	Token           string          `json:"token" gorm:"not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(78,0);not null"`
	Recipient       string          `json:"recipient" gorm:"not null"`
	Nonce           string          `json:"nonce" gorm:"uniqueIndex;not null"`
	Message         string          `json:"message" gorm:"not null"`
	Signature       string          `json:"signature,omitempty"`
	Status          ApprovalStatus  `json:"status" gorm:"type:varchar(20);not null;index"`
	ExpiresAt       time.Time       `json:"expires_at" gorm:"not null"`
	TransactionHash string          `json:"transaction_hash,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	RetryCount      int             `json:"retry_count" gorm:"default:0"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsExpired reports whether the approval's TTL has elapsed as of now.
func (a *TokenApproval) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// CanonicalMessage reconstructs the bit-exact signable message for this
// approval from its structured fields. Signature verification always
// rebuilds this string rather than trusting a submitted message blob, so
// that a tampered field cannot be masked by re-supplying the original
// message text.
func CanonicalMessage(tokenSymbol, amount, recipient, nonce string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"APPROVE_TOKEN_TRANSFER\nToken: %s\nAmount: %s\nRecipient: %s\nNonce: %s\nExpires: %s",
		strings.ToUpper(tokenSymbol),
		amount,
		recipient,
		NormalizeNonce(nonce),
		expiresAt.UTC().Format(time.RFC3339),
	)
}

// CanonicalMessage returns the canonical signable message for this
// approval's own stored fields.
func (a *TokenApproval) CanonicalMessage() string {
	return CanonicalMessage(a.Token, a.Amount.String(), a.Recipient, a.Nonce, a.ExpiresAt)
}

// SubmitApprovalInput carries the structured fields the caller claims to
// have signed; submit_approval rebuilds the canonical message from these
// and verifies the signature against it, never against a submitted message
// blob.
type SubmitApprovalInput struct {
	ApprovalID uuid.UUID
	UserWallet string
	Signature  string
	Token      string
	Amount     string
	Recipient  string
	Nonce      string
}
