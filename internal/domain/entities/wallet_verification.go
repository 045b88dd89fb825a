package entities

import (
	"time"

	"github.com/google/uuid"
)

// WalletVerificationStatus tracks the challenge-response flow that must
// complete before a wallet can be referenced by a TokenApproval.
type WalletVerificationStatus string

const (
	WalletVerificationPending  WalletVerificationStatus = "PENDING"
	WalletVerificationVerified WalletVerificationStatus = "VERIFIED"
)

// WalletVerification binds a (user, chain, address) triple to a
// challenge-response proof of key ownership before any TokenApproval may
// reference that wallet.
type WalletVerification struct {
	ID             uuid.UUID                `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID         uuid.UUID                `json:"user_id" gorm:"type:uuid;not null;index"`
	Chain          Chain                    `json:"chain" gorm:"type:varchar(20);not null"`
	Address        string                   `json:"address" gorm:"not null"`
	ChallengeNonce string                   `json:"challenge_nonce" gorm:"not null"`
	Status         WalletVerificationStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	ExpiresAt      time.Time                `json:"expires_at" gorm:"not null"`
	CreatedAt      time.Time                `json:"created_at"`
	VerifiedAt     *time.Time               `json:"verified_at,omitempty"`
}

// IsExpired reports whether the challenge's 5-minute window has elapsed.
func (w *WalletVerification) IsExpired(now time.Time) bool {
	return now.After(w.ExpiresAt)
}

// ChallengeMessage is the fixed-format text the user signs to prove key
// ownership of Address on Chain.
func (w *WalletVerification) ChallengeMessage() string {
	return "VERIFY_WALLET\nChain: " + string(w.Chain) + "\nAddress: " + w.Address + "\nNonce: " + w.ChallengeNonce
}
