package models

import (
	"time"

	"github.com/google/uuid"
)

// Approval purposes.
const (
	ApprovalPurposeRegister      = "register"
	ApprovalPurposeResetPassword = "reset_password"
)

// Approval is a durable pending-approval record: a one-time code with an
// absolute expiry and a single-redemption flag. Replaces in-process OTP state
// so redemption survives restarts and concurrent requests.
type Approval struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Purpose    string     `json:"purpose"`
	CodeHash   string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Redeemable reports whether the approval can still be redeemed at now.
func (a *Approval) Redeemable(now time.Time) bool {
	return a.RedeemedAt == nil && now.Before(a.ExpiresAt)
}
