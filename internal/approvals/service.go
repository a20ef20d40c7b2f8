// Package approvals implements durable one-time approval codes (OTP):
// create with expiry, redeem exactly once, expire without action.
package approvals

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/fault"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, a *models.Approval) error
	GetLatest(ctx context.Context, email, purpose string) (*models.Approval, error)
	Redeem(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service issues and redeems approval codes.
type Service struct {
	store  Store
	expiry time.Duration
	now    func() time.Time
}

// NewService creates an approvals service. expiry bounds code validity.
func NewService(store Store, expiry time.Duration) *Service {
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &Service{store: store, expiry: expiry, now: time.Now}
}

// Issue creates a pending approval for email+purpose and returns the
// plaintext code for out-of-band delivery. Only the hash is stored.
func (s *Service) Issue(ctx context.Context, email, purpose string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	a := &models.Approval{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  hashCode(code),
		ExpiresAt: s.now().Add(s.expiry),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return "", fault.Unavailable("could not issue approval code", err)
	}
	return code, nil
}

// Redeem verifies the code for email+purpose and consumes it. A code is
// redeemable at most once; expired or mismatched codes fail with a
// Validation kind so the caller sees a 400, never which part mismatched.
func (s *Service) Redeem(ctx context.Context, email, purpose, code string) error {
	a, err := s.store.GetLatest(ctx, email, purpose)
	if err != nil {
		return fault.Unavailable("could not verify approval code", err)
	}
	if a == nil || !a.Redeemable(s.now()) {
		return fault.Validation("invalid or expired code")
	}
	if subtle.ConstantTimeCompare([]byte(a.CodeHash), []byte(hashCode(code))) != 1 {
		return fault.Validation("invalid or expired code")
	}
	ok, err := s.store.Redeem(ctx, a.ID)
	if err != nil {
		return fault.Unavailable("could not redeem approval code", err)
	}
	if !ok {
		return fault.Validation("invalid or expired code")
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
