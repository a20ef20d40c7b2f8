// Package session guards entry to a booking's real-time channel: the
// gate decides who may join, the pairing service mints the short-lived
// credential for the RTC provider. Credential material is never
// generated before the gate admits.
package session

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/fault"
)

// BookingSource loads bookings for authorization checks.
type BookingSource interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// Gate decides whether an identity may obtain a join credential.
type Gate struct {
	bookings BookingSource
	logger   *zap.Logger
}

// NewGate creates an authorization gate.
func NewGate(bookings BookingSource, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{bookings: bookings, logger: logger}
}

// Authorize admits moderators unconditionally and everyone else only by
// allow-list membership on a booking that is not rejected or cancelled.
// The deny message is generic so allow-list membership never leaks.
func (g *Gate) Authorize(ctx context.Context, bookingID uuid.UUID, requesterEmail string, role models.Role) (*models.Booking, error) {
	b, err := g.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err // NotFound or Unavailable from the booking source
	}

	if role == models.RoleModerator {
		return b, nil
	}

	if b.Status == models.StatusRejected || b.Status == models.StatusCancelled {
		g.logger.Info("join denied: booking closed",
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(b.Status)),
		)
		return nil, fault.Unauthorized("not authorized to join this session")
	}
	if !b.Allows(requesterEmail) {
		g.logger.Info("join denied: not on allow-list",
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fault.Unauthorized("not authorized to join this session")
	}
	return b, nil
}
