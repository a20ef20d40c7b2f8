package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/fault"
)

type fakeBookings struct {
	bookings map[uuid.UUID]*models.Booking
	failWith error
}

func (f *fakeBookings) Get(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, fault.NotFound("booking not found")
	}
	return b, nil
}

func setupGate(status models.BookingStatus) (*Gate, uuid.UUID) {
	id := uuid.New()
	b := &models.Booking{
		ID:            id,
		Status:        status,
		AllowedEmails: []string{"asha@example.com", "meera@clinic.example"},
	}
	return NewGate(&fakeBookings{bookings: map[uuid.UUID]*models.Booking{id: b}}, nil), id
}

func TestAuthorizeAllowListedParticipant(t *testing.T) {
	gate, id := setupGate(models.StatusAccepted)

	b, err := gate.Authorize(context.Background(), id, "asha@example.com", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
}

func TestAuthorizeStrangerDenied(t *testing.T) {
	gate, id := setupGate(models.StatusAccepted)

	_, err := gate.Authorize(context.Background(), id, "mallory@example.com", models.RoleUser)
	assert.Equal(t, fault.KindUnauthorized, fault.KindOf(err))
	// the message must not reveal whether the booking exists or who is listed
	assert.Equal(t, "not authorized to join this session", fault.MessageOf(err))
}

func TestAuthorizeModeratorBypassesAllowList(t *testing.T) {
	gate, id := setupGate(models.StatusAccepted)

	b, err := gate.Authorize(context.Background(), id, "anyone@example.com", models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
}

func TestAuthorizeModeratorAdmittedToClosedBooking(t *testing.T) {
	gate, id := setupGate(models.StatusCancelled)

	_, err := gate.Authorize(context.Background(), id, "", models.RoleModerator)
	require.NoError(t, err)
}

func TestAuthorizeClosedBookingDeniesParticipant(t *testing.T) {
	for _, status := range []models.BookingStatus{models.StatusRejected, models.StatusCancelled} {
		gate, id := setupGate(status)
		_, err := gate.Authorize(context.Background(), id, "asha@example.com", models.RoleUser)
		assert.Equal(t, fault.KindUnauthorized, fault.KindOf(err), "status %s", status)
	}
}

func TestAuthorizeUnknownBooking(t *testing.T) {
	gate := NewGate(&fakeBookings{bookings: map[uuid.UUID]*models.Booking{}}, nil)

	_, err := gate.Authorize(context.Background(), uuid.New(), "asha@example.com", models.RoleUser)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}
