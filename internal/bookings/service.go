// Package bookings owns the booking lifecycle: creation, status
// transitions, cancellation and listing. The service here is the only
// component allowed to mutate a booking's status, meeting metadata or
// notes.
package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/internal/notify"
	"github.com/believe-consult/backend/pkg/fault"
	"github.com/believe-consult/backend/pkg/metrics"
	"github.com/believe-consult/backend/pkg/queue"
)

// Directory resolves a provider id to its directory entry.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
}

// Filter narrows a booking listing. Zero values mean "no constraint".
type Filter struct {
	Email      string
	Status     models.BookingStatus
	ProviderID uuid.UUID
}

// UpdateFields enumerates exactly what a provider/moderator principal
// may set on an existing booking. Nil pointers leave the field as-is
// (field-level last-write-wins, no CAS token).
type UpdateFields struct {
	Status           *models.BookingStatus
	MeetingRef       *string
	Notes            *string
	AddAllowedEmails []string // append-only once the booking left pending
}

// Store is the durable booking table.
type Store interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) // nil when absent
	Update(ctx context.Context, id uuid.UUID, f UpdateFields) (*models.Booking, error)
	List(ctx context.Context, f Filter) ([]models.Booking, error)
}

// EventPublisher fans a booking event out to live watchers (moderator feed).
type EventPublisher interface {
	PublishBookingEvent(event string, b *models.Booking)
}

// CreateInput is the validated input for a new booking request.
type CreateInput struct {
	FullName    string
	Email       string
	Age         int
	Issue       string
	TimingFrom  string
	TimingTo    string
	MeetingDate *time.Time
	ProviderID  uuid.UUID
}

// Service is the booking lifecycle manager.
type Service struct {
	store      Store
	directory  Directory
	dispatcher notify.Dispatcher
	events     EventPublisher
	timeout    time.Duration
	logger     *zap.Logger
}

// NewService creates the lifecycle manager. timeout bounds every store
// and directory call so a slow dependency cannot hang a transition.
func NewService(store Store, directory Directory, dispatcher notify.Dispatcher, events EventPublisher, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		directory:  directory,
		dispatcher: dispatcher,
		events:     events,
		timeout:    timeout,
		logger:     logger,
	}
}

// Create registers a new booking in pending state. The provider's display
// name is captured once from the directory and never re-resolved.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Booking, error) {
	dctx, cancel := context.WithTimeout(ctx, s.timeout)
	provider, err := s.directory.GetByID(dctx, in.ProviderID)
	cancel()
	if err != nil {
		return nil, fault.Unavailable("directory lookup failed", err)
	}
	if provider == nil {
		return nil, fault.NotFound("provider not found")
	}

	b := &models.Booking{
		FullName:     in.FullName,
		Email:        in.Email,
		Age:          in.Age,
		Issue:        in.Issue,
		TimingFrom:   in.TimingFrom,
		TimingTo:     in.TimingTo,
		MeetingDate:  in.MeetingDate,
		ProviderID:   provider.ID,
		ProviderName: provider.FullName,
		Status:       models.StatusPending,
		// requester and provider can always join the eventual session
		AllowedEmails: []string{in.Email, provider.Email},
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	err = s.store.Create(sctx, b)
	cancel()
	if err != nil {
		return nil, fault.Unavailable("could not save booking", err)
	}

	metrics.BookingsCreated.Inc()
	s.notifyAfterCommit(ctx, b, models.EventBookingReceived, "Booking received",
		fmt.Sprintf("<p>Hi %s,</p><p>Your booking with %s (%s–%s) was received and is pending confirmation.</p>",
			b.FullName, b.ProviderName, b.TimingFrom, b.TimingTo))
	s.publish("booking.created", b)
	return b, nil
}

// Update applies a provider/moderator change. Transitions follow the
// state machine; meeting_ref and notes may only change while the booking
// is not terminal.
func (s *Service) Update(ctx context.Context, id uuid.UUID, f UpdateFields) (*models.Booking, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if f.Status != nil {
		if !f.Status.Valid() {
			return nil, fault.Validation("unknown status")
		}
		if *f.Status != current.Status && !current.Status.CanTransition(*f.Status) {
			return nil, fault.InvalidTransition(
				fmt.Sprintf("cannot change status from %s to %s", current.Status, *f.Status))
		}
		if *f.Status == current.Status {
			f.Status = nil // idempotent re-assertion of the current status
		}
	}
	if f.Status == nil && current.Status.Terminal() {
		if f.MeetingRef != nil || f.Notes != nil || len(f.AddAllowedEmails) > 0 {
			return nil, fault.InvalidTransition("booking is closed")
		}
		return current, nil
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	updated, err := s.store.Update(sctx, id, f)
	cancel()
	if err != nil {
		return nil, fault.Unavailable("could not update booking", err)
	}
	if updated == nil {
		return nil, fault.NotFound("booking not found")
	}

	if f.Status != nil {
		metrics.BookingTransitions.WithLabelValues(string(*f.Status)).Inc()
	}
	s.notifyAfterCommit(ctx, updated, models.EventBookingUpdated, "Booking updated", updateBody(updated))
	s.publish("booking.updated", updated)
	return updated, nil
}

// Cancel transitions the booking to the cancelled terminal state. Only
// the original requester or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actorEmail string, actorRole models.Role) error {
	current, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if actorRole != models.RoleAdmin && current.Email != actorEmail {
		return fault.Unauthorized("not authorized to cancel this booking")
	}
	if !current.Status.CanTransition(models.StatusCancelled) {
		return fault.InvalidTransition("booking is already closed")
	}

	cancelled := models.StatusCancelled
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	updated, err := s.store.Update(sctx, id, UpdateFields{Status: &cancelled})
	cancel()
	if err != nil {
		return fault.Unavailable("could not cancel booking", err)
	}
	if updated == nil {
		return fault.NotFound("booking not found")
	}

	metrics.BookingTransitions.WithLabelValues(string(models.StatusCancelled)).Inc()
	s.notifyAfterCommit(ctx, updated, models.EventBookingCancelled, "Booking cancelled",
		fmt.Sprintf("<p>Hi %s,</p><p>Your booking with %s was cancelled.</p>", updated.FullName, updated.ProviderName))
	s.publish("booking.cancelled", updated)
	return nil
}

// Get returns a booking by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.get(ctx, id)
}

// List returns bookings matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Booking, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fault.Validation("unknown status")
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	list, err := s.store.List(sctx, f)
	if err != nil {
		return nil, fault.Unavailable("could not list bookings", err)
	}
	return list, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	b, err := s.store.GetByID(sctx, id)
	if err != nil {
		return nil, fault.Unavailable("could not load booking", err)
	}
	if b == nil {
		return nil, fault.NotFound("booking not found")
	}
	return b, nil
}

// notifyAfterCommit hands the notification off once the mutation is
// durable. Dispatch failures are logged inside the dispatcher and never
// reach the caller.
func (s *Service) notifyAfterCommit(ctx context.Context, b *models.Booking, event, subject, body string) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, queue.NotificationPayload{
		Event:          event,
		BookingID:      b.ID,
		RecipientEmail: b.Email,
		Subject:        subject,
		BodyHTML:       body,
	})
}

func (s *Service) publish(event string, b *models.Booking) {
	if s.events != nil {
		s.events.PublishBookingEvent(event, b)
	}
}

func updateBody(b *models.Booking) string {
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your booking with %s is now <b>%s</b>.</p>", b.FullName, b.ProviderName, b.Status)
	if b.MeetingRef != "" {
		body += fmt.Sprintf("<p>Meeting: %s</p>", b.MeetingRef)
	}
	if b.Notes != "" {
		body += fmt.Sprintf("<p>Notes: %s</p>", b.Notes)
	}
	return body
}
