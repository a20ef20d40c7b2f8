package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/fault"
	"github.com/believe-consult/backend/pkg/queue"
)

type fakeStore struct {
	bookings map[uuid.UUID]*models.Booking
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (s *fakeStore) Create(_ context.Context, b *models.Booking) error {
	if s.failWith != nil {
		return s.failWith
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) Update(_ context.Context, id uuid.UUID, f UpdateFields) (*models.Booking, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	if f.Status != nil {
		b.Status = *f.Status
	}
	if f.MeetingRef != nil {
		b.MeetingRef = *f.MeetingRef
	}
	if f.Notes != nil {
		b.Notes = *f.Notes
	}
	for _, e := range f.AddAllowedEmails {
		if !b.Allows(e) {
			b.AllowedEmails = append(b.AllowedEmails, e)
		}
	}
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (s *fakeStore) List(_ context.Context, f Filter) ([]models.Booking, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if f.Email != "" && b.Email != f.Email {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.ProviderID != uuid.Nil && b.ProviderID != f.ProviderID {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

type fakeDirectory struct {
	providers map[uuid.UUID]*models.Provider
	failWith  error
}

func (d *fakeDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.Provider, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	return d.providers[id], nil
}

type fakeDispatcher struct {
	dispatched []queue.NotificationPayload
}

func (d *fakeDispatcher) Dispatch(_ context.Context, p queue.NotificationPayload) {
	d.dispatched = append(d.dispatched, p)
}

type fakeEvents struct {
	events []string
}

func (e *fakeEvents) PublishBookingEvent(event string, _ *models.Booking) {
	e.events = append(e.events, event)
}

func setupService(t *testing.T) (*Service, *fakeStore, *fakeDirectory, *fakeDispatcher, *fakeEvents) {
	t.Helper()
	store := newFakeStore()
	provider := &models.Provider{
		ID:       uuid.New(),
		FullName: "Dr. Meera Nair",
		Email:    "meera@clinic.example",
	}
	dir := &fakeDirectory{providers: map[uuid.UUID]*models.Provider{provider.ID: provider}}
	disp := &fakeDispatcher{}
	events := &fakeEvents{}
	svc := NewService(store, dir, disp, events, time.Second, nil)
	return svc, store, dir, disp, events
}

func providerID(d *fakeDirectory) uuid.UUID {
	for id := range d.providers {
		return id
	}
	return uuid.Nil
}

func createBooking(t *testing.T, svc *Service, dir *fakeDirectory) *models.Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateInput{
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
		Age:        29,
		Issue:      "career counselling",
		TimingFrom: "10:00",
		TimingTo:   "11:00",
		ProviderID: providerID(dir),
	})
	require.NoError(t, err)
	return b
}

func TestCreateCapturesProviderAndSeedsAllowList(t *testing.T) {
	svc, _, dir, disp, events := setupService(t)

	b := createBooking(t, svc, dir)

	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "Dr. Meera Nair", b.ProviderName)
	assert.True(t, b.Allows("asha@example.com"))
	assert.True(t, b.Allows("meera@clinic.example"))

	require.Len(t, disp.dispatched, 1)
	assert.Equal(t, models.EventBookingReceived, disp.dispatched[0].Event)
	assert.Equal(t, "asha@example.com", disp.dispatched[0].RecipientEmail)
	assert.Equal(t, []string{"booking.created"}, events.events)
}

func TestCreateUnknownProvider(t *testing.T) {
	svc, _, _, disp, _ := setupService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
		Age:        29,
		Issue:      "stress",
		TimingFrom: "10:00",
		TimingTo:   "11:00",
		ProviderID: uuid.New(),
	})
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
	assert.Empty(t, disp.dispatched)
}

func TestCreateDirectoryUnavailable(t *testing.T) {
	svc, _, dir, _, _ := setupService(t)
	dir.failWith = errors.New("connection refused")

	_, err := svc.Create(context.Background(), CreateInput{
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
		Age:        29,
		Issue:      "stress",
		TimingFrom: "10:00",
		TimingTo:   "11:00",
		ProviderID: uuid.New(),
	})
	assert.Equal(t, fault.KindUnavailable, fault.KindOf(err))
}

func TestUpdateValidTransition(t *testing.T) {
	svc, _, dir, disp, events := setupService(t)
	b := createBooking(t, svc, dir)
	disp.dispatched = nil
	events.events = nil

	accepted := models.StatusAccepted
	updated, err := svc.Update(context.Background(), b.ID, UpdateFields{Status: &accepted})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, updated.Status)

	require.Len(t, disp.dispatched, 1)
	assert.Equal(t, models.EventBookingUpdated, disp.dispatched[0].Event)
	assert.Equal(t, []string{"booking.updated"}, events.events)
}

func TestUpdateInvalidTransition(t *testing.T) {
	svc, _, dir, disp, _ := setupService(t)
	b := createBooking(t, svc, dir)
	disp.dispatched = nil

	completed := models.StatusCompleted
	_, err := svc.Update(context.Background(), b.ID, UpdateFields{Status: &completed})
	assert.Equal(t, fault.KindInvalidTransition, fault.KindOf(err))
	assert.Empty(t, disp.dispatched, "failed transition must not notify")
}

func TestUpdateSameStatusIsIdempotent(t *testing.T) {
	svc, _, dir, _, _ := setupService(t)
	b := createBooking(t, svc, dir)

	pending := models.StatusPending
	notes := "prefers morning slots"
	updated, err := svc.Update(context.Background(), b.ID, UpdateFields{Status: &pending, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Equal(t, notes, updated.Notes)
}

func TestUpdateTerminalBookingRejectsFieldChanges(t *testing.T) {
	svc, _, dir, _, _ := setupService(t)
	b := createBooking(t, svc, dir)

	rejected := models.StatusRejected
	_, err := svc.Update(context.Background(), b.ID, UpdateFields{Status: &rejected})
	require.NoError(t, err)

	notes := "late edit"
	_, err = svc.Update(context.Background(), b.ID, UpdateFields{Notes: &notes})
	assert.Equal(t, fault.KindInvalidTransition, fault.KindOf(err))

	// re-asserting the terminal status with no field changes is a no-op
	got, err := svc.Update(context.Background(), b.ID, UpdateFields{Status: &rejected})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Empty(t, got.Notes)
}

func TestUpdateUnknownStatus(t *testing.T) {
	svc, _, dir, _, _ := setupService(t)
	b := createBooking(t, svc, dir)

	bad := models.BookingStatus("archived")
	_, err := svc.Update(context.Background(), b.ID, UpdateFields{Status: &bad})
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _, _, _ := setupService(t)

	notes := "x"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateFields{Notes: &notes})
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestCancelByRequester(t *testing.T) {
	svc, _, dir, disp, _ := setupService(t)
	b := createBooking(t, svc, dir)
	disp.dispatched = nil

	err := svc.Cancel(context.Background(), b.ID, "asha@example.com", models.RoleUser)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	require.Len(t, disp.dispatched, 1)
	assert.Equal(t, models.EventBookingCancelled, disp.dispatched[0].Event)
}

func TestCancelByStrangerDenied(t *testing.T) {
	svc, _, dir, _, _ := setupService(t)
	b := createBooking(t, svc, dir)

	err := svc.Cancel(context.Background(), b.ID, "mallory@example.com", models.RoleUser)
	assert.Equal(t, fault.KindUnauthorized, fault.KindOf(err))
}

func TestCancelByAdmin(t *testing.T) {
	svc, _, dir, _, _ := setupService(t)
	b := createBooking(t, svc, dir)

	err := svc.Cancel(context.Background(), b.ID, "admin@example.com", models.RoleAdmin)
	require.NoError(t, err)
}

func TestCancelClosedBooking(t *testing.T) {
	svc, _, dir, _, _ := setupService(t)
	b := createBooking(t, svc, dir)

	rejected := models.StatusRejected
	_, err := svc.Update(context.Background(), b.ID, UpdateFields{Status: &rejected})
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), b.ID, "asha@example.com", models.RoleUser)
	assert.Equal(t, fault.KindInvalidTransition, fault.KindOf(err))
}

func TestListInvalidStatusFilter(t *testing.T) {
	svc, _, _, _, _ := setupService(t)

	_, err := svc.List(context.Background(), Filter{Status: "archived"})
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestStoreFailureSurfacesUnavailable(t *testing.T) {
	svc, store, dir, _, _ := setupService(t)
	b := createBooking(t, svc, dir)
	store.failWith = errors.New("db down")

	_, err := svc.Get(context.Background(), b.ID)
	assert.Equal(t, fault.KindUnavailable, fault.KindOf(err))
}
