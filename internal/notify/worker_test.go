package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/queue"
)

type fakeSender struct {
	sent     []string
	failWith error
}

func (s *fakeSender) Send(_ context.Context, to, _, _ string) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, to)
	return nil
}

type fakeBookingSource struct {
	due    []models.Booking
	marked []uuid.UUID
}

func (f *fakeBookingSource) DueForReminder(_ context.Context, _ time.Duration) ([]models.Booking, error) {
	return f.due, nil
}

func (f *fakeBookingSource) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	f.marked = append(f.marked, id)
	return nil
}

func setupProcessor(t *testing.T, sender *fakeSender, bookings BookingSource) (*Processor, *queue.Queue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := queue.NewQueue(client, nil)
	return NewProcessor(q, nil, sender, bookings, nil), q
}

func notificationJob(t *testing.T, p queue.NotificationPayload) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeNotification, Payload: raw}
}

func TestProcessDeliversNotification(t *testing.T) {
	sender := &fakeSender{}
	p, _ := setupProcessor(t, sender, nil)

	job := notificationJob(t, queue.NotificationPayload{
		Event:          models.EventBookingReceived,
		BookingID:      uuid.New(),
		RecipientEmail: "asha@example.com",
		Subject:        "Booking received",
		BodyHTML:       "<p>hi</p>",
	})
	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []string{"asha@example.com"}, sender.sent)
}

func TestProcessSendFailure(t *testing.T) {
	sender := &fakeSender{failWith: errors.New("smtp refused")}
	p, _ := setupProcessor(t, sender, nil)

	job := notificationJob(t, queue.NotificationPayload{
		Event:          models.EventOTP,
		RecipientEmail: "asha@example.com",
		Subject:        "Your verification code",
	})
	assert.Error(t, p.Process(context.Background(), job))
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	p, _ := setupProcessor(t, &fakeSender{}, nil)

	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "transcode"})
	assert.Error(t, err)
}

func TestRemindDueQueuesAndMarks(t *testing.T) {
	booking := models.Booking{
		ID:           uuid.New(),
		FullName:     "Asha Rao",
		Email:        "asha@example.com",
		ProviderName: "Dr. Meera Nair",
		TimingFrom:   "10:00",
		TimingTo:     "11:00",
	}
	source := &fakeBookingSource{due: []models.Booking{booking}}
	p, q := setupProcessor(t, &fakeSender{}, source)

	p.remindDue(context.Background(), 24*time.Hour)

	assert.Equal(t, []uuid.UUID{booking.ID}, source.marked)

	job, _, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	var payload queue.NotificationPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, models.EventBookingReminder, payload.Event)
	assert.Equal(t, booking.ID, payload.BookingID)
	assert.Equal(t, "asha@example.com", payload.RecipientEmail)
}
