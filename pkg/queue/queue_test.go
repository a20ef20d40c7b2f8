package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, nil), mr
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	payload := NotificationPayload{
		Event:          "booking_received",
		BookingID:      uuid.New(),
		RecipientEmail: "asha@example.com",
		Subject:        "Booking received",
		BodyHTML:       "<p>hi</p>",
	}
	require.NoError(t, q.EnqueueNotification(ctx, payload))

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueNotifications, key)
	assert.Equal(t, JobTypeNotification, job.Type)
	assert.Equal(t, 0, job.Attempt)

	var got NotificationPayload
	require.NoError(t, json.Unmarshal(job.Payload, &got))
	assert.Equal(t, payload.BookingID, got.BookingID)
	assert.Equal(t, payload.RecipientEmail, got.RecipientEmail)
}

func TestRetryReenqueues(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueNotification(ctx, NotificationPayload{Event: "otp", RecipientEmail: "a@b.c"}))
	job, _, err := q.Dequeue(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Retry(ctx, job))
	assert.Equal(t, 1, job.Attempt)

	retried, _, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, retried)
	assert.Equal(t, job.ID, retried.ID)
	assert.Equal(t, 1, retried.Attempt)
	assert.False(t, mr.Exists(QueueDLQ))
}

func TestRetryExhaustionMovesToDLQ(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueNotification(ctx, NotificationPayload{Event: "otp", RecipientEmail: "a@b.c"}))
	job, _, err := q.Dequeue(ctx)
	require.NoError(t, err)

	job.Attempt = MaxRetries - 1
	require.NoError(t, q.Retry(ctx, job))

	assert.True(t, mr.Exists(QueueDLQ))
	n, err := mr.List(QueueDLQ)
	require.NoError(t, err)
	assert.Len(t, n, 1)
	assert.False(t, mr.Exists(QueueNotifications))
}
