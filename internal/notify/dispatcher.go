// Package notify decouples booking state transitions from out-of-band
// messaging: the core enqueues after its write is durable, the worker
// delivers. A delivery failure never surfaces to the transition's caller.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/believe-consult/backend/pkg/queue"
)

// Dispatcher hands a notification off for asynchronous delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, p queue.NotificationPayload)
}

// QueueDispatcher enqueues notifications onto the Redis job queue.
type QueueDispatcher struct {
	queue  *queue.Queue
	logger *zap.Logger
}

// NewQueueDispatcher creates a queue-backed dispatcher.
func NewQueueDispatcher(q *queue.Queue, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{queue: q, logger: logger}
}

// Dispatch enqueues the payload. Errors are logged and swallowed: the
// booking change is already durable and must be reported as success.
func (d *QueueDispatcher) Dispatch(ctx context.Context, p queue.NotificationPayload) {
	if err := d.queue.EnqueueNotification(ctx, p); err != nil {
		d.logger.Error("notification enqueue failed",
			zap.Error(err),
			zap.String("event", p.Event),
			zap.String("recipient", p.RecipientEmail),
		)
	}
}
