package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/metrics"
	"github.com/believe-consult/backend/pkg/queue"
)

// BookingSource is the slice of the booking store the reminder pass needs.
type BookingSource interface {
	DueForReminder(ctx context.Context, within time.Duration) ([]models.Booking, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// Processor delivers queued notifications and records the outcome.
type Processor struct {
	queue    *queue.Queue
	logs     *Repository
	sender   Sender
	bookings BookingSource
	logger   *zap.Logger
}

// NewProcessor creates a notification processor.
func NewProcessor(q *queue.Queue, logs *Repository, sender Sender, bookings BookingSource, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{queue: q, logs: logs, sender: sender, bookings: bookings, logger: logger}
}

// Process executes one notification job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logEntry := &models.NotificationLog{
		Event:          payload.Event,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		Status:         models.NotificationStatusPending,
	}
	if payload.BookingID != uuid.Nil {
		id := payload.BookingID
		logEntry.BookingID = &id
	}
	if p.logs != nil {
		if err := p.logs.Create(ctx, logEntry); err != nil {
			p.logger.Warn("notification log create failed", zap.Error(err))
		}
	}

	if err := p.sender.Send(ctx, payload.RecipientEmail, payload.Subject, payload.BodyHTML); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		if p.logs != nil && logEntry.ID != uuid.Nil {
			_ = p.logs.MarkFailed(ctx, logEntry.ID, err.Error())
		}
		return fmt.Errorf("send notification: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues("sent").Inc()
	if p.logs != nil && logEntry.ID != uuid.Nil {
		_ = p.logs.MarkSent(ctx, logEntry.ID)
	}
	p.logger.Info("notification delivered",
		zap.String("event", payload.Event),
		zap.String("recipient", payload.RecipientEmail),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

// RunReminders periodically queues reminder mail for accepted bookings
// whose meeting date falls inside the window, marking each booking so it
// is reminded once.
func (p *Processor) RunReminders(ctx context.Context, interval, window time.Duration) {
	if p.bookings == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.remindDue(ctx, window)
		}
	}
}

func (p *Processor) remindDue(ctx context.Context, window time.Duration) {
	due, err := p.bookings.DueForReminder(ctx, window)
	if err != nil {
		p.logger.Warn("reminder scan failed", zap.Error(err))
		return
	}
	for _, b := range due {
		payload := queue.NotificationPayload{
			Event:          models.EventBookingReminder,
			BookingID:      b.ID,
			RecipientEmail: b.Email,
			Subject:        "Upcoming session reminder",
			BodyHTML: fmt.Sprintf("<p>Hi %s,</p><p>Your session with %s is coming up (%s–%s).</p>",
				b.FullName, b.ProviderName, b.TimingFrom, b.TimingTo),
		}
		if err := p.queue.EnqueueNotification(ctx, payload); err != nil {
			p.logger.Warn("reminder enqueue failed", zap.Error(err), zap.String("booking_id", b.ID.String()))
			continue
		}
		if err := p.bookings.MarkReminderSent(ctx, b.ID); err != nil {
			p.logger.Warn("mark reminder failed", zap.Error(err), zap.String("booking_id", b.ID.String()))
		}
	}
}
