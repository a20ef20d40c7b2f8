package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/believe-consult/backend/internal/models"
)

// Repository persists notification delivery logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notification log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending notification log.
func (r *Repository) Create(ctx context.Context, n *models.NotificationLog) error {
	const q = `INSERT INTO notification_logs (id, booking_id, event, recipient_email, subject, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, n.BookingID, n.Event, n.RecipientEmail, n.Subject, n.Status).
		Scan(&n.ID, &n.CreatedAt)
}

// MarkSent records successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE notification_logs SET status = $1, sent_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, models.NotificationStatusSent, id)
	return err
}

// MarkFailed records a delivery failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `UPDATE notification_logs SET status = $1, error_message = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, models.NotificationStatusFailed, errMsg, id)
	return err
}

// ListByBooking returns delivery logs for a booking, newest first.
func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.NotificationLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, booking_id, event, recipient_email, subject, status, sent_at, error_message, created_at
		FROM notification_logs WHERE booking_id = $1 ORDER BY created_at DESC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.NotificationLog
	for rows.Next() {
		var n models.NotificationLog
		if err := rows.Scan(&n.ID, &n.BookingID, &n.Event, &n.RecipientEmail, &n.Subject, &n.Status, &n.SentAt, &n.ErrorMessage, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
