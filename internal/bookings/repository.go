package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/believe-consult/backend/internal/models"
)

const bookingColumns = `id, full_name, email, age, issue, timing_from, timing_to, meeting_date,
	provider_id, provider_name, status, meeting_ref, notes, reminder_sent, allowed_emails,
	created_at, updated_at`

// Repository is the PostgreSQL booking store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a booking repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new booking.
func (r *Repository) Create(ctx context.Context, b *models.Booking) error {
	const q = `INSERT INTO bookings (id, full_name, email, age, issue, timing_from, timing_to, meeting_date,
			provider_id, provider_name, status, allowed_emails)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		b.FullName, b.Email, b.Age, b.Issue, b.TimingFrom, b.TimingTo, b.MeetingDate,
		b.ProviderID, b.ProviderName, b.Status, b.AllowedEmails,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a booking by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update applies field-level last-write-wins changes and returns the
// resulting row, or nil when the booking is gone. Allow-list additions
// are appended and de-duplicated, never removed.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, f UpdateFields) (*models.Booking, error) {
	const q = `UPDATE bookings SET
			status = COALESCE($1, status),
			meeting_ref = COALESCE($2, meeting_ref),
			notes = COALESCE($3, notes),
			allowed_emails = ARRAY(SELECT DISTINCT e FROM unnest(allowed_emails || $4::text[]) AS e),
			updated_at = NOW()
		WHERE id = $5
		RETURNING ` + bookingColumns
	add := f.AddAllowedEmails
	if add == nil {
		add = []string{}
	}
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	row := r.pool.QueryRow(ctx, q, status, f.MeetingRef, f.Notes, add, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// List returns bookings matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	var args []interface{}
	var conds []string
	if f.Email != "" {
		args = append(args, f.Email)
		conds = append(conds, fmt.Sprintf("email = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ProviderID != uuid.Nil {
		args = append(args, f.ProviderID)
		conds = append(conds, fmt.Sprintf("provider_id = $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// DueForReminder returns accepted bookings whose meeting date falls
// within the window and that were not reminded yet.
func (r *Repository) DueForReminder(ctx context.Context, within time.Duration) ([]models.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = 'accepted' AND NOT reminder_sent
		AND meeting_date IS NOT NULL AND meeting_date BETWEEN NOW() AND $1`
	rows, err := r.pool.Query(ctx, q, time.Now().Add(within))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// MarkReminderSent flags a booking as reminded.
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE bookings SET reminder_sent = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.FullName, &b.Email, &b.Age, &b.Issue, &b.TimingFrom, &b.TimingTo, &b.MeetingDate,
		&b.ProviderID, &b.ProviderName, &b.Status, &b.MeetingRef, &b.Notes, &b.ReminderSent, &b.AllowedEmails,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
