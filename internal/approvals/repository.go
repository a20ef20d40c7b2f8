package approvals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/believe-consult/backend/internal/models"
)

// Repository persists pending-approval records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an approvals repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending approval.
func (r *Repository) Create(ctx context.Context, a *models.Approval) error {
	const q = `INSERT INTO approvals (id, email, purpose, code_hash, expires_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, a.Email, a.Purpose, a.CodeHash, a.ExpiresAt).
		Scan(&a.ID, &a.CreatedAt)
}

// GetLatest returns the most recent approval for email+purpose, or nil.
func (r *Repository) GetLatest(ctx context.Context, email, purpose string) (*models.Approval, error) {
	const q = `SELECT id, email, purpose, code_hash, expires_at, redeemed_at, created_at
		FROM approvals WHERE email = $1 AND purpose = $2
		ORDER BY created_at DESC LIMIT 1`
	var a models.Approval
	err := r.pool.QueryRow(ctx, q, email, purpose).
		Scan(&a.ID, &a.Email, &a.Purpose, &a.CodeHash, &a.ExpiresAt, &a.RedeemedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Redeem marks the approval redeemed. The conditional UPDATE makes
// redemption single-shot even under concurrent requests; returns false
// when the record was already redeemed or expired.
func (r *Repository) Redeem(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE approvals SET redeemed_at = NOW()
		WHERE id = $1 AND redeemed_at IS NULL AND expires_at > NOW()`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteExpired removes approvals whose expiry passed more than a day ago.
func (r *Repository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM approvals WHERE expires_at < NOW() - INTERVAL '1 day'`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
