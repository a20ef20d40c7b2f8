package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/believe-consult/backend/internal/models"
)

// Repository handles provider directory persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a provider repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a provider by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	const q = `SELECT id, full_name, email, role, specialty, bio, is_active, created_at, updated_at
		FROM providers WHERE id = $1`
	var p models.Provider
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.FullName, &p.Email, &p.Role, &p.Specialty, &p.Bio, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a provider.
func (r *Repository) Create(ctx context.Context, p *models.Provider) error {
	const q = `INSERT INTO providers (id, full_name, email, role, specialty, bio, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.FullName, p.Email, p.Role, p.Specialty, p.Bio, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// List returns active providers, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Provider, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, full_name, email, role, specialty, bio, is_active, created_at, updated_at
		FROM providers WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Provider
	for rows.Next() {
		var p models.Provider
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Role, &p.Specialty, &p.Bio, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
