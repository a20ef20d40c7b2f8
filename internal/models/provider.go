package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a directory entry for an expert or moderator who takes bookings.
type Provider struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Specialty string    `json:"specialty,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
