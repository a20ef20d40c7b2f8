package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusRejected  BookingStatus = "rejected"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a transition from s to next is allowed.
// pending -> accepted|rejected|cancelled; accepted -> completed|cancelled.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected || next == StatusCancelled
	case StatusAccepted:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Booking represents one requested or confirmed consultation.
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	FullName      string        `json:"full_name"`
	Email         string        `json:"email"`
	Age           int           `json:"age"`
	Issue         string        `json:"issue"`
	TimingFrom    string        `json:"timing_from"`
	TimingTo      string        `json:"timing_to"`
	MeetingDate   *time.Time    `json:"meeting_date,omitempty"`
	ProviderID    uuid.UUID     `json:"provider_id"`
	ProviderName  string        `json:"provider_name"` // captured at creation, never re-resolved
	Status        BookingStatus `json:"status"`
	MeetingRef    string        `json:"meeting_ref,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	ReminderSent  bool          `json:"reminder_sent"`
	AllowedEmails []string      `json:"allowed_emails"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Allows reports whether email is on the booking's participant allow-list.
func (b *Booking) Allows(email string) bool {
	for _, e := range b.AllowedEmails {
		if e == email {
			return true
		}
	}
	return false
}
