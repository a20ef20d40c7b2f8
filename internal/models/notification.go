package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification events.
const (
	EventBookingReceived  = "booking_received"
	EventBookingUpdated   = "booking_updated"
	EventBookingCancelled = "booking_cancelled"
	EventBookingReminder  = "booking_reminder"
	EventOTP              = "otp"
)

// Notification delivery status.
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// NotificationLog records an out-of-band message dispatched by the worker.
type NotificationLog struct {
	ID             uuid.UUID  `json:"id"`
	BookingID      *uuid.UUID `json:"booking_id,omitempty"`
	Event          string     `json:"event"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
