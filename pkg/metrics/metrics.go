// Package metrics exposes Prometheus counters for the booking core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingsCreated counts successfully created bookings.
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consult_bookings_created_total",
		Help: "Number of bookings created.",
	})

	// BookingTransitions counts status transitions by target status.
	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consult_booking_transitions_total",
		Help: "Number of booking status transitions.",
	}, []string{"status"})

	// PairTokensIssued counts issued session join credentials.
	PairTokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consult_pair_tokens_issued_total",
		Help: "Number of session join credentials issued.",
	})

	// PairTokenDenied counts denied join attempts.
	PairTokenDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consult_pair_tokens_denied_total",
		Help: "Number of denied session join attempts.",
	})

	// NotificationsSent counts dispatched notifications by outcome.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consult_notifications_total",
		Help: "Number of notification deliveries by outcome.",
	}, []string{"outcome"})
)
