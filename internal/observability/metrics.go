package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelgo_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelgo_bookings_total",
			Help: "Confirmed bookings by category",
		},
		[]string{"type"},
	)

	SeatConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelgo_seat_conflicts_total",
			Help: "Reservations rejected because a requested seat was taken",
		},
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelgo_store_op_seconds",
			Help:    "Duration of booking store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	NotifyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelgo_notify_failures_total",
			Help: "Notification publishes that failed and were swallowed",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelgo_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
