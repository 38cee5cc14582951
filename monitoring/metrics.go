package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created per event",
		},
		[]string{"event_id"},
	)

	bookingsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_confirmed_total",
			Help: "Bookings confirmed per event",
		},
		[]string{"event_id"},
	)

	ticketsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_confirmed_total",
			Help: "Tickets issued on confirmed bookings",
		},
	)

	paymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment verification calls by outcome",
		},
		[]string{"outcome"},
	)

	ticketsCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_cancelled_total",
			Help: "Per-ticket cancellations by initiator",
		},
		[]string{"initiator"},
	)

	ticketsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_expired_total",
			Help: "Tickets flipped to expired by sweeps",
		},
	)

	sweepBookingsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_sweep_bookings_updated_total",
			Help: "Bookings updated by expiry sweeps",
		},
	)

	pendingPaymentSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_payment_sessions_total",
			Help: "Payment sessions currently cached in Redis",
		},
	)
)

// Track booking creation
func TrackBookingCreated(eventID string) {
	bookingsCreated.WithLabelValues(eventID).Inc()
}

// Track booking confirmation
func TrackBookingConfirmed(eventID string, quantity int) {
	bookingsConfirmed.WithLabelValues(eventID).Inc()
	ticketsConfirmed.Add(float64(quantity))
}

// Track payment verification outcome
func TrackPaymentVerification(outcome string) {
	paymentVerifications.WithLabelValues(outcome).Inc()
}

// Track ticket cancellation
func TrackTicketCancelled(initiator string) {
	ticketsCancelled.WithLabelValues(initiator).Inc()
}

// Track sweep results
func TrackTicketsExpired(count int) {
	ticketsExpired.Add(float64(count))
}

func TrackSweepRun(updated int) {
	sweepBookingsUpdated.Add(float64(updated))
}

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		m.collectPaymentSessionMetrics(ctx)
	}
}

func (m *Monitor) collectPaymentSessionMetrics(ctx context.Context) {
	keys, _ := m.redis.Keys(ctx, "payment:*").Result()
	pendingPaymentSessions.Set(float64(len(keys)))
}
