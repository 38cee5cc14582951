package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"gettogether/internal/models"
	"gettogether/monitoring"
)

// ExpiryService flips tickets of past events to expired. It runs inline when
// a user lists their bookings and as a whole-system batch pass. Two sweeps
// racing on the same booking are harmless: active->expired is a no-op the
// second time and only the checked-at timestamp gets overwritten.
type ExpiryService struct {
	app core.App
	now func() time.Time
}

func NewExpiryService(app core.App) *ExpiryService {
	return &ExpiryService{
		app: app,
		now: time.Now,
	}
}

// SweepRecord expires a single booking's tickets when its event is past.
// Returns true when the record was updated.
func (s *ExpiryService) SweepRecord(ctx context.Context, record *core.Record) (bool, error) {
	booking, normalized, err := models.BookingFromRecord(record)
	if err != nil {
		return false, err
	}

	changed := normalized

	if !booking.IsExpired &&
		(booking.Status == models.BookingStatusPending || booking.Status == models.BookingStatusConfirmed) {
		eventRecord, err := s.app.FindRecordById(models.CollectionEvents, booking.EventID)
		if err == nil {
			event := models.EventFromRecord(eventRecord)
			if event.Past(s.now()) {
				flipped := booking.ExpireTickets(s.now())
				monitoring.TrackTicketsExpired(flipped)
				changed = true
			}
		}
	}

	if !changed {
		return false, nil
	}

	if err := booking.ApplyTo(record); err != nil {
		return false, err
	}
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}

// SweepAll runs the batch pass over every candidate booking and reports how
// many were updated.
func (s *ExpiryService) SweepAll(ctx context.Context) (int, error) {
	var ids []string
	err := s.app.DB().NewQuery(`
		SELECT b.id
		FROM bookings b
		JOIN events e ON e.id = b.event
		WHERE b.status IN ('pending', 'confirmed')
		  AND b.is_expired = 0
		  AND e.date < {:now}
	`).Bind(dbx.Params{
		"now": s.now().UTC().Format("2006-01-02 15:04:05.000Z"),
	}).Column(&ids)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		record, err := s.app.FindRecordById(models.CollectionBookings, id)
		if err != nil {
			slog.Error("expiry: booking lookup failed during sweep", "booking", id, "error", err)
			continue
		}
		changed, err := s.SweepRecord(ctx, record)
		if err != nil {
			slog.Error("expiry: sweep failed for booking", "booking", id, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}

	monitoring.TrackSweepRun(updated)
	return updated, nil
}
