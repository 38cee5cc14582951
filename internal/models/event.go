package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event statuses.
const (
	EventStatusPublish   = "publish"
	EventStatusUnpublish = "unpublish"
)

// Event is the read-side view of an events record used by the booking core.
// Inventory mutations go straight to the record (see record.go); the range
// 0 <= AvailableTickets <= TotalTickets is not enforced atomically.
type Event struct {
	ID               string
	Name             string
	Location         string
	Date             time.Time
	BookingExpiry    time.Time
	Price            decimal.Decimal
	TotalTickets     int
	AvailableTickets int
	OrganizerID      string
	Status           string
}

// BookingOpen reports whether new bookings are still accepted.
func (e *Event) BookingOpen(now time.Time) bool {
	return !now.After(e.BookingExpiry)
}

// Past reports whether the event's occurrence time has passed.
func (e *Event) Past(now time.Time) bool {
	return e.Date.Before(now)
}
