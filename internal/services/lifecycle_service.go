package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"gettogether/internal/models"
	"gettogether/internal/status"
	"gettogether/monitoring"
)

// Actor roles for the two cancellation entry points.
const (
	ActorUser      = "user"
	ActorOrganizer = "organizer"
)

// LifecycleService owns the per-ticket state machine: cancellation with
// refund bookkeeping and inventory return, and entry-gate verification.
type LifecycleService struct {
	app      recordStore
	notifier BookingNotifier
	now      func() time.Time
}

func NewLifecycleService(app core.App, notifier BookingNotifier) *LifecycleService {
	return &LifecycleService{
		app:      app,
		notifier: notifier,
		now:      time.Now,
	}
}

type CancelTicketParams struct {
	BookingID    string
	TicketNumber string
	Reason       string
	ActorID      string
	ActorRole    string
}

// CancelTicket transitions one active ticket to cancelled, stamps the refund
// bookkeeping, returns one unit to the event inventory and, when it was the
// last active ticket, cancels the booking. Organizers must give a reason and
// must own the event; attendees must own the booking and get a default
// reason. The booking save and the inventory save are two separate writes;
// an inventory failure is logged for reconciliation, not rolled back.
func (s *LifecycleService) CancelTicket(ctx context.Context, params CancelTicketParams) (*models.TicketDetail, *models.Booking, error) {
	booking, record, err := s.loadBooking(ctx, params.BookingID)
	if err != nil {
		return nil, nil, err
	}

	eventRecord, err := s.app.FindRecordById(models.CollectionEvents, booking.EventID)
	if err != nil {
		return nil, nil, status.ErrEventNotFound
	}
	event := models.EventFromRecord(eventRecord)

	switch params.ActorRole {
	case ActorOrganizer:
		if event.OrganizerID != params.ActorID {
			return nil, nil, status.ErrNotEventOrganizer
		}
		if params.Reason == "" {
			return nil, nil, status.ErrReasonRequired
		}
	case ActorUser:
		if booking.UserID != params.ActorID {
			return nil, nil, status.ErrNotBookingOwner
		}
	default:
		return nil, nil, status.ErrNotBookingOwner
	}

	ticket, err := booking.CancelTicket(params.TicketNumber, params.Reason, s.now())
	if err != nil {
		return nil, nil, err
	}

	if err := booking.ApplyTo(record); err != nil {
		return nil, nil, err
	}
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, nil, err
	}

	// One ticket back to inventory.
	eventRecord.Set("available_tickets", eventRecord.GetInt("available_tickets")+1)
	if err := s.app.SaveWithContext(ctx, eventRecord); err != nil {
		slog.Error("lifecycle: inventory return failed, reconcile manually",
			"booking", booking.Ref, "ticket", params.TicketNumber, "error", err)
	}

	monitoring.TrackTicketCancelled(params.ActorRole)

	go s.notifier.TicketCancelled(booking, event, ticket,
		s.recordEmail(models.CollectionUsers, booking.UserID),
		s.recordEmail(models.CollectionUsers, event.OrganizerID),
	)

	return ticket, booking, nil
}

type VerifyTicketParams struct {
	BookingID    string
	TicketNumber string
	Outcome      string
	OrganizerID  string
}

// VerifyTicket records an entry-gate decision. Re-verifying a ticket returns
// the original record without mutation.
func (s *LifecycleService) VerifyTicket(ctx context.Context, params VerifyTicketParams) (*models.VerifiedTicket, bool, error) {
	booking, record, err := s.loadBooking(ctx, params.BookingID)
	if err != nil {
		return nil, false, err
	}

	eventRecord, err := s.app.FindRecordById(models.CollectionEvents, booking.EventID)
	if err != nil {
		return nil, false, status.ErrEventNotFound
	}
	if eventRecord.GetString("organizer") != params.OrganizerID {
		return nil, false, status.ErrNotEventOrganizer
	}

	verification, created, err := booking.VerifyTicket(params.TicketNumber, params.Outcome, params.OrganizerID, s.now())
	if err != nil {
		return nil, false, err
	}

	if created {
		if err := booking.ApplyTo(record); err != nil {
			return nil, false, err
		}
		if err := s.app.SaveWithContext(ctx, record); err != nil {
			return nil, false, err
		}
	}

	return verification, created, nil
}

// TicketStatus resolves a ticket number to its booking and sub-record.
func (s *LifecycleService) TicketStatus(ctx context.Context, ticketNumber string) (*models.Booking, *models.TicketDetail, error) {
	// Ticket numbers live inside a JSON array column, so the lookup goes
	// through a LIKE match on the serialized value.
	var ids []string
	err := s.app.DB().NewQuery(
		"SELECT id FROM bookings WHERE ticket_numbers LIKE {:pattern} LIMIT 1",
	).Bind(dbx.Params{
		"pattern": `%"` + ticketNumber + `"%`,
	}).Column(&ids)
	if err != nil || len(ids) == 0 {
		return nil, nil, status.ErrTicketNotFound
	}

	booking, _, err := s.loadBooking(ctx, ids[0])
	if err != nil {
		return nil, nil, err
	}

	ticket, ok := booking.Ticket(ticketNumber)
	if !ok {
		return nil, nil, status.ErrTicketNotFound
	}
	return booking, ticket, nil
}

// loadBooking hydrates the aggregate and persists the lazy ticket-details
// migration when the load normalized an older record.
func (s *LifecycleService) loadBooking(ctx context.Context, bookingID string) (*models.Booking, *core.Record, error) {
	record, err := s.app.FindRecordById(models.CollectionBookings, bookingID)
	if err != nil {
		return nil, nil, status.ErrBookingNotFound
	}

	booking, normalized, err := models.BookingFromRecord(record)
	if err != nil {
		return nil, nil, err
	}
	if normalized {
		if err := booking.ApplyTo(record); err != nil {
			return nil, nil, err
		}
		if err := s.app.SaveWithContext(ctx, record); err != nil {
			return nil, nil, err
		}
	}
	return booking, record, nil
}

func (s *LifecycleService) recordEmail(collection, id string) string {
	record, err := s.app.FindRecordById(collection, id)
	if err != nil {
		return ""
	}
	return record.GetString("email")
}
