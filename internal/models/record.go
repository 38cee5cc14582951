package models

import (
	"encoding/json"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"
)

// Collection names.
const (
	CollectionEvents   = "events"
	CollectionBookings = "bookings"
	CollectionPayouts  = "payouts"
	CollectionUsers    = "users"
	CollectionAdmins   = "admins"
)

// BookingFromRecord hydrates the aggregate from a bookings record and runs
// the normalize-on-load step so TicketDetails is always populated downstream.
// The returned bool reports whether normalization mutated the booking and the
// record should be written back.
func BookingFromRecord(record *core.Record) (*Booking, bool, error) {
	b := &Booking{
		ID:                record.Id,
		Ref:               record.GetString("booking_id"),
		UserID:            record.GetString("user"),
		EventID:           record.GetString("event"),
		Quantity:          record.GetInt("quantity"),
		TotalPrice:        decimal.NewFromFloat(record.GetFloat("total_price")),
		Status:            record.GetString("status"),
		PaymentStatus:     record.GetString("payment_status"),
		RazorpayOrderID:   record.GetString("razorpay_order_id"),
		RazorpayPaymentID: record.GetString("razorpay_payment_id"),
		RazorpaySignature: record.GetString("razorpay_signature"),
		IsExpired:         record.GetBool("is_expired"),
	}

	if err := record.UnmarshalJSONField("attendee_details", &b.AttendeeDetails); err != nil {
		return nil, false, err
	}
	if err := record.UnmarshalJSONField("ticket_numbers", &b.TicketNumbers); err != nil {
		return nil, false, err
	}
	if err := record.UnmarshalJSONField("ticket_details", &b.TicketDetails); err != nil {
		return nil, false, err
	}
	if err := record.UnmarshalJSONField("cancelled_tickets", &b.CancelledTickets); err != nil {
		return nil, false, err
	}
	if err := record.UnmarshalJSONField("verified_tickets", &b.VerifiedTickets); err != nil {
		return nil, false, err
	}

	if dt := record.GetDateTime("expiry_checked_at"); !dt.IsZero() {
		t := dt.Time()
		b.ExpiryCheckedAt = &t
	}

	normalized := b.Normalize()
	return b, normalized, nil
}

// ApplyTo writes the aggregate back onto a bookings record.
func (b *Booking) ApplyTo(record *core.Record) error {
	record.Set("booking_id", b.Ref)
	record.Set("user", b.UserID)
	record.Set("event", b.EventID)
	record.Set("quantity", b.Quantity)
	record.Set("total_price", b.TotalPrice.InexactFloat64())
	record.Set("status", b.Status)
	record.Set("payment_status", b.PaymentStatus)
	record.Set("razorpay_order_id", b.RazorpayOrderID)
	record.Set("razorpay_payment_id", b.RazorpayPaymentID)
	record.Set("razorpay_signature", b.RazorpaySignature)
	record.Set("is_expired", b.IsExpired)

	if b.ExpiryCheckedAt != nil {
		record.Set("expiry_checked_at", *b.ExpiryCheckedAt)
	}

	for field, value := range map[string]any{
		"attendee_details": b.AttendeeDetails,
		"ticket_numbers":   b.TicketNumbers,
		"ticket_details":   b.TicketDetails,
		"cancelled_tickets": func() any {
			if b.CancelledTickets == nil {
				return []string{}
			}
			return b.CancelledTickets
		}(),
		"verified_tickets": b.VerifiedTickets,
	} {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		record.Set(field, types.JSONRaw(raw))
	}

	return nil
}

// EventFromRecord hydrates the read-side event view.
func EventFromRecord(record *core.Record) *Event {
	return &Event{
		ID:               record.Id,
		Name:             record.GetString("name"),
		Location:         record.GetString("location"),
		Date:             record.GetDateTime("date").Time(),
		BookingExpiry:    record.GetDateTime("booking_expiry").Time(),
		Price:            decimal.NewFromFloat(record.GetFloat("price")),
		TotalTickets:     record.GetInt("total_tickets"),
		AvailableTickets: record.GetInt("available_tickets"),
		OrganizerID:      record.GetString("organizer"),
		Status:           record.GetString("status"),
	}
}

// Response shapes the booking for API replies.
func (b *Booking) Response() map[string]any {
	resp := map[string]any{
		"_id":              b.ID,
		"bookingId":        b.Ref,
		"eventId":          b.EventID,
		"quantity":         b.Quantity,
		"totalPrice":       b.TotalPrice,
		"status":           b.Status,
		"paymentStatus":    b.PaymentStatus,
		"razorpayOrderId":  b.RazorpayOrderID,
		"ticketNumbers":    b.TicketNumbers,
		"ticketDetails":    b.TicketDetails,
		"cancelledTickets": b.CancelledTickets,
		"verifiedTickets":  b.VerifiedTickets,
		"isExpired":        b.IsExpired,
	}
	if b.ExpiryCheckedAt != nil {
		resp["expiryCheckedAt"] = b.ExpiryCheckedAt.Format(time.RFC3339)
	}
	return resp
}
