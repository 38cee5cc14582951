package models

import (
	"time"

	"github.com/shopspring/decimal"

	"gettogether/internal/status"
)

func init() {
	// Money travels as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Booking level statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Per-ticket lifecycle statuses. Expired and cancelled are terminal.
const (
	TicketStatusActive    = "active"
	TicketStatusExpired   = "expired"
	TicketStatusCancelled = "cancelled"
)

// Refund statuses.
const (
	RefundNotInitiated = "not_initiated"
	RefundPending      = "pending"
	RefundCompleted    = "completed"
)

// Entry-gate verification outcomes.
const (
	VerifyApproved = "approved"
	VerifyDenied   = "denied"
)

// DefaultCancellationReason is used when an attendee cancels without giving one.
const DefaultCancellationReason = "Cancelled by attendee"

type AttendeeDetail struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type TicketDetail struct {
	TicketNumber       string          `json:"ticketNumber"`
	AttendeeName       string          `json:"attendeeName"`
	AttendeeEmail      string          `json:"attendeeEmail"`
	AttendeePhone      string          `json:"attendeePhone"`
	Status             string          `json:"status"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	RefundStatus       string          `json:"refundStatus"`
	RefundAmount       decimal.Decimal `json:"refundAmount"`
}

type VerifiedTicket struct {
	TicketNumber string    `json:"ticketNumber"`
	VerifiedAt   time.Time `json:"verifiedAt"`
	VerifiedBy   string    `json:"verifiedBy"`
	Status       string    `json:"status"`
}

// Booking is the aggregate root for one purchase attempt. All lifecycle
// transitions go through its methods; persistence lives in record.go.
type Booking struct {
	ID         string
	Ref        string
	UserID     string
	EventID    string
	Quantity   int
	TotalPrice decimal.Decimal

	AttendeeDetails []AttendeeDetail

	Status        string
	PaymentStatus string

	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string

	TicketNumbers []string
	TicketDetails []TicketDetail

	// CancelledTickets is a derived projection of the cancelled subset of
	// TicketDetails, kept for backward compatibility with older readers.
	CancelledTickets []string

	VerifiedTickets []VerifiedTicket

	IsExpired       bool
	ExpiryCheckedAt *time.Time
}

// NewBooking builds a pending booking with the price snapshotted from the
// event at creation time.
func NewBooking(ref, userID, eventID string, quantity int, unitPrice decimal.Decimal, attendees []AttendeeDetail) *Booking {
	return &Booking{
		Ref:             ref,
		UserID:          userID,
		EventID:         eventID,
		Quantity:        quantity,
		TotalPrice:      unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		AttendeeDetails: attendees,
		Status:          BookingStatusPending,
		PaymentStatus:   PaymentStatusPending,
	}
}

// Normalize materializes TicketDetails from AttendeeDetails and TicketNumbers
// when the booking predates the per-ticket sub-records. It runs once per load
// so every later step can rely on TicketDetails being populated. Returns true
// when the booking was mutated and needs saving.
func (b *Booking) Normalize() bool {
	if len(b.TicketDetails) > 0 || len(b.TicketNumbers) == 0 {
		return false
	}

	b.TicketDetails = make([]TicketDetail, 0, len(b.TicketNumbers))
	for i, tn := range b.TicketNumbers {
		td := TicketDetail{
			TicketNumber: tn,
			Status:       TicketStatusActive,
			RefundStatus: RefundNotInitiated,
		}
		if i < len(b.AttendeeDetails) {
			td.AttendeeName = b.AttendeeDetails[i].Name
			td.AttendeeEmail = b.AttendeeDetails[i].Email
			td.AttendeePhone = b.AttendeeDetails[i].Phone
		}
		// Older records tracked cancellation only in the legacy list.
		for _, cancelled := range b.CancelledTickets {
			if cancelled == tn {
				td.Status = TicketStatusCancelled
			}
		}
		b.TicketDetails = append(b.TicketDetails, td)
	}
	b.syncCancelledTickets()
	return true
}

// Confirm applies the payment-verified transition: the booking becomes
// confirmed, the payment linkage is stored and the freshly minted ticket
// numbers are attached. An already confirmed booking is left untouched.
func (b *Booking) Confirm(paymentID, signature string, ticketNumbers []string) error {
	if b.Status == BookingStatusConfirmed {
		return status.ErrAlreadyConfirmed
	}
	// A booking cancelled before payment stays cancelled; a late signed
	// callback must not resurrect it.
	if b.Status == BookingStatusCancelled {
		return status.ErrBookingNotPending
	}

	b.Status = BookingStatusConfirmed
	b.PaymentStatus = PaymentStatusCompleted
	b.RazorpayPaymentID = paymentID
	b.RazorpaySignature = signature
	b.TicketNumbers = ticketNumbers

	b.TicketDetails = make([]TicketDetail, 0, len(ticketNumbers))
	for i, tn := range ticketNumbers {
		td := TicketDetail{
			TicketNumber: tn,
			Status:       TicketStatusActive,
			RefundStatus: RefundNotInitiated,
		}
		if i < len(b.AttendeeDetails) {
			td.AttendeeName = b.AttendeeDetails[i].Name
			td.AttendeeEmail = b.AttendeeDetails[i].Email
			td.AttendeePhone = b.AttendeeDetails[i].Phone
		}
		b.TicketDetails = append(b.TicketDetails, td)
	}
	b.CancelledTickets = nil
	return nil
}

// RefundPerTicket is the even split of the snapshotted total across the
// booking's tickets, rounded to two decimal places.
func (b *Booking) RefundPerTicket() decimal.Decimal {
	if b.Quantity == 0 {
		return decimal.Zero
	}
	return b.TotalPrice.Div(decimal.NewFromInt(int64(b.Quantity))).Round(2)
}

// Ticket returns the sub-record for the given ticket number.
func (b *Booking) Ticket(ticketNumber string) (*TicketDetail, bool) {
	for i := range b.TicketDetails {
		if b.TicketDetails[i].TicketNumber == ticketNumber {
			return &b.TicketDetails[i], true
		}
	}
	return nil, false
}

// HasTicketNumber reports whether the number was minted for this booking.
func (b *Booking) HasTicketNumber(ticketNumber string) bool {
	for _, tn := range b.TicketNumbers {
		if tn == ticketNumber {
			return true
		}
	}
	return false
}

// CancelTicket transitions a single active ticket to cancelled, stamps the
// refund bookkeeping and, when it was the last active ticket, cancels the
// whole booking. Cancelled and expired tickets are rejected uniformly.
func (b *Booking) CancelTicket(ticketNumber, reason string, now time.Time) (*TicketDetail, error) {
	td, ok := b.Ticket(ticketNumber)
	if !ok {
		return nil, status.ErrTicketNotFound
	}

	switch td.Status {
	case TicketStatusCancelled:
		return nil, status.ErrTicketAlreadyCancelled
	case TicketStatusExpired:
		return nil, status.ErrTicketExpired
	case TicketStatusActive:
	default:
		return nil, status.ErrTicketNotActive
	}

	if reason == "" {
		reason = DefaultCancellationReason
	}

	td.Status = TicketStatusCancelled
	td.CancelledAt = &now
	td.CancellationReason = reason
	td.RefundStatus = RefundPending
	td.RefundAmount = b.RefundPerTicket()

	b.syncCancelledTickets()

	if b.AllCancelled() {
		b.Status = BookingStatusCancelled
	}

	return td, nil
}

// AllCancelled reports whether every ticket sub-record is cancelled.
func (b *Booking) AllCancelled() bool {
	if len(b.TicketDetails) == 0 {
		return false
	}
	for _, td := range b.TicketDetails {
		if td.Status != TicketStatusCancelled {
			return false
		}
	}
	return true
}

// Verification returns the recorded check-in entry for a ticket number.
func (b *Booking) Verification(ticketNumber string) (*VerifiedTicket, bool) {
	for i := range b.VerifiedTickets {
		if b.VerifiedTickets[i].TicketNumber == ticketNumber {
			return &b.VerifiedTickets[i], true
		}
	}
	return nil, false
}

// VerifyTicket records an entry-gate decision for a ticket. A second call
// for the same ticket returns the original entry unchanged. Cancelled
// tickets are not verifiable.
func (b *Booking) VerifyTicket(ticketNumber, outcome, verifiedBy string, now time.Time) (*VerifiedTicket, bool, error) {
	if outcome != VerifyApproved && outcome != VerifyDenied {
		return nil, false, status.ErrInvalidVerifyStatus
	}
	if !b.HasTicketNumber(ticketNumber) {
		return nil, false, status.ErrTicketNotFound
	}

	if existing, ok := b.Verification(ticketNumber); ok {
		return existing, false, nil
	}

	if td, ok := b.Ticket(ticketNumber); ok && td.Status == TicketStatusCancelled {
		return nil, false, status.ErrCancelledNotVerifiable
	}

	b.VerifiedTickets = append(b.VerifiedTickets, VerifiedTicket{
		TicketNumber: ticketNumber,
		VerifiedAt:   now,
		VerifiedBy:   verifiedBy,
		Status:       outcome,
	})
	return &b.VerifiedTickets[len(b.VerifiedTickets)-1], true, nil
}

// ExpireTickets transitions every active ticket to expired and stamps the
// sweep bookkeeping. Cancelled tickets are left untouched. Returns the number
// of tickets flipped on this pass.
func (b *Booking) ExpireTickets(now time.Time) int {
	flipped := 0
	for i := range b.TicketDetails {
		if b.TicketDetails[i].Status == TicketStatusActive {
			b.TicketDetails[i].Status = TicketStatusExpired
			flipped++
		}
	}
	b.IsExpired = true
	b.ExpiryCheckedAt = &now
	return flipped
}

// AccessibleBy reports whether a user may read this booking and its ticket
// details. Only the buyer and the event organizer can; attendee contact data
// is not visible to anyone else.
func (b *Booking) AccessibleBy(userID, organizerID string) bool {
	if userID == "" {
		return false
	}
	return b.UserID == userID || (organizerID != "" && organizerID == userID)
}

// CancelWhole cancels a still-pending booking before confirmation.
func (b *Booking) CancelWhole() error {
	if b.Status != BookingStatusPending {
		return status.ErrBookingNotPending
	}
	b.Status = BookingStatusCancelled
	return nil
}

func (b *Booking) syncCancelledTickets() {
	b.CancelledTickets = b.CancelledTickets[:0]
	for _, td := range b.TicketDetails {
		if td.Status == TicketStatusCancelled {
			b.CancelledTickets = append(b.CancelledTickets, td.TicketNumber)
		}
	}
}
