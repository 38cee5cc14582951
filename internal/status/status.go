package status

import "errors"

var (
	// Booking creation / lookup.
	ErrEventNotFound     = errors.New("booking: event not found")
	ErrBookingNotFound   = errors.New("booking: booking not found")
	ErrBookingClosed     = errors.New("booking: booking window for this event has closed")
	ErrNotEnoughTickets  = errors.New("booking: not enough tickets available")
	ErrAttendeeMismatch  = errors.New("booking: attendee details must match ticket quantity")
	ErrInvalidQuantity   = errors.New("booking: quantity must be at least 1")
	ErrInvalidPhone      = errors.New("booking: invalid attendee phone number")
	ErrInvalidAttendee   = errors.New("booking: attendee name and email are required")
	ErrNotBookingOwner   = errors.New("booking: booking belongs to another user")
	ErrNotEventOrganizer = errors.New("booking: event belongs to another organizer")
	ErrBookingNotPending = errors.New("booking: only pending bookings can be cancelled whole")

	// Payment bridge.
	ErrAlreadyConfirmed  = errors.New("payment: booking already confirmed")
	ErrSignatureMismatch = errors.New("payment: signature verification failed")
	ErrOrderMismatch     = errors.New("payment: order does not belong to booking")
	ErrGatewayFailure    = errors.New("payment: gateway request failed")

	// Ticket lifecycle.
	ErrTicketNotFound         = errors.New("ticket: ticket not found in booking")
	ErrTicketAlreadyCancelled = errors.New("ticket: ticket is already cancelled")
	ErrTicketExpired          = errors.New("ticket: ticket has expired")
	ErrTicketNotActive        = errors.New("ticket: ticket is not active")
	ErrReasonRequired         = errors.New("ticket: cancellation reason is required")
	ErrCancelledNotVerifiable = errors.New("ticket: cancelled tickets cannot be verified")
	ErrInvalidVerifyStatus    = errors.New("ticket: verification status must be approved or denied")

	// Admin OTP.
	ErrOTPNotFound = errors.New("otp: code not found or expired")
	ErrOTPMismatch = errors.New("otp: code does not match")
)
