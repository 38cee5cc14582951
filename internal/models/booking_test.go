package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gettogether/internal/status"
)

func confirmedBooking(t *testing.T, quantity int, unitPrice int64) *Booking {
	t.Helper()

	attendees := make([]AttendeeDetail, 0, quantity)
	numbers := make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		attendees = append(attendees, AttendeeDetail{
			Name:  "Attendee " + string(rune('A'+i)),
			Email: "attendee@example.com",
			Phone: "+919876543210",
		})
		numbers = append(numbers, "TKT-TEST-"+string(rune('A'+i)))
	}

	b := NewBooking("GT-TEST-01", "user1", "event1", quantity, decimal.NewFromInt(unitPrice), attendees)
	require.NoError(t, b.Confirm("pay_1", "sig_1", numbers))
	return b
}

func TestNewBooking_SnapshotsPrice(t *testing.T) {
	b := NewBooking("GT-1", "u", "e", 2, decimal.NewFromInt(500), []AttendeeDetail{{}, {}})

	assert.Equal(t, BookingStatusPending, b.Status)
	assert.Equal(t, PaymentStatusPending, b.PaymentStatus)
	assert.True(t, decimal.NewFromInt(1000).Equal(b.TotalPrice))
}

func TestConfirm_MaterializesTicketDetails(t *testing.T) {
	b := confirmedBooking(t, 2, 500)

	assert.Equal(t, BookingStatusConfirmed, b.Status)
	assert.Equal(t, PaymentStatusCompleted, b.PaymentStatus)
	require.Len(t, b.TicketDetails, 2)
	assert.Len(t, b.AttendeeDetails, 2)
	assert.Len(t, b.TicketNumbers, 2)
	for i, td := range b.TicketDetails {
		assert.Equal(t, b.TicketNumbers[i], td.TicketNumber)
		assert.Equal(t, b.AttendeeDetails[i].Name, td.AttendeeName)
		assert.Equal(t, TicketStatusActive, td.Status)
		assert.Equal(t, RefundNotInitiated, td.RefundStatus)
	}
}

func TestConfirm_SecondCallRejected(t *testing.T) {
	b := confirmedBooking(t, 2, 500)
	first := append([]string(nil), b.TicketNumbers...)

	err := b.Confirm("pay_2", "sig_2", []string{"TKT-NEW-A", "TKT-NEW-B"})
	assert.ErrorIs(t, err, status.ErrAlreadyConfirmed)
	assert.Equal(t, first, b.TicketNumbers)
	assert.Equal(t, "pay_1", b.RazorpayPaymentID)
}

func TestNormalize_MaterializesFromLegacyFields(t *testing.T) {
	b := &Booking{
		Quantity:   2,
		TotalPrice: decimal.NewFromInt(300),
		Status:     BookingStatusConfirmed,
		AttendeeDetails: []AttendeeDetail{
			{Name: "A", Email: "a@x.com", Phone: "+911111111111"},
			{Name: "B", Email: "b@x.com", Phone: "+912222222222"},
		},
		TicketNumbers:    []string{"TKT-1", "TKT-2"},
		CancelledTickets: []string{"TKT-2"},
	}

	assert.True(t, b.Normalize())
	require.Len(t, b.TicketDetails, 2)
	assert.Equal(t, TicketStatusActive, b.TicketDetails[0].Status)
	assert.Equal(t, TicketStatusCancelled, b.TicketDetails[1].Status)
	assert.Equal(t, "A", b.TicketDetails[0].AttendeeName)
	assert.Equal(t, []string{"TKT-2"}, b.CancelledTickets)

	// Second pass is a no-op.
	assert.False(t, b.Normalize())
}

func TestNormalize_NoTicketNumbersIsNoop(t *testing.T) {
	b := NewBooking("GT-1", "u", "e", 1, decimal.NewFromInt(100), []AttendeeDetail{{Name: "A"}})
	assert.False(t, b.Normalize())
	assert.Empty(t, b.TicketDetails)
}

func TestRefundPerTicket_EvenSplit(t *testing.T) {
	b := confirmedBooking(t, 3, 100)
	assert.Equal(t, "100", b.RefundPerTicket().String())

	odd := &Booking{Quantity: 3, TotalPrice: decimal.NewFromInt(100)}
	assert.Equal(t, "33.33", odd.RefundPerTicket().String())
}

func TestCancelTicket_SingleTicket(t *testing.T) {
	b := confirmedBooking(t, 3, 100)
	now := time.Now()

	td, err := b.CancelTicket(b.TicketNumbers[0], "plans changed", now)
	require.NoError(t, err)

	assert.Equal(t, TicketStatusCancelled, td.Status)
	assert.Equal(t, "plans changed", td.CancellationReason)
	assert.Equal(t, RefundPending, td.RefundStatus)
	assert.Equal(t, "100", td.RefundAmount.String())
	require.NotNil(t, td.CancelledAt)
	assert.Equal(t, now, *td.CancelledAt)

	assert.Equal(t, []string{b.TicketNumbers[0]}, b.CancelledTickets)
	assert.Equal(t, BookingStatusConfirmed, b.Status, "N-1 cancellations keep the booking confirmed")
}

func TestCancelTicket_DefaultReason(t *testing.T) {
	b := confirmedBooking(t, 2, 100)

	td, err := b.CancelTicket(b.TicketNumbers[0], "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, DefaultCancellationReason, td.CancellationReason)
}

func TestCancelTicket_AllCancelledAggregates(t *testing.T) {
	b := confirmedBooking(t, 2, 500)
	now := time.Now()

	_, err := b.CancelTicket(b.TicketNumbers[0], "r", now)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, b.Status)

	_, err = b.CancelTicket(b.TicketNumbers[1], "r", now)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, b.Status)
	assert.ElementsMatch(t, b.TicketNumbers, b.CancelledTickets)
}

func TestCancelTicket_TerminalStatesRejected(t *testing.T) {
	b := confirmedBooking(t, 2, 100)
	now := time.Now()

	_, err := b.CancelTicket(b.TicketNumbers[0], "r", now)
	require.NoError(t, err)

	_, err = b.CancelTicket(b.TicketNumbers[0], "again", now)
	assert.ErrorIs(t, err, status.ErrTicketAlreadyCancelled)

	b.TicketDetails[1].Status = TicketStatusExpired
	_, err = b.CancelTicket(b.TicketNumbers[1], "r", now)
	assert.ErrorIs(t, err, status.ErrTicketExpired)

	_, err = b.CancelTicket("TKT-MISSING", "r", now)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestVerifyTicket_Idempotent(t *testing.T) {
	b := confirmedBooking(t, 2, 100)
	first := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	vt, created, err := b.VerifyTicket(b.TicketNumbers[0], VerifyApproved, "org1", first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first, vt.VerifiedAt)

	again, created, err := b.VerifyTicket(b.TicketNumbers[0], VerifyApproved, "org2", first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again.VerifiedAt, "original verifiedAt is returned")
	assert.Equal(t, "org1", again.VerifiedBy)
	assert.Len(t, b.VerifiedTickets, 1)
}

func TestVerifyTicket_Rejections(t *testing.T) {
	b := confirmedBooking(t, 2, 100)
	now := time.Now()

	_, _, err := b.VerifyTicket("TKT-MISSING", VerifyApproved, "org1", now)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	_, _, err = b.VerifyTicket(b.TicketNumbers[0], "maybe", "org1", now)
	assert.ErrorIs(t, err, status.ErrInvalidVerifyStatus)

	_, err = b.CancelTicket(b.TicketNumbers[0], "r", now)
	require.NoError(t, err)
	_, _, err = b.VerifyTicket(b.TicketNumbers[0], VerifyApproved, "org1", now)
	assert.ErrorIs(t, err, status.ErrCancelledNotVerifiable)
}

func TestExpireTickets_SkipsCancelled(t *testing.T) {
	b := confirmedBooking(t, 3, 100)
	now := time.Now()

	_, err := b.CancelTicket(b.TicketNumbers[1], "r", now)
	require.NoError(t, err)

	flipped := b.ExpireTickets(now)
	assert.Equal(t, 2, flipped)
	assert.True(t, b.IsExpired)
	require.NotNil(t, b.ExpiryCheckedAt)

	assert.Equal(t, TicketStatusExpired, b.TicketDetails[0].Status)
	assert.Equal(t, TicketStatusCancelled, b.TicketDetails[1].Status)
	assert.Equal(t, TicketStatusExpired, b.TicketDetails[2].Status)
}

func TestExpireTickets_SecondPassIsNoop(t *testing.T) {
	b := confirmedBooking(t, 2, 100)
	first := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	assert.Equal(t, 2, b.ExpireTickets(first))
	assert.Equal(t, 0, b.ExpireTickets(second))
	assert.Equal(t, second, *b.ExpiryCheckedAt, "only the timestamp moves")
}

func TestCancelWhole(t *testing.T) {
	b := NewBooking("GT-1", "u", "e", 1, decimal.NewFromInt(100), []AttendeeDetail{{Name: "A"}})
	require.NoError(t, b.CancelWhole())
	assert.Equal(t, BookingStatusCancelled, b.Status)

	c := confirmedBooking(t, 1, 100)
	assert.ErrorIs(t, c.CancelWhole(), status.ErrBookingNotPending)
}

func TestEndToEndLifecycle(t *testing.T) {
	// Event price 500, user books quantity 2.
	b := NewBooking("GT-E2E", "user1", "event1", 2, decimal.NewFromInt(500), []AttendeeDetail{
		{Name: "One", Email: "one@x.com", Phone: "+919876543210"},
		{Name: "Two", Email: "two@x.com", Phone: "+919876543211"},
	})
	assert.Equal(t, BookingStatusPending, b.Status)
	assert.Equal(t, "1000", b.TotalPrice.String())

	require.NoError(t, b.Confirm("pay_1", "sig_1", []string{"TKT-1", "TKT-2"}))
	assert.Equal(t, BookingStatusConfirmed, b.Status)
	assert.Len(t, b.TicketNumbers, 2)

	td, err := b.CancelTicket("TKT-1", "plans changed", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "500", td.RefundAmount.String())
	assert.Equal(t, BookingStatusConfirmed, b.Status)

	_, err = b.CancelTicket("TKT-2", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, b.Status)
}

func TestConfirm_CancelledBookingRejected(t *testing.T) {
	b := NewBooking("GT-1", "u", "e", 1, decimal.NewFromInt(500), []AttendeeDetail{{}})
	require.NoError(t, b.CancelWhole())

	err := b.Confirm("pay_late", "sig_late", []string{"TKT-LATE"})

	assert.ErrorIs(t, err, status.ErrBookingNotPending)
	assert.Equal(t, BookingStatusCancelled, b.Status)
	assert.Equal(t, PaymentStatusPending, b.PaymentStatus)
	assert.Empty(t, b.TicketNumbers)
}

func TestAccessibleBy(t *testing.T) {
	b := confirmedBooking(t, 1, 500) // owned by user1

	assert.True(t, b.AccessibleBy("user1", "org1"), "buyer")
	assert.True(t, b.AccessibleBy("org1", "org1"), "event organizer")
	assert.False(t, b.AccessibleBy("user2", "org1"), "unrelated user")
	assert.False(t, b.AccessibleBy("", "org1"), "anonymous")
	assert.False(t, b.AccessibleBy("", ""), "anonymous, unknown organizer")
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	b := confirmedBooking(t, 2, 500)
	_, err := b.CancelTicket(b.TicketNumbers[0], "", time.Now())
	require.NoError(t, err)

	raw, err := json.Marshal(b.TicketDetails[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"refundAmount":500`)
	assert.NotContains(t, string(raw), `"refundAmount":"500"`)

	resp, err := json.Marshal(b.Response())
	require.NoError(t, err)
	assert.Contains(t, string(resp), `"totalPrice":1000`)
}
