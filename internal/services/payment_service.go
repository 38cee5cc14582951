package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"gettogether/internal/gateway"
	"gettogether/internal/models"
	"gettogether/internal/status"
	"gettogether/monitoring"
	"gettogether/utils"
)

// BookingNotifier is the slice of the notifier the payment and lifecycle
// services fire after a successful state change.
type BookingNotifier interface {
	BookingConfirmed(booking *models.Booking, event *models.Event, userEmail string)
	TicketCancelled(booking *models.Booking, event *models.Event, ticket *models.TicketDetail, userEmail, organizerEmail string)
}

type PaymentService struct {
	app       recordStore
	Redis     *redis.Client
	notifier  BookingNotifier
	keySecret string
	now       func() time.Time
}

func NewPaymentService(app core.App, redisClient *redis.Client, notifier BookingNotifier, keySecret string) *PaymentService {
	return &PaymentService{
		app:       app,
		Redis:     redisClient,
		notifier:  notifier,
		keySecret: keySecret,
		now:       time.Now,
	}
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
	BookingID         string `json:"bookingId"`
}

// VerifyPayment checks the gateway callback signature and, on match, runs the
// confirmation transition: booking confirmed, ticket numbers minted,
// inventory decremented by the booked quantity. The booking save and the
// inventory save are two separate writes; a failure on the second is logged
// for manual reconciliation and does not roll the confirmation back. A
// booking that is already confirmed returns its stored result unchanged.
func (s *PaymentService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*models.Booking, error) {
	if !gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.keySecret) {
		monitoring.TrackPaymentVerification("signature_mismatch")
		return nil, status.ErrSignatureMismatch
	}

	record, err := s.app.FindRecordById(models.CollectionBookings, req.BookingID)
	if err != nil {
		return nil, status.ErrBookingNotFound
	}

	booking, _, err := models.BookingFromRecord(record)
	if err != nil {
		return nil, err
	}

	if booking.RazorpayOrderID != req.RazorpayOrderID {
		return nil, status.ErrOrderMismatch
	}

	if booking.Status == models.BookingStatusConfirmed {
		// Duplicate callback: hand back the original ticket numbers rather
		// than re-minting and double-decrementing inventory.
		monitoring.TrackPaymentVerification("duplicate")
		return booking, nil
	}
	if booking.Status == models.BookingStatusCancelled {
		monitoring.TrackPaymentVerification("cancelled")
		return nil, status.ErrBookingNotPending
	}

	numbers, err := s.mintTicketNumbers(booking.Quantity)
	if err != nil {
		return nil, err
	}

	if err := booking.Confirm(req.RazorpayPaymentID, req.RazorpaySignature, numbers); err != nil {
		return nil, err
	}

	if err := booking.ApplyTo(record); err != nil {
		return nil, err
	}
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, err
	}

	event := s.decrementInventory(ctx, booking)

	sessionKey := fmt.Sprintf("payment:%s", booking.RazorpayOrderID)
	s.Redis.HSet(ctx, sessionKey, "status", models.PaymentStatusCompleted)

	monitoring.TrackPaymentVerification("confirmed")
	monitoring.TrackBookingConfirmed(booking.EventID, booking.Quantity)

	if event != nil {
		go s.notifier.BookingConfirmed(booking, event, s.userEmail(booking.UserID))
	}

	return booking, nil
}

// decrementInventory takes the booked quantity out of the event's available
// tickets. The count is not clamped at zero.
func (s *PaymentService) decrementInventory(ctx context.Context, booking *models.Booking) *models.Event {
	eventRecord, err := s.app.FindRecordById(models.CollectionEvents, booking.EventID)
	if err != nil {
		slog.Error("payment: inventory event lookup failed, reconcile manually",
			"booking", booking.Ref, "event", booking.EventID, "error", err)
		return nil
	}

	available := eventRecord.GetInt("available_tickets")
	eventRecord.Set("available_tickets", available-booking.Quantity)

	if err := s.app.SaveWithContext(ctx, eventRecord); err != nil {
		slog.Error("payment: inventory decrement failed, reconcile manually",
			"booking", booking.Ref, "event", booking.EventID, "quantity", booking.Quantity, "error", err)
	}

	return models.EventFromRecord(eventRecord)
}

// mintTicketNumbers generates quantity unique ticket numbers.
func (s *PaymentService) mintTicketNumbers(quantity int) ([]string, error) {
	numbers := make([]string, 0, quantity)
	seen := map[string]bool{}
	now := s.now()

	for len(numbers) < quantity {
		tn, err := utils.NewTicketNumber(now)
		if err != nil {
			return nil, err
		}
		if seen[tn] {
			continue
		}
		seen[tn] = true
		numbers = append(numbers, tn)
	}
	return numbers, nil
}

func (s *PaymentService) userEmail(userID string) string {
	user, err := s.app.FindRecordById(models.CollectionUsers, userID)
	if err != nil {
		return ""
	}
	return user.GetString("email")
}
