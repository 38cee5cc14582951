package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"gettogether/config"
	"gettogether/internal/gateway"
	"gettogether/internal/models"
	"gettogether/internal/status"
	"gettogether/monitoring"
	"gettogether/utils"
)

type BookingService struct {
	app     core.App
	gateway gateway.Gateway
	Redis   *redis.Client
	cfg     *config.Config
	now     func() time.Time
}

func NewBookingService(app core.App, gw gateway.Gateway, redisClient *redis.Client, cfg *config.Config) *BookingService {
	return &BookingService{
		app:     app,
		gateway: gw,
		Redis:   redisClient,
		cfg:     cfg,
		now:     time.Now,
	}
}

type CreateBookingRequest struct {
	EventID         string                  `json:"eventId"`
	Quantity        int                     `json:"quantity"`
	AttendeeDetails []models.AttendeeDetail `json:"attendeeDetails"`
}

type CreateBookingResult struct {
	Booking *models.Booking
	Order   *gateway.Order
	Key     string
}

// CreateBooking validates the request, persists a pending booking with the
// price snapshotted from the event, then asks the gateway for an order. No
// inventory is decremented here; that happens on payment confirmation.
func (s *BookingService) CreateBooking(ctx context.Context, userID string, req CreateBookingRequest) (*CreateBookingResult, error) {
	if req.Quantity < 1 {
		return nil, status.ErrInvalidQuantity
	}
	if len(req.AttendeeDetails) != req.Quantity {
		return nil, status.ErrAttendeeMismatch
	}
	if err := ValidateAttendees(req.AttendeeDetails, s.cfg.DefaultPhoneRegion); err != nil {
		return nil, err
	}

	eventRecord, err := s.app.FindRecordById(models.CollectionEvents, req.EventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	event := models.EventFromRecord(eventRecord)

	now := s.now()
	if event.Status != models.EventStatusPublish || !event.BookingOpen(now) {
		return nil, status.ErrBookingClosed
	}
	if req.Quantity > event.AvailableTickets {
		return nil, status.ErrNotEnoughTickets
	}

	ref, err := utils.NewBookingRef(now)
	if err != nil {
		return nil, fmt.Errorf("booking ref: %w", err)
	}

	booking := models.NewBooking(ref, userID, event.ID, req.Quantity, event.Price, req.AttendeeDetails)

	collection, err := s.app.FindCollectionByNameOrId(models.CollectionBookings)
	if err != nil {
		return nil, err
	}
	record := core.NewRecord(collection)
	if err := booking.ApplyTo(record); err != nil {
		return nil, err
	}
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, err
	}
	booking.ID = record.Id

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:    booking.TotalPrice,
		Currency:  s.cfg.Currency,
		BookingID: booking.ID,
		Notes: map[string]string{
			"booking_ref": booking.Ref,
			"event_id":    event.ID,
		},
	})
	if err != nil {
		// The pending booking stays behind without an order id.
		slog.Error("booking: gateway order failed", "booking", booking.Ref, "error", err)
		return nil, fmt.Errorf("%w: %v", status.ErrGatewayFailure, err)
	}

	booking.RazorpayOrderID = order.ID
	if err := booking.ApplyTo(record); err != nil {
		return nil, err
	}
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, err
	}

	s.cachePaymentSession(ctx, booking, order)
	monitoring.TrackBookingCreated(event.ID)

	return &CreateBookingResult{
		Booking: booking,
		Order:   order,
		Key:     s.gateway.Key(),
	}, nil
}

// cachePaymentSession mirrors the pending order into Redis so status polls
// do not hit the database. TTL matches the payment window.
func (s *BookingService) cachePaymentSession(ctx context.Context, booking *models.Booking, order *gateway.Order) {
	sessionKey := fmt.Sprintf("payment:%s", order.ID)
	s.Redis.HSet(ctx, sessionKey,
		"booking_id", booking.ID,
		"booking_ref", booking.Ref,
		"user_id", booking.UserID,
		"event_id", booking.EventID,
		"amount", booking.TotalPrice.StringFixed(2),
		"status", models.PaymentStatusPending,
		"created_at", s.now().Unix(),
	)
	s.Redis.Expire(ctx, sessionKey, s.cfg.PaymentTimeout)
}

// CancelPending cancels a still-pending booking on the owner's request. The
// record is kept; only the status flips.
func (s *BookingService) CancelPending(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	record, err := s.app.FindRecordById(models.CollectionBookings, bookingID)
	if err != nil {
		return nil, status.ErrBookingNotFound
	}

	booking, _, err := models.BookingFromRecord(record)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, status.ErrNotBookingOwner
	}
	if err := booking.CancelWhole(); err != nil {
		return nil, err
	}

	if err := booking.ApplyTo(record); err != nil {
		return nil, err
	}
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, err
	}
	return booking, nil
}

// ValidateAttendees checks that every attendee has a name, an email and a
// parseable phone number. Numbers without a leading + get the default region.
func ValidateAttendees(attendees []models.AttendeeDetail, defaultRegion string) error {
	for _, a := range attendees {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" {
			return status.ErrInvalidAttendee
		}
		if err := ValidatePhone(a.Phone, defaultRegion); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePhone parses a raw phone number, applying the default region when
// the number carries no country prefix.
func ValidatePhone(raw, defaultRegion string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return status.ErrInvalidPhone
	}

	region := defaultRegion
	if strings.HasPrefix(raw, "+") {
		region = "ZZ"
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return status.ErrInvalidPhone
	}
	return nil
}
