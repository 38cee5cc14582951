package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"gettogether/internal/models"
	"gettogether/internal/services"
	"gettogether/internal/status"
)

type BookingHandler struct {
	app              *pocketbase.PocketBase
	bookingService   *services.BookingService
	paymentService   *services.PaymentService
	lifecycleService *services.LifecycleService
	expiryService    *services.ExpiryService
}

func NewBookingHandler(
	app *pocketbase.PocketBase,
	bookingService *services.BookingService,
	paymentService *services.PaymentService,
	lifecycleService *services.LifecycleService,
	expiryService *services.ExpiryService,
) *BookingHandler {
	return &BookingHandler{
		app:              app,
		bookingService:   bookingService,
		paymentService:   paymentService,
		lifecycleService: lifecycleService,
		expiryService:    expiryService,
	}
}

// apiError maps service sentinels onto HTTP error responses.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrBookingNotFound),
		errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError(err.Error(), err)
	case errors.Is(err, status.ErrNotBookingOwner),
		errors.Is(err, status.ErrNotEventOrganizer):
		return apis.NewForbiddenError(err.Error(), err)
	case errors.Is(err, status.ErrGatewayFailure):
		return apis.NewInternalServerError("Failed to create payment order", err)
	default:
		return apis.NewBadRequestError(err.Error(), err)
	}
}

// CreateBooking - Create a pending booking and a gateway order for it
func (h *BookingHandler) CreateBooking(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req services.CreateBookingRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.bookingService.CreateBooking(e.Request.Context(), e.Auth.Id, req)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"booking": map[string]any{
			"_id":             result.Booking.ID,
			"bookingId":       result.Booking.Ref,
			"razorpayOrderId": result.Order.ID,
			"amount":          result.Order.Amount,
			"currency":        result.Order.Currency,
			"quantity":        result.Booking.Quantity,
			"eventId":         result.Booking.EventID,
		},
		"razorpayKey": result.Key,
	})
}

// VerifyPayment - Confirm a booking after a signed gateway callback
func (h *BookingHandler) VerifyPayment(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req services.VerifyPaymentRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	booking, err := h.paymentService.VerifyPayment(e.Request.Context(), req)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"booking": map[string]any{
			"_id":           booking.ID,
			"bookingId":     booking.Ref,
			"ticketNumbers": booking.TicketNumbers,
			"eventId":       booking.EventID,
			"quantity":      booking.Quantity,
			"totalPrice":    booking.TotalPrice,
			"status":        booking.Status,
		},
	})
}

// GetMyBookings - List the caller's bookings, sweeping expired tickets inline
func (h *BookingHandler) GetMyBookings(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ctx := e.Request.Context()

	records, err := h.app.FindRecordsByFilter(
		models.CollectionBookings,
		"user = {:userId}",
		"-created",
		0,
		0,
		map[string]any{"userId": e.Auth.Id},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to get bookings", err)
	}

	bookings := []map[string]any{}
	for _, record := range records {
		if _, err := h.expiryService.SweepRecord(ctx, record); err != nil {
			return apis.NewInternalServerError("Failed to refresh booking", err)
		}
		booking, _, err := models.BookingFromRecord(record)
		if err != nil {
			return apis.NewInternalServerError("Failed to read booking", err)
		}
		bookings = append(bookings, booking.Response())
	}

	return e.JSON(http.StatusOK, map[string]any{"bookings": bookings})
}

// GetBooking - Fetch one booking; owner or event organizer only
func (h *BookingHandler) GetBooking(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindRecordById(models.CollectionBookings, e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Booking not found", err)
	}

	booking, _, err := models.BookingFromRecord(record)
	if err != nil {
		return apis.NewInternalServerError("Failed to read booking", err)
	}

	if !booking.AccessibleBy(e.Auth.Id, h.eventOrganizer(booking.EventID)) {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{"booking": booking.Response()})
}

// DeleteBooking - Cancel a still-pending booking before confirmation
func (h *BookingHandler) DeleteBooking(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	booking, err := h.bookingService.CancelPending(e.Request.Context(), e.Auth.Id, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": "Booking cancelled",
		"booking": booking.Response(),
	})
}

// GetOrganizerBookings - All bookings across the organizer's events
func (h *BookingHandler) GetOrganizerBookings(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	events, err := h.app.FindRecordsByFilter(
		models.CollectionEvents,
		"organizer = {:organizerId}",
		"-created",
		0,
		0,
		map[string]any{"organizerId": e.Auth.Id},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to get events", err)
	}

	bookings := []map[string]any{}
	for _, event := range events {
		records, err := h.app.FindRecordsByFilter(
			models.CollectionBookings,
			"event = {:eventId}",
			"-created",
			0,
			0,
			map[string]any{"eventId": event.Id},
		)
		if err != nil {
			continue
		}
		for _, record := range records {
			booking, _, err := models.BookingFromRecord(record)
			if err != nil {
				continue
			}
			data := booking.Response()
			data["eventName"] = event.GetString("name")
			bookings = append(bookings, data)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{"bookings": bookings})
}

// GetEventBookings - Bookings for one event, organizer only
func (h *BookingHandler) GetEventBookings(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")
	if !h.ownsEvent(eventID, e.Auth.Id) {
		return apis.NewForbiddenError("Access denied", nil)
	}

	records, err := h.app.FindRecordsByFilter(
		models.CollectionBookings,
		"event = {:eventId}",
		"-created",
		0,
		0,
		map[string]any{"eventId": eventID},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to get bookings", err)
	}

	bookings := []map[string]any{}
	for _, record := range records {
		booking, _, err := models.BookingFromRecord(record)
		if err != nil {
			continue
		}
		bookings = append(bookings, booking.Response())
	}

	return e.JSON(http.StatusOK, map[string]any{"bookings": bookings})
}

// VerifyTicket - Record an entry-gate check-in decision
func (h *BookingHandler) VerifyTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TicketNumber       string `json:"ticketNumber"`
		BookingID          string `json:"bookingId"`
		VerificationStatus string `json:"verificationStatus"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	verification, created, err := h.lifecycleService.VerifyTicket(e.Request.Context(), services.VerifyTicketParams{
		BookingID:    req.BookingID,
		TicketNumber: req.TicketNumber,
		Outcome:      req.VerificationStatus,
		OrganizerID:  e.Auth.Id,
	})
	if err != nil {
		return apiError(err)
	}

	message := "Ticket verified"
	if !created {
		message = "Ticket already verified"
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":      message,
		"verification": verification,
	})
}

// CancelTicket - Organizer-initiated per-ticket cancellation
func (h *BookingHandler) CancelTicket(e *core.RequestEvent) error {
	return h.cancelTicket(e, services.ActorOrganizer)
}

// CancelUserTicket - Attendee-initiated per-ticket cancellation
func (h *BookingHandler) CancelUserTicket(e *core.RequestEvent) error {
	return h.cancelTicket(e, services.ActorUser)
}

func (h *BookingHandler) cancelTicket(e *core.RequestEvent, role string) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		BookingID    string `json:"bookingId"`
		TicketNumber string `json:"ticketNumber"`
		Reason       string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ticket, booking, err := h.lifecycleService.CancelTicket(e.Request.Context(), services.CancelTicketParams{
		BookingID:    req.BookingID,
		TicketNumber: req.TicketNumber,
		Reason:       req.Reason,
		ActorID:      e.Auth.Id,
		ActorRole:    role,
	})
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":       "Ticket cancelled",
		"ticketStatus":  ticket.Status,
		"refundAmount":  ticket.RefundAmount,
		"refundStatus":  ticket.RefundStatus,
		"bookingStatus": booking.Status,
	})
}

// GetTicketStatus - Resolve a ticket number to its current state
func (h *BookingHandler) GetTicketStatus(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketNumber := e.Request.URL.Query().Get("ticketNumber")
	if ticketNumber == "" {
		return apis.NewBadRequestError("Ticket number required", nil)
	}

	booking, ticket, err := h.lifecycleService.TicketStatus(e.Request.Context(), ticketNumber)
	if err != nil {
		return apiError(err)
	}

	// Ticket sub-records carry attendee contact data; only the buyer and the
	// event organizer get to resolve them.
	if !booking.AccessibleBy(e.Auth.Id, h.eventOrganizer(booking.EventID)) {
		return apis.NewForbiddenError("Access denied", nil)
	}

	resp := map[string]any{
		"bookingId": booking.Ref,
		"eventId":   booking.EventID,
		"ticket":    ticket,
	}
	if verification, ok := booking.Verification(ticketNumber); ok {
		resp["verification"] = verification
	}

	return e.JSON(http.StatusOK, resp)
}

// CheckExpired - Whole-system expiry sweep
func (h *BookingHandler) CheckExpired(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	updated, err := h.expiryService.SweepAll(e.Request.Context())
	if err != nil {
		return apis.NewInternalServerError("Expiry sweep failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":      "Expired tickets updated",
		"updatedCount": updated,
	})
}

func (h *BookingHandler) eventOrganizer(eventID string) string {
	event, err := h.app.FindRecordById(models.CollectionEvents, eventID)
	if err != nil {
		return ""
	}
	return event.GetString("organizer")
}

func (h *BookingHandler) ownsEvent(eventID, userID string) bool {
	return userID != "" && h.eventOrganizer(eventID) == userID
}
