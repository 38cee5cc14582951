package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"gettogether/internal/models"
	"gettogether/internal/services"
	"gettogether/internal/status"
)

type AdminHandler struct {
	app           *pocketbase.PocketBase
	payoutService *services.PayoutService
	otpService    *services.OTPService
}

func NewAdminHandler(app *pocketbase.PocketBase, payoutService *services.PayoutService, otpService *services.OTPService) *AdminHandler {
	return &AdminHandler{
		app:           app,
		payoutService: payoutService,
		otpService:    otpService,
	}
}

func requireAdmin(e *core.RequestEvent) error {
	if e.Auth == nil || e.Auth.Collection().Name != models.CollectionAdmins {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}
	return nil
}

// RunPayouts - Aggregate organizer earnings for a period
func (h *AdminHandler) RunPayouts(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	var req struct {
		PeriodStart string `json:"periodStart"`
		PeriodEnd   string `json:"periodEnd"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	start, err := time.Parse(time.RFC3339, req.PeriodStart)
	if err != nil {
		return apis.NewBadRequestError("Invalid periodStart", err)
	}
	end, err := time.Parse(time.RFC3339, req.PeriodEnd)
	if err != nil {
		return apis.NewBadRequestError("Invalid periodEnd", err)
	}
	if !end.After(start) {
		return apis.NewBadRequestError("periodEnd must be after periodStart", nil)
	}

	summaries, err := h.payoutService.Run(e.Request.Context(), start, end)
	if err != nil {
		return apis.NewInternalServerError("Payout run failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"payouts": summaries})
}

// ListPayouts - Stored payout records, newest first
func (h *AdminHandler) ListPayouts(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	records, err := h.app.FindRecordsByFilter(
		models.CollectionPayouts,
		"",
		"-created",
		100,
		0,
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to get payouts", err)
	}

	payouts := []map[string]any{}
	for _, record := range records {
		payouts = append(payouts, map[string]any{
			"id":            record.Id,
			"organizer":     record.GetString("organizer"),
			"periodStart":   record.GetDateTime("period_start"),
			"periodEnd":     record.GetDateTime("period_end"),
			"gross":         record.GetFloat("gross"),
			"commission":    record.GetFloat("commission"),
			"net":           record.GetFloat("net"),
			"bookingsCount": record.GetInt("bookings_count"),
			"status":        record.GetString("status"),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"payouts": payouts})
}

// RequestOTP - Mail a one-time code to an admin address
func (h *AdminHandler) RequestOTP(e *core.RequestEvent) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := e.BindBody(&req); err != nil || req.Email == "" {
		return apis.NewBadRequestError("Email required", err)
	}

	// Only addresses backing an admin account get a code.
	if _, err := h.app.FindAuthRecordByEmail(models.CollectionAdmins, req.Email); err != nil {
		return apis.NewNotFoundError("Admin not found", err)
	}

	if err := h.otpService.Request(e.Request.Context(), req.Email); err != nil {
		return apis.NewInternalServerError("Failed to send code", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Code sent"})
}

// VerifyOTP - Check a submitted one-time code
func (h *AdminHandler) VerifyOTP(e *core.RequestEvent) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := e.BindBody(&req); err != nil || req.Email == "" || req.Code == "" {
		return apis.NewBadRequestError("Email and code required", err)
	}

	err := h.otpService.Verify(e.Request.Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, status.ErrOTPNotFound):
		return apis.NewNotFoundError(err.Error(), err)
	case errors.Is(err, status.ErrOTPMismatch):
		return apis.NewBadRequestError(err.Error(), err)
	case err != nil:
		return apis.NewInternalServerError("Verification failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Code verified"})
}
