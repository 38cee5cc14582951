// Package notify delivers booking emails and realtime pushes. Delivery is
// best-effort: failures are logged and never unwind the state change that
// triggered them.
package notify

import (
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
	pubnub "github.com/pubnub/go"

	"gettogether/internal/models"
)

type Notifier struct {
	app        core.App
	pn         *pubnub.PubNub
	adminEmail string
}

func New(app core.App, pn *pubnub.PubNub, adminEmail string) *Notifier {
	return &Notifier{
		app:        app,
		pn:         pn,
		adminEmail: adminEmail,
	}
}

func (n *Notifier) send(to, subject, html string) error {
	if to == "" {
		return nil
	}

	message := &mailer.Message{
		From: mail.Address{
			Address: n.app.Settings().Meta.SenderAddress,
			Name:    n.app.Settings().Meta.SenderName,
		},
		To:      []mail.Address{{Address: to}},
		Subject: subject,
		HTML:    html,
	}

	return n.app.NewMailClient().Send(message)
}

// publish pushes a realtime message to the user's channel.
func (n *Notifier) publish(userID string, payload map[string]any) {
	if n.pn == nil || userID == "" {
		return
	}

	channel := fmt.Sprintf("user-%s", userID)
	if _, _, err := n.pn.Publish().Channel(channel).Message(payload).Execute(); err != nil {
		slog.Error("notify: pubnub publish failed", "channel", channel, "error", err)
	}
}

// BookingConfirmed notifies the buyer that payment went through and tickets
// were issued.
func (n *Notifier) BookingConfirmed(booking *models.Booking, event *models.Event, userEmail string) {
	subject := fmt.Sprintf("Booking %s confirmed", booking.Ref)
	html := fmt.Sprintf(
		"<p>Your booking <strong>%s</strong> for <strong>%s</strong> is confirmed.</p><p>Tickets: %v</p>",
		booking.Ref, event.Name, booking.TicketNumbers,
	)
	if err := n.send(userEmail, subject, html); err != nil {
		slog.Error("notify: confirmation email failed", "booking", booking.Ref, "error", err)
	}

	n.publish(booking.UserID, map[string]any{
		"type":          "booking_confirmed",
		"bookingId":     booking.Ref,
		"ticketNumbers": booking.TicketNumbers,
	})
}

// TicketCancelled notifies the buyer, the organizer and the platform admin
// about a per-ticket cancellation.
func (n *Notifier) TicketCancelled(booking *models.Booking, event *models.Event, ticket *models.TicketDetail, userEmail, organizerEmail string) {
	subject := fmt.Sprintf("Ticket %s cancelled", ticket.TicketNumber)
	html := fmt.Sprintf(
		"<p>Ticket <strong>%s</strong> on booking <strong>%s</strong> (%s) was cancelled.</p><p>Reason: %s</p><p>Refund of %s is pending.</p>",
		ticket.TicketNumber, booking.Ref, event.Name, ticket.CancellationReason, ticket.RefundAmount.StringFixed(2),
	)

	for _, to := range []string{userEmail, organizerEmail, n.adminEmail} {
		if err := n.send(to, subject, html); err != nil {
			slog.Error("notify: cancellation email failed", "ticket", ticket.TicketNumber, "to", to, "error", err)
		}
	}

	n.publish(booking.UserID, map[string]any{
		"type":         "ticket_cancelled",
		"bookingId":    booking.Ref,
		"ticketNumber": ticket.TicketNumber,
		"refundAmount": ticket.RefundAmount,
	})
}

// SendOTPMail delivers an admin one-time code. Unlike the rest of the
// notifier this is not fire-and-forget: the caller needs to know the code
// reached the mailbox. Fixed attempt count with a linearly increasing delay
// between attempts.
func (n *Notifier) SendOTPMail(email, code string, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	subject := "Your GetTogether admin code"
	html := fmt.Sprintf("<p>Your one-time code is <strong>%s</strong>. It expires shortly.</p>", code)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = n.send(email, subject, html); err == nil {
			return nil
		}
		slog.Error("notify: otp email attempt failed", "attempt", attempt, "error", err)
		if attempt < attempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return err
}
