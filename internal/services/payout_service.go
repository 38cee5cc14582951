package services

import (
	"context"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"gettogether/internal/models"
)

// Payout statuses.
const (
	PayoutStatusPending = "pending"
	PayoutStatusPaid    = "paid"
)

// PayoutService aggregates organizer earnings from completed bookings and
// writes one payouts record per organizer and period. It only consumes
// booking totals; it is not part of the ticket lifecycle.
type PayoutService struct {
	app            core.App
	commissionRate decimal.Decimal
}

func NewPayoutService(app core.App, commissionRate float64) *PayoutService {
	return &PayoutService{
		app:            app,
		commissionRate: decimal.NewFromFloat(commissionRate),
	}
}

type PayoutSummary struct {
	OrganizerID   string          `json:"organizerId"`
	BookingsCount int             `json:"bookingsCount"`
	Gross         decimal.Decimal `json:"gross"`
	Commission    decimal.Decimal `json:"commission"`
	Net           decimal.Decimal `json:"net"`
}

// Run aggregates confirmed, payment-completed bookings per organizer over
// the period and persists a pending payouts record for each.
func (s *PayoutService) Run(ctx context.Context, periodStart, periodEnd time.Time) ([]PayoutSummary, error) {
	rows := []struct {
		Organizer string  `db:"organizer"`
		Count     int     `db:"bookings_count"`
		Gross     float64 `db:"gross"`
	}{}

	err := s.app.DB().NewQuery(`
		SELECT e.organizer AS organizer,
		       COUNT(b.id) AS bookings_count,
		       COALESCE(SUM(b.total_price), 0) AS gross
		FROM bookings b
		JOIN events e ON e.id = b.event
		WHERE b.status = 'confirmed'
		  AND b.payment_status = 'completed'
		  AND b.created >= {:start}
		  AND b.created < {:end}
		GROUP BY e.organizer
	`).Bind(dbx.Params{
		"start": periodStart.UTC().Format("2006-01-02 15:04:05.000Z"),
		"end":   periodEnd.UTC().Format("2006-01-02 15:04:05.000Z"),
	}).All(&rows)
	if err != nil {
		return nil, err
	}

	collection, err := s.app.FindCollectionByNameOrId(models.CollectionPayouts)
	if err != nil {
		return nil, err
	}

	summaries := make([]PayoutSummary, 0, len(rows))
	for _, row := range rows {
		gross := decimal.NewFromFloat(row.Gross)
		commission := gross.Mul(s.commissionRate).Round(2)
		net := gross.Sub(commission)

		record := core.NewRecord(collection)
		record.Set("organizer", row.Organizer)
		record.Set("period_start", periodStart)
		record.Set("period_end", periodEnd)
		record.Set("gross", gross.InexactFloat64())
		record.Set("commission", commission.InexactFloat64())
		record.Set("net", net.InexactFloat64())
		record.Set("bookings_count", row.Count)
		record.Set("status", PayoutStatusPending)

		if err := s.app.SaveWithContext(ctx, record); err != nil {
			return nil, err
		}

		summaries = append(summaries, PayoutSummary{
			OrganizerID:   row.Organizer,
			BookingsCount: row.Count,
			Gross:         gross,
			Commission:    commission,
			Net:           net,
		})
	}

	return summaries, nil
}
