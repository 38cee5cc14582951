package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("bookings")

		collection.Fields.Add(
			&core.TextField{
				Name:     "booking_id",
				Required: true,
				Max:      40,
			},
			&core.RelationField{
				Name:         "user",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "event",
				Required:     true,
				CollectionId: events.Id,
				MaxSelect:    1,
			},
			&core.NumberField{
				Name:     "quantity",
				Required: true,
				OnlyInt:  true,
				Min:      types.Pointer(1.0),
			},
			&core.NumberField{
				Name: "total_price",
				Min:  types.Pointer(0.0),
			},
			&core.JSONField{
				Name:    "attendee_details",
				MaxSize: 1 << 20,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				Values:    []string{"pending", "confirmed", "cancelled"},
				MaxSelect: 1,
			},
			&core.SelectField{
				Name:      "payment_status",
				Values:    []string{"pending", "completed", "failed"},
				MaxSelect: 1,
			},
			&core.TextField{
				Name: "razorpay_order_id",
				Max:  100,
			},
			&core.TextField{
				Name: "razorpay_payment_id",
				Max:  100,
			},
			&core.TextField{
				Name: "razorpay_signature",
				Max:  200,
			},
			&core.JSONField{
				Name:    "ticket_numbers",
				MaxSize: 1 << 20,
			},
			&core.JSONField{
				Name:    "ticket_details",
				MaxSize: 1 << 20,
			},
			&core.JSONField{
				Name:    "cancelled_tickets",
				MaxSize: 1 << 20,
			},
			&core.JSONField{
				Name:    "verified_tickets",
				MaxSize: 1 << 20,
			},
			&core.BoolField{
				Name: "is_expired",
			},
			&core.DateField{
				Name: "expiry_checked_at",
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_bookings_booking_id", true, "booking_id", "")
		collection.AddIndex("idx_bookings_user", false, "user", "")
		collection.AddIndex("idx_bookings_event", false, "event", "")
		collection.AddIndex("idx_bookings_status", false, "status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
