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

		collection := core.NewBaseCollection("payouts")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "organizer",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.DateField{
				Name:     "period_start",
				Required: true,
			},
			&core.DateField{
				Name:     "period_end",
				Required: true,
			},
			&core.NumberField{
				Name: "gross",
				Min:  types.Pointer(0.0),
			},
			&core.NumberField{
				Name: "commission",
				Min:  types.Pointer(0.0),
			},
			&core.NumberField{
				Name: "net",
			},
			&core.NumberField{
				Name:    "bookings_count",
				OnlyInt: true,
			},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"pending", "paid"},
				MaxSelect: 1,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)

		collection.AddIndex("idx_payouts_organizer", false, "organizer", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("payouts")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
