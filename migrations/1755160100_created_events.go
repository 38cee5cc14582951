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

		collection := core.NewBaseCollection("events")

		collection.Fields.Add(
			&core.TextField{
				Name:     "name",
				Required: true,
				Max:      200,
			},
			&core.EditorField{
				Name: "description",
			},
			&core.TextField{
				Name: "location",
				Max:  200,
			},
			&core.DateField{
				Name:     "date",
				Required: true,
			},
			&core.DateField{
				Name:     "booking_expiry",
				Required: true,
			},
			&core.NumberField{
				Name:     "price",
				Required: true,
				Min:      types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "total_tickets",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "available_tickets",
				OnlyInt: true,
			},
			&core.RelationField{
				Name:         "organizer",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"publish", "unpublish"},
				MaxSelect: 1,
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

		collection.AddIndex("idx_events_organizer", false, "organizer", "")
		collection.AddIndex("idx_events_date", false, "date", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
