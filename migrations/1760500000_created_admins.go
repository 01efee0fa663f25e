package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

// The admins collection holds dashboard staff. Check-ins and payment
// reviews are recorded under firstName, or fullName when that is empty.
func init() {
	m.Register(func(app core.App) error {
		collection := core.NewAuthCollection("admins")

		collection.Fields.Add(
			&core.TextField{Name: "firstName", Max: 100},
			&core.TextField{Name: "fullName", Max: 200},
		)

		ownRecord := types.Pointer("id = @request.auth.id")
		collection.ListRule = ownRecord
		collection.ViewRule = ownRecord
		collection.UpdateRule = ownRecord

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("admins")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
