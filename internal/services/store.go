package services

import (
	"context"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// recordStore is the slice of core.App the payment and lifecycle services
// touch. Kept narrow so tests can swap in an in-memory fake.
type recordStore interface {
	FindRecordById(collectionModelOrIdentifier any, recordId string, optFilters ...func(q *dbx.SelectQuery) error) (*core.Record, error)
	SaveWithContext(ctx context.Context, model core.Model) error
	DB() dbx.Builder
}
