package collection

import (
	"context"

	domcol "github.com/kailas-cloud/bucketdb/internal/domain/collection"
)

// Repository defines the catalog storage contract.
type Repository interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// DataStore removes the stored documents and buckets of a collection.
type DataStore interface {
	DropAll(ctx context.Context, collection string) error
}
