package deletion

import (
	"context"

	domcol "github.com/kailas-cloud/bucketdb/internal/domain/collection"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

// CollectionReader resolves collection metadata.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// DocumentStore is the storage contract of the delete executor.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	List(ctx context.Context, collection string) ([]map[string]any, error)
	Delete(ctx context.Context, collection, id string) error
	ListBuckets(ctx context.Context, collection string) ([]*timeseries.Bucket, error)
	ReplaceBucket(ctx context.Context, collection string, b *timeseries.Bucket) error
	DeleteBucket(ctx context.Context, collection string, b *timeseries.Bucket) error
}
