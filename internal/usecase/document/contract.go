package document

import (
	"context"

	domcol "github.com/kailas-cloud/bucketdb/internal/domain/collection"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

// Repository defines the document and bucket storage contract.
type Repository interface {
	Upsert(ctx context.Context, collection string, doc map[string]any) (string, bool, error)
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	List(ctx context.Context, collection string) ([]map[string]any, error)
	AppendRecord(ctx context.Context, collection string, opts timeseries.Options, rec map[string]any) (string, error)
}

// CollectionReader resolves collection metadata.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}
