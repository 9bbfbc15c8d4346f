// Package document stores plain documents and time-series buckets as JSON
// values in Valkey.
package document

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kailas-cloud/bucketdb/internal/db"
	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

// store is the consumer interface for documents and buckets.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repo implements the document and bucket storage used by the write path.
type Repo struct {
	store      store
	prefix     string
	maxRecords int
}

// New creates a document repository. maxRecords caps how many records a
// bucket packs before it is closed.
func New(s store, prefix string, maxRecords int) *Repo {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &Repo{store: s, prefix: prefix, maxRecords: maxRecords}
}

// Upsert creates or replaces a document, assigning an identifier when the
// document has none. Returns the identifier and whether a new key was
// created.
func (r *Repo) Upsert(ctx context.Context, collection string, doc map[string]any) (string, bool, error) {
	id, ok := doc[predicate.IDField].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		doc[predicate.IDField] = id
	}
	key := r.docKey(collection, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("check exists %s: %w", key, err)
	}

	data, err := encodeDoc(doc)
	if err != nil {
		return "", false, err
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return "", false, fmt.Errorf("set %s: %w", key, err)
	}
	return id, !exists, nil
}

// Get returns a document by identifier.
func (r *Repo) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	raw, err := r.store.Get(ctx, r.docKey(collection, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return decodeDoc(raw)
}

// List returns every document of a collection, ordered by key for
// deterministic scans.
func (r *Repo) List(ctx context.Context, collection string) ([]map[string]any, error) {
	keys, err := r.store.Scan(ctx, r.docKey(collection, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget documents: %w", err)
	}

	docs := make([]map[string]any, 0, len(values))
	for _, raw := range values {
		if raw == nil {
			continue // deleted between SCAN and MGET
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes a document by identifier.
func (r *Repo) Delete(ctx context.Context, collection, id string) error {
	key := r.docKey(collection, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// AppendRecord packs a record into the open bucket of its series, creating
// one when needed and closing the bucket once it is full or spans too long.
func (r *Repo) AppendRecord(
	ctx context.Context, collection string, opts timeseries.Options, rec map[string]any,
) (string, error) {
	meta := rec[opts.MetaField]
	series := seriesField(meta)

	bucket, err := r.openBucket(ctx, collection, series, meta)
	if err != nil {
		return "", err
	}

	bucket.Append(rec, opts)
	if bucket.Count() >= r.maxRecords || bucket.SpanMillis(opts) > opts.MaxSpanMillis() {
		bucket.Closed = true
	}

	if err := r.ReplaceBucket(ctx, collection, bucket); err != nil {
		return "", err
	}
	if bucket.Closed {
		if err := r.store.HDel(ctx, r.openKey(collection), series); err != nil {
			return "", fmt.Errorf("clear open bucket pointer: %w", err)
		}
	}
	return bucket.ID, nil
}

// openBucket loads the open bucket of a series, or creates a fresh one.
func (r *Repo) openBucket(ctx context.Context, collection, series string, meta any) (*timeseries.Bucket, error) {
	pointers, err := r.store.HGetAll(ctx, r.openKey(collection))
	if err != nil {
		return nil, fmt.Errorf("load open bucket pointers: %w", err)
	}

	if id, ok := pointers[series]; ok {
		raw, err := r.store.Get(ctx, r.bucketKey(collection, id))
		if err == nil {
			return decodeBucket(raw)
		}
		if !errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("get bucket %s: %w", id, err)
		}
		// Stale pointer; fall through and create a new bucket.
	}

	bucket := timeseries.NewBucket(uuid.NewString(), meta)
	if err := r.store.HSet(ctx, r.openKey(collection), map[string]string{series: bucket.ID}); err != nil {
		return nil, fmt.Errorf("set open bucket pointer: %w", err)
	}
	return bucket, nil
}

// ListBuckets returns every bucket of a collection, ordered by key.
func (r *Repo) ListBuckets(ctx context.Context, collection string) ([]*timeseries.Bucket, error) {
	keys, err := r.store.Scan(ctx, r.bucketKey(collection, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan buckets: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget buckets: %w", err)
	}

	buckets := make([]*timeseries.Bucket, 0, len(values))
	for _, raw := range values {
		if raw == nil {
			continue
		}
		b, err := decodeBucket(raw)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

// ReplaceBucket writes a bucket back in full.
func (r *Repo) ReplaceBucket(ctx context.Context, collection string, b *timeseries.Bucket) error {
	data, err := encodeBucket(b)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.bucketKey(collection, b.ID), data); err != nil {
		return fmt.Errorf("set bucket %s: %w", b.ID, err)
	}
	return nil
}

// DeleteBucket removes a bucket and its open-series pointer when present.
func (r *Repo) DeleteBucket(ctx context.Context, collection string, b *timeseries.Bucket) error {
	if err := r.store.Del(ctx, r.bucketKey(collection, b.ID)); err != nil {
		return fmt.Errorf("del bucket %s: %w", b.ID, err)
	}
	if !b.Closed {
		if err := r.store.HDel(ctx, r.openKey(collection), seriesField(b.Meta)); err != nil {
			return fmt.Errorf("clear open bucket pointer: %w", err)
		}
	}
	return nil
}

// DropAll removes every stored key of a collection.
func (r *Repo) DropAll(ctx context.Context, collection string) error {
	patterns := []string{
		r.docKey(collection, "*"),
		r.bucketKey(collection, "*"),
		r.openKey(collection),
	}
	for _, pattern := range patterns {
		keys, err := r.store.Scan(ctx, pattern)
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		for _, key := range keys {
			if err := r.store.Del(ctx, key); err != nil {
				return fmt.Errorf("del %s: %w", key, err)
			}
		}
	}
	return nil
}

// Valkey key patterns:
//
//	bucketdb:{collection}:doc:{id}
//	bucketdb:{collection}:bucket:{id}
//	bucketdb:{collection}:open
func (r *Repo) docKey(collection, id string) string {
	return fmt.Sprintf("%s%s:doc:%s", r.prefix, collection, id)
}

func (r *Repo) bucketKey(collection, id string) string {
	return fmt.Sprintf("%s%s:bucket:%s", r.prefix, collection, id)
}

func (r *Repo) openKey(collection string) string {
	return fmt.Sprintf("%s%s:open", r.prefix, collection)
}
