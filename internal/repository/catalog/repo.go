// Package catalog stores collection metadata as Valkey hashes.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	domcol "github.com/kailas-cloud/bucketdb/internal/domain/collection"
)

// store is the consumer interface for the catalog.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/collection.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a catalog repository. prefix namespaces every key, e.g.
// "bucketdb:".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Create stores collection metadata, failing when the name is taken.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) error {
	key := r.metaKey(col.Name())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	hashData, err := collectionToHash(col)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, key, hashData); err != nil {
		return fmt.Errorf("hset collection %s: %w", col.Name(), err)
	}
	return nil
}

// Get retrieves a collection by name.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return collectionFromHash(m)
}

// List returns all collections sorted by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, r.metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	if len(keys) == 0 {
		return []domcol.Collection{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi collections: %w", err)
	}

	collections := make([]domcol.Collection, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		col, err := collectionFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", keys[i], err)
		}
		collections = append(collections, col)
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].CreatedAt() < collections[j].CreatedAt()
	})

	return collections, nil
}

// Delete removes collection metadata.
func (r *Repo) Delete(ctx context.Context, name string) error {
	key := r.metaKey(name)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}
	return nil
}

// Valkey key pattern: bucketdb:collection:{name}
func (r *Repo) metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", r.prefix, name)
}
