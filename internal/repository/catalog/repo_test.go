package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/bucketdb/internal/domain"
)

func TestCreate_Success(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotKey string
	var gotFields map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		gotKey = key
		gotFields = fields
		return nil
	}

	if err := repo.Create(context.Background(), testCollection(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "bucketdb:collection:metrics" {
		t.Errorf("key = %q", gotKey)
	}
	if gotFields["name"] != "metrics" || gotFields["timeseries"] == "" {
		t.Errorf("fields = %v", gotFields)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(context.Context, string) (bool, error) { return true, nil }

	if err := repo.Create(context.Background(), testCollection(t)); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("error = %v, want ErrAlreadyExists", err)
	}
}

func TestGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)

	stored, err := collectionToHash(testCollection(t))
	if err != nil {
		t.Fatalf("collectionToHash: %v", err)
	}
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "bucketdb:collection:metrics" {
			t.Errorf("key = %q", key)
		}
		return stored, nil
	}

	col, err := repo.Get(context.Background(), "metrics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "metrics" || col.CreatedAt() != 1700000000000 {
		t.Errorf("hydrated = %q / %d", col.Name(), col.CreatedAt())
	}
	if col.DefaultCollation().Locale != "en" || col.DefaultCollation().Strength != 2 {
		t.Errorf("collation = %+v", col.DefaultCollation())
	}
	if !col.IsTimeseries() || col.TimeseriesOptions().MetaField != "tags" {
		t.Errorf("timeseries options = %+v", col.TimeseriesOptions())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestList_SortedByCreatedAt(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "bucketdb:collection:*" {
			t.Errorf("pattern = %q", pattern)
		}
		return []string{"bucketdb:collection:b", "bucketdb:collection:a"}, nil
	}
	ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
		return []map[string]string{
			{"name": "b", "created_at": "2000", "revision": "1"},
			{"name": "a", "created_at": "1000", "revision": "1"},
		}, nil
	}

	cols, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 || cols[0].Name() != "a" || cols[1].Name() != "b" {
		t.Errorf("unexpected order: %v", cols)
	}
}

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) {
		return map[string]string{"name": "metrics", "created_at": "1"}, nil
	}
	deleted := false
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key == "bucketdb:collection:metrics"
		return nil
	}

	if err := repo.Delete(context.Background(), "metrics"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected DEL on the metadata key")
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
