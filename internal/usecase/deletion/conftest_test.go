package deletion

import (
	"context"
	"testing"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	domcol "github.com/kailas-cloud/bucketdb/internal/domain/collection"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

// mockStore is an in-memory DocumentStore.
type mockStore struct {
	docs    map[string]map[string]any
	buckets []*timeseries.Bucket
}

func newMockStore() *mockStore {
	return &mockStore{docs: map[string]map[string]any{}}
}

func (m *mockStore) Get(_ context.Context, _, id string) (map[string]any, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockStore) List(context.Context, string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(m.docs))
	for _, id := range sortedIDs(m.docs) {
		out = append(out, m.docs[id])
	}
	return out, nil
}

func (m *mockStore) Delete(_ context.Context, _, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockStore) ListBuckets(context.Context, string) ([]*timeseries.Bucket, error) {
	return append([]*timeseries.Bucket(nil), m.buckets...), nil
}

func (m *mockStore) ReplaceBucket(_ context.Context, _ string, b *timeseries.Bucket) error {
	for i, cur := range m.buckets {
		if cur.ID == b.ID {
			m.buckets[i] = b
			return nil
		}
	}
	m.buckets = append(m.buckets, b)
	return nil
}

func (m *mockStore) DeleteBucket(_ context.Context, _ string, b *timeseries.Bucket) error {
	for i, cur := range m.buckets {
		if cur.ID == b.ID {
			m.buckets = append(m.buckets[:i], m.buckets[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func sortedIDs(docs map[string]map[string]any) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	// insertion sort keeps the helper dependency-free
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

type mockColls struct {
	cols map[string]domcol.Collection
}

func (m *mockColls) Get(_ context.Context, name string) (domcol.Collection, error) {
	col, ok := m.cols[name]
	if !ok {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return col, nil
}

var tsOpts = timeseries.Options{TimeField: "ts", MetaField: "tags"}

func newTestService(t *testing.T, store *mockStore, tsEnabled bool) *Service {
	t.Helper()
	colls := &mockColls{cols: map[string]domcol.Collection{
		"docs":  domcol.Reconstruct("docs", collation.Spec{}, nil, 1, 1),
		"temps": domcol.Reconstruct("temps", collation.Spec{}, &tsOpts, 1, 1),
	}}
	return New(colls, store, tsEnabled, 4)
}

func seedDocs(store *mockStore, docs ...map[string]any) {
	for _, doc := range docs {
		store.docs[doc[predicate.IDField].(string)] = doc
	}
}

func seedBucket(store *mockStore, id string, meta any, recs ...map[string]any) *timeseries.Bucket {
	b := timeseries.NewBucket(id, meta)
	for _, rec := range recs {
		b.Append(rec, tsOpts)
	}
	store.buckets = append(store.buckets, b)
	return b
}
