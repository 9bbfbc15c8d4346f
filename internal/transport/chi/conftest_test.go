package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	domcol "github.com/kailas-cloud/bucketdb/internal/domain/collection"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
	collectionuc "github.com/kailas-cloud/bucketdb/internal/usecase/collection"
	deletionuc "github.com/kailas-cloud/bucketdb/internal/usecase/deletion"
	documentuc "github.com/kailas-cloud/bucketdb/internal/usecase/document"
)

// memCatalog is an in-memory collection catalog.
type memCatalog struct {
	cols map[string]domcol.Collection
}

func newMemCatalog() *memCatalog {
	return &memCatalog{cols: map[string]domcol.Collection{}}
}

func (m *memCatalog) Create(_ context.Context, col domcol.Collection) error {
	if _, ok := m.cols[col.Name()]; ok {
		return domain.ErrAlreadyExists
	}
	m.cols[col.Name()] = col
	return nil
}

func (m *memCatalog) Get(_ context.Context, name string) (domcol.Collection, error) {
	col, ok := m.cols[name]
	if !ok {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return col, nil
}

func (m *memCatalog) List(context.Context) ([]domcol.Collection, error) {
	names := make([]string, 0, len(m.cols))
	for name := range m.cols {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]domcol.Collection, 0, len(names))
	for _, name := range names {
		out = append(out, m.cols[name])
	}
	return out, nil
}

func (m *memCatalog) Delete(_ context.Context, name string) error {
	if _, ok := m.cols[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.cols, name)
	return nil
}

// memDocs is an in-memory document and bucket store.
type memDocs struct {
	docs    map[string]map[string]map[string]any
	buckets map[string][]*timeseries.Bucket
	nextID  int
}

func newMemDocs() *memDocs {
	return &memDocs{
		docs:    map[string]map[string]map[string]any{},
		buckets: map[string][]*timeseries.Bucket{},
	}
}

func (m *memDocs) Upsert(_ context.Context, collection string, doc map[string]any) (string, bool, error) {
	id, ok := doc["_id"].(string)
	if !ok {
		m.nextID++
		id = fmt.Sprintf("doc-%d", m.nextID)
		doc["_id"] = id
	}
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]map[string]any{}
	}
	_, existed := m.docs[collection][id]
	m.docs[collection][id] = doc
	return id, !existed, nil
}

func (m *memDocs) Get(_ context.Context, collection, id string) (map[string]any, error) {
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *memDocs) List(_ context.Context, collection string) ([]map[string]any, error) {
	ids := make([]string, 0, len(m.docs[collection]))
	for id := range m.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.docs[collection][id])
	}
	return out, nil
}

func (m *memDocs) Delete(_ context.Context, collection, id string) error {
	if _, ok := m.docs[collection][id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs[collection], id)
	return nil
}

func (m *memDocs) AppendRecord(
	_ context.Context, collection string, opts timeseries.Options, rec map[string]any,
) (string, error) {
	series := fmt.Sprintf("%v", rec[opts.MetaField])
	for _, b := range m.buckets[collection] {
		if !b.Closed && fmt.Sprintf("%v", b.Meta) == series {
			b.Append(rec, opts)
			return b.ID, nil
		}
	}
	m.nextID++
	b := timeseries.NewBucket(fmt.Sprintf("bucket-%d", m.nextID), rec[opts.MetaField])
	b.Append(rec, opts)
	m.buckets[collection] = append(m.buckets[collection], b)
	return b.ID, nil
}

func (m *memDocs) ListBuckets(_ context.Context, collection string) ([]*timeseries.Bucket, error) {
	return append([]*timeseries.Bucket(nil), m.buckets[collection]...), nil
}

func (m *memDocs) ReplaceBucket(_ context.Context, collection string, b *timeseries.Bucket) error {
	for i, cur := range m.buckets[collection] {
		if cur.ID == b.ID {
			m.buckets[collection][i] = b
			return nil
		}
	}
	m.buckets[collection] = append(m.buckets[collection], b)
	return nil
}

func (m *memDocs) DeleteBucket(_ context.Context, collection string, b *timeseries.Bucket) error {
	for i, cur := range m.buckets[collection] {
		if cur.ID == b.ID {
			m.buckets[collection] = append(m.buckets[collection][:i], m.buckets[collection][i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memDocs) DropAll(_ context.Context, collection string) error {
	delete(m.docs, collection)
	delete(m.buckets, collection)
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// newTestHandler wires the full service stack over in-memory stores.
func newTestHandler(t *testing.T, pinger Pinger) (http.Handler, *memDocs) {
	t.Helper()
	cat := newMemCatalog()
	docs := newMemDocs()

	srv := NewServer(
		collectionuc.New(cat, docs),
		documentuc.New(docs, cat),
		deletionuc.New(cat, docs, true, 0),
		pinger,
		zap.NewNop(),
	)
	r := chirouter.NewRouter()
	srv.Routes(r)
	return r, docs
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
