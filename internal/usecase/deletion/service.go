// Package deletion executes compiled delete requests against the storage
// layer: fast-path identifier deletes, filtered collection scans, wholesale
// bucket drops and record-level time-series deletes.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/deletereq"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
	"github.com/kailas-cloud/bucketdb/internal/metrics"
	"github.com/kailas-cloud/bucketdb/internal/usecase/canonical"
	"github.com/kailas-cloud/bucketdb/internal/usecase/deletecompile"
)

// Service executes delete requests.
type Service struct {
	colls      CollectionReader
	docs       DocumentStore
	tsEnabled  bool
	yieldEvery int
}

// New creates a delete service. yieldEvery controls how many storage items
// are processed between cancellation checks.
func New(colls CollectionReader, docs DocumentStore, tsEnabled bool, yieldEvery int) *Service {
	if yieldEvery <= 0 {
		yieldEvery = 64
	}
	return &Service{colls: colls, docs: docs, tsEnabled: tsEnabled, yieldEvery: yieldEvery}
}

// Result reports the outcome of a delete.
type Result struct {
	DeletedCount int64
	// Deleted carries the removed document when the request asked for it.
	Deleted map[string]any
}

// Execute compiles and runs one delete request. The request namespace names
// the target collection.
func (s *Service) Execute(ctx context.Context, req *deletereq.Request) (Result, error) {
	col, err := s.colls.Get(ctx, req.Namespace())
	if err != nil {
		return Result{}, fmt.Errorf("get collection: %w", err)
	}

	compiler := deletecompile.New(deletecompile.Params{
		Request:                  req,
		Collection:               col,
		TimeseriesDelete:         col.IsTimeseries(),
		TimeseriesDeletesEnabled: s.tsEnabled,
	})
	if err := compiler.Validate(); err != nil {
		return Result{}, err
	}

	y := newYielder(compiler.YieldPolicy(), s.yieldEvery)

	if id, ok := compiler.FastPathID(); ok {
		return s.deleteByID(ctx, req, id)
	}

	query := compiler.ReleaseParsedQuery()

	if col.IsTimeseries() {
		exprs := compiler.TimeseriesExprs()
		if !compiler.IsEligibleForArbitraryTimeseriesDelete() {
			return s.dropBuckets(ctx, req, query, y)
		}
		return s.deleteRecords(ctx, req, query, exprs, y)
	}
	return s.deleteDocuments(ctx, req, query, y)
}

// deleteByID resolves a fast-path delete with a direct lookup.
func (s *Service) deleteByID(ctx context.Context, req *deletereq.Request, id any) (Result, error) {
	key, ok := id.(string)
	if !ok {
		key = fmt.Sprintf("%v", id)
	}
	doc, err := s.docs.Get(ctx, req.Namespace(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("get document: %w", err)
	}
	if err := s.docs.Delete(ctx, req.Namespace(), key); err != nil {
		return Result{}, fmt.Errorf("delete document: %w", err)
	}
	metrics.DeletedDocumentsTotal.WithLabelValues("fast_path").Inc()

	res := Result{DeletedCount: 1}
	if req.ReturnDeleted() {
		res.Deleted = project(doc, req.Projection())
	}
	return res, nil
}

// deleteDocuments scans a plain collection and deletes matching documents.
func (s *Service) deleteDocuments(
	ctx context.Context, req *deletereq.Request, query *canonical.Query, y *yielder,
) (Result, error) {
	docs, err := s.docs.List(ctx, req.Namespace())
	if err != nil {
		return Result{}, fmt.Errorf("list documents: %w", err)
	}

	matched := make([]map[string]any, 0)
	for _, doc := range docs {
		if err := y.tick(ctx); err != nil {
			return Result{}, err
		}
		if predicate.Matches(query.Filter(), doc, query.Collator()) {
			matched = append(matched, doc)
		}
	}

	if len(query.Sort()) > 0 {
		sortDocs(matched, query.Sort(), query.Collator())
	}
	if !req.Multi() && len(matched) > 1 {
		matched = matched[:1]
	}
	if query.Limit() > 0 && int64(len(matched)) > query.Limit() {
		matched = matched[:query.Limit()]
	}

	var res Result
	for _, doc := range matched {
		if err := y.tick(ctx); err != nil {
			return res, err
		}
		id, _ := doc[predicate.IDField].(string)
		if err := s.docs.Delete(ctx, req.Namespace(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // raced with another delete
			}
			return res, fmt.Errorf("delete document %s: %w", id, err)
		}
		res.DeletedCount++
		if req.ReturnDeleted() && res.Deleted == nil {
			res.Deleted = project(doc, req.Projection())
		}
	}
	metrics.DeletedDocumentsTotal.WithLabelValues("collection_scan").Add(float64(res.DeletedCount))
	return res, nil
}

// dropBuckets deletes whole buckets whose control document matches the exact
// bucket filter. Only reached when the split produced no residual and the
// request is a multi-delete.
func (s *Service) dropBuckets(
	ctx context.Context, req *deletereq.Request, query *canonical.Query, y *yielder,
) (Result, error) {
	buckets, err := s.docs.ListBuckets(ctx, req.Namespace())
	if err != nil {
		return Result{}, fmt.Errorf("list buckets: %w", err)
	}

	var res Result
	for _, b := range buckets {
		if err := y.tick(ctx); err != nil {
			return res, err
		}
		if !predicate.Matches(query.Filter(), b.ControlDoc(), query.Collator()) {
			continue
		}
		if err := s.docs.DeleteBucket(ctx, req.Namespace(), b); err != nil {
			return res, fmt.Errorf("delete bucket %s: %w", b.ID, err)
		}
		res.DeletedCount += int64(b.Count())
	}
	metrics.DeletedDocumentsTotal.WithLabelValues("bucket_drop").Add(float64(res.DeletedCount))
	return res, nil
}

// deleteRecords unpacks candidate buckets and removes records matching the
// residual filter, rewriting each touched bucket.
func (s *Service) deleteRecords(
	ctx context.Context, req *deletereq.Request, query *canonical.Query,
	exprs *timeseries.WriteQueryExprs, y *yielder,
) (Result, error) {
	buckets, err := s.docs.ListBuckets(ctx, req.Namespace())
	if err != nil {
		return Result{}, fmt.Errorf("list buckets: %w", err)
	}

	col, err := s.colls.Get(ctx, req.Namespace())
	if err != nil {
		return Result{}, fmt.Errorf("get collection: %w", err)
	}
	opts := *col.TimeseriesOptions()

	residual := exprs.Residual
	if residual == nil {
		residual = predicate.AlwaysTrue{}
	}

	var res Result
	done := false
	for _, b := range buckets {
		if done {
			break
		}
		if err := y.tick(ctx); err != nil {
			return res, err
		}
		if !predicate.Matches(query.Filter(), b.ControlDoc(), query.Collator()) {
			continue
		}

		removed := map[int]bool{}
		for i, rec := range b.Records {
			if err := y.tick(ctx); err != nil {
				return res, err
			}
			if !predicate.Matches(residual, rec, query.Collator()) {
				continue
			}
			removed[i] = true
			res.DeletedCount++
			if req.ReturnDeleted() && res.Deleted == nil {
				res.Deleted = project(rec, req.Projection())
			}
			if !req.Multi() {
				done = true
				break
			}
		}
		if len(removed) == 0 {
			continue
		}

		b.RemoveRecords(removed, opts)
		if b.Count() == 0 {
			if err := s.docs.DeleteBucket(ctx, req.Namespace(), b); err != nil {
				return res, fmt.Errorf("delete bucket %s: %w", b.ID, err)
			}
		} else if err := s.docs.ReplaceBucket(ctx, req.Namespace(), b); err != nil {
			return res, fmt.Errorf("replace bucket %s: %w", b.ID, err)
		}
	}
	metrics.DeletedDocumentsTotal.WithLabelValues("arbitrary").Add(float64(res.DeletedCount))
	return res, nil
}

// project returns doc reduced to the requested fields. The identifier field
// is always kept.
func project(doc map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return doc
	}
	out := make(map[string]any, len(fields)+1)
	if id, ok := doc[predicate.IDField]; ok {
		out[predicate.IDField] = id
	}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

// sortDocs orders docs by the sort spec. Fields apply in name order, which
// keeps the comparison deterministic.
func sortDocs(docs []map[string]any, spec map[string]int, sc predicate.StringComparer) {
	fields := make([]string, 0, len(spec))
	for f := range spec {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			cmp, ok := predicate.CompareValues(docs[i][f], docs[j][f], sc)
			if !ok || cmp == 0 {
				continue
			}
			if spec[f] < 0 {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// yielder periodically surfaces context cancellation during long scans.
type yielder struct {
	every  int
	n      int
	active bool
}

func newYielder(policy deletereq.YieldPolicy, every int) *yielder {
	return &yielder{every: every, active: policy != deletereq.YieldNone}
}

func (y *yielder) tick(ctx context.Context) error {
	if !y.active {
		return nil
	}
	y.n++
	if y.n%y.every != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete interrupted: %w", err)
	}
	return nil
}
