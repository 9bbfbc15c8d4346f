// Package document handles document ingestion and retrieval.
package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/bucketdb/internal/domain"
)

// Service handles document writes and reads, routing time-series records into
// buckets.
type Service struct {
	repo  Repository
	colls CollectionReader
}

// New creates a document service.
func New(repo Repository, colls CollectionReader) *Service {
	return &Service{repo: repo, colls: colls}
}

// InsertResult reports where an inserted document ended up.
type InsertResult struct {
	ID       string
	BucketID string
	Created  bool
}

// Insert stores a document. On a time-series collection the document is
// packed as a record into its series bucket; the time field is required and
// must be numeric (epoch milliseconds).
func (s *Service) Insert(ctx context.Context, collectionName string, doc map[string]any) (InsertResult, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return InsertResult{}, fmt.Errorf("get collection: %w", err)
	}

	if col.IsTimeseries() {
		opts := *col.TimeseriesOptions()
		if !isEpochMillis(doc[opts.TimeField]) {
			return InsertResult{}, fmt.Errorf(
				"%w: field %q must be present and numeric on a time-series collection",
				domain.ErrInvalidOptions, opts.TimeField)
		}
		bucketID, err := s.repo.AppendRecord(ctx, collectionName, opts, doc)
		if err != nil {
			return InsertResult{}, fmt.Errorf("append record: %w", err)
		}
		return InsertResult{BucketID: bucketID, Created: true}, nil
	}

	id, created, err := s.repo.Upsert(ctx, collectionName, doc)
	if err != nil {
		return InsertResult{}, fmt.Errorf("upsert document: %w", err)
	}
	return InsertResult{ID: id, Created: created}, nil
}

// Get retrieves a document by identifier from a plain collection.
func (s *Service) Get(ctx context.Context, collectionName, id string) (map[string]any, error) {
	doc, err := s.repo.Get(ctx, collectionName, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns all documents of a plain collection.
func (s *Service) List(ctx context.Context, collectionName string) ([]map[string]any, error) {
	docs, err := s.repo.List(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func isEpochMillis(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	}
	return false
}
