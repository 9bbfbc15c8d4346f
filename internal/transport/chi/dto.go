package chi

import (
	"time"

	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	domcol "github.com/kailas-cloud/bucketdb/internal/domain/collection"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeInvalidOptions   = "invalid_options"
	codeInvalidQuery     = "invalid_query"
	codeInvalidCollation = "invalid_collation"
	codeNotFound         = "not_found"
	codeAlreadyExists    = "already_exists"
	codeInternalError    = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CollationSpec mirrors collation.Spec on the wire.
type CollationSpec struct {
	Locale   string `json:"locale"`
	Strength int    `json:"strength,omitempty"`
}

// TimeseriesOptions mirrors timeseries.Options on the wire.
type TimeseriesOptions struct {
	TimeField   string `json:"time_field"`
	MetaField   string `json:"meta_field,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// CreateCollectionRequest is the body of POST /collections.
type CreateCollectionRequest struct {
	Name       string             `json:"name"`
	Collation  *CollationSpec     `json:"collation,omitempty"`
	Timeseries *TimeseriesOptions `json:"timeseries,omitempty"`
}

// CollectionResponse is the representation of a collection.
type CollectionResponse struct {
	Name       string             `json:"name"`
	Collation  *CollationSpec     `json:"collation,omitempty"`
	Timeseries *TimeseriesOptions `json:"timeseries,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	Revision   int                `json:"revision"`
}

// CollectionListResponse is the body of GET /collections.
type CollectionListResponse struct {
	Items []CollectionResponse `json:"items"`
	Total int                  `json:"total"`
}

// InsertDocumentResponse reports where an inserted document landed.
type InsertDocumentResponse struct {
	ID       string `json:"id,omitempty"`
	BucketID string `json:"bucket_id,omitempty"`
	Created  bool   `json:"created"`
}

// DocumentListResponse is the body of GET /collections/{collection}/documents.
type DocumentListResponse struct {
	Items []map[string]any `json:"items"`
	Total int              `json:"total"`
}

// DeleteCommandRequest is the body of POST /collections/{collection}/deletes.
// Filter uses the operator query shape ({"age": {"$gt": 25}}). A nil filter
// matches every document.
type DeleteCommandRequest struct {
	Filter        map[string]any `json:"filter,omitempty"`
	Multi         bool           `json:"multi,omitempty"`
	Sort          map[string]int `json:"sort,omitempty"`
	Collation     *CollationSpec `json:"collation,omitempty"`
	Hint          string         `json:"hint,omitempty"`
	Let           map[string]any `json:"let,omitempty"`
	ReturnDeleted bool           `json:"return_deleted,omitempty"`
	Projection    []string       `json:"projection,omitempty"`
}

// DeleteCommandResponse reports the delete outcome.
type DeleteCommandResponse struct {
	DeletedCount int64          `json:"deleted_count"`
	Deleted      map[string]any `json:"deleted,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func collationFromDTO(s *CollationSpec) collation.Spec {
	if s == nil {
		return collation.Spec{}
	}
	return collation.Spec{Locale: s.Locale, Strength: s.Strength}
}

func collationToDTO(s collation.Spec) *CollationSpec {
	if s.IsZero() {
		return nil
	}
	return &CollationSpec{Locale: s.Locale, Strength: s.Strength}
}

func timeseriesFromDTO(o *TimeseriesOptions) *timeseries.Options {
	if o == nil {
		return nil
	}
	return &timeseries.Options{
		TimeField:   o.TimeField,
		MetaField:   o.MetaField,
		Granularity: timeseries.Granularity(o.Granularity),
	}
}

func timeseriesToDTO(o *timeseries.Options) *TimeseriesOptions {
	if o == nil {
		return nil
	}
	return &TimeseriesOptions{
		TimeField:   o.TimeField,
		MetaField:   o.MetaField,
		Granularity: string(o.Granularity),
	}
}

func collectionToDTO(c domcol.Collection) CollectionResponse {
	return CollectionResponse{
		Name:       c.Name(),
		Collation:  collationToDTO(c.DefaultCollation()),
		Timeseries: timeseriesToDTO(c.TimeseriesOptions()),
		CreatedAt:  time.UnixMilli(c.CreatedAt()).UTC(),
		Revision:   c.Revision(),
	}
}
