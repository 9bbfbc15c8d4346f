package timeseries

import "github.com/kailas-cloud/bucketdb/internal/domain/predicate"

// Control document field paths, as seen by bucket-level filters.
const (
	ControlMinPrefix  = "control.min."
	ControlMaxPrefix  = "control.max."
	ControlCountPath  = "control.count"
	ControlClosedPath = "control.closed"
	MetaPath          = "meta"
)

// Bucket is a storage-level grouping of time-series records sharing the same
// series metadata. Control summaries carry per-field minima and maxima over
// the packed records; bucket-level filters are evaluated against ControlDoc.
type Bucket struct {
	ID         string           `json:"id"`
	Meta       any              `json:"meta,omitempty"`
	ControlMin map[string]any   `json:"controlMin"`
	ControlMax map[string]any   `json:"controlMax"`
	Closed     bool             `json:"closed"`
	Records    []map[string]any `json:"records"`
}

// NewBucket creates an empty open bucket for a series.
func NewBucket(id string, meta any) *Bucket {
	return &Bucket{
		ID:         id,
		Meta:       meta,
		ControlMin: map[string]any{},
		ControlMax: map[string]any{},
	}
}

// Append packs a record into the bucket and refreshes the control summaries.
// The metadata field is stored once on the bucket, not summarized.
func (b *Bucket) Append(rec map[string]any, opts Options) {
	b.Records = append(b.Records, rec)
	b.Resummarize(opts)
}

// RemoveRecords drops the records at the given indices and refreshes the
// control summaries.
func (b *Bucket) RemoveRecords(indices map[int]bool, opts Options) {
	kept := b.Records[:0]
	for i, rec := range b.Records {
		if !indices[i] {
			kept = append(kept, rec)
		}
	}
	b.Records = kept
	b.Resummarize(opts)
}

// Resummarize recomputes ControlMin/ControlMax from the packed records.
// Fields whose values cannot be mutually ordered (mixed types) are left out
// of the summaries; bucket-level filters treat unsummarized fields as
// unbounded, so dropping them never loses a bucket.
func (b *Bucket) Resummarize(opts Options) {
	minima := map[string]any{}
	maxima := map[string]any{}
	mixed := map[string]bool{}

	for _, rec := range b.Records {
		for field, val := range rec {
			if field == opts.MetaField || mixed[field] {
				continue
			}
			cur, seen := minima[field]
			if !seen {
				minima[field] = val
				maxima[field] = val
				continue
			}
			cmp, ok := predicate.CompareValues(val, cur, nil)
			if !ok {
				mixed[field] = true
				delete(minima, field)
				delete(maxima, field)
				continue
			}
			if cmp < 0 {
				minima[field] = val
			}
			if cmp2, _ := predicate.CompareValues(val, maxima[field], nil); cmp2 > 0 {
				maxima[field] = val
			}
		}
	}

	b.ControlMin = minima
	b.ControlMax = maxima
}

// Count returns the number of packed records.
func (b *Bucket) Count() int { return len(b.Records) }

// ControlDoc renders the bucket metadata document that bucket-level filters
// are evaluated against:
//
//	{ "control": { "min": {...}, "max": {...}, "count": n, "closed": bool }, "meta": ... }
func (b *Bucket) ControlDoc() map[string]any {
	doc := map[string]any{
		"control": map[string]any{
			"min":    b.ControlMin,
			"max":    b.ControlMax,
			"count":  len(b.Records),
			"closed": b.Closed,
		},
	}
	if b.Meta != nil {
		doc["meta"] = b.Meta
	}
	return doc
}

// SpanMillis returns the time span currently covered by the bucket.
func (b *Bucket) SpanMillis(opts Options) int64 {
	minV, okMin := toMillis(b.ControlMin[opts.TimeField])
	maxV, okMax := toMillis(b.ControlMax[opts.TimeField])
	if !okMin || !okMax {
		return 0
	}
	return maxV - minV
}

func toMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
