// Package timeseries models time-series collection options, the bucket-level
// storage layout, and the bucket/residual predicate split used by the write
// path.
package timeseries

import (
	"fmt"

	"github.com/kailas-cloud/bucketdb/internal/domain"
)

// Granularity controls the maximum time span covered by one bucket.
type Granularity string

const (
	GranularitySeconds Granularity = "seconds"
	GranularityMinutes Granularity = "minutes"
	GranularityHours   Granularity = "hours"
)

// Max bucket spans per granularity, in seconds.
const (
	maxSpanSeconds = 3600
	maxSpanMinutes = 86400
	maxSpanHours   = 2592000
)

// Options are the time-series options of a collection. TimeField values are
// epoch milliseconds; MetaField (optional) names the per-series metadata
// field that is constant within a bucket.
type Options struct {
	TimeField   string      `json:"timeField" yaml:"time_field"`
	MetaField   string      `json:"metaField,omitempty" yaml:"meta_field,omitempty"`
	Granularity Granularity `json:"granularity,omitempty" yaml:"granularity,omitempty"`
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.TimeField == "" {
		return fmt.Errorf("%w: timeField is required", domain.ErrInvalidOptions)
	}
	if o.TimeField == o.MetaField {
		return fmt.Errorf("%w: timeField and metaField must differ", domain.ErrInvalidOptions)
	}
	switch o.Granularity {
	case "", GranularitySeconds, GranularityMinutes, GranularityHours:
		return nil
	default:
		return fmt.Errorf("%w: unknown granularity %q", domain.ErrInvalidOptions, o.Granularity)
	}
}

// MaxSpanMillis returns the maximum time span of one bucket in milliseconds.
func (o Options) MaxSpanMillis() int64 {
	switch o.Granularity {
	case GranularityMinutes:
		return maxSpanMinutes * 1000
	case GranularityHours:
		return maxSpanHours * 1000
	default:
		return maxSpanSeconds * 1000
	}
}
