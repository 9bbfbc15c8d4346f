// Package collection holds the collection aggregate: name, default collation
// and optional time-series options.
package collection

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Collection is the collection aggregate (immutable value object).
type Collection struct {
	name             string
	defaultCollation collation.Spec
	tsOptions        *timeseries.Options
	createdAt        int64
	revision         int
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrInvalidOptions)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: collection name too long (max 64)", domain.ErrInvalidOptions)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: collection name must be alphanumeric with underscores and hyphens", domain.ErrInvalidOptions)
	}
	return nil
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. The default collation is validated by
// constructing a collator; tsOptions, when set, make this a time-series
// collection.
func New(name string, defaultCollation collation.Spec, tsOptions *timeseries.Options) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if _, err := collation.New(defaultCollation); err != nil {
		return Collection{}, err
	}
	if tsOptions != nil {
		if err := tsOptions.Validate(); err != nil {
			return Collection{}, err
		}
	}

	return Collection{
		name:             name,
		defaultCollation: defaultCollation,
		tsOptions:        tsOptions,
		createdAt:        time.Now().UnixMilli(),
		revision:         1,
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(
	name string, defaultCollation collation.Spec,
	tsOptions *timeseries.Options, createdAt int64, revision int,
) Collection {
	return Collection{
		name:             name,
		defaultCollation: defaultCollation,
		tsOptions:        tsOptions,
		createdAt:        createdAt,
		revision:         revision,
	}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// DefaultCollation returns the collection-level default collation.
func (c Collection) DefaultCollation() collation.Spec { return c.defaultCollation }

// IsTimeseries reports whether the collection stores time-series buckets.
func (c Collection) IsTimeseries() bool { return c.tsOptions != nil }

// TimeseriesOptions returns the time-series options, nil for plain collections.
func (c Collection) TimeseriesOptions() *timeseries.Options { return c.tsOptions }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// Revision returns the optimistic concurrency version.
func (c Collection) Revision() int { return c.revision }
