// Package collation resolves request collation specifications into string
// comparators used by predicate evaluation and canonicalization.
package collation

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/bucketdb/internal/domain"
)

// SimpleLocale selects plain byte-order comparison.
const SimpleLocale = "simple"

// DefaultStrength is the comparison level used when a spec leaves it unset.
const DefaultStrength = 3

// Spec is a collation specification as supplied on a request or stored as a
// collection default. The zero Spec means "unspecified".
type Spec struct {
	Locale   string `json:"locale" yaml:"locale"`
	Strength int    `json:"strength,omitempty" yaml:"strength,omitempty"`
}

// IsZero reports whether the spec is unspecified.
func (s Spec) IsZero() bool { return s.Locale == "" && s.Strength == 0 }

// normalized fills defaults so that equivalent specs compare equal.
func (s Spec) normalized() Spec {
	if s.Locale == "" {
		s.Locale = SimpleLocale
	}
	if s.Strength == 0 {
		s.Strength = DefaultStrength
	}
	return s
}

// Equal compares two specs after normalization.
func (s Spec) Equal(other Spec) bool {
	return s.normalized() == other.normalized()
}

// Collator compares strings under a resolved collation.
type Collator struct {
	spec Spec
	coll *collate.Collator // nil means simple byte-order comparison
}

// New builds a Collator from a spec.
func New(spec Spec) (*Collator, error) {
	spec = spec.normalized()
	if spec.Strength < 1 || spec.Strength > 5 {
		return nil, fmt.Errorf("%w: strength must be in [1, 5], got %d",
			domain.ErrInvalidCollation, spec.Strength)
	}
	if spec.Locale == SimpleLocale {
		return &Collator{spec: spec}, nil
	}

	tag, err := language.Parse(spec.Locale)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown locale %q: %w", domain.ErrInvalidCollation, spec.Locale, err)
	}

	var opts []collate.Option
	switch {
	case spec.Strength <= 1:
		opts = append(opts, collate.IgnoreCase, collate.IgnoreDiacritics)
	case spec.Strength == 2:
		opts = append(opts, collate.IgnoreCase)
	}

	return &Collator{spec: spec, coll: collate.New(tag, opts...)}, nil
}

// Spec returns the normalized spec the collator was built from.
func (c *Collator) Spec() Spec { return c.spec }

// IsSimple reports whether the collator is plain byte-order comparison.
func (c *Collator) IsSimple() bool { return c.coll == nil }

// CompareStrings orders a and b under the collation.
// Implements predicate.StringComparer.
func (c *Collator) CompareStrings(a, b string) int {
	if c == nil || c.coll == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return c.coll.CompareString(a, b)
}

// Resolve determines the effective collator for a request against a
// collection default. An unspecified request spec inherits the collection
// default. The second return reports whether the effective collation matches
// the collection default.
func Resolve(request, collectionDefault Spec) (*Collator, bool, error) {
	effective := request
	if effective.IsZero() {
		effective = collectionDefault
	}

	coll, err := New(effective)
	if err != nil {
		return nil, false, err
	}
	return coll, effective.Equal(collectionDefault), nil
}
