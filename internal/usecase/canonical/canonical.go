// Package canonical turns a find descriptor into a canonical query: a parsed,
// normalized, validated form that executors consume.
package canonical

import (
	"fmt"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	"github.com/kailas-cloud/bucketdb/internal/domain/expression"
	"github.com/kailas-cloud/bucketdb/internal/domain/find"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
)

// Features gates which operator families a caller admits into the filter.
type Features uint32

const (
	// FeatureElemMatch permits $elemMatch.
	FeatureElemMatch Features = 1 << iota
	// FeatureNegation permits $not and $nor.
	FeatureNegation
)

// DefaultFeatures enables every operator family the parser understands.
const DefaultFeatures = FeatureElemMatch | FeatureNegation

// maxTreeDepth bounds filter nesting to keep recursion in check.
const maxTreeDepth = 100

// Query is an immutable canonical query.
type Query struct {
	namespace string
	filter    predicate.Node
	sort      map[string]int
	collation collation.Spec
	collator  *collation.Collator
	hint      string
	limit     int64
	let       map[string]any
	isExplain bool
}

// Namespace returns the target namespace.
func (q *Query) Namespace() string { return q.namespace }

// Filter returns the normalized filter tree.
func (q *Query) Filter() predicate.Node { return q.filter }

// Sort returns the sort specification.
func (q *Query) Sort() map[string]int { return q.sort }

// Collation returns the collation the query was canonicalized under.
func (q *Query) Collation() collation.Spec { return q.collation }

// Collator returns the resolved collator.
func (q *Query) Collator() *collation.Collator { return q.collator }

// Hint returns the index hint, empty for none.
func (q *Query) Hint() string { return q.hint }

// Limit returns the result limit, 0 for unlimited.
func (q *Query) Limit() int64 { return q.limit }

// Let returns the validated let bindings.
func (q *Query) Let() map[string]any { return q.let }

// IsExplain reports whether the query explains rather than executes.
func (q *Query) IsExplain() bool { return q.isExplain }

// Compiler canonicalizes find descriptors.
type Compiler struct{}

// NewCompiler creates a Compiler.
func NewCompiler() *Compiler { return &Compiler{} }

// Canonicalize parses, validates and normalizes the descriptor's filter and
// assembles the canonical query. When ectx carries active expression
// counters, consumed filter nodes are counted.
func (c *Compiler) Canonicalize(
	desc find.Descriptor, isExplain bool, ectx *expression.Context, features Features,
) (*Query, error) {
	if desc.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", domain.ErrInvalidQuery)
	}
	for field, dir := range desc.Sort {
		if dir != 1 && dir != -1 {
			return nil, fmt.Errorf("%w: sort direction for %q must be 1 or -1", domain.ErrInvalidQuery, field)
		}
	}
	for name := range desc.Let {
		if name == "" || name[0] == '$' {
			return nil, fmt.Errorf("%w: invalid let binding name %q", domain.ErrInvalidQuery, name)
		}
	}

	parsed, err := predicate.Parse(desc.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}
	if err := validate(parsed, features, 1, ectx); err != nil {
		return nil, err
	}

	var coll *collation.Collator
	if ectx != nil {
		coll = ectx.Collator
	}
	if coll == nil {
		coll, err = collation.New(desc.Collation)
		if err != nil {
			return nil, err
		}
	}

	return &Query{
		namespace: desc.Namespace,
		filter:    normalize(parsed),
		sort:      desc.Sort,
		collation: desc.Collation,
		collator:  coll,
		hint:      desc.Hint,
		limit:     desc.Limit,
		let:       desc.Let,
		isExplain: isExplain,
	}, nil
}

// validate walks the parsed tree checking depth and feature gates, counting
// each node against the expression context.
func validate(n predicate.Node, features Features, depth int, ectx *expression.Context) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("%w: filter exceeds maximum nesting depth %d", domain.ErrInvalidQuery, maxTreeDepth)
	}
	if ectx != nil {
		ectx.CountExpression(predicate.Operator(n))
	}
	switch v := n.(type) {
	case predicate.And:
		for _, c := range v.Children {
			if err := validate(c, features, depth+1, ectx); err != nil {
				return err
			}
		}
	case predicate.Or:
		for _, c := range v.Children {
			if err := validate(c, features, depth+1, ectx); err != nil {
				return err
			}
		}
	case predicate.Not:
		if features&FeatureNegation == 0 {
			return fmt.Errorf("%w: negation is not allowed here", domain.ErrInvalidQuery)
		}
		return validate(v.Child, features, depth+1, ectx)
	case predicate.ElemMatch:
		if features&FeatureElemMatch == 0 {
			return fmt.Errorf("%w: $elemMatch is not allowed here", domain.ErrInvalidQuery)
		}
		return validate(v.Child, features, depth+1, ectx)
	}
	return nil
}

// normalize flattens same-kind nested conjunctions and disjunctions and
// collapses single-child ones, so equivalent filters compare equal.
func normalize(n predicate.Node) predicate.Node {
	switch v := n.(type) {
	case predicate.And:
		children := flatten(v.Children, true)
		if len(children) == 1 {
			return children[0]
		}
		return predicate.And{Children: children}
	case predicate.Or:
		children := flatten(v.Children, false)
		if len(children) == 1 {
			return children[0]
		}
		return predicate.Or{Children: children}
	case predicate.Not:
		return predicate.Not{Child: normalize(v.Child)}
	case predicate.ElemMatch:
		return predicate.ElemMatch{Path: v.Path, Child: normalize(v.Child)}
	default:
		return n
	}
}

func flatten(children []predicate.Node, conjunction bool) []predicate.Node {
	out := make([]predicate.Node, 0, len(children))
	for _, c := range children {
		c = normalize(c)
		if conjunction {
			if and, ok := c.(predicate.And); ok {
				out = append(out, and.Children...)
				continue
			}
		} else {
			if or, ok := c.(predicate.Or); ok {
				out = append(out, or.Children...)
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
