// Package deletereq models a validated delete request, the input of the
// delete compilation pipeline.
package deletereq

import (
	"fmt"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	"github.com/kailas-cloud/bucketdb/internal/domain/expression"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
)

// YieldPolicy selects how the executor yields between storage batches.
type YieldPolicy int

const (
	// YieldAuto yields periodically, honoring context cancellation.
	YieldAuto YieldPolicy = iota
	// YieldNone never yields; used by privileged internal operations.
	YieldNone
)

// Params carries the raw fields of a delete request into New.
type Params struct {
	Namespace        string
	Predicate        predicate.Node
	Collation        collation.Spec
	Sort             map[string]int
	Hint             string
	Multi            bool
	ReturnDeleted    bool
	Projection       []string
	RuntimeConstants *expression.RuntimeConstants
	Let              map[string]any
	YieldOverride    *YieldPolicy
	God              bool
	IsExplain        bool
}

// Request is a validated, immutable delete request.
type Request struct {
	p Params
}

// New validates the parameter combination and creates a Request.
func New(p Params) (*Request, error) {
	if p.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", domain.ErrInvalidOptions)
	}
	if p.ReturnDeleted && p.Multi {
		return nil, fmt.Errorf("%w: cannot use returnDeleted with multi", domain.ErrInvalidOptions)
	}
	if len(p.Projection) > 0 && !p.ReturnDeleted {
		return nil, fmt.Errorf("%w: projection requires returnDeleted", domain.ErrInvalidOptions)
	}
	for field, dir := range p.Sort {
		if dir != 1 && dir != -1 {
			return nil, fmt.Errorf("%w: sort direction for %q must be 1 or -1", domain.ErrInvalidOptions, field)
		}
	}
	return &Request{p: p}, nil
}

// Namespace returns the target collection namespace.
func (r *Request) Namespace() string { return r.p.Namespace }

// Predicate returns the user filter, nil meaning match-all.
func (r *Request) Predicate() predicate.Node { return r.p.Predicate }

// Collation returns the request-level collation, zero meaning inherit.
func (r *Request) Collation() collation.Spec { return r.p.Collation }

// Sort returns the sort specification applied before the single delete.
func (r *Request) Sort() map[string]int { return r.p.Sort }

// Hint returns the index hint, empty for none.
func (r *Request) Hint() string { return r.p.Hint }

// Multi reports whether all matching documents are deleted.
func (r *Request) Multi() bool { return r.p.Multi }

// ReturnDeleted reports whether the deleted document is returned.
func (r *Request) ReturnDeleted() bool { return r.p.ReturnDeleted }

// Projection returns the fields projected onto the returned document.
func (r *Request) Projection() []string { return r.p.Projection }

// RuntimeConstants returns the pinned server constants, nil if unset.
func (r *Request) RuntimeConstants() *expression.RuntimeConstants { return r.p.RuntimeConstants }

// Let returns the user-provided let bindings.
func (r *Request) Let() map[string]any { return r.p.Let }

// YieldOverride returns the explicit yield policy, nil meaning derive it.
func (r *Request) YieldOverride() *YieldPolicy { return r.p.YieldOverride }

// God reports whether the request bypasses normal execution constraints.
func (r *Request) God() bool { return r.p.God }

// IsExplain reports whether this is an explain of the delete.
func (r *Request) IsExplain() bool { return r.p.IsExplain }
