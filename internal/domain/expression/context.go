// Package expression carries the shared evaluation context of one query
// compilation: the resolved collator, runtime constants, let-bindings and
// expression counters.
package expression

import (
	"time"

	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
)

// RuntimeConstants are the server-supplied constants available to a query
// ($$NOW and friends), pinned once per operation.
type RuntimeConstants struct {
	Now         time.Time
	ClusterTime int64
}

// Context is created once per compilation and passed by reference through the
// compilation call chain (builder, splitter, canonicalizer). It is owned by a
// single compilation and is not safe for concurrent use.
type Context struct {
	Collator                *collation.Collator
	Namespace               string
	CollationMatchesDefault bool
	RuntimeConstants        *RuntimeConstants
	Let                     map[string]any

	countersActive bool
	counters       map[string]int64
}

// NewContext creates a compilation context.
func NewContext(coll *collation.Collator, namespace string, rc *RuntimeConstants, let map[string]any) *Context {
	return &Context{
		Collator:         coll,
		Namespace:        namespace,
		RuntimeConstants: rc,
		Let:              let,
		counters:         make(map[string]int64),
	}
}

// StartExpressionCounters begins counting consumed predicate nodes. Counters
// are started once per compilation, right before the user predicate is
// consumed, and stopped as soon as it has been fully consumed so that
// internal expressions introduced by rewriting are not double-counted.
func (c *Context) StartExpressionCounters() { c.countersActive = true }

// StopExpressionCounters stops counting and returns the per-operator counts
// accumulated while active. Stopping an inactive context returns nil.
func (c *Context) StopExpressionCounters() map[string]int64 {
	if !c.countersActive {
		return nil
	}
	c.countersActive = false
	out := c.counters
	c.counters = make(map[string]int64)
	return out
}

// CountExpression records one consumed node of the given operator.
// A no-op while counters are stopped.
func (c *Context) CountExpression(operator string) {
	if !c.countersActive {
		return
	}
	c.counters[operator]++
}

// CountersActive reports whether expression counting is in progress.
func (c *Context) CountersActive() bool { return c.countersActive }
