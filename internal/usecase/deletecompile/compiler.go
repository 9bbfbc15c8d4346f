// Package deletecompile turns a validated delete request into its executable
// form: either a fast-path identifier lookup or a canonical query, with
// time-series requests split into bucket and residual filters first.
package deletecompile

import (
	"fmt"

	"github.com/kailas-cloud/bucketdb/internal/domain"
	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	"github.com/kailas-cloud/bucketdb/internal/domain/collection"
	"github.com/kailas-cloud/bucketdb/internal/domain/deletereq"
	"github.com/kailas-cloud/bucketdb/internal/domain/expression"
	"github.com/kailas-cloud/bucketdb/internal/domain/find"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
	"github.com/kailas-cloud/bucketdb/internal/metrics"
	"github.com/kailas-cloud/bucketdb/internal/usecase/canonical"
)

// Params assembles a Compiler.
type Params struct {
	Request    *deletereq.Request
	Collection collection.Collection

	// TimeseriesDelete marks the request as targeting the records of a
	// time-series collection rather than its raw buckets.
	TimeseriesDelete bool

	// TimeseriesDeletesEnabled gates deletes whose predicate reaches beyond
	// the metadata field, or that delete a single record.
	TimeseriesDeletesEnabled bool
}

// Compiler compiles one delete request. It is single-use: New, then Validate
// exactly once, then the accessors.
type Compiler struct {
	req       *deletereq.Request
	coll      collection.Collection
	tsDelete  bool
	tsEnabled bool

	ectx      *expression.Context
	exprs     *timeseries.WriteQueryExprs
	query     *canonical.Query
	fastID    any
	fastPath  bool
	validated bool
}

// New creates a Compiler for one request. For time-series deletes the bucket
// and residual filters are derived immediately so that eligibility can be
// inspected before Validate runs.
func New(p Params) *Compiler {
	c := &Compiler{
		req:       p.Request,
		coll:      p.Collection,
		tsDelete:  p.TimeseriesDelete,
		tsEnabled: p.TimeseriesDeletesEnabled,
	}
	if p.TimeseriesDelete {
		domain.Invariant(p.Collection.IsTimeseries(),
			"time-series delete against plain collection %s", p.Collection.Name())
		exprs := timeseries.SplitForWrite(p.Request.Predicate(), *p.Collection.TimeseriesOptions(), nil)
		c.exprs = &exprs
	}
	return c
}

// Validate resolves the collation, applies the fast path when possible and
// otherwise compiles the canonical query. Called exactly once per Compiler.
func (c *Compiler) Validate() error {
	domain.Invariant(!c.validated, "delete compiler validated twice")
	c.validated = true
	domain.Invariant(!(c.req.ReturnDeleted() && c.req.Multi()),
		"returnDeleted with multi on %s", c.req.Namespace())
	domain.Invariant(len(c.req.Projection()) == 0 || c.req.ReturnDeleted(),
		"projection without returnDeleted on %s", c.req.Namespace())

	collator, matchesDefault, err := collation.Resolve(c.req.Collation(), c.coll.DefaultCollation())
	if err != nil {
		metrics.DeleteCompileTotal.WithLabelValues("invalid").Inc()
		return err
	}
	c.ectx = expression.NewContext(collator, c.req.Namespace(), c.req.RuntimeConstants(), c.req.Let())
	c.ectx.CollationMatchesDefault = matchesDefault

	if c.tsDelete {
		if err := c.checkTimeseriesGate(); err != nil {
			metrics.DeleteCompileTotal.WithLabelValues("invalid").Inc()
			return err
		}
	}

	// A singleton equality on _id under the default collation needs no
	// canonical query; the executor resolves it with a direct lookup. A
	// projection forces full compilation.
	if id, ok := predicate.SimpleIDValue(c.req.Predicate()); ok &&
		!c.tsDelete && matchesDefault && len(c.req.Projection()) == 0 {
		c.fastID = id
		c.fastPath = true
		metrics.DeleteCompileTotal.WithLabelValues("fast_path").Inc()
		return nil
	}

	c.ectx.StartExpressionCounters()
	if err := c.compile(); err != nil {
		metrics.DeleteCompileTotal.WithLabelValues("invalid").Inc()
		return err
	}
	metrics.DeleteCompileTotal.WithLabelValues("canonicalized").Inc()
	return nil
}

// checkTimeseriesGate rejects delete shapes that the arbitrary time-series
// delete gate does not admit: predicates reaching past the metadata field,
// and singleton deletes.
func (c *Compiler) checkTimeseriesGate() error {
	if c.tsEnabled {
		return nil
	}
	if c.exprs.Residual != nil {
		return fmt.Errorf(
			"%w: time-series deletes may only filter on the metadata field while arbitrary deletes are disabled",
			domain.ErrInvalidOptions)
	}
	if !c.req.Multi() {
		return fmt.Errorf(
			"%w: single-record time-series deletes require arbitrary deletes to be enabled",
			domain.ErrInvalidOptions)
	}
	return nil
}

func (c *Compiler) compile() error {
	var filter map[string]any
	if c.tsDelete {
		// Re-derive the split under the compilation context so that the
		// consumed user nodes are counted. Counting stops here: the bucket
		// filter below is internal and must not inflate the counters.
		exprs := timeseries.SplitForWrite(c.req.Predicate(), *c.coll.TimeseriesOptions(), c.ectx)
		c.flushCounters()
		domain.Invariant(exprs.Bucket != nil, "time-series split produced no bucket filter")
		c.exprs = &exprs
		if exprs.Residual != nil {
			metrics.TimeseriesSplitTotal.WithLabelValues("residual").Inc()
		} else {
			metrics.TimeseriesSplitTotal.WithLabelValues("exact").Inc()
		}
		filter = predicate.Serialize(exprs.Bucket)
	} else if c.req.Predicate() != nil {
		filter = predicate.Serialize(c.req.Predicate())
	} else {
		filter = map[string]any{}
	}

	desc := find.Descriptor{
		Namespace:        c.req.Namespace(),
		Filter:           filter,
		Sort:             c.req.Sort(),
		Collation:        c.req.Collation(),
		Hint:             c.req.Hint(),
		RuntimeConstants: c.req.RuntimeConstants(),
		Let:              c.req.Let(),
	}
	if !c.req.Multi() && len(c.req.Sort()) > 0 {
		if c.exprs != nil {
			return fmt.Errorf("%w: cannot sort deletes on a time-series collection", domain.ErrInvalidOptions)
		}
		desc.Limit = 1
	}

	query, err := canonical.NewCompiler().Canonicalize(desc, c.req.IsExplain(), c.ectx, canonical.DefaultFeatures)
	if !c.tsDelete {
		c.flushCounters()
	}
	if err != nil {
		return err
	}
	c.query = query
	return nil
}

// flushCounters stops expression counting and publishes the per-operator
// totals.
func (c *Compiler) flushCounters() {
	for op, n := range c.ectx.StopExpressionCounters() {
		metrics.ExpressionNodesTotal.WithLabelValues(op).Add(float64(n))
	}
}

// HasParsedQuery reports whether a canonical query was built and not yet
// released. Fast-path deletes never build one.
func (c *Compiler) HasParsedQuery() bool { return c.query != nil }

// ReleaseParsedQuery hands the canonical query over to the executor. The
// query is released at most once.
func (c *Compiler) ReleaseParsedQuery() *canonical.Query {
	domain.Invariant(c.query != nil, "canonical query released twice or never built")
	q := c.query
	c.query = nil
	return q
}

// IsFastPath reports whether the delete resolves to a direct identifier
// lookup.
func (c *Compiler) IsFastPath() bool { return c.fastPath }

// FastPathID returns the identifier operand of a fast-path delete.
func (c *Compiler) FastPathID() (any, bool) { return c.fastID, c.fastPath }

// YieldPolicy derives the executor yield policy: privileged requests never
// yield, an explicit override wins otherwise.
func (c *Compiler) YieldPolicy() deletereq.YieldPolicy {
	if c.req.God() {
		return deletereq.YieldNone
	}
	if o := c.req.YieldOverride(); o != nil {
		return *o
	}
	return deletereq.YieldAuto
}

// IsEligibleForArbitraryTimeseriesDelete reports whether the delete must run
// through the record-level time-series path: a residual filter remains, or a
// single record is deleted out of a bucket.
func (c *Compiler) IsEligibleForArbitraryTimeseriesDelete() bool {
	return c.exprs != nil && (c.exprs.Residual != nil || !c.req.Multi())
}

// TimeseriesExprs returns the bucket and residual filters of a time-series
// delete, nil otherwise.
func (c *Compiler) TimeseriesExprs() *timeseries.WriteQueryExprs { return c.exprs }

// Request returns the underlying request.
func (c *Compiler) Request() *deletereq.Request { return c.req }

// Context returns the compilation context; nil before Validate.
func (c *Compiler) Context() *expression.Context { return c.ectx }
