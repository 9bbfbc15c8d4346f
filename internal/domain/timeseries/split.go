package timeseries

import (
	"strings"

	"github.com/kailas-cloud/bucketdb/internal/domain/expression"
	"github.com/kailas-cloud/bucketdb/internal/domain/predicate"
)

// WriteQueryExprs is the outcome of splitting a user predicate for the
// time-series write path. Bucket is evaluated against bucket control
// documents and is never nil; it matches a superset of the buckets holding
// qualifying records. Residual, when non-nil, must be re-applied to
// individually unpacked records; a nil Residual means the bucket filter is
// exact.
type WriteQueryExprs struct {
	Bucket   predicate.Node
	Residual predicate.Node
}

// SplitForWrite decomposes a user predicate into a bucket-level filter and an
// optional residual filter. ectx may be nil when the split is computed before
// the expression context exists; when present, consumed nodes are counted
// through it.
//
// Soundness: every record matched by expr lies in a bucket whose control
// document matches the returned Bucket expression.
func SplitForWrite(expr predicate.Node, opts Options, ectx *expression.Context) WriteQueryExprs {
	s := splitter{opts: opts, ectx: ectx}

	if expr == nil {
		expr = predicate.AlwaysTrue{}
	}
	r := s.split(expr)

	bucket := r.bucket
	if r.residual != nil {
		// Closed buckets carry no trustworthy summaries and must always be
		// fetched when per-record filtering is still pending. Exact splits
		// touch only bucket-constant fields and need no such clause.
		bucket = predicate.Or{Children: []predicate.Node{
			bucket,
			predicate.Comparison{Path: ControlClosedPath, Op: predicate.OpEq, Value: true},
		}}
	}
	return WriteQueryExprs{Bucket: bucket, Residual: r.residual}
}

type splitter struct {
	opts Options
	ectx *expression.Context
}

// splitResult is the rewrite outcome for one subtree. residual == nil marks
// the bucket expression as exact for that subtree.
type splitResult struct {
	bucket   predicate.Node
	residual predicate.Node
}

func exact(bucket predicate.Node) splitResult {
	return splitResult{bucket: bucket}
}

func inexact(bucket, residual predicate.Node) splitResult {
	return splitResult{bucket: bucket, residual: residual}
}

func (s splitter) count(n predicate.Node) {
	if s.ectx != nil {
		s.ectx.CountExpression(predicate.Operator(n))
	}
}

func (s splitter) split(n predicate.Node) splitResult {
	s.count(n)
	switch v := n.(type) {
	case predicate.AlwaysTrue:
		return exact(v)

	case predicate.And:
		buckets := make([]predicate.Node, 0, len(v.Children))
		var residuals []predicate.Node
		for _, c := range v.Children {
			r := s.split(c)
			buckets = append(buckets, r.bucket)
			if r.residual != nil {
				residuals = append(residuals, r.residual)
			}
		}
		bucket := predicate.Node(predicate.And{Children: buckets})
		switch len(residuals) {
		case 0:
			return exact(bucket)
		case 1:
			return inexact(bucket, residuals[0])
		default:
			return inexact(bucket, predicate.And{Children: residuals})
		}

	case predicate.Or:
		buckets := make([]predicate.Node, 0, len(v.Children))
		allExact := true
		for _, c := range v.Children {
			r := s.split(c)
			buckets = append(buckets, r.bucket)
			if r.residual != nil {
				allExact = false
			}
		}
		bucket := predicate.Node(predicate.Or{Children: buckets})
		if allExact {
			return exact(bucket)
		}
		// A disjunction with any inexact branch keeps the whole original
		// predicate as residual; per-branch residuals cannot be recombined
		// without losing records that match through an exact branch.
		return inexact(bucket, n)

	case predicate.Not:
		r := s.split(v.Child)
		if r.residual == nil {
			return exact(predicate.Not{Child: r.bucket})
		}
		return inexact(predicate.AlwaysTrue{}, n)

	case predicate.Comparison:
		return s.splitComparison(v)

	case predicate.In:
		if s.isMetaPath(v.Path) {
			return exact(predicate.In{Path: s.rewriteMetaPath(v.Path), Values: v.Values})
		}
		disjuncts := make([]predicate.Node, 0, len(v.Values))
		for _, val := range v.Values {
			r := s.splitComparison(predicate.Comparison{Path: v.Path, Op: predicate.OpEq, Value: val})
			disjuncts = append(disjuncts, r.bucket)
		}
		if len(disjuncts) == 0 {
			// $in [] matches nothing; an empty residual conjunction keeps
			// the rewrite sound without matching any bucket.
			return inexact(predicate.Not{Child: predicate.AlwaysTrue{}}, n)
		}
		return inexact(predicate.Or{Children: disjuncts}, n)

	case predicate.Exists:
		if s.isMetaPath(v.Path) {
			return exact(predicate.Exists{Path: s.rewriteMetaPath(v.Path), Present: v.Present})
		}
		return inexact(predicate.AlwaysTrue{}, n)

	case predicate.ElemMatch:
		if s.isMetaPath(v.Path) {
			return exact(predicate.ElemMatch{Path: s.rewriteMetaPath(v.Path), Child: v.Child})
		}
		return inexact(predicate.AlwaysTrue{}, n)

	default:
		return inexact(predicate.AlwaysTrue{}, n)
	}
}

// splitComparison rewrites a single comparison. Meta-field comparisons are
// exact; time and measurement comparisons are bounded through the control
// summaries and always need the original comparison as residual.
func (s splitter) splitComparison(v predicate.Comparison) splitResult {
	if s.isMetaPath(v.Path) {
		return exact(predicate.Comparison{Path: s.rewriteMetaPath(v.Path), Op: v.Op, Value: v.Value})
	}

	// Control summaries only cover top-level record fields; nested paths
	// have no sound bucket-level bound.
	if strings.Contains(v.Path, ".") {
		return inexact(predicate.AlwaysTrue{}, v)
	}

	minPath := ControlMinPrefix + v.Path
	maxPath := ControlMaxPrefix + v.Path

	var bound predicate.Node
	switch v.Op {
	case predicate.OpEq:
		bound = predicate.And{Children: []predicate.Node{
			predicate.Comparison{Path: minPath, Op: predicate.OpLte, Value: v.Value},
			predicate.Comparison{Path: maxPath, Op: predicate.OpGte, Value: v.Value},
		}}
	case predicate.OpLt, predicate.OpLte:
		bound = predicate.Comparison{Path: minPath, Op: v.Op, Value: v.Value}
	case predicate.OpGt, predicate.OpGte:
		bound = predicate.Comparison{Path: maxPath, Op: v.Op, Value: v.Value}
		if v.Path == s.opts.TimeField {
			if millis, ok := toMillis(v.Value); ok {
				// The bucket minimum cannot trail the operand by more than
				// the maximum bucket span; the extra bound narrows scans.
				bound = predicate.And{Children: []predicate.Node{
					bound,
					predicate.Comparison{Path: minPath, Op: predicate.OpGte, Value: millis - s.opts.MaxSpanMillis()},
				}}
			}
		}
	default: // $ne and anything unbounded
		return inexact(predicate.AlwaysTrue{}, v)
	}

	if v.Path != s.opts.TimeField {
		// Buckets may lack a summary for this field (mixed-type values);
		// such buckets must still be fetched.
		bound = predicate.Or{Children: []predicate.Node{
			bound,
			predicate.Exists{Path: minPath, Present: false},
		}}
	}
	return inexact(bound, v)
}

func (s splitter) isMetaPath(path string) bool {
	meta := s.opts.MetaField
	if meta == "" {
		return false
	}
	return path == meta || strings.HasPrefix(path, meta+".")
}

// rewriteMetaPath maps a user meta-field path onto the bucket document:
// "tags" -> "meta", "tags.site" -> "meta.site".
func (s splitter) rewriteMetaPath(path string) string {
	return MetaPath + strings.TrimPrefix(path, s.opts.MetaField)
}
