// Package predicate implements the closed query predicate language of bucketdb.
//
// Structured queries (e.g. `{"temp": {"$gt": 100}}`) are modelled as a tagged
// variant tree. The time-series write path rewrites these trees into
// bucket-level and residual filters; the execution stage evaluates them
// against documents and unpacked records.
package predicate

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEq  CompareOp = "$eq"
	OpNe  CompareOp = "$ne"
	OpGt  CompareOp = "$gt"
	OpGte CompareOp = "$gte"
	OpLt  CompareOp = "$lt"
	OpLte CompareOp = "$lte"
)

// Node is the common interface of all predicate tree nodes. The set of
// implementations is closed: rewrites are structural recursions over it.
type Node interface {
	isNode()
}

// Comparison compares the value at a dotted path against a constant.
type Comparison struct {
	Path  string
	Op    CompareOp
	Value any
}

func (Comparison) isNode() {}

// In matches when the value at Path equals any of Values.
type In struct {
	Path   string
	Values []any
}

func (In) isNode() {}

// Exists checks presence (or absence) of a field.
type Exists struct {
	Path    string
	Present bool
}

func (Exists) isNode() {}

// ElemMatch matches when any element of the array at Path satisfies Child.
// Child paths are resolved relative to the element; an empty path addresses
// the element itself.
type ElemMatch struct {
	Path  string
	Child Node
}

func (ElemMatch) isNode() {}

// And is a conjunction of child predicates.
type And struct {
	Children []Node
}

func (And) isNode() {}

// Or is a disjunction of child predicates.
type Or struct {
	Children []Node
}

func (Or) isNode() {}

// Not negates its child predicate.
type Not struct {
	Child Node
}

func (Not) isNode() {}

// AlwaysTrue matches every document. The empty query parses to it and
// bucket-level rewrites fall back to it when no sound bound exists.
type AlwaysTrue struct{}

func (AlwaysTrue) isNode() {}

// Operator returns the wire operator name of a node kind, for diagnostics
// and expression counters.
func Operator(n Node) string {
	switch v := n.(type) {
	case Comparison:
		return string(v.Op)
	case In:
		return "$in"
	case Exists:
		return "$exists"
	case ElemMatch:
		return "$elemMatch"
	case And:
		return "$and"
	case Or:
		return "$or"
	case Not:
		return "$not"
	case AlwaysTrue:
		return "$alwaysTrue"
	default:
		return "$unknown"
	}
}
