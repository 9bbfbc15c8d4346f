package predicate

// IDField is the document identifier field.
const IDField = "_id"

// IsSimpleIDQuery reports whether a predicate is a single scalar equality on
// the identifier field. Such deletes skip canonicalization entirely and are
// resolved by a direct identifier lookup.
//
// The recognized shapes are `{_id: <scalar>}` and a one-clause conjunction of
// it; anything broader (operators other than equality, array or document
// operands, extra clauses) goes through the full compilation path.
func IsSimpleIDQuery(n Node) bool {
	_, ok := SimpleIDValue(n)
	return ok
}

// SimpleIDValue extracts the identifier operand of a simple identifier
// equality, when the predicate has that shape.
func SimpleIDValue(n Node) (any, bool) {
	if and, ok := n.(And); ok {
		if len(and.Children) != 1 {
			return nil, false
		}
		n = and.Children[0]
	}
	cmp, ok := n.(Comparison)
	if !ok || cmp.Path != IDField || cmp.Op != OpEq {
		return nil, false
	}
	switch cmp.Value.(type) {
	case map[string]any, []any:
		return nil, false
	}
	return cmp.Value, true
}
