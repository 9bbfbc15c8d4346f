package predicate

import "strings"

// Matches evaluates a predicate tree against a document.
// sc may be nil for byte-order string comparison.
func Matches(n Node, doc map[string]any, sc StringComparer) bool {
	switch v := n.(type) {
	case AlwaysTrue:
		return true
	case And:
		for _, c := range v.Children {
			if !Matches(c, doc, sc) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range v.Children {
			if Matches(c, doc, sc) {
				return true
			}
		}
		return false
	case Not:
		return !Matches(v.Child, doc, sc)
	case Comparison:
		val, found := lookupPath(doc, v.Path)
		if !found {
			// A missing field only satisfies inequality.
			return v.Op == OpNe
		}
		return compareMatches(val, v.Op, v.Value, sc)
	case In:
		val, found := lookupPath(doc, v.Path)
		if !found {
			return false
		}
		for _, want := range v.Values {
			if compareMatches(val, OpEq, want, sc) {
				return true
			}
		}
		return false
	case Exists:
		_, found := lookupPath(doc, v.Path)
		return found == v.Present
	case ElemMatch:
		val, found := lookupPath(doc, v.Path)
		if !found {
			return false
		}
		arr, ok := val.([]any)
		if !ok {
			return false
		}
		for _, elem := range arr {
			if matchesElem(v.Child, elem, sc) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// matchesElem evaluates a child predicate against an array element. Object
// elements are matched as documents; scalar elements only satisfy empty-path
// comparisons on the element itself.
func matchesElem(n Node, elem any, sc StringComparer) bool {
	if doc, ok := elem.(map[string]any); ok {
		return Matches(n, doc, sc)
	}
	switch v := n.(type) {
	case Comparison:
		if v.Path != "" {
			return false
		}
		return compareMatches(elem, v.Op, v.Value, sc)
	case And:
		for _, c := range v.Children {
			if !matchesElem(c, elem, sc) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range v.Children {
			if matchesElem(c, elem, sc) {
				return true
			}
		}
		return false
	case Not:
		return !matchesElem(v.Child, elem, sc)
	case AlwaysTrue:
		return true
	default:
		return false
	}
}

// compareMatches applies op to (actual, expected). When actual is an array,
// the comparison matches if any element matches.
func compareMatches(actual any, op CompareOp, expected any, sc StringComparer) bool {
	if arr, ok := actual.([]any); ok {
		if op == OpNe {
			// $ne over an array requires no element to equal the operand.
			for _, elem := range arr {
				if scalarMatches(elem, OpEq, expected, sc) {
					return false
				}
			}
			return true
		}
		for _, elem := range arr {
			if scalarMatches(elem, op, expected, sc) {
				return true
			}
		}
		return false
	}
	return scalarMatches(actual, op, expected, sc)
}

func scalarMatches(actual any, op CompareOp, expected any, sc StringComparer) bool {
	cmp, ok := CompareValues(actual, expected, sc)
	if !ok {
		// Incomparable types never satisfy equality but do satisfy $ne.
		return op == OpNe
	}
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

// lookupPath resolves a dotted path inside a document.
func lookupPath(doc map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
