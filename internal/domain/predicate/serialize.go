package predicate

// Serialize converts a predicate tree back into its map-based query form.
// Serialize and Parse round-trip: Parse(Serialize(n)) produces an equivalent tree.
func Serialize(n Node) map[string]any {
	switch v := n.(type) {
	case AlwaysTrue:
		return map[string]any{}
	case And:
		return map[string]any{"$and": serializeList(v.Children)}
	case Or:
		return map[string]any{"$or": serializeList(v.Children)}
	case Not:
		// General negation serializes as $nor over the negated disjuncts.
		if or, ok := v.Child.(Or); ok {
			return map[string]any{"$nor": serializeList(or.Children)}
		}
		return map[string]any{"$nor": []any{Serialize(v.Child)}}
	case Comparison:
		return map[string]any{v.Path: map[string]any{string(v.Op): v.Value}}
	case In:
		return map[string]any{v.Path: map[string]any{"$in": v.Values}}
	case Exists:
		return map[string]any{v.Path: map[string]any{"$exists": v.Present}}
	case ElemMatch:
		return map[string]any{v.Path: map[string]any{"$elemMatch": serializeElemChild(v.Child)}}
	default:
		return map[string]any{}
	}
}

func serializeList(children []Node) []any {
	out := make([]any, len(children))
	for i, c := range children {
		out[i] = Serialize(c)
	}
	return out
}

// serializeElemChild renders an $elemMatch child. Empty-path comparisons
// collapse to a bare operator document on the element itself.
func serializeElemChild(n Node) map[string]any {
	switch v := n.(type) {
	case Comparison:
		if v.Path == "" {
			return map[string]any{string(v.Op): v.Value}
		}
	case And:
		allBare := true
		for _, c := range v.Children {
			cmp, ok := c.(Comparison)
			if !ok || cmp.Path != "" {
				allBare = false
				break
			}
		}
		if allBare {
			out := make(map[string]any, len(v.Children))
			for _, c := range v.Children {
				cmp := c.(Comparison)
				out[string(cmp.Op)] = cmp.Value
			}
			return out
		}
	}
	return Serialize(n)
}
