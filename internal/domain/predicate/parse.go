package predicate

import (
	"fmt"
	"sort"
	"strings"
)

// Parse converts a map-based query document into a predicate tree.
// Query shape follows the usual document database conventions:
//
//	{ "age": { "$gt": 25 }, "status": "active" }
//	{ "$or": [ {"a": 1}, {"b": {"$in": [1, 2]}} ] }
//
// Map keys are visited in sorted order so that equal queries parse to equal trees.
func Parse(query map[string]any) (Node, error) {
	var nodes []Node

	for _, key := range sortedKeys(query) {
		val := query[key]
		switch key {
		case "$and", "$or", "$nor":
			children, err := parseList(key, val)
			if err != nil {
				return nil, err
			}
			switch key {
			case "$and":
				nodes = append(nodes, And{Children: children})
			case "$or":
				nodes = append(nodes, Or{Children: children})
			case "$nor":
				nodes = append(nodes, Not{Child: Or{Children: children}})
			}
		default:
			if strings.HasPrefix(key, "$") {
				return nil, fmt.Errorf("unknown top-level operator: %s", key)
			}
			fieldNodes, err := parseField(key, val)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, fieldNodes...)
		}
	}

	switch len(nodes) {
	case 0:
		return AlwaysTrue{}, nil
	case 1:
		return nodes[0], nil
	default:
		return And{Children: nodes}, nil
	}
}

func parseList(op string, val any) ([]Node, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("value for %s must be a list", op)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s must have at least one clause", op)
	}
	children := make([]Node, 0, len(list))
	for _, item := range list {
		subMap, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element of %s must be an object", op)
		}
		subNode, err := Parse(subMap)
		if err != nil {
			return nil, err
		}
		children = append(children, subNode)
	}
	return children, nil
}

func parseField(path string, val any) ([]Node, error) {
	opMap, ok := val.(map[string]any)
	if !ok || !isOperatorMap(opMap) {
		// Implicit equality
		return []Node{Comparison{Path: path, Op: OpEq, Value: val}}, nil
	}

	var nodes []Node
	for _, op := range sortedKeys(opMap) {
		opVal := opMap[op]
		switch CompareOp(op) {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			nodes = append(nodes, Comparison{Path: path, Op: CompareOp(op), Value: opVal})
			continue
		}
		switch op {
		case "$in":
			values, ok := opVal.([]any)
			if !ok {
				return nil, fmt.Errorf("$in on %s requires an array", path)
			}
			nodes = append(nodes, In{Path: path, Values: values})
		case "$exists":
			present, ok := opVal.(bool)
			if !ok {
				return nil, fmt.Errorf("$exists on %s requires a boolean", path)
			}
			nodes = append(nodes, Exists{Path: path, Present: present})
		case "$not":
			sub, ok := opVal.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("$not on %s requires an object", path)
			}
			inner, err := parseField(path, sub)
			if err != nil {
				return nil, err
			}
			var child Node
			if len(inner) == 1 {
				child = inner[0]
			} else {
				child = And{Children: inner}
			}
			nodes = append(nodes, Not{Child: child})
		case "$elemMatch":
			sub, ok := opVal.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("$elemMatch on %s requires an object", path)
			}
			var child Node
			var err error
			if isOperatorMap(sub) {
				inner, err := parseField("", sub)
				if err != nil {
					return nil, err
				}
				if len(inner) == 1 {
					child = inner[0]
				} else {
					child = And{Children: inner}
				}
			} else {
				child, err = Parse(sub)
				if err != nil {
					return nil, err
				}
			}
			nodes = append(nodes, ElemMatch{Path: path, Child: child})
		default:
			return nil, fmt.Errorf("unknown operator %s on field %s", op, path)
		}
	}
	return nodes, nil
}

// isOperatorMap reports whether m is an operator document ({"$gt": 5}) rather
// than a literal sub-document value. Mixing operators and literals is rejected
// downstream by the unknown-operator check.
func isOperatorMap(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
