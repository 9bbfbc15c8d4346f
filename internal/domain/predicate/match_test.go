package predicate

import "testing"

func mustParse(t *testing.T, q map[string]any) Node {
	t.Helper()
	n, err := Parse(q)
	if err != nil {
		t.Fatalf("parse %v: %v", q, err)
	}
	return n
}

func TestMatchesComparisons(t *testing.T) {
	doc := map[string]any{
		"name":   "sensor-1",
		"temp":   21.5,
		"count":  3,
		"active": true,
		"meta":   map[string]any{"site": "north"},
	}

	tests := []struct {
		name  string
		query map[string]any
		want  bool
	}{
		{"eq string", map[string]any{"name": "sensor-1"}, true},
		{"eq string miss", map[string]any{"name": "sensor-2"}, false},
		{"gt", map[string]any{"temp": map[string]any{"$gt": 20.0}}, true},
		{"gt miss", map[string]any{"temp": map[string]any{"$gt": 30.0}}, false},
		{"gte boundary", map[string]any{"temp": map[string]any{"$gte": 21.5}}, true},
		{"lt int vs float", map[string]any{"count": map[string]any{"$lt": 10.0}}, true},
		{"ne", map[string]any{"name": map[string]any{"$ne": "sensor-2"}}, true},
		{"ne on missing field", map[string]any{"ghost": map[string]any{"$ne": 1}}, true},
		{"eq on missing field", map[string]any{"ghost": 1}, false},
		{"nested path", map[string]any{"meta.site": "north"}, true},
		{"nested path miss", map[string]any{"meta.site": "south"}, false},
		{"bool", map[string]any{"active": true}, true},
		{"incomparable types", map[string]any{"temp": "hot"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(mustParse(t, tt.query), doc, nil); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestMatchesLogical(t *testing.T) {
	doc := map[string]any{"a": 1.0, "b": 2.0}

	tests := []struct {
		name  string
		query map[string]any
		want  bool
	}{
		{"and both", map[string]any{"a": 1.0, "b": 2.0}, true},
		{"and one fails", map[string]any{"a": 1.0, "b": 3.0}, false},
		{"or first", map[string]any{"$or": []any{
			map[string]any{"a": 1.0}, map[string]any{"b": 99.0},
		}}, true},
		{"or none", map[string]any{"$or": []any{
			map[string]any{"a": 9.0}, map[string]any{"b": 99.0},
		}}, false},
		{"nor", map[string]any{"$nor": []any{map[string]any{"a": 9.0}}}, true},
		{"field not", map[string]any{"a": map[string]any{"$not": map[string]any{"$gt": 5.0}}}, true},
		{"empty query", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(mustParse(t, tt.query), doc, nil); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestMatchesArraysAndElemMatch(t *testing.T) {
	doc := map[string]any{
		"tags": []any{"a", "b"},
		"readings": []any{
			map[string]any{"v": 1.0},
			map[string]any{"v": 7.0},
		},
		"values": []any{1.0, 5.0, 9.0},
	}

	tests := []struct {
		name  string
		query map[string]any
		want  bool
	}{
		{"array contains", map[string]any{"tags": "a"}, true},
		{"array missing element", map[string]any{"tags": "z"}, false},
		{"in", map[string]any{"tags": map[string]any{"$in": []any{"z", "b"}}}, true},
		{"in miss", map[string]any{"tags": map[string]any{"$in": []any{"z"}}}, false},
		{"exists", map[string]any{"tags": map[string]any{"$exists": true}}, true},
		{"exists false", map[string]any{"ghost": map[string]any{"$exists": false}}, true},
		{"elemMatch doc", map[string]any{"readings": map[string]any{
			"$elemMatch": map[string]any{"v": map[string]any{"$gt": 5.0}},
		}}, true},
		{"elemMatch doc miss", map[string]any{"readings": map[string]any{
			"$elemMatch": map[string]any{"v": map[string]any{"$gt": 50.0}},
		}}, false},
		{"elemMatch scalar range", map[string]any{"values": map[string]any{
			"$elemMatch": map[string]any{"$gt": 4.0, "$lt": 6.0},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(mustParse(t, tt.query), doc, nil); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSimpleIDQuery(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]any
		want  bool
	}{
		{"bare id", map[string]any{"_id": 5.0}, true},
		{"explicit eq", map[string]any{"_id": map[string]any{"$eq": "k1"}}, true},
		{"id with extra clause", map[string]any{"_id": 5.0, "a": 1.0}, false},
		{"non-id field", map[string]any{"a": 5.0}, false},
		{"id range", map[string]any{"_id": map[string]any{"$gt": 5.0}}, false},
		{"array operand", map[string]any{"_id": []any{1.0}}, false},
		{"empty", map[string]any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := mustParse(t, tt.query)
			if got := IsSimpleIDQuery(n); got != tt.want {
				t.Errorf("IsSimpleIDQuery(%v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}

	v, ok := SimpleIDValue(mustParse(t, map[string]any{"_id": "k1"}))
	if !ok || v != "k1" {
		t.Errorf("SimpleIDValue = (%v, %v), want (k1, true)", v, ok)
	}
}
