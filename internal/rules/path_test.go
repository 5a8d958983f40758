package rules

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/casecheck/casecheck/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad test data %q: %v", s, err)
	}
	return v
}

// Test normal path resolution cases
func TestResolve_Normal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		data     string
		expected []any
	}{
		{
			name:     "nested object traversal",
			path:     "$.user.name",
			data:     `{"user": {"name": "Alice"}}`,
			expected: []any{"Alice"},
		},
		{
			name:     "array index access",
			path:     "$.users[0].name",
			data:     `{"users": [{"name": "Bob"}]}`,
			expected: []any{"Bob"},
		},
		{
			name:     "negative array index",
			path:     "$.users[-1].name",
			data:     `{"users": [{"name": "Bob"}, {"name": "Carol"}]}`,
			expected: []any{"Carol"},
		},
		{
			name:     "wildcard over array",
			path:     "$.items[*].price",
			data:     `{"items": [{"price": 10}, {"price": 20}]}`,
			expected: []any{float64(10), float64(20)},
		},
		{
			name:     "dot wildcard over object sorted keys",
			path:     "$.*.value",
			data:     `{"z": {"value": 1}, "a": {"value": 2}, "m": {"value": 3}}`,
			expected: []any{float64(2), float64(3), float64(1)},
		},
		{
			name:     "slice start and end",
			path:     "$.nums[1:3]",
			data:     `{"nums": [10, 20, 30, 40]}`,
			expected: []any{float64(20), float64(30)},
		},
		{
			name:     "slice open end",
			path:     "$.nums[2:]",
			data:     `{"nums": [10, 20, 30, 40]}`,
			expected: []any{float64(30), float64(40)},
		},
		{
			name:     "slice open start",
			path:     "$.nums[:2]",
			data:     `{"nums": [10, 20, 30, 40]}`,
			expected: []any{float64(10), float64(20)},
		},
		{
			name:     "recursive descent finds all depths",
			path:     "$..price",
			data:     `{"price": 1, "item": {"price": 2, "sub": {"price": 3}}}`,
			expected: []any{float64(1), float64(2), float64(3)},
		},
		{
			name:     "filter numeric comparison",
			path:     "$.items[?(@.price > 10)].name",
			data:     `{"items": [{"name": "a", "price": 5}, {"name": "b", "price": 15}]}`,
			expected: []any{"b"},
		},
		{
			name:     "filter string equality",
			path:     `$.items[?(@.status == 'active')].id`,
			data:     `{"items": [{"id": 1, "status": "active"}, {"id": 2, "status": "done"}]}`,
			expected: []any{float64(1)},
		},
		{
			name:     "filter dotted field",
			path:     "$.items[?(@.meta.rank >= 2)].id",
			data:     `{"items": [{"id": 1, "meta": {"rank": 1}}, {"id": 2, "meta": {"rank": 2}}]}`,
			expected: []any{float64(2)},
		},
		{
			name:     "filter existence check",
			path:     "$.items[?(@.tag)].id",
			data:     `{"items": [{"id": 1, "tag": "x"}, {"id": 2}]}`,
			expected: []any{float64(1)},
		},
		{
			name:     "bracket quoted key",
			path:     `$['weird key'].v`,
			data:     `{"weird key": {"v": 7}}`,
			expected: []any{float64(7)},
		},
		{
			name:     "root marker optional",
			path:     "user.name",
			data:     `{"user": {"name": "Alice"}}`,
			expected: []any{"Alice"},
		},
		{
			name:     "matched null is a match",
			path:     "$.value",
			data:     `{"value": null}`,
			expected: []any{nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := Resolve(tt.path, decode(t, tt.data))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !reflect.DeepEqual(matches, tt.expected) {
				t.Errorf("Resolve() = %v, expected %v", matches, tt.expected)
			}
		})
	}
}

// Test recursive descent with a trailing segment after the matched key
func TestResolve_RecursiveWithTail(t *testing.T) {
	data := decode(t, `{"a": {"item": {"id": 1}}, "b": [{"item": {"id": 2}}]}`)

	matches, err := Resolve("$..item.id", data)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	expected := []any{float64(1), float64(2)}
	if !reflect.DeepEqual(matches, expected) {
		t.Errorf("Resolve() = %v, expected %v", matches, expected)
	}
}

// Test missing and empty match sets
func TestResolve_NotFound(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
	}{
		{name: "missing key", path: "$.missing", data: `{"user": 1}`},
		{name: "missing nested key", path: "$.a.b.c", data: `{"a": {"x": 1}}`},
		{name: "index out of bounds", path: "$.nums[5]", data: `{"nums": [1, 2]}`},
		{name: "wildcard over empty array", path: "$.items[*].price", data: `{"items": []}`},
		{name: "field on scalar", path: "$.value.nested", data: `{"value": "scalar"}`},
		{name: "field on array", path: "$.nums.key", data: `{"nums": [1, 2]}`},
		{name: "index on object", path: "$.obj[0]", data: `{"obj": {"0": "v"}}`},
		{name: "filter matches nothing", path: "$.items[?(@.price > 100)]", data: `{"items": [{"price": 5}]}`},
		{name: "recursive key absent", path: "$..nope", data: `{"a": {"b": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.path, decode(t, tt.data))
			if !errors.Is(err, types.ErrPathNotFound) {
				t.Errorf("Resolve() error = %v, expected ErrPathNotFound", err)
			}
		})
	}
}

// Test syntax errors
func TestResolve_Syntax(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "empty path", path: ""},
		{name: "whitespace only", path: "   "},
		{name: "trailing dot", path: "$.user."},
		{name: "recursive without key", path: "$.."},
		{name: "unclosed bracket", path: "$.items[0"},
		{name: "non-numeric index", path: "$.items[x]"},
		{name: "bad slice bound", path: "$.items[a:2]"},
		{name: "filter without at-sign", path: "$.items[?(price > 10)]"},
		{name: "filter bad literal", path: "$.items[?(@.price > oops)]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.path, decode(t, `{"items": [1]}`))
			if !errors.Is(err, types.ErrPathSyntax) {
				t.Errorf("Resolve() error = %v, expected ErrPathSyntax", err)
			}
		})
	}
}

// Property-based test: resolution never crashes
func TestResolve_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	data := decode(t, `{"key": [{"key": "value"}, {"key": [1, 2, {"key": null}]}]}`)

	properties.Property("arbitrary expressions never panic", prop.ForAll(
		func(path string) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Resolve(%q) panicked: %v", path, r)
				}
			}()
			_, _ = Resolve(path, data)
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Property-based test: resolution is deterministic
func TestResolve_PropertyDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	data := decode(t, `{"z": {"value": 1}, "a": {"value": 2}, "m": {"value": 3}}`)

	properties.Property("wildcard resolution is deterministic", prop.ForAll(
		func(seed int) bool {
			m1, err1 := Resolve("$.*.value", data)
			m2, err2 := Resolve("$.*.value", data)
			if (err1 == nil) != (err2 == nil) {
				return false
			}
			return reflect.DeepEqual(m1, m2)
		},
		gen.Int(),
	))

	properties.TestingRun(t)
}

// Deeply nested adversarial input stops rather than overflowing the stack
func TestResolve_DeepNesting(t *testing.T) {
	var data any = "leaf"
	for i := 0; i < 500; i++ {
		data = map[string]any{"a": data}
	}

	_, err := Resolve("$..leaf", data)
	if !errors.Is(err, types.ErrPathNotFound) {
		t.Errorf("Resolve() error = %v, expected ErrPathNotFound", err)
	}
}
