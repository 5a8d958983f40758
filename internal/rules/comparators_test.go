package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/casecheck/casecheck/internal/regexguard"
	"github.com/casecheck/casecheck/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Test comparison outcomes across the comparator vocabulary
func TestCompare_Normal(t *testing.T) {
	guard := regexguard.NewGuard()

	tests := []struct {
		name     string
		cmp      Comparator
		actual   any
		expected any
		want     bool
	}{
		{name: "eq strings", cmp: CmpEq, actual: "a", expected: "a", want: true},
		{name: "eq numeric tolerance", cmp: CmpEq, actual: 3.0, expected: 3, want: true},
		{name: "eq mismatched kinds", cmp: CmpEq, actual: "3", expected: 3, want: false},
		{name: "eq sequences element-wise", cmp: CmpEq, actual: []any{1.0, "a"}, expected: []any{1, "a"}, want: true},
		{name: "neq", cmp: CmpNeq, actual: "a", expected: "b", want: true},

		{name: "gt numbers", cmp: CmpGt, actual: 5.0, expected: 3, want: true},
		{name: "gt numeric strings", cmp: CmpGt, actual: "5", expected: "3", want: true},
		{name: "gt incomparable", cmp: CmpGt, actual: "abc", expected: 3, want: false},
		{name: "lt", cmp: CmpLt, actual: 2.0, expected: 3, want: true},
		{name: "gte equal", cmp: CmpGte, actual: 3.0, expected: 3, want: true},
		{name: "lte equal", cmp: CmpLte, actual: 3.0, expected: 3, want: true},

		{name: "contains substring", cmp: CmpContains, actual: "hello world", expected: "world", want: true},
		{name: "contains sequence element", cmp: CmpContains, actual: []any{1.0, 2.0}, expected: 2, want: true},
		{name: "contains mapping key", cmp: CmpContains, actual: map[string]any{"k": 1}, expected: "k", want: true},
		{name: "contains number coerced", cmp: CmpContains, actual: 12345.0, expected: 234, want: true},
		{name: "not_contains", cmp: CmpNotContains, actual: []any{1.0}, expected: 2, want: true},

		{name: "startswith", cmp: CmpStartsWith, actual: "hello", expected: "he", want: true},
		{name: "startswith number coerced", cmp: CmpStartsWith, actual: 123.0, expected: 12, want: true},
		{name: "endswith", cmp: CmpEndsWith, actual: "hello", expected: "lo", want: true},

		{name: "matches", cmp: CmpMatches, actual: "order-42", expected: `^order-\d+$`, want: true},
		{name: "matches is a search", cmp: CmpMatches, actual: "xx42yy", expected: `\d+`, want: true},
		{name: "matches dangerous pattern fails closed", cmp: CmpMatches, actual: "aaaa", expected: "(a+)+", want: false},
		{name: "matches invalid pattern fails closed", cmp: CmpMatches, actual: "x", expected: "(", want: false},

		{name: "type_match int", cmp: CmpTypeMatch, actual: 3.0, expected: "int", want: true},
		{name: "type_match float is not int name", cmp: CmpTypeMatch, actual: 3.5, expected: "int", want: false},
		{name: "type_match bool is not int", cmp: CmpTypeMatch, actual: true, expected: "int", want: false},
		{name: "type_match str", cmp: CmpTypeMatch, actual: "x", expected: "str", want: true},
		{name: "type_match list", cmp: CmpTypeMatch, actual: []any{}, expected: "list", want: true},
		{name: "type_match dict", cmp: CmpTypeMatch, actual: map[string]any{}, expected: "dict", want: true},
		{name: "type_match bool", cmp: CmpTypeMatch, actual: false, expected: "bool", want: true},
		{name: "type_match null", cmp: CmpTypeMatch, actual: nil, expected: "null", want: true},
		{name: "type_match unknown name", cmp: CmpTypeMatch, actual: 3.0, expected: "integer", want: false},

		{name: "length_eq sequence", cmp: CmpLengthEq, actual: []any{1, 2, 3}, expected: 3, want: true},
		{name: "length_eq string expected", cmp: CmpLengthEq, actual: "ab", expected: "2", want: true},
		{name: "length_gt", cmp: CmpLengthGt, actual: "abcd", expected: 3, want: true},
		{name: "length_lt scalar has length zero", cmp: CmpLengthLt, actual: 42.0, expected: 1, want: true},

		{name: "is_null nil", cmp: CmpIsNull, actual: nil, expected: nil, want: true},
		{name: "is_null blank string", cmp: CmpIsNull, actual: "  ", expected: nil, want: true},
		{name: "is_null empty sequence", cmp: CmpIsNull, actual: []any{}, expected: nil, want: true},
		{name: "is_not_null", cmp: CmpIsNotNull, actual: "x", expected: nil, want: true},

		{name: "between inclusive low", cmp: CmpBetween, actual: 1.0, expected: []any{1, 10}, want: true},
		{name: "between inclusive high", cmp: CmpBetween, actual: 10.0, expected: []any{1, 10}, want: true},
		{name: "between outside", cmp: CmpBetween, actual: 11.0, expected: []any{1, 10}, want: false},
		{name: "between non-numeric actual", cmp: CmpBetween, actual: "abc", expected: []any{1, 10}, want: false},

		{name: "unknown comparator is false", cmp: CmpUnknown, actual: 1, expected: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.cmp, tt.actual, tt.expected, guard)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Test null handling rules per comparator
func TestCompare_NullRules(t *testing.T) {
	guard := regexguard.NewGuard()

	tests := []struct {
		name     string
		cmp      Comparator
		actual   any
		expected any
		want     bool
	}{
		{name: "eq both null", cmp: CmpEq, actual: nil, expected: nil, want: true},
		{name: "eq actual null only", cmp: CmpEq, actual: nil, expected: 1, want: false},
		{name: "eq expected null only", cmp: CmpEq, actual: 1, expected: nil, want: false},
		{name: "neq one null", cmp: CmpNeq, actual: nil, expected: 1, want: true},
		{name: "gt null actual", cmp: CmpGt, actual: nil, expected: 1, want: false},
		{name: "gt null expected", cmp: CmpGt, actual: 1, expected: nil, want: false},
		{name: "lt null actual", cmp: CmpLt, actual: nil, expected: 1, want: false},
		{name: "gte both null falls back to equality", cmp: CmpGte, actual: nil, expected: nil, want: true},
		{name: "gte one null", cmp: CmpGte, actual: nil, expected: 1, want: false},
		{name: "lte both null falls back to equality", cmp: CmpLte, actual: nil, expected: nil, want: true},
		{name: "startswith null actual", cmp: CmpStartsWith, actual: nil, expected: "x", want: false},
		{name: "startswith null expected", cmp: CmpStartsWith, actual: "x", expected: nil, want: false},
		{name: "endswith null actual", cmp: CmpEndsWith, actual: nil, expected: "x", want: false},
		{name: "matches null actual", cmp: CmpMatches, actual: nil, expected: ".*", want: false},
		{name: "matches null pattern", cmp: CmpMatches, actual: "x", expected: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.cmp, tt.actual, tt.expected, guard)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Test the one comparator error: between with a malformed expected value
func TestCompare_BetweenShape(t *testing.T) {
	guard := regexguard.NewGuard()

	for _, expected := range []any{
		"1..10",
		[]any{1},
		[]any{1, 2, 3},
		[]any{"low", 10},
		nil,
	} {
		_, err := Compare(CmpBetween, 5.0, expected, guard)
		if !errors.Is(err, types.ErrBadExpectedShape) {
			t.Errorf("Compare(between, %v) error = %v, expected ErrBadExpectedShape", expected, err)
		}
	}
}

// Property-based test: eq is reflexive and neq is its negation
func TestCompare_PropertyEqNeq(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	guard := regexguard.NewGuard()

	properties.Property("eq is reflexive for scalars", prop.ForAll(
		func(s string, n float64, b bool) bool {
			for _, v := range []any{s, n, b} {
				got, err := Compare(CmpEq, v, v, guard)
				if err != nil || !got {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.Float64Range(-1e9, 1e9),
		gen.Bool(),
	))

	properties.Property("neq negates eq", prop.ForAll(
		func(a, b float64) bool {
			eq, err1 := Compare(CmpEq, a, b, guard)
			neq, err2 := Compare(CmpNeq, a, b, guard)
			return err1 == nil && err2 == nil && eq != neq
		},
		gen.Float64Range(-1e9, 1e9),
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

// Property-based test: matches never raises regardless of pattern
func TestCompare_PropertyMatchesNeverErrors(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	guard := regexguard.NewGuard()

	properties.Property("matches reports false, never errors", prop.ForAll(
		func(actual, pattern string) bool {
			got, err := Compare(CmpMatches, actual, pattern, guard)
			if err != nil {
				return false
			}
			// Oversized patterns must be rejected, not executed
			if len(pattern) > 1000 && got {
				return false
			}
			return true
		},
		gen.AnyString(),
		gen.OneGenOf(gen.AnyString(), gen.RegexMatch(`[a-z()+*\[\]{}]{1,40}`)),
	))

	properties.TestingRun(t)
}

// Oversized pattern is rejected by length before any other analysis
func TestCompare_MatchesOversizedPattern(t *testing.T) {
	guard := regexguard.NewGuard()
	pattern := strings.Repeat("a", 2000)

	got, err := Compare(CmpMatches, "aaa", pattern, guard)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if got {
		t.Errorf("Compare() = true, oversized pattern should fail closed")
	}
}
