// internal/rules/comparators.go
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/casecheck/casecheck/internal/regexguard"
	"github.com/casecheck/casecheck/internal/types"
)

/*
 * Comparator library: pure comparison functions applied to extracted values.
 *
 * One unified registry of comparison kinds dispatched through a closed
 * switch. Null handling is comparator-specific:
 *   - eq: both null true, exactly one null false
 *   - gt/lt: any null false
 *   - gte/lte: any null falls back to eq
 *   - startswith/endswith/matches: any null false
 *
 * Comparators never raise for malformed input, with one exception: between
 * raises ErrBadExpectedShape when its expected value is not a numeric pair.
 * Unknown comparator names compare false. The matches comparator consults
 * the regex safety guard and degrades to false on any rejection; pattern
 * safety is a silent-fail control, never a fatal error.
 */

// Comparator identifies a comparison kind.
type Comparator int

const (
	CmpUnknown Comparator = iota
	CmpEq
	CmpNeq
	CmpGt
	CmpLt
	CmpGte
	CmpLte
	CmpContains
	CmpNotContains
	CmpStartsWith
	CmpEndsWith
	CmpMatches
	CmpTypeMatch
	CmpLengthEq
	CmpLengthGt
	CmpLengthLt
	CmpIsNull
	CmpIsNotNull
	CmpBetween
)

// ParseComparator maps a rule type name to its comparison kind.
func ParseComparator(name string) (Comparator, bool) {
	switch name {
	case "eq":
		return CmpEq, true
	case "neq":
		return CmpNeq, true
	case "gt":
		return CmpGt, true
	case "lt":
		return CmpLt, true
	case "gte":
		return CmpGte, true
	case "lte":
		return CmpLte, true
	case "contains":
		return CmpContains, true
	case "not_contains":
		return CmpNotContains, true
	case "startswith":
		return CmpStartsWith, true
	case "endswith":
		return CmpEndsWith, true
	case "matches":
		return CmpMatches, true
	case "type_match":
		return CmpTypeMatch, true
	case "length_eq":
		return CmpLengthEq, true
	case "length_gt":
		return CmpLengthGt, true
	case "length_lt":
		return CmpLengthLt, true
	case "is_null":
		return CmpIsNull, true
	case "is_not_null":
		return CmpIsNotNull, true
	case "between":
		return CmpBetween, true
	default:
		return CmpUnknown, false
	}
}

// Compare applies a comparison kind to an actual/expected pair.
// The guard screens patterns for the matches comparator. Only between can
// return an error; every other kind reports false for inputs it cannot
// interpret.
func Compare(cmp Comparator, actual, expected any, guard *regexguard.Guard) (bool, error) {
	switch cmp {
	case CmpEq:
		return compareEq(actual, expected), nil
	case CmpNeq:
		return !compareEq(actual, expected), nil
	case CmpGt:
		return compareOrder(actual, expected) > 0, nil
	case CmpLt:
		return compareOrder(actual, expected) < 0, nil
	case CmpGte:
		if actual == nil || expected == nil {
			return compareEq(actual, expected), nil
		}
		return compareOrder(actual, expected) >= 0, nil
	case CmpLte:
		if actual == nil || expected == nil {
			return compareEq(actual, expected), nil
		}
		return compareOrder(actual, expected) <= 0, nil
	case CmpContains:
		return compareContains(actual, expected), nil
	case CmpNotContains:
		return !compareContains(actual, expected), nil
	case CmpStartsWith:
		if actual == nil || expected == nil {
			return false, nil
		}
		return strings.HasPrefix(coerceString(actual), coerceString(expected)), nil
	case CmpEndsWith:
		if actual == nil || expected == nil {
			return false, nil
		}
		return strings.HasSuffix(coerceString(actual), coerceString(expected)), nil
	case CmpMatches:
		return compareMatches(actual, expected, guard), nil
	case CmpTypeMatch:
		return compareTypeMatch(actual, expected), nil
	case CmpLengthEq, CmpLengthGt, CmpLengthLt:
		return compareLength(cmp, actual, expected), nil
	case CmpIsNull:
		return isEmptyValue(actual), nil
	case CmpIsNotNull:
		return !isEmptyValue(actual), nil
	case CmpBetween:
		return compareBetween(actual, expected)
	default:
		return false, nil
	}
}

// compareEq: both null true; exactly one null false; else structural
// equality with numeric tolerance.
func compareEq(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return valueEqual(actual, expected)
}

// compareOrder performs three-way numeric comparison after lenient numeric
// coercion. Returns 0 for incomparable operands, so both gt and lt report
// false rather than erroring.
func compareOrder(a, b any) int {
	na, oka := numericValue(a)
	nb, okb := numericValue(b)
	if !oka || !okb {
		return 0
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

// numericValue coerces numbers and numeric strings to float64.
// Booleans and whitespace-only strings are not numbers.
func numericValue(v any) (float64, bool) {
	if f, ok := toFloat64(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// compareContains: substring for strings, membership for sequences, key
// membership for mappings. Non-container actual is string-coerced and
// substring-matched.
func compareContains(actual, expected any) bool {
	switch a := actual.(type) {
	case []any:
		for _, elem := range a {
			if valueEqual(elem, expected) {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := a[coerceString(expected)]
		return ok
	case string:
		return strings.Contains(a, coerceString(expected))
	default:
		return strings.Contains(coerceString(actual), coerceString(expected))
	}
}

// compareMatches screens the expected pattern through the guard, then runs
// a search match against the string-coerced actual. Guard rejections and
// compile failures report false, never an error.
func compareMatches(actual, expected any, guard *regexguard.Guard) bool {
	if actual == nil || expected == nil {
		return false
	}
	if guard == nil {
		guard = regexguard.Default()
	}

	pattern := coerceString(expected)
	if err := guard.Check(pattern); err != nil {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(coerceString(actual))
}

// compareTypeMatch tests an extracted value against a type-name vocabulary.
// A boolean never matches "int" even though booleans are integer-like in
// some type systems.
func compareTypeMatch(actual, expected any) bool {
	name, ok := expected.(string)
	if !ok {
		return false
	}
	switch strings.TrimSpace(name) {
	case "int":
		return KindOf(actual) == KindInt
	case "str":
		return KindOf(actual) == KindString
	case "list":
		return KindOf(actual) == KindSequence
	case "dict":
		return KindOf(actual) == KindMapping
	case "bool":
		return KindOf(actual) == KindBool
	case "null":
		return actual == nil
	default:
		return false
	}
}

// compareLength compares the length of strings, sequences, and mappings;
// every other kind has length 0. A non-integer-coercible expected value
// reports false.
func compareLength(cmp Comparator, actual, expected any) bool {
	want, ok := lengthOperand(expected)
	if !ok {
		return false
	}
	n, ok := valueLength(actual)
	if !ok {
		n = 0
	}
	switch cmp {
	case CmpLengthEq:
		return n == want
	case CmpLengthGt:
		return n > want
	case CmpLengthLt:
		return n < want
	}
	return false
}

// lengthOperand coerces the expected value of a length comparator to int,
// accepting integral numbers and integer strings.
func lengthOperand(v any) (int, bool) {
	if n, ok := toInt(v); ok {
		return n, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// compareBetween tests low <= actual <= high. The expected value must be a
// two-element sequence of numeric bounds; anything else raises
// ErrBadExpectedShape, the one comparator error the engine catches.
func compareBetween(actual, expected any) (bool, error) {
	pair, ok := expected.([]any)
	if !ok || len(pair) != 2 {
		return false, fmt.Errorf("%w: between expects a [low, high] pair, got %v", types.ErrBadExpectedShape, expected)
	}
	low, okLow := numericValue(pair[0])
	high, okHigh := numericValue(pair[1])
	if !okLow || !okHigh {
		return false, fmt.Errorf("%w: between bounds must be numeric, got %v", types.ErrBadExpectedShape, expected)
	}
	a, ok := numericValue(actual)
	if !ok {
		return false, nil
	}
	return low <= a && a <= high, nil
}
