// internal/rules/coerce.go
package rules

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

/*
 * Value classification and coercion for extraction and comparison.
 *
 * The engine operates on decoded response data: nil, bool, numbers, string,
 * []any, map[string]any. Kind collapses Go's numeric zoo (JSON decodes to
 * float64, YAML to int) into a closed set so functions and comparators can
 * switch exhaustively.
 *
 * Coercion rules:
 *   - toFloat64: numeric kinds and numeric strings; booleans rejected
 *   - coerceString: scalar-to-string for substring/prefix/suffix comparison
 *   - valueEqual: structural equality with numeric tolerance across kinds
 *
 * Integer/boolean distinction: a bool is never numeric even though Go and
 * some type systems treat it as integer-like. An integral float64 counts as
 * an integer because JSON decoding erases the distinction.
 */

// Kind is the closed set of value kinds flowing through the engine.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
	KindOther
)

// KindOf classifies a decoded value.
// Integral float64 values classify as KindInt: JSON decoding produces
// float64 for every number, so 3 and 3.0 are indistinguishable by the time
// they reach the engine.
func KindOf(v any) Kind {
	switch n := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float64:
		if !math.IsInf(n, 0) && !math.IsNaN(n) && math.Trunc(n) == n {
			return KindInt
		}
		return KindFloat
	case float32:
		if math.Trunc(float64(n)) == float64(n) {
			return KindInt
		}
		return KindFloat
	case string:
		return KindString
	case []any:
		return KindSequence
	case map[string]any:
		return KindMapping
	default:
		return KindOther
	}
}

// toFloat64 converts numeric kinds to float64 for comparison.
// Booleans are rejected: comparing true against 1 is a test-case bug, not
// a coercion.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toInt converts integer-valued kinds to int.
// Accepts integral floats for the same JSON-decoding reason as KindOf.
func toInt(v any) (int, bool) {
	f, ok := toFloat64(v)
	if !ok {
		return 0, false
	}
	if math.Trunc(f) != f || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int(f), true
}

// coerceString renders a scalar as a string for substring and prefix tests.
// Numbers format without a trailing ".0" so coerced output matches the
// literal a test author wrote.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		if f, ok := toFloat64(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}

// valueEqual performs structural equality with numeric tolerance.
// Numbers compare by value regardless of Go type; sequences and mappings
// compare element-wise.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, oka := toFloat64(a); oka {
		nb, okb := toFloat64(b)
		return okb && na == nb
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, exists := bv[k]
			if !exists || !valueEqual(v, bvv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// valueLength returns the length of strings, sequences, and mappings.
// Other kinds have length 0 for comparators and length 1 for the length()
// extraction function; callers pick the fallback.
func valueLength(v any) (int, bool) {
	switch s := v.(type) {
	case string:
		return len(s), true
	case []any:
		return len(s), true
	case map[string]any:
		return len(s), true
	default:
		return 0, false
	}
}

// isEmptyValue reports structural emptiness: null, whitespace-only string,
// or zero-length sequence/mapping.
func isEmptyValue(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	case []any:
		return len(s) == 0
	case map[string]any:
		return len(s) == 0
	default:
		return false
	}
}

// sortedKeys returns mapping keys in sorted order.
// Map iteration order is randomized in Go; sorting keeps wildcard expansion
// and keys()/values() output deterministic across runs.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
