// internal/rules/functions.go
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/casecheck/casecheck/internal/types"
)

/*
 * Post-processing function library for path expressions.
 *
 * The function set is fixed and enumerable, so dispatch is a closed switch
 * over a Func enum rather than a name->callable registry: no runtime
 * registration, and the compiler checks exhaustiveness.
 *
 * Lenient by default: a function applied to a value of the wrong kind
 * passes the value through unchanged. The exceptions are split and join,
 * which raise ErrFunctionType, because silently passing through there hides
 * a test-case bug behind a confusing downstream comparison.
 *
 * Argument values are literal strings parsed at the call site; membership
 * checks compare them loosely against element kinds (the literal "3"
 * matches the number 3).
 */

// Func identifies a post-processing function.
type Func int

const (
	FnUnknown Func = iota
	FnLength
	FnFirst
	FnLast
	FnKeys
	FnValues
	FnReverse
	FnSort
	FnUnique
	FnFlatten
	FnSum
	FnAvg
	FnMin
	FnMax
	FnUpper
	FnLower
	FnTrim
	FnSplit
	FnJoin
	FnContains
	FnStartsWith
	FnEndsWith
	FnMatches
	FnIsEmpty
	FnIsNull
)

// ParseFunc maps a function name (including aliases) to its identifier.
func ParseFunc(name string) (Func, bool) {
	switch name {
	case "length", "size", "count":
		return FnLength, true
	case "first":
		return FnFirst, true
	case "last":
		return FnLast, true
	case "keys":
		return FnKeys, true
	case "values":
		return FnValues, true
	case "reverse":
		return FnReverse, true
	case "sort":
		return FnSort, true
	case "unique":
		return FnUnique, true
	case "flatten":
		return FnFlatten, true
	case "sum":
		return FnSum, true
	case "avg":
		return FnAvg, true
	case "min":
		return FnMin, true
	case "max":
		return FnMax, true
	case "upper":
		return FnUpper, true
	case "lower":
		return FnLower, true
	case "trim":
		return FnTrim, true
	case "split":
		return FnSplit, true
	case "join":
		return FnJoin, true
	case "contains":
		return FnContains, true
	case "starts_with":
		return FnStartsWith, true
	case "ends_with":
		return FnEndsWith, true
	case "matches":
		return FnMatches, true
	case "is_empty":
		return FnIsEmpty, true
	case "is_null":
		return FnIsNull, true
	default:
		return FnUnknown, false
	}
}

// argCount returns the exact argument count each function requires.
func argCount(fn Func) int {
	switch fn {
	case FnSplit, FnJoin, FnContains, FnStartsWith, FnEndsWith, FnMatches:
		return 1
	default:
		return 0
	}
}

// Apply invokes a named post-processing function on a value.
// Unknown names raise ErrFunctionUnsupported; wrong argument counts raise
// ErrFunctionArg; split/join on the wrong kind raise ErrFunctionType.
func Apply(name string, value any, args []string) (any, error) {
	fn, ok := ParseFunc(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrFunctionUnsupported, name)
	}
	if len(args) != argCount(fn) {
		return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d",
			types.ErrFunctionArg, name, argCount(fn), len(args))
	}

	switch fn {
	case FnLength:
		if n, ok := valueLength(value); ok {
			return n, nil
		}
		return 1, nil

	case FnFirst:
		if seq, ok := value.([]any); ok && len(seq) > 0 {
			return seq[0], nil
		}
		return value, nil

	case FnLast:
		if seq, ok := value.([]any); ok && len(seq) > 0 {
			return seq[len(seq)-1], nil
		}
		return value, nil

	case FnKeys:
		if m, ok := value.(map[string]any); ok {
			keys := sortedKeys(m)
			out := make([]any, len(keys))
			for i, k := range keys {
				out[i] = k
			}
			return out, nil
		}
		return value, nil

	case FnValues:
		if m, ok := value.(map[string]any); ok {
			keys := sortedKeys(m)
			out := make([]any, len(keys))
			for i, k := range keys {
				out[i] = m[k]
			}
			return out, nil
		}
		return []any{value}, nil

	case FnReverse:
		if seq, ok := value.([]any); ok {
			out := make([]any, len(seq))
			for i, v := range seq {
				out[len(seq)-1-i] = v
			}
			return out, nil
		}
		return value, nil

	case FnSort:
		if seq, ok := value.([]any); ok {
			out := make([]any, len(seq))
			copy(out, seq)
			sort.SliceStable(out, func(i, j int) bool {
				return naturalLess(out[i], out[j])
			})
			return out, nil
		}
		return value, nil

	case FnUnique:
		if seq, ok := value.([]any); ok {
			var out []any
			for _, v := range seq {
				dup := false
				for _, seen := range out {
					if valueEqual(v, seen) {
						dup = true
						break
					}
				}
				if !dup {
					out = append(out, v)
				}
			}
			if out == nil {
				out = []any{}
			}
			return out, nil
		}
		return value, nil

	case FnFlatten:
		if seq, ok := value.([]any); ok {
			return flattenSequence(seq), nil
		}
		return value, nil

	case FnSum:
		if seq, ok := value.([]any); ok {
			total := 0.0
			for _, v := range seq {
				if f, ok := toFloat64(v); ok {
					total += f
				}
			}
			return total, nil
		}
		return value, nil

	case FnAvg:
		seq, ok := value.([]any)
		if !ok || len(seq) == 0 {
			return value, nil
		}
		total, count := 0.0, 0
		for _, v := range seq {
			if f, ok := toFloat64(v); ok {
				total += f
				count++
			}
		}
		if count == 0 {
			return value, nil
		}
		return total / float64(count), nil

	case FnMin, FnMax:
		seq, ok := value.([]any)
		if !ok || len(seq) == 0 {
			return value, nil
		}
		var best any
		var bestF float64
		for _, v := range seq {
			f, ok := toFloat64(v)
			if !ok {
				continue
			}
			if best == nil || (fn == FnMin && f < bestF) || (fn == FnMax && f > bestF) {
				best, bestF = v, f
			}
		}
		if best == nil {
			return value, nil
		}
		return best, nil

	case FnUpper:
		if s, ok := value.(string); ok {
			return strings.ToUpper(s), nil
		}
		return value, nil

	case FnLower:
		if s, ok := value.(string); ok {
			return strings.ToLower(s), nil
		}
		return value, nil

	case FnTrim:
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return value, nil

	case FnSplit:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: split requires a string, got %T", types.ErrFunctionType, value)
		}
		parts := strings.Split(s, args[0])
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil

	case FnJoin:
		seq, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: join requires a sequence, got %T", types.ErrFunctionType, value)
		}
		parts := make([]string, len(seq))
		for i, v := range seq {
			parts[i] = coerceString(v)
		}
		return strings.Join(parts, args[0]), nil

	case FnContains:
		return memberOf(value, args[0]), nil

	case FnStartsWith:
		return strings.HasPrefix(coerceString(value), args[0]), nil

	case FnEndsWith:
		return strings.HasSuffix(coerceString(value), args[0]), nil

	case FnMatches:
		re, err := regexp.Compile(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrFunctionArg, err)
		}
		return re.MatchString(coerceString(value)), nil

	case FnIsEmpty:
		return isEmptyValue(value), nil

	case FnIsNull:
		return value == nil, nil

	default:
		return nil, fmt.Errorf("%w: %s", types.ErrFunctionUnsupported, name)
	}
}

// naturalLess orders values for sort(): numbers numerically, strings
// lexically, mixed kinds by kind then string form. Total and deterministic
// so sort() is idempotent.
func naturalLess(a, b any) bool {
	fa, oka := toFloat64(a)
	fb, okb := toFloat64(b)
	if oka && okb {
		return fa < fb
	}
	sa, soka := a.(string)
	sb, sokb := b.(string)
	if soka && sokb {
		return sa < sb
	}
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return ka < kb
	}
	return coerceString(a) < coerceString(b)
}

// flattenSequence concatenates nested sequences depth-first.
func flattenSequence(seq []any) []any {
	out := make([]any, 0, len(seq))
	for _, v := range seq {
		if nested, ok := v.([]any); ok {
			out = append(out, flattenSequence(nested)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

// memberOf tests membership of a literal argument: substring for strings,
// element for sequences, key for mappings.
func memberOf(value any, lit string) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, lit)
	case []any:
		for _, elem := range v {
			if literalEqual(elem, lit) {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := v[lit]
		return ok
	default:
		return false
	}
}

// literalEqual compares an element against a string literal by the
// element's kind: "3" matches the number 3, "true" matches true.
func literalEqual(elem any, lit string) bool {
	switch e := elem.(type) {
	case string:
		return e == lit
	case bool:
		return (e && lit == "true") || (!e && lit == "false")
	case nil:
		return lit == "null"
	default:
		if f, ok := toFloat64(elem); ok {
			n, err := strconv.ParseFloat(lit, 64)
			return err == nil && f == n
		}
		return false
	}
}
