// internal/rules/path.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/casecheck/casecheck/internal/types"
)

/*
 * Base path resolution for decoded response data.
 *
 * Supports a fixed JSONPath subset: root marker, dotted field access,
 * numeric array indices, slices (start:end), wildcards, recursive descent
 * (..key), and bracket filter predicates comparing a child field to a
 * literal. Path expressions are tokenized into typed segments once, then
 * resolved by recursive traversal.
 *
 * Resolution returns ALL matches in document order (array index order, then
 * sorted key order for mapping wildcards). A path that parses but matches
 * nothing is ErrPathNotFound: callers must be able to distinguish "no data"
 * from "one matched null".
 */

type segmentKind int

const (
	segField segmentKind = iota
	segIndex
	segSlice
	segWildcard
	segRecursive
	segFilter
)

// segment is one typed component of a tokenized base path.
type segment struct {
	kind   segmentKind
	key    string // segField and segRecursive
	index  int    // segIndex
	start  *int   // segSlice bounds, nil when open
	end    *int
	filter filterPredicate // segFilter
}

// filterPredicate is a bracket filter comparing a child field to a literal,
// or a bare existence check when op is empty.
type filterPredicate struct {
	field   string
	op      string
	literal any
}

// Resolve evaluates a base path against decoded data and returns the match
// set in document order.
// Returns ErrPathSyntax for malformed expressions and ErrPathNotFound when
// no node matches.
func Resolve(path string, data any) ([]any, error) {
	segs, err := tokenizePath(path)
	if err != nil {
		return nil, err
	}

	matches := resolveSegments(segs, data, 0)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrPathNotFound, path)
	}
	return matches, nil
}

// tokenizePath parses a base path into typed segments.
// The leading root marker is optional so both "$.items" and "items" resolve.
func tokenizePath(path string) ([]segment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", types.ErrPathSyntax)
	}

	i := 0
	if path[0] == '$' {
		i++
	}

	var segs []segment
	for i < len(path) {
		switch {
		case path[i] == '.':
			if i+1 < len(path) && path[i+1] == '.' {
				i += 2
				key, advance := readIdentifier(path[i:])
				if key == "" {
					return nil, fmt.Errorf("%w: '..' must be followed by a key", types.ErrPathSyntax)
				}
				segs = append(segs, segment{kind: segRecursive, key: key})
				i += advance
				continue
			}
			i++
			if i >= len(path) {
				return nil, fmt.Errorf("%w: unexpected end after '.'", types.ErrPathSyntax)
			}
			if path[i] == '*' {
				segs = append(segs, segment{kind: segWildcard})
				i++
				continue
			}
			if path[i] == '[' {
				continue // bracket handled below
			}
			key, advance := readIdentifier(path[i:])
			if key == "" {
				return nil, fmt.Errorf("%w: expected key at position %d", types.ErrPathSyntax, i)
			}
			segs = append(segs, segment{kind: segField, key: key})
			i += advance
		case path[i] == '[':
			seg, advance, err := parseBracket(path[i:])
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i += advance
		default:
			// Bare leading identifier (no root marker)
			if len(segs) == 0 {
				key, advance := readIdentifier(path[i:])
				if key != "" {
					segs = append(segs, segment{kind: segField, key: key})
					i += advance
					continue
				}
			}
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", types.ErrPathSyntax, path[i], i)
		}
	}

	return segs, nil
}

// readIdentifier consumes a field name: letters, digits, '_', '-'.
func readIdentifier(s string) (string, int) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' {
			i++
			continue
		}
		break
	}
	return s[:i], i
}

// parseBracket parses one bracketed selector starting at '['.
// Accepts [*], [n], [start:end], ['key'], ["key"], and [?(...)].
func parseBracket(s string) (segment, int, error) {
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return segment{}, 0, fmt.Errorf("%w: unclosed '['", types.ErrPathSyntax)
	}
	inner := strings.TrimSpace(s[1:end])

	if strings.HasPrefix(inner, "?(") && strings.HasSuffix(inner, ")") {
		pred, err := parseFilter(inner[2 : len(inner)-1])
		if err != nil {
			return segment{}, 0, err
		}
		return segment{kind: segFilter, filter: pred}, end + 1, nil
	}

	if inner == "*" {
		return segment{kind: segWildcard}, end + 1, nil
	}

	if quoted, ok := unquote(inner); ok {
		return segment{kind: segField, key: quoted}, end + 1, nil
	}

	if strings.Contains(inner, ":") {
		parts := strings.SplitN(inner, ":", 2)
		seg := segment{kind: segSlice}
		for pos, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return segment{}, 0, fmt.Errorf("%w: invalid slice bound %q", types.ErrPathSyntax, p)
			}
			bound := n
			if pos == 0 {
				seg.start = &bound
			} else {
				seg.end = &bound
			}
		}
		return seg, end + 1, nil
	}

	n, err := strconv.Atoi(inner)
	if err != nil {
		return segment{}, 0, fmt.Errorf("%w: invalid index %q", types.ErrPathSyntax, inner)
	}
	return segment{kind: segIndex, index: n}, end + 1, nil
}

// parseFilter parses "@.field op literal" or a bare "@.field" existence check.
func parseFilter(expr string) (filterPredicate, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "@.") {
		return filterPredicate{}, fmt.Errorf("%w: filter must start with '@.'", types.ErrPathSyntax)
	}

	for _, op := range []string{"==", "!=", ">=", "<=", ">", "<"} {
		if idx := strings.Index(expr, op); idx > 0 {
			field := strings.TrimSpace(expr[2:idx])
			lit, err := parseLiteral(strings.TrimSpace(expr[idx+len(op):]))
			if err != nil {
				return filterPredicate{}, err
			}
			if field == "" {
				return filterPredicate{}, fmt.Errorf("%w: filter field is empty", types.ErrPathSyntax)
			}
			return filterPredicate{field: field, op: op, literal: lit}, nil
		}
	}

	return filterPredicate{field: strings.TrimSpace(expr[2:])}, nil
}

// parseLiteral interprets a filter literal: quoted string, number, boolean,
// or null.
func parseLiteral(s string) (any, error) {
	if quoted, ok := unquote(s); ok {
		return quoted, nil
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w: invalid filter literal %q", types.ErrPathSyntax, s)
}

// unquote strips matching single or double quotes.
func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '\'' && s[len(s)-1] == '\'' || s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// resolveSegments traverses data following segments, collecting every match
// in document order. Missing fields produce no matches rather than errors;
// the caller converts an empty match set to ErrPathNotFound.
func resolveSegments(segs []segment, current any, depth int) []any {
	if depth > types.MaxRecursionDepth {
		// Deeper structures than this indicate adversarial input; stop
		// descending rather than recurse unboundedly.
		return nil
	}
	if len(segs) == 0 {
		return []any{current}
	}

	seg := segs[0]
	rest := segs[1:]

	switch seg.kind {
	case segField:
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		val, exists := m[seg.key]
		if !exists {
			return nil
		}
		return resolveSegments(rest, val, depth+1)

	case segIndex:
		arr, ok := current.([]any)
		if !ok {
			return nil
		}
		idx := seg.index
		if idx < 0 {
			idx += len(arr)
		}
		if idx < 0 || idx >= len(arr) {
			return nil
		}
		return resolveSegments(rest, arr[idx], depth+1)

	case segSlice:
		arr, ok := current.([]any)
		if !ok {
			return nil
		}
		start, end := sliceBounds(seg.start, seg.end, len(arr))
		var matches []any
		for i := start; i < end; i++ {
			matches = append(matches, resolveSegments(rest, arr[i], depth+1)...)
		}
		return matches

	case segWildcard:
		var matches []any
		switch v := current.(type) {
		case []any:
			for _, elem := range v {
				matches = append(matches, resolveSegments(rest, elem, depth+1)...)
			}
		case map[string]any:
			for _, k := range sortedKeys(v) {
				matches = append(matches, resolveSegments(rest, v[k], depth+1)...)
			}
		}
		return matches

	case segRecursive:
		return resolveRecursive(seg.key, rest, current, depth)

	case segFilter:
		var matches []any
		switch v := current.(type) {
		case []any:
			for _, elem := range v {
				if matchesFilter(seg.filter, elem) {
					matches = append(matches, resolveSegments(rest, elem, depth+1)...)
				}
			}
		case map[string]any:
			for _, k := range sortedKeys(v) {
				if matchesFilter(seg.filter, v[k]) {
					matches = append(matches, resolveSegments(rest, v[k], depth+1)...)
				}
			}
		}
		return matches

	default:
		return nil
	}
}

// resolveRecursive walks the document pre-order, matching key at any depth.
// A matched value is itself descended into, so nested occurrences of the
// same key all match.
func resolveRecursive(key string, rest []segment, current any, depth int) []any {
	if depth > types.MaxRecursionDepth {
		return nil
	}

	var matches []any
	switch v := current.(type) {
	case map[string]any:
		if val, exists := v[key]; exists {
			matches = append(matches, resolveSegments(rest, val, depth+1)...)
		}
		for _, k := range sortedKeys(v) {
			matches = append(matches, resolveRecursive(key, rest, v[k], depth+1)...)
		}
	case []any:
		for _, elem := range v {
			matches = append(matches, resolveRecursive(key, rest, elem, depth+1)...)
		}
	}
	return matches
}

// matchesFilter evaluates a filter predicate against one candidate element.
func matchesFilter(pred filterPredicate, elem any) bool {
	m, ok := elem.(map[string]any)
	if !ok {
		return false
	}

	// Dotted filter fields traverse nested mappings
	val := any(m)
	for _, part := range strings.Split(pred.field, ".") {
		inner, ok := val.(map[string]any)
		if !ok {
			return false
		}
		val, ok = inner[part]
		if !ok {
			return false
		}
	}

	if pred.op == "" {
		return val != nil
	}

	switch pred.op {
	case "==":
		return valueEqual(val, pred.literal)
	case "!=":
		return !valueEqual(val, pred.literal)
	}

	// Ordering operators: numeric when both sides coerce, else lexical
	if fa, oka := toFloat64(val); oka {
		fb, okb := toFloat64(pred.literal)
		if !okb {
			return false
		}
		switch pred.op {
		case ">":
			return fa > fb
		case "<":
			return fa < fb
		case ">=":
			return fa >= fb
		case "<=":
			return fa <= fb
		}
		return false
	}
	sa, oka := val.(string)
	sb, okb := pred.literal.(string)
	if !oka || !okb {
		return false
	}
	switch pred.op {
	case ">":
		return sa > sb
	case "<":
		return sa < sb
	case ">=":
		return sa >= sb
	case "<=":
		return sa <= sb
	}
	return false
}

// sliceBounds clamps optional slice bounds to [0, n), normalizing negatives.
func sliceBounds(start, end *int, n int) (int, int) {
	s, e := 0, n
	if start != nil {
		s = *start
		if s < 0 {
			s += n
		}
	}
	if end != nil {
		e = *end
		if e < 0 {
			e += n
		}
	}
	if s < 0 {
		s = 0
	}
	if e > n {
		e = n
	}
	if s > e {
		return 0, 0
	}
	return s, e
}
