// internal/rules/extract.go
package rules

import (
	"fmt"
	"strings"

	"github.com/casecheck/casecheck/internal/types"
)

/*
 * Path-expression evaluation: base path plus chained function calls.
 *
 * An expression like "$.items[*].price.sort().first()" is parsed once into
 * a base path and an ordered list of function calls with parsed argument
 * lists, then evaluated left to right. Single-pass parsing instead of
 * repeated suffix matching keeps evaluation linear in expression length and
 * makes the chain-depth limit enforceable.
 *
 * Index semantics for the resolved match set:
 *   - 0 (default): first match; when several matches exist and functions
 *     follow, the full sequence is preserved so aggregates see every match
 *   - positive n: that match, bounds-checked
 *   - -1: the full ordered match set
 *
 * Call-boundary detection tracks bracket depth and quotes, so ".name(" only
 * starts a call chain at the top level, never inside a filter predicate.
 */

// funcCall is one parsed post-processing call in an expression chain.
type funcCall struct {
	name string
	args []string
}

// Extract evaluates a full path expression against decoded data.
// Returns ErrPathSyntax, ErrPathNotFound, ErrIndexOutOfRange, or a function
// error; the validation engine converts all of these into failed results.
func Extract(expr string, data any, index int) (any, error) {
	base, calls, err := parseExpression(expr)
	if err != nil {
		return nil, err
	}

	matches, err := Resolve(base, data)
	if err != nil {
		return nil, err
	}

	if len(calls) == 0 {
		return selectMatch(matches, index, expr)
	}

	var value any
	switch {
	case index == -1:
		value = matches
	case index == 0 && len(matches) > 1:
		// Ambiguous base query with a function chain: keep the sequence so
		// aggregates operate over all matches
		value = matches
	case index == 0:
		value = matches[0]
	default:
		value, err = selectMatch(matches, index, expr)
		if err != nil {
			return nil, err
		}
	}

	for _, call := range calls {
		value, err = Apply(call.name, value, call.args)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

// selectMatch applies index semantics to a non-empty match set.
func selectMatch(matches []any, index int, expr string) (any, error) {
	if index == -1 {
		return matches, nil
	}
	if index < 0 || index >= len(matches) {
		return nil, fmt.Errorf("%w: index %d with %d match(es) for %s",
			types.ErrIndexOutOfRange, index, len(matches), expr)
	}
	return matches[index], nil
}

// parseExpression splits an expression into its base path and function
// calls. The chain starts at the first top-level ".name(" occurrence;
// everything before it is the base path.
func parseExpression(expr string) (string, []funcCall, error) {
	depth := 0
	var quote byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			if depth > 0 {
				quote = c
			}
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth != 0 {
				continue
			}
			name, adv := readIdentifier(expr[i+1:])
			if name != "" && i+1+adv < len(expr) && expr[i+1+adv] == '(' {
				calls, err := parseCalls(expr[i:])
				if err != nil {
					return "", nil, err
				}
				return expr[:i], calls, nil
			}
		}
	}
	return expr, nil, nil
}

// parseCalls parses a ".name(args).name(args)" suffix into ordered calls.
func parseCalls(s string) ([]funcCall, error) {
	var calls []funcCall
	i := 0
	for i < len(s) {
		if s[i] != '.' {
			return nil, fmt.Errorf("%w: expected '.' before function call at %q", types.ErrPathSyntax, s[i:])
		}
		i++
		name, adv := readIdentifier(s[i:])
		if name == "" {
			return nil, fmt.Errorf("%w: missing function name", types.ErrPathSyntax)
		}
		i += adv
		if i >= len(s) || s[i] != '(' {
			return nil, fmt.Errorf("%w: expected '(' after %q", types.ErrPathSyntax, name)
		}
		i++

		start := i
		var quote byte
		for i < len(s) {
			c := s[i]
			if quote != 0 {
				if c == '\\' {
					i += 2
					continue
				}
				if c == quote {
					quote = 0
				}
				i++
				continue
			}
			if c == '\'' || c == '"' {
				quote = c
				i++
				continue
			}
			if c == ')' {
				break
			}
			i++
		}
		if i >= len(s) {
			return nil, fmt.Errorf("%w: unclosed call %q", types.ErrPathSyntax, name)
		}

		args, err := parseArgs(s[start:i])
		if err != nil {
			return nil, err
		}
		calls = append(calls, funcCall{name: name, args: args})
		i++
	}

	if len(calls) > types.MaxFunctionChain {
		return nil, fmt.Errorf("%w: %d calls (max %d)", types.ErrChainTooDeep, len(calls), types.MaxFunctionChain)
	}
	return calls, nil
}

// parseArgs splits a raw argument string on unescaped commas. Quoted
// substrings are single arguments taken verbatim; unquoted arguments are
// trimmed. No variables or nested expressions inside arguments.
func parseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var args []string
	var cur strings.Builder
	var quote byte
	quoted := false

	flush := func() {
		if quoted {
			args = append(args, cur.String())
		} else {
			args = append(args, strings.TrimSpace(cur.String()))
		}
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if quote != 0 {
			if c == '\\' && i+1 < len(raw) {
				i++
				cur.WriteByte(raw[i])
				continue
			}
			if c == quote {
				quote = 0
				continue
			}
			cur.WriteByte(c)
			continue
		}
		switch c {
		case '\\':
			if i+1 < len(raw) {
				i++
				cur.WriteByte(raw[i])
			} else {
				cur.WriteByte(c)
			}
		case '\'', '"':
			quote = c
			quoted = true
		case ',':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote in arguments", types.ErrFunctionArg)
	}
	flush()
	return args, nil
}
