// Package regexguard statically screens regular expressions for shapes
// known to cause catastrophic backtracking.
//
// Patterns arrive from test-case definitions and are executed by whatever
// regex engine hosts the test run, so the screen is conservative and purely
// static: it never executes the candidate pattern under a time bound, it
// recognizes dangerous shapes in the pattern text itself.
package regexguard

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/casecheck/casecheck/internal/types"
)

const (
	// maxPatternLength rejects oversized patterns before any analysis.
	maxPatternLength = 1000

	// maxGroupNesting caps parenthesis nesting depth. 10 levels is beyond
	// any hand-written validation pattern.
	maxGroupNesting = 10
)

// dangerousShapes are meta-regexes over the pattern text matching known
// exponential-backtracking constructions: nested quantified groups such as
// (X*)+ and (X+)*, quantified character classes inside a quantified group,
// and double-nested quantified grouping.
var dangerousShapes = []string{
	`\([^)]*[+*]\)[+*]`,
	`\([^)]*[+*]\)\{`,
	`\(\[[^\]]*\][+*][^)]*\)[+*]`,
	`\([^()]*\([^()]*[+*]\)[^()]*\)[+*]`,
}

// Guard screens patterns before they reach the host regex engine.
// Read-only after construction; safe for concurrent use.
type Guard struct {
	shapes []*regexp.Regexp
}

// NewGuard compiles the dangerous-shape signature library.
func NewGuard() *Guard {
	shapes := make([]*regexp.Regexp, len(dangerousShapes))
	for i, s := range dangerousShapes {
		shapes[i] = regexp.MustCompile(s)
	}
	return &Guard{shapes: shapes}
}

var (
	defaultGuard *Guard
	defaultOnce  sync.Once
)

// Default returns the process-wide guard, constructed on first use.
func Default() *Guard {
	defaultOnce.Do(func() {
		defaultGuard = NewGuard()
	})
	return defaultGuard
}

// Check rejects a pattern that is too long, too deeply nested, matches a
// known dangerous shape, or fails to compile. Checks run in that order and
// stop at the first rejection.
func (g *Guard) Check(pattern string) error {
	if len(pattern) > maxPatternLength {
		return fmt.Errorf("%w: %d characters (max %d)", types.ErrPatternTooLong, len(pattern), maxPatternLength)
	}

	if depth := groupNesting(pattern); depth > maxGroupNesting {
		return fmt.Errorf("%w: depth %d (max %d)", types.ErrPatternTooNested, depth, maxGroupNesting)
	}

	for _, shape := range g.shapes {
		if shape.MatchString(pattern) {
			return fmt.Errorf("%w: matches %q", types.ErrPatternDangerous, shape.String())
		}
	}

	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%w: %v", types.ErrPatternSyntax, err)
	}
	return nil
}

// groupNesting computes the maximum parenthesis nesting depth.
// Parentheses inside a character class do not group, and an escaped
// parenthesis does not count, so the scan tracks both states.
func groupNesting(pattern string) int {
	depth, maxDepth := 0, 0
	inClass := false
	escaped := false

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '(':
			if !inClass {
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
			}
		case ')':
			if !inClass && depth > 0 {
				depth--
			}
		}
	}
	return maxDepth
}
