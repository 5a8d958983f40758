// internal/rules/validate.go
package rules

import (
	"fmt"
	"strings"

	"github.com/casecheck/casecheck/internal/regexguard"
	"github.com/casecheck/casecheck/internal/types"
)

/*
 * Validation orchestration.
 *
 * Evaluates a list of validation rules against response data, one result
 * per rule, in list order. Rules are independent: a failure never aborts
 * sibling evaluation. Logical rules (and/or/not) compose sub-rules
 * recursively; rules form a tree, so no cycle detection is needed, only a
 * depth cap.
 *
 * This is the sole error boundary of the core: every structured error from
 * extraction, function application, or the between comparator is caught
 * here and converted into a failed result with a human-readable message.
 * Callers only ever observe results, never errors.
 *
 * Multi-match special case: for contains/not_contains over a path with a
 * wildcard ([*]) or recursive-descent (..) marker, the full match set is
 * extracted so membership is tested over all matches. The marker test is
 * string-based; a literal ".." inside a quoted filter literal would be
 * misclassified, a known limitation.
 */

// Engine evaluates validation rules against decoded response data.
// Stateless across calls apart from the injected pattern guard; safe for
// concurrent use.
type Engine struct {
	guard *regexguard.Guard
}

// NewEngine creates an engine using the process-wide pattern guard.
func NewEngine() *Engine {
	return &Engine{guard: regexguard.Default()}
}

// NewEngineWithGuard creates an engine with an explicit pattern guard.
func NewEngineWithGuard(guard *regexguard.Guard) *Engine {
	return &Engine{guard: guard}
}

// Validate evaluates rules in order and returns one result per rule.
func (e *Engine) Validate(rules []types.ValidationRule, data any) []types.ValidationResult {
	results := make([]types.ValidationResult, 0, len(rules))
	for _, rule := range rules {
		results = append(results, e.validateRule(rule, data, 0))
	}
	return results
}

// validateRule evaluates a single rule, recursing for logical types.
func (e *Engine) validateRule(rule types.ValidationRule, data any, depth int) types.ValidationResult {
	if rule.Logical() {
		return e.validateLogical(rule, data, depth)
	}
	return e.validateSingle(rule, data)
}

// validateLogical combines sub-rule outcomes: and passes iff all pass, or
// passes iff at least one passes, not passes iff none pass. The result's
// Actual holds the sub-results.
func (e *Engine) validateLogical(rule types.ValidationRule, data any, depth int) types.ValidationResult {
	result := types.ValidationResult{
		Type:        rule.Type,
		Path:        rule.Path,
		Description: rule.Description,
	}

	if depth >= types.MaxRuleDepth {
		result.Error = failMessage(rule, fmt.Sprintf("%v", types.ErrRuleDepthExceeded))
		return result
	}
	if len(rule.SubRules) == 0 {
		result.Error = failMessage(rule, fmt.Sprintf("%s rule requires non-empty sub_validations", rule.Type))
		return result
	}

	subResults := make([]types.ValidationResult, 0, len(rule.SubRules))
	passedCount := 0
	for _, sub := range rule.SubRules {
		sr := e.validateRule(sub, data, depth+1)
		if sr.Passed {
			passedCount++
		}
		subResults = append(subResults, sr)
	}
	result.Actual = subResults

	total := len(subResults)
	switch rule.Type {
	case "and":
		result.Passed = passedCount == total
		if !result.Passed {
			result.Error = failMessage(rule, fmt.Sprintf("and: %d of %d sub-rules failed", total-passedCount, total))
		}
	case "or":
		result.Passed = passedCount > 0
		if !result.Passed {
			result.Error = failMessage(rule, fmt.Sprintf("or: none of %d sub-rules passed", total))
		}
	case "not":
		result.Passed = passedCount == 0
		if !result.Passed {
			result.Error = failMessage(rule, fmt.Sprintf("not: %d of %d sub-rules passed", passedCount, total))
		}
	}
	return result
}

// validateSingle extracts a value and applies the rule's comparator.
// All extraction and comparator errors become failed results here.
func (e *Engine) validateSingle(rule types.ValidationRule, data any) types.ValidationResult {
	result := types.ValidationResult{
		Type:        rule.Type,
		Path:        rule.Path,
		Expected:    rule.Expect,
		Description: rule.Description,
	}

	if rule.Path == "" {
		result.Error = failMessage(rule, fmt.Sprintf("%s rule requires path", rule.Type))
		return result
	}

	cmp, known := ParseComparator(rule.Type)

	// Membership over a multi-match path tests all matches, not the first
	index := 0
	if (cmp == CmpContains || cmp == CmpNotContains) && multiMatchPath(rule.Path) {
		index = -1
	}

	actual, err := Extract(rule.Path, data, index)
	if err != nil {
		result.Actual = nil
		result.Error = failMessage(rule, fmt.Sprintf("extraction failed: %v", err))
		return result
	}
	result.Actual = actual

	if !known {
		result.Error = failMessage(rule, fmt.Sprintf("unknown comparator type %q", rule.Type))
		return result
	}

	passed, err := Compare(cmp, actual, rule.Expect, e.guard)
	if err != nil {
		result.Error = failMessage(rule, fmt.Sprintf("comparison failed: %v", err))
		return result
	}

	result.Passed = passed
	if !passed {
		result.Error = failMessage(rule, defaultMessage(cmp, actual, rule.Expect))
	}
	return result
}

// multiMatchPath reports whether a path contains a wildcard or
// recursive-descent marker.
func multiMatchPath(path string) bool {
	return strings.Contains(path, "[*]") || strings.Contains(path, "..")
}

// failMessage prefers the rule's custom error message over the default.
func failMessage(rule types.ValidationRule, fallback string) string {
	if rule.ErrorMessage != "" {
		return rule.ErrorMessage
	}
	return fallback
}

// defaultMessage synthesizes a comparator-specific diagnostic for a failed
// comparison.
func defaultMessage(cmp Comparator, actual, expected any) string {
	switch cmp {
	case CmpEq:
		return fmt.Sprintf("expected %v but got %v", expected, actual)
	case CmpNeq:
		return fmt.Sprintf("expected value different from %v", expected)
	case CmpGt:
		return fmt.Sprintf("expected value greater than %v, got %v", expected, actual)
	case CmpLt:
		return fmt.Sprintf("expected value less than %v, got %v", expected, actual)
	case CmpGte:
		return fmt.Sprintf("expected value >= %v, got %v", expected, actual)
	case CmpLte:
		return fmt.Sprintf("expected value <= %v, got %v", expected, actual)
	case CmpContains:
		return fmt.Sprintf("expected %v to contain %v", actual, expected)
	case CmpNotContains:
		return fmt.Sprintf("expected %v to not contain %v", actual, expected)
	case CmpStartsWith:
		return fmt.Sprintf("expected %v to start with %v", actual, expected)
	case CmpEndsWith:
		return fmt.Sprintf("expected %v to end with %v", actual, expected)
	case CmpMatches:
		return fmt.Sprintf("value %v does not match pattern %v", actual, expected)
	case CmpTypeMatch:
		return fmt.Sprintf("expected type %v, got %T", expected, actual)
	case CmpLengthEq:
		return fmt.Sprintf("expected length %v, got length %d", expected, actualLength(actual))
	case CmpLengthGt:
		return fmt.Sprintf("expected length greater than %v, got length %d", expected, actualLength(actual))
	case CmpLengthLt:
		return fmt.Sprintf("expected length less than %v, got length %d", expected, actualLength(actual))
	case CmpIsNull:
		return fmt.Sprintf("expected null or empty value, got %v", actual)
	case CmpIsNotNull:
		return "expected non-null value, got null or empty"
	case CmpBetween:
		return fmt.Sprintf("expected value between %v, got %v", expected, actual)
	default:
		return fmt.Sprintf("comparison failed: actual %v, expected %v", actual, expected)
	}
}

func actualLength(v any) int {
	n, ok := valueLength(v)
	if !ok {
		return 0
	}
	return n
}
