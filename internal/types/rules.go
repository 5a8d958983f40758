// internal/types/rules.go
package types

/*
 * Domain types for response validation.
 *
 * Provides ValidationRule and ValidationResult used by internal/rules for
 * evaluation and by internal/loader for test-case parsing. These types are
 * wire-format agnostic: YAML decoding happens at the loader boundary, JSON
 * serialization at the report boundary.
 *
 * Key types:
 *   - ValidationRule: one declarative check (comparator + path + expected)
 *   - ValidationResult: immutable outcome of evaluating one rule
 *
 * Rule invariant: logical types (and/or/not) require non-empty SubRules;
 * every other type requires Path. Enforced at evaluation time so malformed
 * rules surface as failed results, never as panics.
 */

// ValidationRule is a single declarative check against response data.
type ValidationRule struct {
	Type         string           `yaml:"type" json:"type"`
	Path         string           `yaml:"path,omitempty" json:"path,omitempty"`
	Expect       any              `yaml:"expect,omitempty" json:"expect,omitempty"`
	Description  string           `yaml:"description,omitempty" json:"description,omitempty"`
	ErrorMessage string           `yaml:"error_message,omitempty" json:"error_message,omitempty"`
	SubRules     []ValidationRule `yaml:"sub_validations,omitempty" json:"sub_validations,omitempty"`
}

// Logical reports whether the rule composes sub-rules instead of comparing
// an extracted value.
func (r ValidationRule) Logical() bool {
	switch r.Type {
	case "and", "or", "not":
		return true
	}
	return false
}

// ValidationResult is the outcome of evaluating a single rule.
// Created fresh per evaluation and never mutated afterwards. For logical
// rules Actual holds the sub-results rather than a scalar.
type ValidationResult struct {
	Passed      bool   `json:"passed"`
	Type        string `json:"type"`
	Path        string `json:"path,omitempty"`
	Actual      any    `json:"actual"`
	Expected    any    `json:"expected"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}
