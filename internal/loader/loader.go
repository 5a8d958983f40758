// Package loader parses declarative test-case definitions from YAML.
//
// A case file names the test case and lists its validation rules. Structural
// problems (logical rules without sub_validations, comparison rules without
// a path) are rejected at load time so they surface when the suite is
// authored, not mid-run; the validation engine still defends against them.
package loader

import (
	"fmt"
	"os"

	"github.com/casecheck/casecheck/internal/types"
	"gopkg.in/yaml.v3"
)

// Case is one declarative test case: a name plus the rules to evaluate
// against captured response data.
type Case struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description,omitempty"`
	Validate    []types.ValidationRule `yaml:"validate"`
}

// LoadCase reads and parses a test-case YAML file.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	return ParseCase(data)
}

// ParseCase parses test-case YAML and validates rule structure.
func ParseCase(data []byte) (*Case, error) {
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case: %w", err)
	}

	if c.Name == "" {
		return nil, fmt.Errorf("case name is required")
	}
	if len(c.Validate) == 0 {
		return nil, fmt.Errorf("case %q has no validations", c.Name)
	}

	for i, rule := range c.Validate {
		if err := checkRule(rule, 0); err != nil {
			return nil, fmt.Errorf("case %q validate[%d]: %w", c.Name, i, err)
		}
	}
	return &c, nil
}

// checkRule validates structural rule invariants recursively.
func checkRule(rule types.ValidationRule, depth int) error {
	if depth > types.MaxRuleDepth {
		return types.ErrRuleDepthExceeded
	}
	if rule.Type == "" {
		return fmt.Errorf("rule type is required")
	}

	if rule.Logical() {
		if len(rule.SubRules) == 0 {
			return fmt.Errorf("%s rule requires non-empty sub_validations", rule.Type)
		}
		for i, sub := range rule.SubRules {
			if err := checkRule(sub, depth+1); err != nil {
				return fmt.Errorf("sub_validations[%d]: %w", i, err)
			}
		}
		return nil
	}

	if rule.Path == "" {
		return fmt.Errorf("%s rule requires path", rule.Type)
	}
	if len(rule.SubRules) > 0 {
		return fmt.Errorf("%s rule cannot have sub_validations", rule.Type)
	}
	return nil
}
