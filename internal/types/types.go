// Package types provides domain models shared across casecheck components.
//
// Zero-dependency design: types.go, rules.go, and errors.go use only the
// standard library so the extraction/validation core can be embedded without
// pulling in storage or CLI dependencies. ID utilities in ids.go import uuid
// but are isolated for selective inclusion.
package types

// Resource limits enforced by the extraction and validation core.
const (
	// MaxFunctionChain limits the number of chained post-processing calls in
	// a single path expression. 8 calls covers realistic aggregation chains
	// (select, transform, aggregate) without unbounded recursion.
	MaxFunctionChain = 8

	// MaxRecursionDepth bounds recursive-descent traversal. 100 levels
	// handles any realistic response document; deeper structures indicate
	// cyclic or adversarial input.
	MaxRecursionDepth = 100

	// MaxRuleDepth limits logical and/or/not nesting in validation rules.
	// 16 levels is far beyond hand-written test cases while keeping stack
	// usage bounded during recursive evaluation.
	MaxRuleDepth = 16
)
