package types

import "errors"

// Sentinel errors for extraction, function application, pattern safety, and
// comparison. Raised by the core packages and caught exclusively at the
// validation-engine boundary, where they become failed results rather than
// propagated errors.
var (
	// ErrPathNotFound indicates a syntactically valid path matched no node.
	ErrPathNotFound = errors.New("path matched no data")

	// ErrPathSyntax indicates a malformed path expression.
	ErrPathSyntax = errors.New("invalid path syntax")

	// ErrIndexOutOfRange indicates an explicit match index beyond the match set.
	ErrIndexOutOfRange = errors.New("match index out of range")

	// ErrFunctionUnsupported indicates an unknown post-processing function name.
	ErrFunctionUnsupported = errors.New("unsupported function")

	// ErrFunctionType indicates a function applied to an incompatible value kind.
	ErrFunctionType = errors.New("function type mismatch")

	// ErrFunctionArg indicates a malformed function argument list.
	ErrFunctionArg = errors.New("invalid function argument")

	// ErrChainTooDeep indicates a function chain exceeds MaxFunctionChain.
	ErrChainTooDeep = errors.New("function chain too deep")

	// ErrPatternTooLong indicates a regex pattern exceeds the guard's length cap.
	ErrPatternTooLong = errors.New("pattern exceeds maximum length")

	// ErrPatternTooNested indicates regex grouping nested beyond the guard's cap.
	ErrPatternTooNested = errors.New("pattern grouping too deeply nested")

	// ErrPatternDangerous indicates a regex matching a known catastrophic
	// backtracking shape.
	ErrPatternDangerous = errors.New("pattern has dangerous backtracking shape")

	// ErrPatternSyntax indicates a regex the host engine failed to compile.
	ErrPatternSyntax = errors.New("pattern failed to compile")

	// ErrBadExpectedShape indicates an expected value whose shape a comparator
	// cannot interpret (the between comparator's range pair).
	ErrBadExpectedShape = errors.New("malformed expected value")

	// ErrRuleDepthExceeded indicates logical rules nested beyond MaxRuleDepth.
	ErrRuleDepthExceeded = errors.New("rule nesting exceeds maximum depth")
)
