package errors

import (
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/ast"
)

// Nullability warning codes (NUL100-199). Every code fires only when at least
// one side of the check comes from platform annotations.
const (
	// ErrNullabilityMismatch indicates a value that may be null flows where the platform declares not-null.
	ErrNullabilityMismatch ErrorCode = "NUL101"
	// ErrReceiverNullabilityMismatch indicates a receiver that may be null is dereferenced.
	ErrReceiverNullabilityMismatch ErrorCode = "NUL102"
	// ErrUnnecessarySafeCall indicates `?.` on a receiver the platform declares not-null.
	ErrUnnecessarySafeCall ErrorCode = "NUL103"
	// ErrUnnecessaryNotNullAssertion indicates `!!` on a value the platform declares not-null.
	ErrUnnecessaryNotNullAssertion ErrorCode = "NUL104"
	// ErrWhenEnumCanBeNull indicates an exhaustive enum when whose subject may be null.
	ErrWhenEnumCanBeNull ErrorCode = "NUL105"
	// ErrSenselessComparison indicates a comparison with null whose result is known.
	ErrSenselessComparison ErrorCode = "NUL106"
)

// NewNullabilityMismatch creates a NUL101 warning
func NewNullabilityMismatch(loc ast.SourceLocation, expected, actual string) *CompilerError {
	return newError(
		ErrNullabilityMismatch,
		"nullability_mismatch_based_on_platform_annotations",
		CategoryNullability,
		SeverityWarning,
		fmt.Sprintf("Type mismatch: inferred type is %s but %s was expected", actual, expected),
		loc,
	).WithExpected(expected).
		WithActual(actual).
		WithSuggestion("Check the value for null or assert it with !!")
}

// NewReceiverNullabilityMismatch creates a NUL102 warning
func NewReceiverNullabilityMismatch(loc ast.SourceLocation, receiverType string) *CompilerError {
	return newError(
		ErrReceiverNullabilityMismatch,
		"receiver_nullability_mismatch_based_on_platform_annotations",
		CategoryNullability,
		SeverityWarning,
		fmt.Sprintf("Only safe (?.) or non-null asserted (!!.) calls are allowed on a receiver of type %s", receiverType),
		loc,
	).WithActual(receiverType).
		WithSuggestion("Use a safe call (?.)").
		WithExamples(
			"value?.call()  // Skips the call when value is null",
			"value!!.call() // Throws when value is null",
		)
}

// NewUnnecessarySafeCall creates a NUL103 warning
func NewUnnecessarySafeCall(loc ast.SourceLocation, receiverType string) *CompilerError {
	return newError(
		ErrUnnecessarySafeCall,
		"unnecessary_safe_call",
		CategoryNullability,
		SeverityWarning,
		fmt.Sprintf("Unnecessary safe call on a non-null receiver of type %s", receiverType),
		loc,
	).WithActual(receiverType).
		WithSuggestion("Replace ?. with .")
}

// NewUnnecessaryNotNullAssertion creates a NUL104 warning
func NewUnnecessaryNotNullAssertion(loc ast.SourceLocation, operandType string) *CompilerError {
	return newError(
		ErrUnnecessaryNotNullAssertion,
		"unnecessary_not_null_assertion",
		CategoryNullability,
		SeverityWarning,
		fmt.Sprintf("Unnecessary non-null assertion (!!) on a non-null receiver of type %s", operandType),
		loc,
	).WithActual(operandType).
		WithSuggestion("Remove the !! operator")
}

// NewWhenEnumCanBeNull creates a NUL105 warning
func NewWhenEnumCanBeNull(loc ast.SourceLocation, subjectType string) *CompilerError {
	return newError(
		ErrWhenEnumCanBeNull,
		"when_enum_can_be_null_in_java",
		CategoryNullability,
		SeverityWarning,
		"Enum argument can be null in Java, but exhaustive when contains no null branch",
		loc,
	).WithActual(subjectType).
		WithSuggestion("Add a `null ->` branch or an else branch")
}

// NewSenselessComparison creates a NUL106 warning. result is the constant
// outcome of the comparison.
func NewSenselessComparison(loc ast.SourceLocation, expression string, result bool) *CompilerError {
	return newError(
		ErrSenselessComparison,
		"senseless_comparison",
		CategoryNullability,
		SeverityWarning,
		fmt.Sprintf("Condition '%s' is always '%t'", expression, result),
		loc,
	).WithSuggestion("Remove the comparison")
}
