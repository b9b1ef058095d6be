package errors

import (
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/ast"
)

// Interop notice codes (INT300-399)
const (
	// ErrHiddenPlatformMember indicates a platform member suppressed from a mapped class.
	ErrHiddenPlatformMember ErrorCode = "INT301"
	// ErrDeprecatedPlatformMember indicates a platform member exposed with a deprecation.
	ErrDeprecatedPlatformMember ErrorCode = "INT302"
	// ErrUnavailablePlatformMember indicates a member absent from the configured platform version.
	ErrUnavailablePlatformMember ErrorCode = "INT303"
)

// NewHiddenPlatformMember creates an INT301 info
func NewHiddenPlatformMember(loc ast.SourceLocation, signature string) *CompilerError {
	return newError(
		ErrHiddenPlatformMember,
		"hidden_platform_member",
		CategoryInterop,
		SeverityInfo,
		fmt.Sprintf("Platform member %s is hidden on the mapped class and only reachable through super calls", signature),
		loc,
	)
}

// NewDeprecatedPlatformMember creates an INT302 warning
func NewDeprecatedPlatformMember(loc ast.SourceLocation, signature string) *CompilerError {
	return newError(
		ErrDeprecatedPlatformMember,
		"deprecated_platform_member",
		CategoryInterop,
		SeverityWarning,
		fmt.Sprintf("Platform member %s is not considered part of the mapped class API", signature),
		loc,
	).WithSuggestion("Use the platform class directly or an equivalent member of the mapped class")
}

// NewUnavailablePlatformMember creates an INT303 info
func NewUnavailablePlatformMember(loc ast.SourceLocation, signature string) *CompilerError {
	return newError(
		ErrUnavailablePlatformMember,
		"unavailable_platform_member",
		CategoryInterop,
		SeverityInfo,
		fmt.Sprintf("Platform member %s is not available in the configured platform", signature),
		loc,
	)
}
