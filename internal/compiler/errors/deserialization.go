package errors

import (
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/ast"
)

// Deserialization error codes (DES200-299)
const (
	// ErrMalformedMetadata indicates a metadata record that cannot be decoded into descriptors.
	ErrMalformedMetadata ErrorCode = "DES201"
	// ErrMissingDependency indicates a class referenced by metadata that is absent from the classpath.
	ErrMissingDependency ErrorCode = "DES202"
	// ErrUnknownFlexibleType indicates a flexible type id with no registered deserializer.
	ErrUnknownFlexibleType ErrorCode = "DES203"
	// ErrIncompatibleMetadata indicates a record written by an unsupported format version.
	ErrIncompatibleMetadata ErrorCode = "DES204"
)

// NewMalformedMetadata creates a DES201 error. declaration names the record
// that was skipped; cause is the decoding failure.
func NewMalformedMetadata(declaration string, cause error) *CompilerError {
	return newError(
		ErrMalformedMetadata,
		"malformed_metadata",
		CategoryDeserialization,
		SeverityError,
		fmt.Sprintf("Metadata for %s is malformed and was skipped: %v", declaration, cause),
		ast.SourceLocation{},
	).WithContext(declaration, nil).
		WithSuggestion("Recompile the library that produced this metadata")
}

// NewMissingDependency creates a DES202 warning for a class that resolved to a placeholder.
func NewMissingDependency(classID string, referencedFrom string) *CompilerError {
	msg := fmt.Sprintf("Cannot access class '%s'. Check your module classpath for missing or conflicting dependencies", classID)
	if referencedFrom != "" {
		msg = fmt.Sprintf("%s (referenced from %s)", msg, referencedFrom)
	}
	return newError(
		ErrMissingDependency,
		"missing_dependency_class",
		CategoryDeserialization,
		SeverityWarning,
		msg,
		ast.SourceLocation{},
	).WithExpected(classID)
}

// NewUnknownFlexibleType creates a DES203 error
func NewUnknownFlexibleType(id string, declaration string) *CompilerError {
	return newError(
		ErrUnknownFlexibleType,
		"unknown_flexible_type",
		CategoryDeserialization,
		SeverityError,
		fmt.Sprintf("Unknown flexible type id '%s' in %s", id, declaration),
		ast.SourceLocation{},
	).WithActual(id)
}

// NewIncompatibleMetadata creates a DES204 error
func NewIncompatibleMetadata(path string, cause error) *CompilerError {
	return newError(
		ErrIncompatibleMetadata,
		"incompatible_metadata_version",
		CategoryDeserialization,
		SeverityError,
		fmt.Sprintf("Cannot read %s: %v", path, cause),
		ast.SourceLocation{File: path},
	).WithSuggestion("Upgrade the resolver or rebuild the library with a supported format version")
}
