package deserialization

import "github.com/conduit-lang/interop/internal/compiler/types"

// PlatformTypeID marks a flexible type loaded from a platform declaration.
const PlatformTypeID = "kotlin.jvm.PlatformType"

// FlexibleTypeDeserializer turns a serialized flexible type into a type.
type FlexibleTypeDeserializer interface {
	Create(id string, lower, upper *types.SimpleType) types.Type
}

// PlatformFlexibleTypes accepts only PlatformTypeID; any other id yields an error type.
type PlatformFlexibleTypes struct{}

// Create builds lower..upper for platform types.
func (PlatformFlexibleTypes) Create(id string, lower, upper *types.SimpleType) types.Type {
	if id != PlatformTypeID {
		return types.NewErrorType("flexible type with id %s (%s..%s)", id, lower, upper)
	}
	t, err := types.NewFlexibleType(lower, upper)
	if err != nil {
		return types.NewErrorType("%v", err)
	}
	return t
}
