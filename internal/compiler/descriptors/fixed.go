package descriptors

import (
	"context"
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// FixedClassDescriptor is a class whose parts are all known when it is
// created, such as a fictitious built-in. Fields must not change once the
// class is published.
type FixedClassDescriptor struct {
	ClassBase
	Supers  []types.Type
	Scope   MemberScope
	Ctors   []*ConstructorDescriptor
	Entries []names.Name
}

// NewFixedClass creates a class with no members whose only supertype is Any.
func NewFixedClass(h ClassHeader) *FixedClassDescriptor {
	return &FixedClassDescriptor{
		ClassBase: NewClassBase(h),
		Supers:    []types.Type{types.Any(false)},
		Scope:     EmptyScope,
	}
}

func (c *FixedClassDescriptor) Supertypes(context.Context) ([]types.Type, error) { return c.Supers, nil }
func (c *FixedClassDescriptor) MemberScope() MemberScope                         { return c.Scope }
func (c *FixedClassDescriptor) StaticScope() MemberScope                         { return EmptyScope }

func (c *FixedClassDescriptor) Constructors(context.Context) ([]*ConstructorDescriptor, error) {
	return c.Ctors, nil
}

func (c *FixedClassDescriptor) EnumEntries(context.Context) ([]names.Name, error) {
	return c.Entries, nil
}

func (c *FixedClassDescriptor) String() string {
	return fmt.Sprintf("%s %s", c.ClassKind(), c.ClassID().Relative)
}
