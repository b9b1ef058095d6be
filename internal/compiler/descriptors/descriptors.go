// Package descriptors defines the in-memory declaration graph: modules,
// package fragments, classes and their members. Nodes are created lazily by
// the deserializer and the platform interop layer; once created they are
// immutable and safe for concurrent readers.
package descriptors

import (
	"context"
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

// Kind identifies the kind of a descriptor node.
type Kind int

const (
	KindModule Kind = iota
	KindPackageFragment
	KindClass
	KindFunction
	KindProperty
	KindConstructor
	KindTypeParameter
	KindValueParameter
)

var kindNames = map[Kind]string{
	KindModule:          "module",
	KindPackageFragment: "package",
	KindClass:           "class",
	KindFunction:        "fun",
	KindProperty:        "val",
	KindConstructor:     "constructor",
	KindTypeParameter:   "type parameter",
	KindValueParameter:  "value parameter",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Descriptor is a node of the declaration graph.
type Descriptor interface {
	Name() names.Name
	// Container returns the owning declaration; nil only for modules.
	Container() Descriptor
	Kind() Kind
	Annotations(ctx context.Context) (Annotations, error)
}

// ClassKind distinguishes the flavours of class declarations.
type ClassKind int

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindEnumClass
	ClassKindEnumEntry
	ClassKindAnnotationClass
	ClassKindObject
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindInterface:
		return "interface"
	case ClassKindEnumClass:
		return "enum class"
	case ClassKindEnumEntry:
		return "enum entry"
	case ClassKindAnnotationClass:
		return "annotation class"
	case ClassKindObject:
		return "object"
	default:
		return "class"
	}
}

// Modality of a class or member.
type Modality int

const (
	ModalityFinal Modality = iota
	ModalitySealed
	ModalityOpen
	ModalityAbstract
)

func (m Modality) String() string {
	return [...]string{"final", "sealed", "open", "abstract"}[m]
}

// Visibility of a declaration.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityInternal
	VisibilityPrivate
	VisibilityPackagePrivate
	VisibilityLocal
)

func (v Visibility) String() string {
	return [...]string{"public", "protected", "internal", "private", "package-private", "local"}[v]
}

// ClassDescriptor is a class, interface, enum, annotation class or object.
// Its supertypes, scopes and constructors are computed on first use.
type ClassDescriptor interface {
	Descriptor
	types.ClassConstructor

	ClassKind() ClassKind
	Modality() Modality
	Visibility() Visibility
	IsInner() bool
	TypeParameters() []*TypeParameterDescriptor

	Supertypes(ctx context.Context) ([]types.Type, error)
	// MemberScope holds instance members and nested classes.
	MemberScope() MemberScope
	// StaticScope holds platform statics; empty for native classes.
	StaticScope() MemberScope
	Constructors(ctx context.Context) ([]*ConstructorDescriptor, error)
	EnumEntries(ctx context.Context) ([]names.Name, error)
}

// PackageFragmentDescriptor is the part of a package contributed by one provider.
type PackageFragmentDescriptor interface {
	Descriptor
	FqName() names.FqName
	MemberScope() MemberScope
}

// DefaultType returns the type of c applied to its own type parameters.
func DefaultType(c ClassDescriptor) *types.SimpleType {
	params := c.TypeParameters()
	args := make([]types.Type, len(params))
	for i, p := range params {
		args[i] = p.DefaultType()
	}
	return types.NewSimpleType(c, false, args...)
}

// FqNameOf returns the fully qualified name of a declaration.
func FqNameOf(d Descriptor) names.FqName {
	switch dd := d.(type) {
	case nil:
		return names.Root
	case *ModuleDescriptor:
		return names.Root
	case PackageFragmentDescriptor:
		return dd.FqName()
	case ClassDescriptor:
		return dd.ClassID().AsFqName()
	}
	return FqNameOf(d.Container()).Child(d.Name())
}

// FqNameEqual reports whether two classes denote the same declaration,
// possibly loaded through different modules.
func FqNameEqual(first, second ClassDescriptor) bool {
	if first == second {
		return true
	}
	if first.Name() != second.Name() || len(first.TypeParameters()) != len(second.TypeParameters()) {
		return false
	}
	if first.ClassID().Local || second.ClassID().Local {
		return false
	}
	var a, b Descriptor = first.Container(), second.Container()
	for a != nil && b != nil {
		if a.Kind() == KindModule {
			return b.Kind() == KindModule
		}
		if b.Kind() == KindModule {
			return false
		}
		if pa, ok := a.(PackageFragmentDescriptor); ok {
			pb, ok := b.(PackageFragmentDescriptor)
			return ok && pa.FqName() == pb.FqName()
		}
		if _, ok := b.(PackageFragmentDescriptor); ok {
			return false
		}
		if a.Name() != b.Name() {
			return false
		}
		a, b = a.Container(), b.Container()
	}
	return true
}

// annotationSlot holds either fixed annotations or a lazily computed list.
type annotationSlot struct {
	fixed Annotations
	lazy  *storage.LazyValue[Annotations]
}

func (s *annotationSlot) get(ctx context.Context) (Annotations, error) {
	if s.lazy != nil {
		return s.lazy.Get(ctx)
	}
	return s.fixed, nil
}

// ClassBase carries the identity shared by every class descriptor
// implementation. Implementations embed it and add the lazy parts.
type ClassBase struct {
	id             names.ClassID
	container      Descriptor
	classKind      ClassKind
	modality       Modality
	visibility     Visibility
	inner          bool
	typeParameters []*TypeParameterDescriptor
	annotations    annotationSlot
}

// ClassHeader describes the identity of a class being created.
type ClassHeader struct {
	ID         names.ClassID
	Container  Descriptor
	Kind       ClassKind
	Modality   Modality
	Visibility Visibility
	Inner      bool
}

// NewClassBase creates the shared part of a class descriptor.
func NewClassBase(h ClassHeader) ClassBase {
	return ClassBase{
		id:         h.ID,
		container:  h.Container,
		classKind:  h.Kind,
		modality:   h.Modality,
		visibility: h.Visibility,
		inner:      h.Inner,
	}
}

// SetTypeParameters installs the declared type parameters.
func (c *ClassBase) SetTypeParameters(params []*TypeParameterDescriptor) {
	c.typeParameters = params
}

// SetAnnotations installs fixed annotations.
func (c *ClassBase) SetAnnotations(a Annotations) {
	c.annotations = annotationSlot{fixed: a}
}

// SetLazyAnnotations installs annotations computed on first use.
func (c *ClassBase) SetLazyAnnotations(lazy *storage.LazyValue[Annotations]) {
	c.annotations = annotationSlot{lazy: lazy}
}

func (c *ClassBase) Name() names.Name                           { return c.id.ShortName() }
func (c *ClassBase) Container() Descriptor                      { return c.container }
func (c *ClassBase) Kind() Kind                                 { return KindClass }
func (c *ClassBase) ClassID() names.ClassID                     { return c.id }
func (c *ClassBase) Key() string                                { return c.id.String() }
func (c *ClassBase) DisplayName() string                        { return c.id.Relative.String() }
func (c *ClassBase) ClassKind() ClassKind                       { return c.classKind }
func (c *ClassBase) Modality() Modality                         { return c.modality }
func (c *ClassBase) Visibility() Visibility                     { return c.visibility }
func (c *ClassBase) IsInner() bool                              { return c.inner }
func (c *ClassBase) TypeParameters() []*TypeParameterDescriptor { return c.typeParameters }

// Annotations returns the class annotations.
func (c *ClassBase) Annotations(ctx context.Context) (Annotations, error) {
	return c.annotations.get(ctx)
}

// IsFinalClass reports whether c cannot be subclassed.
func IsFinalClass(c ClassDescriptor) bool {
	return c.Modality() == ModalityFinal && c.ClassKind() != ClassKindEnumClass
}

// IsEnumClass reports whether c is an enum class.
func IsEnumClass(c ClassDescriptor) bool {
	return c.ClassKind() == ClassKindEnumClass
}
