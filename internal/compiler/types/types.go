// Package types implements the semantic types the resolution engine works
// with: simple class types, flexible platform types bounded by [lower, upper],
// error types and types carrying a nullability enhancement.
package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/names"
)

// ErrInvalidBounds is returned when a flexible type would have a nullable lower
// bound and a not-null upper bound.
var ErrInvalidBounds = errors.New("flexible type lower bound must be a subtype of its upper bound")

// Type represents a type in the descriptor graph.
// Nullability is explicit: a type is either marked nullable or not.
type Type interface {
	// String returns the human-readable representation of the type
	String() string

	// IsMarkedNullable returns true if the type carries a nullable marker
	IsMarkedNullable() bool

	// Equals checks if two types are exactly equal
	Equals(other Type) bool

	// MakeNullable returns the nullable version of this type
	MakeNullable() Type

	// MakeNotNullable returns the not-null version of this type
	MakeNotNullable() Type
}

// Constructor is what a simple type is built from: a class or a type parameter.
type Constructor interface {
	// Key identifies the constructor for equality across modules
	Key() string
	// DisplayName is used when rendering types
	DisplayName() string
}

// ClassConstructor is a constructor that names a class.
type ClassConstructor interface {
	Constructor
	ClassID() names.ClassID
}

// ClassRef is a lightweight class constructor used where no descriptor is at hand.
type ClassRef struct {
	ID names.ClassID
}

// Key returns the class id.
func (c ClassRef) Key() string {
	return c.ID.String()
}

// DisplayName returns the short class name.
func (c ClassRef) DisplayName() string {
	return c.ID.Relative.String()
}

// ClassID returns the referenced class id.
func (c ClassRef) ClassID() names.ClassID {
	return c.ID
}

// ParameterRef names a type parameter of a declaration.
type ParameterRef struct {
	Owner string
	Name  names.Name
	Index int
}

// Key returns an owner-scoped identifier.
func (p ParameterRef) Key() string {
	return fmt.Sprintf("%s#%d", p.Owner, p.Index)
}

// DisplayName returns the parameter name.
func (p ParameterRef) DisplayName() string {
	return p.Name.String()
}

// Well-known classes the engine needs without loading them.
var (
	AnyID        = names.MustParseClassID("kotlin/Any")
	NothingID    = names.MustParseClassID("kotlin/Nothing")
	StringID     = names.MustParseClassID("kotlin/String")
	UnitID       = names.MustParseClassID("kotlin/Unit")
	ArrayID      = names.MustParseClassID("kotlin/Array")
	CloneableID  = names.MustParseClassID("kotlin/Cloneable")
	EnumID       = names.MustParseClassID("kotlin/Enum")
	DeprecatedID = names.MustParseClassID("kotlin/Deprecated")
)

// SimpleType is a class or type-parameter reference with arguments and a nullability flag.
type SimpleType struct {
	Constructor Constructor
	Arguments   []Type
	Nullable    bool
}

// NewSimpleType creates a simple type.
func NewSimpleType(ctor Constructor, nullable bool, args ...Type) *SimpleType {
	return &SimpleType{Constructor: ctor, Arguments: args, Nullable: nullable}
}

// ClassType creates a simple type over a ClassRef.
func ClassType(id names.ClassID, nullable bool, args ...Type) *SimpleType {
	return NewSimpleType(ClassRef{ID: id}, nullable, args...)
}

// Any returns kotlin.Any with the requested nullability.
func Any(nullable bool) *SimpleType {
	return ClassType(AnyID, nullable)
}

// Nothing returns kotlin.Nothing with the requested nullability.
func Nothing(nullable bool) *SimpleType {
	return ClassType(NothingID, nullable)
}

func (s *SimpleType) String() string {
	var b strings.Builder
	b.WriteString(s.Constructor.DisplayName())
	if len(s.Arguments) > 0 {
		args := make([]string, len(s.Arguments))
		for i, a := range s.Arguments {
			args[i] = a.String()
		}
		b.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	if s.Nullable {
		b.WriteString("?")
	}
	return b.String()
}

// IsMarkedNullable returns the nullability flag.
func (s *SimpleType) IsMarkedNullable() bool {
	return s.Nullable
}

// Equals compares constructors by key, arguments pointwise and nullability.
func (s *SimpleType) Equals(other Type) bool {
	o, ok := other.(*SimpleType)
	if !ok {
		return false
	}
	if s.Nullable != o.Nullable || s.Constructor.Key() != o.Constructor.Key() {
		return false
	}
	if len(s.Arguments) != len(o.Arguments) {
		return false
	}
	for i := range s.Arguments {
		if !s.Arguments[i].Equals(o.Arguments[i]) {
			return false
		}
	}
	return true
}

// MakeNullable returns a nullable copy.
func (s *SimpleType) MakeNullable() Type {
	return s.withNullability(true)
}

// MakeNotNullable returns a not-null copy.
func (s *SimpleType) MakeNotNullable() Type {
	return s.withNullability(false)
}

func (s *SimpleType) withNullability(nullable bool) *SimpleType {
	if s.Nullable == nullable {
		return s
	}
	return &SimpleType{Constructor: s.Constructor, Arguments: s.Arguments, Nullable: nullable}
}

// FlexibleType is a platform type whose precise nullability is unknown.
// Lower is always a subtype of Upper.
type FlexibleType struct {
	Lower *SimpleType
	Upper *SimpleType
}

// NewFlexibleType builds [lower, upper]. It degenerates to lower when both bounds are equal.
func NewFlexibleType(lower, upper *SimpleType) (Type, error) {
	if lower.Equals(upper) {
		return lower, nil
	}
	if lower.Nullable && !upper.Nullable {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidBounds, lower, upper)
	}
	return &FlexibleType{Lower: lower, Upper: upper}, nil
}

// PlatformType returns the flexible type T..T? for a class type.
func PlatformType(t *SimpleType) Type {
	return &FlexibleType{
		Lower: t.withNullability(false),
		Upper: t.withNullability(true),
	}
}

func (f *FlexibleType) String() string {
	if f.Lower.Constructor.Key() == f.Upper.Constructor.Key() && !f.Lower.Nullable && f.Upper.Nullable {
		return f.Lower.String() + "!"
	}
	return "(" + f.Lower.String() + ".." + f.Upper.String() + ")"
}

// IsMarkedNullable follows the lower bound.
func (f *FlexibleType) IsMarkedNullable() bool {
	return f.Lower.Nullable
}

// Equals compares both bounds.
func (f *FlexibleType) Equals(other Type) bool {
	o, ok := other.(*FlexibleType)
	if !ok {
		return false
	}
	return f.Lower.Equals(o.Lower) && f.Upper.Equals(o.Upper)
}

// MakeNullable marks both bounds nullable.
func (f *FlexibleType) MakeNullable() Type {
	t, _ := NewFlexibleType(f.Lower.withNullability(true), f.Upper.withNullability(true))
	return t
}

// MakeNotNullable marks both bounds not-null.
func (f *FlexibleType) MakeNotNullable() Type {
	t, _ := NewFlexibleType(f.Lower.withNullability(false), f.Upper.withNullability(false))
	return t
}

// DynamicType is the flexible type Nothing..Any? that accepts any operation.
type DynamicType struct{}

// Dynamic is the single dynamic type instance.
var Dynamic = &DynamicType{}

func (*DynamicType) String() string { return "dynamic" }

// IsMarkedNullable is false; the lower bound is Nothing.
func (*DynamicType) IsMarkedNullable() bool { return false }

// Equals is true only for the dynamic type.
func (*DynamicType) Equals(other Type) bool {
	_, ok := other.(*DynamicType)
	return ok
}

// MakeNullable is a no-op.
func (d *DynamicType) MakeNullable() Type { return d }

// MakeNotNullable is a no-op.
func (d *DynamicType) MakeNotNullable() Type { return d }

// Bounds returns Nothing..Any?.
func (*DynamicType) Bounds() (*SimpleType, *SimpleType) {
	return Nothing(false), Any(true)
}

// ErrorType stands for a type that could not be resolved.
type ErrorType struct {
	Message  string
	Nullable bool
}

// NewErrorType creates an error type with a diagnostic message.
func NewErrorType(format string, args ...any) *ErrorType {
	return &ErrorType{Message: fmt.Sprintf(format, args...)}
}

func (e *ErrorType) String() string {
	s := "[ERROR : " + e.Message + "]"
	if e.Nullable {
		s += "?"
	}
	return s
}

// IsMarkedNullable returns the nullability flag.
func (e *ErrorType) IsMarkedNullable() bool { return e.Nullable }

// Equals is never true: error types are not comparable.
func (e *ErrorType) Equals(other Type) bool { return false }

// MakeNullable returns a nullable copy.
func (e *ErrorType) MakeNullable() Type {
	return &ErrorType{Message: e.Message, Nullable: true}
}

// MakeNotNullable returns a not-null copy.
func (e *ErrorType) MakeNotNullable() Type {
	return &ErrorType{Message: e.Message}
}

type specialType struct {
	name string
}

func (s *specialType) String() string         { return s.name }
func (s *specialType) IsMarkedNullable() bool { return false }
func (s *specialType) Equals(other Type) bool { return other == Type(s) }
func (s *specialType) MakeNullable() Type     { return s }
func (s *specialType) MakeNotNullable() Type  { return s }

// NoExpectedType means "no constraint" where an expected type is required.
var NoExpectedType Type = &specialType{name: "<no expected type>"}

// IsNoExpectedType reports whether t places no constraint.
func IsNoExpectedType(t Type) bool {
	return t == nil || t == NoExpectedType
}

// EnhancedType is a type whose nullability has been refined from platform
// annotations. Enhancement is the refined type; Origin is the type as declared.
type EnhancedType struct {
	Origin      Type
	Enhancement Type
}

// NewEnhancedType wraps origin with its enhancement.
func NewEnhancedType(origin, enhancement Type) *EnhancedType {
	return &EnhancedType{Origin: origin, Enhancement: enhancement}
}

func (e *EnhancedType) String() string {
	return e.Enhancement.String()
}

// IsMarkedNullable follows the enhancement.
func (e *EnhancedType) IsMarkedNullable() bool {
	return e.Enhancement.IsMarkedNullable()
}

// Equals compares origin and enhancement.
func (e *EnhancedType) Equals(other Type) bool {
	o, ok := other.(*EnhancedType)
	if !ok {
		return false
	}
	return e.Origin.Equals(o.Origin) && e.Enhancement.Equals(o.Enhancement)
}

// MakeNullable drops the enhancement; an explicit nullable marker overrides it.
func (e *EnhancedType) MakeNullable() Type {
	return e.Origin.MakeNullable()
}

// MakeNotNullable keeps the enhancement with both sides made not-null.
func (e *EnhancedType) MakeNotNullable() Type {
	return &EnhancedType{Origin: e.Origin.MakeNotNullable(), Enhancement: e.Enhancement.MakeNotNullable()}
}

// ClassIDOf returns the class a type refers to, looking through flexible and
// enhanced wrappers.
func ClassIDOf(t Type) (names.ClassID, bool) {
	switch tt := t.(type) {
	case *SimpleType:
		if cc, ok := tt.Constructor.(ClassConstructor); ok {
			return cc.ClassID(), true
		}
	case *FlexibleType:
		return ClassIDOf(tt.Lower)
	case *EnhancedType:
		return ClassIDOf(tt.Enhancement)
	}
	return names.ClassID{}, false
}

// ConstructorOf returns the constructor of the lower bound of t, if any.
func ConstructorOf(t Type) (Constructor, bool) {
	switch tt := t.(type) {
	case *SimpleType:
		return tt.Constructor, true
	case *FlexibleType:
		return tt.Lower.Constructor, true
	case *EnhancedType:
		return ConstructorOf(tt.Enhancement)
	}
	return nil, false
}
