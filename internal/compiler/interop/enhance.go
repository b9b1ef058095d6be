package interop

import (
	"context"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// NotNullAnnotations are the annotations that pin a platform type to not-null.
var NotNullAnnotations = []names.FqName{
	"org.jetbrains.annotations.NotNull",
	"javax.annotation.Nonnull",
	"android.support.annotation.NonNull",
	"androidx.annotation.NonNull",
	"org.checkerframework.checker.nullness.qual.NonNull",
	"org.checkerframework.checker.nullness.compatqual.NonNullDecl",
	"edu.umd.cs.findbugs.annotations.NonNull",
	"org.eclipse.jdt.annotation.NonNull",
	"lombok.NonNull",
}

// NullableAnnotations are the annotations that pin a platform type to nullable.
var NullableAnnotations = []names.FqName{
	"org.jetbrains.annotations.Nullable",
	"javax.annotation.Nullable",
	"javax.annotation.CheckForNull",
	"android.support.annotation.Nullable",
	"androidx.annotation.Nullable",
	"org.checkerframework.checker.nullness.qual.Nullable",
	"org.checkerframework.checker.nullness.compatqual.NullableDecl",
	"edu.umd.cs.findbugs.annotations.Nullable",
	"edu.umd.cs.findbugs.annotations.CheckForNull",
	"org.eclipse.jdt.annotation.Nullable",
}

// Nullability is what the annotations of a platform type say.
type Nullability int

const (
	// NullabilityUnknown leaves the type flexible.
	NullabilityUnknown Nullability = iota
	NullabilityNotNull
	NullabilityNullable
)

var (
	notNullSet  = fqSet(NotNullAnnotations)
	nullableSet = fqSet(NullableAnnotations)
)

func fqSet(list []names.FqName) map[names.FqName]bool {
	out := make(map[names.FqName]bool, len(list))
	for _, fq := range list {
		out[fq] = true
	}
	return out
}

// ReadNullability interprets annotation names. Conflicting annotations
// cancel out.
func ReadNullability(annotations ...[]string) Nullability {
	var notNull, nullable bool
	for _, group := range annotations {
		for _, a := range group {
			fq := names.FqName(a)
			notNull = notNull || notNullSet[fq]
			nullable = nullable || nullableSet[fq]
		}
	}
	switch {
	case notNull && !nullable:
		return NullabilityNotNull
	case nullable && !notNull:
		return NullabilityNullable
	}
	return NullabilityUnknown
}

// TypeParameterScope resolves type variables of the member and class being
// enhanced.
type TypeParameterScope interface {
	TypeParameter(name string) (*descriptors.TypeParameterDescriptor, bool)
}

// parameterScope is a chain of type parameter lists, innermost first.
type parameterScope struct {
	params []*descriptors.TypeParameterDescriptor
	parent TypeParameterScope
}

func (s *parameterScope) TypeParameter(name string) (*descriptors.TypeParameterDescriptor, bool) {
	for _, p := range s.params {
		if p.Name().String() == name {
			return p, true
		}
	}
	if s.parent != nil {
		return s.parent.TypeParameter(name)
	}
	return nil, false
}

// ClassResolver finds the descriptor of a native or platform class.
type ClassResolver func(ctx context.Context, id names.ClassID, arity int) (descriptors.ClassDescriptor, error)

// Enhancer converts platform types into native types. A type with a
// nullability annotation becomes an EnhancedType whose enhancement is pinned;
// every other reference type is flexible T..T?.
type Enhancer struct {
	Classes *ClassMap
	Resolve ClassResolver
}

// EnhanceType converts pt using the type variables of scope.
func (e *Enhancer) EnhanceType(ctx context.Context, pt PlatformType, scope TypeParameterScope, extra ...[]string) (types.Type, error) {
	flexible, err := e.flexible(ctx, pt, scope)
	if err != nil {
		return nil, err
	}
	switch ReadNullability(append([][]string{pt.Annotations}, extra...)...) {
	case NullabilityNotNull:
		return pin(flexible, false), nil
	case NullabilityNullable:
		return pin(flexible, true), nil
	}
	return flexible, nil
}

// EnhanceSupertype converts a supertype reference. Supertypes are never
// nullable; mapped collections use their mutable view.
func (e *Enhancer) EnhanceSupertype(ctx context.Context, pt PlatformType, scope TypeParameterScope) (types.Type, error) {
	t, err := e.flexible(ctx, pt, scope)
	if err != nil {
		return nil, err
	}
	return types.LowerBound(t), nil
}

// pin wraps a flexible type with a fixed nullability. Primitive and other
// non-flexible types are returned unchanged.
func pin(t types.Type, nullable bool) types.Type {
	if !types.IsFlexible(t) {
		return t
	}
	var enhancement types.Type
	if nullable {
		enhancement = types.UpperBound(t)
	} else {
		enhancement = types.LowerBound(t).MakeNotNullable()
		if readOnly, ok := types.UpperBound(t).(*types.SimpleType); ok {
			lower := types.LowerBound(t).(*types.SimpleType)
			if lower.Constructor.Key() != readOnly.Constructor.Key() {
				// keep the mutability flexibility, only nullability is pinned
				enhancement, _ = types.NewFlexibleType(lower, readOnly.MakeNotNullable().(*types.SimpleType))
			}
		}
	}
	return types.NewEnhancedType(t, enhancement)
}

func (e *Enhancer) flexible(ctx context.Context, pt PlatformType, scope TypeParameterScope) (types.Type, error) {
	switch {
	case pt.Element != nil:
		if pt.Element.IsPrimitive() {
			return types.PlatformType(types.ClassType(primitiveArrays[pt.Element.Class], false)), nil
		}
		elem, err := e.EnhanceType(ctx, *pt.Element, scope)
		if err != nil {
			return nil, err
		}
		array, err := e.classType(ctx, types.ArrayID, []types.Type{elem})
		if err != nil {
			return nil, err
		}
		return types.PlatformType(array), nil
	case pt.Parameter != "":
		if scope != nil {
			if p, ok := scope.TypeParameter(pt.Parameter); ok {
				return types.PlatformType(p.DefaultType()), nil
			}
		}
		return types.NewErrorType("unresolved type variable %s", pt.Parameter), nil
	}

	if pt.IsPrimitive() {
		return types.ClassType(primitiveNative[pt.Class], false), nil
	}
	if pt.IsVoid() {
		return types.ClassType(types.UnitID, false), nil
	}

	id, err := names.ParseClassID(pt.Class)
	if err != nil {
		return types.NewErrorType("bad platform class %q", pt.Class), nil
	}
	args := make([]types.Type, len(pt.Arguments))
	for i, a := range pt.Arguments {
		if args[i], err = e.EnhanceType(ctx, a, scope); err != nil {
			return nil, err
		}
	}

	readOnly := id
	if e.Classes != nil {
		if native, ok := e.Classes.MapPlatformToNative(id); ok {
			readOnly = native
		}
	}
	upper, err := e.classType(ctx, readOnly, args)
	if err != nil {
		return nil, err
	}
	lower := upper
	if e.Classes != nil {
		if mutable, ok := e.Classes.Mutable(readOnly); ok {
			if lower, err = e.classType(ctx, mutable, args); err != nil {
				return nil, err
			}
		}
	}
	flexible, err := types.NewFlexibleType(lower, upper.MakeNullable().(*types.SimpleType))
	if err != nil {
		return nil, err
	}
	return flexible, nil
}

func (e *Enhancer) classType(ctx context.Context, id names.ClassID, args []types.Type) (*types.SimpleType, error) {
	if e.Resolve == nil {
		return types.ClassType(id, false, args...), nil
	}
	class, err := e.Resolve(ctx, id, len(args))
	if err != nil {
		return nil, err
	}
	if class == nil {
		return types.ClassType(id, false, args...), nil
	}
	return types.NewSimpleType(class, false, args...), nil
}
