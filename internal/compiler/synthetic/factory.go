package synthetic

import (
	"context"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// FactoryNames are the static functions treated as platform factories.
var FactoryNames = []names.Name{"valueOf", "of"}

func isFactoryName(name names.Name) bool {
	for _, n := range FactoryNames {
		if n == name {
			return true
		}
	}
	return false
}

// PlatformFactoryScope exposes static factories of platform classes. A
// factory is a static valueOf or of whose result is the declaring class.
// Factories are offered as static functions with a not-null result and,
// under the class name, as constructor-like functions.
type PlatformFactoryScope struct {
	Base
}

// NewPlatformFactoryScope returns the provider.
func NewPlatformFactoryScope() *PlatformFactoryScope {
	return &PlatformFactoryScope{}
}

// SyntheticStaticFunctions returns not-null variants of the factories named
// name in a static scope.
func (s *PlatformFactoryScope) SyntheticStaticFunctions(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	if !isFactoryName(name) {
		return nil, nil
	}
	fns, err := scope.ContributedFunctions(ctx, name, location)
	if err != nil {
		return nil, err
	}
	var out []*descriptors.FunctionDescriptor
	for _, fn := range fns {
		class, ok := factoryOwner(fn)
		if !ok {
			continue
		}
		variant := copyFactory(fn, class, fn.Name())
		variant.Static = true
		out = append(out, variant)
	}
	return out, nil
}

// AllSyntheticStaticFunctions returns the not-null variants of every factory in scope.
func (s *PlatformFactoryScope) AllSyntheticStaticFunctions(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	var out []*descriptors.FunctionDescriptor
	for _, name := range FactoryNames {
		fns, err := s.SyntheticStaticFunctions(ctx, scope, name, descriptors.FromSynthetic)
		if err != nil {
			return nil, err
		}
		out = append(out, fns...)
	}
	return out, nil
}

// SyntheticConstructors returns functions named after the platform class
// name in scope, one per factory that no real constructor already covers.
func (s *PlatformFactoryScope) SyntheticConstructors(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	classifier, err := scope.ContributedClassifier(ctx, name, location)
	if err != nil {
		return nil, err
	}
	class, ok := classifier.(*interop.LazyPlatformClassDescriptor)
	if !ok || class.ClassKind() != descriptors.ClassKindClass {
		return nil, nil
	}
	ctors, err := class.Constructors(ctx)
	if err != nil {
		return nil, err
	}

	var out []*descriptors.FunctionDescriptor
	for _, factoryName := range FactoryNames {
		fns, err := class.StaticScope().ContributedFunctions(ctx, factoryName, location)
		if err != nil {
			return nil, err
		}
		for _, fn := range fns {
			owner, ok := factoryOwner(fn)
			if !ok || owner != descriptors.ClassDescriptor(class) || coveredByConstructor(fn, ctors) {
				continue
			}
			variant := copyFactory(fn, class, name)
			variant.TypeParameters = fn.TypeParameters
			out = append(out, variant)
		}
	}
	return out, nil
}

// AllSyntheticConstructors returns the constructor-like factories of every class in scope.
func (s *PlatformFactoryScope) AllSyntheticConstructors(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	classifierNames, err := scope.ClassifierNames(ctx)
	if err != nil {
		return nil, err
	}
	var out []*descriptors.FunctionDescriptor
	for _, name := range classifierNames {
		fns, err := s.SyntheticConstructors(ctx, scope, name, descriptors.FromSynthetic)
		if err != nil {
			return nil, err
		}
		out = append(out, fns...)
	}
	return out, nil
}

// factoryOwner returns the platform class fn is a factory of.
func factoryOwner(fn *descriptors.FunctionDescriptor) (descriptors.ClassDescriptor, bool) {
	if !fn.Static || fn.Hidden {
		return nil, false
	}
	class, ok := fn.Container().(*interop.LazyPlatformClassDescriptor)
	if !ok {
		return nil, false
	}
	id, ok := types.ClassIDOf(fn.ReturnType)
	if !ok || id != class.ClassID() {
		return nil, false
	}
	if _, annotated := fn.ReturnType.(*types.EnhancedType); annotated && types.MustNotBeNull(fn.ReturnType) == nil {
		return nil, false
	}
	return class, true
}

func coveredByConstructor(fn *descriptors.FunctionDescriptor, ctors []*descriptors.ConstructorDescriptor) bool {
	for _, c := range ctors {
		if len(c.ValueParameters) != len(fn.ValueParameters) {
			continue
		}
		same := true
		for i, p := range c.ValueParameters {
			if !types.Unwrap(p.Type).Equals(types.Unwrap(fn.ValueParameters[i].Type)) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func copyFactory(fn *descriptors.FunctionDescriptor, class descriptors.ClassDescriptor, name names.Name) *descriptors.FunctionDescriptor {
	out := descriptors.NewFunction(class, name)
	for _, p := range fn.ValueParameters {
		np := out.AddParameter(p.Name(), p.Type)
		np.VarargElementType = p.VarargElementType
		np.HasDefault = p.HasDefault
	}
	out.ReturnType = notNullResult(fn.ReturnType)
	out.Visibility = fn.Visibility
	out.Modality = descriptors.ModalityFinal
	out.Origin = descriptors.OriginSynthesized
	return out
}

// notNullResult pins the result of a factory as not-null unless an
// annotation already decided it.
func notNullResult(t types.Type) types.Type {
	if _, ok := t.(*types.EnhancedType); ok || types.MustNotBeNull(t) != nil {
		return t
	}
	return types.NewEnhancedType(t, types.LowerBound(t).MakeNotNullable())
}
