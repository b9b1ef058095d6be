// Package synthetic provides pluggable sources of resolvable members that do
// not exist in the descriptor graph, such as platform getters seen as
// properties. Providers are consulted in registration order and their results
// concatenated; callers must tolerate duplicates.
package synthetic

import (
	"context"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// Scope is one provider of synthetic members.
type Scope interface {
	SyntheticExtensionProperties(ctx context.Context, receiverTypes []types.Type, name names.Name, location descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error)
	SyntheticMemberFunctions(ctx context.Context, receiverTypes []types.Type, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error)
	SyntheticStaticFunctions(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error)
	SyntheticConstructors(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error)

	AllSyntheticExtensionProperties(ctx context.Context, receiverTypes []types.Type) ([]*descriptors.PropertyDescriptor, error)
	AllSyntheticMemberFunctions(ctx context.Context, receiverTypes []types.Type) ([]*descriptors.FunctionDescriptor, error)
	AllSyntheticStaticFunctions(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error)
	AllSyntheticConstructors(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error)

	// SyntheticConstructor returns a synthetic variant of constructor, or nil.
	SyntheticConstructor(ctx context.Context, constructor *descriptors.ConstructorDescriptor) (*descriptors.ConstructorDescriptor, error)
}

// Base contributes nothing. Providers embed it and override what they supply.
type Base struct{}

func (Base) SyntheticExtensionProperties(context.Context, []types.Type, names.Name, descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	return nil, nil
}

func (Base) SyntheticMemberFunctions(context.Context, []types.Type, names.Name, descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (Base) SyntheticStaticFunctions(context.Context, descriptors.MemberScope, names.Name, descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (Base) SyntheticConstructors(context.Context, descriptors.MemberScope, names.Name, descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (Base) AllSyntheticExtensionProperties(context.Context, []types.Type) ([]*descriptors.PropertyDescriptor, error) {
	return nil, nil
}

func (Base) AllSyntheticMemberFunctions(context.Context, []types.Type) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (Base) AllSyntheticStaticFunctions(context.Context, descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (Base) AllSyntheticConstructors(context.Context, descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (Base) SyntheticConstructor(context.Context, *descriptors.ConstructorDescriptor) (*descriptors.ConstructorDescriptor, error) {
	return nil, nil
}

// Scopes is the ordered set of registered providers.
type Scopes struct {
	scopes []Scope
}

// Empty has no providers.
var Empty = &Scopes{}

// NewScopes registers providers in the given order.
func NewScopes(scopes ...Scope) *Scopes {
	return &Scopes{scopes: append([]Scope(nil), scopes...)}
}

// Scopes returns the providers in registration order.
func (s *Scopes) Scopes() []Scope {
	if s == nil {
		return nil
	}
	return s.scopes
}

func collect[T any](ctx context.Context, s *Scopes, query func(Scope) ([]T, error)) ([]T, error) {
	var out []T
	for _, scope := range s.Scopes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := query(scope)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// CollectExtensionProperties concatenates the synthetic extension properties named name.
func (s *Scopes) CollectExtensionProperties(ctx context.Context, receiverTypes []types.Type, name names.Name, location descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.PropertyDescriptor, error) {
		return sc.SyntheticExtensionProperties(ctx, receiverTypes, name, location)
	})
}

// CollectMemberFunctions concatenates the synthetic member functions named name.
func (s *Scopes) CollectMemberFunctions(ctx context.Context, receiverTypes []types.Type, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.FunctionDescriptor, error) {
		return sc.SyntheticMemberFunctions(ctx, receiverTypes, name, location)
	})
}

// CollectStaticFunctions concatenates the synthetic static functions named name.
func (s *Scopes) CollectStaticFunctions(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.FunctionDescriptor, error) {
		return sc.SyntheticStaticFunctions(ctx, scope, name, location)
	})
}

// CollectConstructors concatenates the synthetic constructors named name.
func (s *Scopes) CollectConstructors(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.FunctionDescriptor, error) {
		return sc.SyntheticConstructors(ctx, scope, name, location)
	})
}

// CollectAllExtensionProperties concatenates every synthetic extension property.
func (s *Scopes) CollectAllExtensionProperties(ctx context.Context, receiverTypes []types.Type) ([]*descriptors.PropertyDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.PropertyDescriptor, error) {
		return sc.AllSyntheticExtensionProperties(ctx, receiverTypes)
	})
}

// CollectAllMemberFunctions concatenates every synthetic member function.
func (s *Scopes) CollectAllMemberFunctions(ctx context.Context, receiverTypes []types.Type) ([]*descriptors.FunctionDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.FunctionDescriptor, error) {
		return sc.AllSyntheticMemberFunctions(ctx, receiverTypes)
	})
}

// CollectAllStaticFunctions concatenates every synthetic static function.
func (s *Scopes) CollectAllStaticFunctions(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.FunctionDescriptor, error) {
		return sc.AllSyntheticStaticFunctions(ctx, scope)
	})
}

// CollectAllConstructors concatenates every synthetic constructor.
func (s *Scopes) CollectAllConstructors(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.FunctionDescriptor, error) {
		return sc.AllSyntheticConstructors(ctx, scope)
	})
}

// CollectConstructorVariants returns the non-nil synthetic variants of constructor.
func (s *Scopes) CollectConstructorVariants(ctx context.Context, constructor *descriptors.ConstructorDescriptor) ([]*descriptors.ConstructorDescriptor, error) {
	return collect(ctx, s, func(sc Scope) ([]*descriptors.ConstructorDescriptor, error) {
		c, err := sc.SyntheticConstructor(ctx, constructor)
		if err != nil || c == nil {
			return nil, err
		}
		return []*descriptors.ConstructorDescriptor{c}, nil
	})
}
