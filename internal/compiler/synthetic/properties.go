package synthetic

import (
	"context"
	"strings"
	"unicode"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

var booleanID = names.MustParseClassID("kotlin/Boolean")

// ClassResolver finds class descriptors by id.
type ClassResolver interface {
	ResolveClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error)
}

// PlatformPropertiesScope exposes getter and setter pairs of platform
// classes as extension properties: getFoo() becomes foo, isFoo() stays isFoo,
// and a matching setFoo(value) makes the property mutable.
type PlatformPropertiesScope struct {
	Base
	Classes ClassResolver
}

// NewPlatformPropertiesScope returns the provider. classes resolves receiver
// types that do not carry their descriptor and may be nil.
func NewPlatformPropertiesScope(classes ClassResolver) *PlatformPropertiesScope {
	return &PlatformPropertiesScope{Classes: classes}
}

// SyntheticExtensionProperties returns the properties named name on each receiver type.
func (s *PlatformPropertiesScope) SyntheticExtensionProperties(ctx context.Context, receiverTypes []types.Type, name names.Name, _ descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	var out []*descriptors.PropertyDescriptor
	for _, receiver := range receiverTypes {
		props, err := s.properties(ctx, receiver)
		if err != nil {
			return nil, err
		}
		for _, p := range props {
			if p.Name() == name {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// AllSyntheticExtensionProperties returns every property on each receiver type.
func (s *PlatformPropertiesScope) AllSyntheticExtensionProperties(ctx context.Context, receiverTypes []types.Type) ([]*descriptors.PropertyDescriptor, error) {
	var out []*descriptors.PropertyDescriptor
	for _, receiver := range receiverTypes {
		props, err := s.properties(ctx, receiver)
		if err != nil {
			return nil, err
		}
		out = append(out, props...)
	}
	return out, nil
}

func (s *PlatformPropertiesScope) classOf(ctx context.Context, t types.Type) (descriptors.ClassDescriptor, error) {
	ctor, ok := types.ConstructorOf(t)
	if !ok {
		return nil, nil
	}
	if class, ok := ctor.(descriptors.ClassDescriptor); ok {
		return class, nil
	}
	id, ok := types.ClassIDOf(t)
	if !ok || s.Classes == nil {
		return nil, nil
	}
	return s.Classes.ResolveClass(ctx, id)
}

// platformHierarchy walks the platform classes above class, the class first.
// The visited set guards against cyclic supertype data.
func (s *PlatformPropertiesScope) platformHierarchy(ctx context.Context, class descriptors.ClassDescriptor) ([]*interop.LazyPlatformClassDescriptor, error) {
	var out []*interop.LazyPlatformClassDescriptor
	visited := make(map[string]bool)
	stack := []descriptors.ClassDescriptor{class}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current.Key()] {
			continue
		}
		visited[current.Key()] = true
		platform, ok := current.(*interop.LazyPlatformClassDescriptor)
		if !ok {
			continue
		}
		out = append(out, platform)

		supers, err := platform.Supertypes(ctx)
		if err != nil {
			return nil, err
		}
		for i := len(supers) - 1; i >= 0; i-- {
			super, err := s.classOf(ctx, supers[i])
			if err != nil {
				return nil, err
			}
			if super != nil {
				stack = append(stack, super)
			}
		}
	}
	return out, nil
}

type accessor struct {
	property names.Name
	suffix   string
	getter   *descriptors.FunctionDescriptor
}

func (s *PlatformPropertiesScope) properties(ctx context.Context, receiver types.Type) ([]*descriptors.PropertyDescriptor, error) {
	class, err := s.classOf(ctx, receiver)
	if err != nil || class == nil {
		return nil, err
	}
	hierarchy, err := s.platformHierarchy(ctx, class)
	if err != nil {
		return nil, err
	}

	var getters []accessor
	seen := make(map[names.Name]bool)
	for _, c := range hierarchy {
		fnNames, err := c.MemberScope().FunctionNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, fnName := range fnNames {
			property, suffix, ok := PropertyNameForGetter(string(fnName))
			if !ok || seen[property] {
				continue
			}
			getter, err := findAccessor(ctx, c, fnName, isGetter)
			if err != nil {
				return nil, err
			}
			if getter == nil {
				continue
			}
			seen[property] = true
			getters = append(getters, accessor{property: property, suffix: suffix, getter: getter})
		}
	}

	out := make([]*descriptors.PropertyDescriptor, 0, len(getters))
	for _, a := range getters {
		var setter *descriptors.FunctionDescriptor
		for _, c := range hierarchy {
			setter, err = findAccessor(ctx, c, names.Name("set"+a.suffix), func(fn *descriptors.FunctionDescriptor) bool {
				return isSetter(fn, a.getter.ReturnType)
			})
			if err != nil {
				return nil, err
			}
			if setter != nil {
				break
			}
		}
		p := descriptors.NewProperty(class, a.property, a.getter.ReturnType)
		p.ExtensionReceiver = receiver
		p.Visibility = a.getter.Visibility
		p.Modality = a.getter.Modality
		p.Origin = descriptors.OriginSynthesized
		p.Getter = a.getter
		p.Setter = setter
		p.Mutable = setter != nil
		out = append(out, p)
	}
	return out, nil
}

func findAccessor(ctx context.Context, class descriptors.ClassDescriptor, name names.Name, accept func(*descriptors.FunctionDescriptor) bool) (*descriptors.FunctionDescriptor, error) {
	fns, err := class.MemberScope().ContributedFunctions(ctx, name, descriptors.FromSynthetic)
	if err != nil {
		return nil, err
	}
	for _, fn := range fns {
		if accept(fn) {
			return fn, nil
		}
	}
	return nil, nil
}

func isGetter(fn *descriptors.FunctionDescriptor) bool {
	if fn.Static || fn.Hidden || len(fn.ValueParameters) > 0 || len(fn.TypeParameters) > 0 {
		return false
	}
	if fn.Visibility != descriptors.VisibilityPublic && fn.Visibility != descriptors.VisibilityProtected {
		return false
	}
	id, ok := types.ClassIDOf(fn.ReturnType)
	if !ok {
		return true
	}
	if id == types.UnitID {
		return false
	}
	if strings.HasPrefix(string(fn.Name()), "is") {
		return id == booleanID
	}
	return true
}

func isSetter(fn *descriptors.FunctionDescriptor, propertyType types.Type) bool {
	if fn.Static || fn.Hidden || len(fn.ValueParameters) != 1 || len(fn.TypeParameters) > 0 {
		return false
	}
	if id, ok := types.ClassIDOf(fn.ReturnType); !ok || id != types.UnitID {
		return false
	}
	want, ok := types.ClassIDOf(propertyType)
	got, ok2 := types.ClassIDOf(fn.ValueParameters[0].Type)
	return ok == ok2 && want == got
}

// PropertyNameForGetter maps a getter name to its property name and to the
// suffix a setter would carry: getURLString gives urlString and
// URLString, isEnabled gives isEnabled and Enabled.
func PropertyNameForGetter(method string) (names.Name, string, bool) {
	switch {
	case startsWithUpperAfter(method, "is"):
		return names.Name(method), method[2:], true
	case startsWithUpperAfter(method, "get"):
		suffix := method[3:]
		return names.Name(decapitalize(suffix)), suffix, true
	}
	return "", "", false
}

func startsWithUpperAfter(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) || len(s) == len(prefix) {
		return false
	}
	return unicode.IsUpper(rune(s[len(prefix)]))
}

// decapitalize lowercases a leading run of capitals, keeping the last one
// when it starts the next word: URLString becomes urlString.
func decapitalize(s string) string {
	runes := []rune(s)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}
	switch {
	case upper == 0:
		return s
	case upper == 1 || upper == len(runes):
		for i := 0; i < upper; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	default:
		for i := 0; i < upper-1; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	}
	return string(runes)
}
