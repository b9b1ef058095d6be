package descriptors

import (
	"context"

	"github.com/conduit-lang/interop/internal/compiler/types"
)

// SupertypeClasses resolves the class descriptors of c's direct supertypes.
// Supertypes that are not classes (type parameters, error types) are skipped.
func SupertypeClasses(ctx context.Context, c ClassDescriptor) ([]ClassDescriptor, error) {
	supers, err := c.Supertypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ClassDescriptor, 0, len(supers))
	for _, st := range supers {
		ctor, ok := types.ConstructorOf(st)
		if !ok {
			continue
		}
		if cls, ok := ctor.(ClassDescriptor); ok {
			out = append(out, cls)
		}
	}
	return out, nil
}

// WalkSupertypes visits every class reachable from root through supertype
// links, depth first, each at most once. The root itself is not passed to
// visit. When visit returns false the walk does not descend below that class.
// The walk uses an explicit stack, so malformed or cyclic supertype data
// terminates.
func WalkSupertypes(ctx context.Context, root ClassDescriptor, visit func(ClassDescriptor) (bool, error)) error {
	visited := map[string]bool{root.Key(): true}
	stack := []ClassDescriptor{root}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current != root {
			descend, err := visit(current)
			if err != nil {
				return err
			}
			if !descend {
				continue
			}
		}

		supers, err := SupertypeClasses(ctx, current)
		if err != nil {
			return err
		}
		// push in reverse so the first supertype is visited first
		for i := len(supers) - 1; i >= 0; i-- {
			s := supers[i]
			if visited[s.Key()] {
				continue
			}
			visited[s.Key()] = true
			stack = append(stack, s)
		}
	}
	return nil
}

// SuperClassNotAny returns the first supertype of c that is a class (not an
// interface) other than Any.
func SuperClassNotAny(ctx context.Context, c ClassDescriptor) (ClassDescriptor, error) {
	supers, err := SupertypeClasses(ctx, c)
	if err != nil {
		return nil, err
	}
	for _, s := range supers {
		if s.ClassID() == types.AnyID {
			continue
		}
		if s.ClassKind() == ClassKindClass || s.ClassKind() == ClassKindEnumClass {
			return s, nil
		}
	}
	return nil, nil
}

// StaticScopeOwner is implemented by classes whose static scope comes from
// the platform.
type StaticScopeOwner interface {
	HasPlatformStatics() bool
}

// ParentStaticScope walks the superclass chain of c and returns the static
// scope of the nearest platform superclass, or nil.
func ParentStaticScope(ctx context.Context, c ClassDescriptor) (MemberScope, error) {
	seen := map[string]bool{c.Key(): true}
	current := c
	for {
		super, err := SuperClassNotAny(ctx, current)
		if err != nil || super == nil {
			return nil, err
		}
		if seen[super.Key()] {
			return nil, nil
		}
		seen[super.Key()] = true
		if owner, ok := super.(StaticScopeOwner); ok && owner.HasPlatformStatics() {
			return super.StaticScope(), nil
		}
		current = super
	}
}
