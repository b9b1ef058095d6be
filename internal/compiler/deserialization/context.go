package deserialization

import (
	"context"
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

// Context carries what deserializing one declaration needs: the session
// components, the name table of its record and the type parameters in scope.
type Context struct {
	Components *Components
	Names      *metadata.NameResolver
	Record     *metadata.PackageRecord
	Container  descriptors.Descriptor
	Types      *TypeDeserializer
	// source keys the annotation loader for members of Container.
	source annotationSource
}

func newPackageContext(c *Components, record *metadata.PackageRecord, fragment descriptors.Descriptor) *Context {
	ctx := &Context{
		Components: c,
		Names:      metadata.NewNameResolver(record),
		Record:     record,
		Container:  fragment,
		source:     annotationSource{record: record},
	}
	ctx.Types = &TypeDeserializer{c: ctx, debugName: "package " + record.Package}
	return ctx
}

// Child creates the context of a declaration nested in c, with its own type
// parameters. Bounds are resolved on first access, so a bound may refer to
// any parameter of the same list and to classes that refer back to
// container.
func (c *Context) Child(container descriptors.Descriptor, params []metadata.TypeParameterRecord) (*Context, error) {
	child := &Context{
		Components: c.Components,
		Names:      c.Names,
		Record:     c.Record,
		Container:  container,
		source:     c.source,
	}
	td := &TypeDeserializer{
		c:         child,
		parent:    c.Types,
		params:    make(map[names.Name]*descriptors.TypeParameterDescriptor, len(params)),
		debugName: fmt.Sprintf("deserializer for %s", container.Name()),
	}
	child.Types = td

	for i := range params {
		name, err := c.Names.Name(params[i].Name)
		if err != nil {
			return nil, err
		}
		p := descriptors.NewTypeParameter(container, name, i)
		p.Reified = params[i].Reified
		if records := params[i].UpperBounds; len(records) > 0 {
			p.SetLazyUpperBounds(storage.NewLazyValue(c.Components.Storage,
				func(ctx context.Context) ([]types.Type, error) {
					bounds := make([]types.Type, 0, len(records))
					for j := range records {
						b, err := td.Type(ctx, &records[j])
						if err != nil {
							return nil, err
						}
						bounds = append(bounds, b)
					}
					return bounds, nil
				},
				storage.Label[[]types.Type](fmt.Sprintf("bounds of %s in %s", name, descriptors.FqNameOf(container)))))
		}
		td.params[name] = p
		td.ordered = append(td.ordered, p)
	}
	return child, nil
}

// TypeDeserializer resolves type records. Type parameter names resolve
// through a chain: own parameters first, then the enclosing declaration's
// deserializer, up to the package.
type TypeDeserializer struct {
	c         *Context
	parent    *TypeDeserializer
	params    map[names.Name]*descriptors.TypeParameterDescriptor
	ordered   []*descriptors.TypeParameterDescriptor
	debugName string
}

// OwnTypeParameters returns the parameters declared at this level.
func (t *TypeDeserializer) OwnTypeParameters() []*descriptors.TypeParameterDescriptor {
	return t.ordered
}

func (t *TypeDeserializer) String() string {
	return t.debugName
}

func (t *TypeDeserializer) typeParameter(name names.Name) (*descriptors.TypeParameterDescriptor, bool) {
	for td := t; td != nil; td = td.parent {
		if p, ok := td.params[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// Type resolves a type record. Records carrying an upper bound are handed to
// the flexible type deserializer.
func (t *TypeDeserializer) Type(ctx context.Context, rec *metadata.TypeRecord) (types.Type, error) {
	lower, err := t.simpleType(ctx, rec)
	if err != nil {
		return nil, err
	}
	if rec.FlexibleUpper == nil {
		return lower, nil
	}
	upper, err := t.simpleType(ctx, rec.FlexibleUpper)
	if err != nil {
		return nil, err
	}
	result := t.c.Components.FlexibleTypes.Create(rec.FlexibleID, lower, upper)
	if types.IsError(result) {
		t.c.Components.Reporter.Report(errors.NewUnknownFlexibleType(rec.FlexibleID, t.debugName))
	}
	return result, nil
}

func (t *TypeDeserializer) simpleType(ctx context.Context, rec *metadata.TypeRecord) (*types.SimpleType, error) {
	args := make([]types.Type, 0, len(rec.Arguments))
	for i := range rec.Arguments {
		arg, err := t.Type(ctx, &rec.Arguments[i])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	switch {
	case rec.TypeParameter != nil:
		name, err := t.c.Names.Name(*rec.TypeParameter)
		if err != nil {
			return nil, err
		}
		p, ok := t.typeParameter(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown type parameter %s in %s", metadata.ErrMalformedRecord, name, t.debugName)
		}
		return types.NewSimpleType(p, rec.Nullable), nil
	case rec.Class != nil:
		id, err := t.c.Names.ClassID(*rec.Class)
		if err != nil {
			return nil, err
		}
		class, err := t.resolveClass(ctx, id, len(args))
		if err != nil {
			return nil, err
		}
		return types.NewSimpleType(class, rec.Nullable, args...), nil
	}
	return nil, fmt.Errorf("%w: empty type in %s", metadata.ErrMalformedRecord, t.debugName)
}

// resolveClass finds id across the module and its dependencies, substituting
// a placeholder when it is missing. Only identity is forced; the class body
// stays lazy.
func (t *TypeDeserializer) resolveClass(ctx context.Context, id names.ClassID, arity int) (descriptors.ClassDescriptor, error) {
	// a class under construction is not yet reachable through its package
	for td := t; td != nil; td = td.parent {
		if self, ok := td.c.Container.(descriptors.ClassDescriptor); ok && self.ClassID() == id {
			return self, nil
		}
	}
	components := t.c.Components
	class, err := components.Module.FindClassAcrossDependencies(ctx, id, components.NotFound, []int{arity})
	if err != nil {
		return nil, err
	}
	if descriptors.IsMissingDependency(class) {
		components.reportMissing(id, t.debugName)
	}
	return class, nil
}
