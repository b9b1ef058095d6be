package deserialization

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

// ClassDeserializer creates class descriptors, at most one per ClassID.
type ClassDeserializer struct {
	c       *Components
	classes *storage.NullableMemoizedFunction[names.ClassID, descriptors.ClassDescriptor]
}

func newClassDeserializer(c *Components) *ClassDeserializer {
	d := &ClassDeserializer{c: c}
	d.classes = storage.NewNullableMemoizedFunction(c.Storage, d.create,
		storage.Label[descriptors.ClassDescriptor]("deserialized classes"))
	return d
}

// DeserializeClass returns the class for id, or nil when it cannot be created.
func (d *ClassDeserializer) DeserializeClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error) {
	class, ok, err := d.classes.Get(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return class, nil
}

func (d *ClassDeserializer) create(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, bool, error) {
	for _, factory := range d.c.Fictitious {
		class, err := factory.CreateClass(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if class != nil {
			return class, true, nil
		}
	}

	data, ok := d.c.Finder.FindClassData(id)
	if !ok {
		return nil, false, nil
	}
	if err := metadata.ValidateClassHeader(data.Package, data.Class); err != nil {
		if skippable(err) {
			d.c.reportMalformed("class "+id.String(), err)
			return nil, false, nil
		}
		return nil, false, err
	}

	var outer *Context
	if outerID, nested := id.Outer(); nested {
		outerClass, err := d.DeserializeClass(ctx, outerID)
		if err != nil {
			return nil, false, err
		}
		owner, ok := outerClass.(*DeserializedClassDescriptor)
		if !ok || !owner.hasNestedClass(id.ShortName()) {
			return nil, false, nil
		}
		outer = owner.c
	} else {
		fragment, ok, err := d.c.packages.fragment(ctx, id.Package)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		outer = fragment.contextFor(data.Package)
	}

	class, err := newDeserializedClass(outer, id, data.Class)
	if err != nil {
		if skippable(err) {
			d.c.reportMalformed("class "+id.String(), err)
			return nil, false, nil
		}
		return nil, false, err
	}
	d.c.Logger.Debug("deserialized class", zap.Stringer("class", id))
	return class, true, nil
}

// DeserializedClassDescriptor is a class loaded from a metadata record.
// Identity and type parameters are set on creation; everything else is
// computed on first use.
type DeserializedClassDescriptor struct {
	descriptors.ClassBase

	c      *Context
	record *metadata.ClassRecord

	supertypes   *storage.LazyValue[[]types.Type]
	declared     *storage.LazyValue[[]*descriptors.ConstructorDescriptor]
	constructors *storage.LazyValue[[]*descriptors.ConstructorDescriptor]
	scope        *memberScope
	nested       map[names.Name]names.ClassID
	enumEntries  []names.Name
}

func newDeserializedClass(outer *Context, id names.ClassID, rec *metadata.ClassRecord) (*DeserializedClassDescriptor, error) {
	class := &DeserializedClassDescriptor{
		ClassBase: descriptors.NewClassBase(descriptors.ClassHeader{
			ID:         id,
			Container:  outer.Container,
			Kind:       parseClassKind(rec.Kind),
			Modality:   parseModality(rec.Modality),
			Visibility: parseVisibility(rec.Visibility),
			Inner:      rec.Inner,
		}),
		record: rec,
		nested: make(map[names.Name]names.ClassID, len(rec.NestedClasses)),
	}

	c, err := outer.Child(class, rec.TypeParameters)
	if err != nil {
		return nil, err
	}
	c.source = annotationSource{record: outer.Record, class: rec}
	c.Types.debugName = "class " + id.String()
	class.c = c
	class.SetTypeParameters(c.Types.OwnTypeParameters())

	for _, i := range rec.NestedClasses {
		name, err := c.Names.Name(i)
		if err != nil {
			return nil, err
		}
		class.nested[name] = id.Nested(name)
	}
	for _, i := range rec.EnumEntries {
		name, err := c.Names.Name(i)
		if err != nil {
			return nil, err
		}
		class.enumEntries = append(class.enumEntries, name)
	}

	sm := c.Components.Storage
	class.supertypes = storage.NewRecursionTolerantLazyValue(sm, class.computeSupertypes,
		[]types.Type{types.Any(false)})
	class.declared = storage.NewLazyValue(sm, class.computeDeclaredConstructors,
		storage.Label[[]*descriptors.ConstructorDescriptor]("declared constructors of "+id.String()))
	class.constructors = storage.NewLazyValue(sm, class.computeConstructors,
		storage.Label[[]*descriptors.ConstructorDescriptor]("constructors of "+id.String()))
	class.SetLazyAnnotations(storage.NewLazyValue(sm,
		func(ctx context.Context) (descriptors.Annotations, error) {
			return c.Components.Annotations.ClassAnnotations(ctx, c.source)
		},
		storage.Label[descriptors.Annotations]("annotations of "+id.String())))

	class.scope = newMemberScope(c, rec.Functions, rec.Properties, class.nested)
	class.scope.nonDeclared = class.nonDeclaredFunctions
	class.scope.nonDeclaredNames = func(ctx context.Context) ([]names.Name, error) {
		return c.Components.AdditionalParts.FunctionNames(ctx, class)
	}
	return class, nil
}

func (d *DeserializedClassDescriptor) computeSupertypes(ctx context.Context) ([]types.Type, error) {
	out := make([]types.Type, 0, len(d.record.Supertypes)+1)
	for i := range d.record.Supertypes {
		t, err := d.c.Types.Type(ctx, &d.record.Supertypes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if len(out) == 0 && d.ClassID() != types.AnyID {
		out = append(out, types.Any(false))
	}
	extra, err := d.c.Components.AdditionalParts.Supertypes(ctx, d)
	if err != nil {
		return nil, err
	}
	return append(out, extra...), nil
}

func (d *DeserializedClassDescriptor) computeDeclaredConstructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error) {
	var out []*descriptors.ConstructorDescriptor
	for i := range d.record.Constructors {
		ctor, err := d.c.deserializeConstructor(ctx, d, &d.record.Constructors[i], i)
		if err != nil {
			if skippable(err) {
				d.c.Components.reportMalformed(memberDeclaration(metadata.MemberConstructor, names.ConstructorName, i, d.c.Types), err)
				continue
			}
			return nil, err
		}
		out = append(out, ctor)
	}
	return out, nil
}

func (d *DeserializedClassDescriptor) computeConstructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error) {
	declared, err := d.declared.Get(ctx)
	if err != nil {
		return nil, err
	}
	extra, err := d.c.Components.AdditionalParts.Constructors(ctx, d)
	if err != nil {
		return nil, err
	}
	out := make([]*descriptors.ConstructorDescriptor, 0, len(declared)+len(extra))
	out = append(out, declared...)
	return append(out, extra...), nil
}

// nonDeclaredFunctions drops declared functions the platform does not have
// and appends the ones contributed by the additional parts provider.
func (d *DeserializedClassDescriptor) nonDeclaredFunctions(ctx context.Context, name names.Name, declared []*descriptors.FunctionDescriptor) ([]*descriptors.FunctionDescriptor, error) {
	components := d.c.Components
	out := declared[:0:0]
	for _, fn := range declared {
		ok, err := components.PlatformFilter.IsFunctionAvailable(ctx, d, fn)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, fn)
		}
	}
	extra, err := components.AdditionalParts.Functions(ctx, name, d)
	if err != nil {
		return nil, err
	}
	return append(out, extra...), nil
}

// DeclaresFunction reports whether the record itself declares a function
// named name.
func (d *DeserializedClassDescriptor) DeclaresFunction(name names.Name) bool {
	return len(d.scope.functions[name]) > 0
}

// DeclaredFunctions returns the functions written in the record, without
// platform filtering or additional parts.
func (d *DeserializedClassDescriptor) DeclaredFunctions(ctx context.Context, name names.Name) ([]*descriptors.FunctionDescriptor, error) {
	return d.scope.declaredCache.Get(ctx, name)
}

// DeclaredConstructors returns the constructors written in the record.
func (d *DeserializedClassDescriptor) DeclaredConstructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error) {
	return d.declared.Get(ctx)
}

func (d *DeserializedClassDescriptor) hasNestedClass(name names.Name) bool {
	_, ok := d.nested[name]
	return ok
}

// Supertypes returns the declared supertypes, or [Any] when resolving them
// leads back to this class.
func (d *DeserializedClassDescriptor) Supertypes(ctx context.Context) ([]types.Type, error) {
	return d.supertypes.Get(ctx)
}

func (d *DeserializedClassDescriptor) MemberScope() descriptors.MemberScope { return d.scope }

// StaticScope is empty; deserialized classes have no platform statics.
func (d *DeserializedClassDescriptor) StaticScope() descriptors.MemberScope {
	return descriptors.EmptyScope
}

func (d *DeserializedClassDescriptor) Constructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error) {
	return d.constructors.Get(ctx)
}

func (d *DeserializedClassDescriptor) EnumEntries(context.Context) ([]names.Name, error) {
	return d.enumEntries, nil
}

// Extension returns a platform-specific record extension.
func (d *DeserializedClassDescriptor) Extension(key string) (string, bool) {
	v, ok := d.record.Extensions[key]
	return v, ok
}

func (d *DeserializedClassDescriptor) String() string {
	return fmt.Sprintf("%s %s", d.ClassKind(), d.ClassID().Relative)
}
