package descriptors

import (
	"context"
	"fmt"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

// Origin tells how a member came to exist.
type Origin int

const (
	// OriginDeclared members are written in the class.
	OriginDeclared Origin = iota
	// OriginFakeOverride members are inherited from a supertype.
	OriginFakeOverride
	// OriginSynthesized members are generated by the compiler.
	OriginSynthesized
	// OriginCompatibility members are exposed from a mapped platform class.
	OriginCompatibility
)

func (o Origin) String() string {
	return [...]string{"declared", "fake-override", "synthesized", "compatibility"}[o]
}

// TypeParameterDescriptor is a type parameter of a class or function.
// Bounds are either fixed at creation or computed on first access, so a
// declaration can be created before the classes its bounds name.
type TypeParameterDescriptor struct {
	name       names.Name
	container  Descriptor
	Index      int
	Reified    bool
	bounds     []types.Type
	lazyBounds *storage.LazyValue[[]types.Type]
}

// NewTypeParameter creates a type parameter bounded by Any? unless bounds are given.
func NewTypeParameter(container Descriptor, name names.Name, index int, bounds ...types.Type) *TypeParameterDescriptor {
	p := &TypeParameterDescriptor{name: name, container: container, Index: index}
	p.SetUpperBounds(bounds...)
	return p
}

// SetUpperBounds fixes the bounds. No bounds means Any?.
func (p *TypeParameterDescriptor) SetUpperBounds(bounds ...types.Type) {
	if len(bounds) == 0 {
		bounds = []types.Type{types.Any(true)}
	}
	p.bounds = bounds
	p.lazyBounds = nil
}

// SetLazyUpperBounds installs bounds computed on first access.
func (p *TypeParameterDescriptor) SetLazyUpperBounds(v *storage.LazyValue[[]types.Type]) {
	p.lazyBounds = v
}

// UpperBounds returns the bounds, computing them if needed.
func (p *TypeParameterDescriptor) UpperBounds(ctx context.Context) ([]types.Type, error) {
	if p.lazyBounds == nil {
		return p.bounds, nil
	}
	bounds, err := p.lazyBounds.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(bounds) == 0 {
		return []types.Type{types.Any(true)}, nil
	}
	return bounds, nil
}

func (p *TypeParameterDescriptor) Name() names.Name      { return p.name }
func (p *TypeParameterDescriptor) Container() Descriptor { return p.container }
func (p *TypeParameterDescriptor) Kind() Kind            { return KindTypeParameter }

// Annotations of type parameters are not tracked.
func (p *TypeParameterDescriptor) Annotations(context.Context) (Annotations, error) {
	return Annotations{}, nil
}

// Key scopes the parameter to its owner.
func (p *TypeParameterDescriptor) Key() string {
	return fmt.Sprintf("%s#%d", FqNameOf(p.container), p.Index)
}

// DisplayName returns the parameter name.
func (p *TypeParameterDescriptor) DisplayName() string {
	return p.name.String()
}

// DefaultType is the not-null use of the parameter.
func (p *TypeParameterDescriptor) DefaultType() *types.SimpleType {
	return types.NewSimpleType(p, false)
}

// ValueParameterDescriptor is a parameter of a function or constructor.
type ValueParameterDescriptor struct {
	name              names.Name
	owner             Descriptor
	annotations       annotationSlot
	Index             int
	Type              types.Type
	HasDefault        bool
	VarargElementType types.Type
}

// NewValueParameter creates a value parameter.
func NewValueParameter(owner Descriptor, name names.Name, index int, t types.Type) *ValueParameterDescriptor {
	return &ValueParameterDescriptor{name: name, owner: owner, Index: index, Type: t}
}

func (v *ValueParameterDescriptor) Name() names.Name      { return v.name }
func (v *ValueParameterDescriptor) Container() Descriptor { return v.owner }
func (v *ValueParameterDescriptor) Kind() Kind            { return KindValueParameter }

// Annotations returns the parameter annotations.
func (v *ValueParameterDescriptor) Annotations(ctx context.Context) (Annotations, error) {
	return v.annotations.get(ctx)
}

// SetAnnotations installs fixed annotations.
func (v *ValueParameterDescriptor) SetAnnotations(a Annotations) {
	v.annotations = annotationSlot{fixed: a}
}

// SetLazyAnnotations installs annotations computed on first use.
func (v *ValueParameterDescriptor) SetLazyAnnotations(lazy *storage.LazyValue[Annotations]) {
	v.annotations = annotationSlot{lazy: lazy}
}

// callable is the part shared by functions, properties and constructors.
type callable struct {
	name        names.Name
	container   Descriptor
	annotations annotationSlot
}

func (c *callable) Name() names.Name      { return c.name }
func (c *callable) Container() Descriptor { return c.container }

// Annotations returns the member annotations.
func (c *callable) Annotations(ctx context.Context) (Annotations, error) {
	return c.annotations.get(ctx)
}

// SetAnnotations installs fixed annotations.
func (c *callable) SetAnnotations(a Annotations) {
	c.annotations = annotationSlot{fixed: a}
}

// SetLazyAnnotations installs annotations computed on first use.
func (c *callable) SetLazyAnnotations(lazy *storage.LazyValue[Annotations]) {
	c.annotations = annotationSlot{lazy: lazy}
}

// FunctionDescriptor is a member, top-level or synthetic function.
type FunctionDescriptor struct {
	callable
	TypeParameters    []*TypeParameterDescriptor
	ExtensionReceiver types.Type
	ValueParameters   []*ValueParameterDescriptor
	ReturnType        types.Type
	Visibility        Visibility
	Modality          Modality
	Origin            Origin
	Static            bool
	Operator          bool
	// Hidden members resolve only as the target of a super call.
	Hidden bool
	// Overridden links are non-owning; they point at supertype members.
	Overridden []*FunctionDescriptor
}

// NewFunction creates a public final function returning Unit.
func NewFunction(container Descriptor, name names.Name) *FunctionDescriptor {
	return &FunctionDescriptor{
		callable:   callable{name: name, container: container},
		ReturnType: types.ClassType(types.UnitID, false),
	}
}

// Kind returns KindFunction.
func (f *FunctionDescriptor) Kind() Kind { return KindFunction }

// AddParameter appends a value parameter and returns it.
func (f *FunctionDescriptor) AddParameter(name names.Name, t types.Type) *ValueParameterDescriptor {
	p := NewValueParameter(f, name, len(f.ValueParameters), t)
	f.ValueParameters = append(f.ValueParameters, p)
	return p
}

// Copy returns a shallow copy owned by container, with fresh parameters.
func (f *FunctionDescriptor) Copy(container Descriptor) *FunctionDescriptor {
	cp := *f
	cp.container = container
	cp.ValueParameters = make([]*ValueParameterDescriptor, len(f.ValueParameters))
	for i, p := range f.ValueParameters {
		np := *p
		np.owner = &cp
		cp.ValueParameters[i] = &np
	}
	return &cp
}

func (f *FunctionDescriptor) String() string {
	params := make([]string, len(f.ValueParameters))
	for i, p := range f.ValueParameters {
		params[i] = fmt.Sprintf("%s: %s", p.name, p.Type)
	}
	prefix := "fun "
	if f.ExtensionReceiver != nil {
		prefix += f.ExtensionReceiver.String() + "."
	}
	return fmt.Sprintf("%s%s(%s): %s", prefix, f.name, strings.Join(params, ", "), f.ReturnType)
}

// PropertyDescriptor is a member, top-level or synthetic property.
type PropertyDescriptor struct {
	callable
	Type              types.Type
	ExtensionReceiver types.Type
	Mutable           bool
	Visibility        Visibility
	Modality          Modality
	Origin            Origin
	Static            bool
	Getter            *FunctionDescriptor
	Setter            *FunctionDescriptor
	initializer       *storage.NullableLazyValue[ConstantValue]
}

// NewProperty creates a read-only public property.
func NewProperty(container Descriptor, name names.Name, t types.Type) *PropertyDescriptor {
	return &PropertyDescriptor{callable: callable{name: name, container: container}, Type: t}
}

// Kind returns KindProperty.
func (p *PropertyDescriptor) Kind() Kind { return KindProperty }

// SetCompileTimeInitializer installs a lazily loaded constant initializer.
func (p *PropertyDescriptor) SetCompileTimeInitializer(lazy *storage.NullableLazyValue[ConstantValue]) {
	p.initializer = lazy
}

// CompileTimeInitializer returns the constant value of a const property, if any.
func (p *PropertyDescriptor) CompileTimeInitializer(ctx context.Context) (ConstantValue, bool, error) {
	if p.initializer == nil {
		return nil, false, nil
	}
	return p.initializer.Get(ctx)
}

func (p *PropertyDescriptor) String() string {
	keyword := "val "
	if p.Mutable {
		keyword = "var "
	}
	if p.ExtensionReceiver != nil {
		keyword += p.ExtensionReceiver.String() + "."
	}
	return fmt.Sprintf("%s%s: %s", keyword, p.name, p.Type)
}

// ConstructorDescriptor is a class constructor.
type ConstructorDescriptor struct {
	callable
	ValueParameters []*ValueParameterDescriptor
	Visibility      Visibility
	Primary         bool
	Origin          Origin
}

// NewConstructor creates a public constructor of class.
func NewConstructor(class ClassDescriptor) *ConstructorDescriptor {
	return &ConstructorDescriptor{callable: callable{name: names.ConstructorName, container: class}}
}

// Kind returns KindConstructor.
func (c *ConstructorDescriptor) Kind() Kind { return KindConstructor }

// Class returns the constructed class.
func (c *ConstructorDescriptor) Class() ClassDescriptor {
	class, _ := c.container.(ClassDescriptor)
	return class
}

// ReturnType is the default type of the constructed class.
func (c *ConstructorDescriptor) ReturnType() types.Type {
	return DefaultType(c.Class())
}

// AddParameter appends a value parameter and returns it.
func (c *ConstructorDescriptor) AddParameter(name names.Name, t types.Type) *ValueParameterDescriptor {
	p := NewValueParameter(c, name, len(c.ValueParameters), t)
	c.ValueParameters = append(c.ValueParameters, p)
	return p
}

// Copy returns a shallow copy owned by class, with fresh parameters.
func (c *ConstructorDescriptor) Copy(class ClassDescriptor) *ConstructorDescriptor {
	cp := *c
	cp.container = class
	cp.ValueParameters = make([]*ValueParameterDescriptor, len(c.ValueParameters))
	for i, p := range c.ValueParameters {
		np := *p
		np.owner = &cp
		cp.ValueParameters[i] = &np
	}
	return &cp
}

func (c *ConstructorDescriptor) String() string {
	params := make([]string, len(c.ValueParameters))
	for i, p := range c.ValueParameters {
		params[i] = fmt.Sprintf("%s: %s", p.name, p.Type)
	}
	return fmt.Sprintf("constructor(%s)", strings.Join(params, ", "))
}

// IsDeprecated reports whether d carries a Deprecated annotation.
func IsDeprecated(ctx context.Context, d Descriptor) (bool, error) {
	anns, err := d.Annotations(ctx)
	if err != nil {
		return false, err
	}
	return anns.Has(types.DeprecatedID.AsFqName()), nil
}
