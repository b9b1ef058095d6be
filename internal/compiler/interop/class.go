package interop

import (
	"context"
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

var (
	javaObjectID       = names.MustParseClassID("java/lang/Object")
	platformDeprecated = "Deprecated in the platform"
)

func platformVisibility(s string) descriptors.Visibility {
	switch s {
	case "protected":
		return descriptors.VisibilityProtected
	case "private":
		return descriptors.VisibilityPrivate
	case "package-private":
		return descriptors.VisibilityPackagePrivate
	}
	return descriptors.VisibilityPublic
}

func platformClassKind(s string) descriptors.ClassKind {
	switch s {
	case "interface":
		return descriptors.ClassKindInterface
	case "enum":
		return descriptors.ClassKindEnumClass
	case "annotation":
		return descriptors.ClassKindAnnotationClass
	}
	return descriptors.ClassKindClass
}

// platformModality applies the platform defaults: classes and methods are
// open, interfaces abstract, enums final.
func platformModality(s string, kind descriptors.ClassKind) descriptors.Modality {
	switch s {
	case "final":
		return descriptors.ModalityFinal
	case "abstract":
		return descriptors.ModalityAbstract
	case "open":
		return descriptors.ModalityOpen
	}
	switch kind {
	case descriptors.ClassKindInterface, descriptors.ClassKindAnnotationClass:
		return descriptors.ModalityAbstract
	case descriptors.ClassKindEnumClass:
		return descriptors.ModalityFinal
	}
	return descriptors.ModalityOpen
}

// platformAnnotations turns annotation names into descriptors, adding the
// native deprecation for deprecated members.
func platformAnnotations(fqs []string, deprecated bool) descriptors.Annotations {
	anns := make([]*descriptors.Annotation, 0, len(fqs)+1)
	for _, fq := range fqs {
		anns = append(anns, descriptors.NewAnnotation(names.TopLevel(names.FqName(fq))))
	}
	if deprecated {
		anns = append(anns, descriptors.DeprecatedAnnotation(platformDeprecated, "", ""))
	}
	return descriptors.NewAnnotations(anns...)
}

// memberTable holds every member of a platform class, created together on
// first use.
type memberTable struct {
	functions    map[names.Name][]*descriptors.FunctionDescriptor
	statics      map[names.Name][]*descriptors.FunctionDescriptor
	fields       map[names.Name][]*descriptors.PropertyDescriptor
	staticFields map[names.Name][]*descriptors.PropertyDescriptor
	jvm          map[*descriptors.FunctionDescriptor]string
}

// LazyPlatformClassDescriptor is a class loaded from a platform description.
// Member signatures are enhanced with annotation nullability; statics live
// in a separate scope.
type LazyPlatformClassDescriptor struct {
	descriptors.ClassBase
	loader *Loader
	class  *PlatformClass
	params *parameterScope

	supertypes   *storage.LazyValue[[]types.Type]
	members      *storage.LazyValue[*memberTable]
	constructors *storage.LazyValue[[]*descriptors.ConstructorDescriptor]
	memberScope  *platformMemberScope
	staticScope  *platformStaticScope
}

func newLazyPlatformClass(l *Loader, container descriptors.Descriptor, id names.ClassID, class *PlatformClass) *LazyPlatformClassDescriptor {
	kind := platformClassKind(class.Kind)
	c := &LazyPlatformClassDescriptor{
		ClassBase: descriptors.NewClassBase(descriptors.ClassHeader{
			ID:         id,
			Container:  container,
			Kind:       kind,
			Modality:   platformModality(class.Modality, kind),
			Visibility: platformVisibility(class.Visibility),
		}),
		loader: l,
		class:  class,
	}
	tps := make([]*descriptors.TypeParameterDescriptor, len(class.TypeParameters))
	for i, p := range class.TypeParameters {
		tps[i] = descriptors.NewTypeParameter(c, names.Name(p.Name), i)
	}
	c.SetTypeParameters(tps)
	c.params = &parameterScope{params: tps}
	if outer, ok := container.(*LazyPlatformClassDescriptor); ok {
		c.params.parent = outer.params
	}
	c.SetAnnotations(platformAnnotations(nil, class.Deprecated))

	label := id.String()
	c.supertypes = storage.NewRecursionTolerantLazyValue(l.storage, c.computeSupertypes,
		[]types.Type{types.Any(false)})
	c.members = storage.NewLazyValue(l.storage, c.computeMembers,
		storage.Label[*memberTable]("members of platform class "+label))
	c.constructors = storage.NewLazyValue(l.storage, c.computeConstructors,
		storage.Label[[]*descriptors.ConstructorDescriptor]("constructors of platform class "+label))
	c.memberScope = &platformMemberScope{class: c}
	c.staticScope = &platformStaticScope{class: c}
	return c
}

// PlatformClass returns the description the class was loaded from.
func (c *LazyPlatformClassDescriptor) PlatformClass() *PlatformClass { return c.class }

// HasPlatformStatics is always true.
func (c *LazyPlatformClassDescriptor) HasPlatformStatics() bool { return true }

func (c *LazyPlatformClassDescriptor) Supertypes(ctx context.Context) ([]types.Type, error) {
	return c.supertypes.Get(ctx)
}

func (c *LazyPlatformClassDescriptor) MemberScope() descriptors.MemberScope { return c.memberScope }
func (c *LazyPlatformClassDescriptor) StaticScope() descriptors.MemberScope { return c.staticScope }

func (c *LazyPlatformClassDescriptor) Constructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error) {
	return c.constructors.Get(ctx)
}

// DeclaredConstructors is Constructors; platform classes have no
// contributed constructors.
func (c *LazyPlatformClassDescriptor) DeclaredConstructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error) {
	return c.constructors.Get(ctx)
}

func (c *LazyPlatformClassDescriptor) EnumEntries(context.Context) ([]names.Name, error) {
	out := make([]names.Name, len(c.class.EnumEntries))
	for i, e := range c.class.EnumEntries {
		out[i] = names.Name(e)
	}
	return out, nil
}

// DeclaredFunctions returns the instance methods named name.
func (c *LazyPlatformClassDescriptor) DeclaredFunctions(ctx context.Context, name names.Name) ([]*descriptors.FunctionDescriptor, error) {
	m, err := c.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	return m.functions[name], nil
}

// JVMDescriptor returns the "name(params)ret" descriptor of a member loaded
// by this class.
func (c *LazyPlatformClassDescriptor) JVMDescriptor(ctx context.Context, fn *descriptors.FunctionDescriptor) (string, bool, error) {
	m, err := c.members.Get(ctx)
	if err != nil {
		return "", false, err
	}
	d, ok := m.jvm[fn]
	return d, ok, nil
}

func (c *LazyPlatformClassDescriptor) String() string {
	return fmt.Sprintf("platform %s %s", c.ClassKind(), c.ClassID().Relative)
}

func (c *LazyPlatformClassDescriptor) computeSupertypes(ctx context.Context) ([]types.Type, error) {
	out := make([]types.Type, 0, len(c.class.Supertypes))
	for _, st := range c.class.Supertypes {
		t, err := c.loader.enhancer.EnhanceSupertype(ctx, st, c.params)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if len(out) == 0 && c.ClassID() != javaObjectID {
		out = append(out, types.Any(false))
	}
	return out, nil
}

func (c *LazyPlatformClassDescriptor) computeMembers(ctx context.Context) (*memberTable, error) {
	m := &memberTable{
		functions:    make(map[names.Name][]*descriptors.FunctionDescriptor),
		statics:      make(map[names.Name][]*descriptors.FunctionDescriptor),
		fields:       make(map[names.Name][]*descriptors.PropertyDescriptor),
		staticFields: make(map[names.Name][]*descriptors.PropertyDescriptor),
		jvm:          make(map[*descriptors.FunctionDescriptor]string),
	}
	for i := range c.class.Methods {
		method := &c.class.Methods[i]
		fn, err := c.method(ctx, method)
		if err != nil {
			return nil, err
		}
		m.jvm[fn] = MethodDescriptor(c.class, method)
		if method.Static {
			m.statics[fn.Name()] = append(m.statics[fn.Name()], fn)
		} else {
			m.functions[fn.Name()] = append(m.functions[fn.Name()], fn)
		}
	}
	for i := range c.class.Fields {
		field := &c.class.Fields[i]
		p, err := c.field(ctx, field)
		if err != nil {
			return nil, err
		}
		if field.Static {
			m.staticFields[p.Name()] = append(m.staticFields[p.Name()], p)
		} else {
			m.fields[p.Name()] = append(m.fields[p.Name()], p)
		}
	}
	if descriptors.IsEnumClass(c) {
		c.addEnumMembers(m)
	}
	return m, nil
}

func (c *LazyPlatformClassDescriptor) method(ctx context.Context, m *PlatformMethod) (*descriptors.FunctionDescriptor, error) {
	fn := descriptors.NewFunction(c, names.Name(m.Name))
	fn.Visibility = platformVisibility(m.Visibility)
	fn.Static = m.Static
	fn.Origin = descriptors.OriginDeclared
	switch {
	case m.Static:
		fn.Modality = descriptors.ModalityFinal
	case m.Modality != "":
		fn.Modality = platformModality(m.Modality, descriptors.ClassKindClass)
	case c.ClassKind() == descriptors.ClassKindInterface:
		fn.Modality = descriptors.ModalityAbstract
	default:
		fn.Modality = descriptors.ModalityOpen
	}

	fn.TypeParameters = make([]*descriptors.TypeParameterDescriptor, len(m.TypeParameters))
	for i, p := range m.TypeParameters {
		fn.TypeParameters[i] = descriptors.NewTypeParameter(fn, names.Name(p.Name), i)
	}
	scope := &parameterScope{params: fn.TypeParameters, parent: c.params}
	if err := c.bounds(ctx, fn.TypeParameters, m.TypeParameters, scope); err != nil {
		return nil, err
	}

	if err := c.parameters(ctx, fn, m.Parameters, scope); err != nil {
		return nil, err
	}
	if m.Return == nil || m.Return.IsVoid() {
		fn.ReturnType = types.ClassType(types.UnitID, false)
	} else {
		ret, err := c.loader.enhancer.EnhanceType(ctx, *m.Return, scope, m.Annotations)
		if err != nil {
			return nil, err
		}
		fn.ReturnType = ret
	}
	fn.SetAnnotations(platformAnnotations(m.Annotations, m.Deprecated))
	return fn, nil
}

func (c *LazyPlatformClassDescriptor) bounds(ctx context.Context, params []*descriptors.TypeParameterDescriptor, decl []PlatformTypeParameter, scope TypeParameterScope) error {
	for i, p := range decl {
		if len(p.Bounds) == 0 {
			continue
		}
		bounds := make([]types.Type, len(p.Bounds))
		for j, b := range p.Bounds {
			t, err := c.loader.enhancer.EnhanceType(ctx, b, scope)
			if err != nil {
				return err
			}
			bounds[j] = t
		}
		params[i].SetUpperBounds(bounds...)
	}
	return nil
}

// parameterOwner is implemented by functions and constructors.
type parameterOwner interface {
	AddParameter(name names.Name, t types.Type) *descriptors.ValueParameterDescriptor
}

func (c *LazyPlatformClassDescriptor) parameters(ctx context.Context, owner parameterOwner, params []PlatformParameter, scope TypeParameterScope) error {
	for i, p := range params {
		t, err := c.loader.enhancer.EnhanceType(ctx, p.Type, scope, p.Annotations)
		if err != nil {
			return err
		}
		name := names.Name(p.Name)
		if name == "" {
			name = names.Name(fmt.Sprintf("p%d", i))
		}
		vp := owner.AddParameter(name, t)
		if p.Vararg {
			elem, err := c.loader.enhancer.EnhanceType(ctx, *p.Type.Element, scope)
			if err != nil {
				return err
			}
			vp.VarargElementType = elem
		}
		vp.SetAnnotations(platformAnnotations(p.Annotations, false))
	}
	return nil
}

func (c *LazyPlatformClassDescriptor) field(ctx context.Context, f *PlatformField) (*descriptors.PropertyDescriptor, error) {
	t, err := c.loader.enhancer.EnhanceType(ctx, f.Type, c.params, f.Annotations)
	if err != nil {
		return nil, err
	}
	p := descriptors.NewProperty(c, names.Name(f.Name), t)
	p.Mutable = !f.Final
	p.Static = f.Static
	p.Visibility = platformVisibility(f.Visibility)
	p.Modality = descriptors.ModalityFinal
	p.Origin = descriptors.OriginDeclared
	p.SetAnnotations(platformAnnotations(f.Annotations, f.Deprecated))
	return p, nil
}

// addEnumMembers synthesizes values(), valueOf(String) and one static
// property per entry.
func (c *LazyPlatformClassDescriptor) addEnumMembers(m *memberTable) {
	self := descriptors.DefaultType(c)

	values := descriptors.NewFunction(c, "values")
	values.Static = true
	values.Origin = descriptors.OriginSynthesized
	values.ReturnType = types.ClassType(types.ArrayID, false, self)
	m.statics["values"] = append(m.statics["values"], values)
	m.jvm[values] = "values()[L" + c.ClassID().InternalName() + ";"

	valueOf := descriptors.NewFunction(c, "valueOf")
	valueOf.Static = true
	valueOf.Origin = descriptors.OriginSynthesized
	valueOf.AddParameter("value", types.ClassType(types.StringID, false))
	valueOf.ReturnType = self
	m.statics["valueOf"] = append(m.statics["valueOf"], valueOf)
	m.jvm[valueOf] = "valueOf(Ljava/lang/String;)L" + c.ClassID().InternalName() + ";"

	for _, entry := range c.class.EnumEntries {
		p := descriptors.NewProperty(c, names.Name(entry), self)
		p.Static = true
		p.Modality = descriptors.ModalityFinal
		p.Origin = descriptors.OriginDeclared
		m.staticFields[p.Name()] = append(m.staticFields[p.Name()], p)
	}
}

func (c *LazyPlatformClassDescriptor) computeConstructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error) {
	kind := c.ClassKind()
	if kind == descriptors.ClassKindInterface || kind == descriptors.ClassKindAnnotationClass {
		return nil, nil
	}
	if len(c.class.Constructors) == 0 {
		if kind == descriptors.ClassKindEnumClass {
			return nil, nil
		}
		ctor := descriptors.NewConstructor(c)
		ctor.Primary = true
		ctor.Origin = descriptors.OriginSynthesized
		return []*descriptors.ConstructorDescriptor{ctor}, nil
	}
	out := make([]*descriptors.ConstructorDescriptor, 0, len(c.class.Constructors))
	for i := range c.class.Constructors {
		decl := &c.class.Constructors[i]
		ctor := descriptors.NewConstructor(c)
		ctor.Visibility = platformVisibility(decl.Visibility)
		ctor.Origin = descriptors.OriginDeclared
		if err := c.parameters(ctx, ctor, decl.Parameters, c.params); err != nil {
			return nil, err
		}
		ctor.SetAnnotations(platformAnnotations(nil, decl.Deprecated))
		out = append(out, ctor)
	}
	return out, nil
}

// ConstructorDescriptorOf returns the JVM descriptor of a constructor of
// this class.
func (c *LazyPlatformClassDescriptor) ConstructorDescriptorOf(ctx context.Context, ctor *descriptors.ConstructorDescriptor) (string, bool, error) {
	ctors, err := c.constructors.Get(ctx)
	if err != nil {
		return "", false, err
	}
	for i, candidate := range ctors {
		if candidate != ctor {
			continue
		}
		if i >= len(c.class.Constructors) {
			return constructors("")[0], true, nil
		}
		return PlatformConstructorDescriptor(c.class, &c.class.Constructors[i]), true, nil
	}
	return "", false, nil
}

// platformMemberScope holds instance methods, instance fields and nested classes.
type platformMemberScope struct {
	class *LazyPlatformClassDescriptor
}

func (s *platformMemberScope) ContributedFunctions(ctx context.Context, name names.Name, _ descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return s.class.DeclaredFunctions(ctx, name)
}

func (s *platformMemberScope) ContributedVariables(ctx context.Context, name names.Name, _ descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	m, err := s.class.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	return m.fields[name], nil
}

func (s *platformMemberScope) ContributedClassifier(ctx context.Context, name names.Name, _ descriptors.LookupLocation) (descriptors.ClassDescriptor, error) {
	id := s.class.ClassID().Nested(name)
	if _, ok := s.class.loader.classes.Lookup(id); !ok {
		return nil, nil
	}
	c, err := s.class.loader.Class(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	return c, nil
}

func (s *platformMemberScope) ContributedDescriptors(ctx context.Context, filter descriptors.KindFilter, nameFilter func(names.Name) bool) ([]descriptors.Descriptor, error) {
	return descriptors.CollectDescriptors(ctx, s, filter, nameFilter)
}

func (s *platformMemberScope) FunctionNames(ctx context.Context) ([]names.Name, error) {
	m, err := s.class.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	return sortedNames(m.functions), nil
}

func (s *platformMemberScope) VariableNames(ctx context.Context) ([]names.Name, error) {
	m, err := s.class.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	return sortedNames(m.fields), nil
}

func (s *platformMemberScope) ClassifierNames(context.Context) ([]names.Name, error) {
	nested := s.class.loader.classes.nested[s.class.ClassID()]
	set := make(map[names.Name]bool, len(nested))
	for _, id := range nested {
		set[id.ShortName()] = true
	}
	return sortedNames(set), nil
}

// platformStaticScope holds static methods and fields, the enum statics,
// and the statics inherited from platform supertypes.
type platformStaticScope struct {
	class *LazyPlatformClassDescriptor
}

func (s *platformStaticScope) ContributedFunctions(ctx context.Context, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	m, err := s.class.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	own := m.statics[name]
	parent, err := descriptors.ParentStaticScope(ctx, s.class)
	if err != nil || parent == nil {
		return own, err
	}
	inherited, err := parent.ContributedFunctions(ctx, name, location)
	if err != nil {
		return nil, err
	}
	out := append([]*descriptors.FunctionDescriptor(nil), own...)
	for _, fn := range inherited {
		if !s.hidesStatic(ctx, m, fn) {
			out = append(out, fn)
		}
	}
	return out, nil
}

// hidesStatic reports whether an own static has the parameters of inherited.
func (s *platformStaticScope) hidesStatic(ctx context.Context, m *memberTable, inherited *descriptors.FunctionDescriptor) bool {
	owner, ok := inherited.Container().(*LazyPlatformClassDescriptor)
	if !ok {
		return false
	}
	desc, ok, err := owner.JVMDescriptor(ctx, inherited)
	if err != nil || !ok {
		return false
	}
	for _, fn := range m.statics[inherited.Name()] {
		if own := m.jvm[fn]; parametersOf(own) == parametersOf(desc) {
			return true
		}
	}
	return false
}

func parametersOf(jvmDescriptor string) string {
	for i := 0; i < len(jvmDescriptor); i++ {
		if jvmDescriptor[i] == ')' {
			return jvmDescriptor[:i+1]
		}
	}
	return jvmDescriptor
}

// ContributedVariables adds the static fields of every platform supertype,
// classes and interfaces alike, unless an own field has the name.
func (s *platformStaticScope) ContributedVariables(ctx context.Context, name names.Name, location descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	m, err := s.class.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	if own := m.staticFields[name]; len(own) > 0 {
		return own, nil
	}
	supers, err := descriptors.SupertypeClasses(ctx, s.class)
	if err != nil {
		return nil, err
	}
	var out []*descriptors.PropertyDescriptor
	for _, super := range supers {
		owner, ok := super.(descriptors.StaticScopeOwner)
		if !ok || !owner.HasPlatformStatics() {
			continue
		}
		vars, err := super.StaticScope().ContributedVariables(ctx, name, location)
		if err != nil {
			return nil, err
		}
		out = append(out, vars...)
	}
	return out, nil
}

// ContributedClassifier is always nil; nested classes live in the member scope.
func (s *platformStaticScope) ContributedClassifier(context.Context, names.Name, descriptors.LookupLocation) (descriptors.ClassDescriptor, error) {
	return nil, nil
}

func (s *platformStaticScope) ContributedDescriptors(ctx context.Context, filter descriptors.KindFilter, nameFilter func(names.Name) bool) ([]descriptors.Descriptor, error) {
	return descriptors.CollectDescriptors(ctx, s, filter, nameFilter)
}

func (s *platformStaticScope) FunctionNames(ctx context.Context) ([]names.Name, error) {
	m, err := s.class.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[names.Name]bool, len(m.statics))
	for n := range m.statics {
		set[n] = true
	}
	parent, err := descriptors.ParentStaticScope(ctx, s.class)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		inherited, err := parent.FunctionNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range inherited {
			set[n] = true
		}
	}
	return sortedNames(set), nil
}

func (s *platformStaticScope) VariableNames(ctx context.Context) ([]names.Name, error) {
	m, err := s.class.members.Get(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[names.Name]bool, len(m.staticFields))
	for n := range m.staticFields {
		set[n] = true
	}
	supers, err := descriptors.SupertypeClasses(ctx, s.class)
	if err != nil {
		return nil, err
	}
	for _, super := range supers {
		if owner, ok := super.(descriptors.StaticScopeOwner); ok && owner.HasPlatformStatics() {
			inherited, err := super.StaticScope().VariableNames(ctx)
			if err != nil {
				return nil, err
			}
			for _, n := range inherited {
				set[n] = true
			}
		}
	}
	return sortedNames(set), nil
}

func (s *platformStaticScope) ClassifierNames(context.Context) ([]names.Name, error) {
	return nil, nil
}
