package deserialization

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

func parseVisibility(s string) descriptors.Visibility {
	switch s {
	case "protected":
		return descriptors.VisibilityProtected
	case "internal":
		return descriptors.VisibilityInternal
	case "private":
		return descriptors.VisibilityPrivate
	default:
		return descriptors.VisibilityPublic
	}
}

func parseModality(s string) descriptors.Modality {
	switch s {
	case "sealed":
		return descriptors.ModalitySealed
	case "open":
		return descriptors.ModalityOpen
	case "abstract":
		return descriptors.ModalityAbstract
	default:
		return descriptors.ModalityFinal
	}
}

func parseClassKind(s string) descriptors.ClassKind {
	switch s {
	case "interface":
		return descriptors.ClassKindInterface
	case "enum_class":
		return descriptors.ClassKindEnumClass
	case "annotation_class":
		return descriptors.ClassKindAnnotationClass
	case "object":
		return descriptors.ClassKindObject
	default:
		return descriptors.ClassKindClass
	}
}

func (c *Context) lazyAnnotations(label string, load func(ctx context.Context) (descriptors.Annotations, error)) *storage.LazyValue[descriptors.Annotations] {
	return storage.NewLazyValue(c.Components.Storage, load, storage.Label[descriptors.Annotations](label))
}

func (c *Context) memberAnnotations(sig metadata.MemberSignature) *storage.LazyValue[descriptors.Annotations] {
	return c.lazyAnnotations("annotations of "+sig.String(), func(ctx context.Context) (descriptors.Annotations, error) {
		return c.Components.Annotations.MemberAnnotations(ctx, c.source, sig)
	})
}

func (c *Context) valueParameters(ctx context.Context, owner descriptors.Descriptor, sig metadata.MemberSignature, records []metadata.ParameterRecord) ([]*descriptors.ValueParameterDescriptor, error) {
	out := make([]*descriptors.ValueParameterDescriptor, 0, len(records))
	for i := range records {
		rec := &records[i]
		name, err := c.Names.Name(rec.Name)
		if err != nil {
			return nil, err
		}
		t, err := c.Types.Type(ctx, rec.Type)
		if err != nil {
			return nil, err
		}
		p := descriptors.NewValueParameter(owner, name, i, t)
		p.HasDefault = rec.HasDefault
		if rec.Vararg {
			p.VarargElementType = t
			p.Type = types.ClassType(types.ArrayID, false, t)
		}
		index := i
		p.SetLazyAnnotations(c.lazyAnnotations(fmt.Sprintf("annotations of %s parameter %d", sig, i),
			func(ctx context.Context) (descriptors.Annotations, error) {
				return c.Components.Annotations.ParameterAnnotations(ctx, c.source, sig, index)
			}))
		out = append(out, p)
	}
	return out, nil
}

// deserializeFunction builds the function at index of the container's function list.
func (c *Context) deserializeFunction(ctx context.Context, rec *metadata.FunctionRecord, index int) (*descriptors.FunctionDescriptor, error) {
	if err := metadata.ValidateFunction(c.Record, rec); err != nil {
		return nil, err
	}
	name, err := c.Names.Name(rec.Name)
	if err != nil {
		return nil, err
	}
	fn := descriptors.NewFunction(c.Container, name)
	child, err := c.Child(fn, rec.TypeParameters)
	if err != nil {
		return nil, err
	}
	fn.TypeParameters = child.Types.OwnTypeParameters()
	if rec.Receiver != nil {
		if fn.ExtensionReceiver, err = child.Types.Type(ctx, rec.Receiver); err != nil {
			return nil, err
		}
	}

	sig := metadata.MemberSignature{Kind: metadata.MemberFunction, Name: name, Index: index}
	if fn.ValueParameters, err = child.valueParameters(ctx, fn, sig, rec.Parameters); err != nil {
		return nil, err
	}
	if fn.ReturnType, err = child.Types.Type(ctx, rec.ReturnType); err != nil {
		return nil, err
	}
	fn.Visibility = parseVisibility(rec.Visibility)
	fn.Modality = parseModality(rec.Modality)
	fn.Operator = rec.Operator
	fn.Origin = descriptors.OriginDeclared
	fn.SetLazyAnnotations(c.memberAnnotations(sig))
	return fn, nil
}

// deserializeProperty builds the property at index of the container's property list.
func (c *Context) deserializeProperty(ctx context.Context, rec *metadata.PropertyRecord, index int) (*descriptors.PropertyDescriptor, error) {
	if err := metadata.ValidateProperty(c.Record, rec); err != nil {
		return nil, err
	}
	name, err := c.Names.Name(rec.Name)
	if err != nil {
		return nil, err
	}
	t, err := c.Types.Type(ctx, rec.Type)
	if err != nil {
		return nil, err
	}
	p := descriptors.NewProperty(c.Container, name, t)
	if rec.Receiver != nil {
		if p.ExtensionReceiver, err = c.Types.Type(ctx, rec.Receiver); err != nil {
			return nil, err
		}
	}
	p.Mutable = rec.Mutable
	p.Visibility = parseVisibility(rec.Visibility)
	p.Modality = parseModality(rec.Modality)
	p.Origin = descriptors.OriginDeclared

	sig := metadata.MemberSignature{Kind: metadata.MemberProperty, Name: name, Index: index}
	p.SetLazyAnnotations(c.memberAnnotations(sig))
	if rec.Const || rec.Initializer != nil {
		p.SetCompileTimeInitializer(storage.NewNullableLazyValue(c.Components.Storage,
			func(ctx context.Context) (descriptors.ConstantValue, bool, error) {
				return c.Components.Annotations.Constant(ctx, c.source, sig)
			},
			storage.Label[descriptors.ConstantValue]("initializer of "+sig.String())))
	}
	return p, nil
}

// deserializeConstructor builds the constructor at index of class's constructor list.
func (c *Context) deserializeConstructor(ctx context.Context, class descriptors.ClassDescriptor, rec *metadata.ConstructorRecord, index int) (*descriptors.ConstructorDescriptor, error) {
	if err := metadata.ValidateConstructor(c.Record, rec); err != nil {
		return nil, err
	}
	ctor := descriptors.NewConstructor(class)
	sig := metadata.MemberSignature{Kind: metadata.MemberConstructor, Name: names.ConstructorName, Index: index}
	params, err := c.valueParameters(ctx, ctor, sig, rec.Parameters)
	if err != nil {
		return nil, err
	}
	ctor.ValueParameters = params
	ctor.Visibility = parseVisibility(rec.Visibility)
	ctor.Primary = rec.Primary
	ctor.Origin = descriptors.OriginDeclared
	ctor.SetLazyAnnotations(c.memberAnnotations(sig))
	return ctor, nil
}

// memberScope is the member scope of a deserialized class or package.
// Members are deserialized per name on first query.
type memberScope struct {
	c         *Context
	functions map[names.Name][]int
	variables map[names.Name][]int
	fnRecords []metadata.FunctionRecord
	pRecords  []metadata.PropertyRecord
	// classifiers maps short names to the classes declared in this scope.
	classifiers map[names.Name]names.ClassID

	declaredCache *storage.MemoizedFunction[names.Name, []*descriptors.FunctionDescriptor]
	functionCache *storage.MemoizedFunction[names.Name, []*descriptors.FunctionDescriptor]
	variableCache *storage.MemoizedFunction[names.Name, []*descriptors.PropertyDescriptor]

	// nonDeclared adds functions that do not come from the record; nil for packages.
	nonDeclared      func(ctx context.Context, name names.Name, declared []*descriptors.FunctionDescriptor) ([]*descriptors.FunctionDescriptor, error)
	nonDeclaredNames func(ctx context.Context) ([]names.Name, error)
}

func newMemberScope(c *Context, fns []metadata.FunctionRecord, props []metadata.PropertyRecord, classifiers map[names.Name]names.ClassID) *memberScope {
	s := &memberScope{
		c:           c,
		functions:   make(map[names.Name][]int),
		variables:   make(map[names.Name][]int),
		fnRecords:   fns,
		pRecords:    props,
		classifiers: classifiers,
	}
	for i := range fns {
		if name, err := c.Names.Name(fns[i].Name); err == nil {
			s.functions[name] = append(s.functions[name], i)
		} else {
			c.Components.reportMalformed(fmt.Sprintf("function #%d of %s", i, c.Types), err)
		}
	}
	for i := range props {
		if name, err := c.Names.Name(props[i].Name); err == nil {
			s.variables[name] = append(s.variables[name], i)
		} else {
			c.Components.reportMalformed(fmt.Sprintf("property #%d of %s", i, c.Types), err)
		}
	}

	label := c.Types.String()
	s.declaredCache = storage.NewMemoizedFunction(c.Components.Storage, s.computeDeclaredFunctions,
		storage.Label[[]*descriptors.FunctionDescriptor]("declared functions of "+label))
	s.functionCache = storage.NewMemoizedFunction(c.Components.Storage, s.computeFunctions,
		storage.Label[[]*descriptors.FunctionDescriptor]("functions of "+label))
	s.variableCache = storage.NewMemoizedFunction(c.Components.Storage, s.computeVariables,
		storage.Label[[]*descriptors.PropertyDescriptor]("properties of "+label))
	return s
}

// skippable reports whether err means only the offending member is dropped.
// memberDeclaration names a member the way the annotation loader reports it.
func memberDeclaration(kind metadata.MemberKind, name names.Name, index int, container fmt.Stringer) string {
	return fmt.Sprintf("%s in %s", metadata.MemberSignature{Kind: kind, Name: name, Index: index}, container)
}

func skippable(err error) bool {
	return stderrors.Is(err, metadata.ErrMalformedRecord)
}

func (s *memberScope) computeDeclaredFunctions(ctx context.Context, name names.Name) ([]*descriptors.FunctionDescriptor, error) {
	var out []*descriptors.FunctionDescriptor
	for _, i := range s.functions[name] {
		fn, err := s.c.deserializeFunction(ctx, &s.fnRecords[i], i)
		if err != nil {
			if skippable(err) {
				s.c.Components.reportMalformed(memberDeclaration(metadata.MemberFunction, name, i, s.c.Types), err)
				continue
			}
			return nil, err
		}
		out = append(out, fn)
	}
	return out, nil
}

func (s *memberScope) computeFunctions(ctx context.Context, name names.Name) ([]*descriptors.FunctionDescriptor, error) {
	declared, err := s.declaredCache.Get(ctx, name)
	if err != nil || s.nonDeclared == nil {
		return declared, err
	}
	return s.nonDeclared(ctx, name, declared)
}

func (s *memberScope) computeVariables(ctx context.Context, name names.Name) ([]*descriptors.PropertyDescriptor, error) {
	var out []*descriptors.PropertyDescriptor
	for _, i := range s.variables[name] {
		p, err := s.c.deserializeProperty(ctx, &s.pRecords[i], i)
		if err != nil {
			if skippable(err) {
				s.c.Components.reportMalformed(memberDeclaration(metadata.MemberProperty, name, i, s.c.Types), err)
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memberScope) record(location descriptors.LookupLocation, name names.Name) {
	if location.IsTracked() {
		s.c.Components.Lookups.Record(location, s.c.Container, name)
	}
}

func (s *memberScope) ContributedFunctions(ctx context.Context, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	s.record(location, name)
	return s.functionCache.Get(ctx, name)
}

func (s *memberScope) ContributedVariables(ctx context.Context, name names.Name, location descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	s.record(location, name)
	return s.variableCache.Get(ctx, name)
}

func (s *memberScope) ContributedClassifier(ctx context.Context, name names.Name, location descriptors.LookupLocation) (descriptors.ClassDescriptor, error) {
	s.record(location, name)
	id, ok := s.classifiers[name]
	if !ok {
		return nil, nil
	}
	return s.c.Components.DeserializeClass(ctx, id)
}

func (s *memberScope) ContributedDescriptors(ctx context.Context, filter descriptors.KindFilter, nameFilter func(names.Name) bool) ([]descriptors.Descriptor, error) {
	return descriptors.CollectDescriptors(ctx, s, filter, nameFilter)
}

func (s *memberScope) FunctionNames(ctx context.Context) ([]names.Name, error) {
	set := make(map[names.Name]bool, len(s.functions))
	for n := range s.functions {
		set[n] = true
	}
	if s.nonDeclaredNames != nil {
		extra, err := s.nonDeclaredNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range extra {
			set[n] = true
		}
	}
	return sortedNames(set), nil
}

func (s *memberScope) VariableNames(context.Context) ([]names.Name, error) {
	set := make(map[names.Name]bool, len(s.variables))
	for n := range s.variables {
		set[n] = true
	}
	return sortedNames(set), nil
}

func (s *memberScope) ClassifierNames(context.Context) ([]names.Name, error) {
	set := make(map[names.Name]bool, len(s.classifiers))
	for n := range s.classifiers {
		set[n] = true
	}
	return sortedNames(set), nil
}

func sortedNames(set map[names.Name]bool) []names.Name {
	out := make([]names.Name, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
