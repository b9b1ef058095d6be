package interop

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

var (
	serializableID = names.MustParseClassID("java/io/Serializable")

	// PlatformDependentAnnotation marks built-in members that exist only
	// when the platform class declares a member with the same descriptor.
	PlatformDependentAnnotation names.FqName = "kotlin.internal.PlatformDependent"
)

// declaredMembers is implemented by classes that can list the members written
// in their own metadata without consulting additional parts.
type declaredMembers interface {
	DeclaredFunctions(ctx context.Context, name names.Name) ([]*descriptors.FunctionDescriptor, error)
	DeclaredConstructors(ctx context.Context) ([]*descriptors.ConstructorDescriptor, error)
}

// functionDeclarer reports whether a record declares a function by name.
type functionDeclarer interface {
	DeclaresFunction(name names.Name) bool
}

// BuiltInsSettings contributes platform members, supertypes and constructors
// to built-in classes, and decides which platform-dependent built-in members
// exist.
type BuiltInsSettings struct {
	storage    *storage.Manager
	module     *descriptors.ModuleDescriptor
	loader     *Loader
	native     NativeDescriptors
	additional bool
	reporter   errors.Reporter
	logger     *zap.Logger
	reported   sync.Map

	serializable *storage.LazyValue[types.Type]
	cloneable    *storage.LazyValue[descriptors.ClassDescriptor]
}

// SettingsOption configures BuiltInsSettings.
type SettingsOption func(*BuiltInsSettings)

// WithAdditionalBuiltIns enables or disables the platform members of
// built-in classes. It is enabled by default.
func WithAdditionalBuiltIns(enabled bool) SettingsOption {
	return func(s *BuiltInsSettings) { s.additional = enabled }
}

// WithSettingsReporter sets the sink for interop notices.
func WithSettingsReporter(r errors.Reporter) SettingsOption {
	return func(s *BuiltInsSettings) { s.reporter = r }
}

// WithSettingsLogger sets the logger.
func WithSettingsLogger(logger *zap.Logger) SettingsOption {
	return func(s *BuiltInsSettings) { s.logger = logger }
}

// NewBuiltInsSettings creates the settings over the platform classes of loader.
func NewBuiltInsSettings(sm *storage.Manager, module *descriptors.ModuleDescriptor, loader *Loader, opts ...SettingsOption) *BuiltInsSettings {
	s := &BuiltInsSettings{
		storage:    sm,
		module:     module,
		loader:     loader,
		native:     NativeDescriptors{Classes: loader.ClassMap()},
		additional: true,
		reporter:   errors.Discard,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.serializable = storage.NewLazyValue(sm, s.computeSerializableType,
		storage.Label[types.Type]("serializable type"))
	s.cloneable = storage.NewLazyValue(sm, func(ctx context.Context) (descriptors.ClassDescriptor, error) {
		return module.ResolveClass(ctx, types.CloneableID)
	}, storage.Label[descriptors.ClassDescriptor]("cloneable class"))
	return s
}

// computeSerializableType resolves java.io.Serializable, or mocks it as an
// abstract interface when the platform does not declare it.
func (s *BuiltInsSettings) computeSerializableType(ctx context.Context) (types.Type, error) {
	class, err := s.module.ResolveClass(ctx, serializableID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		class = descriptors.NewFixedClass(descriptors.ClassHeader{
			ID:         serializableID,
			Container:  descriptors.NewEmptyPackageFragment(s.module, serializableID.Package),
			Kind:       descriptors.ClassKindInterface,
			Modality:   descriptors.ModalityAbstract,
			Visibility: descriptors.VisibilityPublic,
		})
	}
	return descriptors.DefaultType(class), nil
}

// IsArrayOrPrimitiveArray reports whether id is Array or a primitive array.
func IsArrayOrPrimitiveArray(id names.ClassID) bool {
	if id == types.ArrayID {
		return true
	}
	for _, array := range primitiveArrays {
		if array == id {
			return true
		}
	}
	return false
}

// Supertypes adds Cloneable and Serializable to arrays, and Serializable to
// classes whose platform analogue implements it.
func (s *BuiltInsSettings) Supertypes(ctx context.Context, class descriptors.ClassDescriptor) ([]types.Type, error) {
	id := class.ClassID()
	if IsArrayOrPrimitiveArray(id) {
		cloneable, err := s.cloneableType(ctx)
		if err != nil {
			return nil, err
		}
		serializable, err := s.serializable.Get(ctx)
		if err != nil {
			return nil, err
		}
		return []types.Type{cloneable, serializable}, nil
	}
	if s.isSerializableInPlatform(id) {
		serializable, err := s.serializable.Get(ctx)
		if err != nil {
			return nil, err
		}
		return []types.Type{serializable}, nil
	}
	return nil, nil
}

func (s *BuiltInsSettings) cloneableType(ctx context.Context) (types.Type, error) {
	class, err := s.cloneable.Get(ctx)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return types.ClassType(types.CloneableID, false), nil
	}
	return descriptors.DefaultType(class), nil
}

func (s *BuiltInsSettings) isSerializableInPlatform(id names.ClassID) bool {
	platform, ok := s.loader.ClassMap().MapNativeToPlatform(id)
	if !ok {
		return false
	}
	return s.loader.Classes().IsSubclassOf(platform, serializableID)
}

// analogue returns the platform class a built-in maps to, or nil.
func (s *BuiltInsSettings) analogue(ctx context.Context, class descriptors.ClassDescriptor) (*LazyPlatformClassDescriptor, error) {
	id := class.ClassID()
	if id == types.AnyID || !isUnderKotlinPackage(id) {
		return nil, nil
	}
	platform, ok := s.loader.ClassMap().MapNativeToPlatform(id)
	if !ok {
		return nil, nil
	}
	return s.loader.Class(ctx, platform)
}

func isUnderKotlinPackage(id names.ClassID) bool {
	segments := id.Package.Segments()
	return len(segments) > 0 && segments[0] == "kotlin"
}

// Functions returns the platform members of class named name, plus clone
// for arrays whose metadata does not declare it.
func (s *BuiltInsSettings) Functions(ctx context.Context, name names.Name, class descriptors.ClassDescriptor) ([]*descriptors.FunctionDescriptor, error) {
	if name == CloneName && IsArrayOrPrimitiveArray(class.ClassID()) {
		if d, ok := class.(functionDeclarer); ok {
			if d.DeclaresFunction(CloneName) {
				return nil, nil
			}
			clone, err := s.cloneForArray(ctx, class)
			if err != nil || clone == nil {
				return nil, err
			}
			return []*descriptors.FunctionDescriptor{clone}, nil
		}
	}
	if !s.additional {
		return nil, nil
	}

	analogue, err := s.analogue(ctx, class)
	if err != nil || analogue == nil {
		return nil, err
	}
	candidates, err := s.additionalFunctions(ctx, name, class, analogue)
	if err != nil {
		return nil, err
	}
	subst := mappedTypeParameters(analogue, class)

	out := make([]*descriptors.FunctionDescriptor, 0, len(candidates))
	for _, original := range candidates {
		jvm, _, err := analogue.JVMDescriptor(ctx, original)
		if err != nil {
			return nil, err
		}
		status, err := s.memberStatus(ctx, analogue, jvm)
		if err != nil {
			return nil, err
		}
		signature := ClassSignature(analogue.ClassID(), jvm)

		fn := substituteFunction(original.Copy(class), subst)
		fn.Origin = descriptors.OriginCompatibility
		fn.Overridden = []*descriptors.FunctionDescriptor{original}
		switch status {
		case StatusSuppress:
			if descriptors.IsFinalClass(class) {
				continue
			}
			fn.Hidden = true
			s.report(errors.ErrHiddenPlatformMember, signature)
		case StatusNotConsidered:
			anns, err := original.Annotations(ctx)
			if err != nil {
				return nil, err
			}
			fn.SetAnnotations(anns.With(notConsideredDeprecation()))
			s.report(errors.ErrDeprecatedPlatformMember, signature)
		case StatusDrop:
			continue
		}
		out = append(out, fn)
	}
	return out, nil
}

func (s *BuiltInsSettings) cloneForArray(ctx context.Context, array descriptors.ClassDescriptor) (*descriptors.FunctionDescriptor, error) {
	cloneable, err := s.cloneable.Get(ctx)
	if err != nil || cloneable == nil {
		return nil, err
	}
	fns, err := cloneable.MemberScope().ContributedFunctions(ctx, CloneName, descriptors.NoLocation)
	if err != nil || len(fns) != 1 {
		return nil, err
	}
	clone := fns[0].Copy(array)
	clone.Visibility = descriptors.VisibilityPublic
	clone.ReturnType = descriptors.DefaultType(array)
	return clone, nil
}

// additionalFunctions lists the declared members of the analogue that the
// built-in neither declares nor contradicts in mutability.
func (s *BuiltInsSettings) additionalFunctions(ctx context.Context, name names.Name, class descriptors.ClassDescriptor, analogue *LazyPlatformClassDescriptor) ([]*descriptors.FunctionDescriptor, error) {
	classes := s.loader.ClassMap()
	versions := classes.MapPlatformClass(analogue.ClassID())
	if len(versions) == 0 {
		return nil, nil
	}
	isMutable := classes.IsMutable(class.ClassID())

	declared, err := analogue.DeclaredFunctions(ctx, name)
	if err != nil {
		return nil, err
	}
	var out []*descriptors.FunctionDescriptor
	for _, fn := range declared {
		if fn.Origin != descriptors.OriginDeclared || fn.Static {
			continue
		}
		if fn.Visibility != descriptors.VisibilityPublic && fn.Visibility != descriptors.VisibilityProtected {
			continue
		}
		deprecated, err := descriptors.IsDeprecated(ctx, fn)
		if err != nil {
			return nil, err
		}
		if deprecated {
			continue
		}
		jvm, _, err := analogue.JVMDescriptor(ctx, fn)
		if err != nil {
			return nil, err
		}
		overrides, err := s.overridesNativeVersion(ctx, versions, name, jvm)
		if err != nil {
			return nil, err
		}
		if overrides {
			continue
		}
		violation, err := s.isMutabilityViolation(ctx, analogue, name, jvm, isMutable)
		if err != nil {
			return nil, err
		}
		if !violation {
			out = append(out, fn)
		}
	}
	return out, nil
}

// overridesNativeVersion reports whether a member with the parameters of jvm
// is declared by one of the native versions or their supertypes.
func (s *BuiltInsSettings) overridesNativeVersion(ctx context.Context, versions []names.ClassID, name names.Name, jvm string) (bool, error) {
	params := parametersOf(jvm)
	found := false
	check := func(c descriptors.ClassDescriptor) (bool, error) {
		ok, err := s.declaresMatching(ctx, c, name, params)
		if err != nil {
			return false, err
		}
		found = found || ok
		return !found, nil
	}
	for _, id := range versions {
		class, err := s.module.ResolveClass(ctx, id)
		if err != nil {
			return false, err
		}
		if class == nil {
			continue
		}
		if _, err := check(class); err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
		if err := descriptors.WalkSupertypes(ctx, class, check); err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// declaresMatching reports whether c declares a function named name whose
// parameter descriptor is params.
func (s *BuiltInsSettings) declaresMatching(ctx context.Context, c descriptors.ClassDescriptor, name names.Name, params string) (bool, error) {
	var fns []*descriptors.FunctionDescriptor
	var err error
	if d, ok := c.(declaredMembers); ok {
		fns, err = d.DeclaredFunctions(ctx, name)
	} else {
		fns, err = c.MemberScope().ContributedFunctions(ctx, name, descriptors.NoLocation)
	}
	if err != nil {
		return false, err
	}
	for _, fn := range fns {
		if s.native.Parameters(ctx, fn) == params {
			return true, nil
		}
	}
	return false, nil
}

// isMutabilityViolation reports whether a member of the analogue belongs to
// the other half of a read-only/mutable pair than class.
func (s *BuiltInsSettings) isMutabilityViolation(ctx context.Context, analogue *LazyPlatformClassDescriptor, name names.Name, jvm string, isMutable bool) (bool, error) {
	if IsMutableSignature(ClassSignature(analogue.ClassID(), jvm)) != isMutable {
		return true, nil
	}
	params := parametersOf(jvm)
	classes := s.loader.ClassMap()
	violation := false
	err := descriptors.WalkSupertypes(ctx, analogue, func(c descriptors.ClassDescriptor) (bool, error) {
		if !classes.IsMutable(c.ClassID()) {
			return true, nil
		}
		ok, err := s.declaresMatching(ctx, c, name, params)
		if err != nil {
			return false, err
		}
		violation = violation || ok
		return !violation, nil
	})
	return violation, err
}

// memberStatus searches the analogue and the analogues of its mapped
// supertypes for a listed signature.
func (s *BuiltInsSettings) memberStatus(ctx context.Context, analogue *LazyPlatformClassDescriptor, jvm string) (MemberStatus, error) {
	visited := map[names.ClassID]bool{analogue.ClassID(): true}
	stack := []*LazyPlatformClassDescriptor{analogue}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if status, ok := ListedStatus(ClassSignature(current.ClassID(), jvm)); ok {
			return status, nil
		}
		supers, err := descriptors.SupertypeClasses(ctx, current)
		if err != nil {
			return StatusNotConsidered, err
		}
		for i := len(supers) - 1; i >= 0; i-- {
			next, err := s.analogue(ctx, supers[i])
			if err != nil {
				return StatusNotConsidered, err
			}
			if next == nil || visited[next.ClassID()] {
				continue
			}
			visited[next.ClassID()] = true
			stack = append(stack, next)
		}
	}
	return StatusNotConsidered, nil
}

// FunctionNames lists the names of the analogue's instance members, plus
// clone for arrays.
func (s *BuiltInsSettings) FunctionNames(ctx context.Context, class descriptors.ClassDescriptor) ([]names.Name, error) {
	if !s.additional {
		return nil, nil
	}
	var out []names.Name
	if IsArrayOrPrimitiveArray(class.ClassID()) {
		out = append(out, CloneName)
	}
	analogue, err := s.analogue(ctx, class)
	if err != nil || analogue == nil {
		return out, err
	}
	own, err := analogue.MemberScope().FunctionNames(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, own...), nil
}

// Constructors exposes the public constructors of the analogue that the
// built-in does not already declare.
func (s *BuiltInsSettings) Constructors(ctx context.Context, class descriptors.ClassDescriptor) ([]*descriptors.ConstructorDescriptor, error) {
	if class.ClassKind() != descriptors.ClassKindClass || !s.additional {
		return nil, nil
	}
	analogue, err := s.analogue(ctx, class)
	if err != nil || analogue == nil {
		return nil, err
	}
	defaultID, ok := s.loader.ClassMap().MapPlatformToNative(analogue.ClassID())
	if !ok {
		return nil, nil
	}
	defaultVersion, err := s.module.ResolveClass(ctx, defaultID)
	if err != nil || defaultVersion == nil {
		return nil, err
	}
	native, err := s.nativeConstructorDescriptors(ctx, defaultVersion)
	if err != nil {
		return nil, err
	}

	platformCtors, err := analogue.Constructors(ctx)
	if err != nil {
		return nil, err
	}
	subst := mappedTypeParameters(analogue, class)
	var out []*descriptors.ConstructorDescriptor
	for _, ctor := range platformCtors {
		if ctor.Visibility != descriptors.VisibilityPublic && ctor.Visibility != descriptors.VisibilityProtected {
			continue
		}
		jvm, _, err := analogue.ConstructorDescriptorOf(ctx, ctor)
		if err != nil {
			return nil, err
		}
		if native[jvm] || isTrivialCopyConstructor(ctor, class) {
			continue
		}
		deprecated, err := descriptors.IsDeprecated(ctx, ctor)
		if err != nil {
			return nil, err
		}
		signature := ClassSignature(analogue.ClassID(), jvm)
		if deprecated || blackListConstructorSignatures.contains(signature) {
			continue
		}

		cp := ctor.Copy(class)
		for _, p := range cp.ValueParameters {
			p.Type = types.Substitute(p.Type, subst)
			p.VarargElementType = types.Substitute(p.VarargElementType, subst)
		}
		cp.Origin = descriptors.OriginCompatibility
		cp.Primary = false
		if !whiteListConstructorSignatures.contains(signature) {
			cp.SetAnnotations(descriptors.NewAnnotations(notConsideredDeprecation()))
			s.report(errors.ErrDeprecatedPlatformMember, signature)
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *BuiltInsSettings) nativeConstructorDescriptors(ctx context.Context, class descriptors.ClassDescriptor) (map[string]bool, error) {
	var ctors []*descriptors.ConstructorDescriptor
	var err error
	if d, ok := class.(declaredMembers); ok {
		ctors, err = d.DeclaredConstructors(ctx)
	} else {
		ctors, err = class.Constructors(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ctors))
	for _, c := range ctors {
		out[s.native.Constructor(ctx, c)] = true
	}
	return out, nil
}

func isTrivialCopyConstructor(ctor *descriptors.ConstructorDescriptor, class descriptors.ClassDescriptor) bool {
	if len(ctor.ValueParameters) != 1 {
		return false
	}
	id, ok := types.ClassIDOf(ctor.ValueParameters[0].Type)
	return ok && id == class.ClassID()
}

// IsFunctionAvailable drops platform-dependent built-in members that the
// platform analogue does not declare.
func (s *BuiltInsSettings) IsFunctionAvailable(ctx context.Context, class descriptors.ClassDescriptor, fn *descriptors.FunctionDescriptor) (bool, error) {
	analogue, err := s.analogue(ctx, class)
	if err != nil || analogue == nil {
		return true, err
	}
	anns, err := fn.Annotations(ctx)
	if err != nil {
		return false, err
	}
	if !anns.Has(PlatformDependentAnnotation) {
		return true, nil
	}
	jvm := s.native.Function(ctx, fn)
	signature := ClassSignature(class.ClassID(), jvm)
	if !s.additional {
		s.report(errors.ErrUnavailablePlatformMember, signature)
		return false, nil
	}
	candidates, err := analogue.DeclaredFunctions(ctx, fn.Name())
	if err != nil {
		return false, err
	}
	for _, candidate := range candidates {
		d, ok, err := analogue.JVMDescriptor(ctx, candidate)
		if err != nil {
			return false, err
		}
		if ok && d == jvm {
			return true, nil
		}
	}
	s.report(errors.ErrUnavailablePlatformMember, signature)
	return false, nil
}

// report emits a notice once per code and signature.
func (s *BuiltInsSettings) report(code errors.ErrorCode, signature string) {
	if _, loaded := s.reported.LoadOrStore(string(code)+" "+signature, struct{}{}); loaded {
		return
	}
	s.logger.Debug("platform member adjusted",
		zap.String("code", string(code)),
		zap.String("signature", signature))
	var loc ast.SourceLocation
	switch code {
	case errors.ErrHiddenPlatformMember:
		s.reporter.Report(errors.NewHiddenPlatformMember(loc, signature))
	case errors.ErrDeprecatedPlatformMember:
		s.reporter.Report(errors.NewDeprecatedPlatformMember(loc, signature))
	case errors.ErrUnavailablePlatformMember:
		s.reporter.Report(errors.NewUnavailablePlatformMember(loc, signature))
	}
}

func notConsideredDeprecation() *descriptors.Annotation {
	return descriptors.DeprecatedAnnotation(NotConsideredMessage, "", "WARNING")
}

// mappedTypeParameters maps the type parameters of from to those of to by
// position.
func mappedTypeParameters(from, to descriptors.ClassDescriptor) types.Substitution {
	fromParams, toParams := from.TypeParameters(), to.TypeParameters()
	n := len(fromParams)
	if len(toParams) < n {
		n = len(toParams)
	}
	if n == 0 {
		return nil
	}
	s := make(types.Substitution, n)
	for i := 0; i < n; i++ {
		s[fromParams[i].Key()] = toParams[i].DefaultType()
	}
	return s
}

func substituteFunction(fn *descriptors.FunctionDescriptor, s types.Substitution) *descriptors.FunctionDescriptor {
	if len(s) == 0 {
		return fn
	}
	for _, p := range fn.ValueParameters {
		p.Type = types.Substitute(p.Type, s)
		p.VarargElementType = types.Substitute(p.VarargElementType, s)
	}
	fn.ReturnType = types.Substitute(fn.ReturnType, s)
	fn.ExtensionReceiver = types.Substitute(fn.ExtensionReceiver, s)
	return fn
}
