package interop

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/storage"
)

// PlatformClasses indexes platform class descriptions by id.
type PlatformClasses struct {
	classes  map[names.ClassID]*PlatformClass
	topLevel map[names.FqName][]names.ClassID
	nested   map[names.ClassID][]names.ClassID
}

// NewPlatformClasses indexes list. Duplicate ids are an error.
func NewPlatformClasses(list ...*PlatformClass) (*PlatformClasses, error) {
	p := &PlatformClasses{
		classes:  make(map[names.ClassID]*PlatformClass, len(list)),
		topLevel: make(map[names.FqName][]names.ClassID),
		nested:   make(map[names.ClassID][]names.ClassID),
	}
	for _, c := range list {
		id, err := c.ClassID()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPlatformClass, err)
		}
		if _, dup := p.classes[id]; dup {
			return nil, fmt.Errorf("%w: duplicate class %s", ErrMalformedPlatformClass, id)
		}
		p.classes[id] = c
		if outer, ok := id.Outer(); ok {
			p.nested[outer] = append(p.nested[outer], id)
		} else {
			p.topLevel[id.Package] = append(p.topLevel[id.Package], id)
		}
	}
	return p, nil
}

// Lookup returns the description of id.
func (p *PlatformClasses) Lookup(id names.ClassID) (*PlatformClass, bool) {
	c, ok := p.classes[id]
	return c, ok
}

// Len returns the number of classes.
func (p *PlatformClasses) Len() int {
	return len(p.classes)
}

// Packages lists the packages declaring top-level classes, sorted.
func (p *PlatformClasses) Packages() []names.FqName {
	out := make([]names.FqName, 0, len(p.topLevel))
	for fq := range p.topLevel {
		out = append(out, fq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsSubclassOf reports whether the description of id reaches super through
// its declared supertypes, without creating descriptors.
func (p *PlatformClasses) IsSubclassOf(id, super names.ClassID) bool {
	visited := map[names.ClassID]bool{id: true}
	stack := []names.ClassID{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == super {
			return true
		}
		c, ok := p.classes[current]
		if !ok {
			continue
		}
		for _, st := range c.Supertypes {
			next, err := names.ParseClassID(st.Class)
			if err != nil || visited[next] {
				continue
			}
			visited[next] = true
			stack = append(stack, next)
		}
	}
	return false
}

// Loader creates lazy descriptors for platform classes and exposes them to a
// module as package fragments.
type Loader struct {
	storage  *storage.Manager
	module   *descriptors.ModuleDescriptor
	classes  *PlatformClasses
	enhancer *Enhancer
	notFound *descriptors.NotFoundClasses
	logger   *zap.Logger

	descriptors *storage.NullableMemoizedFunction[names.ClassID, *LazyPlatformClassDescriptor]
	fragments   *storage.NullableMemoizedFunction[names.FqName, *PlatformPackageFragment]
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithClassMap replaces the default class map.
func WithClassMap(m *ClassMap) LoaderOption {
	return func(l *Loader) { l.enhancer.Classes = m }
}

// NewLoader registers the platform classes with module.
func NewLoader(sm *storage.Manager, module *descriptors.ModuleDescriptor, classes *PlatformClasses, opts ...LoaderOption) *Loader {
	l := &Loader{
		storage:  sm,
		module:   module,
		classes:  classes,
		notFound: descriptors.NewNotFoundClasses(sm, module),
		logger:   zap.NewNop(),
	}
	l.enhancer = &Enhancer{Classes: DefaultClassMap(), Resolve: l.resolve}
	for _, opt := range opts {
		opt(l)
	}
	l.descriptors = storage.NewNullableMemoizedFunction(sm, l.createClass,
		storage.Label[*LazyPlatformClassDescriptor]("platform classes"))
	l.fragments = storage.NewNullableMemoizedFunction(sm, l.createFragment,
		storage.Label[*PlatformPackageFragment]("platform packages"))
	module.AddProvider(l)
	return l
}

// Classes returns the indexed descriptions.
func (l *Loader) Classes() *PlatformClasses { return l.classes }

// ClassMap returns the native/platform class map in use.
func (l *Loader) ClassMap() *ClassMap { return l.enhancer.Classes }

// Enhancer returns the type enhancer used for member signatures.
func (l *Loader) Enhancer() *Enhancer { return l.enhancer }

func (l *Loader) resolve(ctx context.Context, id names.ClassID, arity int) (descriptors.ClassDescriptor, error) {
	class, err := l.module.FindClassAcrossDependencies(ctx, id, l.notFound, []int{arity})
	if err != nil {
		return nil, err
	}
	if descriptors.IsMissingDependency(class) {
		l.logger.Debug("platform type refers to a missing class", zap.Stringer("class", id))
	}
	return class, nil
}

// Class returns the descriptor of a platform class, or nil when id is not
// a platform class.
func (l *Loader) Class(ctx context.Context, id names.ClassID) (*LazyPlatformClassDescriptor, error) {
	c, ok, err := l.descriptors.Get(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return c, nil
}

func (l *Loader) createClass(ctx context.Context, id names.ClassID) (*LazyPlatformClassDescriptor, bool, error) {
	class, ok := l.classes.Lookup(id)
	if !ok {
		return nil, false, nil
	}
	var container descriptors.Descriptor
	if outer, nested := id.Outer(); nested {
		owner, err := l.Class(ctx, outer)
		if err != nil || owner == nil {
			return nil, false, err
		}
		container = owner
	} else {
		fragment, ok, err := l.fragments.Get(ctx, id.Package)
		if err != nil || !ok {
			return nil, false, err
		}
		container = fragment
	}
	l.logger.Debug("loading platform class", zap.Stringer("class", id))
	return newLazyPlatformClass(l, container, id, class), true, nil
}

func (l *Loader) createFragment(_ context.Context, fq names.FqName) (*PlatformPackageFragment, bool, error) {
	ids, ok := l.classes.topLevel[fq]
	if !ok {
		return nil, false, nil
	}
	f := &PlatformPackageFragment{loader: l, fq: fq, classes: make(map[names.Name]names.ClassID, len(ids))}
	for _, id := range ids {
		f.classes[id.ShortName()] = id
	}
	return f, true, nil
}

// PackageFragments returns the platform fragment of fq, if any.
func (l *Loader) PackageFragments(ctx context.Context, fq names.FqName) ([]descriptors.PackageFragmentDescriptor, error) {
	f, ok, err := l.fragments.Get(ctx, fq)
	if err != nil || !ok {
		return nil, err
	}
	return []descriptors.PackageFragmentDescriptor{f}, nil
}

// SubPackagesOf lists the direct sub-packages of fq that declare platform classes.
func (l *Loader) SubPackagesOf(_ context.Context, fq names.FqName, nameFilter func(names.Name) bool) ([]names.FqName, error) {
	seen := make(map[names.FqName]bool)
	var out []names.FqName
	depth := len(fq.Segments())
	for _, pkg := range l.classes.Packages() {
		if pkg == fq || !pkg.StartsWith(fq) {
			continue
		}
		segments := pkg.Segments()
		if len(segments) <= depth {
			continue
		}
		child := fq.Child(segments[depth])
		if seen[child] || (nameFilter != nil && !nameFilter(segments[depth])) {
			continue
		}
		seen[child] = true
		out = append(out, child)
	}
	return out, nil
}

// PlatformPackageFragment holds the top-level platform classes of a package.
type PlatformPackageFragment struct {
	loader  *Loader
	fq      names.FqName
	classes map[names.Name]names.ClassID
}

func (f *PlatformPackageFragment) Name() names.Name                     { return f.fq.ShortName() }
func (f *PlatformPackageFragment) Container() descriptors.Descriptor    { return f.loader.module }
func (f *PlatformPackageFragment) Kind() descriptors.Kind               { return descriptors.KindPackageFragment }
func (f *PlatformPackageFragment) FqName() names.FqName                 { return f.fq }
func (f *PlatformPackageFragment) MemberScope() descriptors.MemberScope { return &classifierScope{loader: f.loader, classes: f.classes} }
func (f *PlatformPackageFragment) String() string                       { return "platform package " + f.fq.String() }

// Annotations of platform packages are always empty.
func (f *PlatformPackageFragment) Annotations(context.Context) (descriptors.Annotations, error) {
	return descriptors.Annotations{}, nil
}

// classifierScope contains only classes.
type classifierScope struct {
	loader  *Loader
	classes map[names.Name]names.ClassID
}

func (s *classifierScope) ContributedFunctions(context.Context, names.Name, descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (s *classifierScope) ContributedVariables(context.Context, names.Name, descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	return nil, nil
}

func (s *classifierScope) ContributedClassifier(ctx context.Context, name names.Name, _ descriptors.LookupLocation) (descriptors.ClassDescriptor, error) {
	id, ok := s.classes[name]
	if !ok {
		return nil, nil
	}
	c, err := s.loader.Class(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	return c, nil
}

func (s *classifierScope) ContributedDescriptors(ctx context.Context, filter descriptors.KindFilter, nameFilter func(names.Name) bool) ([]descriptors.Descriptor, error) {
	return descriptors.CollectDescriptors(ctx, s, filter, nameFilter)
}

func (s *classifierScope) FunctionNames(context.Context) ([]names.Name, error) { return nil, nil }
func (s *classifierScope) VariableNames(context.Context) ([]names.Name, error) { return nil, nil }

func (s *classifierScope) ClassifierNames(context.Context) ([]names.Name, error) {
	return sortedNames(s.classes), nil
}

func sortedNames[V any](m map[names.Name]V) []names.Name {
	out := make([]names.Name, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
