package descriptors

import (
	"context"
	"fmt"
	"sync"

	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/storage"
)

// PackageFragmentProvider supplies the package fragments of one source of declarations.
type PackageFragmentProvider interface {
	PackageFragments(ctx context.Context, fq names.FqName) ([]PackageFragmentDescriptor, error)
	SubPackagesOf(ctx context.Context, fq names.FqName, nameFilter func(names.Name) bool) ([]names.FqName, error)
}

// CompositeProvider merges several providers in order.
type CompositeProvider []PackageFragmentProvider

// PackageFragments concatenates the fragments of every provider.
func (c CompositeProvider) PackageFragments(ctx context.Context, fq names.FqName) ([]PackageFragmentDescriptor, error) {
	var out []PackageFragmentDescriptor
	for _, p := range c {
		frags, err := p.PackageFragments(ctx, fq)
		if err != nil {
			return nil, err
		}
		out = append(out, frags...)
	}
	return out, nil
}

// SubPackagesOf returns the distinct sub-packages known to any provider.
func (c CompositeProvider) SubPackagesOf(ctx context.Context, fq names.FqName, nameFilter func(names.Name) bool) ([]names.FqName, error) {
	seen := make(map[names.FqName]struct{})
	var out []names.FqName
	for _, p := range c {
		subs, err := p.SubPackagesOf(ctx, fq, nameFilter)
		if err != nil {
			return nil, err
		}
		for _, s := range subs {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// ModuleDescriptor is the root of a declaration graph. It owns the package
// fragment providers of one module and knows its dependencies.
type ModuleDescriptor struct {
	name    names.Name
	storage *storage.Manager

	mu           sync.RWMutex
	providers    CompositeProvider
	dependencies []*ModuleDescriptor
}

// NewModule creates a module without providers.
func NewModule(name names.Name, sm *storage.Manager) *ModuleDescriptor {
	return &ModuleDescriptor{name: name, storage: sm}
}

func (m *ModuleDescriptor) Name() names.Name      { return m.name }
func (m *ModuleDescriptor) Container() Descriptor { return nil }
func (m *ModuleDescriptor) Kind() Kind            { return KindModule }

// Annotations of modules are always empty.
func (m *ModuleDescriptor) Annotations(context.Context) (Annotations, error) {
	return Annotations{}, nil
}

// StorageManager returns the manager owning this module's lazy values.
func (m *ModuleDescriptor) StorageManager() *storage.Manager {
	return m.storage
}

func (m *ModuleDescriptor) String() string {
	return fmt.Sprintf("module <%s>", m.name)
}

// AddProvider registers a package fragment provider.
func (m *ModuleDescriptor) AddProvider(p PackageFragmentProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = append(m.providers, p)
}

// AddDependency makes the declarations of dep visible from m.
func (m *ModuleDescriptor) AddDependency(dep *ModuleDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependencies = append(m.dependencies, dep)
}

// Dependencies returns the direct dependencies.
func (m *ModuleDescriptor) Dependencies() []*ModuleDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*ModuleDescriptor(nil), m.dependencies...)
}

func (m *ModuleDescriptor) provider() CompositeProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(CompositeProvider(nil), m.providers...)
}

// PackageFragments returns the fragments this module declares for fq.
func (m *ModuleDescriptor) PackageFragments(ctx context.Context, fq names.FqName) ([]PackageFragmentDescriptor, error) {
	return m.provider().PackageFragments(ctx, fq)
}

// SubPackagesOf lists the sub-packages this module declares under fq.
func (m *ModuleDescriptor) SubPackagesOf(ctx context.Context, fq names.FqName, nameFilter func(names.Name) bool) ([]names.FqName, error) {
	return m.provider().SubPackagesOf(ctx, fq, nameFilter)
}

// ResolveClass finds a class in this module or its dependencies. It returns
// nil without an error when no module declares the class.
func (m *ModuleDescriptor) ResolveClass(ctx context.Context, id names.ClassID) (ClassDescriptor, error) {
	visited := map[*ModuleDescriptor]bool{}
	queue := []*ModuleDescriptor{m}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		c, err := current.resolveOwnClass(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
		queue = append(queue, current.Dependencies()...)
	}
	return nil, nil
}

func (m *ModuleDescriptor) resolveOwnClass(ctx context.Context, id names.ClassID) (ClassDescriptor, error) {
	if outer, ok := id.Outer(); ok {
		outerClass, err := m.resolveOwnClass(ctx, outer)
		if err != nil || outerClass == nil {
			return nil, err
		}
		return outerClass.MemberScope().ContributedClassifier(ctx, id.ShortName(), FromDeserialization)
	}

	frags, err := m.PackageFragments(ctx, id.Package)
	if err != nil {
		return nil, err
	}
	for _, frag := range frags {
		c, err := frag.MemberScope().ContributedClassifier(ctx, id.ShortName(), FromDeserialization)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}

// FindClassAcrossDependencies resolves id, substituting a mock class from
// notFound when the class is absent. typeParameterCounts lists the arity of
// the class and each of its outer classes, innermost first.
func (m *ModuleDescriptor) FindClassAcrossDependencies(ctx context.Context, id names.ClassID, notFound *NotFoundClasses, typeParameterCounts []int) (ClassDescriptor, error) {
	c, err := m.ResolveClass(ctx, id)
	if err != nil || c != nil {
		return c, err
	}
	return notFound.GetClass(ctx, id, typeParameterCounts)
}

// EmptyPackageFragment is a package fragment without members.
type EmptyPackageFragment struct {
	module Descriptor
	fq     names.FqName
}

// NewEmptyPackageFragment creates an empty fragment of fq owned by module.
func NewEmptyPackageFragment(module Descriptor, fq names.FqName) *EmptyPackageFragment {
	return &EmptyPackageFragment{module: module, fq: fq}
}

func (p *EmptyPackageFragment) Name() names.Name         { return p.fq.ShortName() }
func (p *EmptyPackageFragment) Container() Descriptor    { return p.module }
func (p *EmptyPackageFragment) Kind() Kind               { return KindPackageFragment }
func (p *EmptyPackageFragment) FqName() names.FqName     { return p.fq }
func (p *EmptyPackageFragment) MemberScope() MemberScope { return EmptyScope }
func (p *EmptyPackageFragment) String() string           { return "package " + p.fq.String() }

// Annotations of package fragments are always empty.
func (p *EmptyPackageFragment) Annotations(context.Context) (Annotations, error) {
	return Annotations{}, nil
}
