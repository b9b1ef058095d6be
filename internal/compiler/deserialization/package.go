package deserialization

import (
	"context"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/storage"
)

// DeserializedPackageFragment holds the top-level declarations of every
// record contributing to one package.
type DeserializedPackageFragment struct {
	c        *Components
	module   *descriptors.ModuleDescriptor
	fq       names.FqName
	contexts map[*metadata.PackageRecord]*Context
	scope    descriptors.MemberScope
}

func newPackageFragment(c *Components, fq names.FqName, records []*metadata.PackageRecord) *DeserializedPackageFragment {
	f := &DeserializedPackageFragment{
		c:        c,
		module:   c.Module,
		fq:       fq,
		contexts: make(map[*metadata.PackageRecord]*Context, len(records)),
	}
	scopes := make([]descriptors.MemberScope, 0, len(records))
	for _, record := range records {
		ctx := newPackageContext(c, record, f)
		f.contexts[record] = ctx

		classifiers := make(map[names.Name]names.ClassID)
		if len(scopes) == 0 {
			for _, factory := range c.Fictitious {
				for _, id := range factory.ContributedClasses(fq) {
					classifiers[id.ShortName()] = id
				}
			}
		}
		for i := range record.Classes {
			id, err := ctx.Names.ClassID(record.Classes[i].Name)
			if err != nil || id.IsNested() || id.Package != fq {
				continue
			}
			classifiers[id.ShortName()] = id
		}
		scopes = append(scopes, newMemberScope(ctx, record.Functions, record.Properties, classifiers))
	}
	f.scope = descriptors.NewChainedScope(scopes...)
	return f
}

func (f *DeserializedPackageFragment) contextFor(record *metadata.PackageRecord) *Context {
	if ctx, ok := f.contexts[record]; ok {
		return ctx
	}
	return newPackageContext(f.c, record, f)
}

func (f *DeserializedPackageFragment) Name() names.Name                     { return f.fq.ShortName() }
func (f *DeserializedPackageFragment) Container() descriptors.Descriptor    { return f.module }
func (f *DeserializedPackageFragment) Kind() descriptors.Kind               { return descriptors.KindPackageFragment }
func (f *DeserializedPackageFragment) FqName() names.FqName                 { return f.fq }
func (f *DeserializedPackageFragment) MemberScope() descriptors.MemberScope { return f.scope }
func (f *DeserializedPackageFragment) String() string                       { return "package " + f.fq.String() }

// Annotations of package fragments are always empty.
func (f *DeserializedPackageFragment) Annotations(context.Context) (descriptors.Annotations, error) {
	return descriptors.Annotations{}, nil
}

// PackageFragmentProvider exposes the records of a ClassDataFinder as one
// package fragment per package.
type PackageFragmentProvider struct {
	c         *Components
	fragments *storage.NullableMemoizedFunction[names.FqName, *DeserializedPackageFragment]
}

// NewPackageFragmentProvider creates the provider of c's records.
func NewPackageFragmentProvider(c *Components) *PackageFragmentProvider {
	p := &PackageFragmentProvider{c: c}
	p.fragments = storage.NewNullableMemoizedFunction(c.Storage,
		func(_ context.Context, fq names.FqName) (*DeserializedPackageFragment, bool, error) {
			records := c.Finder.PackageRecords(fq)
			if len(records) == 0 {
				return nil, false, nil
			}
			return newPackageFragment(c, fq, records), true, nil
		},
		storage.Label[*DeserializedPackageFragment]("package fragments"))
	return p
}

func (p *PackageFragmentProvider) fragment(ctx context.Context, fq names.FqName) (*DeserializedPackageFragment, bool, error) {
	return p.fragments.Get(ctx, fq)
}

// PackageFragments returns the fragment of fq, if any record declares it.
func (p *PackageFragmentProvider) PackageFragments(ctx context.Context, fq names.FqName) ([]descriptors.PackageFragmentDescriptor, error) {
	f, ok, err := p.fragment(ctx, fq)
	if err != nil || !ok {
		return nil, err
	}
	return []descriptors.PackageFragmentDescriptor{f}, nil
}

// SubPackagesOf lists the direct sub-packages of fq accepted by nameFilter.
func (p *PackageFragmentProvider) SubPackagesOf(_ context.Context, fq names.FqName, nameFilter func(names.Name) bool) ([]names.FqName, error) {
	var out []names.FqName
	for _, sub := range p.c.Finder.SubPackagesOf(fq) {
		if nameFilter == nil || nameFilter(sub.ShortName()) {
			out = append(out, sub)
		}
	}
	return out, nil
}
