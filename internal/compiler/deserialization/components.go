// Package deserialization builds lazy descriptors from metadata records.
// Every class is created once per Components; its supertypes, members,
// annotations and constants are deserialized on first use.
package deserialization

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

// ClassFactory creates classes that have no metadata of their own, such as
// the fictitious Cloneable class. CreateClass returns nil for ids the factory
// does not handle.
type ClassFactory interface {
	CreateClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error)
	// ContributedClasses lists the top-level classes the factory adds to pkg.
	ContributedClasses(pkg names.FqName) []names.ClassID
}

// AdditionalClassPartsProvider contributes members and supertypes that are
// not present in a class's own metadata.
type AdditionalClassPartsProvider interface {
	Supertypes(ctx context.Context, class descriptors.ClassDescriptor) ([]types.Type, error)
	Functions(ctx context.Context, name names.Name, class descriptors.ClassDescriptor) ([]*descriptors.FunctionDescriptor, error)
	FunctionNames(ctx context.Context, class descriptors.ClassDescriptor) ([]names.Name, error)
	Constructors(ctx context.Context, class descriptors.ClassDescriptor) ([]*descriptors.ConstructorDescriptor, error)
}

// NoAdditionalParts contributes nothing.
type NoAdditionalParts struct{}

func (NoAdditionalParts) Supertypes(context.Context, descriptors.ClassDescriptor) ([]types.Type, error) {
	return nil, nil
}

func (NoAdditionalParts) Functions(context.Context, names.Name, descriptors.ClassDescriptor) ([]*descriptors.FunctionDescriptor, error) {
	return nil, nil
}

func (NoAdditionalParts) FunctionNames(context.Context, descriptors.ClassDescriptor) ([]names.Name, error) {
	return nil, nil
}

func (NoAdditionalParts) Constructors(context.Context, descriptors.ClassDescriptor) ([]*descriptors.ConstructorDescriptor, error) {
	return nil, nil
}

// PlatformDeclarationFilter decides whether a deserialized function exists
// on the configured platform.
type PlatformDeclarationFilter interface {
	IsFunctionAvailable(ctx context.Context, class descriptors.ClassDescriptor, fn *descriptors.FunctionDescriptor) (bool, error)
}

// AllDeclarations keeps every function.
type AllDeclarations struct{}

func (AllDeclarations) IsFunctionAvailable(context.Context, descriptors.ClassDescriptor, *descriptors.FunctionDescriptor) (bool, error) {
	return true, nil
}

// Components is the shared context of one deserialization session.
type Components struct {
	Storage          *storage.Manager
	Module           *descriptors.ModuleDescriptor
	Finder           ClassDataFinder
	Annotations      *AnnotationLoader
	PackageFragments descriptors.PackageFragmentProvider
	Reporter         errors.Reporter
	Lookups          descriptors.LookupTracker
	FlexibleTypes    FlexibleTypeDeserializer
	Fictitious       []ClassFactory
	NotFound         *descriptors.NotFoundClasses
	AdditionalParts  AdditionalClassPartsProvider
	PlatformFilter   PlatformDeclarationFilter
	Logger           *zap.Logger

	classes         *ClassDeserializer
	packages        *PackageFragmentProvider
	reportedMissing   sync.Map
	reportedMalformed sync.Map
}

// Option configures Components.
type Option func(*Components)

// WithReporter sets the diagnostic sink.
func WithReporter(r errors.Reporter) Option {
	return func(c *Components) { c.Reporter = r }
}

// WithLookupTracker records member lookups for incremental compilation.
func WithLookupTracker(t descriptors.LookupTracker) Option {
	return func(c *Components) { c.Lookups = t }
}

// WithFlexibleTypes replaces the flexible type deserializer.
func WithFlexibleTypes(f FlexibleTypeDeserializer) Option {
	return func(c *Components) { c.FlexibleTypes = f }
}

// WithClassFactories registers factories for classes without metadata.
func WithClassFactories(factories ...ClassFactory) Option {
	return func(c *Components) { c.Fictitious = append(c.Fictitious, factories...) }
}

// WithAdditionalParts sets the provider of non-declared class members.
func WithAdditionalParts(p AdditionalClassPartsProvider) Option {
	return func(c *Components) { c.AdditionalParts = p }
}

// WithPlatformFilter sets the platform availability filter.
func WithPlatformFilter(f PlatformDeclarationFilter) Option {
	return func(c *Components) { c.PlatformFilter = f }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Components) { c.Logger = logger }
}

// NewComponents wires a deserialization session over finder and registers
// its package fragment provider with module.
func NewComponents(sm *storage.Manager, module *descriptors.ModuleDescriptor, finder ClassDataFinder, opts ...Option) *Components {
	c := &Components{
		Storage:         sm,
		Module:          module,
		Finder:          finder,
		Reporter:        errors.Discard,
		Lookups:         descriptors.NoopTracker{},
		FlexibleTypes:   PlatformFlexibleTypes{},
		AdditionalParts: NoAdditionalParts{},
		PlatformFilter:  AllDeclarations{},
		Logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.NotFound = descriptors.NewNotFoundClasses(sm, module)
	c.Annotations = NewAnnotationLoader(sm, c.reportMalformed)
	c.classes = newClassDeserializer(c)

	c.packages = NewPackageFragmentProvider(c)
	c.PackageFragments = c.packages
	module.AddProvider(c.packages)
	return c
}

// DeserializeClass returns the class with the given id, or nil when no
// record declares it or its record is malformed.
func (c *Components) DeserializeClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error) {
	return c.classes.DeserializeClass(ctx, id)
}

// reportMalformed reports a skipped declaration once.
func (c *Components) reportMalformed(declaration string, err error) {
	if _, loaded := c.reportedMalformed.LoadOrStore(declaration, struct{}{}); loaded {
		return
	}
	c.Logger.Debug("skipping malformed metadata",
		zap.String("declaration", declaration),
		zap.Error(err))
	c.Reporter.Report(errors.NewMalformedMetadata(declaration, err))
}

// reportMissing reports a placeholder class once per id.
func (c *Components) reportMissing(id names.ClassID, referencedFrom string) {
	if _, loaded := c.reportedMissing.LoadOrStore(id, struct{}{}); loaded {
		return
	}
	c.Logger.Debug("class not found, using placeholder",
		zap.Stringer("class", id),
		zap.String("referenced_from", referencedFrom))
	c.Reporter.Report(errors.NewMissingDependency(id.String(), referencedFrom))
}
