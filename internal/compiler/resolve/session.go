// Package resolve wires the descriptor graph, platform interop, synthetic
// scopes and the nullability checker into one resolution session. A session
// is the context object a type checker talks to: it answers class and member
// lookups and hands out the checker that reports nullability diagnostics.
package resolve

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/deserialization"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/nullcheck"
	"github.com/conduit-lang/interop/internal/compiler/stdlib"
	"github.com/conduit-lang/interop/internal/compiler/synthetic"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

var (
	// ErrSessionClosed is returned by every lookup after Close.
	ErrSessionClosed = stderrors.New("resolution session closed")
	// ErrClassNotFound is returned when no module declares a class.
	ErrClassNotFound = stderrors.New("class not found")
)

// Config holds the session settings.
type Config struct {
	// Name is the module name.
	Name string
	// AdditionalBuiltIns enables platform members of built-in classes.
	AdditionalBuiltIns bool
	// Workers bounds the parallelism of Preload.
	Workers int
	// Stdlib adds the bundled records and platform classes.
	Stdlib bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Name:               "main",
		AdditionalBuiltIns: true,
		Workers:            4,
		Stdlib:             true,
	}
}

// Option configures a Session.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	platform []*interop.PlatformClass
	reporter errors.Reporter
}

// WithLogger sets the logger shared by every component of the session.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPlatformClasses adds platform classes on top of the bundled ones.
func WithPlatformClasses(classes ...*interop.PlatformClass) Option {
	return func(o *options) { o.platform = append(o.platform, classes...) }
}

// WithReporter forwards every diagnostic to r in addition to the session's
// own collector.
func WithReporter(r errors.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// Session is one resolution universe: a module with its storage manager,
// deserialized packages, platform classes and synthetic scopes.
type Session struct {
	ID string

	cfg        Config
	logger     *zap.Logger
	storage    *storage.Manager
	module     *descriptors.ModuleDescriptor
	components *deserialization.Components
	loader     *interop.Loader
	settings   *interop.BuiltInsSettings
	synthetic  *synthetic.Scopes
	reports    *errors.Collector
	checker    *nullcheck.Checker
	packages   []names.FqName
	closed     atomic.Bool
}

// NewSession builds a session over records and the configured platform classes.
func NewSession(cfg Config, records []*metadata.PackageRecord, opts ...Option) (*Session, error) {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	platform := o.platform
	if cfg.Stdlib {
		bundled, err := stdlib.Records()
		if err != nil {
			return nil, fmt.Errorf("loading bundled records: %w", err)
		}
		records = append(bundled, records...)

		sources, err := stdlib.PlatformSources()
		if err != nil {
			return nil, fmt.Errorf("loading bundled platform classes: %w", err)
		}
		var classes []*interop.PlatformClass
		for _, f := range sources {
			decoded, err := interop.DecodePlatformClasses(f.Content)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			classes = append(classes, decoded...)
		}
		platform = append(classes, platform...)
	}
	index, err := interop.NewPlatformClasses(platform...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:      uuid.New().String(),
		cfg:     cfg,
		reports: errors.NewCollector(),
	}
	s.logger = o.logger.With(zap.String("session", s.ID))

	var sink errors.Reporter = s.reports
	if o.reporter != nil {
		sink = errors.ReporterFunc(func(err *errors.CompilerError) {
			s.reports.Report(err)
			o.reporter.Report(err)
		})
	}

	s.storage = storage.NewManager(storage.WithLogger(s.logger), storage.WithName(cfg.Name))
	s.module = descriptors.NewModule(names.Name(cfg.Name), s.storage)
	s.loader = interop.NewLoader(s.storage, s.module, index, interop.WithLoaderLogger(s.logger))
	s.settings = interop.NewBuiltInsSettings(s.storage, s.module, s.loader,
		interop.WithAdditionalBuiltIns(cfg.AdditionalBuiltIns),
		interop.WithSettingsReporter(sink),
		interop.WithSettingsLogger(s.logger))
	s.components = deserialization.NewComponents(s.storage, s.module,
		deserialization.NewRecordClassDataFinder(records...),
		deserialization.WithAdditionalParts(s.settings),
		deserialization.WithPlatformFilter(s.settings),
		deserialization.WithClassFactories(interop.NewCloneableFactory(s.storage, s.module)),
		deserialization.WithReporter(sink),
		deserialization.WithLogger(s.logger))
	s.synthetic = synthetic.NewScopes(
		synthetic.NewPlatformPropertiesScope(s.module),
		synthetic.NewPlatformFactoryScope())
	s.checker = nullcheck.NewChecker(sink, s.module, nullcheck.WithLogger(s.logger))
	s.packages = packagesOf(records, index)

	s.logger.Debug("session created",
		zap.Int("records", len(records)),
		zap.Int("platform_classes", index.Len()))
	return s, nil
}

func packagesOf(records []*metadata.PackageRecord, platform *interop.PlatformClasses) []names.FqName {
	seen := make(map[names.FqName]bool)
	var out []names.FqName
	add := func(fq names.FqName) {
		if !seen[fq] {
			seen[fq] = true
			out = append(out, fq)
		}
	}
	for _, r := range records {
		add(names.FqName(r.Package))
	}
	for _, fq := range platform.Packages() {
		add(fq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Session) live() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return nil
}

// Module returns the session's module descriptor.
func (s *Session) Module() *descriptors.ModuleDescriptor { return s.module }

// Config returns the settings the session was built with.
func (s *Session) Config() Config { return s.cfg }

// Packages lists every package with records or platform classes, sorted.
func (s *Session) Packages() []names.FqName {
	return append([]names.FqName(nil), s.packages...)
}

// Diagnostics returns everything reported so far.
func (s *Session) Diagnostics() errors.ErrorList { return s.reports.Errors() }

// Stats returns the storage manager counters.
func (s *Session) Stats() storage.Stats { return s.storage.Stats() }

// Checker returns the nullability checker reporting into this session.
func (s *Session) Checker() *nullcheck.Checker { return s.checker }

// ResolveClass returns the class declared under id, or nil when no
// package declares it.
func (s *Session) ResolveClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.module.ResolveClass(ctx, id)
}

func (s *Session) requireClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error) {
	class, err := s.ResolveClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, id)
	}
	return class, nil
}

// MemberScope returns the member scope of class id.
func (s *Session) MemberScope(ctx context.Context, id names.ClassID) (descriptors.MemberScope, error) {
	class, err := s.requireClass(ctx, id)
	if err != nil {
		return nil, err
	}
	return class.MemberScope(), nil
}

// StaticScope returns the static scope of class id.
func (s *Session) StaticScope(ctx context.Context, id names.ClassID) (descriptors.MemberScope, error) {
	class, err := s.requireClass(ctx, id)
	if err != nil {
		return nil, err
	}
	return class.StaticScope(), nil
}

// PackageScopes returns the member scopes of every fragment of package fq.
func (s *Session) PackageScopes(ctx context.Context, fq names.FqName) ([]descriptors.MemberScope, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	frags, err := s.module.PackageFragments(ctx, fq)
	if err != nil {
		return nil, err
	}
	out := make([]descriptors.MemberScope, len(frags))
	for i, f := range frags {
		out[i] = f.MemberScope()
	}
	return out, nil
}

// Functions returns the functions named name in class id, declared and
// platform-contributed alike.
func (s *Session) Functions(ctx context.Context, id names.ClassID, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	scope, err := s.MemberScope(ctx, id)
	if err != nil {
		return nil, err
	}
	return scope.ContributedFunctions(ctx, name, location)
}

// SyntheticExtensionProperties collects synthetic properties named name on the receiver types.
func (s *Session) SyntheticExtensionProperties(ctx context.Context, receiverTypes []types.Type, name names.Name, location descriptors.LookupLocation) ([]*descriptors.PropertyDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectExtensionProperties(ctx, receiverTypes, name, location)
}

// SyntheticMemberFunctions collects synthetic member functions named name on the receiver types.
func (s *Session) SyntheticMemberFunctions(ctx context.Context, receiverTypes []types.Type, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectMemberFunctions(ctx, receiverTypes, name, location)
}

// SyntheticStaticFunctions collects synthetic static functions named name in scope.
func (s *Session) SyntheticStaticFunctions(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectStaticFunctions(ctx, scope, name, location)
}

// SyntheticConstructors collects synthetic constructors named name in scope.
func (s *Session) SyntheticConstructors(ctx context.Context, scope descriptors.MemberScope, name names.Name, location descriptors.LookupLocation) ([]*descriptors.FunctionDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectConstructors(ctx, scope, name, location)
}

// AllSyntheticExtensionProperties collects every synthetic property on the receiver types.
func (s *Session) AllSyntheticExtensionProperties(ctx context.Context, receiverTypes []types.Type) ([]*descriptors.PropertyDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectAllExtensionProperties(ctx, receiverTypes)
}

// AllSyntheticMemberFunctions collects every synthetic member function on the receiver types.
func (s *Session) AllSyntheticMemberFunctions(ctx context.Context, receiverTypes []types.Type) ([]*descriptors.FunctionDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectAllMemberFunctions(ctx, receiverTypes)
}

// AllSyntheticStaticFunctions collects every synthetic static function in scope.
func (s *Session) AllSyntheticStaticFunctions(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectAllStaticFunctions(ctx, scope)
}

// AllSyntheticConstructors collects every synthetic constructor in scope.
func (s *Session) AllSyntheticConstructors(ctx context.Context, scope descriptors.MemberScope) ([]*descriptors.FunctionDescriptor, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	return s.synthetic.CollectAllConstructors(ctx, scope)
}

// Preload resolves every top-level class of packages together with its
// supertypes and constructors, with at most Config.Workers classes in flight.
// It returns the number of classes resolved.
func (s *Session) Preload(ctx context.Context, packages []names.FqName) (int, error) {
	if err := s.live(); err != nil {
		return 0, err
	}
	var ids []names.ClassID
	for _, fq := range packages {
		scopes, err := s.PackageScopes(ctx, fq)
		if err != nil {
			return 0, err
		}
		seen := make(map[names.Name]bool)
		for _, scope := range scopes {
			classNames, err := scope.ClassifierNames(ctx)
			if err != nil {
				return 0, err
			}
			for _, n := range classNames {
				if !seen[n] {
					seen[n] = true
					ids = append(ids, names.NewClassID(fq, names.FqName(n)))
				}
			}
		}
	}

	var resolved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			class, err := s.module.ResolveClass(gctx, id)
			if err != nil {
				return fmt.Errorf("preloading %s: %w", id, err)
			}
			if class == nil {
				return nil
			}
			if _, err := class.Supertypes(gctx); err != nil {
				return fmt.Errorf("preloading %s: %w", id, err)
			}
			if _, err := class.Constructors(gctx); err != nil {
				return fmt.Errorf("preloading %s: %w", id, err)
			}
			resolved.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(resolved.Load()), err
	}
	if err := ctx.Err(); err != nil {
		return int(resolved.Load()), err
	}
	s.logger.Debug("preloaded", zap.Int("classes", int(resolved.Load())))
	return int(resolved.Load()), nil
}

// Close ends the session. Lookups fail with ErrSessionClosed afterwards.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	stats := s.storage.Stats()
	s.logger.Debug("session closed",
		zap.Int("diagnostics", s.reports.Len()),
		zap.Float64("storage_hit_rate", stats.HitRate()))
	s.reports.Reset()
	return nil
}
