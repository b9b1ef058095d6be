package descriptors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/conduit-lang/interop/internal/compiler/names"
)

// KindFilter selects which descriptor kinds a scope query returns.
type KindFilter uint8

const (
	FilterFunctions KindFilter = 1 << iota
	FilterVariables
	FilterClassifiers
	FilterPackages

	FilterCallables = FilterFunctions | FilterVariables
	FilterAll       = FilterFunctions | FilterVariables | FilterClassifiers | FilterPackages
)

// Accepts reports whether descriptors of kind k pass the filter.
func (f KindFilter) Accepts(k Kind) bool {
	switch k {
	case KindFunction:
		return f&FilterFunctions != 0
	case KindProperty:
		return f&FilterVariables != 0
	case KindClass:
		return f&FilterClassifiers != 0
	case KindPackageFragment:
		return f&FilterPackages != 0
	}
	return false
}

// AllNames accepts every name.
func AllNames(names.Name) bool { return true }

// LookupLocation identifies where a scope lookup originates. Only located
// lookups are recorded by a LookupTracker.
type LookupLocation struct {
	File   string
	Line   int
	Column int
	// Reason describes untracked lookups
	Reason string
}

// Untracked lookup locations used by the engine itself.
var (
	NoLocation          = LookupLocation{Reason: "no location"}
	FromDeserialization = LookupLocation{Reason: "from deserialization"}
	WhenGetSuperMembers = LookupLocation{Reason: "when get super members"}
	FromBuiltIns        = LookupLocation{Reason: "from built-ins"}
	FromSynthetic       = LookupLocation{Reason: "from synthetic scope"}
)

// IsTracked reports whether the lookup has a source position.
func (l LookupLocation) IsTracked() bool {
	return l.File != ""
}

func (l LookupLocation) String() string {
	if !l.IsTracked() {
		return "<" + l.Reason + ">"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Lookup is one recorded name lookup.
type Lookup struct {
	Location  LookupLocation
	Scope     names.FqName
	ScopeKind Kind
	Name      names.Name
}

// LookupTracker records name lookups for incremental compilation.
type LookupTracker interface {
	Record(location LookupLocation, scope Descriptor, name names.Name)
}

// NoopTracker ignores every lookup.
type NoopTracker struct{}

// Record does nothing.
func (NoopTracker) Record(LookupLocation, Descriptor, names.Name) {}

// RecordingTracker keeps every tracked lookup in memory.
type RecordingTracker struct {
	mu      sync.Mutex
	lookups []Lookup
}

// NewRecordingTracker creates an empty tracker.
func NewRecordingTracker() *RecordingTracker {
	return &RecordingTracker{}
}

// Record stores the lookup if its location is tracked.
func (t *RecordingTracker) Record(location LookupLocation, scope Descriptor, name names.Name) {
	if !location.IsTracked() || scope == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lookups = append(t.lookups, Lookup{
		Location:  location,
		Scope:     FqNameOf(scope),
		ScopeKind: scope.Kind(),
		Name:      name,
	})
}

// Lookups returns a copy of the recorded lookups.
func (t *RecordingTracker) Lookups() []Lookup {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Lookup(nil), t.lookups...)
}

// MemberScope answers member queries on a class or package.
type MemberScope interface {
	ContributedFunctions(ctx context.Context, name names.Name, location LookupLocation) ([]*FunctionDescriptor, error)
	ContributedVariables(ctx context.Context, name names.Name, location LookupLocation) ([]*PropertyDescriptor, error)
	// ContributedClassifier returns nil when no class has that name.
	ContributedClassifier(ctx context.Context, name names.Name, location LookupLocation) (ClassDescriptor, error)
	ContributedDescriptors(ctx context.Context, filter KindFilter, nameFilter func(names.Name) bool) ([]Descriptor, error)
	FunctionNames(ctx context.Context) ([]names.Name, error)
	VariableNames(ctx context.Context) ([]names.Name, error)
	ClassifierNames(ctx context.Context) ([]names.Name, error)
}

type emptyScope struct{}

// EmptyScope has no members.
var EmptyScope MemberScope = emptyScope{}

func (emptyScope) ContributedFunctions(context.Context, names.Name, LookupLocation) ([]*FunctionDescriptor, error) {
	return nil, nil
}

func (emptyScope) ContributedVariables(context.Context, names.Name, LookupLocation) ([]*PropertyDescriptor, error) {
	return nil, nil
}

func (emptyScope) ContributedClassifier(context.Context, names.Name, LookupLocation) (ClassDescriptor, error) {
	return nil, nil
}

func (emptyScope) ContributedDescriptors(context.Context, KindFilter, func(names.Name) bool) ([]Descriptor, error) {
	return nil, nil
}

func (emptyScope) FunctionNames(context.Context) ([]names.Name, error)   { return nil, nil }
func (emptyScope) VariableNames(context.Context) ([]names.Name, error)   { return nil, nil }
func (emptyScope) ClassifierNames(context.Context) ([]names.Name, error) { return nil, nil }

// SimpleScope is a fully built scope backed by maps.
type SimpleScope struct {
	functions   map[names.Name][]*FunctionDescriptor
	variables   map[names.Name][]*PropertyDescriptor
	classifiers map[names.Name]ClassDescriptor
}

// NewSimpleScope indexes the given members by name.
func NewSimpleScope(functions []*FunctionDescriptor, variables []*PropertyDescriptor, classifiers []ClassDescriptor) *SimpleScope {
	s := &SimpleScope{
		functions:   make(map[names.Name][]*FunctionDescriptor),
		variables:   make(map[names.Name][]*PropertyDescriptor),
		classifiers: make(map[names.Name]ClassDescriptor),
	}
	for _, f := range functions {
		s.functions[f.Name()] = append(s.functions[f.Name()], f)
	}
	for _, v := range variables {
		s.variables[v.Name()] = append(s.variables[v.Name()], v)
	}
	for _, c := range classifiers {
		s.classifiers[c.Name()] = c
	}
	return s
}

func (s *SimpleScope) ContributedFunctions(_ context.Context, name names.Name, _ LookupLocation) ([]*FunctionDescriptor, error) {
	return s.functions[name], nil
}

func (s *SimpleScope) ContributedVariables(_ context.Context, name names.Name, _ LookupLocation) ([]*PropertyDescriptor, error) {
	return s.variables[name], nil
}

func (s *SimpleScope) ContributedClassifier(_ context.Context, name names.Name, _ LookupLocation) (ClassDescriptor, error) {
	return s.classifiers[name], nil
}

func (s *SimpleScope) ContributedDescriptors(ctx context.Context, filter KindFilter, nameFilter func(names.Name) bool) ([]Descriptor, error) {
	return CollectDescriptors(ctx, s, filter, nameFilter)
}

func (s *SimpleScope) FunctionNames(context.Context) ([]names.Name, error) {
	return sortedKeys(s.functions), nil
}

func (s *SimpleScope) VariableNames(context.Context) ([]names.Name, error) {
	return sortedKeys(s.variables), nil
}

func (s *SimpleScope) ClassifierNames(context.Context) ([]names.Name, error) {
	return sortedKeys(s.classifiers), nil
}

func sortedKeys[V any](m map[names.Name]V) []names.Name {
	out := make([]names.Name, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CollectDescriptors implements ContributedDescriptors for any scope from its
// name sets and per-name queries.
func CollectDescriptors(ctx context.Context, s MemberScope, filter KindFilter, nameFilter func(names.Name) bool) ([]Descriptor, error) {
	if nameFilter == nil {
		nameFilter = AllNames
	}
	var out []Descriptor

	if filter&FilterClassifiers != 0 {
		classNames, err := s.ClassifierNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range classNames {
			if !nameFilter(n) {
				continue
			}
			c, err := s.ContributedClassifier(ctx, n, NoLocation)
			if err != nil {
				return nil, err
			}
			if c != nil {
				out = append(out, c)
			}
		}
	}

	if filter&FilterFunctions != 0 {
		fnNames, err := s.FunctionNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range fnNames {
			if !nameFilter(n) {
				continue
			}
			fns, err := s.ContributedFunctions(ctx, n, NoLocation)
			if err != nil {
				return nil, err
			}
			for _, f := range fns {
				out = append(out, f)
			}
		}
	}

	if filter&FilterVariables != 0 {
		varNames, err := s.VariableNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range varNames {
			if !nameFilter(n) {
				continue
			}
			vars, err := s.ContributedVariables(ctx, n, NoLocation)
			if err != nil {
				return nil, err
			}
			for _, v := range vars {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// ChainedScope concatenates the results of several scopes in order.
type ChainedScope struct {
	scopes []MemberScope
}

// NewChainedScope chains scopes; nil scopes are skipped.
func NewChainedScope(scopes ...MemberScope) MemberScope {
	var nonNil []MemberScope
	for _, s := range scopes {
		if s != nil && s != EmptyScope {
			nonNil = append(nonNil, s)
		}
	}
	switch len(nonNil) {
	case 0:
		return EmptyScope
	case 1:
		return nonNil[0]
	}
	return &ChainedScope{scopes: nonNil}
}

func (c *ChainedScope) ContributedFunctions(ctx context.Context, name names.Name, location LookupLocation) ([]*FunctionDescriptor, error) {
	var out []*FunctionDescriptor
	for _, s := range c.scopes {
		fns, err := s.ContributedFunctions(ctx, name, location)
		if err != nil {
			return nil, err
		}
		out = append(out, fns...)
	}
	return out, nil
}

func (c *ChainedScope) ContributedVariables(ctx context.Context, name names.Name, location LookupLocation) ([]*PropertyDescriptor, error) {
	var out []*PropertyDescriptor
	for _, s := range c.scopes {
		vars, err := s.ContributedVariables(ctx, name, location)
		if err != nil {
			return nil, err
		}
		out = append(out, vars...)
	}
	return out, nil
}

// ContributedClassifier returns the first match in chain order.
func (c *ChainedScope) ContributedClassifier(ctx context.Context, name names.Name, location LookupLocation) (ClassDescriptor, error) {
	for _, s := range c.scopes {
		cls, err := s.ContributedClassifier(ctx, name, location)
		if err != nil {
			return nil, err
		}
		if cls != nil {
			return cls, nil
		}
	}
	return nil, nil
}

func (c *ChainedScope) ContributedDescriptors(ctx context.Context, filter KindFilter, nameFilter func(names.Name) bool) ([]Descriptor, error) {
	var out []Descriptor
	for _, s := range c.scopes {
		ds, err := s.ContributedDescriptors(ctx, filter, nameFilter)
		if err != nil {
			return nil, err
		}
		out = append(out, ds...)
	}
	return out, nil
}

func (c *ChainedScope) FunctionNames(ctx context.Context) ([]names.Name, error) {
	return c.unionNames(ctx, MemberScope.FunctionNames)
}

func (c *ChainedScope) VariableNames(ctx context.Context) ([]names.Name, error) {
	return c.unionNames(ctx, MemberScope.VariableNames)
}

func (c *ChainedScope) ClassifierNames(ctx context.Context) ([]names.Name, error) {
	return c.unionNames(ctx, MemberScope.ClassifierNames)
}

func (c *ChainedScope) unionNames(ctx context.Context, get func(MemberScope, context.Context) ([]names.Name, error)) ([]names.Name, error) {
	seen := make(map[names.Name]struct{})
	var out []names.Name
	for _, s := range c.scopes {
		ns, err := get(s, ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range ns {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	return out, nil
}
