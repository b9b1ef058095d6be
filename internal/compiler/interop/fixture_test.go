package interop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/deserialization"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/stdlib"
	"github.com/conduit-lang/interop/internal/storage"
)

type fixture struct {
	module   *descriptors.ModuleDescriptor
	loader   *Loader
	settings *BuiltInsSettings
	reports  *errors.Collector
}

// newFixture wires the bundled records and platform classes into one module.
func newFixture(t *testing.T, opts ...SettingsOption) *fixture {
	t.Helper()
	records, err := stdlib.Records()
	require.NoError(t, err)
	sources, err := stdlib.PlatformSources()
	require.NoError(t, err)

	var list []*PlatformClass
	for _, f := range sources {
		classes, err := DecodePlatformClasses(f.Content)
		require.NoError(t, err, f.Name)
		list = append(list, classes...)
	}
	classes, err := NewPlatformClasses(list...)
	require.NoError(t, err)

	sm := storage.NewManager()
	module := descriptors.NewModule("test", sm)
	reports := errors.NewCollector()
	loader := NewLoader(sm, module, classes)
	settings := NewBuiltInsSettings(sm, module, loader, append([]SettingsOption{WithSettingsReporter(reports)}, opts...)...)
	deserialization.NewComponents(sm, module, deserialization.NewRecordClassDataFinder(records...),
		deserialization.WithAdditionalParts(settings),
		deserialization.WithPlatformFilter(settings),
		deserialization.WithClassFactories(NewCloneableFactory(sm, module)),
		deserialization.WithReporter(reports))

	return &fixture{module: module, loader: loader, settings: settings, reports: reports}
}

func (f *fixture) class(t *testing.T, id string) descriptors.ClassDescriptor {
	t.Helper()
	c, err := f.module.ResolveClass(context.Background(), names.MustParseClassID(id))
	require.NoError(t, err)
	require.NotNil(t, c, id)
	return c
}

func (f *fixture) functions(t *testing.T, class string, name names.Name) []*descriptors.FunctionDescriptor {
	t.Helper()
	fns, err := f.class(t, class).MemberScope().ContributedFunctions(context.Background(), name, descriptors.NoLocation)
	require.NoError(t, err)
	return fns
}

func (f *fixture) function(t *testing.T, class string, name names.Name) *descriptors.FunctionDescriptor {
	t.Helper()
	fns := f.functions(t, class, name)
	require.Len(t, fns, 1, "%s.%s", class, name)
	return fns[0]
}

func (f *fixture) statics(t *testing.T, class string, name names.Name) []*descriptors.FunctionDescriptor {
	t.Helper()
	fns, err := f.class(t, class).StaticScope().ContributedFunctions(context.Background(), name, descriptors.NoLocation)
	require.NoError(t, err)
	return fns
}

// reported returns the messages of the notices carrying code.
func (f *fixture) reported(code errors.ErrorCode) []string {
	var out []string
	for _, e := range f.reports.Errors().WithCode(code) {
		out = append(out, e.Message)
	}
	return out
}
