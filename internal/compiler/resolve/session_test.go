package resolve

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/dataflow"
	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/nullcheck"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

const moneyClasses = `
classes:
  - name: org/sample/Money
    constructors:
      - parameters: [{name: cents, type: {class: long}}]
    methods:
      - name: valueOf
        static: true
        parameters: [{name: text, type: {class: java/lang/String}}]
        return: {class: org/sample/Money}
      - {name: getCents, return: {class: long}}
`

func newSession(t *testing.T, cfg Config, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(cfg, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func withMoney(t *testing.T) Option {
	t.Helper()
	classes, err := interop.DecodePlatformClasses([]byte(moneyClasses))
	require.NoError(t, err)
	return WithPlatformClasses(classes...)
}

func TestNewSession(t *testing.T) {
	s := newSession(t, DefaultConfig())

	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, "main", s.Config().Name)
	assert.Contains(t, s.Packages(), names.FqName("kotlin"))
	assert.Contains(t, s.Packages(), names.FqName("java.lang"))
	assert.NotNil(t, s.Checker())
	assert.Equal(t, names.Name("main"), s.Module().Name())
}

func TestNewSession_DuplicatePlatformClass(t *testing.T) {
	_, err := NewSession(DefaultConfig(), nil, WithPlatformClasses(&interop.PlatformClass{Name: "java/lang/Object"}))
	assert.ErrorIs(t, err, interop.ErrMalformedPlatformClass)
}

func TestSession_ResolveClass(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, DefaultConfig())

	str, err := s.ResolveClass(ctx, types.StringID)
	require.NoError(t, err)
	require.NotNil(t, str)
	assert.Equal(t, types.StringID, str.ClassID())

	missing, err := s.ResolveClass(ctx, names.MustParseClassID("org/none/Missing"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.MemberScope(ctx, names.MustParseClassID("org/none/Missing"))
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestSession_WithoutStdlib(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stdlib = false
	s := newSession(t, cfg, withMoney(t))

	str, err := s.ResolveClass(context.Background(), types.StringID)
	require.NoError(t, err)
	assert.Nil(t, str)
	assert.Equal(t, []names.FqName{"org.sample"}, s.Packages())
}

func TestSession_Functions(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, DefaultConfig())

	repeat, err := s.Functions(ctx, types.StringID, "repeat", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, repeat, 1)
	assert.Equal(t, descriptors.OriginCompatibility, repeat[0].Origin)
	assert.Len(t, s.Diagnostics().WithCode(errors.ErrDeprecatedPlatformMember), 1)
}

func TestSession_FunctionsWithoutAdditionalBuiltIns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdditionalBuiltIns = false
	s := newSession(t, cfg)

	repeat, err := s.Functions(context.Background(), types.StringID, "repeat", descriptors.NoLocation)
	require.NoError(t, err)
	assert.Empty(t, repeat)
}

func TestSession_SyntheticExtensionProperties(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, DefaultConfig())

	thread, err := s.ResolveClass(ctx, names.MustParseClassID("java/lang/Thread"))
	require.NoError(t, err)
	require.NotNil(t, thread)
	receiver := []types.Type{types.PlatformType(descriptors.DefaultType(thread))}

	name, err := s.SyntheticExtensionProperties(ctx, receiver, "name", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, name, 1)
	assert.False(t, name[0].Mutable)

	functions, err := s.SyntheticMemberFunctions(ctx, receiver, "getName", descriptors.NoLocation)
	require.NoError(t, err)
	assert.Empty(t, functions)
}

func TestSession_SyntheticFactories(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, DefaultConfig(), withMoney(t))
	money := names.MustParseClassID("org/sample/Money")

	statics, err := s.StaticScope(ctx, money)
	require.NoError(t, err)
	valueOf, err := s.SyntheticStaticFunctions(ctx, statics, "valueOf", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, valueOf, 1)
	assert.True(t, types.MustNotBeNull(valueOf[0].ReturnType).IsFromPlatform())

	scopes, err := s.PackageScopes(ctx, "org.sample")
	require.NoError(t, err)
	require.NotEmpty(t, scopes)
	var ctors []*descriptors.FunctionDescriptor
	for _, scope := range scopes {
		found, err := s.SyntheticConstructors(ctx, scope, "Money", descriptors.NoLocation)
		require.NoError(t, err)
		ctors = append(ctors, found...)
	}
	require.Len(t, ctors, 1)
	assert.Equal(t, names.Name("Money"), ctors[0].Name())
}

func TestSession_AllSynthetic(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, DefaultConfig(), withMoney(t))
	money := names.MustParseClassID("org/sample/Money")

	class, err := s.ResolveClass(ctx, money)
	require.NoError(t, err)
	require.NotNil(t, class)
	receiver := []types.Type{types.PlatformType(descriptors.DefaultType(class))}

	props, err := s.AllSyntheticExtensionProperties(ctx, receiver)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, names.Name("cents"), props[0].Name())

	members, err := s.AllSyntheticMemberFunctions(ctx, receiver)
	require.NoError(t, err)
	assert.Empty(t, members)

	statics, err := s.AllSyntheticStaticFunctions(ctx, class.StaticScope())
	require.NoError(t, err)
	assert.Len(t, statics, 1)

	scopes, err := s.PackageScopes(ctx, "org.sample")
	require.NoError(t, err)
	var ctors []*descriptors.FunctionDescriptor
	for _, scope := range scopes {
		found, err := s.AllSyntheticConstructors(ctx, scope)
		require.NoError(t, err)
		ctors = append(ctors, found...)
	}
	assert.Len(t, ctors, 1)
}

func TestSession_Checker(t *testing.T) {
	var forwarded []*errors.CompilerError
	s := newSession(t, DefaultConfig(), WithReporter(errors.ReporterFunc(func(err *errors.CompilerError) {
		forwarded = append(forwarded, err)
	})))

	str := types.ClassType(types.StringID, false)
	receiver := &ast.ReferenceExpr{Name: "s"}
	call := &ast.CallExpr{Receiver: receiver, Callee: "length"}
	err := s.Checker().CheckReceiver(context.Background(), nullcheck.ResolutionContext{DataFlow: dataflow.Empty},
		str, nullcheck.Receiver{Expr: receiver, Type: types.PlatformType(str)}, false, call)
	require.NoError(t, err)

	assert.Len(t, s.Diagnostics().WithCode(errors.ErrReceiverNullabilityMismatch), 1)
	require.Len(t, forwarded, 1)
	assert.Equal(t, errors.ErrReceiverNullabilityMismatch, forwarded[0].Code)
}

func TestSession_Preload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	s := newSession(t, cfg, withMoney(t))

	n, err := s.Preload(context.Background(), []names.FqName{"kotlin", "org.sample", "org.none"})
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.Greater(t, s.Stats().Computations, int64(0))
}

func TestSession_PreloadCancelled(t *testing.T) {
	s := newSession(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Preload(ctx, s.Packages())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_Close(t *testing.T) {
	s, err := NewSession(DefaultConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.ResolveClass(context.Background(), types.StringID)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Preload(context.Background(), s.Packages())
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.SyntheticExtensionProperties(context.Background(), nil, "x", descriptors.NoLocation)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
