package interop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

func TestLoader_ReturnTypes(t *testing.T) {
	f := newFixture(t)

	trim := f.function(t, "java/lang/String", "trim")
	assert.True(t, types.IsFlexible(trim.ReturnType))
	assert.Equal(t, "String!", trim.ReturnType.String())
	assert.NotNil(t, types.MayBeNull(trim.ReturnType))
	assert.Equal(t, types.FromPlatform, types.MayBeNull(trim.ReturnType).Provenance)

	strip := f.function(t, "java/lang/String", "strip")
	enhanced, ok := strip.ReturnType.(*types.EnhancedType)
	require.True(t, ok, "strip returns %T", strip.ReturnType)
	assert.True(t, types.IsFlexible(enhanced.Origin))
	info := types.MustNotBeNull(strip.ReturnType)
	require.NotNil(t, info)
	assert.True(t, info.IsFromPlatform())
	assert.Nil(t, types.MayBeNull(strip.ReturnType))

	parent := f.function(t, "java/io/File", "getParent")
	nullable := types.MayBeNull(parent.ReturnType)
	require.NotNil(t, nullable)
	assert.True(t, nullable.IsFromPlatform())
	assert.Equal(t, "String?", parent.ReturnType.String())

	length := f.function(t, "java/lang/String", "length")
	assert.Equal(t, "Int", length.ReturnType.String())
	assert.NotNil(t, types.MustNotBeNull(length.ReturnType))
	assert.True(t, types.MustNotBeNull(length.ReturnType).IsFromSource())
}

func TestLoader_CollectionsKeepMutabilityFlexibility(t *testing.T) {
	f := newFixture(t)
	fns := f.statics(t, "java/util/Collections", "emptyList")
	require.Len(t, fns, 1)

	ret, ok := fns[0].ReturnType.(*types.EnhancedType)
	require.True(t, ok)
	flexible, ok := ret.Enhancement.(*types.FlexibleType)
	require.True(t, ok, "enhancement is %T", ret.Enhancement)
	assert.False(t, flexible.Lower.Nullable)
	assert.False(t, flexible.Upper.Nullable)

	lower, _ := types.ClassIDOf(flexible.Lower)
	upper, _ := types.ClassIDOf(flexible.Upper)
	assert.Equal(t, "kotlin/collections/MutableList", lower.String())
	assert.Equal(t, "kotlin/collections/List", upper.String())

	unmodifiable := f.statics(t, "java/util/Collections", "unmodifiableList")
	require.Len(t, unmodifiable, 1)
	require.Len(t, unmodifiable[0].ValueParameters, 1)
	assert.NotNil(t, types.MustNotBeNull(unmodifiable[0].ValueParameters[0].Type))
}

func TestLoader_Supertypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	supers, err := f.class(t, "java/util/ArrayList").Supertypes(ctx)
	require.NoError(t, err)
	var ids []string
	for _, st := range supers {
		id, ok := types.ClassIDOf(st)
		require.True(t, ok)
		ids = append(ids, id.String())
		assert.False(t, st.IsMarkedNullable())
	}
	assert.Equal(t, []string{"kotlin/collections/MutableList", "kotlin/Cloneable", "java/io/Serializable"}, ids)

	object, err := f.class(t, "java/lang/Object").Supertypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, object)
}

func TestLoader_StaticScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	integer := f.class(t, "java/lang/Integer")

	maxValue, err := integer.StaticScope().ContributedVariables(ctx, "MAX_VALUE", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, maxValue, 1)
	assert.True(t, maxValue[0].Static)
	assert.Equal(t, "Int", maxValue[0].Type.String())

	instance, err := integer.MemberScope().ContributedVariables(ctx, "MAX_VALUE", descriptors.NoLocation)
	require.NoError(t, err)
	assert.Empty(t, instance)

	parse := f.statics(t, "java/lang/Integer", "parseInt")
	require.Len(t, parse, 1)
	assert.True(t, parse[0].Static)
	assert.Empty(t, f.functions(t, "java/lang/Integer", "parseInt"))

	fnNames, err := integer.StaticScope().FunctionNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, fnNames, names.Name("parseInt"))
}

func TestLoader_EnumClass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	thread := f.class(t, "java/lang/Thread")
	nested, err := thread.MemberScope().ContributedClassifier(ctx, "State", descriptors.NoLocation)
	require.NoError(t, err)
	require.NotNil(t, nested)
	assert.Equal(t, descriptors.ClassKindEnumClass, nested.ClassKind())
	assert.Equal(t, descriptors.ModalityFinal, nested.Modality())

	entries, err := nested.EnumEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []names.Name{"NEW", "RUNNABLE", "BLOCKED", "WAITING", "TIMED_WAITING", "TERMINATED"}, entries)

	values, err := nested.StaticScope().ContributedFunctions(ctx, "values", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "Array<Thread.State>", values[0].ReturnType.String())

	valueOf, err := nested.StaticScope().ContributedFunctions(ctx, "valueOf", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, valueOf, 1)
	require.Len(t, valueOf[0].ValueParameters, 1)

	blocked, err := nested.StaticScope().ContributedVariables(ctx, "BLOCKED", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, blocked, 1)

	ctors, err := nested.Constructors(ctx)
	require.NoError(t, err)
	assert.Empty(t, ctors)
}

func TestLoader_Constructors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ctors, err := f.class(t, "java/lang/Thread").Constructors(ctx)
	require.NoError(t, err)
	require.Len(t, ctors, 2)
	require.Len(t, ctors[1].ValueParameters, 1)
	assert.NotNil(t, types.MustNotBeNull(ctors[1].ValueParameters[0].Type))

	deprecated, err := f.class(t, "java/lang/Integer").Constructors(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, deprecated)
	for _, c := range deprecated {
		ok, err := descriptors.IsDeprecated(ctx, c)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	iface, err := f.class(t, "java/lang/Runnable").Constructors(ctx)
	require.NoError(t, err)
	assert.Empty(t, iface)
}

func TestLoader_Vararg(t *testing.T) {
	f := newFixture(t)
	format := f.statics(t, "java/lang/String", "format")
	require.Len(t, format, 1)
	params := format[0].ValueParameters
	require.Len(t, params, 2)
	assert.Nil(t, params[0].VarargElementType)
	require.NotNil(t, params[1].VarargElementType)
	id, ok := types.ClassIDOf(params[1].Type)
	require.True(t, ok)
	assert.Equal(t, types.ArrayID, id)
}

func TestLoader_JVMDescriptor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	list := f.class(t, "java/util/List").(*LazyPlatformClassDescriptor)

	sort := f.function(t, "java/util/List", "sort")
	desc, ok, err := list.JVMDescriptor(ctx, sort)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sort(Ljava/util/Comparator;)V", desc)

	other := f.function(t, "java/lang/Thread", "run")
	_, ok, err = list.JVMDescriptor(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoader_Packages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	subs, err := f.loader.SubPackagesOf(ctx, "java", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []names.FqName{"java.io", "java.lang", "java.util"}, subs)

	filtered, err := f.loader.SubPackagesOf(ctx, "java", func(n names.Name) bool { return n == "io" })
	require.NoError(t, err)
	assert.Equal(t, []names.FqName{"java.io"}, filtered)

	frags, err := f.loader.PackageFragments(ctx, "java.io")
	require.NoError(t, err)
	require.Len(t, frags, 1)
	classifiers, err := frags[0].MemberScope().ClassifierNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []names.Name{"File", "Serializable"}, classifiers)

	none, err := f.loader.PackageFragments(ctx, "org.nothing")
	require.NoError(t, err)
	assert.Empty(t, none)

	missing, err := f.loader.Class(ctx, names.MustParseClassID("java/lang/Missing"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLoader_MissingReferencedClass(t *testing.T) {
	f := newFixture(t)
	stream := f.function(t, "java/util/Collection", "stream")
	id, ok := types.ClassIDOf(stream.ReturnType)
	require.True(t, ok)
	assert.Equal(t, "java/util/stream/Stream", id.String())
}
