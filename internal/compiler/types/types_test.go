package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/names"
)

var listID = names.MustParseClassID("kotlin/collections/List")

func TestSimpleType_String(t *testing.T) {
	tests := []struct {
		name     string
		typ      Type
		expected string
	}{
		{"not null", ClassType(StringID, false), "String"},
		{"nullable", ClassType(StringID, true), "String?"},
		{"generic", ClassType(listID, false, ClassType(StringID, true)), "List<String?>"},
		{"platform", PlatformType(ClassType(StringID, false)), "String!"},
		{"dynamic", Dynamic, "dynamic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.typ.String())
		})
	}
}

func TestSimpleType_Equals(t *testing.T) {
	a := ClassType(listID, false, ClassType(StringID, false))
	b := ClassType(listID, false, ClassType(StringID, false))
	c := ClassType(listID, false, ClassType(StringID, true))

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(a.MakeNullable()))
	assert.True(t, a.MakeNullable().MakeNotNullable().Equals(a))
}

func TestNewFlexibleType(t *testing.T) {
	s := ClassType(StringID, false)

	same, err := NewFlexibleType(s, ClassType(StringID, false))
	require.NoError(t, err)
	assert.IsType(t, &SimpleType{}, same, "equal bounds degenerate to a simple type")

	flex, err := NewFlexibleType(s, ClassType(StringID, true))
	require.NoError(t, err)
	assert.True(t, IsFlexible(flex))
	assert.False(t, flex.IsMarkedNullable())

	_, err = NewFlexibleType(ClassType(StringID, true), s)
	assert.True(t, errors.Is(err, ErrInvalidBounds))
}

func TestFlexibleType_NullabilityChanges(t *testing.T) {
	flex := PlatformType(ClassType(StringID, false))

	nullable := flex.MakeNullable()
	assert.True(t, nullable.Equals(ClassType(StringID, true)))

	notNull := flex.MakeNotNullable()
	assert.True(t, notNull.Equals(ClassType(StringID, false)))
}

func TestDynamicType_NullabilityIsNoOp(t *testing.T) {
	assert.Same(t, Dynamic, Dynamic.MakeNullable())
	assert.Same(t, Dynamic, Dynamic.MakeNotNullable())
	assert.True(t, AcceptsNullable(Dynamic))
	assert.Equal(t, "Nothing", LowerBound(Dynamic).String())
	assert.Equal(t, "Any?", UpperBound(Dynamic).String())
}

func TestNoExpectedType(t *testing.T) {
	assert.True(t, IsNoExpectedType(NoExpectedType))
	assert.True(t, IsNoExpectedType(nil))
	assert.False(t, IsNoExpectedType(Any(true)))
}

func TestClassIDOf(t *testing.T) {
	id, ok := ClassIDOf(PlatformType(ClassType(listID, false)))
	require.True(t, ok)
	assert.Equal(t, listID, id)

	_, ok = ClassIDOf(NewSimpleType(ParameterRef{Owner: "f", Name: "T"}, false))
	assert.False(t, ok)
}

func TestMustNotBeNull(t *testing.T) {
	str := ClassType(StringID, false)
	flex := PlatformType(str)

	tests := []struct {
		name       string
		typ        Type
		expectNil  bool
		provenance Provenance
	}{
		{"source not-null", str, false, FromSource},
		{"source nullable", str.MakeNullable(), true, 0},
		{"platform flexible", flex, true, 0},
		{"flexible with not-null upper", &FlexibleType{Lower: ClassType(NothingID, false), Upper: str}, false, FromSource},
		{"enhanced not-null", NewEnhancedType(flex, str), false, FromPlatform},
		{"enhanced nullable", NewEnhancedType(flex, str.MakeNullable()), true, 0},
		{"error type", NewErrorType("unresolved"), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := MustNotBeNull(tt.typ)
			if tt.expectNil {
				assert.Nil(t, info)
				return
			}
			require.NotNil(t, info)
			assert.Equal(t, tt.provenance, info.Provenance)
		})
	}
}

func TestMayBeNull(t *testing.T) {
	str := ClassType(StringID, false)
	flex := PlatformType(str)

	info := MayBeNull(str.MakeNullable())
	require.NotNil(t, info)
	assert.True(t, info.IsFromSource())

	info = MayBeNull(flex)
	require.NotNil(t, info)
	assert.True(t, info.IsFromPlatform())
	assert.Equal(t, "String?", info.Type.String())

	info = MayBeNull(NewEnhancedType(flex, str.MakeNullable()))
	require.NotNil(t, info)
	assert.True(t, info.IsFromPlatform())

	assert.Nil(t, MayBeNull(str))
	assert.Nil(t, MayBeNull(NewEnhancedType(flex, str)))
}

func TestEnhancedType_Delegation(t *testing.T) {
	str := ClassType(StringID, false)
	e := NewEnhancedType(PlatformType(str), str)

	assert.Equal(t, "String", e.String())
	assert.False(t, e.IsMarkedNullable())
	assert.False(t, AcceptsNullable(e))
	assert.True(t, e.MakeNullable().Equals(str.MakeNullable()))
	assert.Equal(t, "source", FromSource.String())
	assert.Equal(t, "platform", FromPlatform.String())
}

func TestSubstitute(t *testing.T) {
	e := ParameterRef{Owner: "java/util/List", Name: "E"}
	k := ParameterRef{Owner: "kotlin/collections/List", Name: "E"}
	subst := Substitution{e.Key(): NewSimpleType(k, false)}

	list := ClassType(listID, false, NewSimpleType(e, true))
	assert.Equal(t, "List<E?>", Substitute(list, subst).String())
	assert.True(t, Substitute(list, subst).Equals(ClassType(listID, false, NewSimpleType(k, true))))

	flexible := PlatformType(NewSimpleType(e, false))
	got := Substitute(flexible, subst)
	require.IsType(t, &FlexibleType{}, got)
	assert.Equal(t, k.Key(), got.(*FlexibleType).Lower.Constructor.Key())

	same := Any(false)
	assert.Same(t, same, Substitute(same, subst))
	assert.Same(t, same, Substitute(same, nil))
}
