package interop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/names"
)

func TestDecodePlatformClasses(t *testing.T) {
	classes, err := DecodePlatformClasses([]byte(`
classes:
  - name: org/sample/Box
    type_parameters:
      - {name: T}
    methods:
      - name: get
        return: {parameter: T, annotations: [org.jetbrains.annotations.Nullable]}
      - name: put
        parameters:
          - {name: items, type: {element: {parameter: T}}, vararg: true}
        return: {class: void}
`))
	require.NoError(t, err)
	require.Len(t, classes, 1)

	box := classes[0]
	id, err := box.ClassID()
	require.NoError(t, err)
	assert.Equal(t, names.MustParseClassID("org/sample/Box"), id)
	assert.Equal(t, "org/sample/Box", box.InternalName())
	require.Len(t, box.Methods, 2)
	assert.Equal(t, "T[]", box.Methods[1].Parameters[0].Type.String())
	assert.True(t, box.Methods[1].Return.IsVoid())
}

func TestDecodePlatformClasses_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "classes:\n  - name: a/B\n    methodz: []\n"},
		{"unknown kind", "classes:\n  - name: a/B\n    kind: struct\n"},
		{"enum entries on class", "classes:\n  - name: a/B\n    enum_entries: [X]\n"},
		{"void parameter", "classes:\n  - name: a/B\n    methods:\n      - name: m\n        parameters:\n          - {name: p, type: {class: void}}\n"},
		{"two type shapes", "classes:\n  - name: a/B\n    fields:\n      - {name: f, type: {class: int, parameter: T}}\n"},
		{"vararg not last", "classes:\n  - name: a/B\n    methods:\n      - name: m\n        parameters:\n          - {name: a, type: {element: {class: int}}, vararg: true}\n          - {name: b, type: {class: int}}\n"},
		{"primitive supertype", "classes:\n  - name: a/B\n    supertypes: [{class: int}]\n"},
		{"bad modality", "classes:\n  - name: a/B\n    modality: sealed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePlatformClasses([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrMalformedPlatformClass)
		})
	}
}

func TestIsPlatformFile(t *testing.T) {
	assert.True(t, IsPlatformFile("lib/java.util.platform.yml"))
	assert.True(t, IsPlatformFile("x.platform.yaml"))
	assert.False(t, IsPlatformFile("kotlin.yml"))
}

func TestNewPlatformClasses_Duplicate(t *testing.T) {
	a := &PlatformClass{Name: "a/B"}
	_, err := NewPlatformClasses(a, &PlatformClass{Name: "a/B"})
	assert.ErrorIs(t, err, ErrMalformedPlatformClass)
}

func TestPlatformClasses_IsSubclassOf(t *testing.T) {
	classes, err := NewPlatformClasses(
		&PlatformClass{Name: "a/Base", Supertypes: []PlatformType{{Class: "a/Marker"}}},
		&PlatformClass{Name: "a/Child", Supertypes: []PlatformType{{Class: "a/Base"}}},
		&PlatformClass{Name: "a/Loop", Supertypes: []PlatformType{{Class: "a/Loop"}}},
	)
	require.NoError(t, err)
	marker := names.MustParseClassID("a/Marker")
	assert.True(t, classes.IsSubclassOf(names.MustParseClassID("a/Child"), marker))
	assert.False(t, classes.IsSubclassOf(names.MustParseClassID("a/Loop"), marker))
	assert.Equal(t, []names.FqName{"a"}, classes.Packages())
}

func TestDefaultClassMap(t *testing.T) {
	m := DefaultClassMap()
	list := names.MustParseClassID("java/util/List")
	readOnly := names.MustParseClassID("kotlin/collections/List")
	mutable := names.MustParseClassID("kotlin/collections/MutableList")

	native, ok := m.MapPlatformToNative(list)
	require.True(t, ok)
	assert.Equal(t, readOnly, native)
	assert.Equal(t, []names.ClassID{readOnly, mutable}, m.MapPlatformClass(list))

	for _, id := range []names.ClassID{readOnly, mutable} {
		platform, ok := m.MapNativeToPlatform(id)
		require.True(t, ok)
		assert.Equal(t, list, platform)
	}
	assert.True(t, m.IsMutable(mutable))
	assert.True(t, m.IsReadOnly(readOnly))
	assert.False(t, m.IsMutable(readOnly))

	entry, ok := m.MapNativeToPlatform(names.MustParseClassID("kotlin/collections/MutableMap.MutableEntry"))
	require.True(t, ok)
	assert.Equal(t, "java/util/Map$Entry", entry.InternalName())

	integer, ok := m.MapPlatformToNative(names.MustParseClassID("java/lang/Integer"))
	require.True(t, ok)
	assert.Equal(t, "kotlin/Int", integer.String())
	assert.Equal(t, []names.ClassID{names.MustParseClassID("kotlin/String")},
		m.MapPlatformClass(names.MustParseClassID("java/lang/String")))
}

func TestMethodDescriptor(t *testing.T) {
	class := &PlatformClass{
		Name: "java/lang/Enum",
		TypeParameters: []PlatformTypeParameter{{
			Name:   "E",
			Bounds: []PlatformType{{Class: "java/lang/Enum", Arguments: []PlatformType{{Parameter: "E"}}}},
		}},
	}
	tests := []struct {
		method PlatformMethod
		want   string
	}{
		{PlatformMethod{Name: "compareTo", Parameters: []PlatformParameter{{Type: PlatformType{Parameter: "E"}}}, Return: &PlatformType{Class: "int"}},
			"compareTo(Ljava/lang/Enum;)I"},
		{PlatformMethod{Name: "run"}, "run()V"},
		{PlatformMethod{
			Name:           "pick",
			TypeParameters: []PlatformTypeParameter{{Name: "T"}},
			Parameters:     []PlatformParameter{{Type: PlatformType{Element: &PlatformType{Parameter: "T"}}, Vararg: true}},
			Return:         &PlatformType{Parameter: "T"},
		}, "pick([Ljava/lang/Object;)Ljava/lang/Object;"},
		{PlatformMethod{
			Name:       "getChars",
			Parameters: []PlatformParameter{{Type: PlatformType{Class: "int"}}, {Type: PlatformType{Element: &PlatformType{Class: "char"}}}},
			Return:     &PlatformType{Class: "void"},
		}, "getChars(I[C)V"},
		{PlatformMethod{Name: "entry", Return: &PlatformType{Class: "java/util/Map.Entry"}}, "entry()Ljava/util/Map$Entry;"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, MethodDescriptor(class, &tt.method))
		})
	}

	ctor := &PlatformConstructor{Parameters: []PlatformParameter{{Type: PlatformType{Class: "java/lang/String"}}}}
	assert.Equal(t, "<init>(Ljava/lang/String;)V", PlatformConstructorDescriptor(class, ctor))
	assert.Equal(t, "java/lang/Enum.name()Ljava/lang/String;",
		ClassSignature(names.MustParseClassID("java/lang/Enum"), "name()Ljava/lang/String;"))
}

func TestListedStatus(t *testing.T) {
	tests := []struct {
		signature string
		status    MemberStatus
		listed    bool
	}{
		{"java/lang/String.trim()Ljava/lang/String;", StatusSuppress, true},
		{"java/util/List.sort(Ljava/util/Comparator;)V", StatusSuppress, true},
		{"java/lang/Throwable.printStackTrace()V", StatusAllow, true},
		{"java/util/Map.getOrDefault(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;", StatusAllow, true},
		{"java/util/Collection.toArray()[Ljava/lang/Object;", StatusDrop, true},
		{"java/lang/String.repeat(I)Ljava/lang/String;", StatusNotConsidered, false},
	}
	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			status, listed := ListedStatus(tt.signature)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.listed, listed)
		})
	}
	assert.Equal(t, "suppress", StatusSuppress.String())
	assert.True(t, IsMutableSignature("java/util/Collection.removeIf(Ljava/util/function/Predicate;)Z"))
	assert.False(t, IsMutableSignature("java/util/Collection.stream()Ljava/util/stream/Stream;"))
}

func TestReadNullability(t *testing.T) {
	assert.Equal(t, NullabilityUnknown, ReadNullability(nil))
	assert.Equal(t, NullabilityNotNull, ReadNullability([]string{"org.jetbrains.annotations.NotNull"}))
	assert.Equal(t, NullabilityNullable, ReadNullability(nil, []string{"javax.annotation.CheckForNull"}))
	assert.Equal(t, NullabilityUnknown, ReadNullability(
		[]string{"androidx.annotation.NonNull"}, []string{"androidx.annotation.Nullable"}))
	assert.Equal(t, NullabilityUnknown, ReadNullability([]string{"com.example.Whatever"}))
}
