package deserialization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

var (
	widgetID  = names.MustParseClassID("org/sample/Widget")
	partID    = names.MustParseClassID("org/sample/Widget.Part")
	missingID = names.MustParseClassID("org/sample/Missing")
	brokenID  = names.MustParseClassID("org/sample/Broken")
	colorID   = names.MustParseClassID("org/sample/Color")
	nodeID    = names.MustParseClassID("org/sample/Node")
)

func fixture() *metadata.PackageRecord {
	return &metadata.PackageRecord{
		Package: "org.sample",
		NameTable: []string{
			"org/sample/Widget",                 // 0
			"org/sample/Missing",                // 1
			"render",                            // 2
			"kotlin/String",                     // 3
			"label",                             // 4
			"MAX",                               // 5
			"kotlin/Int",                        // 6
			"Part",                              // 7
			"org/sample/Widget.Part",            // 8
			"T",                                 // 9
			"org/sample/Broken",                 // 10
			"org/sample/Color",                  // 11
			"RED",                               // 12
			"GREEN",                             // 13
			"org/jetbrains/annotations/NotNull", // 14
			"top",                               // 15
			"size",                              // 16
			"org/sample/Node",                   // 17
			"next",                              // 18
		},
		Classes: []metadata.ClassRecord{
			{
				Name:          0,
				Kind:          "class",
				Modality:      "open",
				Supertypes:    []metadata.TypeRecord{*metadata.ClassTypeRecord(1, false)},
				NestedClasses: []int{7},
				Functions: []metadata.FunctionRecord{
					{
						Name:       2,
						ReturnType: metadata.ClassTypeRecord(3, true),
						Parameters: []metadata.ParameterRecord{{
							Name:        4,
							Type:        metadata.ClassTypeRecord(3, false),
							Annotations: []metadata.AnnotationRecord{{Class: 14}},
						}},
					},
					// no return type
					{Name: 2},
				},
				Properties: []metadata.PropertyRecord{{Name: 16, Type: metadata.ClassTypeRecord(6, false)}},
				Constructors: []metadata.ConstructorRecord{{
					Primary:    true,
					Parameters: []metadata.ParameterRecord{{Name: 4, Type: metadata.ClassTypeRecord(3, false), Vararg: true}},
				}},
			},
			{Name: 8, Kind: "class"},
			{Name: 10, Kind: "bogus"},
			{Name: 11, Kind: "enum_class", EnumEntries: []int{12, 13}},
			{
				Name: 17,
				Kind: "class",
				TypeParameters: []metadata.TypeParameterRecord{{
					Name:        9,
					UpperBounds: []metadata.TypeRecord{*metadata.ClassTypeRecord(17, false, metadata.TypeRecord{TypeParameter: metadata.Ref(9)})},
				}},
				Properties: []metadata.PropertyRecord{{
					Name: 18,
					Type: &metadata.TypeRecord{TypeParameter: metadata.Ref(9), Nullable: true},
				}},
			},
		},
		Functions: []metadata.FunctionRecord{{Name: 15, ReturnType: metadata.ClassTypeRecord(0, false)}},
		Properties: []metadata.PropertyRecord{{
			Name:        5,
			Type:        metadata.ClassTypeRecord(6, false),
			Const:       true,
			Initializer: &metadata.ValueRecord{Tag: "I", Int: 42},
		}},
	}
}

func builtinsRecord() *metadata.PackageRecord {
	return &metadata.PackageRecord{
		Package:   "kotlin",
		NameTable: []string{"kotlin/Any", "kotlin/String", "kotlin/Int", "kotlin/Array", "T"},
		Classes: []metadata.ClassRecord{
			{Name: 0, Kind: "class", Modality: "open"},
			{Name: 1, Kind: "class"},
			{Name: 2, Kind: "class"},
			{Name: 3, Kind: "class", TypeParameters: []metadata.TypeParameterRecord{{Name: 4}}},
		},
	}
}

type harness struct {
	components *Components
	module     *descriptors.ModuleDescriptor
	reports    *errors.Collector
	lookups    *descriptors.RecordingTracker
}

func newHarness(t *testing.T, records ...*metadata.PackageRecord) *harness {
	t.Helper()
	if len(records) == 0 {
		records = []*metadata.PackageRecord{fixture()}
	}
	sm := storage.NewManager()
	h := &harness{
		module:  descriptors.NewModule("test", sm),
		reports: errors.NewCollector(),
		lookups: descriptors.NewRecordingTracker(),
	}
	records = append([]*metadata.PackageRecord{builtinsRecord()}, records...)
	h.components = NewComponents(sm, h.module, NewRecordClassDataFinder(records...),
		WithReporter(h.reports), WithLookupTracker(h.lookups))
	return h
}

func (h *harness) class(t *testing.T, id names.ClassID) descriptors.ClassDescriptor {
	t.Helper()
	c, err := h.components.DeserializeClass(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, c, "class %s", id)
	return c
}

func (h *harness) codes() []errors.ErrorCode {
	var out []errors.ErrorCode
	for _, e := range h.reports.Errors() {
		out = append(out, e.Code)
	}
	return out
}

func TestDeserializeClass_MissingSupertypeBecomesPlaceholder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	widget := h.class(t, widgetID)

	supers, err := widget.Supertypes(ctx)
	require.NoError(t, err)
	require.Len(t, supers, 1)
	ctor, ok := types.ConstructorOf(supers[0])
	require.True(t, ok)
	mock, ok := ctor.(descriptors.ClassDescriptor)
	require.True(t, ok)
	assert.True(t, descriptors.IsMissingDependency(mock))
	assert.Equal(t, missingID, mock.ClassID())

	members, err := mock.MemberScope().ContributedDescriptors(ctx, descriptors.FilterAll, descriptors.AllNames)
	require.NoError(t, err)
	assert.Empty(t, members)
	mockSupers, err := mock.Supertypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Any", mockSupers[0].String())

	// a second query hits the memoized supertypes and reports nothing new
	_, err = widget.Supertypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []errors.ErrorCode{errors.ErrMissingDependency}, h.codes())
}

func TestDeserializeClass_SameInstance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.class(t, widgetID)
	second := h.class(t, widgetID)
	assert.Same(t, first, second)

	viaModule, err := h.module.ResolveClass(ctx, widgetID)
	require.NoError(t, err)
	assert.Same(t, first, viaModule)

	absent, err := h.components.DeserializeClass(ctx, names.MustParseClassID("org/sample/Nope"))
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestDeserializeClass_Header(t *testing.T) {
	h := newHarness(t)
	widget := h.class(t, widgetID)

	assert.Equal(t, descriptors.ClassKindClass, widget.ClassKind())
	assert.Equal(t, descriptors.ModalityOpen, widget.Modality())
	assert.Equal(t, descriptors.VisibilityPublic, widget.Visibility())
	assert.Equal(t, "class Widget", widget.(*DeserializedClassDescriptor).String())

	frag, ok := widget.Container().(*DeserializedPackageFragment)
	require.True(t, ok)
	assert.Equal(t, names.FqName("org.sample"), frag.FqName())
	assert.Equal(t, "package org.sample", frag.String())
}

func TestDeserializeClass_MalformedRecordSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		broken, err := h.components.DeserializeClass(ctx, brokenID)
		require.NoError(t, err)
		assert.Nil(t, broken)
	}
	assert.Equal(t, []errors.ErrorCode{errors.ErrMalformedMetadata}, h.codes())

	widget := h.class(t, widgetID)
	fns, err := widget.MemberScope().ContributedFunctions(ctx, "render", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, fns, 1, "the overload without a return type is dropped")
	assert.Equal(t, "fun render(label: String): String?", fns[0].String())

	// the dropped overload is reported once, the function list is memoized
	_, err = widget.MemberScope().ContributedFunctions(ctx, "render", descriptors.NoLocation)
	require.NoError(t, err)
	codes := h.codes()
	assert.Len(t, codes, 2)
	assert.Equal(t, errors.ErrMalformedMetadata, codes[1])
}

func TestDeserializedMembers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	widget := h.class(t, widgetID)
	scope := widget.MemberScope()

	fnNames, err := scope.FunctionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []names.Name{"render"}, fnNames)

	props, err := scope.ContributedVariables(ctx, "size", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "val size: Int", props[0].String())

	fns, err := scope.ContributedFunctions(ctx, "render", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, fns, 1)
	anns, err := fns[0].ValueParameters[0].Annotations(ctx)
	require.NoError(t, err)
	assert.True(t, anns.Has("org.jetbrains.annotations.NotNull"))

	ctors, err := widget.Constructors(ctx)
	require.NoError(t, err)
	require.Len(t, ctors, 1)
	assert.True(t, ctors[0].Primary)
	param := ctors[0].ValueParameters[0]
	require.NotNil(t, param.VarargElementType)
	assert.Equal(t, "String", param.VarargElementType.String())
	assert.Equal(t, "Array<String>", param.Type.String())

	part, err := scope.ContributedClassifier(ctx, "Part", descriptors.NoLocation)
	require.NoError(t, err)
	require.NotNil(t, part)
	assert.Equal(t, partID, part.ClassID())
	assert.Same(t, widget, part.Container())

	none, err := scope.ContributedClassifier(ctx, "Other", descriptors.NoLocation)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDeserializedMembers_LookupTracking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := h.class(t, widgetID).MemberScope()

	_, err := scope.ContributedFunctions(ctx, "render", descriptors.LookupLocation{File: "Use.kt", Line: 3, Column: 5})
	require.NoError(t, err)
	_, err = scope.ContributedFunctions(ctx, "render", descriptors.FromDeserialization)
	require.NoError(t, err)

	lookups := h.lookups.Lookups()
	require.Len(t, lookups, 1)
	assert.Equal(t, names.Name("render"), lookups[0].Name)
	assert.Equal(t, names.FqName("org.sample.Widget"), lookups[0].Scope)
}

func TestDeserializeClass_EnumEntries(t *testing.T) {
	h := newHarness(t)
	color := h.class(t, colorID)
	assert.Equal(t, descriptors.ClassKindEnumClass, color.ClassKind())
	entries, err := color.EnumEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []names.Name{"RED", "GREEN"}, entries)
}

func TestDeserializeClass_SelfReferentialBound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	node := h.class(t, nodeID)

	params := node.TypeParameters()
	require.Len(t, params, 1)
	bounds, err := params[0].UpperBounds(ctx)
	require.NoError(t, err)
	require.Len(t, bounds, 1)
	assert.Equal(t, "Node<T>", bounds[0].String())
	bound, ok := types.ConstructorOf(bounds[0])
	require.True(t, ok)
	assert.Same(t, node, bound)

	props, err := node.MemberScope().ContributedVariables(ctx, "next", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "T?", props[0].Type.String())
	assert.Empty(t, h.reports.Errors())
}

func TestPackageFragment_TopLevelMembers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	frags, err := h.module.PackageFragments(ctx, "org.sample")
	require.NoError(t, err)
	require.Len(t, frags, 1)
	scope := frags[0].MemberScope()

	props, err := scope.ContributedVariables(ctx, "MAX", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, props, 1)
	v, ok, err := props[0].CompileTimeInitializer(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, descriptors.IntValue(42), v)

	fns, err := scope.ContributedFunctions(ctx, "top", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, fns, 1)
	ret, ok := types.ConstructorOf(fns[0].ReturnType)
	require.True(t, ok)
	assert.Same(t, h.class(t, widgetID), ret)

	classNames, err := scope.ClassifierNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []names.Name{"Broken", "Color", "Node", "Widget"}, classNames)

	none, err := h.module.PackageFragments(ctx, "org.other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPackageFragmentProvider_SubPackages(t *testing.T) {
	nested := &metadata.PackageRecord{Package: "org.sample.ui", NameTable: []string{"org/sample/ui/View"},
		Classes: []metadata.ClassRecord{{Name: 0, Kind: "interface"}}}
	h := newHarness(t, fixture(), nested)
	ctx := context.Background()

	subs, err := h.components.PackageFragments.SubPackagesOf(ctx, "org.sample", descriptors.AllNames)
	require.NoError(t, err)
	assert.Equal(t, []names.FqName{"org.sample.ui"}, subs)

	subs, err = h.components.PackageFragments.SubPackagesOf(ctx, "org.sample", func(n names.Name) bool { return n != "ui" })
	require.NoError(t, err)
	assert.Empty(t, subs)

	view := h.class(t, names.MustParseClassID("org/sample/ui/View"))
	assert.Equal(t, descriptors.ClassKindInterface, view.ClassKind())
}

type fixedFactory struct {
	id    names.ClassID
	class descriptors.ClassDescriptor
}

func (f fixedFactory) CreateClass(_ context.Context, id names.ClassID) (descriptors.ClassDescriptor, error) {
	if id == f.id {
		return f.class, nil
	}
	return nil, nil
}

func (f fixedFactory) ContributedClasses(pkg names.FqName) []names.ClassID {
	if pkg == f.id.Package {
		return []names.ClassID{f.id}
	}
	return nil
}

type extraParts struct {
	NoAdditionalParts
	fn *descriptors.FunctionDescriptor
}

func (e extraParts) Functions(_ context.Context, name names.Name, _ descriptors.ClassDescriptor) ([]*descriptors.FunctionDescriptor, error) {
	if name == e.fn.Name() {
		return []*descriptors.FunctionDescriptor{e.fn}, nil
	}
	return nil, nil
}

func (e extraParts) FunctionNames(context.Context, descriptors.ClassDescriptor) ([]names.Name, error) {
	return []names.Name{e.fn.Name()}, nil
}

type hideAll struct{}

func (hideAll) IsFunctionAvailable(context.Context, descriptors.ClassDescriptor, *descriptors.FunctionDescriptor) (bool, error) {
	return false, nil
}

func TestComponents_PlatformHooks(t *testing.T) {
	sm := storage.NewManager()
	module := descriptors.NewModule("test", sm)
	fictitiousID := names.MustParseClassID("kotlin/Cloneable")
	fictitious := descriptors.NewFixedClass(descriptors.ClassHeader{ID: fictitiousID, Kind: descriptors.ClassKindInterface})
	clone := descriptors.NewFunction(nil, "clone")

	c := NewComponents(sm, module, NewRecordClassDataFinder(builtinsRecord(), fixture()),
		WithClassFactories(fixedFactory{id: fictitiousID, class: fictitious}),
		WithAdditionalParts(extraParts{fn: clone}),
		WithPlatformFilter(hideAll{}))
	ctx := context.Background()

	got, err := c.DeserializeClass(ctx, fictitiousID)
	require.NoError(t, err)
	assert.Same(t, fictitious, got)

	viaModule, err := module.ResolveClass(ctx, fictitiousID)
	require.NoError(t, err)
	assert.Same(t, fictitious, viaModule, "factory classes are listed in their package")

	widget, err := c.DeserializeClass(ctx, widgetID)
	require.NoError(t, err)
	fnNames, err := widget.MemberScope().FunctionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []names.Name{"clone", "render"}, fnNames)

	render, err := widget.MemberScope().ContributedFunctions(ctx, "render", descriptors.NoLocation)
	require.NoError(t, err)
	assert.Empty(t, render, "declared functions are filtered by the platform")
	cloned, err := widget.MemberScope().ContributedFunctions(ctx, "clone", descriptors.NoLocation)
	require.NoError(t, err)
	assert.Equal(t, []*descriptors.FunctionDescriptor{clone}, cloned)
}

func TestFlexibleTypes(t *testing.T) {
	lower := types.ClassType(types.StringID, false)
	upper := types.ClassType(types.StringID, true)

	flexible := PlatformFlexibleTypes{}.Create(PlatformTypeID, lower, upper)
	assert.True(t, types.IsFlexible(flexible))
	assert.Equal(t, "String!", flexible.String())

	unknown := PlatformFlexibleTypes{}.Create("kotlin.jvm.Other", lower, upper)
	assert.True(t, types.IsError(unknown))
}

func TestUnknownFlexibleTypeReported(t *testing.T) {
	record := &metadata.PackageRecord{
		Package:   "org.flex",
		NameTable: []string{"kotlin/String", "name"},
		Properties: []metadata.PropertyRecord{{
			Name: 1,
			Type: &metadata.TypeRecord{
				Class:         metadata.Ref(0),
				FlexibleUpper: metadata.ClassTypeRecord(0, true),
				FlexibleID:    "org.flex.Custom",
			},
		}},
	}
	h := newHarness(t, record)
	ctx := context.Background()
	frags, err := h.module.PackageFragments(ctx, "org.flex")
	require.NoError(t, err)
	props, err := frags[0].MemberScope().ContributedVariables(ctx, "name", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.True(t, types.IsError(props[0].Type))
	assert.Contains(t, h.codes(), errors.ErrUnknownFlexibleType)
}

var (
	cycleAID     = names.MustParseClassID("org/cycle/A")
	cycleBID     = names.MustParseClassID("org/cycle/B")
	cycleCID     = names.MustParseClassID("org/cycle/C")
	cycleInnerID = names.MustParseClassID("org/cycle/C.Inner")
	cycleDID     = names.MustParseClassID("org/cycle/D")
	cycleEID     = names.MustParseClassID("org/cycle/E")
)

// cycleFixture declares A<T : B<T>>, B<U : A<U>>, C<T : C.Inner>, D : E and E : D.
func cycleFixture() *metadata.PackageRecord {
	param := func(name int) metadata.TypeRecord { return metadata.TypeRecord{TypeParameter: metadata.Ref(name)} }
	return &metadata.PackageRecord{
		Package: "org.cycle",
		NameTable: []string{
			"org/cycle/A",       // 0
			"org/cycle/B",       // 1
			"T",                 // 2
			"U",                 // 3
			"org/cycle/C",       // 4
			"Inner",             // 5
			"org/cycle/C.Inner", // 6
			"org/cycle/D",       // 7
			"org/cycle/E",       // 8
		},
		Classes: []metadata.ClassRecord{
			{
				Name: 0,
				Kind: "class",
				TypeParameters: []metadata.TypeParameterRecord{{
					Name:        2,
					UpperBounds: []metadata.TypeRecord{*metadata.ClassTypeRecord(1, false, param(2))},
				}},
			},
			{
				Name: 1,
				Kind: "class",
				TypeParameters: []metadata.TypeParameterRecord{{
					Name:        3,
					UpperBounds: []metadata.TypeRecord{*metadata.ClassTypeRecord(0, false, param(3))},
				}},
			},
			{
				Name:          4,
				Kind:          "class",
				NestedClasses: []int{5},
				TypeParameters: []metadata.TypeParameterRecord{{
					Name:        2,
					UpperBounds: []metadata.TypeRecord{*metadata.ClassTypeRecord(6, false)},
				}},
			},
			{Name: 6, Kind: "class"},
			{Name: 7, Kind: "interface", Supertypes: []metadata.TypeRecord{*metadata.ClassTypeRecord(8, false)}},
			{Name: 8, Kind: "interface", Supertypes: []metadata.TypeRecord{*metadata.ClassTypeRecord(7, false)}},
		},
	}
}

func firstBound(t *testing.T, class descriptors.ClassDescriptor) types.Type {
	t.Helper()
	params := class.TypeParameters()
	require.Len(t, params, 1)
	bounds, err := params[0].UpperBounds(context.Background())
	require.NoError(t, err)
	require.Len(t, bounds, 1)
	return bounds[0]
}

func TestDeserializeClass_MutuallyBoundedClasses(t *testing.T) {
	h := newHarness(t, cycleFixture())
	ctx := context.Background()

	a, err := h.module.ResolveClass(ctx, cycleAID)
	require.NoError(t, err)
	require.NotNil(t, a)
	b := h.class(t, cycleBID)

	aBound := firstBound(t, a)
	assert.Equal(t, "B<T>", aBound.String())
	ctor, ok := types.ConstructorOf(aBound)
	require.True(t, ok)
	assert.Same(t, b, ctor)

	bBound := firstBound(t, b)
	assert.Equal(t, "A<U>", bBound.String())
	ctor, ok = types.ConstructorOf(bBound)
	require.True(t, ok)
	assert.Same(t, a, ctor)

	again := h.class(t, cycleAID)
	assert.Same(t, a, again)
	assert.Empty(t, h.reports.Errors())
}

func TestDeserializeClass_BoundOnOwnNestedClass(t *testing.T) {
	h := newHarness(t, cycleFixture())
	c := h.class(t, cycleCID)

	bound := firstBound(t, c)
	ctor, ok := types.ConstructorOf(bound)
	require.True(t, ok)
	inner, ok := ctor.(descriptors.ClassDescriptor)
	require.True(t, ok)
	assert.Equal(t, cycleInnerID, inner.ClassID())
	assert.False(t, descriptors.IsMissingDependency(inner))
	assert.Same(t, c, inner.Container())
}

func TestDeserializeClass_MutuallyRecursiveSupertypes(t *testing.T) {
	h := newHarness(t, cycleFixture())
	ctx := context.Background()
	d := h.class(t, cycleDID)
	e := h.class(t, cycleEID)

	dSupers, err := d.Supertypes(ctx)
	require.NoError(t, err)
	require.Len(t, dSupers, 1)
	ctor, ok := types.ConstructorOf(dSupers[0])
	require.True(t, ok)
	assert.Same(t, e, ctor)

	eSupers, err := e.Supertypes(ctx)
	require.NoError(t, err)
	require.Len(t, eSupers, 1)
	ctor, ok = types.ConstructorOf(eSupers[0])
	require.True(t, ok)
	assert.Same(t, d, ctor)

	visited := 0
	require.NoError(t, descriptors.WalkSupertypes(ctx, d, func(descriptors.ClassDescriptor) (bool, error) {
		visited++
		return true, nil
	}))
	assert.Equal(t, 1, visited, "the walk stops at the cycle")
}

func TestDeserializeClass_MalformedMemberAnnotationIsolated(t *testing.T) {
	record := &metadata.PackageRecord{
		Package: "org.sample",
		NameTable: []string{
			"org/sample/C",                      // 0
			"f",                                 // 1
			"LIMIT",                             // 2
			"kotlin/Int",                        // 3
			"org/jetbrains/annotations/NotNull", // 4
		},
		Classes: []metadata.ClassRecord{{
			Name: 0,
			Kind: "class",
			Functions: []metadata.FunctionRecord{{
				Name:        1,
				ReturnType:  metadata.ClassTypeRecord(3, false),
				Annotations: []metadata.AnnotationRecord{{Class: 99}},
			}},
			Properties: []metadata.PropertyRecord{{
				Name:        2,
				Type:        metadata.ClassTypeRecord(3, false),
				Const:       true,
				Initializer: &metadata.ValueRecord{Tag: "I", Int: 7},
				Annotations: []metadata.AnnotationRecord{{Class: 4}},
			}},
		}},
	}
	h := newHarness(t, record)
	ctx := context.Background()
	class := h.class(t, names.MustParseClassID("org/sample/C"))

	props, err := class.MemberScope().ContributedVariables(ctx, "LIMIT", descriptors.NoLocation)
	require.NoError(t, err)
	require.Len(t, props, 1)
	v, ok, err := props[0].CompileTimeInitializer(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, descriptors.IntValue(7), v)
	anns, err := props[0].Annotations(ctx)
	require.NoError(t, err)
	assert.True(t, anns.Has("org.jetbrains.annotations.NotNull"))
	assert.Equal(t, []errors.ErrorCode{errors.ErrMalformedMetadata}, h.codes())

	fns, err := class.MemberScope().ContributedFunctions(ctx, "f", descriptors.NoLocation)
	require.NoError(t, err)
	assert.Empty(t, fns)
	assert.Len(t, h.codes(), 1, "the malformed function is reported once")
}
