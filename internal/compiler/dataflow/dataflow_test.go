package dataflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

var (
	str         = types.ClassType(types.StringID, false)
	nullableStr = types.ClassType(types.StringID, true)
	platformStr = types.PlatformType(str)
	values      = NewValueFactory()
)

func TestNullability_Lattice(t *testing.T) {
	tests := []struct {
		a, b         Nullability
		meet, refine Nullability
	}{
		{NotNull, Null, Unknown, Impossible},
		{NotNull, Unknown, Unknown, NotNull},
		{Null, Unknown, Unknown, Null},
		{NotNull, Impossible, NotNull, Impossible},
		{Unknown, Unknown, Unknown, Unknown},
		{Impossible, Impossible, Impossible, Impossible},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.meet, tt.a.Meet(tt.b))
			assert.Equal(t, tt.meet, tt.b.Meet(tt.a))
			assert.Equal(t, tt.refine, tt.a.Refine(tt.b))
			assert.Equal(t, tt.refine, tt.b.Refine(tt.a))
		})
	}

	assert.True(t, Unknown.CanBeNull())
	assert.True(t, Unknown.CanBeNonNull())
	assert.False(t, NotNull.CanBeNull())
	assert.False(t, Null.CanBeNonNull())
	assert.False(t, Impossible.CanBeNull())
	assert.False(t, Impossible.CanBeNonNull())
}

func TestValueFactory(t *testing.T) {
	a := values.Create(&ast.ReferenceExpr{Name: "x"}, str)
	b := values.Create(&ast.ParenExpr{Inner: &ast.ReferenceExpr{Name: "x"}}, str)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, StableValue, a.Kind)

	v := values.Create(&ast.ReferenceExpr{Name: "x", Mutable: true}, str)
	assert.Equal(t, UnstableVariable, v.Kind)
	assert.False(t, v.IsStable())

	this := values.Create(&ast.ThisExpr{}, str)
	assert.Equal(t, StableReceiver, this.Kind)
	assert.True(t, this.IsStable())

	call1 := values.Create(&ast.CallExpr{Callee: "f"}, str)
	call2 := values.Create(&ast.CallExpr{Callee: "f"}, str)
	assert.Equal(t, Other, call1.Kind)
	assert.NotEqual(t, call1.ID, call2.ID)

	assert.Equal(t, values.Null(), values.Create(&ast.NullLiteral{}, nil))
	assert.Equal(t, Null, values.Null().ImmanentNullability())
}

func TestValue_ImmanentNullability(t *testing.T) {
	assert.Equal(t, NotNull, Value{Type: str}.ImmanentNullability())
	assert.Equal(t, Unknown, Value{Type: nullableStr}.ImmanentNullability())
	assert.Equal(t, Unknown, Value{Type: platformStr}.ImmanentNullability())
	assert.Equal(t, Unknown, Value{}.ImmanentNullability())
	// an enhancement does not change what the declared type admits
	enhanced := types.NewEnhancedType(platformStr, str)
	assert.Equal(t, Unknown, Value{Type: enhanced}.ImmanentNullability())
}

func TestInfo_StableNullability(t *testing.T) {
	x := values.Create(&ast.ReferenceExpr{Name: "x"}, platformStr)
	assert.Equal(t, Unknown, Empty.StableNullability(x))

	info := Empty.With(x, NotNull)
	assert.Equal(t, NotNull, info.StableNullability(x))
	assert.Equal(t, Unknown, Empty.StableNullability(x), "snapshots are immutable")

	var nilInfo *Info
	assert.Equal(t, Unknown, nilInfo.StableNullability(x))
	assert.Equal(t, NotNull, nilInfo.With(x, NotNull).StableNullability(x))

	// facts about mutable variables are never trusted
	y := values.Create(&ast.ReferenceExpr{Name: "y", Mutable: true}, platformStr)
	assert.Equal(t, Unknown, info.With(y, NotNull).StableNullability(y))
}

func TestInfo_Disequate(t *testing.T) {
	x := values.Create(&ast.ReferenceExpr{Name: "x"}, platformStr)
	info := Empty.Disequate(x, values.Null())
	assert.Equal(t, NotNull, info.StableNullability(x))

	// x != y with nothing known about either records nothing
	y := values.Create(&ast.ReferenceExpr{Name: "y"}, platformStr)
	assert.Same(t, Empty, Empty.Disequate(x, y))

	isNull := Empty.Equate(x, values.Null())
	assert.Equal(t, Null, isNull.StableNullability(x))
	assert.Equal(t, Impossible, isNull.Disequate(x, values.Null()).StableNullability(x))
}

func TestInfo_Compaction(t *testing.T) {
	info := Empty
	var vals []Value
	for i := 0; i < 3*compactDepth; i++ {
		v := values.Create(&ast.ReferenceExpr{Name: fmt.Sprintf("v%d", i)}, platformStr)
		vals = append(vals, v)
		info = info.With(v, NotNull)
		assert.Less(t, info.chainDepth(), compactDepth)
	}
	assert.Equal(t, len(vals), info.Len())
	for _, v := range vals {
		assert.Equal(t, NotNull, info.StableNullability(v))
	}

	overridden := info.With(vals[0], Null)
	assert.Equal(t, Null, overridden.StableNullability(vals[0]))
	assert.Equal(t, NotNull, info.StableNullability(vals[0]))
}

func TestMerge(t *testing.T) {
	x := values.Create(&ast.ReferenceExpr{Name: "x"}, platformStr)
	y := values.Create(&ast.ReferenceExpr{Name: "y"}, platformStr)
	s := values.Create(&ast.ReferenceExpr{Name: "s"}, str)

	left := Empty.With(x, NotNull).With(y, NotNull).With(s, Null)
	right := Empty.With(x, NotNull).With(y, Null)

	merged := Merge(left, right)
	assert.Equal(t, NotNull, merged.StableNullability(x))
	assert.Equal(t, Unknown, merged.StableNullability(y))
	// s is not-null by type on the right path
	assert.Equal(t, Unknown, merged.StableNullability(s))
	assert.Equal(t, "{ref:s=unknown, ref:x=not-null}", merged.String())

	assert.Equal(t, 0, Merge(nil, Empty).Len())
}
