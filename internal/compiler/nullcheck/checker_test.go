package nullcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/dataflow"
	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

var (
	str         = types.ClassType(types.StringID, false)
	nullableStr = types.ClassType(types.StringID, true)
	// String! as returned by an unannotated platform method
	platformStr = types.PlatformType(str)
	// String! annotated @NotNull
	notNullStr = types.NewEnhancedType(platformStr, str)
)

func loc(line, column int) ast.SourceLocation {
	return ast.SourceLocation{File: "Main.kt", Line: line, Column: column}
}

func newChecker(t *testing.T, classes ClassResolver) (*Checker, *errors.Collector) {
	t.Helper()
	sink := errors.NewCollector()
	return NewChecker(sink, classes), sink
}

func typesOf(known map[ast.ExprNode]types.Type) TypeOf {
	return func(e ast.ExprNode) types.Type { return known[e] }
}

func codes(list errors.ErrorList) []errors.ErrorCode {
	out := make([]errors.ErrorCode, 0, len(list))
	for _, e := range list {
		out = append(out, e.Code)
	}
	return out
}

func TestCheckReceiver_PlatformReceiverWithoutCheck(t *testing.T) {
	c, sink := newChecker(t, nil)
	s := &ast.ReferenceExpr{Name: "s", Loc: loc(3, 5)}
	call := &ast.CallExpr{Receiver: s, Callee: "length", CalleeLoc: loc(3, 7), Loc: loc(3, 5)}

	err := c.CheckReceiver(context.Background(), ResolutionContext{DataFlow: dataflow.Empty},
		str, Receiver{Expr: s, Type: platformStr}, false, call)
	require.NoError(t, err)

	reported := sink.Errors()
	require.Len(t, reported, 1)
	assert.Equal(t, errors.ErrReceiverNullabilityMismatch, reported[0].Code)
	assert.Equal(t, errors.SeverityWarning, reported[0].Severity)
	assert.Equal(t, "String?", reported[0].Actual)
	assert.Equal(t, loc(3, 5), reported[0].Location)
}

func TestCheckReceiver_ImplicitReceiver(t *testing.T) {
	c, sink := newChecker(t, nil)
	call := &ast.CallExpr{Callee: "length", CalleeLoc: loc(4, 1), Loc: loc(4, 1)}

	require.NoError(t, c.CheckReceiver(context.Background(), ResolutionContext{},
		str, Receiver{Type: platformStr}, false, call))

	reported := sink.Errors()
	require.Len(t, reported, 1)
	assert.Equal(t, errors.ErrNullabilityMismatch, reported[0].Code)
	assert.Equal(t, "String", reported[0].Expected)
	assert.Equal(t, "String?", reported[0].Actual)
	assert.Equal(t, loc(4, 1), reported[0].Location)
}

func TestCheckReceiver_NativeTypesLeftToTypeChecker(t *testing.T) {
	c, sink := newChecker(t, nil)
	s := &ast.ReferenceExpr{Name: "s"}
	require.NoError(t, c.CheckReceiver(context.Background(), ResolutionContext{},
		str, Receiver{Expr: s, Type: nullableStr}, false, &ast.CallExpr{Receiver: s}))
	assert.Zero(t, sink.Len())
}

func TestCheckReceiver_UnnecessarySafeCall(t *testing.T) {
	x := &ast.ReferenceExpr{Name: "x", Loc: loc(7, 1)}
	op := loc(7, 2)
	call := &ast.CallExpr{Receiver: x, Safe: true, Callee: "foo", OperationLoc: &op, Loc: loc(7, 1)}

	tests := []struct {
		name     string
		receiver types.Type
		info     *dataflow.Info
		call     *ast.CallExpr
		want     int
	}{
		{"platform not-null", notNullStr, dataflow.Empty, call, 1},
		{"flexible receiver", platformStr, dataflow.Empty, call, 0},
		{"native not-null", str, dataflow.Empty, call, 0},
		{"no operation node", notNullStr, dataflow.Empty, &ast.CallExpr{Receiver: x, Safe: true}, 0},
		{"proven by dataflow", notNullStr, dataflow.Empty.Disequate(dataflow.NewValueFactory().Create(x, notNullStr), dataflow.NewValueFactory().Null()), call, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sink := newChecker(t, nil)
			require.NoError(t, c.CheckReceiver(context.Background(), ResolutionContext{DataFlow: tt.info},
				nil, Receiver{Expr: x, Type: tt.receiver}, true, tt.call))
			reported := sink.Errors().WithCode(errors.ErrUnnecessarySafeCall)
			require.Len(t, reported, tt.want)
			assert.Equal(t, tt.want, sink.Len())
			if tt.want > 0 {
				assert.Equal(t, op, reported[0].Location)
				assert.Equal(t, "String", reported[0].Actual)
			}
		})
	}
}

func TestCheckType_DataflowResolvesAmbiguity(t *testing.T) {
	ctx := context.Background()
	x := &ast.ReferenceExpr{Name: "x", Loc: loc(10, 9)}
	c, sink := newChecker(t, nil)
	value := c.Values.Create(x, platformStr)

	// if (x != null) foo(x)
	guarded := ResolutionContext{ExpectedType: notNullStr, DataFlow: dataflow.Empty.Disequate(value, c.Values.Null())}
	require.NoError(t, c.CheckType(ctx, guarded, x, platformStr))
	assert.Zero(t, sink.Len())

	unguarded := ResolutionContext{ExpectedType: notNullStr, DataFlow: dataflow.Empty}
	require.NoError(t, c.CheckType(ctx, unguarded, x, platformStr))
	reported := sink.Errors()
	require.Len(t, reported, 1)
	assert.Equal(t, errors.ErrNullabilityMismatch, reported[0].Code)
	assert.Equal(t, "Type mismatch: inferred type is String? but String was expected", reported[0].Message)
	assert.Equal(t, loc(10, 9), reported[0].Location)
}

func TestCheckType_Expectations(t *testing.T) {
	x := &ast.ReferenceExpr{Name: "x"}
	tests := []struct {
		name     string
		expected types.Type
		actual   types.Type
		want     int
	}{
		{"flexible into native not-null", str, platformStr, 1},
		{"nullable into platform not-null", notNullStr, nullableStr, 1},
		{"both native", str, nullableStr, 0},
		{"no expected type", types.NoExpectedType, platformStr, 0},
		{"nil expected type", nil, platformStr, 0},
		{"expected admits null", nullableStr, platformStr, 0},
		{"actual not-null", notNullStr, str, 0},
		{"platform not-null actual", str, notNullStr, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sink := newChecker(t, nil)
			require.NoError(t, c.CheckType(context.Background(),
				ResolutionContext{ExpectedType: tt.expected}, x, tt.actual))
			assert.Len(t, sink.Errors().WithCode(errors.ErrNullabilityMismatch), tt.want)
			assert.False(t, sink.Errors().HasErrors())
		})
	}
}

func TestCheckType_NilExpression(t *testing.T) {
	c, sink := newChecker(t, nil)
	require.NoError(t, c.CheckType(context.Background(),
		ResolutionContext{ExpectedType: str}, nil, platformStr))
	mismatches := sink.Errors().WithCode(errors.ErrNullabilityMismatch)
	require.Len(t, mismatches, 1)
	assert.False(t, mismatches[0].Location.IsValid())
}

func TestCheckType_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, sink := newChecker(t, nil)
	err := c.CheckType(ctx, ResolutionContext{ExpectedType: str}, &ast.ReferenceExpr{Name: "x"}, platformStr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sink.Len())
}

func TestCheckType_UnnecessaryNotNullAssertion(t *testing.T) {
	x := &ast.ReferenceExpr{Name: "x"}
	assertion := &ast.PostfixExpr{Operand: x, Operator: ast.OpNotNullAssert, Loc: loc(2, 2)}

	c, sink := newChecker(t, nil)
	rc := ResolutionContext{TypeOf: typesOf(map[ast.ExprNode]types.Type{x: notNullStr})}
	require.NoError(t, c.CheckType(context.Background(), rc, assertion, str))
	reported := sink.Errors().WithCode(errors.ErrUnnecessaryNotNullAssertion)
	require.Len(t, reported, 1)
	assert.Equal(t, loc(2, 2), reported[0].Location)

	c, sink = newChecker(t, nil)
	rc = ResolutionContext{TypeOf: typesOf(map[ast.ExprNode]types.Type{x: platformStr})}
	require.NoError(t, c.CheckType(context.Background(), rc, assertion, str))
	assert.Zero(t, sink.Len())
}

func TestCheckType_SenselessComparison(t *testing.T) {
	x := &ast.ReferenceExpr{Name: "x"}
	tests := []struct {
		name    string
		expr    *ast.BinaryExpr
		xType   types.Type
		message string
	}{
		{"equals", &ast.BinaryExpr{Left: x, Operator: ast.OpEquals, Right: &ast.NullLiteral{}}, notNullStr,
			"Condition 'x == null' is always 'false'"},
		{"not equals reversed", &ast.BinaryExpr{Left: &ast.NullLiteral{}, Operator: ast.OpNotEquals, Right: x}, notNullStr,
			"Condition 'null != x' is always 'true'"},
		{"flexible", &ast.BinaryExpr{Left: x, Operator: ast.OpEquals, Right: &ast.NullLiteral{}}, platformStr, ""},
		{"no null operand", &ast.BinaryExpr{Left: x, Operator: ast.OpEquals, Right: &ast.ReferenceExpr{Name: "y"}}, notNullStr, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sink := newChecker(t, nil)
			rc := ResolutionContext{TypeOf: typesOf(map[ast.ExprNode]types.Type{x: tt.xType})}
			require.NoError(t, c.CheckType(context.Background(), rc, tt.expr, types.ClassType(names.MustParseClassID("kotlin/Boolean"), false)))
			reported := sink.Errors().WithCode(errors.ErrSenselessComparison)
			if tt.message == "" {
				assert.Empty(t, reported)
				return
			}
			require.Len(t, reported, 1)
			assert.Equal(t, tt.message, reported[0].Message)
		})
	}
}

func TestSenselessComparisonChecker(t *testing.T) {
	sink := errors.NewCollector()
	cc := &SenselessComparisonChecker{Sink: sink}
	x := &ast.ReferenceExpr{Name: "x"}
	typeOf := typesOf(map[ast.ExprNode]types.Type{x: nullableStr})
	expr := &ast.BinaryExpr{Left: x, Operator: ast.OpIdentity, Right: &ast.NullLiteral{}}

	cc.CheckWithNull(expr, typeOf, func(ast.ExprNode, types.Type) dataflow.Nullability { return dataflow.Null })
	cc.CheckWithNull(expr, typeOf, func(ast.ExprNode, types.Type) dataflow.Nullability { return dataflow.Impossible })
	cc.CheckWithNull(expr, typeOf, func(ast.ExprNode, types.Type) dataflow.Nullability { return dataflow.Unknown })

	reported := sink.Errors()
	require.Len(t, reported, 2)
	assert.Equal(t, "Condition 'x === null' is always 'true'", reported[0].Message)
	assert.Equal(t, "Condition 'x === null' is always 'false'", reported[1].Message)
}

const colorClasses = `
classes:
  - name: org/sample/Color
    kind: enum
    enum_entries: [RED, GREEN]
`

// colorModule loads a platform enum Color with entries RED and GREEN.
func colorModule(t *testing.T) (*descriptors.ModuleDescriptor, descriptors.ClassDescriptor) {
	t.Helper()
	decoded, err := interop.DecodePlatformClasses([]byte(colorClasses))
	require.NoError(t, err)
	index, err := interop.NewPlatformClasses(decoded...)
	require.NoError(t, err)

	sm := storage.NewManager()
	module := descriptors.NewModule("test", sm)
	interop.NewLoader(sm, module, index)
	color, err := module.ResolveClass(context.Background(), names.MustParseClassID("org/sample/Color"))
	require.NoError(t, err)
	require.NotNil(t, color)
	return module, color
}

func TestCheckType_WhenEnumCanBeNull(t *testing.T) {
	module, color := colorModule(t)
	subject := &ast.ReferenceExpr{Name: "c", Loc: loc(5, 11)}
	colorType := types.PlatformType(descriptors.DefaultType(color))
	byID := types.PlatformType(types.ClassType(names.MustParseClassID("org/sample/Color"), false))

	branch := func(entries ...string) ast.WhenBranch {
		var conds []ast.WhenCondition
		for _, e := range entries {
			conds = append(conds, ast.WhenCondition{EnumEntry: e})
		}
		return ast.WhenBranch{Conditions: conds, Body: &ast.ConstantExpr{Value: 1}}
	}
	exhaustive := &ast.WhenExpr{Subject: subject, Branches: []ast.WhenBranch{branch("RED"), branch("GREEN")}, Loc: loc(5, 5)}
	proven := dataflow.Empty.With(dataflow.NewValueFactory().Create(subject, colorType), dataflow.NotNull)

	tests := []struct {
		name        string
		when        *ast.WhenExpr
		subjectType types.Type
		info        *dataflow.Info
		want        int
	}{
		{"exhaustive platform enum", exhaustive, colorType, dataflow.Empty, 1},
		{"resolved by class id", exhaustive, byID, dataflow.Empty, 1},
		{"null branch", &ast.WhenExpr{Subject: subject, Branches: []ast.WhenBranch{
			branch("RED", "GREEN"), {Conditions: []ast.WhenCondition{{IsNull: true}}}}}, colorType, dataflow.Empty, 0},
		{"else branch", &ast.WhenExpr{Subject: subject, Branches: []ast.WhenBranch{branch("RED")}, HasElse: true}, colorType, dataflow.Empty, 0},
		{"missing entry", &ast.WhenExpr{Subject: subject, Branches: []ast.WhenBranch{branch("RED")}}, colorType, dataflow.Empty, 0},
		{"native subject", exhaustive, descriptors.DefaultType(color), dataflow.Empty, 0},
		{"proven not-null", exhaustive, colorType, proven, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sink := newChecker(t, module)
			rc := ResolutionContext{DataFlow: tt.info, TypeOf: typesOf(map[ast.ExprNode]types.Type{subject: tt.subjectType})}
			require.NoError(t, c.CheckType(context.Background(), rc, tt.when, types.ClassType(names.MustParseClassID("kotlin/Int"), false)))
			reported := sink.Errors()
			assert.Equal(t, tt.want, len(reported), "%v", codes(reported))
			if tt.want > 0 {
				assert.Equal(t, errors.ErrWhenEnumCanBeNull, reported[0].Code)
				assert.Equal(t, loc(5, 11), reported[0].Location)
			}
		})
	}
}

func TestRender(t *testing.T) {
	x := &ast.ReferenceExpr{Name: "x"}
	call := &ast.CallExpr{Receiver: &ast.ParenExpr{Inner: x}, Safe: true, Callee: "f",
		Arguments: []ast.ExprNode{&ast.ConstantExpr{Value: "a"}, &ast.ConstantExpr{Value: 2}}}
	assert.Equal(t, `(x)?.f("a", 2)`, Render(call))
	assert.Equal(t, "this@outer!!", Render(&ast.PostfixExpr{Operand: &ast.ThisExpr{Label: "outer"}, Operator: "!!"}))
}
