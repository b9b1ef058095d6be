package nullcheck

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/dataflow"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// TypeOf returns the resolved type of a sub-expression, or nil if unknown.
type TypeOf func(ast.ExprNode) types.Type

// NullabilityProbe answers what is known about the value of expr.
type NullabilityProbe func(expr ast.ExprNode, t types.Type) dataflow.Nullability

// ComparisonChecker checks comparisons against null whose result is fixed.
type ComparisonChecker interface {
	CheckWithNull(expr *ast.BinaryExpr, typeOf TypeOf, probe NullabilityProbe)
}

// SenselessComparisonChecker reports `x == null` style comparisons whose
// outcome the probe already knows.
type SenselessComparisonChecker struct {
	Sink errors.Reporter
}

// CheckWithNull reports NUL106 when one operand is the null constant and
// the probe pins the other operand.
func (c *SenselessComparisonChecker) CheckWithNull(expr *ast.BinaryExpr, typeOf TypeOf, probe NullabilityProbe) {
	if !ast.IsEqualityOperator(expr.Operator) {
		return
	}
	var other ast.ExprNode
	switch {
	case isNullConstant(expr.Left):
		other = expr.Right
	case isNullConstant(expr.Right):
		other = expr.Left
	default:
		return
	}
	t := typeOf(other)
	if t == nil || types.IsError(t) {
		return
	}

	equality := expr.Operator == ast.OpEquals || expr.Operator == ast.OpIdentity
	var always bool
	switch probe(other, t) {
	case dataflow.Null:
		always = equality
	case dataflow.NotNull:
		always = !equality
	case dataflow.Impossible:
		always = false
	default:
		return
	}
	c.Sink.Report(errors.NewSenselessComparison(expr.Loc, Render(expr), always))
}

func isNullConstant(expr ast.ExprNode) bool {
	_, ok := ast.Deparenthesize(expr).(*ast.NullLiteral)
	return ok
}

// Render prints an expression the way diagnostics quote it.
func Render(expr ast.ExprNode) string {
	switch e := expr.(type) {
	case nil:
		return ""
	case *ast.NullLiteral:
		return "null"
	case *ast.ConstantExpr:
		if s, ok := e.Value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(e.Value)
	case *ast.ReferenceExpr:
		return e.Name
	case *ast.ThisExpr:
		if e.Label != "" {
			return "this@" + e.Label
		}
		return "this"
	case *ast.ParenExpr:
		return "(" + Render(e.Inner) + ")"
	case *ast.PostfixExpr:
		return Render(e.Operand) + e.Operator
	case *ast.BinaryExpr:
		return Render(e.Left) + " " + e.Operator + " " + Render(e.Right)
	case *ast.CallExpr:
		var b strings.Builder
		if e.Receiver != nil {
			b.WriteString(Render(e.Receiver))
			if e.Safe {
				b.WriteString("?.")
			} else {
				b.WriteString(".")
			}
		}
		b.WriteString(e.Callee)
		b.WriteString("(")
		for i, arg := range e.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Render(arg))
		}
		b.WriteString(")")
		return b.String()
	case *ast.WhenExpr:
		return "when (" + Render(e.Subject) + ") { ... }"
	}
	return fmt.Sprintf("%T", expr)
}
