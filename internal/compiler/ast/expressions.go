package ast

// Operators recognised by the nullability checker.
const (
	OpNotNullAssert = "!!"
	OpEquals        = "=="
	OpNotEquals     = "!="
	OpIdentity      = "==="
	OpNotIdentity   = "!=="
)

// IsEqualityOperator reports whether op compares two operands for (in)equality.
func IsEqualityOperator(op string) bool {
	switch op {
	case OpEquals, OpNotEquals, OpIdentity, OpNotIdentity:
		return true
	}
	return false
}

// NullLiteral is the `null` keyword
type NullLiteral struct {
	Loc SourceLocation
}

func (n *NullLiteral) node()     {}
func (n *NullLiteral) exprNode() {}

func (n *NullLiteral) Location() SourceLocation {
	return n.Loc
}

// ConstantExpr represents a literal other than null (string, number, bool)
type ConstantExpr struct {
	Value interface{}
	Loc   SourceLocation
}

func (c *ConstantExpr) node()     {}
func (c *ConstantExpr) exprNode() {}

func (c *ConstantExpr) Location() SourceLocation {
	return c.Loc
}

// ReferenceExpr refers to a named value: a local, a parameter or a property.
// Mutable marks `var` locals and properties whose value may change between reads.
type ReferenceExpr struct {
	Name    string
	Mutable bool
	Loc     SourceLocation
}

func (r *ReferenceExpr) node()     {}
func (r *ReferenceExpr) exprNode() {}

func (r *ReferenceExpr) Location() SourceLocation {
	return r.Loc
}

// ThisExpr is the implicit or explicit dispatch receiver
type ThisExpr struct {
	Label string
	Loc   SourceLocation
}

func (t *ThisExpr) node()     {}
func (t *ThisExpr) exprNode() {}

func (t *ThisExpr) Location() SourceLocation {
	return t.Loc
}

// CallExpr represents a member call or property access, `recv.f(args)` or `recv?.f(args)`.
// Receiver is nil for calls on an implicit receiver. OperationLoc points at the
// `.`/`?.` token and is nil when the call has no explicit operation node.
type CallExpr struct {
	Receiver     ExprNode
	Safe         bool
	Callee       string
	CalleeLoc    SourceLocation
	OperationLoc *SourceLocation
	Arguments    []ExprNode
	Loc          SourceLocation
}

func (c *CallExpr) node()     {}
func (c *CallExpr) exprNode() {}

func (c *CallExpr) Location() SourceLocation {
	return c.Loc
}

// PostfixExpr represents a postfix operation such as `x!!`
type PostfixExpr struct {
	Operand  ExprNode
	Operator string
	Loc      SourceLocation
}

func (p *PostfixExpr) node()     {}
func (p *PostfixExpr) exprNode() {}

func (p *PostfixExpr) Location() SourceLocation {
	return p.Loc
}

// BinaryExpr represents a binary operation (a == b, a !== b, etc.)
type BinaryExpr struct {
	Left     ExprNode
	Operator string
	Right    ExprNode
	Loc      SourceLocation
}

func (b *BinaryExpr) node()     {}
func (b *BinaryExpr) exprNode() {}

func (b *BinaryExpr) Location() SourceLocation {
	return b.Loc
}

// ParenExpr is a parenthesized expression
type ParenExpr struct {
	Inner ExprNode
	Loc   SourceLocation
}

func (p *ParenExpr) node()     {}
func (p *ParenExpr) exprNode() {}

func (p *ParenExpr) Location() SourceLocation {
	return p.Loc
}

// WhenCondition is one condition of a when branch. Exactly one of EnumEntry
// and IsNull is set for the conditions the checker understands; anything else
// is recorded as an opaque Expr.
type WhenCondition struct {
	EnumEntry string
	IsNull    bool
	Expr      ExprNode
}

// WhenBranch is a `cond1, cond2 -> body` arm
type WhenBranch struct {
	Conditions []WhenCondition
	Body       ExprNode
}

// WhenExpr represents a `when (subject) { ... }` expression
type WhenExpr struct {
	Subject  ExprNode
	Branches []WhenBranch
	HasElse  bool
	Loc      SourceLocation
}

func (w *WhenExpr) node()     {}
func (w *WhenExpr) exprNode() {}

func (w *WhenExpr) Location() SourceLocation {
	return w.Loc
}

// HasNullCase reports whether any branch matches `null` explicitly.
func (w *WhenExpr) HasNullCase() bool {
	for _, b := range w.Branches {
		for _, c := range b.Conditions {
			if c.IsNull {
				return true
			}
		}
	}
	return false
}

// CoveredEntries returns the enum entry names matched by the branches.
func (w *WhenExpr) CoveredEntries() map[string]bool {
	covered := make(map[string]bool)
	for _, b := range w.Branches {
		for _, c := range b.Conditions {
			if c.EnumEntry != "" {
				covered[c.EnumEntry] = true
			}
		}
	}
	return covered
}
