// Package ast defines the expression handles the nullability checker consumes.
// The parser that produces them is a collaborator; nodes here carry only what
// resolution and dataflow need: locations, operators and sub-expressions.
package ast

import "fmt"

// SourceLocation tracks the position of an AST node in source code
type SourceLocation struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`   // Line number (1-indexed)
	Column int    `json:"column"` // Column number (1-indexed)
}

// IsValid reports whether the location points into a source file.
func (l SourceLocation) IsValid() bool {
	return l.Line > 0
}

func (l SourceLocation) String() string {
	file := l.File
	if file == "" {
		file = "<source>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Node is the base interface for all AST nodes
type Node interface {
	Location() SourceLocation
	node()
}

// ExprNode is the interface for all expression nodes
type ExprNode interface {
	Node
	exprNode()
}

// Walk calls visit for expr and every sub-expression in depth-first order.
// Returning false from visit skips the children of that node.
func Walk(expr ExprNode, visit func(ExprNode) bool) {
	if expr == nil || !visit(expr) {
		return
	}
	switch e := expr.(type) {
	case *CallExpr:
		Walk(e.Receiver, visit)
		for _, arg := range e.Arguments {
			Walk(arg, visit)
		}
	case *PostfixExpr:
		Walk(e.Operand, visit)
	case *BinaryExpr:
		Walk(e.Left, visit)
		Walk(e.Right, visit)
	case *WhenExpr:
		Walk(e.Subject, visit)
		for _, branch := range e.Branches {
			Walk(branch.Body, visit)
		}
	case *ParenExpr:
		Walk(e.Inner, visit)
	}
}

// Deparenthesize strips any number of enclosing parentheses.
func Deparenthesize(expr ExprNode) ExprNode {
	for {
		p, ok := expr.(*ParenExpr)
		if !ok {
			return expr
		}
		expr = p.Inner
	}
}
