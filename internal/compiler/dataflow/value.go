package dataflow

import (
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// Kind classifies how stable the value behind an expression is.
type Kind int

const (
	// StableValue is a read-only local, parameter or property
	StableValue Kind = iota
	// StableReceiver is an implicit or labelled `this`
	StableReceiver
	// UnstableVariable is a mutable variable that may change between reads
	UnstableVariable
	// Other covers call results and anything else evaluated afresh every time
	Other
)

func (k Kind) String() string {
	switch k {
	case StableValue:
		return "stable"
	case StableReceiver:
		return "receiver"
	case UnstableVariable:
		return "unstable"
	}
	return "other"
}

// Value is the analysis-time key for the value an expression produces.
// Two expressions reading the same stable declaration share an ID.
type Value struct {
	ID   string
	Type types.Type
	Kind Kind
}

// IsStable reports whether facts recorded for v survive between reads.
func (v Value) IsStable() bool {
	return v.Kind == StableValue || v.Kind == StableReceiver
}

// ImmanentNullability is what the static type alone says about v.
func (v Value) ImmanentNullability() Nullability {
	if v.ID == nullID {
		return Null
	}
	if v.Type == nil || types.IsError(v.Type) {
		return Unknown
	}
	declared := types.Unwrap(v.Type)
	if types.AcceptsNullable(declared) {
		return Unknown
	}
	return NotNull
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.ID, v.Kind)
}

const nullID = "null"

// ValueFactory creates values for expressions.
type ValueFactory struct{}

// NewValueFactory returns a factory.
func NewValueFactory() *ValueFactory {
	return &ValueFactory{}
}

// Null is the value of the null constant.
func (f *ValueFactory) Null() Value {
	return Value{ID: nullID, Type: types.Nothing(true), Kind: StableValue}
}

// Create returns the value of expr, whose resolved type is t.
func (f *ValueFactory) Create(expr ast.ExprNode, t types.Type) Value {
	switch e := ast.Deparenthesize(expr).(type) {
	case *ast.NullLiteral:
		return f.Null()
	case *ast.ReferenceExpr:
		kind := StableValue
		if e.Mutable {
			kind = UnstableVariable
		}
		return Value{ID: "ref:" + e.Name, Type: t, Kind: kind}
	case *ast.ThisExpr:
		return f.Receiver(e.Label, t)
	case nil:
		return Value{ID: "<none>", Type: t, Kind: Other}
	default:
		return Value{ID: fmt.Sprintf("expr:%p", e), Type: t, Kind: Other}
	}
}

// Receiver returns the value of an implicit or labelled receiver.
func (f *ValueFactory) Receiver(label string, t types.Type) Value {
	return Value{ID: "this@" + label, Type: t, Kind: StableReceiver}
}
