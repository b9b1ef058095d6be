// Package nullcheck reports nullability warnings that follow from platform
// annotations. It runs next to the primary type checker: a mismatch the
// native type system already rejects is left to that checker, and every
// diagnostic produced here is a warning.
package nullcheck

import (
	"context"

	"go.uber.org/zap"

	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/dataflow"
	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// ClassResolver finds class descriptors by id.
type ClassResolver interface {
	ResolveClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error)
}

// ResolutionContext is what the type checker knows at the expression being checked.
type ResolutionContext struct {
	// ExpectedType is the type the expression flows into; nil or
	// types.NoExpectedType places no constraint.
	ExpectedType types.Type
	// DataFlow holds the facts established on the current path.
	DataFlow *dataflow.Info
	// TypeOf resolves sub-expressions for the structural checks.
	TypeOf TypeOf
}

func (rc ResolutionContext) typeOf(expr ast.ExprNode) types.Type {
	if rc.TypeOf == nil || expr == nil {
		return nil
	}
	return rc.TypeOf(expr)
}

// Receiver is the receiver argument of a call. Expr is nil for implicit receivers.
type Receiver struct {
	Expr  ast.ExprNode
	Label string
	Type  types.Type
}

// Checker is the nullability checker.
type Checker struct {
	Sink       errors.Reporter
	Values     *dataflow.ValueFactory
	Comparison ComparisonChecker
	Classes    ClassResolver
	Logger     *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Checker) { c.Logger = logger }
}

// WithComparisonChecker replaces the senseless comparison checker.
func WithComparisonChecker(cc ComparisonChecker) Option {
	return func(c *Checker) { c.Comparison = cc }
}

// NewChecker returns a checker reporting to sink. classes is used to look up
// enum entries for `when` subjects and may be nil.
func NewChecker(sink errors.Reporter, classes ClassResolver, opts ...Option) *Checker {
	c := &Checker{
		Sink:    sink,
		Values:  dataflow.NewValueFactory(),
		Classes: classes,
		Logger:  zap.NewNop(),
	}
	c.Comparison = &SenselessComparisonChecker{Sink: c}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report forwards to the sink.
func (c *Checker) Report(err *errors.CompilerError) {
	if c.Logger != nil {
		c.Logger.Debug("nullability warning",
			zap.String("code", string(err.Code)),
			zap.Stringer("location", err.Location))
	}
	if c.Sink != nil {
		c.Sink.Report(err)
	}
}

// locationOf is the position of expr, or the zero location for nil.
func locationOf(expr ast.ExprNode) ast.SourceLocation {
	if expr == nil {
		return ast.SourceLocation{}
	}
	return expr.Location()
}

func (c *Checker) values() *dataflow.ValueFactory {
	if c.Values == nil {
		return dataflow.NewValueFactory()
	}
	return c.Values
}

// CheckType checks expr, whose resolved type is exprType, against the
// expected type of rc, then runs the structural checks for `when`, `!!` and
// comparisons with null. A nil expr is checked as a value without a source
// position.
func (c *Checker) CheckType(ctx context.Context, rc ResolutionContext, expr ast.ExprNode, exprType types.Type) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value := c.values().Create(expr, exprType)
	c.checkType(rc.ExpectedType, exprType, value, rc.DataFlow, func(expected, actual types.Type) {
		c.Report(errors.NewNullabilityMismatch(locationOf(expr), expected.String(), actual.String()))
	})

	switch e := expr.(type) {
	case *ast.WhenExpr:
		return c.checkWhen(ctx, rc, e)
	case *ast.PostfixExpr:
		if e.Operator != ast.OpNotNullAssert {
			return nil
		}
		operandType := rc.typeOf(e.Operand)
		if operandType == nil {
			return nil
		}
		if c.notNullOnlyByPlatform(operandType, c.values().Create(e.Operand, operandType), rc.DataFlow) {
			c.Report(errors.NewUnnecessaryNotNullAssertion(e.Loc, operandType.String()))
		}
	case *ast.BinaryExpr:
		if !ast.IsEqualityOperator(e.Operator) || c.Comparison == nil {
			return nil
		}
		c.Comparison.CheckWithNull(e, rc.typeOf, func(operand ast.ExprNode, t types.Type) dataflow.Nullability {
			if c.notNullOnlyByPlatform(t, c.values().Create(operand, t), rc.DataFlow) {
				return dataflow.NotNull
			}
			return dataflow.Unknown
		})
	}
	return nil
}

// CheckReceiver checks the receiver of call against the receiver parameter
// type of the selected member.
func (c *Checker) CheckReceiver(ctx context.Context, rc ResolutionContext, param types.Type, receiver Receiver, safeAccess bool, call *ast.CallExpr) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var value dataflow.Value
	if receiver.Expr != nil {
		value = c.values().Create(receiver.Expr, receiver.Type)
	} else {
		value = c.values().Receiver(receiver.Label, receiver.Type)
	}

	if safeAccess {
		if call == nil || call.OperationLoc == nil {
			return nil
		}
		if c.notNullOnlyByPlatform(receiver.Type, value, rc.DataFlow) {
			c.Report(errors.NewUnnecessarySafeCall(*call.OperationLoc, receiver.Type.String()))
		}
		return nil
	}

	c.checkType(param, receiver.Type, value, rc.DataFlow, func(expected, actual types.Type) {
		switch {
		case receiver.Expr != nil:
			c.Report(errors.NewReceiverNullabilityMismatch(receiver.Expr.Location(), actual.String()))
		case call != nil:
			loc := call.CalleeLoc
			if !loc.IsValid() {
				loc = call.Loc
			}
			c.Report(errors.NewNullabilityMismatch(loc, expected.String(), actual.String()))
		}
	})
	return nil
}

// checkType calls mismatch when expected forbids null, actual admits it, at
// least one side knows this only from the platform, and the dataflow does
// not prove the value not-null.
func (c *Checker) checkType(expected, actual types.Type, value dataflow.Value, info *dataflow.Info, mismatch func(expected, actual types.Type)) {
	if types.IsNoExpectedType(expected) || actual == nil {
		return
	}
	mustNotBeNull := types.MustNotBeNull(expected)
	mayBeNull := types.MayBeNull(actual)
	if mustNotBeNull == nil || mayBeNull == nil {
		return
	}
	if mustNotBeNull.IsFromSource() && mayBeNull.IsFromSource() {
		return
	}
	if info.StableNullability(value) != dataflow.NotNull {
		mismatch(mustNotBeNull.Type, mayBeNull.Type)
	}
}

// notNullOnlyByPlatform reports whether t is not-null because of a platform
// annotation while the dataflow has not proven it on its own.
func (c *Checker) notNullOnlyByPlatform(t types.Type, value dataflow.Value, info *dataflow.Info) bool {
	return types.MustNotBeNull(t).IsFromPlatform() && info.StableNullability(value).CanBeNull()
}

func (c *Checker) checkWhen(ctx context.Context, rc ResolutionContext, when *ast.WhenExpr) error {
	if when.HasElse || when.Subject == nil || when.HasNullCase() {
		return nil
	}
	subjectType := rc.typeOf(when.Subject)
	if subjectType == nil {
		return nil
	}
	declared := types.Unwrap(subjectType)
	if !types.IsFlexible(declared) || !types.AcceptsNullable(types.UpperBound(declared)) {
		return nil
	}
	entries, ok, err := c.enumEntries(ctx, subjectType)
	if err != nil || !ok {
		return err
	}
	covered := when.CoveredEntries()
	for _, entry := range entries {
		if !covered[string(entry)] {
			return nil
		}
	}

	value := c.values().Create(when.Subject, subjectType)
	if !rc.DataFlow.StableNullability(value).CanBeNull() {
		return nil
	}
	c.Report(errors.NewWhenEnumCanBeNull(when.Subject.Location(), subjectType.String()))
	return nil
}

func (c *Checker) enumEntries(ctx context.Context, t types.Type) ([]names.Name, bool, error) {
	ctor, ok := types.ConstructorOf(t)
	if !ok {
		return nil, false, nil
	}
	class, ok := ctor.(descriptors.ClassDescriptor)
	if !ok {
		id, isClass := types.ClassIDOf(t)
		if !isClass || c.Classes == nil {
			return nil, false, nil
		}
		resolved, err := c.Classes.ResolveClass(ctx, id)
		if err != nil || resolved == nil {
			return nil, false, err
		}
		class = resolved
	}
	if class.ClassKind() != descriptors.ClassKindEnumClass {
		return nil, false, nil
	}
	entries, err := class.EnumEntries(ctx)
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}
