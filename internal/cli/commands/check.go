package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/interop/internal/cli/ui"
	"github.com/conduit-lang/interop/internal/compiler/ast"
	"github.com/conduit-lang/interop/internal/compiler/dataflow"
	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/nullcheck"
	"github.com/conduit-lang/interop/internal/compiler/resolve"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

var booleanID = names.MustParseClassID("kotlin/Boolean")

// Scenario is a list of expressions whose types come from resolved
// declarations, checked the way the type checker would check them.
type Scenario struct {
	File   string          `yaml:"file"`
	Checks []ScenarioCheck `yaml:"checks"`
}

// ScenarioCheck is one expression of a scenario.
//
// Kinds:
//
//	receiver  expr.call() or expr?.call() with Safe
//	assign    a value of type Actual flowing into Expected
//	assert    expr!!
//	compare   expr == null (Operator selects ==, !=, === or !==)
//	when      when (expr) { Cases... } over an enum subject
type ScenarioCheck struct {
	Name     string    `yaml:"name"`
	Kind     string    `yaml:"kind"`
	Expr     string    `yaml:"expr"`
	Mutable  bool      `yaml:"mutable"`
	Line     int       `yaml:"line"`
	Column   int       `yaml:"column"`
	Actual   TypeSpec  `yaml:"actual"`
	Expected *TypeSpec `yaml:"expected"`
	Safe     bool      `yaml:"safe"`
	Callee   string    `yaml:"callee"`
	Operator string    `yaml:"operator"`
	Cases    []string  `yaml:"cases"`
	NullCase bool      `yaml:"null_case"`
	Else     bool      `yaml:"else"`
	// Proven is what the dataflow established for expr: not-null or null.
	Proven string `yaml:"proven"`
}

// TypeSpec names a type. With Function set the type is the return type of
// that function of Class, found among members first and statics second.
type TypeSpec struct {
	Class    string `yaml:"class"`
	Function string `yaml:"function"`
	Nullable bool   `yaml:"nullable"`
	Platform bool   `yaml:"platform"`
}

// DecodeScenario parses a scenario document.
func DecodeScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	for i, c := range sc.Checks {
		if c.Actual.Class == "" {
			return nil, fmt.Errorf("check %d: actual.class is required", i+1)
		}
	}
	return &sc, nil
}

// checkResult is the JSON output of the check command
type checkResult struct {
	File        string           `json:"file"`
	Checks      int              `json:"checks"`
	Diagnostics errors.ErrorList `json:"diagnostics"`
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <scenario.yml>",
		Short: "Run the nullability checker over a scenario",
		Long: `Run the nullability checker over a scenario of expressions.

Each check names the declarations its types come from, so the checker sees
the same enhanced and flexible types a real compilation would. Diagnostics
are warnings; --strict turns any warning into a failing exit status.`,
		Example: `  # Check a scenario
  interop check scenario.yml

  # Fail when any warning is reported
  interop check scenario.yml --strict

  # Output in JSON format for tooling
  interop check scenario.yml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read scenario: %w", err)
			}
			sc, err := DecodeScenario(data)
			if err != nil {
				return err
			}
			if sc.File == "" {
				sc.File = args[0]
			}

			env, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer env.logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			session, _, err := env.openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			diagnostics, err := RunScenario(ctx, session, sc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if env.json() {
				if err := writeJSON(out, checkResult{File: sc.File, Checks: len(sc.Checks), Diagnostics: diagnostics}); err != nil {
					return err
				}
			} else if len(diagnostics) == 0 {
				fmt.Fprintln(out, ui.FormatSuccess(fmt.Sprintf("No nullability warnings in %d checks", len(sc.Checks)), env.noColor))
			} else {
				fmt.Fprintln(out, errors.FormatErrorList(diagnostics))
			}

			if strict && len(diagnostics) > 0 {
				return fmt.Errorf("%d nullability warning(s)", len(diagnostics))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when warnings are reported")
	return cmd
}

// RunScenario checks every expression of sc and returns the nullability
// diagnostics, sorted by position.
func RunScenario(ctx context.Context, session *resolve.Session, sc *Scenario) (errors.ErrorList, error) {
	for i, c := range sc.Checks {
		if err := runCheck(ctx, session, sc.File, c); err != nil {
			name := c.Name
			if name == "" {
				name = fmt.Sprintf("check %d", i+1)
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	var out errors.ErrorList
	for _, d := range session.Diagnostics() {
		if d.Category != errors.CategoryNullability {
			continue
		}
		if d.File == "" {
			d.File = d.Location.File
		}
		out = append(out, d)
	}
	return out.Sorted(), nil
}

func runCheck(ctx context.Context, session *resolve.Session, file string, c ScenarioCheck) error {
	checker := session.Checker()
	actual, err := resolveTypeSpec(ctx, session, c.Actual)
	if err != nil {
		return err
	}

	exprName := c.Expr
	if exprName == "" {
		exprName = "it"
	}
	loc := ast.SourceLocation{File: file, Line: c.Line, Column: c.Column}
	ref := &ast.ReferenceExpr{Name: exprName, Mutable: c.Mutable, Loc: loc}

	info := dataflow.Empty
	switch c.Proven {
	case "":
	case "not-null":
		info = info.With(checker.Values.Create(ref, actual), dataflow.NotNull)
	case "null":
		info = info.With(checker.Values.Create(ref, actual), dataflow.Null)
	default:
		return fmt.Errorf("proven must be not-null or null, got: %s", c.Proven)
	}
	rc := nullcheck.ResolutionContext{
		DataFlow: info,
		TypeOf: func(e ast.ExprNode) types.Type {
			if e == ast.ExprNode(ref) {
				return actual
			}
			return nil
		},
	}

	switch c.Kind {
	case "receiver":
		expected := types.Type(types.Any(false))
		if c.Expected != nil {
			if expected, err = resolveTypeSpec(ctx, session, *c.Expected); err != nil {
				return err
			}
		}
		callee := c.Callee
		if callee == "" {
			callee = "call"
		}
		call := &ast.CallExpr{Receiver: ref, Safe: c.Safe, Callee: callee, Loc: loc}
		if c.Safe {
			op := loc
			op.Column += len(exprName)
			call.OperationLoc = &op
		}
		return checker.CheckReceiver(ctx, rc, expected, nullcheck.Receiver{Expr: ref, Type: actual}, c.Safe, call)

	case "assign":
		if c.Expected == nil {
			return fmt.Errorf("assign requires expected")
		}
		if rc.ExpectedType, err = resolveTypeSpec(ctx, session, *c.Expected); err != nil {
			return err
		}
		return checker.CheckType(ctx, rc, ref, actual)

	case "assert":
		expr := &ast.PostfixExpr{Operand: ref, Operator: ast.OpNotNullAssert, Loc: loc}
		return checker.CheckType(ctx, rc, expr, actual)

	case "compare":
		op := c.Operator
		if op == "" {
			op = ast.OpEquals
		}
		if !ast.IsEqualityOperator(op) {
			return fmt.Errorf("unsupported comparison operator: %s", op)
		}
		expr := &ast.BinaryExpr{Left: ref, Operator: op, Right: &ast.NullLiteral{Loc: loc}, Loc: loc}
		return checker.CheckType(ctx, rc, expr, types.ClassType(booleanID, false))

	case "when":
		expr := &ast.WhenExpr{Subject: ref, HasElse: c.Else, Loc: loc}
		for _, entry := range c.Cases {
			expr.Branches = append(expr.Branches, ast.WhenBranch{
				Conditions: []ast.WhenCondition{{EnumEntry: entry}},
			})
		}
		if c.NullCase {
			expr.Branches = append(expr.Branches, ast.WhenBranch{
				Conditions: []ast.WhenCondition{{IsNull: true}},
			})
		}
		return checker.CheckType(ctx, rc, expr, nil)
	}
	return fmt.Errorf("unknown check kind %q (want %s)", c.Kind,
		strings.Join([]string{"receiver", "assign", "assert", "compare", "when"}, ", "))
}

func resolveTypeSpec(ctx context.Context, session *resolve.Session, spec TypeSpec) (types.Type, error) {
	id, err := names.ParseClassID(spec.Class)
	if err != nil {
		return nil, err
	}
	if spec.Function == "" {
		t := types.ClassType(id, spec.Nullable)
		if spec.Platform {
			return types.PlatformType(t), nil
		}
		return t, nil
	}

	class, err := session.ResolveClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, fmt.Errorf("%w: %s", resolve.ErrClassNotFound, id)
	}
	name := names.Name(spec.Function)
	for _, scope := range []descriptors.MemberScope{class.MemberScope(), class.StaticScope()} {
		fns, err := scope.ContributedFunctions(ctx, name, descriptors.NoLocation)
		if err != nil {
			return nil, err
		}
		for _, fn := range fns {
			if !fn.Hidden {
				return fn.ReturnType, nil
			}
		}
	}
	return nil, fmt.Errorf("%s has no function %s", id, name)
}
