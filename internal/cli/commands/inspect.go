package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/interop/internal/cli/ui"
	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/errors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/resolve"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// memberInfo is one row of the inspect output
type memberInfo struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Origin    string `json:"origin"`
	Static    bool   `json:"static,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
}

// classInfo is the resolved view of one class
type classInfo struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	Modality    string           `json:"modality"`
	Visibility  string           `json:"visibility"`
	Supertypes  []string         `json:"supertypes"`
	EnumEntries []string         `json:"enum_entries,omitempty"`
	Members     []memberInfo     `json:"members"`
	Diagnostics errors.ErrorList `json:"diagnostics,omitempty"`
}

// packageInfo lists the top-level classes of one package
type packageInfo struct {
	Package string   `json:"package"`
	Classes []string `json:"classes"`
}

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var listPackages, preload bool

	cmd := &cobra.Command{
		Use:   "inspect [classId]",
		Short: "Resolve a class and print its members",
		Long: `Resolve a class and print its descriptor tree.

Class ids use slashes between package segments and dots between nested
classes, for example java/lang/Thread.State. The output lists constructors,
member and static functions, properties and the synthetic members offered
on top of platform classes, with nullability as the type checker sees it.`,
		Example: `  # Show a platform class
  interop inspect java/lang/Thread

  # List every package and its classes
  interop inspect --packages

  # Resolve every class up front, then list packages
  interop inspect --packages --preload

  # Output in JSON format for tooling
  interop inspect kotlin/String --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !listPackages && len(args) == 0 {
				return fmt.Errorf("a class id is required unless --packages is set")
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

			if listPackages {
				return runInspectPackages(ctx, cmd.OutOrStdout(), env, session, preload)
			}
			return runInspectClass(ctx, cmd, env, session, args[0])
		},
	}

	cmd.Flags().BoolVar(&listPackages, "packages", false, "List packages and their classes")
	cmd.Flags().BoolVar(&preload, "preload", false, "Resolve every listed class before printing")
	return cmd
}

func runInspectPackages(ctx context.Context, out io.Writer, env *environment, session *resolve.Session, preload bool) error {
	packages, err := listPackageClasses(ctx, session)
	if err != nil {
		return err
	}
	resolved := 0
	if preload {
		if resolved, err = session.Preload(ctx, session.Packages()); err != nil {
			return err
		}
	}

	if env.json() {
		return writeJSON(out, struct {
			Packages  []packageInfo `json:"packages"`
			Preloaded int           `json:"preloaded,omitempty"`
		}{packages, resolved})
	}

	table := ui.NewTable(out, env.noColor, "PACKAGE", "CLASSES")
	for _, p := range packages {
		table.AddRow(p.Package, strings.Join(p.Classes, ", "))
	}
	table.Render()
	if preload {
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.FormatSuccess(fmt.Sprintf("Preloaded %d classes", resolved), env.noColor))
	}
	return nil
}

func listPackageClasses(ctx context.Context, session *resolve.Session) ([]packageInfo, error) {
	var out []packageInfo
	for _, fq := range session.Packages() {
		scopes, err := session.PackageScopes(ctx, fq)
		if err != nil {
			return nil, err
		}
		seen := make(map[names.Name]bool)
		info := packageInfo{Package: fq.String(), Classes: []string{}}
		for _, scope := range scopes {
			classNames, err := scope.ClassifierNames(ctx)
			if err != nil {
				return nil, err
			}
			for _, n := range classNames {
				if !seen[n] {
					seen[n] = true
					info.Classes = append(info.Classes, string(n))
				}
			}
		}
		sort.Strings(info.Classes)
		out = append(out, info)
	}
	return out, nil
}

func runInspectClass(ctx context.Context, cmd *cobra.Command, env *environment, session *resolve.Session, raw string) error {
	id, err := names.ParseClassID(raw)
	if err != nil {
		return err
	}
	class, err := session.ResolveClass(ctx, id)
	if err != nil {
		return err
	}
	if class == nil {
		packages, err := listPackageClasses(ctx, session)
		if err != nil {
			return err
		}
		var candidates []string
		for _, p := range packages {
			for _, c := range p.Classes {
				candidates = append(candidates, names.NewClassID(names.FqName(p.Package), names.FqName(c)).String())
			}
		}
		ui.ClassNotFound(raw, ui.SuggestClasses(raw, candidates), env.noColor).Write(cmd.ErrOrStderr())
		return fmt.Errorf("%w: %s", resolve.ErrClassNotFound, raw)
	}

	info, err := describeClass(ctx, session, id, class)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if env.json() {
		return writeJSON(out, info)
	}
	printClass(out, info, env.noColor)
	return nil
}

func describeClass(ctx context.Context, session *resolve.Session, id names.ClassID, class descriptors.ClassDescriptor) (*classInfo, error) {
	info := &classInfo{
		ID:         id.String(),
		Kind:       class.ClassKind().String(),
		Modality:   class.Modality().String(),
		Visibility: class.Visibility().String(),
		Supertypes: []string{},
		Members:    []memberInfo{},
	}

	supertypes, err := class.Supertypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range supertypes {
		info.Supertypes = append(info.Supertypes, typeString(st))
	}
	entries, err := class.EnumEntries(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		info.EnumEntries = append(info.EnumEntries, string(e))
	}

	ctors, err := class.Constructors(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range ctors {
		info.Members = append(info.Members, memberInfo{
			Kind:      "constructor",
			Name:      string(class.Name()),
			Signature: parameterList(c.ValueParameters),
			Origin:    c.Origin.String(),
		})
	}

	members, err := scopeMembers(ctx, class.MemberScope(), func(name names.Name) ([]*descriptors.FunctionDescriptor, error) {
		return session.Functions(ctx, id, name, descriptors.NoLocation)
	})
	if err != nil {
		return nil, err
	}
	info.Members = append(info.Members, members...)

	statics, err := scopeMembers(ctx, class.StaticScope(), nil)
	if err != nil {
		return nil, err
	}
	info.Members = append(info.Members, statics...)

	synthetic, err := syntheticMembers(ctx, session, id, class)
	if err != nil {
		return nil, err
	}
	info.Members = append(info.Members, synthetic...)

	info.Diagnostics = session.Diagnostics().Sorted()
	return info, nil
}

// scopeMembers lists the functions and properties of scope. functions
// overrides the function lookup when set.
func scopeMembers(ctx context.Context, scope descriptors.MemberScope, functions func(names.Name) ([]*descriptors.FunctionDescriptor, error)) ([]memberInfo, error) {
	if functions == nil {
		functions = func(name names.Name) ([]*descriptors.FunctionDescriptor, error) {
			return scope.ContributedFunctions(ctx, name, descriptors.NoLocation)
		}
	}
	var out []memberInfo

	fnNames, err := scope.FunctionNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedNames(fnNames) {
		fns, err := functions(name)
		if err != nil {
			return nil, err
		}
		for _, fn := range fns {
			out = append(out, functionInfo("function", fn))
		}
	}

	varNames, err := scope.VariableNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedNames(varNames) {
		props, err := scope.ContributedVariables(ctx, name, descriptors.NoLocation)
		if err != nil {
			return nil, err
		}
		for _, p := range props {
			out = append(out, propertyInfo("property", p))
		}
	}
	return out, nil
}

func syntheticMembers(ctx context.Context, session *resolve.Session, id names.ClassID, class descriptors.ClassDescriptor) ([]memberInfo, error) {
	var out []memberInfo
	receiver := []types.Type{descriptors.DefaultType(class)}

	props, err := session.AllSyntheticExtensionProperties(ctx, receiver)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		out = append(out, propertyInfo("synthetic property", p))
	}

	fns, err := session.AllSyntheticMemberFunctions(ctx, receiver)
	if err != nil {
		return nil, err
	}
	for _, fn := range fns {
		out = append(out, functionInfo("synthetic function", fn))
	}

	statics, err := session.AllSyntheticStaticFunctions(ctx, class.StaticScope())
	if err != nil {
		return nil, err
	}
	for _, fn := range statics {
		out = append(out, functionInfo("synthetic function", fn))
	}

	if id.IsNested() {
		return out, nil
	}
	scopes, err := session.PackageScopes(ctx, id.Package)
	if err != nil {
		return nil, err
	}
	for _, scope := range scopes {
		ctors, err := session.SyntheticConstructors(ctx, scope, id.ShortName(), descriptors.NoLocation)
		if err != nil {
			return nil, err
		}
		for _, fn := range ctors {
			out = append(out, functionInfo("synthetic constructor", fn))
		}
	}
	return out, nil
}

func functionInfo(kind string, fn *descriptors.FunctionDescriptor) memberInfo {
	return memberInfo{
		Kind:      kind,
		Name:      string(fn.Name()),
		Signature: parameterList(fn.ValueParameters) + ": " + typeString(fn.ReturnType),
		Origin:    fn.Origin.String(),
		Static:    fn.Static,
		Hidden:    fn.Hidden,
	}
}

func propertyInfo(kind string, p *descriptors.PropertyDescriptor) memberInfo {
	keyword := "val"
	if p.Mutable {
		keyword = "var"
	}
	return memberInfo{
		Kind:      kind,
		Name:      string(p.Name()),
		Signature: keyword + " " + typeString(p.Type),
		Origin:    p.Origin.String(),
		Static:    p.Static,
	}
}

func parameterList(params []*descriptors.ValueParameterDescriptor) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.VarargElementType != nil {
			parts[i] = fmt.Sprintf("vararg %s: %s", p.Name(), typeString(p.VarargElementType))
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", p.Name(), typeString(p.Type))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func typeString(t types.Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func sortedNames(in []names.Name) []names.Name {
	out := append([]names.Name(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func printClass(w io.Writer, info *classInfo, noColor bool) {
	ui.Header(w, info.ID, noColor)
	fmt.Fprintf(w, "%s, %s, %s\n", info.Kind, info.Modality, info.Visibility)
	fmt.Fprintf(w, "supertypes: %s\n", strings.Join(info.Supertypes, ", "))
	if len(info.EnumEntries) > 0 {
		fmt.Fprintf(w, "entries: %s\n", strings.Join(info.EnumEntries, ", "))
	}
	fmt.Fprintln(w)

	table := ui.NewTable(w, noColor, "KIND", "NAME", "SIGNATURE", "ORIGIN")
	for _, m := range info.Members {
		kind := m.Kind
		if m.Static {
			kind = "static " + kind
		}
		origin := m.Origin
		if m.Hidden {
			origin += " (hidden)"
		}
		table.AddRow(kind, m.Name, m.Signature, origin)
	}
	table.Render()

	if len(info.Diagnostics) > 0 {
		fmt.Fprintln(w)
		for _, d := range info.Diagnostics {
			fmt.Fprintln(w, errors.FormatCompact(d))
		}
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
