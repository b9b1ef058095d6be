// Package names defines the identifiers used to address declarations in the
// descriptor graph: simple names, fully qualified names and class ids.
package names

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidClassID is returned when a class id string cannot be parsed.
var ErrInvalidClassID = errors.New("invalid class id")

// Name is a simple, non-qualified identifier.
type Name string

// Special names shared by several packages.
const (
	RootName        Name = "<root>"
	ConstructorName Name = "<init>"
	DefaultArgument Name = "value"
)

// String returns the identifier text.
func (n Name) String() string {
	return string(n)
}

// FqName is a dot-separated fully qualified name. The empty FqName is the root package.
type FqName string

// Root is the root package name.
const Root FqName = ""

// NewFqName joins segments into a fully qualified name.
func NewFqName(segments ...string) FqName {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return FqName(strings.Join(parts, "."))
}

// IsRoot reports whether this is the root package.
func (f FqName) IsRoot() bool {
	return f == Root
}

// Child appends a name segment.
func (f FqName) Child(name Name) FqName {
	if f.IsRoot() {
		return FqName(name)
	}
	return FqName(string(f) + "." + string(name))
}

// Parent drops the last segment.
func (f FqName) Parent() FqName {
	idx := strings.LastIndexByte(string(f), '.')
	if idx < 0 {
		return Root
	}
	return f[:idx]
}

// ShortName returns the last segment.
func (f FqName) ShortName() Name {
	idx := strings.LastIndexByte(string(f), '.')
	return Name(f[idx+1:])
}

// Segments splits the name on dots.
func (f FqName) Segments() []Name {
	if f.IsRoot() {
		return nil
	}
	parts := strings.Split(string(f), ".")
	out := make([]Name, len(parts))
	for i, p := range parts {
		out[i] = Name(p)
	}
	return out
}

// StartsWith reports whether other is a segment-aligned prefix of f.
func (f FqName) StartsWith(other FqName) bool {
	if other.IsRoot() {
		return true
	}
	return f == other || strings.HasPrefix(string(f), string(other)+".")
}

func (f FqName) String() string {
	if f.IsRoot() {
		return string(RootName)
	}
	return string(f)
}

// ClassID identifies a class by its package and its (possibly nested) relative name.
type ClassID struct {
	Package  FqName
	Relative FqName
	Local    bool
}

// TopLevel creates a class id for a class declared directly in a package.
func TopLevel(fq FqName) ClassID {
	return ClassID{Package: fq.Parent(), Relative: FqName(fq.ShortName())}
}

// NewClassID creates a class id from a package and a relative class name.
func NewClassID(pkg FqName, relative FqName) ClassID {
	return ClassID{Package: pkg, Relative: relative}
}

// ParseClassID parses the "pkg/path/Outer.Inner" form produced by String.
func ParseClassID(s string) (ClassID, error) {
	if s == "" {
		return ClassID{}, fmt.Errorf("%w: empty string", ErrInvalidClassID)
	}
	pkgPart, rel := "", s
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		pkgPart, rel = s[:idx], s[idx+1:]
	}
	if rel == "" || strings.HasPrefix(rel, ".") || strings.HasSuffix(rel, ".") {
		return ClassID{}, fmt.Errorf("%w: %q", ErrInvalidClassID, s)
	}
	return ClassID{
		Package:  FqName(strings.ReplaceAll(pkgPart, "/", ".")),
		Relative: FqName(rel),
	}, nil
}

// MustParseClassID is ParseClassID for static tables; it panics on malformed input.
func MustParseClassID(s string) ClassID {
	id, err := ParseClassID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ShortName returns the innermost class name.
func (c ClassID) ShortName() Name {
	return c.Relative.ShortName()
}

// IsNested reports whether the class is declared inside another class.
func (c ClassID) IsNested() bool {
	return strings.Contains(string(c.Relative), ".")
}

// Outer returns the id of the enclosing class for nested classes.
func (c ClassID) Outer() (ClassID, bool) {
	if !c.IsNested() {
		return ClassID{}, false
	}
	return ClassID{Package: c.Package, Relative: c.Relative.Parent(), Local: c.Local}, true
}

// Nested returns the id of a class nested in this one.
func (c ClassID) Nested(name Name) ClassID {
	return ClassID{Package: c.Package, Relative: c.Relative.Child(name), Local: c.Local}
}

// AsFqName returns the dotted fully qualified name of the class.
func (c ClassID) AsFqName() FqName {
	if c.Package.IsRoot() {
		return c.Relative
	}
	return FqName(string(c.Package) + "." + string(c.Relative))
}

// InternalName returns the slash-separated binary name used in member signatures.
func (c ClassID) InternalName() string {
	pkg := strings.ReplaceAll(string(c.Package), ".", "/")
	rel := strings.ReplaceAll(string(c.Relative), ".", "$")
	if pkg == "" {
		return rel
	}
	return pkg + "/" + rel
}

func (c ClassID) String() string {
	pkg := strings.ReplaceAll(string(c.Package), ".", "/")
	if pkg == "" {
		return string(c.Relative)
	}
	return pkg + "/" + string(c.Relative)
}
