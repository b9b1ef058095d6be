// Package interop exposes platform classes to the native type system.
// Platform classes are described in YAML, loaded lazily, and their member
// signatures are enhanced with nullability read from annotations.
package interop

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/interop/internal/compiler/names"
)

// ErrMalformedPlatformClass is returned for platform descriptions that
// cannot be turned into descriptors.
var ErrMalformedPlatformClass = stderrors.New("malformed platform class")

// Primitive type keywords of the platform.
var primitiveDescriptors = map[string]string{
	"boolean": "Z",
	"byte":    "B",
	"char":    "C",
	"short":   "S",
	"int":     "I",
	"long":    "J",
	"float":   "F",
	"double":  "D",
	"void":    "V",
}

// PlatformType is a type as written in a platform class. Exactly one of
// Class, Parameter and Element is set.
type PlatformType struct {
	// Class is an internal class name ("java/lang/String") or a primitive keyword.
	Class string `yaml:"class,omitempty"`
	// Parameter names a type variable of the method or class.
	Parameter string `yaml:"parameter,omitempty"`
	// Element is the component type of an array.
	Element     *PlatformType  `yaml:"element,omitempty"`
	Arguments   []PlatformType `yaml:"arguments,omitempty"`
	Annotations []string       `yaml:"annotations,omitempty"`
}

// IsPrimitive reports whether t is a primitive keyword other than void.
func (t PlatformType) IsPrimitive() bool {
	_, ok := primitiveDescriptors[t.Class]
	return ok && t.Class != "void"
}

// IsVoid reports whether t is the void return type.
func (t PlatformType) IsVoid() bool {
	return t.Class == "void"
}

func (t PlatformType) String() string {
	switch {
	case t.Element != nil:
		return t.Element.String() + "[]"
	case t.Parameter != "":
		return t.Parameter
	}
	if len(t.Arguments) == 0 {
		return t.Class
	}
	args := make([]string, len(t.Arguments))
	for i, a := range t.Arguments {
		args[i] = a.String()
	}
	return t.Class + "<" + strings.Join(args, ", ") + ">"
}

// PlatformTypeParameter is a type variable with its bounds.
type PlatformTypeParameter struct {
	Name   string         `yaml:"name"`
	Bounds []PlatformType `yaml:"bounds,omitempty"`
}

// PlatformParameter is a method or constructor parameter.
type PlatformParameter struct {
	Name        string       `yaml:"name"`
	Type        PlatformType `yaml:"type"`
	Vararg      bool         `yaml:"vararg,omitempty"`
	Annotations []string     `yaml:"annotations,omitempty"`
}

// PlatformMethod is a method of a platform class. Annotations on the method
// apply to its return type.
type PlatformMethod struct {
	Name           string                  `yaml:"name"`
	Visibility     string                  `yaml:"visibility,omitempty"`
	Modality       string                  `yaml:"modality,omitempty"`
	Static         bool                    `yaml:"static,omitempty"`
	Deprecated     bool                    `yaml:"deprecated,omitempty"`
	TypeParameters []PlatformTypeParameter `yaml:"type_parameters,omitempty"`
	Parameters     []PlatformParameter     `yaml:"parameters,omitempty"`
	Return         *PlatformType           `yaml:"return,omitempty"`
	Annotations    []string                `yaml:"annotations,omitempty"`
}

// PlatformField is a field of a platform class.
type PlatformField struct {
	Name        string       `yaml:"name"`
	Type        PlatformType `yaml:"type"`
	Visibility  string       `yaml:"visibility,omitempty"`
	Static      bool         `yaml:"static,omitempty"`
	Final       bool         `yaml:"final,omitempty"`
	Deprecated  bool         `yaml:"deprecated,omitempty"`
	Annotations []string     `yaml:"annotations,omitempty"`
}

// PlatformConstructor is a constructor of a platform class.
type PlatformConstructor struct {
	Visibility string              `yaml:"visibility,omitempty"`
	Deprecated bool                `yaml:"deprecated,omitempty"`
	Parameters []PlatformParameter `yaml:"parameters,omitempty"`
}

// PlatformClass describes one foreign class.
type PlatformClass struct {
	// Name is the class id, "java/util/Map.Entry" for nested classes.
	Name           string                  `yaml:"name"`
	Kind           string                  `yaml:"kind,omitempty"`
	Modality       string                  `yaml:"modality,omitempty"`
	Visibility     string                  `yaml:"visibility,omitempty"`
	Deprecated     bool                    `yaml:"deprecated,omitempty"`
	TypeParameters []PlatformTypeParameter `yaml:"type_parameters,omitempty"`
	Supertypes     []PlatformType          `yaml:"supertypes,omitempty"`
	Methods        []PlatformMethod        `yaml:"methods,omitempty"`
	Fields         []PlatformField         `yaml:"fields,omitempty"`
	Constructors   []PlatformConstructor   `yaml:"constructors,omitempty"`
	EnumEntries    []string                `yaml:"enum_entries,omitempty"`
}

// ClassID parses the class name.
func (c *PlatformClass) ClassID() (names.ClassID, error) {
	return names.ParseClassID(c.Name)
}

// InternalName is the binary name used in member signatures.
func (c *PlatformClass) InternalName() string {
	id, err := c.ClassID()
	if err != nil {
		return c.Name
	}
	return id.InternalName()
}

// platformLibrary is the document root of a platform file.
type platformLibrary struct {
	Classes []PlatformClass `yaml:"classes"`
}

// DecodePlatformClasses reads a platform YAML document. Unknown keys are
// rejected so typos do not silently drop members.
func DecodePlatformClasses(data []byte) ([]*PlatformClass, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var lib platformLibrary
	if err := dec.Decode(&lib); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlatformClass, err)
	}
	out := make([]*PlatformClass, 0, len(lib.Classes))
	for i := range lib.Classes {
		class := &lib.Classes[i]
		if err := ValidatePlatformClass(class); err != nil {
			return nil, err
		}
		out = append(out, class)
	}
	return out, nil
}

// IsPlatformFile reports whether path names a platform class description.
func IsPlatformFile(path string) bool {
	return strings.HasSuffix(path, ".platform.yml") || strings.HasSuffix(path, ".platform.yaml")
}

var (
	validKinds      = map[string]bool{"": true, "class": true, "interface": true, "enum": true, "annotation": true}
	validModalities = map[string]bool{"": true, "final": true, "open": true, "abstract": true}
	validVisibility = map[string]bool{"": true, "public": true, "protected": true, "private": true, "package-private": true}
)

// ValidatePlatformClass checks names, kinds and the shape of every type.
func ValidatePlatformClass(c *PlatformClass) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrMalformedPlatformClass, c.Name, fmt.Sprintf(format, args...))
	}
	if _, err := c.ClassID(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPlatformClass, err)
	}
	if !validKinds[c.Kind] {
		return fail("unknown kind %q", c.Kind)
	}
	if !validModalities[c.Modality] {
		return fail("unknown modality %q", c.Modality)
	}
	if !validVisibility[c.Visibility] {
		return fail("unknown visibility %q", c.Visibility)
	}
	if len(c.EnumEntries) > 0 && c.Kind != "enum" {
		return fail("enum entries on %s", c.Kind)
	}
	for _, st := range c.Supertypes {
		if err := validateType(st, false); err != nil {
			return fail("supertype: %v", err)
		}
		if st.Class == "" || st.IsPrimitive() {
			return fail("supertype %s is not a class", st)
		}
	}
	for _, m := range c.Methods {
		if m.Name == "" {
			return fail("method without a name")
		}
		if !validVisibility[m.Visibility] || !validModalities[m.Modality] {
			return fail("method %s: bad modifiers", m.Name)
		}
		if err := validateParameters(m.Parameters); err != nil {
			return fail("method %s: %v", m.Name, err)
		}
		if m.Return != nil {
			if err := validateType(*m.Return, true); err != nil {
				return fail("method %s: %v", m.Name, err)
			}
		}
	}
	for _, f := range c.Fields {
		if f.Name == "" {
			return fail("field without a name")
		}
		if err := validateType(f.Type, false); err != nil {
			return fail("field %s: %v", f.Name, err)
		}
	}
	for i, ctor := range c.Constructors {
		if err := validateParameters(ctor.Parameters); err != nil {
			return fail("constructor #%d: %v", i, err)
		}
	}
	return nil
}

func validateParameters(params []PlatformParameter) error {
	for i, p := range params {
		if err := validateType(p.Type, false); err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
		if p.Vararg && (i != len(params)-1 || p.Type.Element == nil) {
			return fmt.Errorf("parameter %d: vararg must be a trailing array", i)
		}
	}
	return nil
}

func validateType(t PlatformType, allowVoid bool) error {
	set := 0
	for _, ok := range []bool{t.Class != "", t.Parameter != "", t.Element != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("type must name exactly one of class, parameter or element")
	}
	if t.IsVoid() && !allowVoid {
		return fmt.Errorf("void is only valid as a return type")
	}
	if _, primitive := primitiveDescriptors[t.Class]; primitive && len(t.Arguments) > 0 {
		return fmt.Errorf("primitive %s has type arguments", t.Class)
	}
	if t.Element != nil {
		return validateType(*t.Element, false)
	}
	for _, a := range t.Arguments {
		if err := validateType(a, false); err != nil {
			return err
		}
	}
	return nil
}
