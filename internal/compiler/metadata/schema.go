// Package metadata defines the serialized form of compiled declarations and
// the visitor protocol used to replay annotations and constants from it.
// Records reference names through a per-package name table.
package metadata

// FormatVersion is written into every encoded package record.
const FormatVersion = "1.0"

// PackageRecord is the serialized content of one package.
type PackageRecord struct {
	Version    string           `json:"version" yaml:"version"`
	Package    string           `json:"package" yaml:"package"`
	NameTable  []string         `json:"names" yaml:"names"`
	Classes    []ClassRecord    `json:"classes,omitempty" yaml:"classes,omitempty"`
	Functions  []FunctionRecord `json:"functions,omitempty" yaml:"functions,omitempty"`
	Properties []PropertyRecord `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// ClassRecord describes one class. Name indexes the name table and holds the
// class id in "pkg/path/Outer.Inner" form.
type ClassRecord struct {
	Name           int                   `json:"name" yaml:"name"`
	Kind           string                `json:"kind" yaml:"kind"` // class, interface, enum_class, annotation_class, object
	Modality       string                `json:"modality,omitempty" yaml:"modality,omitempty"`
	Visibility     string                `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Inner          bool                  `json:"inner,omitempty" yaml:"inner,omitempty"`
	TypeParameters []TypeParameterRecord `json:"type_parameters,omitempty" yaml:"type_parameters,omitempty"`
	Supertypes     []TypeRecord          `json:"supertypes,omitempty" yaml:"supertypes,omitempty"`
	Functions      []FunctionRecord      `json:"functions,omitempty" yaml:"functions,omitempty"`
	Properties     []PropertyRecord      `json:"properties,omitempty" yaml:"properties,omitempty"`
	Constructors   []ConstructorRecord   `json:"constructors,omitempty" yaml:"constructors,omitempty"`
	EnumEntries    []int                 `json:"enum_entries,omitempty" yaml:"enum_entries,omitempty"`
	NestedClasses  []int                 `json:"nested_classes,omitempty" yaml:"nested_classes,omitempty"`
	Annotations    []AnnotationRecord    `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Extensions     map[string]string     `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// TypeParameterRecord describes a declared type parameter.
type TypeParameterRecord struct {
	Name        int          `json:"name" yaml:"name"`
	Reified     bool         `json:"reified,omitempty" yaml:"reified,omitempty"`
	UpperBounds []TypeRecord `json:"upper_bounds,omitempty" yaml:"upper_bounds,omitempty"`
}

// TypeRecord is a reference to a class or a type parameter. Exactly one of
// Class and TypeParameter is set.
type TypeRecord struct {
	Class         *int         `json:"class,omitempty" yaml:"class,omitempty"`
	TypeParameter *int         `json:"type_parameter,omitempty" yaml:"type_parameter,omitempty"`
	Arguments     []TypeRecord `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Nullable      bool         `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	FlexibleUpper *TypeRecord  `json:"flexible_upper,omitempty" yaml:"flexible_upper,omitempty"`
	FlexibleID    string       `json:"flexible_id,omitempty" yaml:"flexible_id,omitempty"`
}

// FunctionRecord describes a member or top-level function.
type FunctionRecord struct {
	Name           int                   `json:"name" yaml:"name"`
	TypeParameters []TypeParameterRecord `json:"type_parameters,omitempty" yaml:"type_parameters,omitempty"`
	Receiver       *TypeRecord           `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Parameters     []ParameterRecord     `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType     *TypeRecord           `json:"return_type" yaml:"return_type"`
	Visibility     string                `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Modality       string                `json:"modality,omitempty" yaml:"modality,omitempty"`
	Operator       bool                  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Annotations    []AnnotationRecord    `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// ParameterRecord describes a value parameter.
type ParameterRecord struct {
	Name        int                `json:"name" yaml:"name"`
	Type        *TypeRecord        `json:"type" yaml:"type"`
	HasDefault  bool               `json:"has_default,omitempty" yaml:"has_default,omitempty"`
	Vararg      bool               `json:"vararg,omitempty" yaml:"vararg,omitempty"`
	Annotations []AnnotationRecord `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// PropertyRecord describes a member or top-level property.
type PropertyRecord struct {
	Name        int                `json:"name" yaml:"name"`
	Type        *TypeRecord        `json:"type" yaml:"type"`
	Receiver    *TypeRecord        `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Mutable     bool               `json:"mutable,omitempty" yaml:"mutable,omitempty"`
	Const       bool               `json:"const,omitempty" yaml:"const,omitempty"`
	Visibility  string             `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Modality    string             `json:"modality,omitempty" yaml:"modality,omitempty"`
	Initializer *ValueRecord       `json:"initializer,omitempty" yaml:"initializer,omitempty"`
	Annotations []AnnotationRecord `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// ConstructorRecord describes a class constructor.
type ConstructorRecord struct {
	Parameters  []ParameterRecord  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Visibility  string             `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Primary     bool               `json:"primary,omitempty" yaml:"primary,omitempty"`
	Annotations []AnnotationRecord `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// AnnotationRecord is an applied annotation. Target is a use-site target
// such as "field" or "get", empty when the annotation applies directly.
type AnnotationRecord struct {
	Class     int              `json:"class" yaml:"class"`
	Target    string           `json:"target,omitempty" yaml:"target,omitempty"`
	Arguments []ArgumentRecord `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// ArgumentRecord is a named annotation argument.
type ArgumentRecord struct {
	Name  int         `json:"name" yaml:"name"`
	Value ValueRecord `json:"value" yaml:"value"`
}

// ValueRecord is a constant in its wire form. Tag selects which field holds
// the value; booleans, bytes, chars and shorts travel in Int.
type ValueRecord struct {
	Tag        string            `json:"tag" yaml:"tag"`
	Int        int64             `json:"int,omitempty" yaml:"int,omitempty"`
	Float      float64           `json:"float,omitempty" yaml:"float,omitempty"`
	String     string            `json:"string,omitempty" yaml:"string,omitempty"`
	Enum       *EnumRecord       `json:"enum,omitempty" yaml:"enum,omitempty"`
	Elements   []ValueRecord     `json:"elements,omitempty" yaml:"elements,omitempty"`
	Annotation *AnnotationRecord `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Class      *int              `json:"class,omitempty" yaml:"class,omitempty"`
}

// EnumRecord references an enum entry by class and entry name.
type EnumRecord struct {
	Class int `json:"class" yaml:"class"`
	Entry int `json:"entry" yaml:"entry"`
}

// Ref returns a pointer to i, for building TypeRecord and ValueRecord literals.
func Ref(i int) *int {
	return &i
}

// ClassTypeRecord builds a TypeRecord for the class at name index.
func ClassTypeRecord(name int, nullable bool, args ...TypeRecord) *TypeRecord {
	return &TypeRecord{Class: Ref(name), Nullable: nullable, Arguments: args}
}
