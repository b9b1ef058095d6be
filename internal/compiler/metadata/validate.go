package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecord is returned for structurally invalid records.
var ErrMalformedRecord = errors.New("malformed metadata record")

// KnownExtensions lists the extension tags a class record may carry.
var KnownExtensions = map[string]bool{
	"jvm.internal_name":   true,
	"jvm.module_name":     true,
	"jvm.file_facade":     true,
	"platform.dependent":  true,
	"compatibility.owner": true,
}

var (
	classKinds  = set("class", "interface", "enum_class", "annotation_class", "object")
	modalities  = set("", "final", "sealed", "open", "abstract")
	visibilities = set("", "public", "protected", "internal", "private")
	targets     = set("", "field", "property", "get", "set", "receiver", "param")
	valueTags   = set("Z", "B", "C", "S", "I", "J", "F", "D", "L", "[", "e", "@", "c")
)

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Validate checks every declaration of a package record and joins the problems found.
func Validate(record *PackageRecord) error {
	var errs []error
	for i := range record.Classes {
		if err := ValidateClass(record, &record.Classes[i]); err != nil {
			errs = append(errs, err)
		}
	}
	for i := range record.Functions {
		if err := ValidateFunction(record, &record.Functions[i]); err != nil {
			errs = append(errs, err)
		}
	}
	for i := range record.Properties {
		if err := ValidateProperty(record, &record.Properties[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateClass checks one class record, including its members.
func ValidateClass(record *PackageRecord, class *ClassRecord) error {
	return validateClass(record, class, true)
}

// ValidateClassHeader checks a class record without its functions,
// properties and constructors, which are validated as they are loaded.
func ValidateClassHeader(record *PackageRecord, class *ClassRecord) error {
	return validateClass(record, class, false)
}

func validateClass(record *PackageRecord, class *ClassRecord, members bool) error {
	v := validator{record: record}
	v.name(class.Name, "class name")
	where := fmt.Sprintf("class #%d", class.Name)
	if v.err == nil {
		where = "class " + record.NameTable[class.Name]
	}
	if !classKinds[class.Kind] {
		v.failf("unknown class kind %q", class.Kind)
	}
	v.modality(class.Modality)
	v.visibility(class.Visibility)
	for tag := range class.Extensions {
		if !KnownExtensions[tag] {
			v.failf("unknown extension tag %q", tag)
		}
	}
	v.typeParameters(class.TypeParameters)
	for i := range class.Supertypes {
		v.typ(&class.Supertypes[i], "supertype")
	}
	if members {
		for i := range class.Functions {
			v.function(&class.Functions[i])
		}
		for i := range class.Properties {
			v.property(&class.Properties[i])
		}
		for i := range class.Constructors {
			v.constructor(&class.Constructors[i])
		}
	}
	for _, e := range class.EnumEntries {
		v.name(e, "enum entry")
	}
	for _, n := range class.NestedClasses {
		v.name(n, "nested class")
	}
	v.annotations(class.Annotations)
	return v.result(where)
}

// ValidateConstructor checks a constructor record.
func ValidateConstructor(record *PackageRecord, ctor *ConstructorRecord) error {
	v := validator{record: record}
	v.constructor(ctor)
	return v.result("constructor")
}

// ValidateFunction checks a top-level function record.
func ValidateFunction(record *PackageRecord, fn *FunctionRecord) error {
	v := validator{record: record}
	v.function(fn)
	return v.result(fmt.Sprintf("function #%d", fn.Name))
}

// ValidateProperty checks a top-level property record.
func ValidateProperty(record *PackageRecord, prop *PropertyRecord) error {
	v := validator{record: record}
	v.property(prop)
	return v.result(fmt.Sprintf("property #%d", prop.Name))
}

func (v *validator) constructor(c *ConstructorRecord) {
	v.visibility(c.Visibility)
	v.parameters(c.Parameters)
	v.annotations(c.Annotations)
}

type validator struct {
	record *PackageRecord
	err    error
}

func (v *validator) failf(format string, args ...any) {
	if v.err == nil {
		v.err = fmt.Errorf(format, args...)
	}
}

func (v *validator) result(where string) error {
	if v.err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedRecord, where, v.err)
}

func (v *validator) name(i int, what string) {
	if i < 0 || i >= len(v.record.NameTable) {
		v.failf("%s index %d out of range", what, i)
		return
	}
	if strings.TrimSpace(v.record.NameTable[i]) == "" {
		v.failf("%s index %d refers to an empty name", what, i)
	}
}

func (v *validator) modality(m string) {
	if !modalities[m] {
		v.failf("unknown modality %q", m)
	}
}

func (v *validator) visibility(vis string) {
	if !visibilities[vis] {
		v.failf("unknown visibility %q", vis)
	}
}

func (v *validator) typeParameters(params []TypeParameterRecord) {
	for i := range params {
		v.name(params[i].Name, "type parameter")
		for j := range params[i].UpperBounds {
			v.typ(&params[i].UpperBounds[j], "upper bound")
		}
	}
}

func (v *validator) typ(t *TypeRecord, what string) {
	if t == nil {
		v.failf("missing %s", what)
		return
	}
	switch {
	case t.Class != nil && t.TypeParameter != nil:
		v.failf("%s refers to both a class and a type parameter", what)
	case t.Class != nil:
		v.name(*t.Class, what)
	case t.TypeParameter != nil:
		v.name(*t.TypeParameter, what)
	default:
		v.failf("%s has neither a class nor a type parameter", what)
	}
	for i := range t.Arguments {
		v.typ(&t.Arguments[i], "type argument")
	}
	if t.FlexibleUpper != nil {
		if t.FlexibleID == "" {
			v.failf("flexible %s is missing its flexibility id", what)
		}
		v.typ(t.FlexibleUpper, "flexible upper bound")
	}
}

func (v *validator) function(fn *FunctionRecord) {
	v.name(fn.Name, "function name")
	v.visibility(fn.Visibility)
	v.modality(fn.Modality)
	v.typeParameters(fn.TypeParameters)
	if fn.Receiver != nil {
		v.typ(fn.Receiver, "receiver type")
	}
	v.parameters(fn.Parameters)
	v.typ(fn.ReturnType, "return type")
	v.annotations(fn.Annotations)
}

func (v *validator) property(p *PropertyRecord) {
	v.name(p.Name, "property name")
	v.visibility(p.Visibility)
	v.modality(p.Modality)
	v.typ(p.Type, "property type")
	if p.Receiver != nil {
		v.typ(p.Receiver, "receiver type")
	}
	if p.Initializer != nil {
		if !p.Const {
			v.failf("initializer on a non-const property")
		}
		v.value(p.Initializer)
	}
	v.annotations(p.Annotations)
}

func (v *validator) parameters(params []ParameterRecord) {
	for i := range params {
		v.name(params[i].Name, "parameter name")
		v.typ(params[i].Type, "parameter type")
		v.annotations(params[i].Annotations)
	}
}

func (v *validator) annotations(anns []AnnotationRecord) {
	for i := range anns {
		v.annotation(&anns[i])
	}
}

func (v *validator) annotation(a *AnnotationRecord) {
	v.name(a.Class, "annotation class")
	if !targets[a.Target] {
		v.failf("unknown annotation target %q", a.Target)
	}
	for i := range a.Arguments {
		v.name(a.Arguments[i].Name, "argument name")
		v.value(&a.Arguments[i].Value)
	}
}

func (v *validator) value(val *ValueRecord) {
	if !valueTags[val.Tag] {
		v.failf("unknown value tag %q", val.Tag)
		return
	}
	switch val.Tag {
	case "e":
		if val.Enum == nil {
			v.failf("enum value without entry")
			return
		}
		v.name(val.Enum.Class, "enum class")
		v.name(val.Enum.Entry, "enum entry")
	case "@":
		if val.Annotation == nil {
			v.failf("annotation value without annotation")
			return
		}
		v.annotation(val.Annotation)
	case "c":
		if val.Class == nil {
			v.failf("class literal without class")
			return
		}
		v.name(*val.Class, "class literal")
	case "[":
		for i := range val.Elements {
			v.value(&val.Elements[i])
		}
	}
}
