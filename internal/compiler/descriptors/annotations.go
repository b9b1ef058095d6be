package descriptors

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// Argument is a named annotation argument.
type Argument struct {
	Name  names.Name
	Value ConstantValue
}

// Annotation is an applied annotation with its constant arguments.
type Annotation struct {
	ClassID   names.ClassID
	Arguments []Argument
}

// NewAnnotation creates an annotation of class id.
func NewAnnotation(id names.ClassID, args ...Argument) *Annotation {
	return &Annotation{ClassID: id, Arguments: args}
}

// FqName returns the annotation class name.
func (a *Annotation) FqName() names.FqName {
	return a.ClassID.AsFqName()
}

// Type returns the annotation class type.
func (a *Annotation) Type() types.Type {
	return types.ClassType(a.ClassID, false)
}

// Argument looks up an argument by name.
func (a *Annotation) Argument(name names.Name) (ConstantValue, bool) {
	for _, arg := range a.Arguments {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return nil, false
}

// FirstArgument returns the first argument value, if any.
func (a *Annotation) FirstArgument() (ConstantValue, bool) {
	if len(a.Arguments) == 0 {
		return nil, false
	}
	return a.Arguments[0].Value, true
}

func (a *Annotation) String() string {
	if len(a.Arguments) == 0 {
		return "@" + a.FqName().String()
	}
	args := make([]string, len(a.Arguments))
	for i, arg := range a.Arguments {
		args[i] = fmt.Sprintf("%s = %s", arg.Name, arg.Value)
	}
	return fmt.Sprintf("@%s(%s)", a.FqName(), strings.Join(args, ", "))
}

// UseSiteTarget narrows where a property annotation applies.
type UseSiteTarget string

const (
	TargetNone     UseSiteTarget = ""
	TargetField    UseSiteTarget = "field"
	TargetProperty UseSiteTarget = "property"
	TargetGetter   UseSiteTarget = "get"
	TargetSetter   UseSiteTarget = "set"
	TargetReceiver UseSiteTarget = "receiver"
	TargetParam    UseSiteTarget = "param"
)

// AnnotationWithTarget pairs an annotation with its use-site target.
type AnnotationWithTarget struct {
	Annotation *Annotation
	Target     UseSiteTarget
}

// Annotations is an immutable list of annotations.
type Annotations struct {
	items []AnnotationWithTarget
}

// NewAnnotations builds an untargeted annotation list.
func NewAnnotations(anns ...*Annotation) Annotations {
	items := make([]AnnotationWithTarget, len(anns))
	for i, a := range anns {
		items[i] = AnnotationWithTarget{Annotation: a}
	}
	return Annotations{items: items}
}

// NewTargetedAnnotations builds a list that may contain use-site targeted annotations.
func NewTargetedAnnotations(items []AnnotationWithTarget) Annotations {
	return Annotations{items: append([]AnnotationWithTarget(nil), items...)}
}

// IsEmpty reports whether there are no annotations at all.
func (a Annotations) IsEmpty() bool {
	return len(a.items) == 0
}

// List returns the annotations without a use-site target.
func (a Annotations) List() []*Annotation {
	out := make([]*Annotation, 0, len(a.items))
	for _, it := range a.items {
		if it.Target == TargetNone {
			out = append(out, it.Annotation)
		}
	}
	return out
}

// All returns every annotation together with its target.
func (a Annotations) All() []AnnotationWithTarget {
	return a.items
}

// UseSiteTargeted returns annotations that carry an explicit target.
func (a Annotations) UseSiteTargeted() []AnnotationWithTarget {
	var out []AnnotationWithTarget
	for _, it := range a.items {
		if it.Target != TargetNone {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the untargeted annotation with the given class name.
func (a Annotations) Find(fq names.FqName) *Annotation {
	for _, it := range a.items {
		if it.Target == TargetNone && it.Annotation.FqName() == fq {
			return it.Annotation
		}
	}
	return nil
}

// Has reports whether an untargeted annotation with the given class name is present.
func (a Annotations) Has(fq names.FqName) bool {
	return a.Find(fq) != nil
}

// With returns a copy with extra untargeted annotations appended.
func (a Annotations) With(anns ...*Annotation) Annotations {
	items := make([]AnnotationWithTarget, 0, len(a.items)+len(anns))
	items = append(items, a.items...)
	for _, ann := range anns {
		items = append(items, AnnotationWithTarget{Annotation: ann})
	}
	return Annotations{items: items}
}

var (
	replaceWithID      = names.MustParseClassID("kotlin/ReplaceWith")
	deprecationLevelID = names.MustParseClassID("kotlin/DeprecationLevel")
)

// DeprecatedAnnotation builds kotlin.Deprecated(message, ReplaceWith(replaceWith), level).
func DeprecatedAnnotation(message, replaceWith, level string) *Annotation {
	if level == "" {
		level = "WARNING"
	}
	replace := NewAnnotation(replaceWithID,
		Argument{Name: "expression", Value: StringValue(replaceWith)},
		Argument{Name: "imports", Value: ArrayValue{}},
	)
	return NewAnnotation(types.DeprecatedID,
		Argument{Name: "message", Value: StringValue(message)},
		Argument{Name: "replaceWith", Value: AnnotationValue{Annotation: replace}},
		Argument{Name: "level", Value: EnumValue{Class: deprecationLevelID, Entry: names.Name(level)}},
	)
}
