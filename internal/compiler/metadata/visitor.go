package metadata

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/names"
)

// Tag is the single-character descriptor of a constant's wire type.
type Tag byte

const (
	TagBoolean    Tag = 'Z'
	TagByte       Tag = 'B'
	TagChar       Tag = 'C'
	TagShort      Tag = 'S'
	TagInt        Tag = 'I'
	TagLong       Tag = 'J'
	TagFloat      Tag = 'F'
	TagDouble     Tag = 'D'
	TagString     Tag = 'L'
	TagArray      Tag = '['
	TagEnum       Tag = 'e'
	TagAnnotation Tag = '@'
	TagClass      Tag = 'c'
)

// IsIntegral reports whether values with this tag travel in RawValue.Int.
func (t Tag) IsIntegral() bool {
	switch t {
	case TagBoolean, TagByte, TagChar, TagShort, TagInt, TagLong:
		return true
	}
	return false
}

// RawValue is a scalar constant as transmitted: integral values are widened
// to int64 and must be narrowed by the consumer using Tag.
type RawValue struct {
	Tag    Tag
	Int    int64
	Float  float64
	String string
}

// MemberKind distinguishes the member lists of a class record.
type MemberKind int

const (
	MemberFunction MemberKind = iota
	MemberProperty
	MemberConstructor
)

// MemberSignature identifies a member within its class record.
type MemberSignature struct {
	Kind  MemberKind
	Name  names.Name
	Index int
}

func (s MemberSignature) String() string {
	kind := [...]string{"fun", "val", "constructor"}[s.Kind]
	return fmt.Sprintf("%s %s#%d", kind, s.Name, s.Index)
}

// ClassVisitor receives the annotations and constants of one class record.
// Returning a nil sub-visitor skips that part of the record.
type ClassVisitor interface {
	VisitClass(id names.ClassID, kind string)
	VisitAnnotation(class names.ClassID) AnnotationArgumentVisitor
	VisitMember(sig MemberSignature, initializer *RawValue) MemberVisitor
	VisitEnd()
}

// MemberVisitor receives the annotations of one member.
type MemberVisitor interface {
	VisitAnnotation(class names.ClassID, target string) AnnotationArgumentVisitor
	VisitParameterAnnotation(index int, class names.ClassID) AnnotationArgumentVisitor
	VisitEnd()
}

// AnnotationArgumentVisitor receives the arguments of one annotation.
type AnnotationArgumentVisitor interface {
	Visit(name names.Name, value RawValue)
	VisitClassLiteral(name names.Name, class names.ClassID)
	VisitEnum(name names.Name, enumClass names.ClassID, entry names.Name)
	VisitArray(name names.Name) ArrayVisitor
	VisitAnnotation(name names.Name, class names.ClassID) AnnotationArgumentVisitor
	VisitEnd()
}

// ArrayVisitor receives the elements of an array argument.
type ArrayVisitor interface {
	Visit(value RawValue)
	VisitClassLiteral(class names.ClassID)
	VisitEnum(enumClass names.ClassID, entry names.Name)
	VisitAnnotation(class names.ClassID) AnnotationArgumentVisitor
	VisitEnd()
}

// PackageFacadeID is the class id under which top-level members of a
// package are replayed.
func PackageFacadeID(record *PackageRecord) names.ClassID {
	return names.NewClassID(names.FqName(record.Package), "PackageFacade")
}

// MemberError is a malformed member met during a replay. The member's
// visitor is abandoned and the replay moves on to the next member.
type MemberError struct {
	Member MemberSignature
	Err    error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s: %v", e.Member, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}

// Replay drives v over the annotations and constants of class. A malformed
// class annotation or member is skipped; the failures are returned joined
// after VisitEnd, members as *MemberError.
func Replay(record *PackageRecord, class *ClassRecord, v ClassVisitor) error {
	r := NewNameResolver(record)
	id, err := r.ClassID(class.Name)
	if err != nil {
		return err
	}
	v.VisitClass(id, class.Kind)

	var errs []error
	for i := range class.Annotations {
		ann := &class.Annotations[i]
		annID, err := r.ClassID(ann.Class)
		if err != nil {
			errs = append(errs, fmt.Errorf("class annotation #%d: %w", i, err))
			continue
		}
		if av := v.VisitAnnotation(annID); av != nil {
			if err := replayArguments(r, av, ann.Arguments); err != nil {
				errs = append(errs, fmt.Errorf("class annotation #%d: %w", i, err))
			}
		}
	}

	errs = append(errs, replayMembers(r, v, class.Functions, class.Properties)...)

	for i := range class.Constructors {
		c := &class.Constructors[i]
		sig := MemberSignature{Kind: MemberConstructor, Name: names.ConstructorName, Index: i}
		if mv := v.VisitMember(sig, nil); mv != nil {
			if err := replayMember(r, mv, c.Annotations, c.Parameters); err != nil {
				errs = append(errs, &MemberError{Member: sig, Err: err})
			}
		}
	}

	v.VisitEnd()
	return errors.Join(errs...)
}

// ReplayPackage drives v over the top-level members of record, reported as
// members of PackageFacadeID(record). Malformed members are skipped as in
// Replay.
func ReplayPackage(record *PackageRecord, v ClassVisitor) error {
	r := NewNameResolver(record)
	v.VisitClass(PackageFacadeID(record), "file_facade")
	errs := replayMembers(r, v, record.Functions, record.Properties)
	v.VisitEnd()
	return errors.Join(errs...)
}

// ReplayFailures splits an error from Replay or ReplayPackage into the
// skipped members and the remaining failures.
func ReplayFailures(err error) (members []*MemberError, other []error) {
	for _, e := range flatten(err) {
		var m *MemberError
		if errors.As(e, &m) {
			members = append(members, m)
		} else {
			other = append(other, e)
		}
	}
	return members, other
}

// flatten splits a joined error into its parts.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// replayMembers visits every function and property. A member whose name
// cannot be resolved is reported with an empty name and not visited.
func replayMembers(r *NameResolver, v ClassVisitor, functions []FunctionRecord, properties []PropertyRecord) []error {
	var errs []error
	for i := range functions {
		fn := &functions[i]
		name, err := r.Name(fn.Name)
		if err != nil {
			errs = append(errs, &MemberError{Member: MemberSignature{Kind: MemberFunction, Index: i}, Err: err})
			continue
		}
		sig := MemberSignature{Kind: MemberFunction, Name: name, Index: i}
		if mv := v.VisitMember(sig, nil); mv != nil {
			if err := replayMember(r, mv, fn.Annotations, fn.Parameters); err != nil {
				errs = append(errs, &MemberError{Member: sig, Err: err})
			}
		}
	}

	for i := range properties {
		p := &properties[i]
		name, err := r.Name(p.Name)
		if err != nil {
			errs = append(errs, &MemberError{Member: MemberSignature{Kind: MemberProperty, Index: i}, Err: err})
			continue
		}
		var initializer *RawValue
		if p.Initializer != nil && isScalar(p.Initializer.Tag) {
			raw := rawValue(p.Initializer)
			initializer = &raw
		}
		sig := MemberSignature{Kind: MemberProperty, Name: name, Index: i}
		if mv := v.VisitMember(sig, initializer); mv != nil {
			if err := replayMember(r, mv, p.Annotations, nil); err != nil {
				errs = append(errs, &MemberError{Member: sig, Err: err})
			}
		}
	}
	return errs
}

func replayMember(r *NameResolver, mv MemberVisitor, anns []AnnotationRecord, params []ParameterRecord) error {
	for i := range anns {
		annID, err := r.ClassID(anns[i].Class)
		if err != nil {
			return err
		}
		if av := mv.VisitAnnotation(annID, anns[i].Target); av != nil {
			if err := replayArguments(r, av, anns[i].Arguments); err != nil {
				return err
			}
		}
	}
	for index := range params {
		for i := range params[index].Annotations {
			ann := &params[index].Annotations[i]
			annID, err := r.ClassID(ann.Class)
			if err != nil {
				return err
			}
			if av := mv.VisitParameterAnnotation(index, annID); av != nil {
				if err := replayArguments(r, av, ann.Arguments); err != nil {
					return err
				}
			}
		}
	}
	mv.VisitEnd()
	return nil
}

func replayArguments(r *NameResolver, av AnnotationArgumentVisitor, args []ArgumentRecord) error {
	for i := range args {
		name, err := r.Name(args[i].Name)
		if err != nil {
			return err
		}
		if err := replayArgument(r, av, name, &args[i].Value); err != nil {
			return err
		}
	}
	av.VisitEnd()
	return nil
}

func replayArgument(r *NameResolver, av AnnotationArgumentVisitor, name names.Name, val *ValueRecord) error {
	switch Tag(tagByte(val.Tag)) {
	case TagEnum:
		cls, entry, err := enumParts(r, val)
		if err != nil {
			return err
		}
		av.VisitEnum(name, cls, entry)
	case TagClass:
		cls, err := classLiteral(r, val)
		if err != nil {
			return err
		}
		av.VisitClassLiteral(name, cls)
	case TagAnnotation:
		if val.Annotation == nil {
			return fmt.Errorf("%w: annotation argument %s without annotation", ErrMalformedRecord, name)
		}
		cls, err := r.ClassID(val.Annotation.Class)
		if err != nil {
			return err
		}
		if nested := av.VisitAnnotation(name, cls); nested != nil {
			return replayArguments(r, nested, val.Annotation.Arguments)
		}
	case TagArray:
		if arr := av.VisitArray(name); arr != nil {
			for i := range val.Elements {
				if err := replayElement(r, arr, &val.Elements[i]); err != nil {
					return err
				}
			}
			arr.VisitEnd()
		}
	default:
		if !isScalar(val.Tag) {
			return fmt.Errorf("%w: unknown value tag %q", ErrMalformedRecord, val.Tag)
		}
		av.Visit(name, rawValue(val))
	}
	return nil
}

func replayElement(r *NameResolver, arr ArrayVisitor, val *ValueRecord) error {
	switch Tag(tagByte(val.Tag)) {
	case TagEnum:
		cls, entry, err := enumParts(r, val)
		if err != nil {
			return err
		}
		arr.VisitEnum(cls, entry)
	case TagClass:
		cls, err := classLiteral(r, val)
		if err != nil {
			return err
		}
		arr.VisitClassLiteral(cls)
	case TagAnnotation:
		if val.Annotation == nil {
			return fmt.Errorf("%w: array element annotation missing", ErrMalformedRecord)
		}
		cls, err := r.ClassID(val.Annotation.Class)
		if err != nil {
			return err
		}
		if nested := arr.VisitAnnotation(cls); nested != nil {
			return replayArguments(r, nested, val.Annotation.Arguments)
		}
	default:
		if !isScalar(val.Tag) {
			return fmt.Errorf("%w: unsupported array element tag %q", ErrMalformedRecord, val.Tag)
		}
		arr.Visit(rawValue(val))
	}
	return nil
}

func enumParts(r *NameResolver, val *ValueRecord) (names.ClassID, names.Name, error) {
	if val.Enum == nil {
		return names.ClassID{}, "", fmt.Errorf("%w: enum value without entry", ErrMalformedRecord)
	}
	cls, err := r.ClassID(val.Enum.Class)
	if err != nil {
		return names.ClassID{}, "", err
	}
	entry, err := r.Name(val.Enum.Entry)
	if err != nil {
		return names.ClassID{}, "", err
	}
	return cls, entry, nil
}

func classLiteral(r *NameResolver, val *ValueRecord) (names.ClassID, error) {
	if val.Class == nil {
		return names.ClassID{}, fmt.Errorf("%w: class literal without class", ErrMalformedRecord)
	}
	return r.ClassID(*val.Class)
}

func tagByte(tag string) byte {
	if len(tag) != 1 {
		return 0
	}
	return tag[0]
}

func isScalar(tag string) bool {
	t := Tag(tagByte(tag))
	return t.IsIntegral() || t == TagFloat || t == TagDouble || t == TagString
}

func rawValue(val *ValueRecord) RawValue {
	return RawValue{Tag: Tag(tagByte(val.Tag)), Int: val.Int, Float: val.Float, String: val.String}
}
