package deserialization

import (
	"context"
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/storage"
)

// LoadConstant converts a raw constant to a constant value. Booleans, bytes,
// chars and shorts arrive widened and are narrowed by tag; a non-zero int is
// true. It returns nil for tags that do not denote a scalar.
func LoadConstant(tag metadata.Tag, raw metadata.RawValue) descriptors.ConstantValue {
	switch tag {
	case metadata.TagBoolean:
		return descriptors.BoolValue(raw.Int != 0)
	case metadata.TagByte:
		return descriptors.ByteValue(int8(raw.Int))
	case metadata.TagChar:
		return descriptors.CharValue(uint16(raw.Int))
	case metadata.TagShort:
		return descriptors.ShortValue(int16(raw.Int))
	case metadata.TagInt:
		return descriptors.IntValue(int32(raw.Int))
	case metadata.TagLong:
		return descriptors.LongValue(raw.Int)
	case metadata.TagFloat:
		return descriptors.FloatValue(float32(raw.Float))
	case metadata.TagDouble:
		return descriptors.DoubleValue(raw.Float)
	case metadata.TagString:
		return descriptors.StringValue(raw.String)
	}
	return nil
}

// annotationSource identifies the record whose annotations are loaded
// together: a class, or the top-level members of a package when class is nil.
type annotationSource struct {
	record *metadata.PackageRecord
	class  *metadata.ClassRecord
}

func (s annotationSource) replay(v metadata.ClassVisitor) error {
	if s.class == nil {
		return metadata.ReplayPackage(s.record, v)
	}
	return metadata.Replay(s.record, s.class, v)
}

// String matches the debug name of the type deserializer of the same
// declaration, so a member is reported under one name.
func (s annotationSource) String() string {
	if s.class == nil {
		return "package " + s.record.Package
	}
	id, err := metadata.NewNameResolver(s.record).ClassID(s.class.Name)
	if err != nil {
		return fmt.Sprintf("class #%d of package %s", s.class.Name, s.record.Package)
	}
	return "class " + id.String()
}

// memberAnnotations are the annotations of one member and of its parameters.
type memberAnnotations struct {
	own        []descriptors.AnnotationWithTarget
	parameters map[int][]*descriptors.Annotation
}

// classAnnotations is everything the loader extracts from one replay.
type classAnnotations struct {
	class     []*descriptors.Annotation
	members   map[metadata.MemberSignature]*memberAnnotations
	constants map[metadata.MemberSignature]descriptors.ConstantValue
}

// AnnotationLoader loads annotations and constant initializers by replaying
// records through the visitor protocol. Each record is replayed at most once.
type AnnotationLoader struct {
	storage *storage.MemoizedFunction[annotationSource, *classAnnotations]
	report  func(declaration string, err error)
}

// NewAnnotationLoader creates a loader whose results live in sm. Malformed
// members are dropped and passed to report, which may be nil.
func NewAnnotationLoader(sm *storage.Manager, report func(declaration string, err error)) *AnnotationLoader {
	if report == nil {
		report = func(string, error) {}
	}
	l := &AnnotationLoader{report: report}
	l.storage = storage.NewMemoizedFunction(sm, l.load,
		storage.Label[*classAnnotations]("annotations"))
	return l
}

// load replays src once. A malformed member loses its annotations and its
// initializer; every other member keeps its own.
func (l *AnnotationLoader) load(_ context.Context, src annotationSource) (*classAnnotations, error) {
	collector := &classCollector{result: &classAnnotations{
		members:   make(map[metadata.MemberSignature]*memberAnnotations),
		constants: make(map[metadata.MemberSignature]descriptors.ConstantValue),
	}}
	members, other := metadata.ReplayFailures(src.replay(collector))
	if collector.err != nil {
		other = append(other, collector.err)
	}
	for _, err := range other {
		if !skippable(err) {
			return nil, err
		}
		l.report("annotations of "+src.String(), err)
	}

	for _, m := range append(members, collector.failed...) {
		delete(collector.result.members, m.Member)
		delete(collector.result.constants, m.Member)
		if !skippable(m) {
			return nil, m
		}
		// unnamed members are reported by the member scope index
		if m.Member.Name != "" {
			l.report(fmt.Sprintf("%s in %s", m.Member, src), m.Err)
		}
	}
	return collector.result, nil
}

// ClassAnnotations returns the annotations of a class record.
func (l *AnnotationLoader) ClassAnnotations(ctx context.Context, src annotationSource) (descriptors.Annotations, error) {
	all, err := l.storage.Get(ctx, src)
	if err != nil {
		return descriptors.Annotations{}, err
	}
	return descriptors.NewAnnotations(all.class...), nil
}

// MemberAnnotations returns the annotations of one member, keeping use-site targets.
func (l *AnnotationLoader) MemberAnnotations(ctx context.Context, src annotationSource, sig metadata.MemberSignature) (descriptors.Annotations, error) {
	all, err := l.storage.Get(ctx, src)
	if err != nil {
		return descriptors.Annotations{}, err
	}
	m, ok := all.members[sig]
	if !ok {
		return descriptors.Annotations{}, nil
	}
	return descriptors.NewTargetedAnnotations(m.own), nil
}

// ParameterAnnotations returns the annotations of parameter index of a member.
func (l *AnnotationLoader) ParameterAnnotations(ctx context.Context, src annotationSource, sig metadata.MemberSignature, index int) (descriptors.Annotations, error) {
	all, err := l.storage.Get(ctx, src)
	if err != nil {
		return descriptors.Annotations{}, err
	}
	m, ok := all.members[sig]
	if !ok {
		return descriptors.Annotations{}, nil
	}
	return descriptors.NewAnnotations(m.parameters[index]...), nil
}

// Constant returns the compile-time initializer of a property.
func (l *AnnotationLoader) Constant(ctx context.Context, src annotationSource, sig metadata.MemberSignature) (descriptors.ConstantValue, bool, error) {
	all, err := l.storage.Get(ctx, src)
	if err != nil {
		return nil, false, err
	}
	v, ok := all.constants[sig]
	return v, ok, nil
}

// classCollector receives one replay. Failures inside a member's
// annotations are kept per member; the rest fail the class annotations.
type classCollector struct {
	result *classAnnotations
	err    error
	failed []*metadata.MemberError
}

func (c *classCollector) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *classCollector) VisitClass(names.ClassID, string) {}

func (c *classCollector) VisitAnnotation(class names.ClassID) metadata.AnnotationArgumentVisitor {
	return newAnnotationBuilder(class, c.fail, func(a *descriptors.Annotation) {
		c.result.class = append(c.result.class, a)
	})
}

func (c *classCollector) VisitMember(sig metadata.MemberSignature, initializer *metadata.RawValue) metadata.MemberVisitor {
	if initializer != nil {
		if v := LoadConstant(initializer.Tag, *initializer); v != nil {
			c.result.constants[sig] = v
		}
	}
	m := &memberAnnotations{parameters: make(map[int][]*descriptors.Annotation)}
	c.result.members[sig] = m
	return &memberCollector{sig: sig, member: m, class: c}
}

func (c *classCollector) VisitEnd() {}

type memberCollector struct {
	sig    metadata.MemberSignature
	member *memberAnnotations
	class  *classCollector
	err    error
}

func (m *memberCollector) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *memberCollector) VisitAnnotation(class names.ClassID, target string) metadata.AnnotationArgumentVisitor {
	return newAnnotationBuilder(class, m.fail, func(a *descriptors.Annotation) {
		m.member.own = append(m.member.own, descriptors.AnnotationWithTarget{
			Annotation: a,
			Target:     descriptors.UseSiteTarget(target),
		})
	})
}

func (m *memberCollector) VisitParameterAnnotation(index int, class names.ClassID) metadata.AnnotationArgumentVisitor {
	return newAnnotationBuilder(class, m.fail, func(a *descriptors.Annotation) {
		m.member.parameters[index] = append(m.member.parameters[index], a)
	})
}

func (m *memberCollector) VisitEnd() {
	if m.err != nil {
		m.class.failed = append(m.class.failed, &metadata.MemberError{Member: m.sig, Err: m.err})
	}
}

// frameKind is the state of one level of the annotation builder.
type frameKind int

const (
	frameAnnotation frameKind = iota
	frameArray
)

// frame is one open annotation or array argument.
type frame struct {
	kind     frameKind
	name     names.Name    // argument name in the enclosing annotation
	class    names.ClassID // annotation frames
	args     []descriptors.Argument
	elements []descriptors.ConstantValue
}

// annotationBuilder assembles one annotation tree from visitor events with
// an explicit stack. Every VisitEnd closes the innermost open frame and
// attaches its value to the enclosing one; closing the last frame emits the
// finished annotation.
type annotationBuilder struct {
	stack []*frame
	done  func(*descriptors.Annotation)
	fail  func(error)
}

func newAnnotationBuilder(class names.ClassID, fail func(error), done func(*descriptors.Annotation)) metadata.AnnotationArgumentVisitor {
	b := &annotationBuilder{done: done, fail: fail}
	b.push(&frame{kind: frameAnnotation, class: class})
	return argumentSink{b}
}

func (b *annotationBuilder) push(f *frame) {
	b.stack = append(b.stack, f)
}

// top returns the innermost open frame if it has the expected kind.
func (b *annotationBuilder) top(kind frameKind) (*frame, bool) {
	if len(b.stack) == 0 {
		b.fail(fmt.Errorf("%w: annotation event after the annotation was closed", metadata.ErrMalformedRecord))
		return nil, false
	}
	f := b.stack[len(b.stack)-1]
	if f.kind != kind {
		b.fail(fmt.Errorf("%w: unbalanced annotation events", metadata.ErrMalformedRecord))
		return nil, false
	}
	return f, true
}

func (b *annotationBuilder) addArgument(name names.Name, v descriptors.ConstantValue) {
	if f, ok := b.top(frameAnnotation); ok {
		f.args = append(f.args, descriptors.Argument{Name: name, Value: v})
	}
}

func (b *annotationBuilder) addElement(v descriptors.ConstantValue) {
	if f, ok := b.top(frameArray); ok {
		f.elements = append(f.elements, v)
	}
}

// close pops the innermost frame, which must be of kind.
func (b *annotationBuilder) close(kind frameKind) {
	f, ok := b.top(kind)
	if !ok {
		return
	}
	b.stack = b.stack[:len(b.stack)-1]

	var value descriptors.ConstantValue
	switch kind {
	case frameAnnotation:
		ann := descriptors.NewAnnotation(f.class, f.args...)
		if len(b.stack) == 0 {
			b.done(ann)
			return
		}
		value = descriptors.AnnotationValue{Annotation: ann}
	case frameArray:
		value = descriptors.ArrayValue{Elements: f.elements}
	}

	parent := b.stack[len(b.stack)-1]
	switch parent.kind {
	case frameAnnotation:
		parent.args = append(parent.args, descriptors.Argument{Name: f.name, Value: value})
	case frameArray:
		parent.elements = append(parent.elements, value)
	}
}

func constantOrError(name names.Name, raw metadata.RawValue) descriptors.ConstantValue {
	if v := LoadConstant(raw.Tag, raw); v != nil {
		return v
	}
	return descriptors.ErrorValue{Message: fmt.Sprintf("Unsupported annotation argument: %s", name)}
}

// argumentSink feeds the builder while an annotation frame is open.
type argumentSink struct{ b *annotationBuilder }

func (s argumentSink) Visit(name names.Name, value metadata.RawValue) {
	s.b.addArgument(name, constantOrError(name, value))
}

func (s argumentSink) VisitClassLiteral(name names.Name, class names.ClassID) {
	s.b.addArgument(name, descriptors.KClassValue{Class: class})
}

func (s argumentSink) VisitEnum(name names.Name, enumClass names.ClassID, entry names.Name) {
	s.b.addArgument(name, descriptors.EnumValue{Class: enumClass, Entry: entry})
}

func (s argumentSink) VisitArray(name names.Name) metadata.ArrayVisitor {
	s.b.push(&frame{kind: frameArray, name: name})
	return arraySink(s)
}

func (s argumentSink) VisitAnnotation(name names.Name, class names.ClassID) metadata.AnnotationArgumentVisitor {
	s.b.push(&frame{kind: frameAnnotation, name: name, class: class})
	return s
}

func (s argumentSink) VisitEnd() {
	s.b.close(frameAnnotation)
}

// arraySink feeds the builder while an array frame is open.
type arraySink struct{ b *annotationBuilder }

func (s arraySink) Visit(value metadata.RawValue) {
	name := names.Name("")
	if f, ok := s.b.top(frameArray); ok {
		name = f.name
	}
	s.b.addElement(constantOrError(name, value))
}

func (s arraySink) VisitClassLiteral(class names.ClassID) {
	s.b.addElement(descriptors.KClassValue{Class: class})
}

func (s arraySink) VisitEnum(enumClass names.ClassID, entry names.Name) {
	s.b.addElement(descriptors.EnumValue{Class: enumClass, Entry: entry})
}

func (s arraySink) VisitAnnotation(class names.ClassID) metadata.AnnotationArgumentVisitor {
	s.b.push(&frame{kind: frameAnnotation, class: class})
	return argumentSink(s)
}

func (s arraySink) VisitEnd() {
	s.b.close(frameArray)
}
