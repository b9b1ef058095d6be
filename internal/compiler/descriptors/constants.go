package descriptors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

// ConstantValue is a compile-time constant: an annotation argument or a
// const property initializer.
type ConstantValue interface {
	String() string
	// Type is the static type of the constant.
	Type() types.Type
}

var (
	booleanID = names.MustParseClassID("kotlin/Boolean")
	byteID    = names.MustParseClassID("kotlin/Byte")
	charID    = names.MustParseClassID("kotlin/Char")
	shortID   = names.MustParseClassID("kotlin/Short")
	intID     = names.MustParseClassID("kotlin/Int")
	longID    = names.MustParseClassID("kotlin/Long")
	floatID   = names.MustParseClassID("kotlin/Float")
	doubleID  = names.MustParseClassID("kotlin/Double")
	kclassID  = names.MustParseClassID("kotlin/reflect/KClass")
)

type (
	BoolValue   bool
	ByteValue   int8
	CharValue   uint16
	ShortValue  int16
	IntValue    int32
	LongValue   int64
	FloatValue  float32
	DoubleValue float64
	StringValue string
)

func (v BoolValue) String() string   { return strconv.FormatBool(bool(v)) }
func (v ByteValue) String() string   { return strconv.Itoa(int(v)) + ".toByte()" }
func (v CharValue) String() string   { return fmt.Sprintf("'\\u%04x'", uint16(v)) }
func (v ShortValue) String() string  { return strconv.Itoa(int(v)) + ".toShort()" }
func (v IntValue) String() string    { return strconv.Itoa(int(v)) }
func (v LongValue) String() string   { return strconv.FormatInt(int64(v), 10) + "L" }
func (v FloatValue) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f" }
func (v DoubleValue) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v StringValue) String() string { return strconv.Quote(string(v)) }

func (BoolValue) Type() types.Type   { return types.ClassType(booleanID, false) }
func (ByteValue) Type() types.Type   { return types.ClassType(byteID, false) }
func (CharValue) Type() types.Type   { return types.ClassType(charID, false) }
func (ShortValue) Type() types.Type  { return types.ClassType(shortID, false) }
func (IntValue) Type() types.Type    { return types.ClassType(intID, false) }
func (LongValue) Type() types.Type   { return types.ClassType(longID, false) }
func (FloatValue) Type() types.Type  { return types.ClassType(floatID, false) }
func (DoubleValue) Type() types.Type { return types.ClassType(doubleID, false) }
func (StringValue) Type() types.Type { return types.ClassType(types.StringID, false) }

// NullValue is the null literal.
type NullValue struct{}

func (NullValue) String() string   { return "null" }
func (NullValue) Type() types.Type { return types.Nothing(true) }

// EnumValue references an enum entry.
type EnumValue struct {
	Class names.ClassID
	Entry names.Name
}

func (v EnumValue) String() string   { return v.Class.Relative.String() + "." + v.Entry.String() }
func (v EnumValue) Type() types.Type { return types.ClassType(v.Class, false) }

// ArrayValue is an array of constants.
type ArrayValue struct {
	Elements []ConstantValue
}

func (v ArrayValue) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Type is Array<T> where T is the element type of the first element, or Any.
func (v ArrayValue) Type() types.Type {
	var elem types.Type = types.Any(false)
	if len(v.Elements) > 0 {
		elem = v.Elements[0].Type()
	}
	return types.ClassType(types.ArrayID, false, elem)
}

// AnnotationValue is a nested annotation argument.
type AnnotationValue struct {
	Annotation *Annotation
}

func (v AnnotationValue) String() string   { return v.Annotation.String() }
func (v AnnotationValue) Type() types.Type { return v.Annotation.Type() }

// KClassValue is a class literal.
type KClassValue struct {
	Class           names.ClassID
	ArrayDimensions int
}

func (v KClassValue) String() string {
	return strings.Repeat("Array<", v.ArrayDimensions) + v.Class.Relative.String() +
		strings.Repeat(">", v.ArrayDimensions) + "::class"
}

func (v KClassValue) Type() types.Type {
	return types.ClassType(kclassID, false, types.ClassType(v.Class, false))
}

// ErrorValue stands for a constant that could not be loaded.
type ErrorValue struct {
	Message string
}

func (v ErrorValue) String() string   { return "<error: " + v.Message + ">" }
func (v ErrorValue) Type() types.Type { return types.NewErrorType("%s", v.Message) }
