package interop

import (
	"context"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
)

const objectDescriptor = "Ljava/lang/Object;"

// Signature joins an owner's internal name with a member descriptor:
// "java/util/Collection.toArray()[Ljava/lang/Object;".
func Signature(owner string, jvmDescriptor string) string {
	return owner + "." + jvmDescriptor
}

// ClassSignature is Signature for a class id.
func ClassSignature(owner names.ClassID, jvmDescriptor string) string {
	return Signature(owner.InternalName(), jvmDescriptor)
}

func inJavaLang(class string, descriptors ...string) []string {
	return inPackage("java/lang/"+class, descriptors)
}

func inJavaUtil(class string, descriptors ...string) []string {
	return inPackage("java/util/"+class, descriptors)
}

func inPackage(owner string, descriptors []string) []string {
	out := make([]string, len(descriptors))
	for i, d := range descriptors {
		out[i] = Signature(owner, d)
	}
	return out
}

// constructors turns parameter descriptor lists into constructor descriptors.
func constructors(params ...string) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = names.ConstructorName.String() + "(" + p + ")V"
	}
	return out
}

// typeBounds resolves a type variable to its erasure bound.
type typeBounds func(name string) (PlatformType, bool)

// erasure resolves variables of a method first and of its class second.
func erasure(class *PlatformClass, method []PlatformTypeParameter) typeBounds {
	return func(name string) (PlatformType, bool) {
		for _, scope := range [][]PlatformTypeParameter{method, class.TypeParameters} {
			for _, p := range scope {
				if p.Name == name {
					if len(p.Bounds) == 0 {
						return PlatformType{}, false
					}
					return p.Bounds[0], true
				}
			}
		}
		return PlatformType{}, false
	}
}

// TypeDescriptor encodes a platform type in JVM descriptor form. Type
// variables erase to their first bound, or Object.
func TypeDescriptor(t PlatformType, bounds typeBounds) string {
	return typeDescriptor(t, bounds, 0)
}

func typeDescriptor(t PlatformType, bounds typeBounds, depth int) string {
	switch {
	case t.Element != nil:
		return "[" + typeDescriptor(*t.Element, bounds, depth)
	case t.Parameter != "":
		if bounds != nil && depth < 8 {
			if bound, ok := bounds(t.Parameter); ok {
				return typeDescriptor(bound, bounds, depth+1)
			}
		}
		return objectDescriptor
	}
	if d, ok := primitiveDescriptors[t.Class]; ok {
		return d
	}
	id, err := names.ParseClassID(t.Class)
	if err != nil {
		return "L" + t.Class + ";"
	}
	return "L" + id.InternalName() + ";"
}

func parameterDescriptors(params []PlatformParameter, bounds typeBounds) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString(TypeDescriptor(p.Type, bounds))
	}
	return b.String()
}

// MethodDescriptor returns "name(params)ret" for a platform method.
func MethodDescriptor(class *PlatformClass, m *PlatformMethod) string {
	bounds := erasure(class, m.TypeParameters)
	ret := "V"
	if m.Return != nil {
		ret = TypeDescriptor(*m.Return, bounds)
	}
	return m.Name + "(" + parameterDescriptors(m.Parameters, bounds) + ")" + ret
}

// PlatformConstructorDescriptor returns "<init>(params)V".
func PlatformConstructorDescriptor(class *PlatformClass, c *PlatformConstructor) string {
	return constructors(parameterDescriptors(c.Parameters, erasure(class, nil)))[0]
}

// NativeDescriptors maps native declarations to JVM descriptors so they can
// be compared with platform members.
type NativeDescriptors struct {
	Classes *ClassMap
}

// Function returns "name(params)ret" for a native function.
func (n NativeDescriptors) Function(ctx context.Context, fn *descriptors.FunctionDescriptor) string {
	var b strings.Builder
	b.WriteString(fn.Name().String())
	b.WriteString("(")
	if fn.ExtensionReceiver != nil {
		b.WriteString(n.Type(ctx, fn.ExtensionReceiver))
	}
	for _, p := range fn.ValueParameters {
		b.WriteString(n.Type(ctx, p.Type))
	}
	b.WriteString(")")
	b.WriteString(n.Return(ctx, fn.ReturnType))
	return b.String()
}

// Constructor returns "<init>(params)V" for a native constructor.
func (n NativeDescriptors) Constructor(ctx context.Context, c *descriptors.ConstructorDescriptor) string {
	var b strings.Builder
	for _, p := range c.ValueParameters {
		b.WriteString(n.Type(ctx, p.Type))
	}
	return constructors(b.String())[0]
}

// Parameters returns the descriptor of the parameter list only, used to match
// overrides whose return types differ.
func (n NativeDescriptors) Parameters(ctx context.Context, fn *descriptors.FunctionDescriptor) string {
	d := n.Function(ctx, fn)
	return d[:strings.IndexByte(d, ')')+1]
}

// Return encodes a return type; Unit becomes V.
func (n NativeDescriptors) Return(ctx context.Context, t types.Type) string {
	if id, ok := types.ClassIDOf(t); ok && id == types.UnitID && !types.AcceptsNullable(t) {
		return "V"
	}
	return n.Type(ctx, t)
}

// Type encodes a native type. Not-null primitives stay primitive; nullable
// ones box to their wrapper class.
func (n NativeDescriptors) Type(ctx context.Context, t types.Type) string {
	return n.typeDescriptor(ctx, t, false, 0)
}

func (n NativeDescriptors) typeDescriptor(ctx context.Context, t types.Type, boxed bool, depth int) string {
	if ctor, ok := types.ConstructorOf(t); ok {
		if p, ok := ctor.(*descriptors.TypeParameterDescriptor); ok {
			// an unresolvable bound erases to Object
			if bounds, err := p.UpperBounds(ctx); err == nil && depth < 8 && len(bounds) > 0 {
				return n.typeDescriptor(ctx, bounds[0], true, depth+1)
			}
			return objectDescriptor
		}
	}
	id, ok := types.ClassIDOf(t)
	if !ok {
		return objectDescriptor
	}
	if !boxed && !types.AcceptsNullable(types.LowerBound(t)) {
		for keyword, native := range primitiveNative {
			if native == id {
				return primitiveDescriptors[keyword]
			}
		}
	}
	for keyword, array := range primitiveArrays {
		if array == id {
			return "[" + primitiveDescriptors[keyword]
		}
	}
	if id == types.ArrayID {
		if st, ok := types.LowerBound(t).(*types.SimpleType); ok && len(st.Arguments) == 1 {
			return "[" + n.typeDescriptor(ctx, st.Arguments[0], true, depth+1)
		}
		return "[" + objectDescriptor
	}
	if n.Classes != nil {
		if platform, ok := n.Classes.MapNativeToPlatform(id); ok {
			return "L" + platform.InternalName() + ";"
		}
	}
	return "L" + id.InternalName() + ";"
}
