package interop

import (
	"github.com/conduit-lang/interop/internal/compiler/names"
)

// ClassMap relates native classes to their platform counterparts. Mapped
// collection interfaces come in read-only and mutable pairs that share one
// platform class.
type ClassMap struct {
	nativeToPlatform  map[names.ClassID]names.ClassID
	platformToNative  map[names.ClassID]names.ClassID
	mutableToReadOnly map[names.ClassID]names.ClassID
	readOnlyToMutable map[names.ClassID]names.ClassID
}

// NewClassMap creates an empty map.
func NewClassMap() *ClassMap {
	return &ClassMap{
		nativeToPlatform:  make(map[names.ClassID]names.ClassID),
		platformToNative:  make(map[names.ClassID]names.ClassID),
		mutableToReadOnly: make(map[names.ClassID]names.ClassID),
		readOnlyToMutable: make(map[names.ClassID]names.ClassID),
	}
}

// Add maps native to platform in both directions.
func (m *ClassMap) Add(platform, native names.ClassID) {
	m.nativeToPlatform[native] = platform
	m.platformToNative[platform] = native
}

// AddMutable maps a read-only/mutable pair to one platform class. The
// read-only class is the default native view of the platform class.
func (m *ClassMap) AddMutable(platform, readOnly, mutable names.ClassID) {
	m.Add(platform, readOnly)
	m.nativeToPlatform[mutable] = platform
	m.mutableToReadOnly[mutable] = readOnly
	m.readOnlyToMutable[readOnly] = mutable
}

// MapNativeToPlatform returns the platform class of a native class.
func (m *ClassMap) MapNativeToPlatform(native names.ClassID) (names.ClassID, bool) {
	id, ok := m.nativeToPlatform[native]
	return id, ok
}

// MapPlatformToNative returns the read-only native view of a platform class.
func (m *ClassMap) MapPlatformToNative(platform names.ClassID) (names.ClassID, bool) {
	id, ok := m.platformToNative[platform]
	return id, ok
}

// MapPlatformClass returns every native class backed by platform: the
// read-only class first and the mutable one last.
func (m *ClassMap) MapPlatformClass(platform names.ClassID) []names.ClassID {
	native, ok := m.platformToNative[platform]
	if !ok {
		return nil
	}
	if mutable, ok := m.readOnlyToMutable[native]; ok {
		return []names.ClassID{native, mutable}
	}
	return []names.ClassID{native}
}

// IsMutable reports whether id is the mutable half of a pair.
func (m *ClassMap) IsMutable(id names.ClassID) bool {
	_, ok := m.mutableToReadOnly[id]
	return ok
}

// IsReadOnly reports whether id is the read-only half of a pair.
func (m *ClassMap) IsReadOnly(id names.ClassID) bool {
	_, ok := m.readOnlyToMutable[id]
	return ok
}

// ReadOnly returns the read-only counterpart of a mutable class.
func (m *ClassMap) ReadOnly(mutable names.ClassID) (names.ClassID, bool) {
	id, ok := m.mutableToReadOnly[mutable]
	return id, ok
}

// Mutable returns the mutable counterpart of a read-only class.
func (m *ClassMap) Mutable(readOnly names.ClassID) (names.ClassID, bool) {
	id, ok := m.readOnlyToMutable[readOnly]
	return id, ok
}

// Primitive wrapper classes and their native types.
var wrapperClasses = []struct{ platform, native, keyword string }{
	{"java/lang/Boolean", "kotlin/Boolean", "boolean"},
	{"java/lang/Character", "kotlin/Char", "char"},
	{"java/lang/Byte", "kotlin/Byte", "byte"},
	{"java/lang/Short", "kotlin/Short", "short"},
	{"java/lang/Integer", "kotlin/Int", "int"},
	{"java/lang/Long", "kotlin/Long", "long"},
	{"java/lang/Float", "kotlin/Float", "float"},
	{"java/lang/Double", "kotlin/Double", "double"},
}

// primitiveNative maps primitive keywords to native classes.
var primitiveNative = func() map[string]names.ClassID {
	out := make(map[string]names.ClassID, len(wrapperClasses))
	for _, w := range wrapperClasses {
		out[w.keyword] = names.MustParseClassID(w.native)
	}
	return out
}()

// primitiveArrays maps primitive keywords to native primitive array classes.
var primitiveArrays = map[string]names.ClassID{
	"boolean": names.MustParseClassID("kotlin/BooleanArray"),
	"char":    names.MustParseClassID("kotlin/CharArray"),
	"byte":    names.MustParseClassID("kotlin/ByteArray"),
	"short":   names.MustParseClassID("kotlin/ShortArray"),
	"int":     names.MustParseClassID("kotlin/IntArray"),
	"long":    names.MustParseClassID("kotlin/LongArray"),
	"float":   names.MustParseClassID("kotlin/FloatArray"),
	"double":  names.MustParseClassID("kotlin/DoubleArray"),
}

// DefaultClassMap returns the standard mapping between kotlin and java classes.
func DefaultClassMap() *ClassMap {
	m := NewClassMap()
	add := func(platform, native string) {
		m.Add(names.MustParseClassID(platform), names.MustParseClassID(native))
	}
	add("java/lang/Object", "kotlin/Any")
	add("java/lang/String", "kotlin/String")
	add("java/lang/CharSequence", "kotlin/CharSequence")
	add("java/lang/Throwable", "kotlin/Throwable")
	add("java/lang/Cloneable", "kotlin/Cloneable")
	add("java/lang/Number", "kotlin/Number")
	add("java/lang/Comparable", "kotlin/Comparable")
	add("java/lang/Enum", "kotlin/Enum")
	add("java/lang/annotation/Annotation", "kotlin/Annotation")
	add("java/lang/Deprecated", "kotlin/Deprecated")
	for _, w := range wrapperClasses {
		add(w.platform, w.native)
	}

	pair := func(platform, readOnly, mutable string) {
		m.AddMutable(names.MustParseClassID(platform), names.MustParseClassID(readOnly), names.MustParseClassID(mutable))
	}
	pair("java/lang/Iterable", "kotlin/collections/Iterable", "kotlin/collections/MutableIterable")
	pair("java/util/Iterator", "kotlin/collections/Iterator", "kotlin/collections/MutableIterator")
	pair("java/util/Collection", "kotlin/collections/Collection", "kotlin/collections/MutableCollection")
	pair("java/util/List", "kotlin/collections/List", "kotlin/collections/MutableList")
	pair("java/util/Set", "kotlin/collections/Set", "kotlin/collections/MutableSet")
	pair("java/util/ListIterator", "kotlin/collections/ListIterator", "kotlin/collections/MutableListIterator")
	pair("java/util/Map", "kotlin/collections/Map", "kotlin/collections/MutableMap")
	pair("java/util/Map.Entry", "kotlin/collections/Map.Entry", "kotlin/collections/MutableMap.MutableEntry")
	return m
}
