package interop

// MemberStatus decides how a member of a platform class is exposed on the
// native class it maps to.
type MemberStatus int

const (
	// StatusNotConsidered members are exposed with a deprecation warning.
	StatusNotConsidered MemberStatus = iota
	// StatusAllow members are exposed as is.
	StatusAllow
	// StatusSuppress members are reachable only through super calls and are
	// dropped from final classes.
	StatusSuppress
	// StatusDrop members are never exposed.
	StatusDrop
)

func (s MemberStatus) String() string {
	return [...]string{"not-considered", "allow", "suppress", "drop"}[s]
}

// NotConsideredMessage is the deprecation message of not-considered members.
const NotConsideredMessage = "This member is not fully supported by Kotlin compiler, so it may be absent or have different signature in next major version"

type signatureSet map[string]struct{}

func newSignatureSet(groups ...[]string) signatureSet {
	s := make(signatureSet)
	for _, g := range groups {
		for _, sig := range g {
			s[sig] = struct{}{}
		}
	}
	return s
}

func (s signatureSet) contains(sig string) bool {
	_, ok := s[sig]
	return ok
}

var dropListSignatures = newSignatureSet(
	inJavaUtil("Collection", "toArray()[Ljava/lang/Object;", "toArray([Ljava/lang/Object;)[Ljava/lang/Object;"),
	[]string{"java/lang/annotation/Annotation.annotationType()Ljava/lang/Class;"},
)

var blackListSignatures = newSignatureSet(
	inJavaLang("Boolean", "booleanValue()Z"),
	inJavaLang("Character", "charValue()C"),
	inJavaUtil("List", "sort(Ljava/util/Comparator;)V"),
	inJavaLang("String",
		"codePointAt(I)I", "codePointBefore(I)I", "codePointCount(II)I", "compareToIgnoreCase(Ljava/lang/String;)I",
		"concat(Ljava/lang/String;)Ljava/lang/String;", "contains(Ljava/lang/CharSequence;)Z",
		"contentEquals(Ljava/lang/CharSequence;)Z", "contentEquals(Ljava/lang/StringBuffer;)Z",
		"endsWith(Ljava/lang/String;)Z", "equalsIgnoreCase(Ljava/lang/String;)Z", "getBytes()[B", "getBytes(II[BI)V",
		"getBytes(Ljava/lang/String;)[B", "getBytes(Ljava/nio/charset/Charset;)[B", "getChars(II[CI)V",
		"indexOf(I)I", "indexOf(II)I", "indexOf(Ljava/lang/String;)I", "indexOf(Ljava/lang/String;I)I",
		"intern()Ljava/lang/String;", "isEmpty()Z", "lastIndexOf(I)I", "lastIndexOf(II)I",
		"lastIndexOf(Ljava/lang/String;)I", "lastIndexOf(Ljava/lang/String;I)I", "matches(Ljava/lang/String;)Z",
		"offsetByCodePoints(II)I", "regionMatches(ILjava/lang/String;II)Z", "regionMatches(ZILjava/lang/String;II)Z",
		"replaceAll(Ljava/lang/String;Ljava/lang/String;)Ljava/lang/String;", "replace(CC)Ljava/lang/String;",
		"replaceFirst(Ljava/lang/String;Ljava/lang/String;)Ljava/lang/String;",
		"replace(Ljava/lang/CharSequence;Ljava/lang/CharSequence;)Ljava/lang/String;",
		"split(Ljava/lang/String;I)[Ljava/lang/String;", "split(Ljava/lang/String;)[Ljava/lang/String;",
		"startsWith(Ljava/lang/String;I)Z", "startsWith(Ljava/lang/String;)Z", "substring(II)Ljava/lang/String;",
		"substring(I)Ljava/lang/String;", "toCharArray()[C", "toLowerCase()Ljava/lang/String;",
		"toLowerCase(Ljava/util/Locale;)Ljava/lang/String;", "toUpperCase()Ljava/lang/String;",
		"toUpperCase(Ljava/util/Locale;)Ljava/lang/String;", "trim()Ljava/lang/String;"),
	inJavaLang("Double", "isInfinite()Z", "isNaN()Z"),
	inJavaLang("Float", "isInfinite()Z", "isNaN()Z"),
	inJavaLang("Enum", "getDeclaringClass()Ljava/lang/Class;", "finalize()V"),
)

var whiteListSignatures = newSignatureSet(
	inJavaLang("CharSequence", "codePoints()Ljava/util/stream/IntStream;", "chars()Ljava/util/stream/IntStream;"),
	inJavaUtil("Iterator", "forEachRemaining(Ljava/util/function/Consumer;)V"),
	inJavaLang("Iterable", "forEach(Ljava/util/function/Consumer;)V", "spliterator()Ljava/util/Spliterator;"),
	inJavaLang("Throwable",
		"setStackTrace([Ljava/lang/StackTraceElement;)V", "fillInStackTrace()Ljava/lang/Throwable;",
		"getLocalizedMessage()Ljava/lang/String;", "printStackTrace()V", "printStackTrace(Ljava/io/PrintStream;)V",
		"printStackTrace(Ljava/io/PrintWriter;)V", "getStackTrace()[Ljava/lang/StackTraceElement;",
		"initCause(Ljava/lang/Throwable;)Ljava/lang/Throwable;", "getSuppressed()[Ljava/lang/Throwable;",
		"addSuppressed(Ljava/lang/Throwable;)V"),
	inJavaUtil("Collection",
		"spliterator()Ljava/util/Spliterator;", "parallelStream()Ljava/util/stream/Stream;",
		"stream()Ljava/util/stream/Stream;", "removeIf(Ljava/util/function/Predicate;)Z"),
	inJavaUtil("List", "replaceAll(Ljava/util/function/UnaryOperator;)V"),
	inJavaUtil("Map",
		"getOrDefault(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;",
		"forEach(Ljava/util/function/BiConsumer;)V", "replaceAll(Ljava/util/function/BiFunction;)V",
		"merge(Ljava/lang/Object;Ljava/lang/Object;Ljava/util/function/BiFunction;)Ljava/lang/Object;",
		"computeIfPresent(Ljava/lang/Object;Ljava/util/function/BiFunction;)Ljava/lang/Object;",
		"putIfAbsent(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;",
		"replace(Ljava/lang/Object;Ljava/lang/Object;Ljava/lang/Object;)Z",
		"replace(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;",
		"computeIfAbsent(Ljava/lang/Object;Ljava/util/function/Function;)Ljava/lang/Object;",
		"compute(Ljava/lang/Object;Ljava/util/function/BiFunction;)Ljava/lang/Object;"),
)

// mutableSignatures are the members that only make sense on mutable collections.
var mutableSignatures = newSignatureSet(
	inJavaUtil("Collection", "removeIf(Ljava/util/function/Predicate;)Z"),
	inJavaUtil("List", "replaceAll(Ljava/util/function/UnaryOperator;)V", "sort(Ljava/util/Comparator;)V"),
	inJavaUtil("Map",
		"computeIfAbsent(Ljava/lang/Object;Ljava/util/function/Function;)Ljava/lang/Object;",
		"computeIfPresent(Ljava/lang/Object;Ljava/util/function/BiFunction;)Ljava/lang/Object;",
		"compute(Ljava/lang/Object;Ljava/util/function/BiFunction;)Ljava/lang/Object;",
		"merge(Ljava/lang/Object;Ljava/lang/Object;Ljava/util/function/BiFunction;)Ljava/lang/Object;",
		"putIfAbsent(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;",
		"remove(Ljava/lang/Object;Ljava/lang/Object;)Z", "replaceAll(Ljava/util/function/BiFunction;)V",
		"replace(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;",
		"replace(Ljava/lang/Object;Ljava/lang/Object;Ljava/lang/Object;)Z"),
)

var blackListConstructorSignatures = newSignatureSet(
	inJavaLang("Boolean", constructors("Ljava/lang/String;")...),
	inJavaLang("Byte", constructors("Ljava/lang/String;")...),
	inJavaLang("Double", constructors("Ljava/lang/String;")...),
	inJavaLang("Float", constructors("Ljava/lang/String;")...),
	inJavaLang("Integer", constructors("Ljava/lang/String;")...),
	inJavaLang("Long", constructors("Ljava/lang/String;")...),
	inJavaLang("Short", constructors("Ljava/lang/String;")...),
	inJavaLang("Float", constructors("D")...),
	inJavaLang("String", constructors(
		"[C", "[CII", "[III", "[BIILjava/lang/String;",
		"[BIILjava/nio/charset/Charset;",
		"[BLjava/lang/String;",
		"[BLjava/nio/charset/Charset;",
		"[BII", "[B",
		"Ljava/lang/StringBuffer;",
		"Ljava/lang/StringBuilder;",
	)...),
)

var whiteListConstructorSignatures = newSignatureSet(
	inJavaLang("Throwable", constructors("Ljava/lang/String;Ljava/lang/Throwable;ZZ")...),
)

// ListedStatus returns the status a signature is listed with, if any.
func ListedStatus(signature string) (MemberStatus, bool) {
	switch {
	case blackListSignatures.contains(signature):
		return StatusSuppress, true
	case whiteListSignatures.contains(signature):
		return StatusAllow, true
	case dropListSignatures.contains(signature):
		return StatusDrop, true
	}
	return StatusNotConsidered, false
}

// IsMutableSignature reports whether signature mutates its receiver.
func IsMutableSignature(signature string) bool {
	return mutableSignatures.contains(signature)
}
