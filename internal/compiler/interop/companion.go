package interop

import (
	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
)

// CompanionName is the default name of a companion object.
const CompanionName names.Name = "Companion"

var intrinsicCompanionOwners = map[names.ClassID]bool{
	names.MustParseClassID("kotlin/Char"):   true,
	names.MustParseClassID("kotlin/Byte"):   true,
	names.MustParseClassID("kotlin/Short"):  true,
	names.MustParseClassID("kotlin/Int"):    true,
	names.MustParseClassID("kotlin/Float"):  true,
	names.MustParseClassID("kotlin/Long"):   true,
	names.MustParseClassID("kotlin/Double"): true,
	names.MustParseClassID("kotlin/String"): true,
	names.MustParseClassID("kotlin/Enum"):   true,
}

// ClassesWithIntrinsicCompanions lists the classes whose companion objects
// have no platform class of their own.
func ClassesWithIntrinsicCompanions() []names.ClassID {
	out := make([]names.ClassID, 0, len(intrinsicCompanionOwners))
	for id := range intrinsicCompanionOwners {
		out = append(out, id)
	}
	return out
}

// IsMappedIntrinsicCompanion reports whether c is the companion object of a
// class with an intrinsic companion.
func IsMappedIntrinsicCompanion(c descriptors.ClassDescriptor) bool {
	if c.ClassKind() != descriptors.ClassKindObject || c.Name() != CompanionName {
		return false
	}
	outer, ok := c.ClassID().Outer()
	return ok && intrinsicCompanionOwners[outer]
}
