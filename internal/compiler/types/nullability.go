package types

// Provenance records where a nullability fact comes from.
type Provenance int

const (
	// FromSource facts come from the native type system and are precise.
	FromSource Provenance = iota
	// FromPlatform facts are inferred from foreign annotations and only warrant warnings.
	FromPlatform
)

func (p Provenance) String() string {
	if p == FromPlatform {
		return "platform"
	}
	return "source"
}

// EnhancementInfo is the outcome of a nullability probe.
type EnhancementInfo struct {
	Type       Type
	Provenance Provenance
}

// IsFromPlatform reports whether the fact was inferred from the platform.
func (e *EnhancementInfo) IsFromPlatform() bool {
	return e != nil && e.Provenance == FromPlatform
}

// IsFromSource reports whether the fact is native.
func (e *EnhancementInfo) IsFromSource() bool {
	return e != nil && e.Provenance == FromSource
}

// IsFlexible reports whether t has distinct lower and upper bounds.
func IsFlexible(t Type) bool {
	switch t.(type) {
	case *FlexibleType, *DynamicType:
		return true
	}
	return false
}

// IsError reports whether t is an unresolved type.
func IsError(t Type) bool {
	_, ok := t.(*ErrorType)
	return ok
}

// Unwrap strips an enhancement wrapper, returning the declared type.
func Unwrap(t Type) Type {
	if e, ok := t.(*EnhancedType); ok {
		return e.Origin
	}
	return t
}

// LowerBound returns the lower bound of a flexible type, or t itself.
func LowerBound(t Type) Type {
	switch tt := Unwrap(t).(type) {
	case *FlexibleType:
		return tt.Lower
	case *DynamicType:
		lower, _ := tt.Bounds()
		return lower
	}
	return t
}

// UpperBound returns the upper bound of a flexible type, or t itself.
func UpperBound(t Type) Type {
	switch tt := Unwrap(t).(type) {
	case *FlexibleType:
		return tt.Upper
	case *DynamicType:
		_, upper := tt.Bounds()
		return upper
	}
	return t
}

// AcceptsNullable reports whether null is a valid value of t.
func AcceptsNullable(t Type) bool {
	if e, ok := t.(*EnhancedType); ok {
		return AcceptsNullable(e.Enhancement)
	}
	if t.IsMarkedNullable() {
		return true
	}
	if IsFlexible(t) {
		return AcceptsNullable(UpperBound(t))
	}
	return false
}

// MustNotBeNull reports whether t forbids null, and whether that follows
// from the declared type or only from a platform enhancement.
func MustNotBeNull(t Type) *EnhancementInfo {
	declared := Unwrap(t)
	switch {
	case !IsError(declared) && !IsFlexible(declared) && !AcceptsNullable(declared):
		return &EnhancementInfo{Type: t, Provenance: FromSource}
	case IsFlexible(declared) && !AcceptsNullable(UpperBound(declared)):
		return &EnhancementInfo{Type: t, Provenance: FromSource}
	}
	if e, ok := t.(*EnhancedType); ok && MustNotBeNull(e.Enhancement) != nil {
		return &EnhancementInfo{Type: e.Enhancement, Provenance: FromPlatform}
	}
	return nil
}

// MayBeNull reports whether t admits null, and whether that follows from the
// declared type or from platform ambiguity. A flexible type whose lower bound
// is not-null may still be null at runtime; that is a platform fact.
func MayBeNull(t Type) *EnhancementInfo {
	declared := Unwrap(t)
	switch {
	case !IsError(declared) && !IsFlexible(declared) && AcceptsNullable(declared):
		return &EnhancementInfo{Type: t, Provenance: FromSource}
	case IsFlexible(declared) && AcceptsNullable(LowerBound(declared)):
		return &EnhancementInfo{Type: t, Provenance: FromSource}
	}
	if e, ok := t.(*EnhancedType); ok {
		if MayBeNull(e.Enhancement) != nil {
			return &EnhancementInfo{Type: e.Enhancement, Provenance: FromPlatform}
		}
		return nil
	}
	if IsFlexible(declared) && AcceptsNullable(UpperBound(declared)) {
		return &EnhancementInfo{Type: UpperBound(declared), Provenance: FromPlatform}
	}
	return nil
}
