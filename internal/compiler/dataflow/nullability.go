// Package dataflow tracks flow-sensitive nullability facts about values
// produced by expressions. Facts live in an immutable Info snapshot that the
// type checker threads through a function body, forking at branches and
// merging at joins.
package dataflow

// Nullability is an element of the lattice Unknown ⊑ {NotNull, Null} ⊑ Impossible.
// It is encoded as two flags: whether the value can be null and whether it can
// be non-null.
type Nullability int

const (
	// Unknown means the value may or may not be null
	Unknown Nullability = iota
	// NotNull means the value is never null
	NotNull
	// Null means the value is always null
	Null
	// Impossible marks a contradictory path; nothing is actionable there
	Impossible
)

func fromFlags(canBeNull, canBeNonNull bool) Nullability {
	switch {
	case canBeNull && canBeNonNull:
		return Unknown
	case canBeNonNull:
		return NotNull
	case canBeNull:
		return Null
	}
	return Impossible
}

// CanBeNull reports whether null is a possible value.
func (n Nullability) CanBeNull() bool {
	return n == Unknown || n == Null
}

// CanBeNonNull reports whether a non-null value is possible.
func (n Nullability) CanBeNonNull() bool {
	return n == Unknown || n == NotNull
}

// Meet is the greatest lower bound, used where two control-flow paths join:
// a value is null-capable after the join if it was on either path.
func (n Nullability) Meet(other Nullability) Nullability {
	return fromFlags(n.CanBeNull() || other.CanBeNull(), n.CanBeNonNull() || other.CanBeNonNull())
}

// Refine adds a fact learned on the current path. Refining NotNull with Null
// yields Impossible.
func (n Nullability) Refine(other Nullability) Nullability {
	return fromFlags(n.CanBeNull() && other.CanBeNull(), n.CanBeNonNull() && other.CanBeNonNull())
}

func (n Nullability) String() string {
	switch n {
	case NotNull:
		return "not-null"
	case Null:
		return "null"
	case Impossible:
		return "impossible"
	}
	return "unknown"
}
