package types

// Substitution maps constructor keys to replacement types.
type Substitution map[string]Type

// Substitute replaces every use of a substituted constructor in t. A
// nullable use of a parameter makes the replacement nullable.
func Substitute(t Type, s Substitution) Type {
	if len(s) == 0 || t == nil {
		return t
	}
	switch tt := t.(type) {
	case *SimpleType:
		return substituteSimple(tt, s)
	case *FlexibleType:
		lower, upper := substituteSimple(tt.Lower, s), substituteSimple(tt.Upper, s)
		lb, ub := LowerBound(lower), UpperBound(upper)
		ls, lok := lb.(*SimpleType)
		us, uok := ub.(*SimpleType)
		if !lok || !uok {
			return lower
		}
		if ls.Nullable && !us.Nullable {
			return lower
		}
		if ls.Equals(us) {
			return ls
		}
		return &FlexibleType{Lower: ls, Upper: us}
	case *EnhancedType:
		return &EnhancedType{Origin: Substitute(tt.Origin, s), Enhancement: Substitute(tt.Enhancement, s)}
	}
	return t
}

func substituteSimple(t *SimpleType, s Substitution) Type {
	if replacement, ok := s[t.Constructor.Key()]; ok && len(t.Arguments) == 0 {
		if t.Nullable {
			return replacement.MakeNullable()
		}
		return replacement
	}
	if len(t.Arguments) == 0 {
		return t
	}
	args := make([]Type, len(t.Arguments))
	for i, a := range t.Arguments {
		args[i] = Substitute(a, s)
	}
	return &SimpleType{Constructor: t.Constructor, Arguments: args, Nullable: t.Nullable}
}
