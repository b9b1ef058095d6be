package dataflow

import (
	"sort"
	"strings"
)

// compactDepth bounds the overlay chain; longer chains are flattened.
const compactDepth = 8

type fact struct {
	value       Value
	nullability Nullability
}

// Info is an immutable snapshot of nullability facts. Every update returns a
// new Info that shares the facts of its parent, so forking at a branch is
// free. The zero value and nil are both the empty snapshot.
type Info struct {
	parent *Info
	facts  map[string]fact
	depth  int
}

// Empty holds no facts.
var Empty = &Info{}

func (i *Info) lookup(id string) (fact, bool) {
	for cur := i; cur != nil; cur = cur.parent {
		if f, ok := cur.facts[id]; ok {
			return f, true
		}
	}
	return fact{}, false
}

func (i *Info) chainDepth() int {
	if i == nil {
		return 0
	}
	return i.depth
}

// StableNullability is the nullability of v on the current path. Unstable
// values and values without recorded facts fall back to their static type.
func (i *Info) StableNullability(v Value) Nullability {
	if !v.IsStable() {
		return v.ImmanentNullability()
	}
	if f, ok := i.lookup(v.ID); ok {
		return f.nullability
	}
	return v.ImmanentNullability()
}

// With records that v has nullability n, replacing any earlier fact.
func (i *Info) With(v Value, n Nullability) *Info {
	return i.extend(map[string]fact{v.ID: {value: v, nullability: n}})
}

// Disequate records that a != b holds. Comparing against a known null makes
// the other side not-null.
func (i *Info) Disequate(a, b Value) *Info {
	na, nb := i.StableNullability(a), i.StableNullability(b)
	updates := make(map[string]fact, 2)
	if nb == Null && a.ID != nullID {
		updates[a.ID] = fact{value: a, nullability: na.Refine(NotNull)}
	}
	if na == Null && b.ID != nullID {
		updates[b.ID] = fact{value: b, nullability: nb.Refine(NotNull)}
	}
	return i.extend(updates)
}

// Equate records that a == b holds; each side takes on what is known of the other.
func (i *Info) Equate(a, b Value) *Info {
	na, nb := i.StableNullability(a), i.StableNullability(b)
	updates := make(map[string]fact, 2)
	if refined := na.Refine(nb); refined != na && a.ID != nullID {
		updates[a.ID] = fact{value: a, nullability: refined}
	}
	if refined := nb.Refine(na); refined != nb && b.ID != nullID {
		updates[b.ID] = fact{value: b, nullability: refined}
	}
	return i.extend(updates)
}

func (i *Info) extend(updates map[string]fact) *Info {
	if len(updates) == 0 {
		if i == nil {
			return Empty
		}
		return i
	}
	next := &Info{parent: i, facts: updates, depth: i.chainDepth() + 1}
	if next.depth >= compactDepth {
		return &Info{facts: next.flatten()}
	}
	return next
}

// flatten collects every visible fact, nearer overlays winning.
func (i *Info) flatten() map[string]fact {
	var chain []*Info
	for cur := i; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	out := make(map[string]fact)
	for k := len(chain) - 1; k >= 0; k-- {
		for id, f := range chain[k].facts {
			out[id] = f
		}
	}
	return out
}

// Len returns the number of values with recorded facts.
func (i *Info) Len() int {
	return len(i.flatten())
}

// Merge joins the facts of two paths. A value keeps a fact only if both
// paths agree on something more precise than its static type.
func Merge(a, b *Info) *Info {
	fa, fb := a.flatten(), b.flatten()
	merged := make(map[string]fact)
	visit := func(f fact) {
		if _, done := merged[f.value.ID]; done {
			return
		}
		n := a.StableNullability(f.value).Meet(b.StableNullability(f.value))
		if n != f.value.ImmanentNullability() {
			merged[f.value.ID] = fact{value: f.value, nullability: n}
		}
	}
	for _, f := range fa {
		visit(f)
	}
	for _, f := range fb {
		visit(f)
	}
	return &Info{facts: merged}
}

func (i *Info) String() string {
	facts := i.flatten()
	ids := make([]string, 0, len(facts))
	for id := range facts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for k, id := range ids {
		parts[k] = id + "=" + facts[id].nullability.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
