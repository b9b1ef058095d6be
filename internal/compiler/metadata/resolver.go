package metadata

import (
	"fmt"

	"github.com/conduit-lang/interop/internal/compiler/names"
)

// NameResolver resolves name table indices of one package record.
type NameResolver struct {
	table []string
}

// NewNameResolver creates a resolver over record's name table.
func NewNameResolver(record *PackageRecord) *NameResolver {
	return &NameResolver{table: record.NameTable}
}

func (r *NameResolver) lookup(i int) (string, error) {
	if i < 0 || i >= len(r.table) {
		return "", fmt.Errorf("%w: name index %d out of range [0, %d)", ErrMalformedRecord, i, len(r.table))
	}
	return r.table[i], nil
}

// Name returns the simple name at index i.
func (r *NameResolver) Name(i int) (names.Name, error) {
	s, err := r.lookup(i)
	if err != nil {
		return "", err
	}
	return names.Name(s), nil
}

// ClassID parses the class id at index i.
func (r *NameResolver) ClassID(i int) (names.ClassID, error) {
	s, err := r.lookup(i)
	if err != nil {
		return names.ClassID{}, err
	}
	id, err := names.ParseClassID(s)
	if err != nil {
		return names.ClassID{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return id, nil
}

// Len returns the number of entries in the name table.
func (r *NameResolver) Len() int {
	return len(r.table)
}
