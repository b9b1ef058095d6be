package deserialization

import (
	"fmt"
	"sort"
	"sync"

	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
)

// ClassData is the record of one class together with its package record,
// whose name table the class indexes into.
type ClassData struct {
	Package *metadata.PackageRecord
	Class   *metadata.ClassRecord
	Names   *metadata.NameResolver
}

// ClassDataFinder locates the record of a class.
type ClassDataFinder interface {
	FindClassData(id names.ClassID) (*ClassData, bool)
	// PackageRecords returns every record contributing to package fq.
	PackageRecords(fq names.FqName) []*metadata.PackageRecord
	// SubPackagesOf returns the direct sub-packages of fq that have records.
	SubPackagesOf(fq names.FqName) []names.FqName
}

// RecordClassDataFinder indexes a fixed set of package records.
type RecordClassDataFinder struct {
	mu       sync.RWMutex
	classes  map[names.ClassID]*ClassData
	packages map[names.FqName][]*metadata.PackageRecord
	problems []error
}

// NewRecordClassDataFinder indexes records.
func NewRecordClassDataFinder(records ...*metadata.PackageRecord) *RecordClassDataFinder {
	f := &RecordClassDataFinder{
		classes:  make(map[names.ClassID]*ClassData),
		packages: make(map[names.FqName][]*metadata.PackageRecord),
	}
	for _, r := range records {
		f.Add(r)
	}
	return f
}

// Add indexes one more record. Classes whose name cannot be resolved are
// left out and listed by Problems; a class declared twice keeps the first record.
func (f *RecordClassDataFinder) Add(record *metadata.PackageRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fq := names.FqName(record.Package)
	f.packages[fq] = append(f.packages[fq], record)

	resolver := metadata.NewNameResolver(record)
	for i := range record.Classes {
		class := &record.Classes[i]
		id, err := resolver.ClassID(class.Name)
		if err != nil {
			f.problems = append(f.problems, fmt.Errorf("package %s, class #%d: %w", record.Package, i, err))
			continue
		}
		if id.Package != fq {
			f.problems = append(f.problems, fmt.Errorf("%w: class %s declared in package %s", metadata.ErrMalformedRecord, id, fq))
			continue
		}
		if _, exists := f.classes[id]; exists {
			continue
		}
		f.classes[id] = &ClassData{Package: record, Class: class, Names: resolver}
	}
}

// FindClassData returns the record declaring id.
func (f *RecordClassDataFinder) FindClassData(id names.ClassID) (*ClassData, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.classes[id]
	return data, ok
}

// PackageRecords returns the records of package fq in insertion order.
func (f *RecordClassDataFinder) PackageRecords(fq names.FqName) []*metadata.PackageRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*metadata.PackageRecord(nil), f.packages[fq]...)
}

// SubPackagesOf returns the direct sub-packages of fq, sorted.
func (f *RecordClassDataFinder) SubPackagesOf(fq names.FqName) []names.FqName {
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := make(map[names.FqName]bool)
	for pkg := range f.packages {
		if pkg == fq || !pkg.StartsWith(fq) {
			continue
		}
		segments := pkg.Segments()
		depth := len(fq.Segments())
		seen[fq.Child(segments[depth])] = true
	}
	out := make([]names.FqName, 0, len(seen))
	for pkg := range seen {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Packages returns every indexed package, sorted.
func (f *RecordClassDataFinder) Packages() []names.FqName {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]names.FqName, 0, len(f.packages))
	for pkg := range f.packages {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClassIDs returns the top-level and nested classes of package fq, sorted.
func (f *RecordClassDataFinder) ClassIDs(fq names.FqName) []names.ClassID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []names.ClassID
	for id := range f.classes {
		if id.Package == fq {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Problems returns the indexing failures.
func (f *RecordClassDataFinder) Problems() []error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]error(nil), f.problems...)
}
