package cache

import (
	"sort"
	"sync"

	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
	"github.com/conduit-lang/interop/internal/compiler/names"
)

// PackageDependency is one package node and the files declaring it.
type PackageDependency struct {
	Package    string   // Package fq name
	Paths      []string // Files declaring the package
	DependsOn  []string // Packages this package's supertypes live in
	DependedBy []string // Packages whose supertypes live here
}

// DependencyGraph tracks supertype dependencies between packages.
type DependencyGraph struct {
	nodes map[string]*PackageDependency
	mu    sync.RWMutex
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*PackageDependency),
	}
}

func (dg *DependencyGraph) node(pkg string) *PackageDependency {
	n, exists := dg.nodes[pkg]
	if !exists {
		n = &PackageDependency{Package: pkg}
		dg.nodes[pkg] = n
	}
	return n
}

// AddPackage records that path declares pkg.
func (dg *DependencyGraph) AddPackage(pkg, path string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	n := dg.node(pkg)
	if path != "" && !contains(n.Paths, path) {
		n.Paths = append(n.Paths, path)
	}
}

// AddDependency records that from depends on to. Self edges are ignored.
func (dg *DependencyGraph) AddDependency(from, to string) {
	if from == to {
		return
	}
	dg.mu.Lock()
	defer dg.mu.Unlock()

	f, t := dg.node(from), dg.node(to)
	if !contains(f.DependsOn, to) {
		f.DependsOn = append(f.DependsOn, to)
	}
	if !contains(t.DependedBy, from) {
		t.DependedBy = append(t.DependedBy, from)
	}
}

// Dependencies returns the packages pkg depends on.
func (dg *DependencyGraph) Dependencies(pkg string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	if n, exists := dg.nodes[pkg]; exists {
		return append([]string{}, n.DependsOn...)
	}
	return []string{}
}

// Dependents returns the packages depending on pkg.
func (dg *DependencyGraph) Dependents(pkg string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	if n, exists := dg.nodes[pkg]; exists {
		return append([]string{}, n.DependedBy...)
	}
	return []string{}
}

// Paths returns the files declaring pkg.
func (dg *DependencyGraph) Paths(pkg string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	if n, exists := dg.nodes[pkg]; exists {
		return append([]string{}, n.Paths...)
	}
	return []string{}
}

// TransitiveDependents returns every package depending on pkg directly or
// indirectly, each once.
func (dg *DependencyGraph) TransitiveDependents(pkg string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	visited := map[string]bool{pkg: true}
	result := make([]string, 0)

	var visit func(string)
	visit = func(p string) {
		n, exists := dg.nodes[p]
		if !exists {
			return
		}
		for _, dependent := range n.DependedBy {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true
			result = append(result, dependent)
			visit(dependent)
		}
	}

	visit(pkg)
	return result
}

// Independent returns the packages without dependencies, sorted.
func (dg *DependencyGraph) Independent() []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	result := make([]string, 0)
	for pkg, n := range dg.nodes {
		if len(n.DependsOn) == 0 {
			result = append(result, pkg)
		}
	}
	sort.Strings(result)
	return result
}

// TopologicalOrder returns packages with dependencies first. Ties are broken
// by name so the order is stable.
func (dg *DependencyGraph) TopologicalOrder() ([]string, error) {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	inDegree := make(map[string]int, len(dg.nodes))
	for pkg, n := range dg.nodes {
		inDegree[pkg] = len(n.DependsOn)
	}

	queue := make([]string, 0)
	for pkg, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, pkg)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(dg.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		var ready []string
		for _, dependent := range dg.nodes[current].DependedBy {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(result) != len(dg.nodes) {
		var cycle []string
		for pkg, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, pkg)
			}
		}
		sort.Strings(cycle)
		return nil, &CycleError{
			Message:  "circular supertype dependency between packages",
			Packages: cycle,
		}
	}
	return result, nil
}

// RemovePackage removes pkg and its edges.
func (dg *DependencyGraph) RemovePackage(pkg string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	n, exists := dg.nodes[pkg]
	if !exists {
		return
	}
	for _, dependent := range n.DependedBy {
		if d, ok := dg.nodes[dependent]; ok {
			d.DependsOn = removeString(d.DependsOn, pkg)
		}
	}
	for _, dependency := range n.DependsOn {
		if d, ok := dg.nodes[dependency]; ok {
			d.DependedBy = removeString(d.DependedBy, pkg)
		}
	}
	delete(dg.nodes, pkg)
}

// Clear removes every node.
func (dg *DependencyGraph) Clear() {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	dg.nodes = make(map[string]*PackageDependency)
}

// Size returns the number of packages in the graph.
func (dg *DependencyGraph) Size() int {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	return len(dg.nodes)
}

// BuildDependencies adds the packages of entry and an edge to the package
// of every supertype declared in it.
func (dg *DependencyGraph) BuildDependencies(entry *Entry) {
	switch {
	case entry.Record != nil:
		dg.buildFromRecord(entry.Path, entry.Record)
	default:
		dg.buildFromPlatform(entry.Path, entry.Platform)
	}
}

func (dg *DependencyGraph) buildFromRecord(path string, record *metadata.PackageRecord) {
	dg.AddPackage(record.Package, path)
	resolver := metadata.NewNameResolver(record)
	for _, class := range record.Classes {
		for _, super := range class.Supertypes {
			if super.Class == nil {
				continue
			}
			id, err := resolver.ClassID(*super.Class)
			if err != nil {
				continue
			}
			dg.AddDependency(record.Package, id.Package.String())
		}
	}
}

func (dg *DependencyGraph) buildFromPlatform(path string, classes []*interop.PlatformClass) {
	for _, class := range classes {
		id, err := class.ClassID()
		if err != nil {
			continue
		}
		pkg := id.Package.String()
		dg.AddPackage(pkg, path)
		for _, super := range class.Supertypes {
			if super.Class == "" || super.IsPrimitive() {
				continue
			}
			superID, err := names.ParseClassID(super.Class)
			if err != nil {
				continue
			}
			dg.AddDependency(pkg, superID.Package.String())
		}
	}
}

// CycleError reports packages whose supertypes depend on each other.
type CycleError struct {
	Message  string
	Packages []string
}

func (e *CycleError) Error() string {
	return e.Message
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func removeString(slice []string, item string) []string {
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if s != item {
			result = append(result, s)
		}
	}
	return result
}
