package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
)

// LoadMetrics tracks one classpath load.
type LoadMetrics struct {
	TotalFiles     int
	CacheHits      int
	CacheMisses    int
	FilesDecoded   int
	Packages       int
	TotalDuration  time.Duration
	DecodeDuration time.Duration
	StartTime      time.Time
	EndTime        time.Time
}

// CacheHitRate returns the cache hit rate as a percentage.
func (m *LoadMetrics) CacheHitRate() float64 {
	if m.TotalFiles == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(m.TotalFiles) * 100.0
}

// Classpath is the decoded content of a load.
type Classpath struct {
	// Entries are ordered by package dependencies when the packages form no
	// cycle, by URL otherwise.
	Entries []*Entry
	// Cached reports for each entry path whether it came from the cache.
	Cached map[string]bool
}

// Records returns the package records in entry order.
func (c *Classpath) Records() []*metadata.PackageRecord {
	var out []*metadata.PackageRecord
	for _, e := range c.Entries {
		if e.Record != nil {
			out = append(out, e.Record)
		}
	}
	return out
}

// PlatformClasses returns the platform classes in entry order.
func (c *Classpath) PlatformClasses() []*interop.PlatformClass {
	var out []*interop.PlatformClass
	for _, e := range c.Entries {
		out = append(out, e.Platform...)
	}
	return out
}

// ClasspathLoader reads record and platform files below classpath URLs.
// Any afs-supported scheme works; plain paths are local files.
type ClasspathLoader struct {
	fs      afs.Service
	cache   *RecordCache
	graph   *DependencyGraph
	hasher  *RecordHasher
	logger  *zap.Logger
	workers int

	mu      sync.Mutex
	metrics *LoadMetrics
}

// LoaderOption configures a ClasspathLoader.
type LoaderOption func(*ClasspathLoader)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *ClasspathLoader) { l.logger = logger }
}

// WithWorkers bounds the number of files read at once.
func WithWorkers(n int) LoaderOption {
	return func(l *ClasspathLoader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithFileSystem replaces the afs service.
func WithFileSystem(fs afs.Service) LoaderOption {
	return func(l *ClasspathLoader) { l.fs = fs }
}

// NewClasspathLoader creates a loader with an empty cache.
func NewClasspathLoader(opts ...LoaderOption) *ClasspathLoader {
	l := &ClasspathLoader{
		fs:      afs.New(),
		cache:   NewRecordCache(),
		graph:   NewDependencyGraph(),
		hasher:  NewRecordHasher(),
		logger:  zap.NewNop(),
		workers: 4,
		metrics: &LoadMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Graph returns the package dependency graph of everything loaded so far.
func (l *ClasspathLoader) Graph() *DependencyGraph { return l.graph }

// Cache returns the record cache.
func (l *ClasspathLoader) Cache() *RecordCache { return l.cache }

// Load reads every record and platform file below roots. A root may name a
// single file. Unchanged files are served from the cache.
func (l *ClasspathLoader) Load(ctx context.Context, roots []string) (*Classpath, *LoadMetrics, error) {
	start := time.Now()
	l.mu.Lock()
	l.metrics = &LoadMetrics{StartTime: start}
	l.mu.Unlock()

	paths, err := l.list(ctx, roots)
	if err != nil {
		return nil, nil, err
	}
	l.mu.Lock()
	l.metrics.TotalFiles = len(paths)
	l.mu.Unlock()

	entries := make([]*Entry, len(paths))
	cached := make([]bool, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, path := range paths {
		g.Go(func() error {
			entry, hit, err := l.loadFile(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			entries[i], cached[i] = entry, hit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	result := &Classpath{Cached: make(map[string]bool, len(entries))}
	for i, e := range entries {
		l.graph.BuildDependencies(e)
		result.Cached[e.Path] = cached[i]
	}
	result.Entries = l.order(entries)

	end := time.Now()
	l.mu.Lock()
	l.metrics.EndTime = end
	l.metrics.TotalDuration = end.Sub(start)
	l.metrics.Packages = l.graph.Size()
	metrics := *l.metrics
	l.mu.Unlock()

	l.logger.Debug("classpath loaded",
		zap.Int("files", metrics.TotalFiles),
		zap.Int("cache_hits", metrics.CacheHits),
		zap.Duration("duration", metrics.TotalDuration))
	return result, &metrics, nil
}

// list returns the sorted URLs of loadable files below roots.
func (l *ClasspathLoader) list(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}

	for _, root := range roots {
		object, err := l.fs.Object(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("classpath entry %s: %w", root, err)
		}
		if !object.IsDir() {
			if isLoadable(root) {
				add(root)
			}
			continue
		}
		var visit storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, _ io.Reader) (bool, error) {
			if info.IsDir() || !isLoadable(info.Name()) {
				return true, nil
			}
			add(url.Join(url.Join(baseURL, parent), info.Name()))
			return true, nil
		}
		if err := l.fs.Walk(ctx, root, visit); err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

func isLoadable(name string) bool {
	return interop.IsPlatformFile(name) || metadata.IsRecordFile(name)
}

// loadFile returns the entry for path and whether it came from the cache.
func (l *ClasspathLoader) loadFile(ctx context.Context, path string) (*Entry, bool, error) {
	content, err := l.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}
	hash, err := l.hasher.HashContent(content)
	if err != nil {
		return nil, false, err
	}

	if entry, exists := l.cache.Get(path); exists {
		if entry.Hash == hash {
			l.cache.Touch(path)
			l.count(func(m *LoadMetrics) { m.CacheHits++ })
			return entry, true, nil
		}
		l.invalidate(path)
	}

	// content moved or copied from another path
	if entry, exists := l.cache.GetByHash(hash); exists {
		l.count(func(m *LoadMetrics) { m.CacheHits++ })
		return l.cache.Alias(path, entry), true, nil
	}

	l.count(func(m *LoadMetrics) { m.CacheMisses++ })
	decodeStart := time.Now()
	var entry *Entry
	if interop.IsPlatformFile(path) {
		classes, err := interop.DecodePlatformClasses(content)
		if err != nil {
			return nil, false, err
		}
		entry = l.cache.SetPlatform(path, hash, classes)
	} else {
		record, err := metadata.DecodeFile(path, content)
		if err != nil {
			return nil, false, err
		}
		entry = l.cache.Set(path, hash, record)
	}
	elapsed := time.Since(decodeStart)
	l.count(func(m *LoadMetrics) {
		m.FilesDecoded++
		m.DecodeDuration += elapsed
	})
	return entry, false, nil
}

func (l *ClasspathLoader) count(update func(*LoadMetrics)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	update(l.metrics)
}

// order sorts entries so that packages come after the packages their
// supertypes live in. Entries keep URL order when the graph has a cycle.
func (l *ClasspathLoader) order(entries []*Entry) []*Entry {
	order, err := l.graph.TopologicalOrder()
	if err != nil {
		var cycle *CycleError
		if stderrors.As(err, &cycle) {
			l.logger.Debug("package cycle, keeping file order", zap.Strings("packages", cycle.Packages))
		}
		return entries
	}
	rank := make(map[string]int, len(order))
	for i, pkg := range order {
		rank[pkg] = i
	}
	first := func(e *Entry) int {
		best := len(order)
		for _, pkg := range e.Packages() {
			if r, ok := rank[pkg]; ok && r < best {
				best = r
			}
		}
		return best
	}
	out := append([]*Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return first(out[i]) < first(out[j]) })
	return out
}

// Invalidate drops path and every file declaring a package that depends on
// a package of path. It returns the invalidated paths.
func (l *ClasspathLoader) Invalidate(path string) []string {
	return l.invalidate(path)
}

func (l *ClasspathLoader) invalidate(path string) []string {
	invalidated := []string{path}
	entry, exists := l.cache.Get(path)
	l.cache.Invalidate(path)
	if !exists {
		return invalidated
	}
	seen := map[string]bool{path: true}
	for _, pkg := range entry.Packages() {
		for _, dependent := range append([]string{pkg}, l.graph.TransitiveDependents(pkg)...) {
			for _, p := range l.graph.Paths(dependent) {
				if !seen[p] {
					seen[p] = true
					l.cache.Invalidate(p)
					invalidated = append(invalidated, p)
				}
			}
		}
	}
	return invalidated
}

// Metrics returns a copy of the metrics of the last load.
func (l *ClasspathLoader) Metrics() *LoadMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()

	metrics := *l.metrics
	return &metrics
}

// Stats returns cache statistics.
func (l *ClasspathLoader) Stats() map[string]interface{} {
	return map[string]interface{}{
		"cache_size":     l.cache.Size(),
		"dep_graph_size": l.graph.Size(),
	}
}

// Clear drops the cache and the dependency graph.
func (l *ClasspathLoader) Clear() {
	l.cache.InvalidateAll()
	l.graph.Clear()
	l.mu.Lock()
	l.metrics = &LoadMetrics{}
	l.mu.Unlock()
}
