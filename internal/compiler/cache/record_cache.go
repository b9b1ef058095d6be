package cache

import (
	"sync"
	"time"

	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
)

// Entry is one decoded classpath file. Exactly one of Record and Platform
// is set.
type Entry struct {
	Path        string
	Hash        string
	Record      *metadata.PackageRecord
	Platform    []*interop.PlatformClass
	CachedAt    time.Time
	LastChecked time.Time
}

// Packages lists the packages the entry declares.
func (e *Entry) Packages() []string {
	if e.Record != nil {
		return []string{e.Record.Package}
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range e.Platform {
		id, err := c.ClassID()
		if err != nil {
			continue
		}
		pkg := id.Package.String()
		if !seen[pkg] {
			seen[pkg] = true
			out = append(out, pkg)
		}
	}
	return out
}

// RecordCache holds decoded files between loads.
type RecordCache struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewRecordCache creates an empty cache.
func NewRecordCache() *RecordCache {
	return &RecordCache{
		entries: make(map[string]*Entry),
	}
}

// Get returns the entry cached for path.
// LastChecked is only updated by Set and Touch, never under the read lock.
func (c *RecordCache) Get(path string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	return entry, exists
}

// GetByHash returns any entry with the given content hash.
func (c *RecordCache) GetByHash(hash string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.entries {
		if entry.Hash == hash {
			return entry, true
		}
	}
	return nil, false
}

// Set stores a decoded record file.
func (c *RecordCache) Set(path, hash string, record *metadata.PackageRecord) *Entry {
	return c.store(&Entry{Path: path, Hash: hash, Record: record})
}

// SetPlatform stores a decoded platform class file.
func (c *RecordCache) SetPlatform(path, hash string, classes []*interop.PlatformClass) *Entry {
	return c.store(&Entry{Path: path, Hash: hash, Platform: classes})
}

// Alias stores the content of entry under another path.
func (c *RecordCache) Alias(path string, entry *Entry) *Entry {
	return c.store(&Entry{Path: path, Hash: entry.Hash, Record: entry.Record, Platform: entry.Platform})
}

func (c *RecordCache) store(entry *Entry) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry.CachedAt = now
	entry.LastChecked = now
	c.entries[entry.Path] = entry
	return entry
}

// Touch marks path as still in use.
func (c *RecordCache) Touch(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[path]; ok {
		entry.LastChecked = time.Now()
	}
}

// Invalidate removes the entry for path.
func (c *RecordCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// InvalidateAll clears the cache.
func (c *RecordCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
}

// Size returns the number of cached entries.
func (c *RecordCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// All returns a copy of the cached entries by path.
func (c *RecordCache) All() map[string]*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]*Entry, len(c.entries))
	for k, v := range c.entries {
		result[k] = v
	}
	return result
}

// Prune removes entries not checked within maxAge and returns how many.
func (c *RecordCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	pruned := 0
	for path, entry := range c.entries {
		if now.Sub(entry.LastChecked) > maxAge {
			delete(c.entries, path)
			pruned++
		}
	}
	return pruned
}
