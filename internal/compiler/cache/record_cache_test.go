package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
)

func TestRecordCache_SetAndGet(t *testing.T) {
	cache := NewRecordCache()
	record := &metadata.PackageRecord{Package: "kotlin"}

	cache.Set("/cp/kotlin.yml", "abc", record)

	entry, ok := cache.Get("/cp/kotlin.yml")
	require.True(t, ok)
	assert.Same(t, record, entry.Record)
	assert.Equal(t, "abc", entry.Hash)
	assert.Equal(t, []string{"kotlin"}, entry.Packages())

	_, ok = cache.Get("/cp/other.yml")
	assert.False(t, ok)
}

func TestRecordCache_GetByHash(t *testing.T) {
	cache := NewRecordCache()
	entry := cache.SetPlatform("/cp/jdk.platform.yml", "h1", []*interop.PlatformClass{
		{Name: "java/lang/Object"},
		{Name: "java/lang/String"},
		{Name: "java/io/File"},
	})
	assert.Equal(t, []string{"java.lang", "java.io"}, entry.Packages())

	found, ok := cache.GetByHash("h1")
	require.True(t, ok)
	assert.Same(t, entry, found)

	_, ok = cache.GetByHash("h2")
	assert.False(t, ok)

	alias := cache.Alias("/cp/copy.platform.yml", found)
	assert.Equal(t, "/cp/copy.platform.yml", alias.Path)
	assert.Equal(t, 2, cache.Size())
}

func TestRecordCache_Invalidate(t *testing.T) {
	cache := NewRecordCache()
	cache.Set("/a.yml", "1", &metadata.PackageRecord{Package: "a"})
	cache.Set("/b.yml", "2", &metadata.PackageRecord{Package: "b"})

	cache.Invalidate("/a.yml")
	assert.Equal(t, 1, cache.Size())
	assert.Contains(t, cache.All(), "/b.yml")

	cache.InvalidateAll()
	assert.Equal(t, 0, cache.Size())
}

func TestRecordCache_Prune(t *testing.T) {
	cache := NewRecordCache()
	old := cache.Set("/old.yml", "1", &metadata.PackageRecord{Package: "old"})
	cache.Set("/new.yml", "2", &metadata.PackageRecord{Package: "new"})
	old.LastChecked = time.Now().Add(-time.Hour)

	assert.Equal(t, 1, cache.Prune(time.Minute))
	_, ok := cache.Get("/old.yml")
	assert.False(t, ok)

	cache.Touch("/new.yml")
	assert.Equal(t, 0, cache.Prune(time.Minute))
}

func TestRecordCache_Concurrent(t *testing.T) {
	cache := NewRecordCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/cp/" + string(rune('a'+i)) + ".yml"
			cache.Set(path, path, &metadata.PackageRecord{Package: "p"})
			cache.Get(path)
			cache.GetByHash(path)
			cache.Touch(path)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, cache.Size())
}
