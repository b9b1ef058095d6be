// Package cache keeps decoded classpath files in memory between loads. Files
// are keyed by URL and content hash, and the packages they declare are
// tracked in a dependency graph so a changed file invalidates its dependents.
package cache

import (
	"fmt"

	"github.com/minio/highwayhash"
)

// hashKey is fixed so hashes are stable across processes.
var hashKey = []byte("conduit-interop-record-cache-key")

// RecordHasher computes content hashes for cache keys.
type RecordHasher struct {
	key []byte
}

// NewRecordHasher creates a hasher with the default key.
func NewRecordHasher() *RecordHasher {
	return &RecordHasher{key: hashKey}
}

// HashContent returns the 64-bit HighwayHash of content in hex.
func (h *RecordHasher) HashContent(content []byte) (string, error) {
	hash, err := highwayhash.New64(h.key)
	if err != nil {
		return "", fmt.Errorf("creating hash: %w", err)
	}
	if _, err := hash.Write(content); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}

// HashString hashes s.
func (h *RecordHasher) HashString(s string) (string, error) {
	return h.HashContent([]byte(s))
}
