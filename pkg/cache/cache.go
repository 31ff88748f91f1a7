// Package cache layers an optional, best-effort hot-key read cache in
// front of a B+Tree's point lookups. It never participates in the buffer
// pool's pin/evict protocol and never substitutes for C2's LRU-K
// replacer, whose exact eviction order is a tested invariant of this
// module — this is purely an accelerator a caller may attach.
//
// Backed by github.com/dgraph-io/ristretto/v2, the one teacher dependency
// the original repo declared but never imported; this is its home.
package cache

import (
	"github.com/dgraph-io/ristretto/v2"

	"dbkernel/pkg/page"
)

// defaultNumCounters and defaultBufferItems follow ristretto's own
// recommended defaults: ~10x the expected number of cached entries, cost
// tracked as "1 entry = 1 unit".
const (
	defaultNumCounters = 1e6
	defaultBufferItems = 64
)

// Cache is a fixed-cost, W-TinyLFU read cache of recently-looked-up
// key/value pairs, keyed by a tree name so one process can safely share
// a single cache across multiple open trees.
type Cache[K comparable] struct {
	inner *ristretto.Cache[entryKey[K], page.RID]
}

type entryKey[K comparable] struct {
	tree string
	key  K
}

// New creates a cache admitting up to maxEntries hot keys.
func New[K comparable](maxEntries int64) (*Cache[K], error) {
	c, err := ristretto.NewCache(&ristretto.Config[entryKey[K], page.RID]{
		NumCounters: defaultNumCounters,
		MaxCost:     maxEntries,
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[K]{inner: c}, nil
}

// Get returns the cached RID for (tree, key), if present and not yet
// evicted.
func (c *Cache[K]) Get(tree string, key K) (page.RID, bool) {
	return c.inner.Get(entryKey[K]{tree, key})
}

// Set records (tree, key) -> rid as a candidate for caching. Admission is
// probabilistic; a Set is not guaranteed to make the entry retrievable.
func (c *Cache[K]) Set(tree string, key K, rid page.RID) {
	c.inner.Set(entryKey[K]{tree, key}, rid, 1)
}

// Invalidate drops (tree, key), used after an Insert/Remove so the cache
// never serves a stale value.
func (c *Cache[K]) Invalidate(tree string, key K) {
	c.inner.Del(entryKey[K]{tree, key})
}

// Wait blocks until all pending Set/Del calls have been applied; useful
// in tests that assert on cache contents immediately after a write.
func (c *Cache[K]) Wait() {
	c.inner.Wait()
}

// Close releases the cache's background goroutines.
func (c *Cache[K]) Close() {
	c.inner.Close()
}
