// Package hashtable implements an in-memory extendible hash directory:
// a resizable array of bucket pointers addressed by the low bits of a
// key's hash, where buckets split independently of one another and the
// directory only doubles when a bucket's local depth catches up to the
// directory's global depth.
//
// Grounded on original_source/src/container/hash/extendible_hash_table.cpp.
// The directory-doubling-by-pointer-duplication trick, the split
// condition (local depth == global depth forces a resize first), and the
// entry-redistribution rule (compare the index at the new local depth
// against the index at the old local depth) are carried over unchanged.
package hashtable

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Table is a generic extendible hash directory mapping keys of type K to
// values of type V. It is safe for concurrent use.
type Table[K comparable, V any] struct {
	mu          sync.Mutex
	globalDepth int
	bucketSize  int
	numBuckets  int
	dir         []*bucket[K, V]
	keyBytes    func(K) []byte
}

type entry[K comparable, V any] struct {
	key K
	val V
}

type bucket[K comparable, V any] struct {
	depth int
	items []entry[K, V]
}

func newBucket[K comparable, V any](size, depth int) *bucket[K, V] {
	return &bucket[K, V]{depth: depth, items: make([]entry[K, V], 0, size)}
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for _, e := range b.items {
		if e.key == key {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i, e := range b.items {
		if e.key == key {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

func (b *bucket[K, V]) full(bucketSize int) bool {
	return len(b.items) >= bucketSize
}

// insert updates key in place if present, otherwise appends. Returns
// false if the bucket is full and key is not already present.
func (b *bucket[K, V]) insert(key K, val V, bucketSize int) bool {
	for i, e := range b.items {
		if e.key == key {
			b.items[i].val = val
			return true
		}
	}
	if b.full(bucketSize) {
		return false
	}
	b.items = append(b.items, entry[K, V]{key, val})
	return true
}

// New creates a directory with a single bucket of the given capacity.
// keyBytes serializes a key to bytes for hashing with xxhash; callers
// with a natural byte encoding (strings, fixed-width integers) should
// supply a cheap, allocation-free encoder where possible.
func New[K comparable, V any](bucketSize int, keyBytes func(K) []byte) *Table[K, V] {
	t := &Table[K, V]{
		bucketSize: bucketSize,
		numBuckets: 1,
		keyBytes:   keyBytes,
	}
	t.dir = []*bucket[K, V]{newBucket[K, V](bucketSize, 0)}
	return t
}

func (t *Table[K, V]) hash(key K) uint64 {
	return xxhash.Sum64(t.keyBytes(key))
}

func (t *Table[K, V]) indexOf(key K, depth int) int {
	mask := uint64(1<<depth) - 1
	return int(t.hash(key) & mask)
}

// GlobalDepth returns the directory's current global depth.
func (t *Table[K, V]) GlobalDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.globalDepth
}

// LocalDepth returns the local depth of the bucket at directory slot
// dirIndex.
func (t *Table[K, V]) LocalDepth(dirIndex int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir[dirIndex].depth
}

// NumBuckets returns the number of distinct buckets (not directory
// slots, which may alias the same bucket).
func (t *Table[K, V]) NumBuckets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numBuckets
}

// Find looks up key, returning its value and whether it was present.
func (t *Table[K, V]) Find(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.indexOf(key, t.globalDepth)
	return t.dir[idx].find(key)
}

// Remove deletes key, reporting whether it was present. Buckets are
// never merged back together on removal, matching the reference
// implementation.
func (t *Table[K, V]) Remove(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.indexOf(key, t.globalDepth)
	return t.dir[idx].remove(key)
}

// Insert adds or updates key's mapping to val, growing the directory and
// splitting buckets as needed.
func (t *Table[K, V]) Insert(key K, val V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(key, t.globalDepth)
	for !t.dir[idx].insert(key, val, t.bucketSize) {
		if t.dir[idx].depth == t.globalDepth {
			t.grow()
		}
		idx = t.indexOf(key, t.globalDepth)
		t.split(idx)
		idx = t.indexOf(key, t.globalDepth)
	}
}

// grow doubles the directory, duplicating each existing slot's bucket
// pointer into the new upper half.
func (t *Table[K, V]) grow() {
	old := t.dir
	oldSize := len(old)
	t.dir = make([]*bucket[K, V], oldSize*2)
	mask := oldSize - 1
	for i := range t.dir {
		t.dir[i] = old[i&mask]
	}
	t.globalDepth++
}

// split divides the bucket at dirIndex in two, redistributing its
// entries by comparing the hash index at the bucket's new (incremented)
// depth against the index at its old depth: entries whose new index
// differs move to the freshly allocated sibling bucket.
func (t *Table[K, V]) split(dirIndex int) {
	oldBucket := t.dir[dirIndex]
	oldDepth := oldBucket.depth
	newDepth := oldDepth + 1
	oldBucket.depth = newDepth
	newBkt := newBucket[K, V](t.bucketSize, newDepth)
	t.numBuckets++

	kept := oldBucket.items[:0]
	for _, e := range oldBucket.items {
		if t.indexOf(e.key, newDepth) != t.indexOf(e.key, oldDepth) {
			newBkt.items = append(newBkt.items, e)
		} else {
			kept = append(kept, e)
		}
	}
	oldBucket.items = kept

	oldDepthMask := uint64(1<<oldDepth) - 1
	newDepthMask := uint64(1<<newDepth) - 1
	for i, b := range t.dir {
		if b != oldBucket {
			continue
		}
		if uint64(i)&newDepthMask != uint64(i)&oldDepthMask {
			t.dir[i] = newBkt
		}
	}
}
