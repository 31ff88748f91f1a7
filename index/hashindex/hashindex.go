// Package hashindex exports C1's extendible hash directory as a general,
// in-memory hashed index over string keys, per spec.md §4.1's note that
// the directory is usable beyond the buffer pool's own page table. It
// persists nothing to disk; the directory itself is scoped to
// durability-agnostic, in-memory operation, per SPEC_FULL.md's reading —
// a durable hash index sits outside what spec.md asks for.
package hashindex

import (
	"dbkernel/pkg/hashtable"
	"dbkernel/pkg/page"
)

// defaultBucketSize matches spec.md §4.1's scenario fixtures.
const defaultBucketSize = 4

// Index is a hashed string-key index mapping to record locations.
type Index struct {
	table *hashtable.Table[string, page.RID]
}

// New creates an empty index with the given per-bucket capacity. A
// bucketSize <= 0 uses defaultBucketSize.
func New(bucketSize int) *Index {
	if bucketSize <= 0 {
		bucketSize = defaultBucketSize
	}
	return &Index{table: hashtable.New[string, page.RID](bucketSize, hashtable.StringKey)}
}

// Find returns the record id stored for key.
func (idx *Index) Find(key string) (page.RID, bool) {
	return idx.table.Find(key)
}

// Insert maps key to rid, overwriting any existing mapping.
func (idx *Index) Insert(key string, rid page.RID) {
	idx.table.Insert(key, rid)
}

// Remove deletes key's mapping, reporting whether it was present.
func (idx *Index) Remove(key string) bool {
	return idx.table.Remove(key)
}

// GlobalDepth reports the directory's current global depth, for tests
// and diagnostics.
func (idx *Index) GlobalDepth() int {
	return idx.table.GlobalDepth()
}
