package page

import (
	"cmp"
	"sort"

	"dbkernel/pkg/disk"
)

// LeafPage is a typed view over a frame's bytes as a B+Tree leaf: a
// header, a next-page link, and a sorted array of (key, RID) entries.
// Holds up to max_size-1 entries; the slot past the last live entry is
// never read.
type LeafPage[K cmp.Ordered] struct {
	header
	codec     Codec[K]
	entrySize int
}

// entriesOffset is fixed regardless of key width: header plus the
// leaf-only next_page_id field.
const entriesOffset = headerSize + idWidth

// WrapLeafPage interprets an existing page's bytes as a leaf using
// codec for its key type. The caller is responsible for having
// originally created the page with InitLeafPage and the same codec.
func WrapLeafPage[K cmp.Ordered](data []byte, codec Codec[K]) LeafPage[K] {
	return LeafPage[K]{header{data}, codec, codec.Size() + ridSize}
}

// InitLeafPage formats data as a fresh, empty leaf page.
func InitLeafPage[K cmp.Ordered](data []byte, pageID, parentID disk.PageID, maxSize int, codec Codec[K]) LeafPage[K] {
	l := WrapLeafPage(data, codec)
	l.setType(Leaf)
	l.setSize(0)
	l.setMaxSize(maxSize)
	l.setPageID(pageID)
	l.SetParentPageID(parentID)
	l.SetNextPageID(disk.InvalidPageID)
	return l
}

func (l LeafPage[K]) NextPageID() disk.PageID {
	return getPageID(l.data[offNextPageID:])
}

func (l LeafPage[K]) SetNextPageID(id disk.PageID) {
	putPageID(l.data[offNextPageID:], id)
}

func (l LeafPage[K]) slot(i int) []byte {
	off := entriesOffset + i*l.entrySize
	return l.data[off : off+l.entrySize]
}

func (l LeafPage[K]) KeyAt(i int) K {
	return l.codec.Get(l.slot(i))
}

func (l LeafPage[K]) ValueAt(i int) RID {
	return getRID(l.slot(i)[l.codec.Size():])
}

func (l LeafPage[K]) setEntry(i int, key K, val RID) {
	s := l.slot(i)
	l.codec.Put(s, key)
	putRID(s[l.codec.Size():], val)
}

// IsFull reports whether the leaf already holds max_size-1 entries.
func (l LeafPage[K]) IsFull() bool {
	return l.Size() >= l.MaxSize()-1
}

// MinSize is the redistribute/merge threshold: half of max_size, rounded up.
func (l LeafPage[K]) MinSize() int {
	return (l.MaxSize() + 1) / 2
}

// lowerBound returns the smallest index i such that KeyAt(i) >= key.
func (l LeafPage[K]) lowerBound(key K) int {
	n := l.Size()
	return sort.Search(n, func(i int) bool { return l.KeyAt(i) >= key })
}

// Find returns the value for key, if present.
func (l LeafPage[K]) Find(key K) (RID, bool) {
	i := l.lowerBound(key)
	if i < l.Size() && l.KeyAt(i) == key {
		return l.ValueAt(i), true
	}
	return RID{}, false
}

// Locate returns the position key would occupy (its sorted insertion
// point) and whether it is actually present there.
func (l LeafPage[K]) Locate(key K) (int, bool) {
	i := l.lowerBound(key)
	return i, i < l.Size() && l.KeyAt(i) == key
}

// Insert adds (key, value) in sorted position. Returns false if key is
// already present (duplicates are rejected, never overwritten) or the
// leaf has no room.
func (l LeafPage[K]) Insert(key K, val RID) bool {
	i := l.lowerBound(key)
	if i < l.Size() && l.KeyAt(i) == key {
		return false
	}
	if l.IsFull() {
		return false
	}
	n := l.Size()
	for j := n; j > i; j-- {
		l.setEntry(j, l.KeyAt(j-1), l.ValueAt(j-1))
	}
	l.setEntry(i, key, val)
	l.setSize(n + 1)
	return true
}

// Remove deletes key, reporting whether it was present.
func (l LeafPage[K]) Remove(key K) bool {
	i := l.lowerBound(key)
	n := l.Size()
	if i >= n || l.KeyAt(i) != key {
		return false
	}
	for j := i; j < n-1; j++ {
		l.setEntry(j, l.KeyAt(j+1), l.ValueAt(j+1))
	}
	l.setSize(n - 1)
	return true
}

// SplitAndInsert redistributes this leaf's entries (plus the new
// key/value, inserted first) across self and newRight, moving the upper
// half to newRight and linking the next_page_id chain through it.
// Returns the first key of newRight, the separator the parent must
// record.
func (l LeafPage[K]) SplitAndInsert(key K, val RID, newRight LeafPage[K]) K {
	// Materialize the fully-inserted sequence (old entries + the new one,
	// sorted) before dividing it; the leaf has exactly one spare slot
	// reserved for this (max_size entries fit, max_size-1 is "full").
	n := l.Size()
	i := l.lowerBound(key)
	for j := n; j > i; j-- {
		l.setEntry(j, l.KeyAt(j-1), l.ValueAt(j-1))
	}
	l.setEntry(i, key, val)
	total := n + 1

	mid := total / 2
	for j := mid; j < total; j++ {
		newRight.setEntry(j-mid, l.KeyAt(j), l.ValueAt(j))
	}
	l.setSize(mid)
	newRight.setSize(total - mid)

	newRight.SetNextPageID(l.NextPageID())
	l.SetNextPageID(newRight.PageID())
	newRight.SetParentPageID(l.ParentPageID())

	return newRight.KeyAt(0)
}

// MergeRight appends right's entries to the end of self and adopts
// right's next-page link. right is left empty; the caller frees its page.
func (l LeafPage[K]) MergeRight(right LeafPage[K]) {
	n, m := l.Size(), right.Size()
	for j := 0; j < m; j++ {
		l.setEntry(n+j, right.KeyAt(j), right.ValueAt(j))
	}
	l.setSize(n + m)
	l.SetNextPageID(right.NextPageID())
	right.setSize(0)
}

// StealFromLeft moves left's last entry to the front of self, returning
// self's new first key (the parent's updated separator).
func (l LeafPage[K]) StealFromLeft(left LeafPage[K]) K {
	n := l.Size()
	lastKey, lastVal := left.KeyAt(left.Size()-1), left.ValueAt(left.Size()-1)
	for j := n; j > 0; j-- {
		l.setEntry(j, l.KeyAt(j-1), l.ValueAt(j-1))
	}
	l.setEntry(0, lastKey, lastVal)
	l.setSize(n + 1)
	left.setSize(left.Size() - 1)
	return lastKey
}

// StealFromRight moves right's first entry to the end of self, returning
// right's new first key (the parent's updated separator).
func (l LeafPage[K]) StealFromRight(right LeafPage[K]) K {
	n := l.Size()
	firstKey, firstVal := right.KeyAt(0), right.ValueAt(0)
	l.setEntry(n, firstKey, firstVal)
	l.setSize(n + 1)
	m := right.Size()
	for j := 0; j < m-1; j++ {
		right.setEntry(j, right.KeyAt(j+1), right.ValueAt(j+1))
	}
	right.setSize(m - 1)
	return right.KeyAt(0)
}
