package page

import (
	"cmp"

	"dbkernel/pkg/disk"
)

// InternalPage is a typed view over a frame's bytes as a B+Tree internal
// node: a header followed directly by a sorted array of (key, child
// page id) pairs. Slot 0's key is reserved/invalid; its child is always
// valid. Holds up to max_size children.
type InternalPage[K cmp.Ordered] struct {
	header
	codec     Codec[K]
	entrySize int
}

func WrapInternalPage[K cmp.Ordered](data []byte, codec Codec[K]) InternalPage[K] {
	return InternalPage[K]{header{data}, codec, codec.Size() + idWidth}
}

// InitInternalPage formats data as a fresh, empty internal page (size 0).
// A new root gets its first child through SetOnlyChild; a split's new
// right page is filled by SplitAndInsert.
func InitInternalPage[K cmp.Ordered](data []byte, pageID, parentID disk.PageID, maxSize int, codec Codec[K]) InternalPage[K] {
	n := WrapInternalPage(data, codec)
	n.setType(Internal)
	n.setSize(0)
	n.setMaxSize(maxSize)
	n.setPageID(pageID)
	n.SetParentPageID(parentID)
	return n
}

func (n InternalPage[K]) slot(i int) []byte {
	off := headerSize + i*n.entrySize
	return n.data[off : off+n.entrySize]
}

func (n InternalPage[K]) KeyAt(i int) K {
	return n.codec.Get(n.slot(i))
}

func (n InternalPage[K]) ChildAt(i int) disk.PageID {
	return getPageID(n.slot(i)[n.codec.Size():])
}

func (n InternalPage[K]) setEntry(i int, key K, child disk.PageID) {
	s := n.slot(i)
	n.codec.Put(s, key)
	putPageID(s[n.codec.Size():], child)
}

func (n InternalPage[K]) setKeyAt(i int, key K) {
	n.codec.Put(n.slot(i), key)
}

// IsFull reports whether the page already holds max_size children.
func (n InternalPage[K]) IsFull() bool {
	return n.Size() >= n.MaxSize()
}

// MinSize is the redistribute/merge threshold for a non-root internal
// page: ceil(max_size/2), but never below 2 — a non-root internal page
// must always keep at least one separator key.
func (n InternalPage[K]) MinSize() int {
	min := (n.MaxSize() + 1) / 2
	if min < 2 {
		return 2
	}
	return min
}

// SetOnlyChild formats the page as holding a single child with no keys,
// used when promoting a new root after the old root splits.
func (n InternalPage[K]) SetOnlyChild(child disk.PageID) {
	var zero K
	n.setEntry(0, zero, child)
	n.setSize(1)
}

// FindChild returns the child pointer to follow for key: the largest
// slot i >= 1 with KeyAt(i) <= key, or child 0 if none qualifies.
func (n InternalPage[K]) FindChild(key K) disk.PageID {
	lo, hi := 1, n.Size()-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if n.KeyAt(mid) <= key {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return n.ChildAt(lo - 1)
}

// InsertAfter inserts (key, rChild) immediately after the slot whose
// child is lChild, shifting later entries right. Reports false if
// lChild is not found among the page's children.
func (n InternalPage[K]) InsertAfter(lChild disk.PageID, key K, rChild disk.PageID) bool {
	i := -1
	for j := 0; j < n.Size(); j++ {
		if n.ChildAt(j) == lChild {
			i = j
			break
		}
	}
	if i == -1 {
		return false
	}
	size := n.Size()
	for j := size; j > i+1; j-- {
		n.setEntry(j, n.KeyAt(j-1), n.ChildAt(j-1))
	}
	n.setEntry(i+1, key, rChild)
	n.setSize(size + 1)
	return true
}

// SplitAndInsert inserts (key, rChild) after lChild as InsertAfter does,
// then divides the resulting entries across self and newRight, promoting
// the middle key to the caller (the key the parent must record for
// newRight, and which is cleared from newRight's own slot 0).
func (n InternalPage[K]) SplitAndInsert(lChild disk.PageID, key K, rChild disk.PageID, newRight InternalPage[K]) K {
	n.InsertAfter(lChild, key, rChild)
	total := n.Size()
	mid := total / 2
	promoted := n.KeyAt(mid)

	var zero K
	for j := mid; j < total; j++ {
		if j == mid {
			newRight.setEntry(0, zero, n.ChildAt(j))
		} else {
			newRight.setEntry(j-mid, n.KeyAt(j), n.ChildAt(j))
		}
	}
	n.setSize(mid)
	newRight.setSize(total - mid)
	newRight.SetParentPageID(n.ParentPageID())
	return promoted
}

// MergeFromRight pulls parentSeparator into right's slot 0 (making it a
// valid key) then appends right's entries to the end of self. right is
// left empty; the caller frees its page and removes the separator
// pointing to it from the parent.
func (n InternalPage[K]) MergeFromRight(right InternalPage[K], parentSeparator K) {
	right.setKeyAt(0, parentSeparator)
	base, m := n.Size(), right.Size()
	for j := 0; j < m; j++ {
		n.setEntry(base+j, right.KeyAt(j), right.ChildAt(j))
	}
	n.setSize(base + m)
	right.setSize(0)
}

// StealFromLeft borrows left's last child into self's front slot,
// rotating parentSeparator (the parent's current key for self) down into
// self's new slot 1. Returns the key the parent must now use for self.
func (n InternalPage[K]) StealFromLeft(left InternalPage[K], parentSeparator K) K {
	newSeparator := left.KeyAt(left.Size() - 1)
	movedChild := left.ChildAt(left.Size() - 1)

	size := n.Size()
	for j := size; j > 0; j-- {
		n.setEntry(j, n.KeyAt(j-1), n.ChildAt(j-1))
	}
	n.setKeyAt(1, parentSeparator)
	n.setEntry(0, n.KeyAt(0), movedChild)
	n.setSize(size + 1)
	left.setSize(left.Size() - 1)
	return newSeparator
}

// SetKeyAt overwrites the separator key at index i. Used when a sibling
// steal changes the key an ancestor must record for one of its children.
func (n InternalPage[K]) SetKeyAt(i int, key K) {
	n.setKeyAt(i, key)
}

// RemoveAt deletes the entry at index i, shifting later entries left.
func (n InternalPage[K]) RemoveAt(i int) {
	size := n.Size()
	for j := i; j < size-1; j++ {
		n.setEntry(j, n.KeyAt(j+1), n.ChildAt(j+1))
	}
	n.setSize(size - 1)
}

// StealFromRight borrows right's first child onto self's tail, rotating
// parentSeparator (the parent's current key for right) in. Returns the
// key the parent must now use for right.
func (n InternalPage[K]) StealFromRight(right InternalPage[K], parentSeparator K) K {
	size := n.Size()
	n.setEntry(size, parentSeparator, right.ChildAt(0))
	newSeparator := right.KeyAt(1)

	m := right.Size()
	for j := 0; j < m-1; j++ {
		right.setEntry(j, right.KeyAt(j+1), right.ChildAt(j+1))
	}
	var zero K
	right.setKeyAt(0, zero)
	right.setSize(m - 1)
	n.setSize(size + 1)
	return newSeparator
}
