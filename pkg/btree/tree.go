// Package btree implements the clustered B+Tree index: point lookup,
// range iteration, insertion with node split, and deletion with
// redistribution/merge, entirely in terms of pages fetched through the
// buffer pool and interpreted via the page package's typed views.
//
// Grounded on storage_engine/access/indexfile_manager/bplustree/*.go
// (Insertion, FindLeaf, Search, deleteRecursive's borrow-left-then-right-
// then-merge order and root-collapse check) and cross-checked against
// original_source/src/storage/index/b_plus_tree.cpp and the leaf/internal
// page .cpp files for exact split-pivot and steal/merge mechanics. Unlike
// the teacher's in-memory []byte-slice Node, every node here is a
// page-backed view fetched through the buffer pool and unpinned on every
// exit path, per spec.md's pin/unpin discipline.
package btree

import (
	"cmp"
	"fmt"

	"dbkernel/pkg/buffer"
	"dbkernel/pkg/cache"
	"dbkernel/pkg/catalog"
	"dbkernel/pkg/disk"
	"dbkernel/pkg/page"
)

// Tree is an ordered, unique-key index backed by pages of a buffer pool.
// It is not internally latched: concurrent structural operations on the
// same Tree must be serialized by the caller, per spec.md §5.
type Tree[K cmp.Ordered] struct {
	name            string
	pool            *buffer.Pool
	catalog         *catalog.Catalog
	codec           page.Codec[K]
	leafMaxSize     int
	internalMaxSize int
	rootPageID      disk.PageID
	cache           *cache.Cache[K]
}

// AttachCache wires an optional hot-key read cache in front of GetValue.
// c may be shared across multiple trees (it keys entries by tree name).
func (t *Tree[K]) AttachCache(c *cache.Cache[K]) {
	t.cache = c
}

// Open attaches to (or creates, if absent) the named tree recorded in
// pool's catalog. leafMaxSize and internalMaxSize bound node fanout.
func Open[K cmp.Ordered](name string, pool *buffer.Pool, cat *catalog.Catalog, codec page.Codec[K], leafMaxSize, internalMaxSize int) *Tree[K] {
	root, ok := cat.Lookup(name)
	if !ok {
		root = disk.InvalidPageID
	}
	return &Tree[K]{
		name:            name,
		pool:            pool,
		catalog:         cat,
		codec:           codec,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
		rootPageID:      root,
	}
}

// IsEmpty reports whether the tree currently has no root.
func (t *Tree[K]) IsEmpty() bool {
	return t.rootPageID == disk.InvalidPageID
}

// findLeafForKey walks from root to the leaf that would contain key,
// unpinning every internal page visited along the way. Returns the
// target leaf, still pinned.
func (t *Tree[K]) findLeafForKey(key K) (page.LeafPage[K], bool) {
	pid := t.rootPageID
	for {
		f, ok := t.pool.FetchPage(pid)
		if !ok {
			return page.LeafPage[K]{}, false
		}
		if page.PeekType(f.Data[:]) == page.Leaf {
			return page.WrapLeafPage(f.Data[:], t.codec), true
		}
		internal := page.WrapInternalPage(f.Data[:], t.codec)
		next := internal.FindChild(key)
		t.pool.UnpinPage(pid, false)
		pid = next
	}
}

// GetValue looks up key, unpinning every page it touches before
// returning (all reads are clean). A hit in an attached cache skips the
// buffer pool entirely.
func (t *Tree[K]) GetValue(key K) (page.RID, bool) {
	if t.cache != nil {
		if rid, ok := t.cache.Get(t.name, key); ok {
			return rid, true
		}
	}
	if t.IsEmpty() {
		return page.RID{}, false
	}
	leaf, ok := t.findLeafForKey(key)
	if !ok {
		return page.RID{}, false
	}
	defer t.pool.UnpinPage(leaf.PageID(), false)
	rid, found := leaf.Find(key)
	if found && t.cache != nil {
		t.cache.Set(t.name, key, rid)
	}
	return rid, found
}

// Insert adds key/value, splitting nodes up the tree as needed. Returns
// false if key is already present or the buffer pool is exhausted.
func (t *Tree[K]) Insert(key K, val page.RID) bool {
	if t.cache != nil {
		t.cache.Invalidate(t.name, key)
	}
	if t.IsEmpty() {
		pid, f, ok := t.pool.NewPage()
		if !ok {
			return false
		}
		leaf := page.InitLeafPage(f.Data[:], pid, disk.InvalidPageID, t.leafMaxSize, t.codec)
		leaf.Insert(key, val)
		t.pool.UnpinPage(pid, true)
		t.rootPageID = pid
		t.catalog.InsertRecord(t.name, pid)
		return true
	}

	path, ok := t.pathToLeaf(key)
	if !ok {
		return false
	}
	leaf := path.leaf

	if _, exists := leaf.Find(key); exists {
		t.unpinPath(path)
		return false
	}

	if !leaf.IsFull() {
		leaf.Insert(key, val)
		t.unpinPathDirty(path)
		return true
	}

	rightPid, rf, ok := t.pool.NewPage()
	if !ok {
		t.unpinPath(path)
		return false
	}
	right := page.InitLeafPage(rf.Data[:], rightPid, leaf.ParentPageID(), t.leafMaxSize, t.codec)
	separator := leaf.SplitAndInsert(key, val, right)
	t.pool.UnpinPage(rightPid, true)

	return t.insertIntoParent(path, leaf.PageID(), separator, rightPid)
}

type ancestor struct {
	pid      disk.PageID
	internal page.InternalPage[K]
}

type leafFrame[K cmp.Ordered] struct {
	ancestors []ancestor
	leaf      page.LeafPage[K]
}

// pathToLeaf walks root-to-leaf, keeping every internal page pinned
// (ancestors are needed for insertion/deletion to propagate upward).
func (t *Tree[K]) pathToLeaf(key K) (leafFrame[K], bool) {
	var ancestors []ancestor
	pid := t.rootPageID
	for {
		f, ok := t.pool.FetchPage(pid)
		if !ok {
			for _, a := range ancestors {
				t.pool.UnpinPage(a.pid, false)
			}
			return leafFrame[K]{}, false
		}
		if page.PeekType(f.Data[:]) == page.Leaf {
			return leafFrame[K]{ancestors: ancestors, leaf: page.WrapLeafPage(f.Data[:], t.codec)}, true
		}
		internal := page.WrapInternalPage(f.Data[:], t.codec)
		ancestors = append(ancestors, ancestor{pid, internal})
		pid = internal.FindChild(key)
	}
}

func (t *Tree[K]) unpinPath(path leafFrame[K]) {
	t.pool.UnpinPage(path.leaf.PageID(), false)
	for i := len(path.ancestors) - 1; i >= 0; i-- {
		t.pool.UnpinPage(path.ancestors[i].pid, false)
	}
}

func (t *Tree[K]) unpinPathDirty(path leafFrame[K]) {
	t.pool.UnpinPage(path.leaf.PageID(), true)
	for i := len(path.ancestors) - 1; i >= 0; i-- {
		t.pool.UnpinPage(path.ancestors[i].pid, false)
	}
}

// insertIntoParent propagates a split upward: if the splitting page was
// the root, a fresh internal root is allocated over both halves;
// otherwise the separator is inserted into the immediate parent,
// splitting it in turn if necessary. Reports false, leaving leftPid and
// rightPid as orphaned but unreferenced split halves, if the buffer pool
// cannot supply a page for a new root or a parent split.
func (t *Tree[K]) insertIntoParent(path leafFrame[K], leftPid disk.PageID, separator K, rightPid disk.PageID) bool {
	// leftPid enters this call still pinned once, whether it's the leaf
	// the caller just split or (on recursion) the internal page that was
	// just split; every branch below unpins it exactly once.
	defer t.pool.UnpinPage(leftPid, true)

	if len(path.ancestors) == 0 {
		rootPid, rf, ok := t.pool.NewPage()
		if !ok {
			return false
		}
		root := page.InitInternalPage(rf.Data[:], rootPid, disk.InvalidPageID, t.internalMaxSize, t.codec)
		root.SetOnlyChild(leftPid)
		root.InsertAfter(leftPid, separator, rightPid)
		t.pool.UnpinPage(rootPid, true)

		t.setParent(leftPid, rootPid)
		t.setParent(rightPid, rootPid)

		t.rootPageID = rootPid
		t.catalog.UpdateRecord(t.name, rootPid)
		return true
	}

	last := len(path.ancestors) - 1
	parent := path.ancestors[last]

	t.setParent(rightPid, parent.pid)

	if !parent.internal.IsFull() {
		parent.internal.InsertAfter(leftPid, separator, rightPid)
		t.pool.UnpinPage(parent.pid, true)
		for i := last - 1; i >= 0; i-- {
			t.pool.UnpinPage(path.ancestors[i].pid, false)
		}
		return true
	}

	newPid, nf, ok := t.pool.NewPage()
	if !ok {
		t.pool.UnpinPage(parent.pid, true)
		for i := last - 1; i >= 0; i-- {
			t.pool.UnpinPage(path.ancestors[i].pid, false)
		}
		return false
	}
	newRight := page.InitInternalPage(nf.Data[:], newPid, parent.internal.ParentPageID(), t.internalMaxSize, t.codec)
	promoted := parent.internal.SplitAndInsert(leftPid, separator, rightPid, newRight)
	t.pool.UnpinPage(newPid, true)

	for i := 0; i < newRight.Size(); i++ {
		t.setParent(newRight.ChildAt(i), newPid)
	}

	return t.insertIntoParent(leafFrame[K]{ancestors: path.ancestors[:last]}, parent.pid, promoted, newPid)
}

func (t *Tree[K]) setParent(child, parent disk.PageID) {
	f, ok := t.pool.FetchPage(child)
	if !ok {
		return
	}
	if page.PeekType(f.Data[:]) == page.Leaf {
		page.WrapLeafPage(f.Data[:], t.codec).SetParentPageID(parent)
	} else {
		page.WrapInternalPage(f.Data[:], t.codec).SetParentPageID(parent)
	}
	t.pool.UnpinPage(child, true)
}

// reparentChildren stamps n's own page id as the parent of every one of
// its children. Called after a steal or merge changes n's child set;
// re-stamping an already-correct parent is harmless.
func (t *Tree[K]) reparentChildren(n page.InternalPage[K]) {
	for i := 0; i < n.Size(); i++ {
		t.setParent(n.ChildAt(i), n.PageID())
	}
}

// childIndex returns the slot in n whose child is pid, or -1.
func childIndex[K cmp.Ordered](n page.InternalPage[K], pid disk.PageID) int {
	for i := 0; i < n.Size(); i++ {
		if n.ChildAt(i) == pid {
			return i
		}
	}
	return -1
}

// Remove deletes key, rebalancing underflowed nodes on the way back up.
// Reports whether key was present.
func (t *Tree[K]) Remove(key K) bool {
	if t.cache != nil {
		t.cache.Invalidate(t.name, key)
	}
	if t.IsEmpty() {
		return false
	}
	path, ok := t.pathToLeaf(key)
	if !ok {
		return false
	}
	leaf := path.leaf

	if !leaf.Remove(key) {
		t.unpinPath(path)
		return false
	}

	if len(path.ancestors) == 0 {
		// The root is itself a leaf; it never redistributes with a
		// sibling, per spec.md §4.5.
		if leaf.Size() == 0 {
			t.pool.UnpinPage(leaf.PageID(), true)
			t.pool.DeletePage(leaf.PageID())
			t.rootPageID = disk.InvalidPageID
			t.catalog.DeleteRecord(t.name)
		} else {
			t.pool.UnpinPage(leaf.PageID(), true)
		}
		return true
	}

	if leaf.Size() >= leaf.MinSize() {
		t.unpinPathDirty(path)
		return true
	}

	return t.rebalanceLeaf(path, leaf)
}

// rebalanceLeaf resolves an underflowed non-root leaf: borrow from the
// left sibling, then the right, then merge (always right into left),
// matching deleteRecursive's order. path.ancestors (still pinned) is
// consumed by this call along every exit path. Reports false if a
// sibling fetch needed to complete the merge fails.
func (t *Tree[K]) rebalanceLeaf(path leafFrame[K], leaf page.LeafPage[K]) bool {
	last := len(path.ancestors) - 1
	parent := path.ancestors[last]
	idx := childIndex[K](parent.internal, leaf.PageID())

	if idx > 0 {
		leftPid := parent.internal.ChildAt(idx - 1)
		if lf, ok := t.pool.FetchPage(leftPid); ok {
			left := page.WrapLeafPage(lf.Data[:], t.codec)
			if left.Size() > left.MinSize() {
				newFirstKey := leaf.StealFromLeft(left)
				parent.internal.SetKeyAt(idx, newFirstKey)
				t.pool.UnpinPage(leftPid, true)
				t.pool.UnpinPage(leaf.PageID(), true)
				t.pool.UnpinPage(parent.pid, true)
				for i := last - 1; i >= 0; i-- {
					t.pool.UnpinPage(path.ancestors[i].pid, false)
				}
				return true
			}
			t.pool.UnpinPage(leftPid, false)
		}
	}

	if idx < parent.internal.Size()-1 {
		rightPid := parent.internal.ChildAt(idx + 1)
		if rf, ok := t.pool.FetchPage(rightPid); ok {
			right := page.WrapLeafPage(rf.Data[:], t.codec)
			if right.Size() > right.MinSize() {
				newSep := leaf.StealFromRight(right)
				parent.internal.SetKeyAt(idx+1, newSep)
				t.pool.UnpinPage(rightPid, true)
				t.pool.UnpinPage(leaf.PageID(), true)
				t.pool.UnpinPage(parent.pid, true)
				for i := last - 1; i >= 0; i-- {
					t.pool.UnpinPage(path.ancestors[i].pid, false)
				}
				return true
			}
			t.pool.UnpinPage(rightPid, false)
		}
	}

	// Neither sibling can lend; merge. Always fold the right page into
	// the left, then delete the dangling separator from the parent.
	if idx > 0 {
		leftPid := parent.internal.ChildAt(idx - 1)
		lf, ok := t.pool.FetchPage(leftPid)
		if !ok {
			t.unpinPath(path)
			return false
		}
		left := page.WrapLeafPage(lf.Data[:], t.codec)
		left.MergeRight(leaf)
		t.pool.UnpinPage(leftPid, true)
		t.pool.UnpinPage(leaf.PageID(), true)
		t.pool.DeletePage(leaf.PageID())
		return t.removeFromInternal(path.ancestors, idx)
	}

	rightPid := parent.internal.ChildAt(idx + 1)
	rf, ok := t.pool.FetchPage(rightPid)
	if !ok {
		t.unpinPath(path)
		return false
	}
	right := page.WrapLeafPage(rf.Data[:], t.codec)
	leaf.MergeRight(right)
	t.pool.UnpinPage(rightPid, true)
	t.pool.UnpinPage(leaf.PageID(), true)
	t.pool.DeletePage(rightPid)
	return t.removeFromInternal(path.ancestors, idx+1)
}

// removeFromInternal removes the child/key pair at idx from the deepest
// page in ancestors (the one whose separator just went stale), then
// rebalances that page if it underflows, propagating the same borrow-
// then-merge order upward. ancestors (still pinned) is consumed along
// every exit path. Reports false if a sibling fetch needed to complete
// a merge fails.
func (t *Tree[K]) removeFromInternal(ancestors []ancestor, idx int) bool {
	last := len(ancestors) - 1
	node := ancestors[last]
	node.internal.RemoveAt(idx)

	if last == 0 {
		if node.internal.Size() == 1 {
			onlyChild := node.internal.ChildAt(0)
			t.pool.UnpinPage(node.pid, true)
			t.pool.DeletePage(node.pid)
			t.rootPageID = onlyChild
			t.catalog.UpdateRecord(t.name, onlyChild)
			t.clearParent(onlyChild)
			return true
		}
		t.pool.UnpinPage(node.pid, true)
		return true
	}

	if node.internal.Size() >= node.internal.MinSize() {
		t.pool.UnpinPage(node.pid, true)
		for i := last - 1; i >= 0; i-- {
			t.pool.UnpinPage(ancestors[i].pid, false)
		}
		return true
	}

	parent := ancestors[last-1]
	pIdx := childIndex[K](parent.internal, node.pid)

	if pIdx > 0 {
		leftPid := parent.internal.ChildAt(pIdx - 1)
		if lf, ok := t.pool.FetchPage(leftPid); ok {
			left := page.WrapInternalPage(lf.Data[:], t.codec)
			if left.Size() > left.MinSize() {
				sep := parent.internal.KeyAt(pIdx)
				newSep := node.internal.StealFromLeft(left, sep)
				parent.internal.SetKeyAt(pIdx, newSep)
				t.reparentChildren(node.internal)
				t.pool.UnpinPage(leftPid, true)
				t.pool.UnpinPage(node.pid, true)
				t.pool.UnpinPage(parent.pid, true)
				for i := last - 2; i >= 0; i-- {
					t.pool.UnpinPage(ancestors[i].pid, false)
				}
				return true
			}
			t.pool.UnpinPage(leftPid, false)
		}
	}

	if pIdx < parent.internal.Size()-1 {
		rightPid := parent.internal.ChildAt(pIdx + 1)
		if rf, ok := t.pool.FetchPage(rightPid); ok {
			right := page.WrapInternalPage(rf.Data[:], t.codec)
			if right.Size() > right.MinSize() {
				sep := parent.internal.KeyAt(pIdx + 1)
				newSep := node.internal.StealFromRight(right, sep)
				parent.internal.SetKeyAt(pIdx+1, newSep)
				t.reparentChildren(node.internal)
				t.pool.UnpinPage(rightPid, true)
				t.pool.UnpinPage(node.pid, true)
				t.pool.UnpinPage(parent.pid, true)
				for i := last - 2; i >= 0; i-- {
					t.pool.UnpinPage(ancestors[i].pid, false)
				}
				return true
			}
			t.pool.UnpinPage(rightPid, false)
		}
	}

	if pIdx > 0 {
		leftPid := parent.internal.ChildAt(pIdx - 1)
		lf, ok := t.pool.FetchPage(leftPid)
		if !ok {
			t.unpinAncestors(ancestors)
			return false
		}
		left := page.WrapInternalPage(lf.Data[:], t.codec)
		sep := parent.internal.KeyAt(pIdx)
		left.MergeFromRight(node.internal, sep)
		t.reparentChildren(left)
		t.pool.UnpinPage(leftPid, true)
		t.pool.UnpinPage(node.pid, true)
		t.pool.DeletePage(node.pid)
		return t.removeFromInternal(ancestors[:last], pIdx)
	}

	rightPid := parent.internal.ChildAt(pIdx + 1)
	rf, ok := t.pool.FetchPage(rightPid)
	if !ok {
		t.unpinAncestors(ancestors)
		return false
	}
	right := page.WrapInternalPage(rf.Data[:], t.codec)
	sep := parent.internal.KeyAt(pIdx + 1)
	node.internal.MergeFromRight(right, sep)
	t.reparentChildren(node.internal)
	t.pool.UnpinPage(rightPid, true)
	t.pool.UnpinPage(node.pid, true)
	t.pool.DeletePage(rightPid)
	return t.removeFromInternal(ancestors[:last], pIdx+1)
}

// unpinAncestors unpins every page in ancestors, deepest first, without
// marking any of them dirty. Used when a fetch needed to complete a
// rebalance fails and the whole in-flight path must be released intact.
func (t *Tree[K]) unpinAncestors(ancestors []ancestor) {
	for i := len(ancestors) - 1; i >= 0; i-- {
		t.pool.UnpinPage(ancestors[i].pid, false)
	}
}

// clearParent marks pid as having no parent; used for the child promoted
// to root when the old root collapses.
func (t *Tree[K]) clearParent(pid disk.PageID) {
	f, ok := t.pool.FetchPage(pid)
	if !ok {
		return
	}
	if page.PeekType(f.Data[:]) == page.Leaf {
		page.WrapLeafPage(f.Data[:], t.codec).SetParentPageID(disk.InvalidPageID)
	} else {
		page.WrapInternalPage(f.Data[:], t.codec).SetParentPageID(disk.InvalidPageID)
	}
	t.pool.UnpinPage(pid, true)
}

// Iterator walks leaves left to right in key order, holding at most one
// leaf pinned at a time.
type Iterator[K cmp.Ordered] struct {
	tree *Tree[K]
	leaf page.LeafPage[K]
	pos  int
	done bool
}

// Valid reports whether the iterator is currently positioned on an entry.
func (it *Iterator[K]) Valid() bool {
	return !it.done
}

// Key returns the current entry's key. Valid must be true.
func (it *Iterator[K]) Key() K {
	return it.leaf.KeyAt(it.pos)
}

// Value returns the current entry's record id. Valid must be true.
func (it *Iterator[K]) Value() page.RID {
	return it.leaf.ValueAt(it.pos)
}

// Next advances to the following entry, crossing into the next leaf via
// its next_page_id link when the current leaf is exhausted.
func (it *Iterator[K]) Next() {
	if it.done {
		return
	}
	it.pos++
	if it.pos < it.leaf.Size() {
		return
	}
	next := it.leaf.NextPageID()
	it.tree.pool.UnpinPage(it.leaf.PageID(), false)
	if next == disk.InvalidPageID {
		it.done = true
		return
	}
	f, ok := it.tree.pool.FetchPage(next)
	if !ok {
		it.done = true
		return
	}
	it.leaf = page.WrapLeafPage(f.Data[:], it.tree.codec)
	it.pos = 0
	if it.leaf.Size() == 0 {
		it.done = true
	}
}

// Close releases the currently pinned leaf, if any. Safe to call more
// than once or on an already-exhausted iterator.
func (it *Iterator[K]) Close() {
	if !it.done {
		it.tree.pool.UnpinPage(it.leaf.PageID(), false)
		it.done = true
	}
}

// Begin returns an iterator positioned at the smallest key in the tree.
func (t *Tree[K]) Begin() *Iterator[K] {
	if t.IsEmpty() {
		return &Iterator[K]{tree: t, done: true}
	}
	pid := t.rootPageID
	for {
		f, ok := t.pool.FetchPage(pid)
		if !ok {
			return &Iterator[K]{tree: t, done: true}
		}
		if page.PeekType(f.Data[:]) == page.Leaf {
			leaf := page.WrapLeafPage(f.Data[:], t.codec)
			if leaf.Size() == 0 {
				t.pool.UnpinPage(pid, false)
				return &Iterator[K]{tree: t, done: true}
			}
			return &Iterator[K]{tree: t, leaf: leaf, pos: 0}
		}
		internal := page.WrapInternalPage(f.Data[:], t.codec)
		next := internal.ChildAt(0)
		t.pool.UnpinPage(pid, false)
		pid = next
	}
}

// BeginAt returns an iterator positioned at key. Per spec.md's documented
// caveat, a key absent from the leaf that would contain it falls back to
// Begin() rather than erroring or landing on a successor.
func (t *Tree[K]) BeginAt(key K) *Iterator[K] {
	if t.IsEmpty() {
		return &Iterator[K]{tree: t, done: true}
	}
	leaf, ok := t.findLeafForKey(key)
	if !ok {
		return &Iterator[K]{tree: t, done: true}
	}
	idx, found := leaf.Locate(key)
	if !found {
		t.pool.UnpinPage(leaf.PageID(), false)
		return t.Begin()
	}
	return &Iterator[K]{tree: t, leaf: leaf, pos: idx}
}

// String implements fmt.Stringer for diagnostics.
func (t *Tree[K]) String() string {
	return fmt.Sprintf("btree(%s, root=%d)", t.name, t.rootPageID)
}
