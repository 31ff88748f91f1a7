package btree

import (
	"path/filepath"
	"testing"

	"dbkernel/pkg/buffer"
	"dbkernel/pkg/catalog"
	"dbkernel/pkg/disk"
	"dbkernel/pkg/page"
)

func newTestTree(t *testing.T, poolSize, leafMaxSize, internalMaxSize int) *Tree[int64] {
	t.Helper()
	dm, err := disk.NewManager(filepath.Join(t.TempDir(), "tree.db"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	pool := buffer.New(poolSize, 2, dm, nil)
	cat, err := catalog.New(pool)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return Open[int64]("t", pool, cat, page.Int64Codec[int64]{}, leafMaxSize, internalMaxSize)
}

func rid(n int32) page.RID {
	return page.RID{PageID: n, SlotID: 0}
}

func TestTreeInsertAndGetValue(t *testing.T) {
	tr := newTestTree(t, 64, 5, 4)
	for i := int64(0); i < 50; i++ {
		if !tr.Insert(i, rid(int32(i))) {
			t.Fatalf("Insert(%d) failed", i)
		}
	}
	for i := int64(0); i < 50; i++ {
		v, ok := tr.GetValue(i)
		if !ok || v.PageID != int32(i) {
			t.Fatalf("GetValue(%d) = (%+v, %v)", i, v, ok)
		}
	}
	if _, ok := tr.GetValue(999); ok {
		t.Fatalf("GetValue(999) should miss")
	}
}

func TestTreeInsertRejectsDuplicate(t *testing.T) {
	tr := newTestTree(t, 64, 5, 4)
	if !tr.Insert(1, rid(1)) {
		t.Fatalf("first Insert(1) failed")
	}
	if tr.Insert(1, rid(2)) {
		t.Fatalf("duplicate Insert(1) should fail")
	}
}

func TestTreeIteratorInOrder(t *testing.T) {
	tr := newTestTree(t, 64, 5, 4)
	want := []int64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0}
	for _, k := range want {
		tr.Insert(k, rid(int32(k)))
	}

	it := tr.Begin()
	var got []int64
	for it.Valid() {
		got = append(got, it.Key())
		it.Next()
	}
	for i := int64(0); i < 10; i++ {
		if got[i] != i {
			t.Fatalf("iteration order[%d] = %d, want %d (%v)", i, got[i], i, got)
		}
	}
}

func TestTreeBeginAtFallsBackWhenAbsent(t *testing.T) {
	tr := newTestTree(t, 64, 5, 4)
	for _, k := range []int64{10, 20, 30} {
		tr.Insert(k, rid(int32(k)))
	}
	it := tr.BeginAt(15)
	if !it.Valid() || it.Key() != 10 {
		t.Fatalf("BeginAt(15) absent key should fall back to Begin(): key=%v valid=%v", it.Key(), it.Valid())
	}

	it2 := tr.BeginAt(20)
	if !it2.Valid() || it2.Key() != 20 {
		t.Fatalf("BeginAt(20) present key = %v, want 20", it2.Key())
	}
}

func TestTreeRemoveRootLeaf(t *testing.T) {
	tr := newTestTree(t, 64, 5, 4)
	tr.Insert(1, rid(1))
	tr.Insert(2, rid(2))

	if !tr.Remove(1) {
		t.Fatalf("Remove(1) failed")
	}
	if tr.Remove(1) {
		t.Fatalf("second Remove(1) should report absent")
	}
	if _, ok := tr.GetValue(1); ok {
		t.Fatalf("GetValue(1) should miss after Remove")
	}
	if !tr.Remove(2) {
		t.Fatalf("Remove(2) failed")
	}
	if !tr.IsEmpty() {
		t.Fatalf("tree should be empty after removing every key")
	}
}

func TestTreeInsertSplitThenRemoveAll(t *testing.T) {
	tr := newTestTree(t, 128, 4, 4) // small fanout forces many splits/merges
	const n = 200
	for i := int64(0); i < n; i++ {
		if !tr.Insert(i, rid(int32(i))) {
			t.Fatalf("Insert(%d) failed", i)
		}
	}
	for i := int64(0); i < n; i++ {
		if v, ok := tr.GetValue(i); !ok || v.PageID != int32(i) {
			t.Fatalf("GetValue(%d) = (%+v, %v)", i, v, ok)
		}
	}

	// Remove every other key, then confirm the rest are intact and the
	// removed ones are gone.
	for i := int64(0); i < n; i += 2 {
		if !tr.Remove(i) {
			t.Fatalf("Remove(%d) failed", i)
		}
	}
	for i := int64(0); i < n; i++ {
		v, ok := tr.GetValue(i)
		if i%2 == 0 {
			if ok {
				t.Fatalf("GetValue(%d) should miss after removal, got %+v", i, v)
			}
			continue
		}
		if !ok || v.PageID != int32(i) {
			t.Fatalf("GetValue(%d) = (%+v, %v)", i, v, ok)
		}
	}

	for i := int64(1); i < n; i += 2 {
		if !tr.Remove(i) {
			t.Fatalf("Remove(%d) failed", i)
		}
	}
	if !tr.IsEmpty() {
		t.Fatalf("tree should be empty after removing every key")
	}
}
