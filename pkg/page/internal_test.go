package page

import (
	"testing"

	"dbkernel/pkg/disk"
)

func newInternal(id disk.PageID, maxSize int, firstChild disk.PageID) InternalPage[int64] {
	data := make([]byte, disk.PageSize)
	n := InitInternalPage[int64](data, id, disk.InvalidPageID, maxSize, Int64Codec[int64]{})
	n.SetOnlyChild(firstChild)
	return n
}

func TestInternalFindChild(t *testing.T) {
	n := newInternal(1, 8, 100)
	n.InsertAfter(100, 10, 200)
	n.InsertAfter(200, 20, 300)

	cases := []struct {
		key  int64
		want disk.PageID
	}{
		{5, 100},
		{10, 200},
		{15, 200},
		{20, 300},
		{25, 300},
	}
	for _, c := range cases {
		if got := n.FindChild(c.key); got != c.want {
			t.Errorf("FindChild(%d) = %d, want %d", c.key, got, c.want)
		}
	}
}

func TestInternalSplitAndInsert(t *testing.T) {
	n := newInternal(1, 4, 100) // full at size 4
	n.InsertAfter(100, 10, 200)
	n.InsertAfter(200, 20, 300)
	n.InsertAfter(300, 30, 400)
	if !n.IsFull() {
		t.Fatalf("internal page should be full at size 4 with max_size 4")
	}

	rightData := make([]byte, disk.PageSize)
	right := InitInternalPage[int64](rightData, 2, disk.InvalidPageID, 4, Int64Codec[int64]{})

	promoted := n.SplitAndInsert(400, 40, 500, right)

	if n.Size()+right.Size() != 5 {
		t.Fatalf("total entries after split = %d, want 5", n.Size()+right.Size())
	}
	if right.ChildAt(0) == disk.InvalidPageID {
		t.Fatalf("right's slot 0 child must be valid")
	}
	// Every key on the left strictly precedes the promoted key, which
	// strictly precedes every key on the right (slot 0 excluded).
	for i := 1; i < n.Size(); i++ {
		if n.KeyAt(i) >= promoted {
			t.Fatalf("left key %d >= promoted key %d", n.KeyAt(i), promoted)
		}
	}
	for i := 1; i < right.Size(); i++ {
		if right.KeyAt(i) <= promoted {
			t.Fatalf("right key %d <= promoted key %d", right.KeyAt(i), promoted)
		}
	}
}

func TestInternalMergeAndSteal(t *testing.T) {
	left := newInternal(1, 8, 100)
	left.InsertAfter(100, 10, 200)

	right := newInternal(2, 8, 300)
	right.InsertAfter(300, 40, 400)

	sep := left.StealFromRight(right, 20) // parent's current separator for `right` is 20
	if left.Size() != 3 {
		t.Fatalf("left.Size() = %d, want 3", left.Size())
	}
	if left.ChildAt(2) != 300 {
		t.Fatalf("left's new last child = %d, want 300", left.ChildAt(2))
	}
	if sep != 40 {
		t.Fatalf("new separator = %d, want 40", sep)
	}
	if right.Size() != 1 || right.ChildAt(0) != 400 {
		t.Fatalf("right after steal: size=%d child0=%d", right.Size(), right.ChildAt(0))
	}

	left.MergeFromRight(right, sep)
	if left.Size() != 4 {
		t.Fatalf("left.Size() after merge = %d, want 4", left.Size())
	}
	if right.Size() != 0 {
		t.Fatalf("right should be emptied after merge")
	}
}
