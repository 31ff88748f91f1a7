package hashindex

import (
	"testing"

	"dbkernel/pkg/page"
)

func TestIndexInsertFindRemove(t *testing.T) {
	idx := New(4)
	idx.Insert("alice", page.RID{PageID: 1, SlotID: 0})
	idx.Insert("bob", page.RID{PageID: 2, SlotID: 1})

	if v, ok := idx.Find("alice"); !ok || v.PageID != 1 {
		t.Fatalf("Find(alice) = (%+v, %v)", v, ok)
	}
	if !idx.Remove("alice") {
		t.Fatalf("Remove(alice) failed")
	}
	if _, ok := idx.Find("alice"); ok {
		t.Fatalf("Find(alice) should miss after Remove")
	}
	if v, ok := idx.Find("bob"); !ok || v.SlotID != 1 {
		t.Fatalf("Find(bob) = (%+v, %v)", v, ok)
	}
}

func TestIndexGrowsUnderLoad(t *testing.T) {
	idx := New(2)
	for i := 0; i < 100; i++ {
		idx.Insert(string(rune('a'+i%26))+string(rune(i)), page.RID{PageID: int32(i)})
	}
	if idx.GlobalDepth() == 0 {
		t.Fatalf("expected directory to have grown past depth 0")
	}
}
