package dbkernel

import (
	"path/filepath"
	"testing"

	"dbkernel/pkg/page"
)

func TestOpenTreeInsertAndGetValue(t *testing.T) {
	k, err := Open(Config{DBFile: filepath.Join(t.TempDir(), "kernel.db"), PoolSize: 32})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer k.Close()

	tree := OpenTree[int64](k, "widgets", page.Int64Codec[int64]{})
	for i := int64(0); i < 100; i++ {
		if !tree.Insert(i, page.RID{PageID: int32(i)}) {
			t.Fatalf("Insert(%d) failed", i)
		}
	}
	for i := int64(0); i < 100; i++ {
		if v, ok := tree.GetValue(i); !ok || v.PageID != int32(i) {
			t.Fatalf("GetValue(%d) = (%+v, %v)", i, v, ok)
		}
	}
}

func TestOpenTreeSurvivesReopen(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "kernel.db")

	k1, err := Open(Config{DBFile: dbFile, PoolSize: 32})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tree1 := OpenTree[int64](k1, "widgets", page.Int64Codec[int64]{})
	tree1.Insert(7, page.RID{PageID: 70})
	if err := k1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	k2, err := Open(Config{DBFile: dbFile, PoolSize: 32})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer k2.Close()
	tree2 := OpenTree[int64](k2, "widgets", page.Int64Codec[int64]{})
	if v, ok := tree2.GetValue(7); !ok || v.PageID != 70 {
		t.Fatalf("GetValue(7) after reopen = (%+v, %v)", v, ok)
	}
}
