package catalog

import (
	"path/filepath"
	"testing"

	"dbkernel/pkg/buffer"
	"dbkernel/pkg/disk"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dm, err := disk.NewManager(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	pool := buffer.New(16, 2, dm, nil)
	cat, err := New(pool)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cat
}

func TestCatalogInsertLookupUpdate(t *testing.T) {
	cat := newTestCatalog(t)

	if _, ok := cat.Lookup("users"); ok {
		t.Fatalf("Lookup(users) should miss before insert")
	}
	if !cat.InsertRecord("users", 5) {
		t.Fatalf("InsertRecord(users) failed")
	}
	if cat.InsertRecord("users", 9) {
		t.Fatalf("InsertRecord(users) duplicate should fail")
	}
	if root, ok := cat.Lookup("users"); !ok || root != 5 {
		t.Fatalf("Lookup(users) = (%d, %v), want (5, true)", root, ok)
	}
	if !cat.UpdateRecord("users", 42) {
		t.Fatalf("UpdateRecord(users) failed")
	}
	if root, ok := cat.Lookup("users"); !ok || root != 42 {
		t.Fatalf("Lookup(users) after update = (%d, %v), want (42, true)", root, ok)
	}
}

func TestCatalogDeleteRecord(t *testing.T) {
	cat := newTestCatalog(t)
	cat.InsertRecord("a", 1)
	cat.InsertRecord("b", 2)
	cat.InsertRecord("c", 3)

	if !cat.DeleteRecord("b") {
		t.Fatalf("DeleteRecord(b) failed")
	}
	if _, ok := cat.Lookup("b"); ok {
		t.Fatalf("Lookup(b) should miss after delete")
	}
	if root, ok := cat.Lookup("a"); !ok || root != 1 {
		t.Fatalf("Lookup(a) = (%d, %v), want (1, true)", root, ok)
	}
	if root, ok := cat.Lookup("c"); !ok || root != 3 {
		t.Fatalf("Lookup(c) = (%d, %v), want (3, true)", root, ok)
	}
	if cat.DeleteRecord("nonexistent") {
		t.Fatalf("DeleteRecord(nonexistent) should report false")
	}
}
