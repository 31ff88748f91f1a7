package buffer

import (
	"path/filepath"
	"testing"

	"dbkernel/pkg/disk"
)

func newTestPool(t *testing.T, size, k int) *Pool {
	t.Helper()
	dm, err := disk.NewManager(filepath.Join(t.TempDir(), "pool.db"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return New(size, k, dm, nil)
}

func TestNewPagePinsAndWrites(t *testing.T) {
	p := newTestPool(t, 4, 2)
	pid, f, ok := p.NewPage()
	if !ok {
		t.Fatalf("NewPage() failed")
	}
	if f.PinCount != 1 {
		t.Fatalf("PinCount = %d, want 1", f.PinCount)
	}
	f.Data[0] = 0xAB
	if !p.UnpinPage(pid, true) {
		t.Fatalf("UnpinPage failed")
	}
}

func TestFetchPageHitReusesFrame(t *testing.T) {
	p := newTestPool(t, 4, 2)
	pid, f, _ := p.NewPage()
	f.Data[10] = 42
	p.UnpinPage(pid, true)

	f2, ok := p.FetchPage(pid)
	if !ok {
		t.Fatalf("FetchPage() failed")
	}
	if f2.Data[10] != 42 {
		t.Fatalf("Data[10] = %d, want 42", f2.Data[10])
	}
	p.UnpinPage(pid, false)
}

// TestPinWall exercises spec scenario S3: pool size 10, 10 NewPage calls
// without unpinning exhausts it; the 11th call reports absence; after
// unpinning one page, NewPage succeeds again with a fresh id.
func TestPinWall(t *testing.T) {
	p := newTestPool(t, 10, 2)
	var ids []disk.PageID
	for i := 0; i < 10; i++ {
		pid, _, ok := p.NewPage()
		if !ok {
			t.Fatalf("NewPage() #%d failed unexpectedly", i)
		}
		ids = append(ids, pid)
	}
	if _, _, ok := p.NewPage(); ok {
		t.Fatalf("NewPage() #11 should fail: pool exhausted")
	}
	if !p.UnpinPage(ids[0], false) {
		t.Fatalf("UnpinPage failed")
	}
	newPid, _, ok := p.NewPage()
	if !ok {
		t.Fatalf("NewPage() after unpin should succeed")
	}
	if newPid == ids[0] {
		t.Fatalf("NewPage() reused an old page id; spec requires a fresh monotonic id")
	}
}

func TestEvictionWritesBackDirtyVictim(t *testing.T) {
	p := newTestPool(t, 1, 2)
	pid1, f1, _ := p.NewPage()
	f1.Data[0] = 7
	p.UnpinPage(pid1, true)

	pid2, _, ok := p.NewPage()
	if !ok {
		t.Fatalf("NewPage() should evict pid1")
	}
	if pid2 == pid1 {
		t.Fatalf("expected a distinct page id")
	}
	p.UnpinPage(pid2, false)

	f1again, ok := p.FetchPage(pid1)
	if !ok {
		t.Fatalf("FetchPage(pid1) should succeed after reload from disk")
	}
	if f1again.Data[0] != 7 {
		t.Fatalf("Data[0] = %d, want 7 (dirty victim must be written back)", f1again.Data[0])
	}
	p.UnpinPage(pid1, false)
}

func TestDeletePageRejectsPinned(t *testing.T) {
	p := newTestPool(t, 4, 2)
	pid, _, _ := p.NewPage()
	if p.DeletePage(pid) {
		t.Fatalf("DeletePage on a pinned page should fail")
	}
	p.UnpinPage(pid, false)
	if !p.DeletePage(pid) {
		t.Fatalf("DeletePage on unpinned page should succeed")
	}
	if p.DeletePage(pid) != true {
		t.Fatalf("DeletePage on absent page should report true (nothing to do)")
	}
}

func TestFlushAllPages(t *testing.T) {
	p := newTestPool(t, 2, 2)
	pid, f, _ := p.NewPage()
	f.Data[5] = 9
	p.UnpinPage(pid, true)

	if err := p.FlushAllPages(); err != nil {
		t.Fatalf("FlushAllPages: %v", err)
	}
	if !p.FlushPage(pid) {
		t.Fatalf("FlushPage after FlushAllPages should still report resident")
	}
}
