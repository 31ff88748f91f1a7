// Package buffer implements the fixed-capacity buffer pool that mediates
// every access between in-memory frames and the paged disk file: pin-count
// discipline, lazy write-back of dirty frames, and victim selection
// delegated to an LRU-K replacer.
//
// Grounded on storage_engine/bufferpool/bufferpool.go for method shapes
// (FetchPage, NewPage, UnpinPage, FlushPage, FlushAllPages, DeletePage)
// and on original_source/src/buffer/buffer_pool_manager_instance.cpp for
// victim-selection order: free-list first, then replacer eviction,
// write-back-if-dirty, page-table removal, zero-and-reinit the frame.
// The teacher's map+accessOrder LRU list is replaced by hashtable.Table
// (the page table, C1) and replacer.LRUK (C2), since plain access-order
// cannot express LRU-K's tie-breaking.
package buffer

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"dbkernel/pkg/disk"
	"dbkernel/pkg/hashtable"
	"dbkernel/pkg/replacer"
)

// Frame is one slot of the pool: a page-sized byte buffer plus the
// bookkeeping the pool needs to know whether and how it can be reused.
type Frame struct {
	PageID   disk.PageID
	PinCount int
	Dirty    bool
	Data     [disk.PageSize]byte
}

// Pool is a fixed-capacity buffer pool. All public operations are
// mutually exclusive under a single coarse mutex, matching the "disk I/O
// performed while holding the mutex" simplification of the core.
type Pool struct {
	mu        sync.Mutex
	frames    []Frame
	freeList  []int
	pageTable *hashtable.Table[disk.PageID, int]
	replacer  *replacer.LRUK
	disk      *disk.Manager
	log       *slog.Logger
}

// New creates a pool of the given size (number of frames) backed by dm,
// evicting victims with LRU-K using the given k. log may be nil, in
// which case pool diagnostics are discarded.
func New(size int, k int, dm *disk.Manager, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	free := make([]int, size)
	for i := range free {
		free[i] = i
	}
	p := &Pool{
		frames:    make([]Frame, size),
		freeList:  free,
		pageTable: hashtable.New[disk.PageID, int](8, hashtable.Int64Key[disk.PageID]()),
		replacer:  replacer.New(size, k),
		disk:      dm,
		log:       log,
	}
	for i := range p.frames {
		p.frames[i].PageID = disk.InvalidPageID
	}
	return p
}

// victim picks a frame to reuse: from the free list if non-empty,
// otherwise by evicting through the replacer. If the chosen frame is
// dirty its bytes are written back first. Returns false if no frame is
// available at all.
func (p *Pool) victim() (int, bool) {
	if n := len(p.freeList); n > 0 {
		fid := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return fid, true
	}
	fid, ok := p.replacer.Evict()
	if !ok {
		return 0, false
	}
	f := &p.frames[fid]
	if f.Dirty {
		if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
			p.log.Error("write back victim failed", "page_id", f.PageID, "err", err)
		}
	}
	p.pageTable.Remove(f.PageID)
	return int(fid), true
}

// NewPage allocates a fresh page, pins it, and returns its id and frame.
// Absence means no frame is available (free-list empty and every frame
// is currently pinned).
func (p *Pool) NewPage() (disk.PageID, *Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.victim()
	if !ok {
		return disk.InvalidPageID, nil, false
	}

	pid := p.disk.AllocatePage()
	f := &p.frames[fid]
	*f = Frame{PageID: pid, PinCount: 1, Dirty: false}

	p.pageTable.Insert(pid, fid)
	p.replacer.RecordAccess(replacer.FrameID(fid))
	p.replacer.SetEvictable(replacer.FrameID(fid), false)

	p.log.Debug("new page", "page_id", pid, "frame", fid, "pool_bytes", humanize.Bytes(uint64(len(p.frames)*disk.PageSize)))
	return pid, f, true
}

// FetchPage returns the frame holding pid, reading it from disk and
// evicting a victim if it is not already resident. The returned frame is
// pinned; absence means no frame was available for a required eviction.
func (p *Pool) FetchPage(pid disk.PageID) (*Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable.Find(pid); ok {
		f := &p.frames[fid]
		f.PinCount++
		p.replacer.RecordAccess(replacer.FrameID(fid))
		p.replacer.SetEvictable(replacer.FrameID(fid), false)
		return f, true
	}

	fid, ok := p.victim()
	if !ok {
		return nil, false
	}
	f := &p.frames[fid]
	*f = Frame{PageID: pid, PinCount: 1, Dirty: false}
	if err := p.disk.ReadPage(pid, f.Data[:]); err != nil {
		p.log.Error("read page failed", "page_id", pid, "err", err)
		f.PageID = disk.InvalidPageID
		p.freeList = append(p.freeList, fid)
		return nil, false
	}

	p.pageTable.Insert(pid, fid)
	p.replacer.RecordAccess(replacer.FrameID(fid))
	p.replacer.SetEvictable(replacer.FrameID(fid), false)

	p.log.Debug("fetch page miss", "page_id", pid, "frame", fid)
	return f, true
}

// UnpinPage decrements pid's pin count, ORing dirty into the frame's
// dirty flag, and makes the frame evictable once the pin count reaches
// zero. Returns false if pid is not resident or already fully unpinned.
func (p *Pool) UnpinPage(pid disk.PageID, dirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable.Find(pid)
	if !ok {
		return false
	}
	f := &p.frames[fid]
	if f.PinCount <= 0 {
		return false
	}
	if dirty {
		f.Dirty = true
	}
	f.PinCount--
	if f.PinCount == 0 {
		p.replacer.SetEvictable(replacer.FrameID(fid), true)
	}
	return true
}

// FlushPage writes pid's frame through the disk manager if dirty and
// clears its dirty flag. Returns false if pid is not resident.
func (p *Pool) FlushPage(pid disk.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable.Find(pid)
	if !ok {
		return false
	}
	f := &p.frames[fid]
	if !f.Dirty {
		return true
	}
	if err := p.disk.WritePage(pid, f.Data[:]); err != nil {
		p.log.Error("flush page failed", "page_id", pid, "err", err)
		return false
	}
	f.Dirty = false
	return true
}

// FlushAllPages flushes every resident dirty frame.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	flushed := 0
	for i := range p.frames {
		f := &p.frames[i]
		if f.PageID == disk.InvalidPageID || !f.Dirty {
			continue
		}
		if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
			return fmt.Errorf("buffer: flush page %d: %w", f.PageID, err)
		}
		f.Dirty = false
		flushed++
	}
	p.log.Debug("flush all pages", "flushed", humanize.Comma(int64(flushed)))
	return nil
}

// DeletePage removes pid from the pool and returns its frame to the free
// list, deallocating the id on the disk manager. Returns true if pid is
// not resident (nothing to do) or was successfully removed; false if it
// is still pinned.
func (p *Pool) DeletePage(pid disk.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable.Find(pid)
	if !ok {
		return true
	}
	f := &p.frames[fid]
	if f.PinCount > 0 {
		return false
	}

	p.pageTable.Remove(pid)
	p.replacer.Remove(replacer.FrameID(fid))
	*f = Frame{PageID: disk.InvalidPageID}
	p.freeList = append(p.freeList, fid)
	p.disk.DeallocatePage(pid)
	return true
}

// Size reports the pool's total frame capacity.
func (p *Pool) Size() int {
	return len(p.frames)
}
