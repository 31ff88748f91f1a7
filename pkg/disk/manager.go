// Package disk implements the blocking, page-addressed file I/O that the
// buffer pool treats as an external collaborator: a fixed page size, a
// monotonic page-id allocator, and synchronous read/write at a page's
// offset. It produces no logging and interprets no transaction state.
package disk

import (
	"fmt"
	"os"
	"sync"
)

// PageSize is the fixed size, in bytes, of every page moved between the
// buffer pool and disk.
const PageSize = 4096

// PageID identifies a page on disk. It is drawn from a monotonically
// increasing allocator; InvalidPageID denotes "no page".
type PageID int64

// InvalidPageID is the sentinel page id meaning "no page".
const InvalidPageID PageID = -1

// Manager owns a single backing file and hands out page ids from a
// monotonic counter. It never buffers pages in memory; every ReadPage/
// WritePage call is a blocking syscall at the page's byte offset.
type Manager struct {
	mu         sync.Mutex
	file       *os.File
	nextPageID int64
	deallocs   map[PageID]struct{}
}

// NewManager opens (creating if necessary) the file at path for page
// storage.
func NewManager(path string) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	// Page id 0 is reserved for the header/catalog page (spec.md §6); a
	// brand-new file starts the allocator at 1 so the first NewPage call
	// never collides with it.
	next := stat.Size() / PageSize
	if next == 0 {
		next = 1
	}
	return &Manager{
		file:       f,
		nextPageID: next,
		deallocs:   make(map[PageID]struct{}),
	}, nil
}

// AllocatePage returns the next page id and advances the allocator. It
// does not touch the file; the page's bytes are written on the caller's
// first WritePage.
func (m *Manager) AllocatePage() PageID {
	m.mu.Lock()
	defer m.mu.Unlock()
	pid := PageID(m.nextPageID)
	m.nextPageID++
	return pid
}

// DeallocatePage records pid in an internal set of freed ids. The core
// never reuses deallocated ids, and nothing in this package reads the
// set back.
func (m *Manager) DeallocatePage(pid PageID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deallocs[pid] = struct{}{}
}

// ReadPage fills buf (which must be exactly PageSize bytes) with the
// contents of pid. Reading a page never written returns zero-filled
// bytes, matching the open question in spec.md §9: a never-written page
// reads as zeroes rather than erroring.
func (m *Manager) ReadPage(pid PageID, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("disk: read buffer must be %d bytes, got %d", PageSize, len(buf))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.file.ReadAt(buf, int64(pid)*PageSize)
	if err != nil && n == 0 {
		// Never-written page: treat as zero-filled rather than propagating EOF.
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if err != nil && n < PageSize {
		for i := n; i < PageSize; i++ {
			buf[i] = 0
		}
	}
	return nil
}

// WritePage persists buf (exactly PageSize bytes) at pid's offset.
func (m *Manager) WritePage(pid PageID, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("disk: write buffer must be %d bytes, got %d", PageSize, len(buf))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.file.WriteAt(buf, int64(pid)*PageSize); err != nil {
		return fmt.Errorf("disk: write page %d: %w", pid, err)
	}
	return nil
}

// Close releases the backing file handle.
func (m *Manager) Close() error {
	return m.file.Close()
}
