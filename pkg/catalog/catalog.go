// Package catalog implements the header-page directory that records a
// B+Tree's root page id under its name, fetched through the buffer pool
// at the well-known page id 0.
//
// Grounded on original_source's B+Tree test harness and b_plus_tree.cpp,
// which persist the root id via a header page, and on spec.md §3/§6,
// which names this interface (insert_record/update_record/delete_record)
// without fully specifying its on-disk shape — the fixed-width directory
// record format below is this component's own design choice, following
// the same packed-binary idiom C4 uses.
package catalog

import (
	"encoding/binary"
	"fmt"

	"dbkernel/pkg/buffer"
	"dbkernel/pkg/disk"
)

// HeaderPageID is the well-known page holding the name-to-root directory.
const HeaderPageID disk.PageID = 0

const (
	nameWidth   = 32
	recordWidth = nameWidth + 4 // name + root page id
	countOffset = 0
	recordsBase = 4
)

// maxRecords is how many (name, root) pairs fit in one page after the
// 4-byte count field.
const maxRecords = (disk.PageSize - recordsBase) / recordWidth

// Catalog is a directory of named B+Tree roots, persisted as page 0.
type Catalog struct {
	pool *buffer.Pool
}

// New wraps pool's page 0 as a catalog. It only checks that the page can
// be fetched and writes nothing: a never-written page reads as all-zero
// bytes, which decode as zero records, and an already-populated page is
// left untouched.
func New(pool *buffer.Pool) (*Catalog, error) {
	c := &Catalog{pool: pool}
	_, ok := pool.FetchPage(HeaderPageID)
	if !ok {
		return nil, fmt.Errorf("catalog: failed to fetch header page")
	}
	// A freshly-allocated page reads as all zero bytes, which already
	// decodes to count == 0; nothing further to initialize.
	pool.UnpinPage(HeaderPageID, false)
	return c, nil
}

func recordOffset(i int) int {
	return recordsBase + i*recordWidth
}

// count reads the live record count. Caller must hold no assumptions
// about locking; the catalog relies entirely on the buffer pool's own
// pin discipline and is not safe for concurrent structural changes.
func count(data []byte) int {
	return int(binary.LittleEndian.Uint32(data[countOffset:]))
}

func setCount(data []byte, n int) {
	binary.LittleEndian.PutUint32(data[countOffset:], uint32(n))
}

func recordName(data []byte, i int) string {
	off := recordOffset(i)
	raw := data[off : off+nameWidth]
	end := 0
	for end < nameWidth && raw[end] != 0 {
		end++
	}
	return string(raw[:end])
}

func recordRoot(data []byte, i int) disk.PageID {
	off := recordOffset(i) + nameWidth
	v := int32(binary.LittleEndian.Uint32(data[off:]))
	if v == -1 {
		return disk.InvalidPageID
	}
	return disk.PageID(v)
}

func setRecord(data []byte, i int, name string, root disk.PageID) {
	off := recordOffset(i)
	nameBuf := data[off : off+nameWidth]
	clear(nameBuf)
	copy(nameBuf, name)
	binary.LittleEndian.PutUint32(data[off+nameWidth:], uint32(int32(root)))
}

// Lookup returns the root page id recorded for name.
func (c *Catalog) Lookup(name string) (disk.PageID, bool) {
	f, ok := c.pool.FetchPage(HeaderPageID)
	if !ok {
		return disk.InvalidPageID, false
	}
	defer c.pool.UnpinPage(HeaderPageID, false)

	n := count(f.Data[:])
	for i := 0; i < n; i++ {
		if recordName(f.Data[:], i) == name {
			return recordRoot(f.Data[:], i), true
		}
	}
	return disk.InvalidPageID, false
}

// InsertRecord adds a new name/root mapping. Returns false if name is
// already present or the directory page is full.
func (c *Catalog) InsertRecord(name string, root disk.PageID) bool {
	f, ok := c.pool.FetchPage(HeaderPageID)
	if !ok {
		return false
	}
	defer c.pool.UnpinPage(HeaderPageID, true)

	n := count(f.Data[:])
	for i := 0; i < n; i++ {
		if recordName(f.Data[:], i) == name {
			return false
		}
	}
	if n >= maxRecords {
		return false
	}
	setRecord(f.Data[:], n, name, root)
	setCount(f.Data[:], n+1)
	return true
}

// UpdateRecord changes name's recorded root page id. Returns false if
// name is not present.
func (c *Catalog) UpdateRecord(name string, root disk.PageID) bool {
	f, ok := c.pool.FetchPage(HeaderPageID)
	if !ok {
		return false
	}
	defer c.pool.UnpinPage(HeaderPageID, true)

	n := count(f.Data[:])
	for i := 0; i < n; i++ {
		if recordName(f.Data[:], i) == name {
			setRecord(f.Data[:], i, name, root)
			return true
		}
	}
	return false
}

// DeleteRecord removes name's entry, reporting whether it was present.
func (c *Catalog) DeleteRecord(name string) bool {
	f, ok := c.pool.FetchPage(HeaderPageID)
	if !ok {
		return false
	}
	defer c.pool.UnpinPage(HeaderPageID, true)

	n := count(f.Data[:])
	for i := 0; i < n; i++ {
		if recordName(f.Data[:], i) == name {
			for j := i; j < n-1; j++ {
				name := recordName(f.Data[:], j+1)
				root := recordRoot(f.Data[:], j+1)
				setRecord(f.Data[:], j, name, root)
			}
			setCount(f.Data[:], n-1)
			return true
		}
	}
	return false
}
