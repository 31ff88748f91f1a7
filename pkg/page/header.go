// Package page implements the typed, in-place views C5 uses to interpret
// a buffer-pool frame's raw bytes as a B+Tree internal or leaf node: a
// common 24-byte header, little-endian packed fields, and a sorted
// key/value (leaf) or key/child-id (internal) array immediately after.
//
// Grounded on storage_engine/access/indexfile_manager/bplustree/node_to_
// index_page.go for the packed-binary layout idiom (explicit byte
// offsets, binary.LittleEndian, fixed-width ids) and on spec.md §6 for
// the exact header layout. Unlike the teacher's length-prefixed,
// in-memory Node struct, entries here are fixed-width slots addressed
// directly in the page bytes — no (de)serialization pass is needed to
// read or write a single entry.
package page

import (
	"encoding/binary"

	"dbkernel/pkg/disk"
)

// Type discriminates a page's role.
type Type int32

const (
	Internal Type = 0
	Leaf     Type = 1
)

const (
	headerSize = 24

	offPageType   = 0
	offSize       = 4
	offMaxSize    = 8
	offPageID     = 12
	offParentID   = 16
	offReserved   = 20
	offNextPageID = headerSize // leaf-only, 4 bytes
)

// idWidth is the on-disk width of every page-id field (header ids, leaf
// next-page links, and internal child pointers): spec.md's layout packs
// every id into 4 bytes, so ids are stored truncated to their low 32
// bits, matching the teacher's "local page id" convention.
const idWidth = 4

func putPageID(buf []byte, id disk.PageID) {
	binary.LittleEndian.PutUint32(buf, uint32(id))
}

func getPageID(buf []byte) disk.PageID {
	v := int32(binary.LittleEndian.Uint32(buf))
	if v == -1 {
		return disk.InvalidPageID
	}
	return disk.PageID(v)
}

// PeekType reads a page's type tag without committing to either typed
// view, for callers (like a tree descent) that must decide which view to
// wrap the bytes in.
func PeekType(data []byte) Type {
	return Type(int32(binary.LittleEndian.Uint32(data[offPageType:])))
}

// header is embedded by InternalPage and LeafPage; it reads and writes
// the fields of the fixed 24-byte header shared by both.
type header struct {
	data []byte
}

func (h header) Type() Type {
	return Type(int32(binary.LittleEndian.Uint32(h.data[offPageType:])))
}

func (h header) setType(t Type) {
	binary.LittleEndian.PutUint32(h.data[offPageType:], uint32(t))
}

func (h header) Size() int {
	return int(int32(binary.LittleEndian.Uint32(h.data[offSize:])))
}

func (h header) setSize(n int) {
	binary.LittleEndian.PutUint32(h.data[offSize:], uint32(int32(n)))
}

func (h header) MaxSize() int {
	return int(int32(binary.LittleEndian.Uint32(h.data[offMaxSize:])))
}

func (h header) setMaxSize(n int) {
	binary.LittleEndian.PutUint32(h.data[offMaxSize:], uint32(int32(n)))
}

func (h header) PageID() disk.PageID {
	return getPageID(h.data[offPageID:])
}

func (h header) setPageID(id disk.PageID) {
	putPageID(h.data[offPageID:], id)
}

func (h header) ParentPageID() disk.PageID {
	return getPageID(h.data[offParentID:])
}

func (h header) SetParentPageID(id disk.PageID) {
	putPageID(h.data[offParentID:], id)
}
