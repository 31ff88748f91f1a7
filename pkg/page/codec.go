package page

import "encoding/binary"

// Codec serializes keys of type K into fixed-width slots so that entries
// can be addressed directly in page bytes without a decode pass over the
// whole array. Grounded in the teacher's binary.LittleEndian idiom for
// packed on-disk fields.
type Codec[K any] interface {
	// Size is the fixed width, in bytes, of an encoded key.
	Size() int
	Put(buf []byte, k K)
	Get(buf []byte) K
}

// Int64Codec encodes any ~int64 key as 8 little-endian bytes.
type Int64Codec[K ~int64] struct{}

func (Int64Codec[K]) Size() int { return 8 }

func (Int64Codec[K]) Put(buf []byte, k K) {
	binary.LittleEndian.PutUint64(buf, uint64(k))
}

func (Int64Codec[K]) Get(buf []byte) K {
	return K(binary.LittleEndian.Uint64(buf))
}

// FixedStringCodec encodes strings into an n-byte, zero-padded slot.
// Keys longer than n are truncated; callers must ensure key lengths fit.
type FixedStringCodec struct {
	N int
}

func (c FixedStringCodec) Size() int { return c.N }

func (c FixedStringCodec) Put(buf []byte, k string) {
	clear(buf[:c.N])
	copy(buf[:c.N], k)
}

func (c FixedStringCodec) Get(buf []byte) string {
	end := 0
	for end < c.N && buf[end] != 0 {
		end++
	}
	return string(buf[:end])
}

// RID (record id) identifies a tuple's physical location: the page it
// lives on and its slot within that page. This is the fixed-width value
// type leaf pages store, mirroring bustub's RID.
type RID struct {
	PageID int32
	SlotID int32
}

const ridSize = 8

func putRID(buf []byte, r RID) {
	binary.LittleEndian.PutUint32(buf[0:], uint32(r.PageID))
	binary.LittleEndian.PutUint32(buf[4:], uint32(r.SlotID))
}

func getRID(buf []byte) RID {
	return RID{
		PageID: int32(binary.LittleEndian.Uint32(buf[0:])),
		SlotID: int32(binary.LittleEndian.Uint32(buf[4:])),
	}
}
