package hashtable

import "encoding/binary"

// Int64Key returns a key encoder (a func(K) []byte, as New takes) for any
// signed 64-bit key type, suitable for disk.PageID and similar integer
// identifiers.
func Int64Key[K ~int64]() func(K) []byte {
	return func(k K) []byte {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		return buf[:]
	}
}

// StringKey is a key encoder for string keys.
func StringKey(k string) []byte {
	return []byte(k)
}
