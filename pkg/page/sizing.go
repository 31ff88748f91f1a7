package page

import (
	"cmp"

	"dbkernel/pkg/disk"
)

// MaxSizesForKey computes the largest leaf and internal max_size values
// that fit a page of disk.PageSize bytes for the given key codec.
//
// Both page kinds reserve one physical slot beyond their logical "full"
// threshold: SplitAndInsert materializes the overflow entry in-place
// before dividing it, so a leaf's physical capacity is max_size entries
// (full at max_size-1) and an internal page's physical capacity is
// max_size+1 entries (full at max_size). That headroom is subtracted
// here rather than left for callers to rediscover.
func MaxSizesForKey[K cmp.Ordered](codec Codec[K]) (leafMaxSize, internalMaxSize int) {
	leafEntrySize := codec.Size() + ridSize
	leafCapacity := (disk.PageSize - entriesOffset) / leafEntrySize
	leafMaxSize = leafCapacity

	internalEntrySize := codec.Size() + idWidth
	internalCapacity := (disk.PageSize - headerSize) / internalEntrySize
	internalMaxSize = internalCapacity - 1

	return leafMaxSize, internalMaxSize
}
