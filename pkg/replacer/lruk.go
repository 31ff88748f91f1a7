// Package replacer implements the LRU-K eviction policy used by the
// buffer pool to pick a victim frame: the frame with the largest
// backward K-distance, falling back to classic LRU when fewer than K
// accesses have been recorded.
//
// Grounded on original_source/src/buffer/lru_k_replacer.cpp. The ring
// buffer per frame, the shared monotonic timestamp counter, and the
// "a frame with fewer than K accesses always outranks one with a full
// history" eviction rule are carried over unchanged; the C++ source's
// sentinel-overwrite control flow (a single SIZE_MAX "poison" value
// threaded through one loop) is replaced here with an explicit two-group
// partition, which is equivalent but reads as ordinary Go.
package replacer

import "sync"

// FrameID indexes a frame in the buffer pool's frame array.
type FrameID int

const noTimestamp = ^uint64(0)

type frameRecord struct {
	history    []uint64 // ring buffer of up to k timestamps; ptr is the next slot to write (the oldest once full)
	ptr        int
	inReplacer bool
	evictable  bool
}

func newFrameRecord(k int) frameRecord {
	h := make([]uint64, k)
	for i := range h {
		h[i] = noTimestamp
	}
	return frameRecord{history: h}
}

// access appends ts, overwriting the oldest recorded timestamp.
func (f *frameRecord) access(ts uint64) {
	f.inReplacer = true
	f.history[f.ptr] = ts
	f.ptr = (f.ptr + 1) % len(f.history)
}

// kDistance reports the backward K-distance at time now and whether the
// frame has recorded a full K accesses. ptr always points at the oldest
// retained timestamp once the ring has wrapped at least once, which is
// exactly the Kth-most-recent access.
func (f *frameRecord) kDistance(now uint64) (dist uint64, full bool) {
	oldest := f.history[f.ptr]
	if oldest == noTimestamp {
		return 0, false
	}
	return now - oldest, true
}

// lastAccess reports the age of the single most recent access, used to
// break ties among frames with fewer than K accesses (classic LRU).
func (f *frameRecord) lastAccess(now uint64) uint64 {
	p := (f.ptr + len(f.history) - 1) % len(f.history)
	return now - f.history[p]
}

func (f *frameRecord) reset(k int) {
	f.inReplacer = false
	f.evictable = false
	f.ptr = 0
	for i := range f.history {
		f.history[i] = noTimestamp
	}
}

// LRUK tracks per-frame access history for a fixed-size pool of frames
// and selects eviction victims by backward K-distance.
type LRUK struct {
	mu        sync.Mutex
	k         int
	now       uint64
	frames    []frameRecord
	evictable int // count of frames with evictable == true
}

// New creates a replacer tracking numFrames frames, each keeping up to k
// most recent access timestamps.
func New(numFrames, k int) *LRUK {
	frames := make([]frameRecord, numFrames)
	for i := range frames {
		frames[i] = newFrameRecord(k)
	}
	return &LRUK{k: k, frames: frames}
}

func (r *LRUK) valid(fid FrameID) bool {
	return fid >= 0 && int(fid) < len(r.frames)
}

// RecordAccess appends the current timestamp to frame fid's history and
// advances the shared counter. Unknown frame ids are ignored.
func (r *LRUK) RecordAccess(fid FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.valid(fid) {
		return
	}
	r.frames[fid].access(r.now)
	r.now++
}

// SetEvictable marks fid as eligible (or ineligible) for eviction,
// adjusting Size() accordingly. No-op for unknown or untracked frames.
func (r *LRUK) SetEvictable(fid FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.valid(fid) || !r.frames[fid].inReplacer {
		return
	}
	f := &r.frames[fid]
	if f.evictable && !evictable {
		r.evictable--
	} else if !f.evictable && evictable {
		r.evictable++
	}
	f.evictable = evictable
}

// Evict selects and removes the evictable frame with the largest
// backward K-distance. Frames with fewer than K accesses (infinite
// distance) always outrank frames with a full history; ties within that
// group are broken by the oldest single last access (classic LRU).
// Returns false if no frame is currently evictable.
func (r *LRUK) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bestInf, bestFin := -1, -1
	var bestInfAge, bestFinDist uint64
	for i := range r.frames {
		f := &r.frames[i]
		if !f.inReplacer || !f.evictable {
			continue
		}
		if d, full := f.kDistance(r.now); full {
			if bestFin == -1 || d > bestFinDist {
				bestFin, bestFinDist = i, d
			}
			continue
		}
		age := f.lastAccess(r.now)
		if bestInf == -1 || age > bestInfAge {
			bestInf, bestInfAge = i, age
		}
	}

	victim := bestInf
	if victim == -1 {
		victim = bestFin
	}
	if victim == -1 {
		return 0, false
	}
	r.frames[victim].reset(r.k)
	r.evictable--
	return FrameID(victim), true
}

// Remove drops fid's history. It is only valid for a currently-evictable
// frame; any other call is a no-op.
func (r *LRUK) Remove(fid FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.valid(fid) || !r.frames[fid].inReplacer || !r.frames[fid].evictable {
		return
	}
	r.frames[fid].reset(r.k)
	r.evictable--
}

// Size reports the number of frames currently marked evictable.
func (r *LRUK) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictable
}
