package replacer

import "testing"

// TestEvictClassicLRUFallback exercises scenario S2 from spec.md: with a
// pool of 7 frames and K=2, a single access to each of frames 1..6 means
// every frame has infinite backward K-distance, so eviction degrades to
// plain LRU and picks the oldest-accessed frame.
func TestEvictClassicLRUFallback(t *testing.T) {
	r := New(7, 2)
	for _, f := range []FrameID{1, 2, 3, 4, 5, 6} {
		r.RecordAccess(f)
		r.SetEvictable(f, true)
	}

	victim, ok := r.Evict()
	if !ok || victim != 1 {
		t.Fatalf("Evict() = (%d, %v), want (1, true)", victim, ok)
	}

	// Re-accessing 1,2,3,4 gives them a full K=2 history; frame 1 is
	// back in the replacer but was never re-marked evictable, so it must
	// not be chosen. Frames 5 and 6 still have a single access each
	// (infinite distance), and infinite always outranks finite, so the
	// older of the two (5) is evicted next.
	for _, f := range []FrameID{1, 2, 3, 4} {
		r.RecordAccess(f)
	}
	victim, ok = r.Evict()
	if !ok || victim != 5 {
		t.Fatalf("Evict() after re-access = (%d, %v), want (5, true)", victim, ok)
	}

	// Now only frame 6 has an access (infinite distance); frames 2,3,4
	// have full K=2 history. Accessing 6 again gives every remaining
	// evictable frame a full history, so the victim is whichever has the
	// largest finite K-distance: frame 2, whose oldest retained access is
	// the earliest of the four.
	r.RecordAccess(6)
	victim, ok = r.Evict()
	if !ok || victim != 2 {
		t.Fatalf("Evict() after final access = (%d, %v), want (2, true)", victim, ok)
	}
}

func TestRecordAccessUnknownFrameIgnored(t *testing.T) {
	r := New(2, 2)
	r.RecordAccess(99) // out of range, must not panic
	if r.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", r.Size())
	}
}

func TestSetEvictableTracksSize(t *testing.T) {
	r := New(3, 1)
	r.RecordAccess(0)
	r.RecordAccess(1)
	r.SetEvictable(0, true)
	if got := r.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1", got)
	}
	r.SetEvictable(0, true) // idempotent
	if got := r.Size(); got != 1 {
		t.Fatalf("Size() after repeat set = %d, want 1", got)
	}
	r.SetEvictable(0, false)
	if got := r.Size(); got != 0 {
		t.Fatalf("Size() after unset = %d, want 0", got)
	}
	// Frame 2 was never recorded; SetEvictable must no-op.
	r.SetEvictable(2, true)
	if got := r.Size(); got != 0 {
		t.Fatalf("Size() after untracked frame = %d, want 0", got)
	}
}

func TestRemoveOnlyEvictable(t *testing.T) {
	r := New(2, 2)
	r.RecordAccess(0)
	r.Remove(0) // not evictable yet, no-op
	if r.Size() != 0 {
		t.Fatalf("Size() = %d, want 0 (remove of non-evictable frame must no-op)", r.Size())
	}
	r.SetEvictable(0, true)
	r.Remove(0)
	if r.Size() != 0 {
		t.Fatalf("Size() after remove = %d, want 0", r.Size())
	}
	if _, ok := r.Evict(); ok {
		t.Fatalf("Evict() after Remove should find nothing evictable")
	}
}

func TestEvictEmpty(t *testing.T) {
	r := New(4, 2)
	if _, ok := r.Evict(); ok {
		t.Fatalf("Evict() on empty replacer should return false")
	}
}
