// Package log provides the thinnest possible log-manager handle the core
// accepts without producing actual log records, per spec.md's "no logging
// is produced by the core" stance for recovery/durability. Write-ahead
// logging and crash recovery are explicitly out of scope for this module.
//
// Grounded on storage_engine/wal_manager/wal_segment.go's segment/LSN
// shape, reduced to a monotonic counter: no segment files, no Append/Sync,
// since nothing in C1-C5 ever replays a log record.
package log

import "sync/atomic"

// LSN is a log sequence number. The zero value means "no record".
type LSN uint64

// Manager hands out monotonically increasing LSNs. It writes nothing to
// disk; callers that want durable logging must layer it on themselves.
type Manager struct {
	next atomic.Uint64
}

// NewManager returns a Manager whose first AppendRecord() yields LSN 1.
func NewManager() *Manager {
	m := &Manager{}
	m.next.Store(1)
	return m
}

// AppendRecord returns the next LSN. No bytes are written or retained.
func (m *Manager) AppendRecord() LSN {
	return LSN(m.next.Add(1) - 1)
}
