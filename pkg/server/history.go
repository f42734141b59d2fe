package server

import (
	"sync"
	"time"
)

// historyEntry holds one sent ops payload for potential replay.
type historyEntry struct {
	seq     uint64
	payload []byte // encoded protocol.OpsFrame, without the frame header
	sentAt  time.Time
}

// History is a ring of the ops payloads a session has sent, kept so a
// reconnecting client can be caught up from the sequence it last applied.
// When the ring no longer covers the gap the session falls back to a full
// resync.
//
// The session loop writes and the handshake path reads, so access is
// mutex-guarded even though both sides are low-traffic.
type History struct {
	mu       sync.RWMutex
	entries  []historyEntry
	head     int // next write position
	count    int
	capacity int
	minSeq   uint64
	maxSeq   uint64
}

// NewHistory returns a History holding up to capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	return &History{
		entries:  make([]historyEntry, capacity),
		capacity: capacity,
	}
}

// Add records a sent payload. Sequences must arrive in increasing order;
// the ring overwrites its oldest entry when full.
func (h *History) Add(seq uint64, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Copy: the session reuses encoder buffers.
	cp := make([]byte, len(payload))
	copy(cp, payload)

	h.entries[h.head] = historyEntry{seq: seq, payload: cp, sentAt: time.Now()}
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}

	h.maxSeq = seq
	if h.count == 1 {
		h.minSeq = seq
	} else if h.count == h.capacity {
		// Full ring: the oldest entry is the one head now points at.
		h.minSeq = h.entries[h.head].seq
	}
}

// After returns the payloads for sequences (afterSeq, maxSeq], oldest
// first, or nil if the ring no longer holds the whole range.
func (h *History) After(afterSeq uint64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || afterSeq >= h.maxSeq {
		return nil
	}
	if afterSeq+1 < h.minSeq {
		return nil // gap: oldest needed frame already overwritten
	}

	var out [][]byte
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + h.capacity) % h.capacity
		if e := h.entries[idx]; e.seq > afterSeq {
			out = append(out, e.payload)
		}
	}
	return out
}

// Covers reports whether After(afterSeq) would return the full gap.
func (h *History) Covers(afterSeq uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return false
	}
	return afterSeq+1 >= h.minSeq && afterSeq < h.maxSeq
}

// UpTo reports whether the history is current through seq, i.e. nothing
// after seq has been recorded.
func (h *History) UpTo(seq uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return seq >= h.maxSeq
}

// Count returns the number of retained entries.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// MaxSeq returns the newest recorded sequence, zero when empty.
func (h *History) MaxSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxSeq
}

// Clear empties the ring.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		h.entries[i] = historyEntry{}
	}
	h.head = 0
	h.count = 0
	h.minSeq = 0
	h.maxSeq = 0
}
