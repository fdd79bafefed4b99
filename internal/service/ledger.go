package service

import "sync"

// PendingLedger maps cart item id to a proposed, not yet confirmed quantity.
// Writes for the same item are last-write-wins.
type PendingLedger struct {
	mu      sync.Mutex
	pending map[int64]int
}

// NewPendingLedger creates an empty ledger
func NewPendingLedger() *PendingLedger {
	return &PendingLedger{pending: make(map[int64]int)}
}

// Set records the proposed quantity for itemID
func (l *PendingLedger) Set(itemID int64, quantity int) {
	l.mu.Lock()
	l.pending[itemID] = quantity
	l.mu.Unlock()
}

// Get returns the proposed quantity for itemID
func (l *PendingLedger) Get(itemID int64) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.pending[itemID]
	return q, ok
}

// Clear drops the entry for itemID
func (l *PendingLedger) Clear(itemID int64) {
	l.mu.Lock()
	delete(l.pending, itemID)
	l.mu.Unlock()
}

// Reset drops every entry
func (l *PendingLedger) Reset() {
	l.mu.Lock()
	l.pending = make(map[int64]int)
	l.mu.Unlock()
}

// Snapshot returns a copy safe for the caller to keep
func (l *PendingLedger) Snapshot() map[int64]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int64]int, len(l.pending))
	for k, v := range l.pending {
		out[k] = v
	}
	return out
}

// Len returns the number of in-flight entries
func (l *PendingLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
