package parley

import "github.com/sasha-s/go-deadlock"

// MemoryBusyTracker is the default process-wide channel-busy registry. A
// channel is marked busy while one of its steps is collecting input, so
// callers can refuse unrelated commands there.
type MemoryBusyTracker struct {
	mu   deadlock.Mutex
	busy map[string]struct{}
}

// NewMemoryBusyTracker constructs an empty tracker.
func NewMemoryBusyTracker() *MemoryBusyTracker {
	return &MemoryBusyTracker{busy: make(map[string]struct{})}
}

// MarkBusy implements BusyTracker.
func (t *MemoryBusyTracker) MarkBusy(channelID string) {
	t.mu.Lock()
	t.busy[channelID] = struct{}{}
	t.mu.Unlock()
}

// ClearBusy implements BusyTracker.
func (t *MemoryBusyTracker) ClearBusy(channelID string) {
	t.mu.Lock()
	delete(t.busy, channelID)
	t.mu.Unlock()
}

// Busy reports whether a channel currently has a collecting step.
func (t *MemoryBusyTracker) Busy(channelID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.busy[channelID]
	return ok
}
