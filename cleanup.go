package parley

import (
	"context"

	"github.com/sasha-s/go-deadlock"
)

// CleanupRegistry accumulates handles to every message a step or series
// caused to be sent, for bulk deletion when the dialog ends. A registry is
// owned by exactly one step or series at a time; merging transfers entries.
type CleanupRegistry struct {
	mu       deadlock.Mutex
	messages []Message
}

// NewCleanupRegistry constructs an empty registry.
func NewCleanupRegistry() *CleanupRegistry {
	return &CleanupRegistry{}
}

// Track records a sent message for later deletion.
func (r *CleanupRegistry) Track(msg Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

// Merge drains every tracked message of other into this registry. The donor
// is left empty; ownership transfers, it is never shared.
func (r *CleanupRegistry) Merge(other *CleanupRegistry) {
	if other == nil || other == r {
		return
	}

	other.mu.Lock()
	drained := other.messages
	other.messages = nil
	other.mu.Unlock()

	r.mu.Lock()
	r.messages = append(r.messages, drained...)
	r.mu.Unlock()
}

// Messages returns a snapshot of the tracked messages.
func (r *CleanupRegistry) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Len returns the number of tracked messages.
func (r *CleanupRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// Purge deletes every tracked message, best-effort. Delivery failures are
// logged and never escalated. The registry is emptied either way.
func (r *CleanupRegistry) Purge(ctx context.Context, messenger Messenger, logger Logger) {
	r.mu.Lock()
	drained := r.messages
	r.messages = nil
	r.mu.Unlock()

	if messenger == nil {
		return
	}
	for _, msg := range drained {
		if err := messenger.Delete(ctx, msg, 0); err != nil {
			logger.Warn("cleanup: failed to delete message %s: %v", msg.ID, err)
		}
	}
}
