// Package history persists the raw input lines collected during dialog
// series, for post-mortem diagnostics. A series always keeps its own
// in-memory history; this package is the optional durable mirror.
package history

import (
	"context"
	"sync"
	"time"
)

// Entry is one recorded input line.
type Entry struct {
	SeriesID string
	Line     string
	At       time.Time
}

// Log records collected input lines keyed by series.
type Log interface {
	// Append records one input line for a series.
	Append(ctx context.Context, seriesID, line string) error

	// Lines returns every recorded line for a series, in insertion order.
	Lines(ctx context.Context, seriesID string) ([]string, error)

	// Close releases any underlying resources.
	Close() error
}

// MemoryLog is an in-memory Log, suitable for tests and short-lived bots.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLog constructs an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements Log.
func (l *MemoryLog) Append(_ context.Context, seriesID, line string) error {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{SeriesID: seriesID, Line: line, At: time.Now()})
	l.mu.Unlock()
	return nil
}

// Lines implements Log.
func (l *MemoryLog) Lines(_ context.Context, seriesID string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	for _, e := range l.entries {
		if e.SeriesID == seriesID {
			out = append(out, e.Line)
		}
	}
	return out, nil
}

// Close implements Log.
func (l *MemoryLog) Close() error { return nil }
