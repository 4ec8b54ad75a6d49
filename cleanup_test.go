package parley

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupTrackAndPurge(t *testing.T) {
	messenger := &fakeMessenger{}
	logger := &TestLogger{t: t}

	r := NewCleanupRegistry()
	r.Track(Message{ID: "a", ChannelID: "chan"})
	r.Track(Message{ID: "b", ChannelID: "chan"})
	require.Equal(t, 2, r.Len())

	r.Purge(context.Background(), messenger, logger)

	assert.Equal(t, []string{"a", "b"}, messenger.deletedIDs())
	assert.Equal(t, 0, r.Len())
}

func TestCleanupMergeDrainsDonor(t *testing.T) {
	a := NewCleanupRegistry()
	b := NewCleanupRegistry()
	a.Track(Message{ID: "1"})
	b.Track(Message{ID: "2"})
	b.Track(Message{ID: "3"})

	a.Merge(b)

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 0, b.Len())

	// Nil and self merges are no-ops.
	a.Merge(nil)
	a.Merge(a)
	assert.Equal(t, 3, a.Len())
}

func TestCleanupPurgeWithoutMessenger(t *testing.T) {
	r := NewCleanupRegistry()
	r.Track(Message{ID: "a"})

	r.Purge(context.Background(), nil, &TestLogger{t: t})
	assert.Equal(t, 0, r.Len())
}

func TestCleanupConcurrentTrack(t *testing.T) {
	r := NewCleanupRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Track(Message{ID: fmt.Sprintf("m%d", i)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}
