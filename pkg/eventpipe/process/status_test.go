package process_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/process"
)

func TestStatusStoreTransitions(t *testing.T) {
	s := process.NewStatusStore(process.StatusStoreOptions{})
	defer s.Close()

	s.Set("evt_1", process.StatusPending)
	s.Set("evt_1", process.StatusProcessing)

	status, ok := s.Get("evt_1")
	require.True(t, ok)
	assert.Equal(t, process.StatusProcessing, status)

	_, ok = s.Get("evt_missing")
	assert.False(t, ok)
}

// TestStatusStoreTerminalOnce verifies the first terminal state wins.
func TestStatusStoreTerminalOnce(t *testing.T) {
	s := process.NewStatusStore(process.StatusStoreOptions{})
	defer s.Close()

	s.Set("evt_1", process.StatusProcessing)
	s.Set("evt_1", process.StatusCompleted)

	// Neither a second terminal state nor a regression sticks.
	s.Set("evt_1", process.StatusFailed)
	s.Set("evt_1", process.StatusProcessing)

	status, _ := s.Get("evt_1")
	assert.Equal(t, process.StatusCompleted, status)
}

func TestStatusStoreCounts(t *testing.T) {
	s := process.NewStatusStore(process.StatusStoreOptions{})
	defer s.Close()

	s.Set("a", process.StatusCompleted)
	s.Set("b", process.StatusCompleted)
	s.Set("c", process.StatusFailed)
	s.Set("d", process.StatusProcessing)

	counts := s.Counts()
	assert.Equal(t, 2, counts[process.StatusCompleted])
	assert.Equal(t, 1, counts[process.StatusFailed])
	assert.Equal(t, 1, counts[process.StatusProcessing])
	assert.Equal(t, 4, s.Len())
}

func TestStatusStoreSweep(t *testing.T) {
	s := process.NewStatusStore(process.StatusStoreOptions{
		Retention: 20 * time.Millisecond,
	})
	defer s.Close()

	s.Set("old", process.StatusCompleted)
	time.Sleep(40 * time.Millisecond)
	s.Set("fresh", process.StatusCompleted)

	removed := s.Sweep()
	assert.Equal(t, 1, removed)

	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)
}

func TestStatusStoreClear(t *testing.T) {
	s := process.NewStatusStore(process.StatusStoreOptions{})
	defer s.Close()

	s.Set("a", process.StatusCompleted)
	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestStatusStoreBackgroundSweep(t *testing.T) {
	s := process.NewStatusStore(process.StatusStoreOptions{
		Retention:     10 * time.Millisecond,
		SweepInterval: 20 * time.Millisecond,
	})
	defer s.Close()

	s.Set("old", process.StatusCompleted)

	assert.Eventually(t, func() bool {
		return s.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
