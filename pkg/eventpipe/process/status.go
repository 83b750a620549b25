package process

import (
	"log/slog"
	"sync"
	"time"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/observability"
)

// Status is the lifecycle marker of one event, keyed by event ID.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// terminal returns true for states that may never transition again.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type statusEntry struct {
	status    Status
	updatedAt time.Time
}

// StatusStore tracks per-event lifecycle state: an index keyed by event
// ID with an explicit age-based sweep. Entries are garbage-collected
// after the retention window; a terminal state is set exactly once.
type StatusStore struct {
	mu        sync.RWMutex
	entries   map[string]statusEntry
	retention time.Duration

	logger    *slog.Logger
	closeOnce sync.Once
	closeCh   chan struct{}

	now func() time.Time
}

// StatusStoreOptions configure the store.
type StatusStoreOptions struct {
	// Retention is how long entries survive after their last update.
	// Default 30 minutes.
	Retention time.Duration

	// SweepInterval is the background sweep period. Zero disables the
	// background sweep; Sweep can still be called manually.
	SweepInterval time.Duration

	// Logger receives sweep output. Nil disables.
	Logger *slog.Logger
}

// NewStatusStore creates a store. A positive SweepInterval starts the
// background sweep; call Close to stop it.
func NewStatusStore(opts StatusStoreOptions) *StatusStore {
	if opts.Retention <= 0 {
		opts.Retention = 30 * time.Minute
	}

	s := &StatusStore{
		entries:   make(map[string]statusEntry),
		retention: opts.Retention,
		logger:    opts.Logger,
		closeCh:   make(chan struct{}),
		now:       time.Now,
	}

	if opts.SweepInterval > 0 {
		go s.sweepLoop(opts.SweepInterval)
	}

	return s
}

// Set transitions an event to the given status. Transitions out of a
// terminal state are ignored: the first terminal state wins.
func (s *StatusStore) Set(eventID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[eventID]; ok && cur.status.terminal() {
		return
	}
	s.entries[eventID] = statusEntry{status: status, updatedAt: s.now()}
}

// Get returns the status of an event, if tracked.
func (s *StatusStore) Get(eventID string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[eventID]
	return e.status, ok
}

// Counts returns how many tracked events sit in each state.
func (s *StatusStore) Counts() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[Status]int, 4)
	for _, e := range s.entries {
		counts[e.status]++
	}
	return counts
}

// Len returns the number of tracked events.
func (s *StatusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes entries older than the retention window. Returns the
// number removed.
func (s *StatusStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	removed := 0
	for id, e := range s.entries {
		if e.updatedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Clear drops all entries.
func (s *StatusStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]statusEntry)
}

// Close stops the background sweep.
func (s *StatusStore) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

func (s *StatusStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.Sweep()
			observability.LogSweep(s.logger, "status", removed)
		case <-s.closeCh:
			return
		}
	}
}
