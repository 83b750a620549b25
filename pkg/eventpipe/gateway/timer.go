package gateway

import (
	"sync"
	"time"
)

// batchTimer is a cancellable one-shot timer driving timeout flushes.
// Cancel is idempotent: cancelling an already-fired or already-cancelled
// timer is a no-op, and a fire that lost the race to Cancel does not run
// the callback.
type batchTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	done  bool
}

// newBatchTimer arms a timer that runs fn after d unless cancelled.
func newBatchTimer(d time.Duration, fn func()) *batchTimer {
	t := &batchTimer{}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return
		}
		t.done = true
		t.mu.Unlock()
		fn()
	})
	return t
}

// Cancel stops the timer if it has not fired.
func (t *batchTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.timer.Stop()
}

// Active returns true while the timer is armed and unfired.
func (t *batchTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.done
}
