package scheduler

import (
	"sync"
	"time"
)

// Deferred holds at most one pending delayed call. Scheduling a new call or
// cancelling stops the previous one.
//
// Stopping a timer cannot recall a callback that already started, so
// callers still guard their callbacks with their own state checks.
type Deferred struct {
	mu    sync.Mutex
	timer *time.Timer
}

// Schedule runs fn after delay, replacing any pending call.
func (d *Deferred) Schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.timer == t {
			d.timer = nil
		}
		d.mu.Unlock()
		fn()
	})
	d.timer = t
}

// Cancel stops the pending call, if any. It reports whether one was stopped
// before it fired.
func (d *Deferred) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Pending reports whether a call is scheduled and has not fired yet.
func (d *Deferred) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
