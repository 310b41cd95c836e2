// Package timer provides scheduled callbacks with cancellation tokens.
package timer

import (
	"sync"
	"time"
)

// Token cancels a scheduled callback.
type Token interface {
	// Cancel stops the callback from running. It reports whether the call
	// prevented the callback; false means it already ran or was cancelled.
	Cancel() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Token
	Now() time.Time
}

// Real is a Scheduler backed by the runtime timers.
type Real struct{}

// NewReal returns a wall-clock scheduler.
func NewReal() Real { return Real{} }

type realToken struct{ t *time.Timer }

func (r realToken) Cancel() bool { return r.t.Stop() }

// AfterFunc calls fn in its own goroutine once d has elapsed.
func (Real) AfterFunc(d time.Duration, fn func()) Token {
	return realToken{t: time.AfterFunc(d, fn)}
}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// Debouncer runs only the most recently triggered callback once the delay has
// passed without another trigger.
type Debouncer struct {
	sched Scheduler
	delay time.Duration

	mu      sync.Mutex
	pending Token
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(sched Scheduler, delay time.Duration) *Debouncer {
	return &Debouncer{sched: sched, delay: delay}
}

// Trigger schedules fn, superseding any callback that has not run yet.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
	}
	d.pending = d.sched.AfterFunc(d.delay, fn)
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return false
	}
	ok := d.pending.Cancel()
	d.pending = nil
	return ok
}
