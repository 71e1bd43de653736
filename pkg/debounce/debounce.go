// Package debounce provides a generic stabilizer for rapidly-changing
// values: a value is emitted only after it has stopped changing for a
// configured quiet period. Intermediate values are dropped, only the
// latest survives.
package debounce

import (
	"sync"
	"time"
)

// Debouncer emits the most recent value passed to Set once no newer
// value has arrived within the configured delay.
type Debouncer[T any] struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	latest  T
	out     chan T
	stopped bool
}

// New creates a Debouncer with the given quiet period.
func New[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		delay: delay,
		out:   make(chan T, 1),
	}
}

// Set records a new value, cancelling any pending emission and arming
// a fresh timer for the full delay.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.latest = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.emit)
}

// C returns the channel on which settled values are delivered.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// Flush emits the latest value immediately, bypassing the quiet period.
// A pending timer is cancelled so the value is not delivered twice.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.emit()
}

// Stop cancels any pending emission. After Stop, Set is a no-op and
// nothing will ever be delivered on C.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) emit() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	// Replace any undelivered value: only the latest survives.
	select {
	case <-d.out:
	default:
	}
	d.out <- d.latest
}
