// Package debounce delays an action until a burst of triggers has been
// quiet for a fixed interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet interval used for search-as-you-type.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs a callback with the most recent triggered value once no
// new trigger has arrived for the delay.
//
// Every Trigger starts a new generation; a scheduled callback only runs if
// its generation is still the latest when it fires. After Close no
// callback ever runs.
//
// Thread-safety: All methods are safe for concurrent use. Without an
// executor the callback runs on a timer goroutine.
type Debouncer[T any] struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	pending  bool
	value    T
	seq      uint64 // generation, detects stale timer callbacks
	closed   bool
	callback func(T)
	post     func(func())
}

// Option configures a Debouncer.
type Option[T any] func(*Debouncer[T])

// WithExecutor makes the debouncer hand due callbacks to post instead of
// running them on the timer goroutine. post typically enqueues onto the
// caller's event loop. The generation is checked again when the posted
// function runs, so a trigger that arrives in between still wins.
func WithExecutor[T any](post func(func())) Option[T] {
	return func(d *Debouncer[T]) {
		d.post = post
	}
}

// New creates a debouncer. A non-positive delay selects DefaultDelay.
func New[T any](delay time.Duration, callback func(T), opts ...Option[T]) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer[T]{
		delay:    delay,
		callback: callback,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger records v as the pending value and restarts the quiet interval.
// It returns the new generation. Triggers after Close are ignored.
func (d *Debouncer[T]) Trigger(v T) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.seq
	}

	d.pending = true
	d.value = v
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		if d.post != nil {
			d.post(func() { d.run(currentSeq) })
			return
		}
		d.run(currentSeq)
	})
	return currentSeq
}

// run executes the callback if seq is still the current generation.
func (d *Debouncer[T]) run(seq uint64) {
	d.mu.Lock()
	if d.closed || !d.pending || d.seq != seq {
		d.mu.Unlock()
		return
	}
	v := d.takeLocked()
	d.mu.Unlock()
	d.callback(v)
}

// takeLocked clears and returns the pending value (must hold lock).
func (d *Debouncer[T]) takeLocked() T {
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	d.timer = nil
	return v
}

// Flush runs the pending callback now, on the calling goroutine, and
// cancels the scheduled one. It reports whether a callback ran.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	// Increment seq to invalidate any running timer callback
	d.seq++

	if d.closed || !d.pending {
		d.timer = nil
		d.mu.Unlock()
		return false
	}
	v := d.takeLocked()
	d.mu.Unlock()
	d.callback(v)
	return true
}

// Cancel drops the pending value without running the callback.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Close cancels any pending callback and disables the debouncer.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.closed = true
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	d.takeLocked()
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Generation returns the current generation. It changes on every Trigger,
// Flush and Cancel.
func (d *Debouncer[T]) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Delay returns the quiet interval.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}
