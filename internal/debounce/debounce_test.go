package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recorder collects callback values.
type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_BurstRunsOnceWithLastValue(t *testing.T) {
	var r recorder
	d := New(50*time.Millisecond, r.record)

	for _, q := range []string{"h", "he", "hel", "hell", "hello"} {
		d.Trigger(q)
	}
	time.Sleep(150 * time.Millisecond)

	got := r.get()
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("expected one call with %q, got %v", "hello", got)
	}
	if d.Pending() {
		t.Error("nothing should be pending after the callback ran")
	}
}

func TestDebouncer_SpacedTriggers(t *testing.T) {
	var calls atomic.Int32
	d := New(30*time.Millisecond, func(int) { calls.Add(1) })

	for i := 0; i < 3; i++ {
		d.Trigger(i)
		time.Sleep(90 * time.Millisecond)
	}

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDebouncer_DefaultDelay(t *testing.T) {
	d := New(0, func(int) {})
	if d.Delay() != DefaultDelay {
		t.Errorf("expected %v, got %v", DefaultDelay, d.Delay())
	}
	if DefaultDelay != 300*time.Millisecond {
		t.Errorf("default delay = %v, want 300ms", DefaultDelay)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var r recorder
	d := New(100*time.Millisecond, r.record)

	d.Trigger("a")
	d.Trigger("b")
	if !d.Flush() {
		t.Fatal("expected Flush to run the pending callback")
	}
	if got := r.get(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected [b] immediately, got %v", got)
	}

	time.Sleep(200 * time.Millisecond)
	if got := r.get(); len(got) != 1 {
		t.Errorf("scheduled callback ran after Flush: %v", got)
	}
	if d.Flush() {
		t.Error("Flush with nothing pending should report false")
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var calls atomic.Int32
	d := New(50*time.Millisecond, func(string) { calls.Add(1) })

	d.Trigger("x")
	d.Cancel()
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 (canceled)", calls.Load())
	}
}

func TestDebouncer_Close(t *testing.T) {
	var calls atomic.Int32
	d := New(30*time.Millisecond, func(string) { calls.Add(1) })

	d.Trigger("x")
	d.Close()
	d.Trigger("y")
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 after Close", calls.Load())
	}
	if d.Flush() {
		t.Error("Flush after Close should not run")
	}
	if d.Pending() {
		t.Error("closed debouncer should have nothing pending")
	}
}

func TestDebouncer_Generation(t *testing.T) {
	d := New(time.Hour, func(int) {})
	defer d.Close()

	g1 := d.Trigger(1)
	g2 := d.Trigger(2)
	if g2 <= g1 {
		t.Errorf("generation did not increase: %d then %d", g1, g2)
	}
	if d.Generation() != g2 {
		t.Errorf("Generation() = %d, want %d", d.Generation(), g2)
	}
}

func TestDebouncer_Executor(t *testing.T) {
	queue := make(chan func(), 4)
	var r recorder
	d := New(20*time.Millisecond, r.record, WithExecutor[string](func(fn func()) {
		queue <- fn
	}))

	d.Trigger("first")

	var posted func()
	select {
	case posted = <-queue:
	case <-time.After(time.Second):
		t.Fatal("callback was not posted")
	}
	if len(r.get()) != 0 {
		t.Fatal("callback must not run before the posted function")
	}

	// a newer trigger arrives before the loop runs the posted function
	d.Trigger("second")
	posted()
	if len(r.get()) != 0 {
		t.Fatalf("stale posted callback ran: %v", r.get())
	}

	select {
	case posted = <-queue:
	case <-time.After(time.Second):
		t.Fatal("second callback was not posted")
	}
	posted()
	if got := r.get(); len(got) != 1 || got[0] != "second" {
		t.Errorf("expected [second], got %v", got)
	}
}
