package event

import (
	"sync"
	"sync/atomic"
)

// Handler receives events.
type Handler func(Event)

// ErrorHandler receives handler failures.
type ErrorHandler func(error)

type subscription struct {
	id      uint64
	kind    Kind // empty matches every kind
	handler Handler
}

// Emitter delivers events to subscribers.
// All methods are safe for concurrent use.
type Emitter struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    []subscription
	onError ErrorHandler

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithErrorHandler sets the function that receives handler panics and
// dropped channel deliveries.
func WithErrorHandler(fn ErrorHandler) EmitterOption {
	return func(e *Emitter) {
		e.onError = fn
	}
}

// NewEmitter creates an emitter.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers h for events of kind. It returns a function that
// removes the subscription; calling it more than once is harmless.
func (e *Emitter) Subscribe(kind Kind, h Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscription{id: id, kind: kind, handler: h})
	return func() { e.unsubscribe(id) }
}

// SubscribeAll registers h for every event.
func (e *Emitter) SubscribeAll(h Handler) func() {
	return e.Subscribe("", h)
}

// Channel subscribes a buffered channel to events of kind (every kind if
// kind is empty). Events are dropped, not blocked on, when the channel is
// full. The returned function unsubscribes and closes the channel.
func (e *Emitter) Channel(kind Kind, size int) (<-chan Event, func()) {
	ch := make(chan Event, size)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := e.Subscribe(kind, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
			e.dropped.Add(1)
			e.report(&HandlerError{Kind: ev.Kind(), Err: ErrChannelFull})
		}
	})
	return ch, func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
}

func (e *Emitter) unsubscribe(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to every matching subscriber, in subscription order,
// on the calling goroutine. A panicking handler does not stop delivery to
// the others.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	subs := e.subs
	e.mu.RUnlock()

	e.emitted.Add(1)
	kind := ev.Kind()
	for _, s := range subs {
		if s.kind != "" && s.kind != kind {
			continue
		}
		e.deliver(s.handler, ev)
	}
}

func (e *Emitter) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.report(&HandlerError{Kind: ev.Kind(), Err: ErrHandlerPanic, Value: r})
		}
	}()
	h(ev)
}

func (e *Emitter) report(err error) {
	if e.onError != nil {
		e.onError(err)
	}
}

// Stats holds emitter counters.
type Stats struct {
	Subscribers int
	Emitted     uint64
	Dropped     uint64
}

// Stats returns the current counters.
func (e *Emitter) Stats() Stats {
	e.mu.RLock()
	n := len(e.subs)
	e.mu.RUnlock()
	return Stats{Subscribers: n, Emitted: e.emitted.Load(), Dropped: e.dropped.Load()}
}
