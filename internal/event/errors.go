package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the emitter.
var (
	// ErrHandlerPanic is reported when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrChannelFull is reported when a channel subscriber drops an event.
	ErrChannelFull = errors.New("subscriber channel is full")
)

// HandlerError wraps a failure of one subscriber with its context.
type HandlerError struct {
	Kind Kind
	Err  error
	// Value is the recovered panic value, if any.
	Value any
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("handler for %s: %v: %v", e.Kind, e.Err, e.Value)
	}
	return fmt.Sprintf("handler for %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
