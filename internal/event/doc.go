// Package event carries notifications from the document core to its
// observers.
//
// The core never holds references to UI objects. It emits typed events
// through an Emitter; observers register a callback or receive events on
// a buffered channel. Delivery is synchronous on the emitting goroutine,
// in subscription order, and no lock is held while a handler runs.
//
// Event kinds use dot notation:
//
//	document.content.changed   - content was mutated
//	document.saved             - content was written to disk
//	document.external.changed  - the file changed on disk
//	search.completed           - a new match index is current
//	search.match.navigated     - the current match moved
package event
