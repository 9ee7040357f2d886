package event

import (
	"github.com/dshills/inkwell/internal/engine/buffer"
	"github.com/dshills/inkwell/internal/search"
)

// Kind identifies an event type.
type Kind string

// Event kinds.
const (
	KindContentChanged Kind = "document.content.changed"
	KindDocumentSaved  Kind = "document.saved"
	KindExternalChange Kind = "document.external.changed"
	KindDocumentClosed Kind = "document.closed"
	KindSearchDone     Kind = "search.completed"
	KindMatchNavigated Kind = "search.match.navigated"
)

// Event is implemented by every event payload.
type Event interface {
	Kind() Kind
}

// ContentChanged is emitted once per applied edit. For a batch of edits
// the events describe the edits applied one after another: each Range is
// valid against the content left by the previous event.
type ContentChanged struct {
	DocumentID string
	// Range is the replaced range in the content before the edit.
	Range buffer.Range
	// NewEnd is the end of the inserted text in the content after the edit.
	NewEnd int64
	// Revision is the revision after the whole batch.
	Revision buffer.RevisionID
}

// Kind implements Event.
func (ContentChanged) Kind() Kind { return KindContentChanged }

// SearchCompleted is emitted when a new match index becomes current.
type SearchCompleted struct {
	DocumentID string
	Query      search.Query
	Count      int
	Index      *search.MatchIndex
}

// Kind implements Event.
func (SearchCompleted) Kind() Kind { return KindSearchDone }

// MatchNavigated is emitted when the current match changes.
type MatchNavigated struct {
	DocumentID string
	// Index is the position of Match in the current match index.
	Index int
	Match search.Match
}

// Kind implements Event.
func (MatchNavigated) Kind() Kind { return KindMatchNavigated }

// DocumentSaved is emitted after content was written to Path.
type DocumentSaved struct {
	DocumentID string
	Path       string
	Revision   buffer.RevisionID
}

// Kind implements Event.
func (DocumentSaved) Kind() Kind { return KindDocumentSaved }

// ExternalChange is emitted when the file backing a document was modified
// or removed by another process.
type ExternalChange struct {
	DocumentID string
	Path       string
	Removed    bool
}

// Kind implements Event.
func (ExternalChange) Kind() Kind { return KindExternalChange }

// DocumentClosed is emitted once when a document is closed.
type DocumentClosed struct {
	DocumentID string
}

// Kind implements Event.
func (DocumentClosed) Kind() Kind { return KindDocumentClosed }
