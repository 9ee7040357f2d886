// Package document ties a content buffer to the file it was loaded from.
//
// A Document owns its buffer exclusively. Every mutation goes through the
// document so that observers receive a ContentChanged event per edit, and
// the dirty flag is only cleared by the explicit operations Load, Save,
// SaveAs and MarkClean.
package document

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/inkwell/internal/engine/buffer"
	"github.com/dshills/inkwell/internal/event"
	"github.com/dshills/inkwell/internal/fileio"
)

// UntitledName is the display name of a document without a path.
const UntitledName = "Untitled"

// Errors returned by document operations.
var (
	ErrClosed = errors.New("document is closed")
	ErrNoPath = errors.New("document has no file path")
)

// Document is one open file, or an unsaved scratch buffer.
// All methods are safe for concurrent use.
type Document struct {
	id      string
	buf     *buffer.Buffer
	loader  *fileio.Loader
	emitter *event.Emitter

	mu       sync.RWMutex
	path     string
	large    bool
	disk     fileio.Fingerprint
	openedAt time.Time
	closed   bool

	// saving is non-zero while a save is writing to disk, so the watcher
	// does not report our own write as an external change.
	saving atomic.Int32
}

// Option configures a Document.
type Option func(*Document)

// WithEmitter sets the emitter that receives the document's events.
func WithEmitter(e *event.Emitter) Option {
	return func(d *Document) {
		d.emitter = e
	}
}

// WithLoader sets the loader used for disk I/O.
func WithLoader(l *fileio.Loader) Option {
	return func(d *Document) {
		d.loader = l
	}
}

// New creates an empty untitled document.
func New(opts ...Option) *Document {
	d := &Document{
		id:       uuid.NewString(),
		buf:      buffer.NewBuffer(),
		openedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.loader == nil {
		d.loader = fileio.NewLoader(0)
	}
	if d.emitter == nil {
		d.emitter = event.NewEmitter()
	}
	return d
}

// Open loads the file at path into a new document.
// Errors from reading are *fileio.FileError values.
func Open(path string, opts ...Option) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	d := New(opts...)
	d.path = abs
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// ID returns the document's identifier. It never changes.
func (d *Document) ID() string {
	return d.id
}

// Path returns the absolute file path, or "" for an untitled document.
func (d *Document) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// DisplayName returns the file name, or UntitledName.
func (d *Document) DisplayName() string {
	p := d.Path()
	if p == "" {
		return UntitledName
	}
	return filepath.Base(p)
}

// IsUntitled reports whether the document has no file path.
func (d *Document) IsUntitled() bool {
	return d.Path() == ""
}

// OpenedAt returns when the document was created or opened.
func (d *Document) OpenedAt() time.Time {
	return d.openedAt
}

// Emitter returns the emitter that receives the document's events.
func (d *Document) Emitter() *event.Emitter {
	return d.emitter
}

// IsClosed reports whether Close was called.
func (d *Document) IsClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// WrapAllowed reports whether the content is small enough for word wrap
// and rich export. Content above the mmap threshold is not.
func (d *Document) WrapAllowed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.large
}

// Content access

// Text returns the full content.
func (d *Document) Text() string { return d.buf.Text() }

// Len returns the content length in bytes.
func (d *Document) Len() int64 { return d.buf.Len() }

// Slice returns the content in [start, end).
func (d *Document) Slice(start, end int64) (string, error) { return d.buf.Slice(start, end) }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return d.buf.LineCount() }

// LineRange returns the byte range of a line without its newline.
func (d *Document) LineRange(line int) (buffer.Range, error) { return d.buf.LineRange(line) }

// LineText returns a line without its newline.
func (d *Document) LineText(line int) (string, error) { return d.buf.LineText(line) }

// LineOf returns the line containing offset.
func (d *Document) LineOf(offset int64) (int, error) { return d.buf.LineOf(offset) }

// RevisionID returns the current content revision.
func (d *Document) RevisionID() buffer.RevisionID { return d.buf.RevisionID() }

// Snapshot returns an immutable view of the current content.
func (d *Document) Snapshot() *buffer.Snapshot { return d.buf.Snapshot() }

// IsDirty reports whether the content changed since it was last loaded
// or saved.
func (d *Document) IsDirty() bool { return d.buf.IsDirty() }

// Mutation

// ReplaceRange replaces [start, end) with text.
func (d *Document) ReplaceRange(start, end int64, text string) (buffer.EditResult, error) {
	if d.IsClosed() {
		return buffer.EditResult{}, ErrClosed
	}
	res, err := d.buf.ReplaceRange(start, end, text)
	if err != nil {
		return res, err
	}
	d.emitChanged(res)
	return res, nil
}

// Insert inserts text at offset.
func (d *Document) Insert(offset int64, text string) (buffer.EditResult, error) {
	return d.ReplaceRange(offset, offset, text)
}

// Delete removes [start, end).
func (d *Document) Delete(start, end int64) (buffer.EditResult, error) {
	return d.ReplaceRange(start, end, "")
}

// ApplyEdits applies ascending, non-overlapping edits as one mutation.
func (d *Document) ApplyEdits(edits []buffer.Edit) ([]buffer.EditResult, error) {
	return d.applyEdits(func() ([]buffer.EditResult, error) {
		return d.buf.ApplyEdits(edits)
	})
}

// ApplyEditsAt applies edits only if the content is still at rev.
func (d *Document) ApplyEditsAt(rev buffer.RevisionID, edits []buffer.Edit) ([]buffer.EditResult, error) {
	return d.applyEdits(func() ([]buffer.EditResult, error) {
		return d.buf.ApplyEditsAt(rev, edits)
	})
}

func (d *Document) applyEdits(apply func() ([]buffer.EditResult, error)) ([]buffer.EditResult, error) {
	if d.IsClosed() {
		return nil, ErrClosed
	}
	results, err := apply()
	if err != nil {
		return nil, err
	}
	// Results hold ranges of the content before the batch; shift each one
	// by the earlier edits so the events can be replayed in order.
	var shift int64
	for _, res := range results {
		d.emitter.Emit(event.ContentChanged{
			DocumentID: d.id,
			Range:      buffer.Range{Start: res.OldRange.Start + shift, End: res.OldRange.End + shift},
			NewEnd:     res.NewRange.End,
			Revision:   res.Revision,
		})
		shift += res.Delta
	}
	return results, nil
}

func (d *Document) emitChanged(res buffer.EditResult) {
	d.emitter.Emit(event.ContentChanged{
		DocumentID: d.id,
		Range:      res.OldRange,
		NewEnd:     res.NewRange.End,
		Revision:   res.Revision,
	})
}

// MarkClean clears the dirty flag. Call it only when the current content
// is known to match the file, for example after an external save.
func (d *Document) MarkClean() {
	d.buf.MarkClean()
}

// Close releases the document. Further mutations fail with ErrClosed.
// Observers receive one DocumentClosed event.
func (d *Document) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.emitter.Emit(event.DocumentClosed{DocumentID: d.id})
}
