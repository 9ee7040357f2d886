package buffer

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in ascending order")
	ErrLineOutOfRange   = errors.New("line out of range")
	ErrInvalidEncoding  = errors.New("content is not valid UTF-8")
	ErrNotRuneBoundary  = errors.New("offset splits a UTF-8 sequence")
	ErrRevisionMismatch = errors.New("buffer revision changed")
)

// Buffer is the content store of one document.
// All methods are thread-safe.
type Buffer struct {
	mu       sync.RWMutex
	text     string
	revision RevisionID
	dirty    bool

	// lines is nil until the first line-indexed access after a mutation.
	lines lineIndex
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{revision: NewRevisionID()}
}

// NewBufferFromString creates a clean buffer holding s.
// s is trusted to be valid UTF-8; use LoadString for unchecked input.
func NewBufferFromString(s string) *Buffer {
	return &Buffer{text: s, revision: NewRevisionID()}
}

// Load replaces the content with data, which must be valid UTF-8.
// The buffer is clean afterwards.
func (b *Buffer) Load(data []byte) error {
	if !utf8.Valid(data) {
		return ErrInvalidEncoding
	}
	b.reset(string(data))
	return nil
}

// LoadString replaces the content with s, which must be valid UTF-8.
// The buffer is clean afterwards.
func (b *Buffer) LoadString(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidEncoding
	}
	b.reset(s)
	return nil
}

func (b *Buffer) reset(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = s
	b.revision = NewRevisionID()
	b.dirty = false
	b.lines = nil
}

// Read Operations

// Text returns the full buffer content.
// The returned string shares memory with the buffer and is never modified.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// Slice returns the text in [start, end) without copying it.
func (b *Buffer) Slice(start, end ByteOffset) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slice(b.text, start, end)
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() int {
	_, idx := b.lineState()
	return len(idx)
}

// LineRange returns the byte range of a 0-indexed line, excluding the
// terminating newline.
func (b *Buffer) LineRange(line int) (Range, error) {
	text, idx := b.lineState()
	return idx.lineRange(line, ByteOffset(len(text)))
}

// LineText returns the text of a line without its terminating newline.
func (b *Buffer) LineText(line int) (string, error) {
	text, idx := b.lineState()
	r, err := idx.lineRange(line, ByteOffset(len(text)))
	if err != nil {
		return "", err
	}
	return text[r.Start:r.End], nil
}

// LineOf returns the 0-indexed line that contains offset.
func (b *Buffer) LineOf(offset ByteOffset) (int, error) {
	text, idx := b.lineState()
	if offset < 0 || offset > ByteOffset(len(text)) {
		return 0, ErrOffsetOutOfRange
	}
	return idx.lineOf(offset), nil
}

// OffsetToPoint converts a byte offset to line/column.
func (b *Buffer) OffsetToPoint(offset ByteOffset) (Point, error) {
	text, idx := b.lineState()
	if offset < 0 || offset > ByteOffset(len(text)) {
		return Point{}, ErrOffsetOutOfRange
	}
	return idx.point(offset), nil
}

// LineOffsets returns a copy of the line start offsets.
func (b *Buffer) LineOffsets() []ByteOffset {
	_, idx := b.lineState()
	out := make([]ByteOffset, len(idx))
	copy(out, idx)
	return out
}

// lineState returns the text and its line index, read together so a
// concurrent edit cannot pair one revision's index with another's length.
// A missing index is rebuilt; the returned slice is never modified.
func (b *Buffer) lineState() (string, lineIndex) {
	b.mu.RLock()
	text, idx := b.text, b.lines
	b.mu.RUnlock()
	if idx != nil {
		return text, idx
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lines == nil {
		b.lines = computeLineIndex(b.text)
	}
	return b.text, b.lines
}

// Write Operations

// ReplaceRange replaces [start, end) with text.
// It invalidates the line index and every result derived from the
// previous revision, and marks the buffer dirty.
func (b *Buffer) ReplaceRange(start, end ByteOffset, text string) (EditResult, error) {
	if !utf8.ValidString(text) {
		return EditResult{}, ErrInvalidEncoding
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := checkRange(b.text, start, end); err != nil {
		return EditResult{}, err
	}

	old := b.text[start:end]
	var sb strings.Builder
	sb.Grow(len(b.text) - len(old) + len(text))
	sb.WriteString(b.text[:start])
	sb.WriteString(text)
	sb.WriteString(b.text[end:])

	b.commitLocked(sb.String())

	return EditResult{
		OldRange: Range{Start: start, End: end},
		NewRange: Range{Start: start, End: start + ByteOffset(len(text))},
		OldText:  old,
		Delta:    int64(len(text)) - (end - start),
		Revision: b.revision,
	}, nil
}

// Insert inserts text at the given offset.
func (b *Buffer) Insert(offset ByteOffset, text string) (EditResult, error) {
	return b.ReplaceRange(offset, offset, text)
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) (EditResult, error) {
	return b.ReplaceRange(start, end, "")
}

// ApplyEdits applies several edits as one mutation.
// Edits must be in ascending order and must not overlap; their ranges
// refer to the content before any of them is applied. The new content
// is built in a single pass. Either every edit is applied or none is.
func (b *Buffer) ApplyEdits(edits []Edit) ([]EditResult, error) {
	return b.applyEdits(0, false, edits)
}

// ApplyEditsAt is ApplyEdits guarded by a revision check: if the buffer is
// no longer at rev, nothing is applied and ErrRevisionMismatch is returned.
func (b *Buffer) ApplyEditsAt(rev RevisionID, edits []Edit) ([]EditResult, error) {
	return b.applyEdits(rev, true, edits)
}

func (b *Buffer) applyEdits(rev RevisionID, checkRev bool, edits []Edit) ([]EditResult, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	for i := 1; i < len(edits); i++ {
		if edits[i].Range.Start < edits[i-1].Range.End {
			return nil, ErrEditsOverlap
		}
	}
	size := 0
	for _, e := range edits {
		if !utf8.ValidString(e.NewText) {
			return nil, ErrInvalidEncoding
		}
		size += len(e.NewText)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if checkRev && b.revision != rev {
		return nil, ErrRevisionMismatch
	}
	for _, e := range edits {
		if err := checkRange(b.text, e.Range.Start, e.Range.End); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	sb.Grow(len(b.text) + size)
	results := make([]EditResult, len(edits))
	var last, shift ByteOffset
	for i, e := range edits {
		sb.WriteString(b.text[last:e.Range.Start])
		sb.WriteString(e.NewText)
		newStart := e.Range.Start + shift
		results[i] = EditResult{
			OldRange: e.Range,
			NewRange: Range{Start: newStart, End: newStart + ByteOffset(len(e.NewText))},
			OldText:  b.text[e.Range.Start:e.Range.End],
			Delta:    e.Delta(),
		}
		shift += e.Delta()
		last = e.Range.End
	}
	sb.WriteString(b.text[last:])

	b.commitLocked(sb.String())
	for i := range results {
		results[i].Revision = b.revision
	}
	return results, nil
}

// commitLocked swaps in new content. Caller must hold the write lock.
func (b *Buffer) commitLocked(text string) {
	b.text = text
	b.revision = NewRevisionID()
	b.dirty = true
	b.lines = nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// IsDirty reports whether the content was mutated since the last Load or
// MarkClean.
func (b *Buffer) IsDirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}

// MarkClean clears the dirty flag. Call it only after the current content
// has been written back successfully.
func (b *Buffer) MarkClean() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirty = false
}

// MarkCleanAt clears the dirty flag only if the buffer is still at rev,
// and reports whether it did. Use it after writing a snapshot taken at rev.
func (b *Buffer) MarkCleanAt(rev RevisionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revision != rev {
		return false
	}
	b.dirty = false
	return true
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Snapshot{
		text:     b.text,
		revision: b.revision,
		lines:    b.lines,
	}
}

// checkRange validates [start, end) against s, including rune boundaries.
func checkRange(s string, start, end ByteOffset) error {
	if start < 0 || start > end || end > ByteOffset(len(s)) {
		return ErrRangeInvalid
	}
	if !isRuneBoundary(s, start) || !isRuneBoundary(s, end) {
		return ErrNotRuneBoundary
	}
	return nil
}

func isRuneBoundary(s string, off ByteOffset) bool {
	return off == 0 || off == ByteOffset(len(s)) || utf8.RuneStart(s[off])
}

func slice(s string, start, end ByteOffset) (string, error) {
	if start < 0 || start > end || end > ByteOffset(len(s)) {
		return "", ErrRangeInvalid
	}
	return s[start:end], nil
}
