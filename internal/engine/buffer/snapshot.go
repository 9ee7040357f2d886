package buffer

import "sync"

// Snapshot provides a read-only view of a buffer at a specific point in time.
// It is safe for concurrent access and will not change even if the original
// buffer is modified.
type Snapshot struct {
	text     string
	revision RevisionID

	linesOnce sync.Once
	lines     lineIndex
}

// NewSnapshot creates a standalone snapshot of s with a fresh revision.
func NewSnapshot(s string) *Snapshot {
	return &Snapshot{text: s, revision: NewRevisionID()}
}

// Text returns the full snapshot content.
func (s *Snapshot) Text() string {
	return s.text
}

// Len returns the total byte length of the snapshot.
func (s *Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.text))
}

// Slice returns the text in [start, end) without copying it.
func (s *Snapshot) Slice(start, end ByteOffset) (string, error) {
	return slice(s.text, start, end)
}

// RevisionID returns the revision ID of this snapshot.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revision
}

// LineCount returns the number of lines.
func (s *Snapshot) LineCount() int {
	return len(s.lineIndex())
}

// LineRange returns the byte range of a line, excluding its newline.
func (s *Snapshot) LineRange(line int) (Range, error) {
	return s.lineIndex().lineRange(line, s.Len())
}

// LineText returns the text of a line without its terminating newline.
func (s *Snapshot) LineText(line int) (string, error) {
	r, err := s.LineRange(line)
	if err != nil {
		return "", err
	}
	return s.text[r.Start:r.End], nil
}

// LineOf returns the 0-indexed line that contains offset.
func (s *Snapshot) LineOf(offset ByteOffset) (int, error) {
	if offset < 0 || offset > s.Len() {
		return 0, ErrOffsetOutOfRange
	}
	return s.lineIndex().lineOf(offset), nil
}

// OffsetToPoint converts a byte offset to line/column.
func (s *Snapshot) OffsetToPoint(offset ByteOffset) (Point, error) {
	if offset < 0 || offset > s.Len() {
		return Point{}, ErrOffsetOutOfRange
	}
	return s.lineIndex().point(offset), nil
}

func (s *Snapshot) lineIndex() lineIndex {
	s.linesOnce.Do(func() {
		if s.lines == nil {
			s.lines = computeLineIndex(s.text)
		}
	})
	return s.lines
}
