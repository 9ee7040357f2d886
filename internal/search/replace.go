package search

import (
	"errors"
	"strings"

	"github.com/dshills/inkwell/internal/engine/buffer"
)

// DefaultBulkThreshold is the match count above which ReplaceAll rebuilds
// the affected span as a single edit.
const DefaultBulkThreshold = 1000

// Editable is the content a Replacer mutates.
// *buffer.Buffer implements it.
type Editable interface {
	RevisionID() buffer.RevisionID
	Snapshot() *buffer.Snapshot
	ApplyEditsAt(rev buffer.RevisionID, edits []buffer.Edit) ([]buffer.EditResult, error)
}

// ReplaceResult describes a completed ReplaceAll.
type ReplaceResult struct {
	// Count is the number of replaced matches.
	Count int
	// Bulk is true when the matches were spliced as one edit.
	Bulk bool
	// Edits are the applied edits: one per match, or one for a bulk splice.
	Edits []buffer.EditResult
}

// Replacer applies replacements for a MatchIndex.
type Replacer struct {
	bulkThreshold int
}

// NewReplacer creates a replacer. A non-positive threshold selects
// DefaultBulkThreshold.
func NewReplacer(bulkThreshold int) *Replacer {
	if bulkThreshold <= 0 {
		bulkThreshold = DefaultBulkThreshold
	}
	return &Replacer{bulkThreshold: bulkThreshold}
}

// ReplaceOne replaces the i-th match of ix with replacement.
// The replacement is literal text. If buf is no longer at the revision ix
// was built against, nothing is changed and ErrStaleMatchIndex is returned.
func (r *Replacer) ReplaceOne(buf Editable, ix *MatchIndex, i int, replacement string) (buffer.EditResult, error) {
	if ix.IsStaleFor(buf.RevisionID()) {
		return buffer.EditResult{}, ErrStaleMatchIndex
	}
	if i < 0 || i >= ix.Len() {
		return buffer.EditResult{}, ErrMatchOutOfRange
	}

	m := ix.At(i)
	edit := buffer.NewEdit(buffer.Range{Start: m.Start, End: m.End}, replacement)
	results, err := buf.ApplyEditsAt(ix.Revision(), []buffer.Edit{edit})
	if err != nil {
		return buffer.EditResult{}, mapEditError(err)
	}
	return results[0], nil
}

// ReplaceAll replaces every match of ix with replacement in one pass over
// the content. Offsets in ix refer to the revision it was built against, so
// they stay valid while the new content is assembled.
//
// Above the bulk threshold the span from the first match start to the last
// match end is rebuilt and applied as one edit; otherwise one edit per
// match is applied in a single ApplyEditsAt call.
func (r *Replacer) ReplaceAll(buf Editable, ix *MatchIndex, replacement string) (ReplaceResult, error) {
	if ix.IsStaleFor(buf.RevisionID()) {
		return ReplaceResult{}, ErrStaleMatchIndex
	}
	n := ix.Len()
	if n == 0 {
		return ReplaceResult{}, nil
	}

	var edits []buffer.Edit
	bulk := n > r.bulkThreshold
	if bulk {
		snap := buf.Snapshot()
		if snap.RevisionID() != ix.Revision() {
			return ReplaceResult{}, ErrStaleMatchIndex
		}
		edits = []buffer.Edit{spliceEdit(snap.Text(), ix.Matches(), replacement)}
	} else {
		edits = make([]buffer.Edit, n)
		for i, m := range ix.Matches() {
			edits[i] = buffer.NewEdit(buffer.Range{Start: m.Start, End: m.End}, replacement)
		}
	}

	results, err := buf.ApplyEditsAt(ix.Revision(), edits)
	if err != nil {
		return ReplaceResult{}, mapEditError(err)
	}
	return ReplaceResult{Count: n, Bulk: bulk, Edits: results}, nil
}

// spliceEdit builds one edit that replaces the span covering all matches.
func spliceEdit(text string, matches []Match, replacement string) buffer.Edit {
	first, last := matches[0], matches[len(matches)-1]

	size := last.End - first.Start
	for _, m := range matches {
		size += int64(len(replacement)) - m.Len()
	}

	var sb strings.Builder
	sb.Grow(int(size))
	prev := first.Start
	for _, m := range matches {
		sb.WriteString(text[prev:m.Start])
		sb.WriteString(replacement)
		prev = m.End
	}
	return buffer.NewEdit(buffer.Range{Start: first.Start, End: last.End}, sb.String())
}

func mapEditError(err error) error {
	if errors.Is(err, buffer.ErrRevisionMismatch) {
		return ErrStaleMatchIndex
	}
	return err
}
