package search

import (
	"fmt"

	"github.com/dshills/inkwell/internal/engine/buffer"
)

// Match is the byte range [Start, End) of one occurrence.
type Match struct {
	Start int64
	End   int64
}

// Len returns the byte length of the match.
func (m Match) Len() int64 {
	return m.End - m.Start
}

// String returns a human-readable representation of the match.
func (m Match) String() string {
	return fmt.Sprintf("[%d, %d)", m.Start, m.End)
}

// MatchIndex is the ordered set of matches of one query against one
// content revision. Matches are ascending, non-overlapping and non-empty.
//
// A MatchIndex is immutable and safe for concurrent reads. Slices it
// returns must not be modified.
type MatchIndex struct {
	query    Query
	revision buffer.RevisionID
	matches  []Match
	starts   []int64
}

// newMatchIndex builds an index and panics if matches break the ordering
// invariants; that can only happen through a bug in the engine.
func newMatchIndex(q Query, rev buffer.RevisionID, matches []Match) *MatchIndex {
	starts := make([]int64, len(matches))
	for i, m := range matches {
		if m.Start >= m.End {
			panic(fmt.Sprintf("search: empty match %s at %d", m, i))
		}
		if i > 0 && m.Start < matches[i-1].End {
			panic(fmt.Sprintf("search: match %s overlaps %s", m, matches[i-1]))
		}
		starts[i] = m.Start
	}
	return &MatchIndex{query: q, revision: rev, matches: matches, starts: starts}
}

// Query returns the query the index was built for.
func (ix *MatchIndex) Query() Query {
	return ix.query
}

// Revision returns the content revision the index was built against.
func (ix *MatchIndex) Revision() buffer.RevisionID {
	return ix.revision
}

// IsStaleFor reports whether the index no longer describes content at rev.
func (ix *MatchIndex) IsStaleFor(rev buffer.RevisionID) bool {
	return ix == nil || ix.revision != rev
}

// Len returns the number of matches. A nil index has none.
func (ix *MatchIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.matches)
}

// At returns the i-th match.
func (ix *MatchIndex) At(i int) Match {
	return ix.matches[i]
}

// Matches returns all matches in ascending order.
func (ix *MatchIndex) Matches() []Match {
	if ix == nil {
		return nil
	}
	return ix.matches
}

// Starts returns the start offsets of all matches.
func (ix *MatchIndex) Starts() []int64 {
	if ix == nil {
		return nil
	}
	return ix.starts
}
