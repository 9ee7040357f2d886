package search

import "sort"

// Direction selects the navigation direction.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// VisibleMatches returns the matches that intersect [viewStart, viewEnd)
// in ascending order. A match that begins before viewStart but extends
// into the view is included.
//
// Cost is O(log n + k) for k visible matches. The result aliases the
// index and must not be modified.
func VisibleMatches(ix *MatchIndex, viewStart, viewEnd int64) []Match {
	n := ix.Len()
	if n == 0 || viewEnd <= viewStart {
		return nil
	}

	starts := ix.starts
	i := sort.Search(n, func(k int) bool { return starts[k] >= viewStart })
	// Matches do not overlap, so at most one can straddle viewStart.
	if i > 0 && ix.matches[i-1].End > viewStart {
		i--
	}
	j := i
	for j < n && starts[j] < viewEnd {
		j++
	}
	if i == j {
		return nil
	}
	return ix.matches[i:j]
}

// NearestMatch returns the position in ix of the match to move to from
// cursor. Forward picks the first match starting at or after cursor and
// wraps to the first match; Backward picks the last match starting before
// cursor and wraps to the last match. It returns false only if ix is empty.
func NearestMatch(ix *MatchIndex, cursor int64, dir Direction) (int, bool) {
	n := ix.Len()
	if n == 0 {
		return 0, false
	}

	i := sort.Search(n, func(k int) bool { return ix.starts[k] >= cursor })
	if dir == Backward {
		if i == 0 {
			return n - 1, true
		}
		return i - 1, true
	}
	if i == n {
		return 0, true
	}
	return i, true
}
