package buffer

import (
	"sort"
	"strings"
)

// lineIndex holds the start offset of every line of a text.
// lineIndex[0] is always 0 and the sequence is strictly increasing.
type lineIndex []ByteOffset

// computeLineIndex scans s once and records the offset after every '\n'.
func computeLineIndex(s string) lineIndex {
	idx := make(lineIndex, 1, strings.Count(s, "\n")+1)
	for pos := 0; ; {
		i := strings.IndexByte(s[pos:], '\n')
		if i < 0 {
			break
		}
		pos += i + 1
		idx = append(idx, ByteOffset(pos))
	}
	return idx
}

// lineRange returns the range of a line, excluding its terminating '\n'.
// The last line ends at textLen.
func (idx lineIndex) lineRange(line int, textLen ByteOffset) (Range, error) {
	if line < 0 || line >= len(idx) {
		return Range{}, ErrLineOutOfRange
	}
	start := idx[line]
	end := textLen
	if line+1 < len(idx) {
		end = idx[line+1] - 1
	}
	return Range{Start: start, End: end}, nil
}

// lineOf returns the 0-indexed line containing offset.
func (idx lineIndex) lineOf(offset ByteOffset) int {
	return sort.Search(len(idx), func(i int) bool { return idx[i] > offset }) - 1
}

// point converts a byte offset to a line/column point.
func (idx lineIndex) point(offset ByteOffset) Point {
	line := idx.lineOf(offset)
	return Point{Line: uint32(line), Column: uint32(offset - idx[line])}
}
