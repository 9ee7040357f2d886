package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// foldRune maps r to the smallest rune of its simple case-folding orbit,
// so two runes are case-insensitively equal iff their folds are equal.
func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		if 'a' <= r && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}
	lowest := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		lowest = min(lowest, f)
	}
	return lowest
}

// asciiOrbit reports whether every rune that folds to the same value as r
// is ASCII. 'k' and 's' are not: KELVIN SIGN and LONG S fold onto them.
func asciiOrbit(r rune) bool {
	if r >= utf8.RuneSelf {
		return false
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// foldedPattern is a pattern prepared for case-insensitive matching.
type foldedPattern struct {
	runes []rune
	// lead and leadAlt are the byte forms of the first rune when its
	// orbit is ASCII; they let the scanner skip ahead with IndexByte.
	lead, leadAlt byte
	asciiLead     bool
}

func newFoldedPattern(p string) *foldedPattern {
	fp := &foldedPattern{runes: make([]rune, 0, utf8.RuneCountInString(p))}
	for _, r := range p {
		fp.runes = append(fp.runes, foldRune(r))
	}
	first, _ := utf8.DecodeRuneInString(p)
	if asciiOrbit(first) {
		fp.asciiLead = true
		fp.lead = byte(unicode.ToLower(first))
		fp.leadAlt = byte(unicode.ToUpper(first))
	}
	return fp
}

// matchAt reports whether the pattern matches text at pos, comparing
// folded runes only inside the match window. It returns the end offset.
func (fp *foldedPattern) matchAt(text string, pos int) (int, bool) {
	for _, want := range fp.runes {
		if pos >= len(text) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[pos:])
		if foldRune(r) != want {
			return 0, false
		}
		pos += size
	}
	return pos, true
}

// nextCandidate returns the first offset >= pos where a match may start,
// bounded by limit. It returns limit if there is none.
func (fp *foldedPattern) nextCandidate(text string, pos, limit int) int {
	if !fp.asciiLead {
		return pos
	}
	window := text[pos:limit]
	i := indexEitherByte(window, fp.lead, fp.leadAlt)
	if i < 0 {
		return limit
	}
	return pos + i
}

func indexEitherByte(s string, a, b byte) int {
	if a == b {
		return strings.IndexByte(s, a)
	}
	for i := 0; i < len(s); i++ {
		if s[i] == a || s[i] == b {
			return i
		}
	}
	return -1
}
