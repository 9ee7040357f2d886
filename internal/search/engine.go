package search

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/inkwell/internal/engine/buffer"
)

// DefaultCancelCheckBytes is how much content is scanned between two
// cancellation checks.
const DefaultCancelCheckBytes = 64 << 10

// Source is the content a search runs against.
// *buffer.Snapshot implements it.
type Source interface {
	Text() string
	RevisionID() buffer.RevisionID
}

// Engine builds match indexes.
// An Engine holds no per-search state and is safe for concurrent use.
type Engine struct {
	cancelCheck int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCancelCheckBytes sets how many bytes are scanned between two
// cancellation checks.
func WithCancelCheckBytes(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.cancelCheck = n
		}
	}
}

// NewEngine creates a search engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{cancelCheck: DefaultCancelCheckBytes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search finds every non-overlapping occurrence of q in src.
//
// Matches are reported left to right; after a match [s, e) scanning
// resumes at e. Regex matches of zero width are not reported. If ctx is
// canceled before the scan completes, Search returns ErrSearchCanceled
// and no index. Cancellation discards the result but not the work: a
// regular expression scan already running finishes in the background.
func (e *Engine) Search(ctx context.Context, src Source, q Query) (*MatchIndex, error) {
	re, err := q.compile()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ErrSearchCanceled
	}

	text := src.Text()
	var matches []Match
	switch {
	case q.IsRegex:
		matches, err = e.scanRegex(ctx, text, re)
	case q.CaseSensitive:
		matches, err = e.scanLiteral(ctx, text, q.Pattern)
	default:
		matches, err = e.scanFolded(ctx, text, q.Pattern)
	}
	if err != nil {
		return nil, err
	}
	return newMatchIndex(q, src.RevisionID(), matches), nil
}

// scanLiteral finds exact occurrences of p, checking ctx once per window.
func (e *Engine) scanLiteral(ctx context.Context, text, p string) ([]Match, error) {
	var matches []Match
	pos, nextCheck := 0, 0
	for pos+len(p) <= len(text) {
		if pos >= nextCheck {
			if ctx.Err() != nil {
				return nil, ErrSearchCanceled
			}
			nextCheck = pos + e.cancelCheck
		}

		// Search up to the next check point, extended so a match that
		// starts before it is still found in this window.
		limit := min(len(text), nextCheck+len(p)-1)
		i := strings.Index(text[pos:limit], p)
		if i < 0 {
			pos = limit - len(p) + 1
			continue
		}
		start := pos + i
		matches = append(matches, Match{Start: int64(start), End: int64(start + len(p))})
		pos = start + len(p)
	}
	return matches, nil
}

// scanFolded finds case-insensitive occurrences of p without building a
// folded copy of text.
func (e *Engine) scanFolded(ctx context.Context, text, p string) ([]Match, error) {
	fp := newFoldedPattern(p)
	var matches []Match
	pos, nextCheck := 0, 0
	for pos < len(text) {
		if pos >= nextCheck {
			if ctx.Err() != nil {
				return nil, ErrSearchCanceled
			}
			nextCheck = pos + e.cancelCheck
		}

		limit := min(len(text), nextCheck)
		pos = fp.nextCandidate(text, pos, limit)
		if pos >= limit {
			for pos < len(text) && !utf8.RuneStart(text[pos]) {
				pos++
			}
			continue
		}

		if end, ok := fp.matchAt(text, pos); ok {
			matches = append(matches, Match{Start: int64(pos), End: int64(end)})
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return matches, nil
}

// scanRegex runs one regexp pass. The pass cannot be interrupted, so it
// runs on its own goroutine and its result is dropped if ctx ends first.
func (e *Engine) scanRegex(ctx context.Context, text string, re *regexp.Regexp) ([]Match, error) {
	done := make(chan [][]int, 1)
	go func() {
		done <- re.FindAllStringIndex(text, -1)
	}()

	var locs [][]int
	select {
	case <-ctx.Done():
		return nil, ErrSearchCanceled
	case locs = <-done:
	}

	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		matches = append(matches, Match{Start: int64(loc[0]), End: int64(loc[1])})
	}
	return matches, nil
}
