// Package finder drives find and replace for the UI.
//
// A Session owns the current match index of one document. It debounces
// query changes, runs searches on a background goroutine against an
// immutable snapshot, and installs a result only if no newer query or
// content change happened meanwhile. Readers get the index by reference;
// it is replaced as a whole, never patched.
package finder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/debounce"
	"github.com/dshills/inkwell/internal/engine/buffer"
	"github.com/dshills/inkwell/internal/event"
	"github.com/dshills/inkwell/internal/search"
)

// ErrNoQuery is returned by navigation and replace without a search text.
var ErrNoQuery = errors.New("no search text")

// Scope selects what a replace request applies to.
type Scope int

const (
	// ScopeOne replaces the current match.
	ScopeOne Scope = iota
	// ScopeAll replaces every match.
	ScopeAll
)

// Target is the document a session searches.
// *document.Document implements it.
type Target interface {
	search.Editable
	ID() string
	Emitter() *event.Emitter
	IsClosed() bool
}

// Logger receives diagnostic messages. *app.Logger implements it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Recorder receives operation latencies. *app.Metrics implements it.
type Recorder interface {
	Record(op string, d time.Duration)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

type nopRecorder struct{}

func (nopRecorder) Record(string, time.Duration) {}

// Options configures a Session. Zero values select defaults.
type Options struct {
	Debounce         time.Duration
	BulkThreshold    int
	CancelCheckBytes int
	CacheSize        int
	CacheTTL         time.Duration
	// Post, if set, runs debounced searches and delivers results on the
	// caller's event loop instead of on background goroutines.
	Post     func(func())
	Logger   Logger
	Recorder Recorder
}

// Session is the find/replace state of one document.
// All methods are safe for concurrent use.
type Session struct {
	target   Target
	engine   *search.Engine
	replacer *search.Replacer
	cache    *search.IndexCache
	debounce *debounce.Debouncer[search.Query]
	post     func(func())
	log      Logger
	metrics  Recorder

	unsubscribe []func()

	mu         sync.Mutex
	query      search.Query
	queryValid bool
	index      *search.MatchIndex
	current    int
	cursor     int64
	viewStart  int64
	viewEnd    int64
	status     string
	gen        uint64
	cancel     context.CancelFunc
	closed     bool
}

// NewSession creates a session for target.
func NewSession(target Target, opts Options) *Session {
	s := &Session{
		target:   target,
		engine:   search.NewEngine(search.WithCancelCheckBytes(opts.CancelCheckBytes)),
		replacer: search.NewReplacer(opts.BulkThreshold),
		cache:    search.NewIndexCache(opts.CacheTTL, opts.CacheSize),
		post:     opts.Post,
		log:      opts.Logger,
		metrics:  opts.Recorder,
		current:  -1,
		status:   StatusEnterText,
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}

	var dopts []debounce.Option[search.Query]
	if s.post != nil {
		dopts = append(dopts, debounce.WithExecutor[search.Query](s.post))
	}
	s.debounce = debounce.New(opts.Debounce, s.startSearch, dopts...)

	em := target.Emitter()
	s.unsubscribe = []func(){
		em.Subscribe(event.KindContentChanged, func(ev event.Event) {
			if cc, ok := ev.(event.ContentChanged); ok && cc.DocumentID == target.ID() {
				s.onContentChanged()
			}
		}),
		// The session ends with its document.
		em.Subscribe(event.KindDocumentClosed, func(ev event.Event) {
			if dc, ok := ev.(event.DocumentClosed); ok && dc.DocumentID == target.ID() {
				s.Close()
			}
		}),
	}
	if target.IsClosed() {
		s.Close()
	}
	return s
}

// OnQueryChanged records a new search text. The search itself runs once
// the text has been stable for the debounce interval.
//
// An empty text clears the results. An invalid regular expression clears
// the results and returns a *search.QueryError.
func (s *Session) OnQueryChanged(text string, caseSensitive, isRegex bool) error {
	q := search.NewQuery(text, caseSensitive, isRegex)
	err := q.Validate()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.query = q
	s.queryValid = err == nil
	s.cancelLocked()
	if err != nil {
		s.index, s.current = nil, -1
		if text == "" {
			s.status = StatusEnterText
		} else {
			s.status = err.Error()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.debounce.Cancel()
		s.emitCompleted(q, nil)
		if text == "" {
			return nil
		}
		return err
	}
	s.debounce.Trigger(q)
	return nil
}

// startSearch is the debounced callback. It searches a snapshot in the
// background and delivers the result through post.
func (s *Session) startSearch(q search.Query) {
	if s.target.IsClosed() {
		return
	}
	snap := s.target.Snapshot()
	if ix, ok := s.cache.Get(q, snap.RevisionID()); ok {
		s.install(s.nextGen(), ix)
		return
	}

	ctx, gen := s.beginSearch()
	go func() {
		start := time.Now()
		ix, err := s.engine.Search(ctx, snap, q)
		elapsed := time.Since(start)
		deliver := func() { s.finish(gen, q, ix, err, elapsed) }
		if s.post != nil {
			s.post(deliver)
			return
		}
		deliver()
	}()
}

// searchNow searches on the calling goroutine and installs the result.
func (s *Session) searchNow(ctx context.Context, q search.Query) error {
	snap := s.target.Snapshot()
	if ix, ok := s.cache.Get(q, snap.RevisionID()); ok {
		s.install(s.nextGen(), ix)
		return nil
	}

	ctx, gen := s.beginSearchWith(ctx)
	start := time.Now()
	ix, err := s.engine.Search(ctx, snap, q)
	s.finish(gen, q, ix, err, time.Since(start))
	return err
}

func (s *Session) beginSearch() (context.Context, uint64) {
	return s.beginSearchWith(context.Background())
}

// beginSearchWith cancels the in-flight search and starts a new generation.
func (s *Session) beginSearchWith(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

func (s *Session) nextGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.gen++
	return s.gen
}

// cancelLocked cancels the in-flight search (must hold lock).
func (s *Session) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// finish handles a completed search of generation gen.
func (s *Session) finish(gen uint64, q search.Query, ix *search.MatchIndex, err error, elapsed time.Duration) {
	if err != nil {
		if errors.Is(err, search.ErrSearchCanceled) {
			s.log.Debug("search %s canceled after %v", q, elapsed)
		} else {
			s.log.Warn("search %s failed: %v", q, err)
		}
		return
	}
	s.metrics.Record("search", elapsed)
	s.log.Debug("search %s: %d matches in %v", q, ix.Len(), elapsed)
	s.cache.Put(ix)
	s.install(gen, ix)
}

// install makes ix the current index if gen is still the latest search
// and the content has not changed since ix was built.
func (s *Session) install(gen uint64, ix *search.MatchIndex) {
	s.mu.Lock()
	if s.closed || s.target.IsClosed() || gen != s.gen || ix.IsStaleFor(s.target.RevisionID()) || ix.Query() != s.query {
		s.mu.Unlock()
		s.log.Debug("discarding stale result for %s", ix.Query())
		return
	}
	s.cancel = nil
	s.index = ix
	s.current = -1
	var nav *event.MatchNavigated
	if i, ok := search.NearestMatch(ix, s.cursor, search.Forward); ok {
		s.current = i
		nav = &event.MatchNavigated{DocumentID: s.target.ID(), Index: i, Match: ix.At(i)}
	}
	s.status = matchStatus(s.current, ix.Len())
	s.mu.Unlock()

	s.emitCompleted(ix.Query(), ix)
	if nav != nil {
		s.target.Emitter().Emit(*nav)
	}
}

func (s *Session) emitCompleted(q search.Query, ix *search.MatchIndex) {
	s.target.Emitter().Emit(event.SearchCompleted{
		DocumentID: s.target.ID(),
		Query:      q,
		Count:      ix.Len(),
		Index:      ix,
	})
}

// onContentChanged drops the index, which no longer describes the
// content, and schedules a new search.
func (s *Session) onContentChanged() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	s.index = nil
	s.current = -1
	q, valid := s.query, s.queryValid
	s.mu.Unlock()

	if valid {
		s.debounce.Trigger(q)
	}
}

// Refresh runs any pending or outdated search now, on the calling
// goroutine. It is a no-op when the current index is up to date.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

// refresh is Refresh, also reporting whether a search ran.
func (s *Session) refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	q, valid, ix := s.query, s.queryValid, s.index
	s.mu.Unlock()
	if !valid {
		return false, ErrNoQuery
	}
	if !s.debounce.Pending() && !ix.IsStaleFor(s.target.RevisionID()) {
		return false, nil
	}
	s.debounce.Cancel()
	return true, s.searchNow(ctx, q)
}

// SetCursor records the caret offset used to pick the nearest match.
func (s *Session) SetCursor(offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = offset
}

// OnViewportChanged records the visible byte range and returns the
// matches to highlight in it.
func (s *Session) OnViewportChanged(start, end int64) []search.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewStart, s.viewEnd = start, end
	return search.VisibleMatches(s.index, start, end)
}

// VisibleMatches returns the matches in the last reported viewport.
func (s *Session) VisibleMatches() []search.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.VisibleMatches(s.index, s.viewStart, s.viewEnd)
}

// Index returns the current match index, or nil.
func (s *Session) Index() *search.MatchIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the position of the current match, or -1.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Status returns the status line text.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// FindNext moves to the next match, wrapping at the end. A pending or
// outdated search is run first.
func (s *Session) FindNext(ctx context.Context) (search.Match, bool, error) {
	return s.navigate(ctx, search.Forward)
}

// FindPrev moves to the previous match, wrapping at the start.
func (s *Session) FindPrev(ctx context.Context) (search.Match, bool, error) {
	return s.navigate(ctx, search.Backward)
}

func (s *Session) navigate(ctx context.Context, dir search.Direction) (search.Match, bool, error) {
	searched, err := s.refresh(ctx)
	if err != nil {
		return search.Match{}, false, err
	}

	s.mu.Lock()
	ix := s.index
	n := ix.Len()
	if n == 0 {
		s.status = StatusNoMatches
		s.mu.Unlock()
		return search.Match{}, false, nil
	}

	// A fresh index starts from the cursor; otherwise step from the
	// current match.
	var i int
	switch {
	case searched || s.current < 0:
		i, _ = search.NearestMatch(ix, s.cursor, dir)
	case dir == search.Forward:
		i = (s.current + 1) % n
	default:
		i = (s.current - 1 + n) % n
	}
	m := ix.At(i)
	s.current = i
	s.cursor = m.Start
	s.status = matchStatus(i, n)
	s.mu.Unlock()

	s.target.Emitter().Emit(event.MatchNavigated{DocumentID: s.target.ID(), Index: i, Match: m})
	return m, true, nil
}

// Replace replaces the current match or every match with the literal
// replacement text and returns the number of replaced matches.
//
// If the content changed under the index, nothing is replaced, the index
// is rebuilt and search.ErrStaleMatchIndex is returned.
func (s *Session) Replace(ctx context.Context, scope Scope, replacement string) (int, error) {
	if err := s.Refresh(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	ix, current, cursor, q := s.index, s.current, s.cursor, s.query
	s.mu.Unlock()
	if ix.Len() == 0 {
		s.setStatus(StatusNoMatches)
		return 0, nil
	}

	start := time.Now()
	var (
		count int
		next  int64
		err   error
	)
	if scope == ScopeAll {
		var res search.ReplaceResult
		res, err = s.replacer.ReplaceAll(s.target, ix, replacement)
		count = res.Count
		next = cursor
	} else {
		if current < 0 {
			current, _ = search.NearestMatch(ix, cursor, search.Forward)
		}
		var res buffer.EditResult
		res, err = s.replacer.ReplaceOne(s.target, ix, current, replacement)
		count = 1
		next = res.NewRange.End
	}
	if err != nil {
		if errors.Is(err, search.ErrStaleMatchIndex) {
			s.log.Debug("replace on stale index, rebuilding")
			s.debounce.Cancel()
			if rerr := s.searchNow(ctx, q); rerr != nil {
				s.log.Warn("rebuild after stale replace: %v", rerr)
			}
		}
		return 0, err
	}
	s.metrics.Record("replace", time.Since(start))

	// The edits triggered a debounced search; run it now instead so the
	// index is current for the next request.
	s.SetCursor(next)
	s.debounce.Cancel()
	if err := s.searchNow(ctx, q); err != nil {
		s.log.Warn("search after replace: %v", err)
	}
	s.setStatus(replacedStatus(count))
	return count, nil
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Close stops the session. No search result is delivered afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelLocked()
	s.index = nil
	s.mu.Unlock()

	s.debounce.Close()
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
}
