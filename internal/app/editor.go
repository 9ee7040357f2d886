package app

import (
	"path/filepath"
	"slices"
	"sync"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/document"
	"github.com/dshills/inkwell/internal/event"
	"github.com/dshills/inkwell/internal/fileio"
	"github.com/dshills/inkwell/internal/finder"
)

// Editor manages the open documents and the services they share: the
// event emitter, the file loader, the external change watcher, logging
// and metrics.
type Editor struct {
	cfg     *config.Config
	log     *Logger
	metrics *Metrics
	emitter *event.Emitter
	loader  *fileio.Loader
	watcher *document.Watcher

	unsubscribe func()

	mu     sync.RWMutex
	docs   map[string]*document.Document // by document id
	order  []string                      // open order
	active *document.Document
	closed bool
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithLogger sets the editor's logger.
func WithLogger(l *Logger) EditorOption {
	return func(e *Editor) {
		e.log = l
	}
}

// WithMetrics sets the editor's metrics tracker.
func WithMetrics(m *Metrics) EditorOption {
	return func(e *Editor) {
		e.metrics = m
	}
}

// WithEmitter sets the emitter shared by all documents.
func WithEmitter(em *event.Emitter) EditorOption {
	return func(e *Editor) {
		e.emitter = em
	}
}

// NewEditor creates an editor configured by cfg. A nil cfg selects the
// defaults. If cfg enables it, files are watched for external changes.
func NewEditor(cfg *config.Config, opts ...EditorOption) (*Editor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Editor{
		cfg:    cfg,
		loader: fileio.NewLoader(cfg.Files.MmapThreshold),
		docs:   make(map[string]*document.Document),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = NewLogger(LoggerConfig{Level: ParseLogLevel(cfg.Logging.Level), Prefix: "inkwell"})
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(cfg.StallThreshold(), cfg.Metrics.MaxSamples)
	}
	if e.emitter == nil {
		log := e.log.WithComponent("event")
		e.emitter = event.NewEmitter(event.WithErrorHandler(func(err error) {
			log.Error("%v", err)
		}))
	}

	if cfg.Files.WatchExternal {
		log := e.log.WithComponent("watcher")
		w, err := document.NewWatcher(func(err error) {
			log.Warn("%v", err)
		})
		if err != nil {
			return nil, NewOperationError("watch", "", err)
		}
		e.watcher = w
	}

	e.unsubscribe = e.emitter.Subscribe(event.KindExternalChange, func(ev event.Event) {
		if xc, ok := ev.(event.ExternalChange); ok {
			if xc.Removed {
				e.log.Warn("%s was removed on disk", xc.Path)
			} else {
				e.log.Info("%s changed on disk", xc.Path)
			}
		}
	})
	return e, nil
}

// Config returns the editor's configuration.
func (e *Editor) Config() *config.Config { return e.cfg }

// Logger returns the editor's logger.
func (e *Editor) Logger() *Logger { return e.log }

// Metrics returns the editor's metrics tracker.
func (e *Editor) Metrics() *Metrics { return e.metrics }

// Emitter returns the emitter shared by all documents.
func (e *Editor) Emitter() *event.Emitter { return e.emitter }

func (e *Editor) docOptions() []document.Option {
	return []document.Option{document.WithEmitter(e.emitter), document.WithLoader(e.loader)}
}

// Open opens the file at path and makes it the active document.
// If the file is already open, the existing document is returned.
func (e *Editor) Open(path string) (*document.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	if doc, ok := e.activateByPath(abs); ok {
		return doc, nil
	}

	timer := StartTimer()
	doc, err := document.Open(abs, e.docOptions()...)
	if err != nil {
		return nil, NewOperationError("open", abs, err)
	}
	elapsed := timer.Elapsed()
	e.metrics.Record(OpLoad, elapsed)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		doc.Close()
		return nil, ErrEditorClosed
	}
	// Another caller may have opened the same file meanwhile.
	if existing := e.findByPathLocked(abs); existing != nil {
		e.active = existing
		e.mu.Unlock()
		doc.Close()
		return existing, nil
	}
	e.addLocked(doc)
	e.mu.Unlock()

	e.watch(doc)
	e.log.Debug("opened %s (%d bytes, wrap=%v) in %v", abs, doc.Len(), doc.WrapAllowed(), elapsed)
	return doc, nil
}

// New creates an untitled document and makes it active.
func (e *Editor) New() (*document.Document, error) {
	doc := document.New(e.docOptions()...)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEditorClosed
	}
	e.addLocked(doc)
	return doc, nil
}

func (e *Editor) activateByPath(abs string) (*document.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if doc := e.findByPathLocked(abs); doc != nil {
		e.active = doc
		return doc, true
	}
	return nil, false
}

func (e *Editor) findByPathLocked(abs string) *document.Document {
	for _, id := range e.order {
		if doc := e.docs[id]; doc.Path() == abs {
			return doc
		}
	}
	return nil
}

func (e *Editor) addLocked(doc *document.Document) {
	e.docs[doc.ID()] = doc
	e.order = append(e.order, doc.ID())
	e.active = doc
}

func (e *Editor) watch(doc *document.Document) {
	if e.watcher == nil || doc.IsUntitled() {
		return
	}
	if err := e.watcher.Add(doc); err != nil {
		e.log.Warn("watch %s: %v", doc.Path(), err)
	}
}

func (e *Editor) unwatch(doc *document.Document) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Remove(doc); err != nil {
		e.log.Warn("unwatch %s: %v", doc.Path(), err)
	}
}

// Get returns the document with the given id.
func (e *Editor) Get(id string) (*document.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Save writes the document with the given id to its file.
func (e *Editor) Save(id string) error {
	doc, err := e.Get(id)
	if err != nil {
		return err
	}

	timer := StartTimer()
	if err := doc.Save(); err != nil {
		return NewOperationError("save", doc.DisplayName(), err)
	}
	e.metrics.Record(OpSave, timer.Elapsed())
	e.log.Debug("saved %s", doc.Path())
	return nil
}

// SaveAs writes the document with the given id to path and makes path
// its file. Saving over a file that another open document holds fails.
func (e *Editor) SaveAs(id, path string) error {
	doc, err := e.Get(id)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return NewOperationError("save", path, err)
	}

	e.mu.RLock()
	other := e.findByPathLocked(abs)
	e.mu.RUnlock()
	if other != nil && other != doc {
		return NewOperationError("save", abs, ErrDocumentAlreadyOpen)
	}

	e.unwatch(doc)
	timer := StartTimer()
	err = doc.SaveAs(abs)
	e.watch(doc)
	if err != nil {
		return NewOperationError("save", abs, err)
	}
	e.metrics.Record(OpSave, timer.Elapsed())
	e.log.Debug("saved %s as %s", id, abs)
	return nil
}

// Close closes the document with the given id. A dirty document is only
// closed if force is set.
func (e *Editor) Close(id string, force bool) error {
	e.mu.Lock()
	doc, ok := e.docs[id]
	if !ok {
		e.mu.Unlock()
		return ErrDocumentNotFound
	}
	if doc.IsDirty() && !force {
		e.mu.Unlock()
		return NewOperationError("close", doc.DisplayName(), ErrUnsavedChanges)
	}

	delete(e.docs, id)
	if i := slices.Index(e.order, id); i >= 0 {
		e.order = slices.Delete(e.order, i, i+1)
	}
	if e.active == doc {
		e.active = nil
		if n := len(e.order); n > 0 {
			e.active = e.docs[e.order[n-1]]
		}
	}
	e.mu.Unlock()

	e.unwatch(doc)
	doc.Close()
	return nil
}

// Documents returns the open documents in open order.
func (e *Editor) Documents() []*document.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	docs := make([]*document.Document, 0, len(e.order))
	for _, id := range e.order {
		docs = append(docs, e.docs[id])
	}
	return docs
}

// Count returns the number of open documents.
func (e *Editor) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Active returns the active document, or nil.
func (e *Editor) Active() *document.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// SetActive makes the document with the given id active.
func (e *Editor) SetActive(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, ok := e.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}
	e.active = doc
	return nil
}

// DirtyDocuments returns the documents with unsaved changes, in open order.
func (e *Editor) DirtyDocuments() []*document.Document {
	var dirty []*document.Document
	for _, doc := range e.Documents() {
		if doc.IsDirty() {
			dirty = append(dirty, doc)
		}
	}
	return dirty
}

// NewSession starts a find/replace session on the document with the
// given id, configured from the editor's settings.
func (e *Editor) NewSession(id string) (*finder.Session, error) {
	doc, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	return finder.NewSession(doc, e.SessionOptions()), nil
}

// SessionOptions returns the finder options derived from the configuration.
func (e *Editor) SessionOptions() finder.Options {
	return finder.Options{
		Debounce:         e.cfg.DebounceDelay(),
		BulkThreshold:    e.cfg.Search.BulkReplaceThreshold,
		CancelCheckBytes: e.cfg.Search.CancelCheckBytes,
		CacheSize:        e.cfg.Search.CacheSize,
		CacheTTL:         e.cfg.CacheTTL(),
		Logger:           e.log.WithComponent("finder"),
		Recorder:         e.metrics,
	}
}

// Shutdown closes every document and stops the watcher. Unsaved changes
// are discarded; check DirtyDocuments first.
func (e *Editor) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	docs := make([]*document.Document, 0, len(e.order))
	for _, id := range e.order {
		docs = append(docs, e.docs[id])
	}
	e.docs = make(map[string]*document.Document)
	e.order = nil
	e.active = nil
	e.mu.Unlock()

	for _, doc := range docs {
		doc.Close()
	}
	e.unsubscribe()

	var errs ErrorList
	if e.watcher != nil {
		errs.Add(e.watcher.Close())
	}
	return errs.AsError()
}
