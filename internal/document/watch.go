package document

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned by operations on a closed Watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Watcher reports external modification of open documents.
//
// It watches the parent directory of every added document, because
// editors and tools commonly replace files by rename, which drops a watch
// placed on the file itself. Each event on a document's path triggers a
// fingerprint comparison; the document emits ExternalChange only if the
// content really differs.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	docs    map[string]*Document // by absolute path
	dirs    map[string]int       // watched directory -> document count
	onError func(error)

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher creates a watcher. onError, if non-nil, receives errors from
// the underlying notifier and from fingerprinting.
func NewWatcher(onError func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		docs:    make(map[string]*Document),
		dirs:    make(map[string]int),
		onError: onError,
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Add starts watching doc. Untitled documents are ignored.
func (w *Watcher) Add(doc *Document) error {
	path := doc.Path()
	if path == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.docs[path]; ok {
		return nil
	}

	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.docs[path] = doc
	return nil
}

// Remove stops watching doc.
func (w *Watcher) Remove(doc *Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}

	for path, d := range w.docs {
		if d != doc {
			continue
		}
		delete(w.docs, path)
		dir := filepath.Dir(path)
		w.dirs[dir]--
		if w.dirs[dir] <= 0 {
			delete(w.dirs, dir)
			return w.fsw.Remove(dir)
		}
		return nil
	}
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.fsw.Close()
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.mu.Lock()
			doc := w.docs[filepath.Clean(ev.Name)]
			w.mu.Unlock()
			if doc == nil {
				continue
			}
			if err := doc.checkExternal(); err != nil {
				w.report(err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
