package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/document"
	"github.com/dshills/inkwell/internal/event"
	"github.com/dshills/inkwell/internal/fileio"
	"github.com/dshills/inkwell/internal/finder"
)

func newTestEditor(t *testing.T, watch bool) *Editor {
	t.Helper()
	cfg := config.Default()
	cfg.Files.WatchExternal = watch
	cfg.Search.DebounceMS = 10
	e, err := NewEditor(cfg, WithLogger(NullLogger))
	if err != nil {
		t.Fatalf("NewEditor: %v", err)
	}
	t.Cleanup(func() { _ = e.Shutdown() })
	return e
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEditor_OpenReusesDocument(t *testing.T) {
	e := newTestEditor(t, false)
	path := writeFile(t, t.TempDir(), "a.txt", "hello")

	doc, err := e.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "hello" || doc.IsDirty() {
		t.Errorf("unexpected document state %q dirty=%v", doc.Text(), doc.IsDirty())
	}

	other, err := e.New()
	if err != nil {
		t.Fatal(err)
	}
	if e.Active() != other {
		t.Error("New should activate the new document")
	}

	again, err := e.Open(filepath.Join(filepath.Dir(path), ".", "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if again != doc {
		t.Error("opening an open file must return the same document")
	}
	if e.Active() != doc {
		t.Error("reopening should activate the document")
	}
	if e.Count() != 2 {
		t.Errorf("expected 2 documents, got %d", e.Count())
	}
	if _, ok := e.Metrics().Stats(OpLoad); !ok {
		t.Error("expected a load metric")
	}
}

func TestEditor_OpenMissing(t *testing.T) {
	e := newTestEditor(t, false)

	_, err := e.Open(filepath.Join(t.TempDir(), "missing.txt"))
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "open" {
		t.Fatalf("expected an open OperationError, got %v", err)
	}
	if !errors.Is(err, fileio.ErrNotFound) {
		t.Errorf("expected ErrNotFound in chain, got %v", err)
	}
	if e.Count() != 0 {
		t.Error("failed open must not register a document")
	}
}

func TestEditor_SaveAndSaveAs(t *testing.T) {
	e := newTestEditor(t, false)
	dir := t.TempDir()

	doc, _ := e.New()
	if _, err := doc.Insert(0, "draft"); err != nil {
		t.Fatal(err)
	}
	if err := e.Save(doc.ID()); !errors.Is(err, document.ErrNoPath) {
		t.Errorf("saving an untitled document must fail, got %v", err)
	}

	path := filepath.Join(dir, "draft.txt")
	if err := e.SaveAs(doc.ID(), path); err != nil {
		t.Fatal(err)
	}
	if doc.IsDirty() || doc.Path() != path {
		t.Errorf("expected clean document at %s, got dirty=%v path=%s", path, doc.IsDirty(), doc.Path())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "draft" {
		t.Errorf("unexpected file content %q", data)
	}

	if _, err := doc.Insert(5, "!"); err != nil {
		t.Fatal(err)
	}
	if err := e.Save(doc.ID()); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "draft!" {
		t.Errorf("unexpected file content %q", data)
	}
	if s, _ := e.Metrics().Stats(OpSave); s.Count != 2 {
		t.Errorf("expected 2 save records, got %d", s.Count)
	}
}

func TestEditor_SaveAsOpenPath(t *testing.T) {
	e := newTestEditor(t, false)
	path := writeFile(t, t.TempDir(), "taken.txt", "x")

	if _, err := e.Open(path); err != nil {
		t.Fatal(err)
	}
	doc, _ := e.New()
	if err := e.SaveAs(doc.ID(), path); !errors.Is(err, ErrDocumentAlreadyOpen) {
		t.Errorf("expected ErrDocumentAlreadyOpen, got %v", err)
	}
}

func TestEditor_Close(t *testing.T) {
	e := newTestEditor(t, false)
	dir := t.TempDir()

	a, _ := e.Open(writeFile(t, dir, "a.txt", "a"))
	b, _ := e.Open(writeFile(t, dir, "b.txt", "b"))
	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatal(err)
	}

	if got := e.DirtyDocuments(); len(got) != 1 || got[0] != b {
		t.Errorf("expected b to be the only dirty document")
	}
	if err := e.Close(b.ID(), false); !errors.Is(err, ErrUnsavedChanges) {
		t.Errorf("expected ErrUnsavedChanges, got %v", err)
	}
	if err := e.Close(b.ID(), true); err != nil {
		t.Fatal(err)
	}
	if !b.IsClosed() {
		t.Error("closed document must reject further use")
	}
	if e.Active() != a {
		t.Error("closing the active document should activate the last remaining one")
	}
	if err := e.Close(b.ID(), true); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
	if docs := e.Documents(); len(docs) != 1 || docs[0] != a {
		t.Error("expected only a to remain")
	}
}

func TestEditor_SetActive(t *testing.T) {
	e := newTestEditor(t, false)
	a, _ := e.New()
	_, _ = e.New()

	if err := e.SetActive(a.ID()); err != nil {
		t.Fatal(err)
	}
	if e.Active() != a {
		t.Error("expected a to be active")
	}
	if err := e.SetActive("nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestEditor_Session(t *testing.T) {
	e := newTestEditor(t, false)
	doc, _ := e.New()
	if err := doc.Load("one two one"); err != nil {
		t.Fatal(err)
	}

	s, err := e.NewSession(doc.ID())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.OnQueryChanged("one", true, false); err != nil {
		t.Fatal(err)
	}
	n, err := s.Replace(context.Background(), finder.ScopeAll, "1")
	if err != nil || n != 2 {
		t.Fatalf("Replace: n=%d err=%v", n, err)
	}
	if doc.Text() != "1 two 1" {
		t.Errorf("unexpected text %q", doc.Text())
	}
	if _, ok := e.Metrics().Stats(OpReplace); !ok {
		t.Error("session should record into the editor metrics")
	}

	if _, err := e.NewSession("nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestEditor_ExternalChange(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.Default()
	e, err := NewEditor(cfg, WithLogger(NewLogger(LoggerConfig{Level: LogLevelInfo, Output: &logs})))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = e.Shutdown() }()

	changes, cancel := e.Emitter().Channel(event.KindExternalChange, 4)
	defer cancel()

	path := writeFile(t, t.TempDir(), "watched.txt", "before")
	doc, err := e.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	// Our own save must not look like an external change.
	if _, err := doc.Insert(0, "x"); err != nil {
		t.Fatal(err)
	}
	if err := e.Save(doc.ID()); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("changed elsewhere"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-changes:
		xc := ev.(event.ExternalChange)
		if xc.DocumentID != doc.ID() || xc.Removed {
			t.Errorf("unexpected event %+v", xc)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected an external change event")
	}
}

func TestEditor_Shutdown(t *testing.T) {
	e := newTestEditor(t, true)
	doc, _ := e.New()

	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := e.Shutdown(); err != nil {
		t.Errorf("second Shutdown should be a no-op, got %v", err)
	}
	if !doc.IsClosed() {
		t.Error("Shutdown must close documents")
	}
	if _, err := e.New(); !errors.Is(err, ErrEditorClosed) {
		t.Errorf("expected ErrEditorClosed, got %v", err)
	}
}

func TestEditor_CloseStopsSession(t *testing.T) {
	e := newTestEditor(t, false)
	doc, _ := e.New()
	if err := doc.Load("abc abc"); err != nil {
		t.Fatal(err)
	}
	completed, cancel := e.Emitter().Channel(event.KindSearchDone, 4)
	defer cancel()

	s, err := e.NewSession(doc.ID())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.OnQueryChanged("abc", true, false); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(doc.ID(), true); err != nil {
		t.Fatal(err)
	}

	time.Sleep(80 * time.Millisecond)
	if len(completed) != 0 {
		t.Error("a closed document's session must not deliver results")
	}
}
