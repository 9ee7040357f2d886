package document

import (
	"errors"
	"path/filepath"

	"github.com/dshills/inkwell/internal/engine/buffer"
	"github.com/dshills/inkwell/internal/event"
	"github.com/dshills/inkwell/internal/fileio"
)

// Load replaces the content with text and marks the document clean.
// Observers receive one ContentChanged covering the whole old content.
func (d *Document) Load(text string) error {
	if d.IsClosed() {
		return ErrClosed
	}
	oldLen := d.buf.Len()
	if err := d.buf.LoadString(text); err != nil {
		return err
	}

	d.mu.Lock()
	d.large = d.loader.IsLarge(int64(len(text)))
	d.mu.Unlock()

	d.emitter.Emit(event.ContentChanged{
		DocumentID: d.id,
		Range:      buffer.Range{Start: 0, End: oldLen},
		NewEnd:     int64(len(text)),
		Revision:   d.buf.RevisionID(),
	})
	return nil
}

// Reload reads the document's file again, discarding unsaved changes.
func (d *Document) Reload() error {
	path := d.Path()
	if path == "" {
		return ErrNoPath
	}
	text, err := d.loader.Read(path)
	if err != nil {
		return err
	}
	if err := d.Load(text); err != nil {
		return err
	}
	d.setDisk(fileio.FingerprintOf(text))
	return nil
}

// Save writes the content to the document's path.
// The document is marked clean only if it was not edited during the write.
func (d *Document) Save() error {
	path := d.Path()
	if path == "" {
		return ErrNoPath
	}
	return d.saveTo(path)
}

// SaveAs writes the content to path and makes path the document's file.
// It is the explicit form of assigning a new path: on success the
// document is clean, on failure path and dirty state are unchanged.
func (d *Document) SaveAs(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return d.saveTo(abs)
}

func (d *Document) saveTo(path string) error {
	if d.IsClosed() {
		return ErrClosed
	}

	d.saving.Add(1)
	defer d.saving.Add(-1)

	snap := d.buf.Snapshot()
	if err := d.loader.Write(path, snap.Text()); err != nil {
		return err
	}

	d.mu.Lock()
	d.path = path
	d.large = d.loader.IsLarge(snap.Len())
	d.disk = fileio.FingerprintOf(snap.Text())
	d.mu.Unlock()

	d.buf.MarkCleanAt(snap.RevisionID())
	d.emitter.Emit(event.DocumentSaved{
		DocumentID: d.id,
		Path:       path,
		Revision:   snap.RevisionID(),
	})
	return nil
}

func (d *Document) setDisk(fp fileio.Fingerprint) {
	d.mu.Lock()
	d.disk = fp
	d.mu.Unlock()
}

// DiskState describes the file relative to what was last loaded or saved.
type DiskState int

const (
	DiskUnchanged DiskState = iota
	DiskModified
	DiskRemoved
)

// CheckDisk compares the file on disk with the content last loaded from
// or written to it. Untitled documents are always DiskUnchanged.
func (d *Document) CheckDisk() (DiskState, error) {
	d.mu.RLock()
	path, known := d.path, d.disk
	d.mu.RUnlock()
	if path == "" {
		return DiskUnchanged, nil
	}

	fp, err := fileio.FingerprintFile(path)
	if errors.Is(err, fileio.ErrNotFound) {
		return DiskRemoved, nil
	}
	if err != nil {
		return DiskUnchanged, err
	}
	if fp != known {
		return DiskModified, nil
	}
	return DiskUnchanged, nil
}

// checkExternal emits ExternalChange if the file changed behind our back.
func (d *Document) checkExternal() error {
	if d.saving.Load() > 0 || d.IsClosed() {
		return nil
	}
	state, err := d.CheckDisk()
	if err != nil || state == DiskUnchanged {
		return err
	}
	d.emitter.Emit(event.ExternalChange{
		DocumentID: d.id,
		Path:       d.Path(),
		Removed:    state == DiskRemoved,
	})
	return nil
}
