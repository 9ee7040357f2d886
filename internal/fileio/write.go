package fileio

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Write stores content at path atomically.
//
// The content is written to a temporary file in the same directory, synced,
// given the mode of the existing file (0o644 for new files) and renamed
// over path. On any failure the temporary file is removed and the original
// file is left untouched.
func (l *Loader) Write(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newFileError("write", path, err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return &FileError{Op: "write", Path: path, Kind: KindIO, Offset: -1, Err: errIsDirectory}
		}
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return newFileError("write", path, err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return newFileError("write", path, err)
	}

	if _, err := tmp.WriteString(content); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return newFileError("write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return newFileError("write", path, err)
	}
	return nil
}

// Write stores content at path atomically.
func Write(path, content string) error {
	return (*Loader)(nil).Write(path, content)
}
