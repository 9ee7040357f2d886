package fileio

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies a file failure.
type ErrorKind int

const (
	// KindIO is any read or write failure not covered by a more specific kind.
	KindIO ErrorKind = iota
	KindNotFound
	KindPermissionDenied
	KindInvalidEncoding
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermissionDenied:
		return "permission denied"
	case KindInvalidEncoding:
		return "invalid encoding"
	default:
		return "i/o error"
	}
}

// Sentinel errors matched by FileError.Is.
var (
	ErrNotFound         = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIO               = errors.New("i/o error")
	ErrInvalidEncoding  = errors.New("invalid UTF-8")

	errIsDirectory = errors.New("is a directory")
	errTruncated   = errors.New("file shrank while it was being read")
)

// FileError describes a failed read or write.
type FileError struct {
	Op   string // "read" or "write"
	Path string
	Kind ErrorKind
	// Offset is the byte offset of the first invalid sequence for
	// KindInvalidEncoding, -1 otherwise.
	Offset int64
	Err    error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	if e.Kind == KindInvalidEncoding {
		return fmt.Sprintf("%s %s: %s at byte %d", e.Op, e.Path, e.Kind, e.Offset)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *FileError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrIO:
		return e.Kind == KindIO
	case ErrInvalidEncoding:
		return e.Kind == KindInvalidEncoding
	}
	return false
}

// newFileError classifies err for op on path.
func newFileError(op, path string, err error) *FileError {
	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermissionDenied
	}
	return &FileError{Op: op, Path: path, Kind: kind, Offset: -1, Err: err}
}

func encodingError(path string, offset int64) *FileError {
	return &FileError{Op: "read", Path: path, Kind: KindInvalidEncoding, Offset: offset}
}
