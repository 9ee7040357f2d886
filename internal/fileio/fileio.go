// Package fileio loads and stores plain UTF-8 documents.
//
// Files at or below the mmap threshold are read with one buffered copy.
// Larger files are memory-mapped and decoded incrementally so the raw bytes
// are never duplicated in memory before validation. Writes go to a
// temporary file in the target directory which is then renamed over the
// target, so a failed save never leaves a partially written file.
package fileio

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultMmapThreshold is the size above which files are memory-mapped.
const DefaultMmapThreshold int64 = 1 << 20

// decodeWindow is the chunk size used for incremental decoding.
const decodeWindow = 64 << 10

// Loader reads and writes documents.
type Loader struct {
	// MmapThreshold overrides DefaultMmapThreshold when positive.
	MmapThreshold int64
}

// NewLoader creates a loader with the given mmap threshold.
// A non-positive threshold selects DefaultMmapThreshold.
func NewLoader(threshold int64) *Loader {
	return &Loader{MmapThreshold: threshold}
}

func (l *Loader) threshold() int64 {
	if l == nil || l.MmapThreshold <= 0 {
		return DefaultMmapThreshold
	}
	return l.MmapThreshold
}

// IsLarge reports whether a file of size bytes takes the mmap path.
// Large documents also skip word wrap and rich export.
func (l *Loader) IsLarge(size int64) bool {
	return size > l.threshold()
}

// Read returns the decoded content of path.
// Errors are *FileError values.
func (l *Loader) Read(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", newFileError("read", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", newFileError("read", path, err)
	}
	if info.IsDir() {
		return "", &FileError{Op: "read", Path: path, Kind: KindIO, Offset: -1, Err: errIsDirectory}
	}

	if l.IsLarge(info.Size()) {
		return readMapped(f, path, info.Size())
	}
	return readBuffered(f, path, info.Size())
}

// Read reads path with the default threshold.
func Read(path string) (string, error) {
	return (*Loader)(nil).Read(path)
}

// readBuffered copies the file once into a pre-sized builder.
// strings.Builder.String does not copy, so the returned string is the
// only copy of the file content.
func readBuffered(f *os.File, path string, size int64) (string, error) {
	var sb strings.Builder
	sb.Grow(int(size))
	if _, err := io.Copy(&sb, f); err != nil {
		return "", newFileError("read", path, err)
	}
	s := sb.String()
	if !utf8.ValidString(s) {
		return "", encodingError(path, int64(invalidOffset(s)))
	}
	return s, nil
}

// decodeWindows validates data window by window and appends it to sb.
// A window never ends inside a UTF-8 sequence, except at the end of data.
// base is the file offset of data[0], used for error reporting.
func decodeWindows(sb *strings.Builder, data []byte, base int64, path string) error {
	for len(data) > 0 {
		n := min(decodeWindow, len(data))
		if n < len(data) {
			n = runeBoundary(data, n)
		}
		chunk := data[:n]
		if !utf8.Valid(chunk) {
			return encodingError(path, base+int64(invalidOffset(string(chunk))))
		}
		sb.Write(chunk)
		data = data[n:]
		base += int64(n)
	}
	return nil
}

// runeBoundary backs n off to the start of the rune that contains it.
// It moves back at most utf8.UTFMax-1 bytes so malformed input still
// makes progress and is reported by validation.
func runeBoundary(data []byte, n int) int {
	for i := 0; i < utf8.UTFMax-1 && n > 1; i++ {
		if utf8.RuneStart(data[n]) {
			return n
		}
		n--
	}
	return n
}

// invalidOffset returns the offset of the first invalid sequence in s.
func invalidOffset(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return len(s)
}
