//go:build unix

package fileio

import (
	"io"
	"os"
	"runtime/debug"
	"strings"

	"golang.org/x/sys/unix"
)

// readMapped maps the file read-only and decodes it incrementally.
// The mapping covers size bytes, the length seen when the file was opened.
func readMapped(f *os.File, path string, size int64) (s string, err error) {
	if size == 0 {
		return "", nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return "", newFileError("read", path, err)
	}
	defer unix.Munmap(data)

	// Pages past a concurrent truncation fault on access; report that as
	// an error rather than letting SIGBUS kill the process.
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, fault := r.(interface{ Addr() uintptr }); !fault {
			panic(r)
		}
		s, err = "", &FileError{Op: "read", Path: path, Kind: KindIO, Offset: -1, Err: errTruncated}
	}()

	if info, serr := f.Stat(); serr == nil && info.Size() < size {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			return "", newFileError("read", path, serr)
		}
		return readBuffered(f, path, info.Size())
	}

	// Advisory only; a failure here does not affect correctness.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	var sb strings.Builder
	sb.Grow(len(data))
	if err := decodeWindows(&sb, data, 0, path); err != nil {
		return "", err
	}
	return sb.String(), nil
}
