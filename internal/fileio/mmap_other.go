//go:build !unix

package fileio

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// readMapped streams the file through a fixed window on platforms without
// mmap support. A rune split across two reads is carried into the next one.
func readMapped(f *os.File, path string, size int64) (string, error) {
	var sb strings.Builder
	sb.Grow(int(size))

	buf := make([]byte, decodeWindow+utf8.UTFMax)
	carry := 0
	var base int64
	for {
		n, err := f.Read(buf[carry:])
		n += carry
		end := n
		if err == nil {
			end = completePrefix(buf[:n])
		}
		if derr := decodeWindows(&sb, buf[:end], base, path); derr != nil {
			return "", derr
		}
		base += int64(end)
		carry = copy(buf, buf[end:n])

		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", newFileError("read", path, err)
		}
	}
}

// completePrefix returns the length of b without a trailing partial rune.
func completePrefix(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	i := len(b) - 1
	for j := 0; j < utf8.UTFMax-1 && i > 0 && !utf8.RuneStart(b[i]); j++ {
		i--
	}
	if utf8.FullRune(b[i:]) {
		return len(b)
	}
	return i
}
