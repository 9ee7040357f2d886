package fileio

import (
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Fingerprint identifies file content for external change detection.
type Fingerprint struct {
	Size int64
	Hash uint64
}

// Zero reports whether the fingerprint is unset.
func (f Fingerprint) Zero() bool {
	return f == Fingerprint{}
}

// FingerprintOf returns the fingerprint of in-memory content.
func FingerprintOf(content string) Fingerprint {
	return Fingerprint{Size: int64(len(content)), Hash: xxh3.HashString(content)}
}

// FingerprintFile streams path through the hasher.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, newFileError("read", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Fingerprint{}, newFileError("read", path, err)
	}
	return Fingerprint{Size: n, Hash: h.Sum64()}, nil
}
