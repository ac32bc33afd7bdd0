package duckdb

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// FileFingerprint identifies the content of an input file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
	Digest  string // hex BLAKE3-256 of the raw file bytes
}

// Source returns the base name of the fingerprinted file.
func (fp FileFingerprint) Source() string {
	return filepath.Base(fp.Path)
}

// FingerprintFile stats and hashes an on-disk file.
func FingerprintFile(path string) (FileFingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileFingerprint{}, err
	}

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return FileFingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}

	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Digest:  hex.EncodeToString(h.Sum(nil)),
	}, nil
}
