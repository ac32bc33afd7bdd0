// Package input opens annotation input files, decompressing them by suffix.
package input

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// File is an opened input file. Reads return decompressed content.
type File struct {
	io.Reader
	file         *os.File
	decompressor io.Closer
}

// Open opens the file at path. Files ending in ".gz" are gunzipped and files
// ending in ".xz" are xz-decoded; anything else is read as is.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}

	in := &File{Reader: f, file: f}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		in.Reader = gz
		in.decompressor = gz
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open xz reader: %w", err)
		}
		in.Reader = xzr
	}

	return in, nil
}

// Close closes the decompressor (if any) and the underlying file.
func (in *File) Close() error {
	var first error
	if in.decompressor != nil {
		first = in.decompressor.Close()
	}
	if err := in.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Size returns the on-disk (compressed) size of the file.
func (in *File) Size() int64 {
	info, err := in.file.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}
