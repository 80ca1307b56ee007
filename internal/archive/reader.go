// Package archive reads and writes table files that may be compressed.
// Compression is chosen from the file name: ".xz" and ".gz" are
// (de)compressed transparently, anything else is plain.
package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/internal/validation"
)

// Compression identifies a file compression scheme.
type Compression int

const (
	// None is an uncompressed file.
	None Compression = iota
	// Gzip is a .gz file.
	Gzip
	// XZ is a .xz file.
	XZ
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case XZ:
		return "xz"
	default:
		return "none"
	}
}

// Ext returns the file suffix for the compression, including the dot.
func (c Compression) Ext() string {
	switch c {
	case Gzip:
		return ".gz"
	case XZ:
		return ".xz"
	default:
		return ""
	}
}

// DetectCompression picks the compression from the file suffix.
func DetectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return XZ
	case ".gz":
		return Gzip
	default:
		return None
	}
}

// SplitExt splits a file name into its stem, its table extension and its
// compression suffix: "dir/a.csv.xz" gives ("a", ".csv", ".xz").
func SplitExt(path string) (stem, ext, compressExt string) {
	base := filepath.Base(path)
	compressExt = DetectCompression(base).Ext()
	base = base[:len(base)-len(compressExt)]
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	return stem, ext, compressExt
}

// ReadFile reads a whole file, decompressing it when its name ends in
// ".xz" or ".gz". Content larger than validation.MaxFileSize is rejected.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	var reader io.Reader = f
	switch DetectCompression(path) {
	case XZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, errors.NewIO("read", path, fmt.Errorf("xz reader: %w", err))
		}
		reader = xzr
	case Gzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.NewIO("read", path, fmt.Errorf("gzip reader: %w", err))
		}
		defer gzr.Close()
		reader = gzr
	}

	data, err := io.ReadAll(io.LimitReader(reader, validation.MaxFileSize+1))
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	if len(data) > validation.MaxFileSize {
		return nil, errors.NewValidation("size", fmt.Sprintf("%s exceeds %d bytes", path, validation.MaxFileSize))
	}
	return data, nil
}
