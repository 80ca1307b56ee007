package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/schemeta/core/errors"
)

// Compress encodes data with the given compression.
func Compress(data []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case XZ:
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		if _, err := xw.Write(data); err != nil {
			return nil, fmt.Errorf("xz write: %w", err)
		}
		if err := xw.Close(); err != nil {
			return nil, fmt.Errorf("xz close: %w", err)
		}
	case Gzip:
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := gw.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
	default:
		return data, nil
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path, compressing it when the name ends in ".xz"
// or ".gz". The file is written to a temporary name in the same directory and
// renamed into place. If createParentDir is true, parent directories of path
// are created.
func WriteFile(path string, data []byte, createParentDir bool) error {
	dir := filepath.Dir(path)
	if createParentDir {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIO("create directory", dir, err)
		}
	}

	payload, err := Compress(data, DetectCompression(path))
	if err != nil {
		return errors.NewIO("compress", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".schemeta-*")
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("close", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("chmod", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}
