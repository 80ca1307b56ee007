// Package schemeta moves split metadata/data pairs between files and memory.
//
// A raw file holds one table. ReadFile splits it into a metadata table and a
// data table indexed by record identifier; WriteFile combines a pair and
// writes it back in the configured orientation. WriteSplit and ReadSplit
// store the two halves as separate files.
package schemeta

import (
	"fmt"
	"path/filepath"

	"github.com/FocuswithJustin/schemeta/core/delimited"
	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/core/table"
	"github.com/FocuswithJustin/schemeta/internal/archive"
)

// DefaultMetadataCount is the number of leading metadata fields assumed
// when none is configured.
const DefaultMetadataCount = 3

// Suffixes appended to the stem of split output files.
const (
	MetaSuffix = "_meta"
	DataSuffix = "_data"
)

// Options describes the layout of raw files.
type Options struct {
	Orientation   table.Orientation `json:"orientation"`
	MetadataCount int               `json:"metadata_count"`
	Delimiter     rune              `json:"delimiter"`
	Encoding      string            `json:"encoding"`
}

// DefaultOptions returns long orientation, three metadata fields and
// comma-separated UTF-8.
func DefaultOptions() Options {
	d := delimited.DefaultOptions()
	return Options{
		Orientation:   table.Long,
		MetadataCount: DefaultMetadataCount,
		Delimiter:     d.Delimiter,
		Encoding:      d.Encoding,
	}
}

// Validate rejects options no file can be read or written with.
func (o Options) Validate() error {
	if o.Orientation != table.Wide && o.Orientation != table.Long {
		return errors.NewUnsupported("orientation", o.Orientation.String())
	}
	if o.MetadataCount < 0 {
		return errors.NewValidation("metadata_count", fmt.Sprintf("must not be negative, got %d", o.MetadataCount))
	}
	return o.codec().Validate()
}

func (o Options) codec() delimited.Options {
	return delimited.Options{Delimiter: o.Delimiter, Encoding: o.Encoding}
}

// Load reads a raw table from path without splitting it. Files ending in
// ".xz" or ".gz" are decompressed first.
func Load(path string, opts Options) (table.Table, error) {
	if err := opts.Validate(); err != nil {
		return table.Table{}, err
	}
	raw, err := archive.ReadFile(path)
	if err != nil {
		return table.Table{}, err
	}
	t, err := delimited.Load(raw, opts.codec())
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "load %s", path)
	}
	return t, nil
}

// Store writes a raw table to path, compressing by suffix and creating
// parent directories. It returns the number of bytes before compression.
func Store(path string, t table.Table, opts Options) (int64, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	out, err := delimited.Write(t, opts.codec())
	if err != nil {
		return 0, err
	}
	if err := archive.WriteFile(path, out, true); err != nil {
		return 0, err
	}
	return int64(len(out)), nil
}

// ReadFile loads path and splits it according to opts.
func ReadFile(path string, opts Options) (meta, data table.Table, err error) {
	t, err := Load(path, opts)
	if err != nil {
		return table.Table{}, table.Table{}, err
	}
	meta, data, err = table.Split(t, opts.Orientation, opts.MetadataCount)
	if err != nil {
		return table.Table{}, table.Table{}, errors.Wrapf(err, "split %s", path)
	}
	return meta, data, nil
}

// WriteFile combines meta and data and writes the result to path in the
// orientation given by opts.
func WriteFile(path string, meta, data table.Table, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	t, err := table.Combine(meta, data, opts.Orientation)
	if err != nil {
		return err
	}
	_, err = Store(path, t, opts)
	return err
}

// SplitPaths returns the metadata and data file names WriteSplit uses for
// name inside dir. The extension of name is kept; a name without one gets
// the extension matching the delimiter.
func SplitPaths(dir, name string, opts Options) (metaPath, dataPath string) {
	stem, ext, compressExt := archive.SplitExt(name)
	if ext == "" {
		ext = DefaultExt(opts.Delimiter)
	}
	metaPath = filepath.Join(dir, stem+MetaSuffix+ext+compressExt)
	dataPath = filepath.Join(dir, stem+DataSuffix+ext+compressExt)
	return metaPath, dataPath
}

// DefaultExt returns ".tsv" for tab, ".csv" for comma and ".txt" otherwise.
func DefaultExt(delimiter rune) string {
	switch delimiter {
	case '\t':
		return ".tsv"
	case 0, ',':
		return ".csv"
	default:
		return ".txt"
	}
}

// WriteSplit writes meta and data as two files in dir, identifier column
// first, and returns their paths.
func WriteSplit(dir, name string, meta, data table.Table, opts Options) (metaPath, dataPath string, err error) {
	metaPath, dataPath = SplitPaths(dir, name, opts)
	if _, err := Store(metaPath, meta, opts); err != nil {
		return "", "", err
	}
	if _, err := Store(dataPath, data, opts); err != nil {
		return "", "", err
	}
	return metaPath, dataPath, nil
}

// ReadSplit loads a pair written by WriteSplit and checks that it can be
// combined.
func ReadSplit(metaPath, dataPath string, opts Options) (meta, data table.Table, err error) {
	meta, err = Load(metaPath, opts)
	if err != nil {
		return table.Table{}, table.Table{}, err
	}
	data, err = Load(dataPath, opts)
	if err != nil {
		return table.Table{}, table.Table{}, err
	}
	if err := table.CheckPair(meta, data, opts.MetadataCount); err != nil {
		return table.Table{}, table.Table{}, err
	}
	return meta, data, nil
}

// Convert reads in with orientation from and writes out with orientation to.
// Delimiter, encoding and metadata count come from opts.
func Convert(in, out string, from, to table.Orientation, opts Options) error {
	readOpts := opts
	readOpts.Orientation = from
	meta, data, err := ReadFile(in, readOpts)
	if err != nil {
		return err
	}
	writeOpts := opts
	writeOpts.Orientation = to
	return WriteFile(out, meta, data, writeOpts)
}
