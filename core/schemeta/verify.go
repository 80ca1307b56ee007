package schemeta

import (
	"github.com/FocuswithJustin/schemeta/core/delimited"
	"github.com/FocuswithJustin/schemeta/core/digest"
	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/core/table"
	"github.com/FocuswithJustin/schemeta/internal/archive"
)

// Shape is a table's row and column count.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

func shapeOf(t table.Table) Shape {
	r, c := t.Shape()
	return Shape{Rows: r, Columns: c}
}

// Report describes a split-and-recombine check of one file.
type Report struct {
	Path          string `json:"path"`
	Orientation   string `json:"orientation"`
	MetadataCount int    `json:"metadata_count"`

	Source   Shape `json:"source"`
	Metadata Shape `json:"metadata"`
	Data     Shape `json:"data"`
	Rebuilt  Shape `json:"rebuilt"`

	// FileHashes are taken over the decompressed file content.
	FileHashes    digest.HashResult `json:"file_hashes"`
	SourceHashes  digest.HashResult `json:"source_hashes"`
	RebuiltHashes digest.HashResult `json:"rebuilt_hashes"`
	Lossless      bool              `json:"lossless"`
}

// Verify splits the table at path and combines it again in memory. The
// report is lossless when the rebuilt table is identical to the source.
func Verify(path string, opts Options) (Report, error) {
	if err := opts.Validate(); err != nil {
		return Report{}, err
	}
	raw, err := archive.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	t, err := delimited.Load(raw, opts.codec())
	if err != nil {
		return Report{}, errors.Wrapf(err, "load %s", path)
	}
	meta, data, err := table.Split(t, opts.Orientation, opts.MetadataCount)
	if err != nil {
		return Report{}, err
	}
	rebuilt, err := table.Combine(meta, data, opts.Orientation)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Path:          path,
		Orientation:   opts.Orientation.String(),
		MetadataCount: opts.MetadataCount,
		Source:        shapeOf(t),
		Metadata:      shapeOf(meta),
		Data:          shapeOf(data),
		Rebuilt:       shapeOf(rebuilt),
		FileHashes:    digest.Bytes(raw),
		SourceHashes:  digest.TableHashes(t),
		RebuiltHashes: digest.TableHashes(rebuilt),
	}
	r.Lossless = r.SourceHashes == r.RebuiltHashes
	return r, nil
}
