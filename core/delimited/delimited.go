// Package delimited reads and writes delimited text tables.
//
// The first cell of the first line names the identifier column, the rest of
// the first line are column labels, and the first cell of every later line
// is that row's label. Cells are kept as text.
package delimited

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/FocuswithJustin/schemeta/core/encoding"
	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/core/table"
)

// DefaultDelimiter separates cells when none is configured.
const DefaultDelimiter = ','

// Options controls how bytes map to cells.
type Options struct {
	// Delimiter separates cells. Zero means DefaultDelimiter.
	Delimiter rune
	// Encoding is the text encoding label. Empty means UTF-8.
	Encoding string
}

// DefaultOptions returns comma-separated UTF-8.
func DefaultOptions() Options {
	return Options{Delimiter: DefaultDelimiter, Encoding: encoding.DefaultEncoding}
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return DefaultDelimiter
	}
	return o.Delimiter
}

func (o Options) encodingLabel() string {
	if o.Encoding == "" {
		return encoding.DefaultEncoding
	}
	return o.Encoding
}

// Validate checks that the delimiter can be used and the encoding is known.
func (o Options) Validate() error {
	d := o.delimiter()
	if d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError || !utf8.ValidRune(d) {
		return errors.NewValidation("delimiter", fmt.Sprintf("%q cannot be used as a delimiter", d))
	}
	if _, err := encoding.Lookup(o.encodingLabel()); err != nil {
		return err
	}
	return nil
}

// Load parses delimited bytes into a table. Every line must have the same
// number of cells as the header line.
func Load(data []byte, opts Options) (table.Table, error) {
	if err := opts.Validate(); err != nil {
		return table.Table{}, err
	}

	text, err := encoding.Decode(data, opts.encodingLabel())
	if err != nil {
		return table.Table{}, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = opts.delimiter()
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if err == io.EOF {
		return table.Table{}, errors.NewParse("CSV", 0, "no header row")
	}
	if err != nil {
		return table.Table{}, parseError(err)
	}

	t := table.Table{
		IndexName: header[0],
		Columns:   append([]string{}, header[1:]...),
		Index:     []string{},
		Cells:     [][]string{},
	}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return table.Table{}, parseError(err)
		}
		t.Index = append(t.Index, record[0])
		t.Cells = append(t.Cells, record[1:])
	}
	return t, nil
}

// Write renders a table as delimited bytes: a header line with the index
// name and column labels, then one line per row.
func Write(t table.Table, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(t.Cells) != len(t.Index) {
		return nil, errors.NewValidation("table", fmt.Sprintf("%d row(s) for %d index label(s)", len(t.Cells), len(t.Index)))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = opts.delimiter()

	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, t.IndexName)
	header = append(header, t.Columns...)
	if err := writeRecord(w, &buf, header); err != nil {
		return nil, errors.NewIO("write", "", err)
	}

	for i, label := range t.Index {
		if len(t.Cells[i]) != len(t.Columns) {
			return nil, errors.NewValidation("table", fmt.Sprintf("row %q has %d value(s), want %d", label, len(t.Cells[i]), len(t.Columns)))
		}
		record := make([]string, 0, len(t.Columns)+1)
		record = append(record, label)
		record = append(record, t.Cells[i]...)
		if err := writeRecord(w, &buf, record); err != nil {
			return nil, errors.NewIO("write", "", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.NewIO("write", "", err)
	}

	return encoding.Encode(buf.Bytes(), opts.encodingLabel())
}

// writeRecord writes one record. A record made of a single empty field is
// written as a quoted empty string, since csv.Writer would emit a blank line
// and csv.Reader skips blank lines.
func writeRecord(w *csv.Writer, buf *bytes.Buffer, record []string) error {
	if len(record) == 1 && record[0] == "" {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		buf.WriteString("\"\"\n")
		return nil
	}
	return w.Write(record)
}

// parseError maps encoding/csv failures onto the ParseError type.
func parseError(err error) error {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		return errors.NewParse("CSV", pe.Line, pe.Err.Error())
	}
	return errors.NewParse("CSV", 0, err.Error())
}
