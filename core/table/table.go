// Package table holds the in-memory table model and the split/combine
// operations that move between a raw layout and a metadata/data pair.
//
// A Table is a value: every function in this package returns a new Table and
// leaves its arguments untouched. Row labels live in Index, column labels in
// Columns, and the axis names that a spreadsheet would keep implicitly are
// explicit fields.
package table

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/schemeta/core/errors"
)

// Orientation selects which axis carries records.
type Orientation int

const (
	// Long stores one record per column; fields are rows.
	Long Orientation = iota
	// Wide stores one record per row; fields are columns.
	Wide
)

func (o Orientation) String() string {
	switch o {
	case Long:
		return "long"
	case Wide:
		return "wide"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// ParseOrientation converts "wide" or "long" (any case) to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wide":
		return Wide, nil
	case "long":
		return Long, nil
	default:
		return Long, errors.NewValidation("orientation", fmt.Sprintf("unknown orientation %q (want wide or long)", s))
	}
}

// Table is a rectangular grid of text cells with labelled axes.
type Table struct {
	// IndexName names the row axis. For a loaded file it is the header of the
	// identifier column.
	IndexName string
	// ColumnsName names the column axis. Usually empty.
	ColumnsName string
	// Index holds the row labels in order.
	Index []string
	// Columns holds the column labels in order.
	Columns []string
	// Cells is row-major: Cells[i][j] is the value at Index[i], Columns[j].
	Cells [][]string
}

// New builds a Table from copies of its arguments. It fails when cells is
// not len(index) rows of len(columns) values.
func New(indexName string, index, columns []string, cells [][]string) (Table, error) {
	if len(cells) != len(index) {
		return Table{}, errors.NewValidation("cells", fmt.Sprintf("%d row(s) for %d index label(s)", len(cells), len(index)))
	}
	for i, row := range cells {
		if len(row) != len(columns) {
			return Table{}, errors.NewValidation("cells", fmt.Sprintf("row %d has %d value(s), want %d", i, len(row), len(columns)))
		}
	}
	t := Table{
		IndexName: indexName,
		Index:     index,
		Columns:   columns,
		Cells:     cells,
	}
	return t.Clone(), nil
}

// MustNew is New for literals in tests and examples. It panics on a shape error.
func MustNew(indexName string, index, columns []string, cells [][]string) Table {
	t, err := New(indexName, index, columns, cells)
	if err != nil {
		panic(err)
	}
	return t
}

// Shape returns the number of rows and columns.
func (t Table) Shape() (rows, cols int) {
	return len(t.Index), len(t.Columns)
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{
		IndexName:   t.IndexName,
		ColumnsName: t.ColumnsName,
		Index:       cloneStrings(t.Index),
		Columns:     cloneStrings(t.Columns),
		Cells:       make([][]string, len(t.Cells)),
	}
	for i, row := range t.Cells {
		out.Cells[i] = cloneStrings(row)
	}
	return out
}

// Cell returns the value at row r, column c.
func (t Table) Cell(r, c int) string {
	return t.Cells[r][c]
}

// Row returns a copy of the row labelled id.
func (t Table) Row(id string) ([]string, bool) {
	for i, label := range t.Index {
		if label == id {
			return cloneStrings(t.Cells[i]), true
		}
	}
	return nil, false
}

// Column returns a copy of the column labelled name.
func (t Table) Column(name string) ([]string, bool) {
	for j, label := range t.Columns {
		if label != name {
			continue
		}
		col := make([]string, len(t.Cells))
		for i, row := range t.Cells {
			col[i] = row[j]
		}
		return col, true
	}
	return nil, false
}

// Equal reports whether both tables have the same axis names, labels and
// cells in the same order.
func (t Table) Equal(o Table) bool {
	if t.IndexName != o.IndexName || t.ColumnsName != o.ColumnsName {
		return false
	}
	if !equalStrings(t.Index, o.Index) || !equalStrings(t.Columns, o.Columns) {
		return false
	}
	if len(t.Cells) != len(o.Cells) {
		return false
	}
	for i := range t.Cells {
		if !equalStrings(t.Cells[i], o.Cells[i]) {
			return false
		}
	}
	return true
}

// TransposeWithLabels swaps the axes. The old column labels become the row
// labels and the old row labels become the column labels. The new row axis
// is named indexName and the column axis name is cleared.
func TransposeWithLabels(t Table, indexName string) Table {
	out := Table{
		IndexName: indexName,
		Index:     cloneStrings(t.Columns),
		Columns:   cloneStrings(t.Index),
		Cells:     make([][]string, len(t.Columns)),
	}
	for j := range t.Columns {
		row := make([]string, len(t.Index))
		for i := range t.Index {
			row[i] = t.Cells[i][j]
		}
		out.Cells[j] = row
	}
	return out
}

// sliceColumns copies columns [from, to).
func (t Table) sliceColumns(from, to int) Table {
	out := Table{
		IndexName:   t.IndexName,
		ColumnsName: t.ColumnsName,
		Index:       cloneStrings(t.Index),
		Columns:     cloneStrings(t.Columns[from:to]),
		Cells:       make([][]string, len(t.Cells)),
	}
	for i, row := range t.Cells {
		out.Cells[i] = cloneStrings(row[from:to])
	}
	return out
}

// sliceRows copies rows [from, to).
func (t Table) sliceRows(from, to int) Table {
	out := Table{
		IndexName:   t.IndexName,
		ColumnsName: t.ColumnsName,
		Index:       cloneStrings(t.Index[from:to]),
		Columns:     cloneStrings(t.Columns),
		Cells:       make([][]string, to-from),
	}
	for i := from; i < to; i++ {
		out.Cells[i-from] = cloneStrings(t.Cells[i])
	}
	return out
}

// findDuplicate returns the first label that occurs twice.
func findDuplicate(labels []string) *errors.DuplicateIdentifierError {
	seen := make(map[string]int, len(labels))
	for i, label := range labels {
		if first, ok := seen[label]; ok {
			return &errors.DuplicateIdentifierError{Identifier: label, First: first, Second: i}
		}
		seen[label] = i
	}
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
