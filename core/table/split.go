package table

import (
	"fmt"

	"github.com/FocuswithJustin/schemeta/core/errors"
)

// Split partitions a raw table into a metadata table and a data table.
//
// In Wide orientation the row labels are the record identifiers and the
// first metadataCount columns are metadata. In Long orientation the column
// labels are the record identifiers and the first metadataCount rows are
// metadata; both parts are transposed so that identifiers end up as row
// labels. Either way the returned tables are indexed by identifier and keep
// the source field order.
func Split(t Table, o Orientation, metadataCount int) (meta, data Table, err error) {
	if metadataCount < 0 {
		return Table{}, Table{}, errors.NewValidation("metadata_count", fmt.Sprintf("must not be negative, got %d", metadataCount))
	}

	switch o {
	case Wide:
		meta, data, err = splitWide(t, metadataCount)
	case Long:
		meta, data, err = splitLong(t, metadataCount)
	default:
		return Table{}, Table{}, errors.NewUnsupported("orientation", o.String())
	}
	if err != nil {
		return Table{}, Table{}, err
	}

	if err := checkSplit(meta, data, metadataCount); err != nil {
		return Table{}, Table{}, err
	}
	return meta, data, nil
}

func splitWide(t Table, metadataCount int) (Table, Table, error) {
	if dup := findDuplicate(t.Index); dup != nil {
		return Table{}, Table{}, dup
	}
	n := min(metadataCount, len(t.Columns))
	meta := t.sliceColumns(0, n)
	data := t.sliceColumns(n, len(t.Columns))
	return meta, data, nil
}

func splitLong(t Table, metadataCount int) (Table, Table, error) {
	if dup := findDuplicate(t.Columns); dup != nil {
		return Table{}, Table{}, dup
	}
	n := min(metadataCount, len(t.Index))
	meta := TransposeWithLabels(t.sliceRows(0, n), t.IndexName)
	data := TransposeWithLabels(t.sliceRows(n, len(t.Index)), t.IndexName)
	return meta, data, nil
}

// checkSplit applies the structural rules shared by both orientations.
// Both parts always carry the same identifiers, so a table without records
// is reported as empty data. A table with records but too few fields is
// reported as having no data columns.
func checkSplit(meta, data Table, metadataCount int) error {
	if len(data.Index) == 0 {
		return &errors.EmptyDataError{}
	}
	if metadataCount > 0 && len(meta.Index) == 0 {
		return &errors.EmptyMetadataError{}
	}
	if len(data.Columns) == 0 {
		return &errors.NoDataColumnsError{
			Fields:        len(meta.Columns),
			MetadataCount: metadataCount,
		}
	}
	return nil
}
