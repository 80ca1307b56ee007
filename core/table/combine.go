package table

import (
	"github.com/FocuswithJustin/schemeta/core/errors"
)

// Combine reassembles a metadata table and a data table into one raw table.
//
// Both tables must be indexed by the same set of unique identifiers. The
// output lists metadata fields before data fields and records in the
// metadata table's order. In Wide orientation records are rows; in Long
// orientation the result is transposed so records are columns and the
// header row carries the identifiers.
func Combine(meta, data Table, o Orientation) (Table, error) {
	if o != Wide && o != Long {
		return Table{}, errors.NewUnsupported("orientation", o.String())
	}
	if err := checkIdentifiers(meta, data); err != nil {
		return Table{}, err
	}

	indexName := meta.IndexName
	if indexName == "" {
		indexName = data.IndexName
	}

	dataRows := make(map[string]int, len(data.Index))
	for i, id := range data.Index {
		dataRows[id] = i
	}

	columns := make([]string, 0, len(meta.Columns)+len(data.Columns))
	columns = append(columns, meta.Columns...)
	columns = append(columns, data.Columns...)

	wide := Table{
		IndexName: indexName,
		Index:     cloneStrings(meta.Index),
		Columns:   columns,
		Cells:     make([][]string, len(meta.Index)),
	}
	for i, id := range meta.Index {
		row := make([]string, 0, len(columns))
		row = append(row, meta.Cells[i]...)
		row = append(row, data.Cells[dataRows[id]]...)
		wide.Cells[i] = row
	}

	if o == Wide {
		return wide, nil
	}
	return TransposeWithLabels(wide, indexName), nil
}

// checkIdentifiers enforces the combine preconditions. Identifier sets are
// compared first; with equal sets a differing record count can only come
// from a repeated identifier, and equal counts with repeats still leave the
// alignment ambiguous.
func checkIdentifiers(meta, data Table) error {
	if err := compareIdentifierSets(meta.Index, data.Index); err != nil {
		return err
	}
	if len(meta.Index) != len(data.Index) {
		return &errors.RowCountMismatchError{
			MetadataRows: len(meta.Index),
			DataRows:     len(data.Index),
		}
	}
	if dup := findDuplicate(meta.Index); dup != nil {
		return dup
	}
	if dup := findDuplicate(data.Index); dup != nil {
		return dup
	}
	return nil
}

func compareIdentifierSets(metaIDs, dataIDs []string) error {
	inData := make(map[string]bool, len(dataIDs))
	for _, id := range dataIDs {
		inData[id] = true
	}
	inMeta := make(map[string]bool, len(metaIDs))
	for _, id := range metaIDs {
		inMeta[id] = true
	}

	var mismatch errors.IdentifierMismatchError
	for _, id := range metaIDs {
		if !inData[id] {
			mismatch.MissingFromData = append(mismatch.MissingFromData, id)
		}
	}
	for _, id := range dataIDs {
		if !inMeta[id] {
			mismatch.MissingFromMetadata = append(mismatch.MissingFromMetadata, id)
		}
	}
	if len(mismatch.MissingFromData) > 0 || len(mismatch.MissingFromMetadata) > 0 {
		return &mismatch
	}
	return nil
}
