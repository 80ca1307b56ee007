package table

import (
	"github.com/FocuswithJustin/schemeta/core/errors"
)

// CheckFormat reports whether t looks like one half of a split pair.
//
// With expectMetadata set, t must have exactly metadataCount fields.
// Otherwise t must have at least one field. In both cases t needs at least
// one record and unique record identifiers. The check is advisory: it does
// not know which field names a particular source used.
func CheckFormat(t Table, expectMetadata bool, metadataCount int) bool {
	if len(t.Index) == 0 || len(t.Cells) != len(t.Index) {
		return false
	}
	if findDuplicate(t.Index) != nil {
		return false
	}
	if expectMetadata {
		return len(t.Columns) == metadataCount
	}
	return len(t.Columns) > 0
}

// CheckPair validates a metadata/data pair before it is combined and returns
// the first typed error found.
func CheckPair(meta, data Table, metadataCount int) error {
	if len(data.Index) == 0 {
		return &errors.EmptyDataError{}
	}
	if metadataCount > 0 && len(meta.Index) == 0 {
		return &errors.EmptyMetadataError{}
	}
	if len(data.Columns) == 0 {
		return &errors.NoDataColumnsError{Fields: len(meta.Columns), MetadataCount: metadataCount}
	}
	if err := checkIdentifiers(meta, data); err != nil {
		return err
	}
	if !CheckFormat(meta, true, metadataCount) {
		return errors.NewValidation("metadata", "metadata table does not have the expected number of fields")
	}
	return nil
}
