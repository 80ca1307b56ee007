package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/core/table"
)

// Table names used for a split pair.
const (
	MetadataTable = "metadata"
	DataTable     = "data"
)

// Export writes meta and data into a fresh SQLite database at path. Each
// becomes a table whose first column is the identifier column and whose
// other columns are the fields, all TEXT. Existing tables of the same name
// are replaced.
func Export(ctx context.Context, path string, meta, data table.Table) error {
	if err := checkExportable(meta); err != nil {
		return err
	}
	if err := checkExportable(data); err != nil {
		return err
	}

	db, err := Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin transaction", path, err)
	}
	defer tx.Rollback()

	if err := writeTable(ctx, tx, MetadataTable, meta); err != nil {
		return errors.Wrapf(err, "export %s", MetadataTable)
	}
	if err := writeTable(ctx, tx, DataTable, data); err != nil {
		return errors.Wrapf(err, "export %s", DataTable)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewIO("commit", path, err)
	}
	return nil
}

// Import reads a pair written by Export. Rows come back in insertion order.
func Import(ctx context.Context, path string) (meta, data table.Table, err error) {
	if _, err := os.Stat(path); err != nil {
		return table.Table{}, table.Table{}, errors.NewIO("open", path, err)
	}

	db, err := Open(path)
	if err != nil {
		return table.Table{}, table.Table{}, errors.NewIO("open", path, err)
	}
	defer db.Close()

	meta, err = readTable(ctx, db, MetadataTable)
	if err != nil {
		return table.Table{}, table.Table{}, errors.Wrapf(err, "import %s", MetadataTable)
	}
	data, err = readTable(ctx, db, DataTable)
	if err != nil {
		return table.Table{}, table.Table{}, errors.Wrapf(err, "import %s", DataTable)
	}
	return meta, data, nil
}

// checkExportable rejects names SQLite cannot hold as distinct columns.
func checkExportable(t table.Table) error {
	if t.IndexName == "" {
		return errors.NewValidation("index_name", "identifier column needs a name to be stored in SQLite")
	}
	seen := map[string]bool{strings.ToLower(t.IndexName): true}
	for _, c := range t.Columns {
		key := strings.ToLower(c)
		if c == "" {
			return errors.NewValidation("columns", "empty field name cannot be stored in SQLite")
		}
		if seen[key] {
			return errors.NewValidation("columns", fmt.Sprintf("field name %q repeats (SQLite column names are case-insensitive)", c))
		}
		seen[key] = true
	}
	return nil
}

func writeTable(ctx context.Context, tx *sql.Tx, name string, t table.Table) error {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return err
	}

	defs := make([]string, 0, len(t.Columns)+1)
	defs = append(defs, quoteIdent(t.IndexName)+" TEXT PRIMARY KEY")
	for _, c := range t.Columns {
		defs = append(defs, quoteIdent(c)+" TEXT")
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns)+1)
	for i, id := range t.Index {
		args[0] = id
		for j, v := range t.Cells[i] {
			args[j+1] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %q: %w", id, err)
		}
	}
	return nil
}

func readTable(ctx context.Context, db *sql.DB, name string) (table.Table, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(name)))
	if err != nil {
		return table.Table{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return table.Table{}, err
	}
	if len(cols) == 0 {
		return table.Table{}, errors.NewValidation(name, "table has no identifier column")
	}

	t := table.Table{
		IndexName: cols[0],
		Columns:   append([]string{}, cols[1:]...),
		Index:     []string{},
		Cells:     [][]string{},
	}
	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return table.Table{}, err
		}
		row := make([]string, len(cols)-1)
		for j := 1; j < len(cols); j++ {
			row[j-1] = values[j].String
		}
		t.Index = append(t.Index, values[0].String)
		t.Cells = append(t.Cells, row)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, err
	}
	return t, nil
}

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
