// Package parquet exports tables as Parquet files and reads them back.
//
// Every column is stored as a UTF-8 string column; the identifier column is
// written first and its header is kept as the column name.
package parquet

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pq "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/core/table"
)

// Ext is the file extension used for Parquet exports.
const Ext = ".parquet"

// columnsNameKey stores the column-axis name in the schema metadata.
const columnsNameKey = "schemeta.columns_name"

// Export writes t to path as a snappy-compressed Parquet file.
func Export(path string, t table.Table) error {
	if len(t.Cells) != len(t.Index) {
		return errors.NewValidation("table", fmt.Sprintf("%d row(s) for %d index label(s)", len(t.Cells), len(t.Index)))
	}

	schema := schemaFor(t)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	ids := b.Field(0).(*array.StringBuilder)
	for i, id := range t.Index {
		if len(t.Cells[i]) != len(t.Columns) {
			return errors.NewValidation("table", fmt.Sprintf("row %q has %d value(s), want %d", id, len(t.Cells[i]), len(t.Columns)))
		}
		ids.Append(id)
		for j, v := range t.Cells[i] {
			b.Field(j + 1).(*array.StringBuilder).Append(v)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	file, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	defer file.Close()

	props := pq.NewWriterProperties(pq.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, file, props, arrowProps)
	if err != nil {
		return errors.NewIO("create parquet writer", path, err)
	}
	if err := writer.WriteTable(tbl, max(tbl.NumRows(), 1)); err != nil {
		writer.Close()
		return errors.NewIO("write", path, err)
	}
	if err := writer.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	return nil
}

// ReadTable loads a Parquet file written by Export.
func ReadTable(ctx context.Context, path string) (table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return table.Table{}, errors.NewIO("open", path, err)
	}
	defer file.Close()

	tbl, err := pqarrow.ReadTable(ctx, file, pq.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return table.Table{}, errors.NewIO("read", path, err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	if schema.NumFields() == 0 {
		return table.Table{}, errors.NewValidation("parquet", "file has no identifier column")
	}

	columns := make([][]string, schema.NumFields())
	for i := range columns {
		columns[i] = columnValues(tbl.Column(i))
	}

	out := table.Table{
		IndexName: schema.Field(0).Name,
		Index:     columns[0],
		Columns:   make([]string, 0, schema.NumFields()-1),
		Cells:     make([][]string, len(columns[0])),
	}
	if md := schema.Metadata(); md.Len() > 0 {
		if idx := md.FindKey(columnsNameKey); idx >= 0 {
			out.ColumnsName = md.Values()[idx]
		}
	}
	for _, f := range schema.Fields()[1:] {
		out.Columns = append(out.Columns, f.Name)
	}
	for r := range out.Cells {
		row := make([]string, len(out.Columns))
		for c := range out.Columns {
			row[c] = columns[c+1][r]
		}
		out.Cells[r] = row
	}
	return out, nil
}

func schemaFor(t table.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.Columns)+1)
	fields = append(fields, arrow.Field{Name: t.IndexName, Type: arrow.BinaryTypes.String})
	for _, c := range t.Columns {
		fields = append(fields, arrow.Field{Name: c, Type: arrow.BinaryTypes.String})
	}
	md := arrow.NewMetadata([]string{columnsNameKey}, []string{t.ColumnsName})
	return arrow.NewSchema(fields, &md)
}

// columnValues flattens a chunked column into strings. Nulls become "".
func columnValues(col *arrow.Column) []string {
	out := make([]string, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				out = append(out, "")
				continue
			}
			switch arr := chunk.(type) {
			case *array.String:
				out = append(out, arr.Value(i))
			case *array.LargeString:
				out = append(out, arr.Value(i))
			default:
				out = append(out, chunk.ValueStr(i))
			}
		}
	}
	return out
}
