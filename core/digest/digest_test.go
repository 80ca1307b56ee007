package digest

import (
	"encoding/hex"
	"testing"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/schemeta/core/table"
)

func TestBlake3Hash(t *testing.T) {
	data := []byte("BLAKE3 test data")
	h := blake3.Sum256(data)
	want := hex.EncodeToString(h[:])

	if got := Blake3Hash(data); got != want {
		t.Errorf("Blake3Hash() = %s, want %s", got, want)
	}
	if len(want) != 64 {
		t.Errorf("hash length = %d, want 64", len(want))
	}
}

func TestBytes(t *testing.T) {
	res := Bytes([]byte("hello"))
	// sha256("hello")
	if res.SHA256 != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Errorf("SHA256 = %s", res.SHA256)
	}
	if res.BLAKE3 != Blake3Hash([]byte("hello")) {
		t.Errorf("BLAKE3 = %s", res.BLAKE3)
	}
}

func sampleTable() table.Table {
	return table.MustNew("uid",
		[]string{"1", "2"},
		[]string{"a", "b"},
		[][]string{{"x", "y"}, {"z", "w"}},
	)
}

func TestTable_Deterministic(t *testing.T) {
	a := Table(sampleTable())
	b := Table(sampleTable())
	if a != b {
		t.Errorf("Table() not deterministic: %s != %s", a, b)
	}
	if TableHashes(sampleTable()).BLAKE3 != a {
		t.Error("TableHashes().BLAKE3 differs from Table()")
	}
}

func TestTable_Sensitivity(t *testing.T) {
	base := Table(sampleTable())

	tests := []struct {
		name   string
		mutate func(*table.Table)
	}{
		{"cell", func(tb *table.Table) { tb.Cells[1][1] = "changed" }},
		{"index label", func(tb *table.Table) { tb.Index[0] = "9" }},
		{"column label", func(tb *table.Table) { tb.Columns[0] = "aa" }},
		{"index name", func(tb *table.Table) { tb.IndexName = "id" }},
		{"columns name", func(tb *table.Table) { tb.ColumnsName = "fields" }},
		{"row order", func(tb *table.Table) {
			tb.Index[0], tb.Index[1] = tb.Index[1], tb.Index[0]
			tb.Cells[0], tb.Cells[1] = tb.Cells[1], tb.Cells[0]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := sampleTable()
			tt.mutate(&tb)
			if Table(tb) == base {
				t.Errorf("Table() unchanged after %s mutation", tt.name)
			}
		})
	}
}

func TestTable_BoundaryAmbiguity(t *testing.T) {
	// Cells "ab","c" and "a","bc" must not collide.
	left := table.MustNew("k", []string{"1"}, []string{"p", "q"}, [][]string{{"ab", "c"}})
	right := table.MustNew("k", []string{"1"}, []string{"p", "q"}, [][]string{{"a", "bc"}})
	if Table(left) == Table(right) {
		t.Error("length prefixes should separate cell boundaries")
	}
}
