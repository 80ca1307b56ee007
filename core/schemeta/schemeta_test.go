package schemeta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/core/table"
)

const wideCSV = "uid,main_id,sub_id,group,data1,data2\n" +
	"1,X,1,A,100,101\n" +
	"3,Y,1,A,120,\n" +
	"2,X,2,B,110,110\n"

const longCSV = "uid,1,3,2\n" +
	"main_id,X,Y,X\n" +
	"sub_id,1,1,2\n" +
	"group,A,A,B\n" +
	"data1,100,120,110\n" +
	"data2,101,,110\n"

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func wideOptions() Options {
	opts := DefaultOptions()
	opts.Orientation = table.Wide
	return opts
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Orientation != table.Long {
		t.Errorf("Orientation = %v, want long", opts.Orientation)
	}
	if opts.MetadataCount != 3 {
		t.Errorf("MetadataCount = %d, want 3", opts.MetadataCount)
	}
	if opts.Delimiter != ',' || opts.Encoding != "utf-8" {
		t.Errorf("codec = %q/%q", opts.Delimiter, opts.Encoding)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		want error
	}{
		{"negative count", func(o *Options) { o.MetadataCount = -1 }, errors.ErrInvalidInput},
		{"quote delimiter", func(o *Options) { o.Delimiter = '"' }, errors.ErrInvalidInput},
		{"unknown encoding", func(o *Options) { o.Encoding = "klingon" }, errors.ErrEncoding},
		{"bad orientation", func(o *Options) { o.Orientation = table.Orientation(7) }, errors.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mod(&opts)
			if err := opts.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    Options
	}{
		{"wide", wideCSV, wideOptions()},
		{"long", longCSV, DefaultOptions()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, data, err := ReadFile(writeInput(t, "in.csv", tt.content), tt.opts)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			wantMeta := table.MustNew("uid", []string{"1", "3", "2"},
				[]string{"main_id", "sub_id", "group"},
				[][]string{{"X", "1", "A"}, {"Y", "1", "A"}, {"X", "2", "B"}})
			wantData := table.MustNew("uid", []string{"1", "3", "2"},
				[]string{"data1", "data2"},
				[][]string{{"100", "101"}, {"120", ""}, {"110", "110"}})
			if !meta.Equal(wantMeta) {
				t.Errorf("meta = %+v, want %+v", meta, wantMeta)
			}
			if !data.Equal(wantData) {
				t.Errorf("data = %+v, want %+v", data, wantData)
			}
		})
	}
}

func TestReadFile_Errors(t *testing.T) {
	dupWide := "uid,a,b,c,d\n1,x,x,x,x\n1,y,y,y,y\n"
	tests := []struct {
		name    string
		content string
		opts    Options
		want    error
	}{
		{"duplicate identifier", dupWide, wideOptions(), errors.ErrDuplicateIdentifier},
		{"header only", "uid,a,b,c,d\n", wideOptions(), errors.ErrEmptyData},
		{"no data columns", "uid,a,b,c\n1,x,y,z\n", wideOptions(), errors.ErrNoDataColumns},
		{"ragged row", "uid,a,b,c,d\n1,x\n", wideOptions(), errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadFile(writeInput(t, "in.csv", tt.content), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadFile() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"), wideOptions()); err == nil {
		t.Error("ReadFile() of missing file expected error")
	}
}

func TestRoundTripFiles(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		opts    Options
	}{
		{"wide", "in.csv", wideCSV, wideOptions()},
		{"long", "in.csv", longCSV, DefaultOptions()},
		{"long xz", "in.csv.xz", longCSV, DefaultOptions()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, tt.file)
			src := writeInput(t, "src.csv", tt.content)
			if err := Convert(src, in, tt.opts.Orientation, tt.opts.Orientation, tt.opts); err != nil {
				t.Fatalf("Convert() error = %v", err)
			}

			meta, data, err := ReadFile(in, tt.opts)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			out := filepath.Join(dir, "out", tt.file)
			if err := WriteFile(out, meta, data, tt.opts); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			orig, err := Load(in, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Load(out, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if !orig.Equal(got) {
				t.Errorf("round trip changed table:\n got %+v\nwant %+v", got, orig)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	long := writeInput(t, "long.csv", longCSV)

	wide := filepath.Join(dir, "wide.csv")
	if err := Convert(long, wide, table.Long, table.Wide, DefaultOptions()); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	got, err := os.ReadFile(wide)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != wideCSV {
		t.Errorf("long -> wide =\n%s\nwant\n%s", got, wideCSV)
	}

	back := filepath.Join(dir, "back.csv")
	if err := Convert(wide, back, table.Wide, table.Long, DefaultOptions()); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	got, err = os.ReadFile(back)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != longCSV {
		t.Errorf("wide -> long =\n%s\nwant\n%s", got, longCSV)
	}
}

func TestSplitPaths(t *testing.T) {
	tests := []struct {
		name      string
		delimiter rune
		wantMeta  string
		wantData  string
	}{
		{"sample.csv", ',', "sample_meta.csv", "sample_data.csv"},
		{"sample.csv.xz", ',', "sample_meta.csv.xz", "sample_data.csv.xz"},
		{"sample", '\t', "sample_meta.tsv", "sample_data.tsv"},
		{"sample", ';', "sample_meta.txt", "sample_data.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Delimiter = tt.delimiter
			m, d := SplitPaths("out", tt.name, opts)
			if m != filepath.Join("out", tt.wantMeta) || d != filepath.Join("out", tt.wantData) {
				t.Errorf("SplitPaths() = (%q, %q)", m, d)
			}
		})
	}
}

func TestWriteSplitReadSplit(t *testing.T) {
	for _, count := range []int{0, 1, 3} {
		opts := wideOptions()
		opts.MetadataCount = count
		meta, data, err := ReadFile(writeInput(t, "in.csv", wideCSV), opts)
		if err != nil {
			t.Fatalf("m=%d ReadFile() error = %v", count, err)
		}

		dir := filepath.Join(t.TempDir(), "split")
		metaPath, dataPath, err := WriteSplit(dir, "sample.csv", meta, data, opts)
		if err != nil {
			t.Fatalf("m=%d WriteSplit() error = %v", count, err)
		}
		for _, p := range []string{metaPath, dataPath} {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("m=%d expected %s to exist: %v", count, p, err)
			}
		}

		gotMeta, gotData, err := ReadSplit(metaPath, dataPath, opts)
		if err != nil {
			t.Fatalf("m=%d ReadSplit() error = %v", count, err)
		}
		if !meta.Equal(gotMeta) || !data.Equal(gotData) {
			t.Errorf("m=%d split files changed the pair", count)
		}
	}
}

func TestWriteSplitReadSplit_EmptyIdentifier(t *testing.T) {
	opts := wideOptions()
	opts.MetadataCount = 0
	meta, data, err := ReadFile(writeInput(t, "in.csv", "uid,d1\n,1\nb,2\n"), opts)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	metaPath, dataPath, err := WriteSplit(t.TempDir(), "in.csv", meta, data, opts)
	if err != nil {
		t.Fatalf("WriteSplit() error = %v", err)
	}
	gotMeta, gotData, err := ReadSplit(metaPath, dataPath, opts)
	if err != nil {
		t.Fatalf("ReadSplit() error = %v", err)
	}
	if !meta.Equal(gotMeta) || !data.Equal(gotData) {
		t.Errorf("split files changed the pair:\n meta %+v\n data %+v", gotMeta, gotData)
	}
}

func TestReadSplit_Mismatch(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "m.csv")
	dataPath := filepath.Join(dir, "d.csv")
	os.WriteFile(metaPath, []byte("uid,a\n1,x\n2,y\n"), 0644)
	os.WriteFile(dataPath, []byte("uid,b\n1,x\n3,y\n"), 0644)

	opts := DefaultOptions()
	opts.MetadataCount = 1
	_, _, err := ReadSplit(metaPath, dataPath, opts)
	var mm *errors.IdentifierMismatchError
	if !errors.As(err, &mm) {
		t.Fatalf("ReadSplit() error = %v, want IdentifierMismatchError", err)
	}
	if len(mm.MissingFromData) != 1 || mm.MissingFromData[0] != "2" {
		t.Errorf("MissingFromData = %v", mm.MissingFromData)
	}
}

func TestVerify(t *testing.T) {
	report, err := Verify(writeInput(t, "in.csv", longCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !report.Lossless {
		t.Errorf("Verify() not lossless: %+v", report)
	}
	if report.SourceHashes != report.RebuiltHashes {
		t.Error("digests differ for lossless report")
	}
	if report.SourceHashes.SHA256 == "" || report.SourceHashes.BLAKE3 == "" {
		t.Errorf("source hashes incomplete: %+v", report.SourceHashes)
	}
	if report.Metadata != (Shape{Rows: 3, Columns: 3}) || report.Data != (Shape{Rows: 3, Columns: 2}) {
		t.Errorf("shapes = %+v / %+v", report.Metadata, report.Data)
	}
	if report.Source != (Shape{Rows: 5, Columns: 3}) {
		t.Errorf("source shape = %+v", report.Source)
	}
	if report.FileHashes.SHA256 == "" || report.FileHashes.BLAKE3 == "" {
		t.Error("file hashes missing")
	}
}

func TestVerify_SplitError(t *testing.T) {
	_, err := Verify(writeInput(t, "in.csv", "uid,1,1\na,x,y\nb,x,y\nc,x,y\nd,x,y\n"), DefaultOptions())
	if !errors.Is(err, errors.ErrDuplicateIdentifier) {
		t.Errorf("Verify() error = %v, want ErrDuplicateIdentifier", err)
	}
}
