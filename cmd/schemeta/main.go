// Command schemeta splits delimited tables into metadata and data tables
// keyed by record identifier, and combines them back.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/schemeta/core/errors"
	"github.com/FocuswithJustin/schemeta/core/parquet"
	"github.com/FocuswithJustin/schemeta/core/schemeta"
	"github.com/FocuswithJustin/schemeta/core/sqlite"
	"github.com/FocuswithJustin/schemeta/core/table"
	"github.com/FocuswithJustin/schemeta/internal/archive"
	"github.com/FocuswithJustin/schemeta/internal/logging"
	"github.com/FocuswithJustin/schemeta/internal/validation"
)

var version = "0.1.0"

// configFile is read from the working directory when present.
const configFile = ".schemeta.json"

// CLI defines the command-line interface for schemeta.
type CLI struct {
	// Global flags
	LogLevel  string           `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error" env:"SCHEMETA_LOG_LEVEL"`
	LogFormat string           `name:"log-format" help:"Log format (text, json)" default:"text" enum:"text,json" env:"SCHEMETA_LOG_FORMAT"`
	Config    kong.ConfigFlag  `help:"JSON configuration file"`
	Version   kong.VersionFlag `help:"Print version and exit"`

	Split     SplitCmd     `cmd:"" help:"Split a table into metadata and data"`
	Combine   CombineCmd   `cmd:"" help:"Combine metadata and data into one table"`
	Convert   ConvertCmd   `cmd:"" help:"Rewrite a table in the other orientation"`
	Roundtrip RoundtripCmd `cmd:"" help:"Split a table and write it back in the same layout"`
	Check     CheckCmd     `cmd:"" help:"Check that a metadata/data pair can be combined"`
	Verify    VerifyCmd    `cmd:"" help:"Split and recombine a table in memory and compare digests"`
	Info      VersionCmd   `cmd:"" name:"version" help:"Print version information"`
}

// TableFlags describe the layout of delimited files.
type TableFlags struct {
	Wide          bool   `help:"Records are rows (default: records are columns)" env:"SCHEMETA_WIDE"`
	Delimiter     string `short:"d" help:"Cell delimiter (a single character, or 'tab')" default:"," env:"SCHEMETA_DELIMITER"`
	Encoding      string `short:"e" help:"Text encoding" default:"utf-8" env:"SCHEMETA_ENCODING"`
	MetadataCount int    `short:"m" name:"metadata-count" help:"Number of leading metadata fields" default:"3" env:"SCHEMETA_METADATA_COUNT"`
}

// Options converts the flags into pipeline options.
func (f TableFlags) Options() (schemeta.Options, error) {
	d, err := parseDelimiter(f.Delimiter)
	if err != nil {
		return schemeta.Options{}, err
	}
	opts := schemeta.Options{
		Orientation:   f.orientation(),
		MetadataCount: f.MetadataCount,
		Delimiter:     d,
		Encoding:      f.Encoding,
	}
	if err := opts.Validate(); err != nil {
		return schemeta.Options{}, err
	}
	return opts, nil
}

func (f TableFlags) orientation() table.Orientation {
	if f.Wide {
		return table.Wide
	}
	return table.Long
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.NewValidation("delimiter", fmt.Sprintf("%q must be a single character", s))
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// App carries per-invocation state into command Run methods.
type App struct {
	Ctx context.Context
	Out io.Writer
}

// SplitCmd splits a raw table.
type SplitCmd struct {
	TableFlags `embed:""`

	Input  string `short:"i" required:"" help:"Input table" type:"existingfile"`
	Output string `short:"o" required:"" help:"Output directory" type:"path"`
	Format string `help:"Output format (csv, sqlite, parquet)" default:"csv" enum:"csv,sqlite,parquet"`
}

func (c *SplitCmd) Run(app *App) error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if err := validatePaths(c.Input, c.Output); err != nil {
		return err
	}
	meta, data, err := loadAndSplit(app.Ctx, c.Input, opts)
	if err != nil {
		return err
	}

	stem, _, _ := archive.SplitExt(c.Input)
	if stem, err = validation.SanitizeFilename(stem); err != nil {
		return fmt.Errorf("output name for %s: %w", c.Input, err)
	}
	switch c.Format {
	case "sqlite":
		path := filepath.Join(c.Output, stem+".db")
		if err := os.MkdirAll(c.Output, 0755); err != nil {
			return errors.NewIO("create directory", c.Output, err)
		}
		if err := sqlite.Export(app.Ctx, path, meta, data); err != nil {
			return err
		}
		logWritten(app.Ctx, path, "sqlite")
		fmt.Fprintf(app.Out, "%s\n", path)
	case "parquet":
		if err := os.MkdirAll(c.Output, 0755); err != nil {
			return errors.NewIO("create directory", c.Output, err)
		}
		metaPath := filepath.Join(c.Output, stem+schemeta.MetaSuffix+parquet.Ext)
		dataPath := filepath.Join(c.Output, stem+schemeta.DataSuffix+parquet.Ext)
		if err := parquet.Export(metaPath, meta); err != nil {
			return err
		}
		if err := parquet.Export(dataPath, data); err != nil {
			return err
		}
		logWritten(app.Ctx, metaPath, "parquet", "role", "metadata")
		logWritten(app.Ctx, dataPath, "parquet", "role", "data")
		fmt.Fprintf(app.Out, "%s\n%s\n", metaPath, dataPath)
	default:
		metaPath, dataPath, err := schemeta.WriteSplit(c.Output, filepath.Base(c.Input), meta, data, opts)
		if err != nil {
			return err
		}
		logWritten(app.Ctx, metaPath, "csv", "role", "metadata")
		logWritten(app.Ctx, dataPath, "csv", "role", "data")
		fmt.Fprintf(app.Out, "%s\n%s\n", metaPath, dataPath)
	}
	return nil
}

// CombineCmd combines a split pair. The pair may be two delimited files,
// two Parquet files, or one SQLite database given as --meta.
type CombineCmd struct {
	TableFlags `embed:""`

	Meta   string `required:"" help:"Metadata table (delimited, .parquet or .db)" type:"existingfile"`
	Data   string `help:"Data table (not needed for .db)" type:"existingfile"`
	Output string `short:"o" required:"" help:"Output table" type:"path"`
}

func (c *CombineCmd) Run(app *App) error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if err := validatePaths(c.Meta, c.Data, c.Output); err != nil {
		return err
	}
	meta, data, err := readPair(app.Ctx, c.Meta, c.Data, opts)
	if err != nil {
		return err
	}
	if err := schemeta.WriteFile(c.Output, meta, data, opts); err != nil {
		return err
	}
	logWritten(app.Ctx, c.Output, "csv")
	return nil
}

// ConvertCmd rewrites a table in another orientation. The input layout is
// given by --wide.
type ConvertCmd struct {
	TableFlags `embed:""`

	Input  string `short:"i" required:"" help:"Input table" type:"existingfile"`
	Output string `short:"o" required:"" help:"Output table" type:"path"`
	To     string `required:"" help:"Output orientation (wide, long)" enum:"wide,long"`
}

func (c *ConvertCmd) Run(app *App) error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if err := validatePaths(c.Input, c.Output); err != nil {
		return err
	}
	to, err := table.ParseOrientation(c.To)
	if err != nil {
		return err
	}
	if err := schemeta.Convert(c.Input, c.Output, opts.Orientation, to, opts); err != nil {
		return err
	}
	logging.InfoContext(app.Ctx, "table_converted",
		"input", c.Input,
		"from", opts.Orientation.String(),
		"to", to.String(),
	)
	logWritten(app.Ctx, c.Output, "csv", "orientation", to.String())
	return nil
}

// RoundtripCmd reads, splits, combines and writes a table.
type RoundtripCmd struct {
	TableFlags `embed:""`

	Input  string `short:"i" required:"" help:"Input table" type:"existingfile"`
	Output string `short:"o" required:"" help:"Output table" type:"path"`
}

func (c *RoundtripCmd) Run(app *App) error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if err := validatePaths(c.Input, c.Output); err != nil {
		return err
	}
	meta, data, err := loadAndSplit(app.Ctx, c.Input, opts)
	if err != nil {
		return err
	}
	if err := schemeta.WriteFile(c.Output, meta, data, opts); err != nil {
		return err
	}
	logWritten(app.Ctx, c.Output, "csv")
	return nil
}

// CheckCmd validates a split pair without writing anything.
type CheckCmd struct {
	TableFlags `embed:""`

	Meta string `required:"" help:"Metadata table (delimited, .parquet or .db)" type:"existingfile"`
	Data string `help:"Data table (not needed for .db)" type:"existingfile"`
}

func (c *CheckCmd) Run(app *App) error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if err := validatePaths(c.Meta, c.Data); err != nil {
		return err
	}
	meta, data, err := readPair(app.Ctx, c.Meta, c.Data, opts)
	if err != nil {
		return err
	}
	rows, metaCols := meta.Shape()
	_, dataCols := data.Shape()
	fmt.Fprintf(app.Out, "[OK] %d record(s), %d metadata field(s), %d data field(s)\n", rows, metaCols, dataCols)
	return nil
}

// VerifyCmd reports whether a table survives a split and combine.
type VerifyCmd struct {
	TableFlags `embed:""`

	Input string `short:"i" required:"" help:"Input table" type:"existingfile"`
	JSON  bool   `name:"json" help:"Print the report as JSON"`
}

func (c *VerifyCmd) Run(app *App) error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if err := validatePaths(c.Input); err != nil {
		return err
	}
	report, err := schemeta.Verify(c.Input, opts)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(app.Out, "File: %s\n", report.Path)
		fmt.Fprintf(app.Out, "  Orientation: %s (%d metadata field(s))\n", report.Orientation, report.MetadataCount)
		fmt.Fprintf(app.Out, "  Source:   %d x %d\n", report.Source.Rows, report.Source.Columns)
		fmt.Fprintf(app.Out, "  Metadata: %d x %d\n", report.Metadata.Rows, report.Metadata.Columns)
		fmt.Fprintf(app.Out, "  Data:     %d x %d\n", report.Data.Rows, report.Data.Columns)
		fmt.Fprintf(app.Out, "  SHA-256:  %s\n", report.FileHashes.SHA256)
		fmt.Fprintf(app.Out, "  BLAKE3:   %s\n", report.FileHashes.BLAKE3)
		if report.Lossless {
			fmt.Fprintf(app.Out, "  [OK] rebuilt table matches source (%s)\n", report.RebuiltHashes.BLAKE3)
		} else {
			fmt.Fprintf(app.Out, "  [FAIL] rebuilt table differs: %s != %s\n", report.RebuiltHashes.BLAKE3, report.SourceHashes.BLAKE3)
		}
	}

	if !report.Lossless {
		logging.WarnContext(app.Ctx, "verify_mismatch",
			"path", c.Input,
			"source_blake3", report.SourceHashes.BLAKE3,
			"rebuilt_blake3", report.RebuiltHashes.BLAKE3,
		)
		return fmt.Errorf("%s: split and combine did not reproduce the table", c.Input)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(app.Out, "schemeta %s\n", version)
	fmt.Fprintf(app.Out, "  SQLite driver: %s (%s)\n", info.Package, info.DriverType)
	return nil
}

// loadAndSplit loads a raw table and splits it, logging both steps.
func loadAndSplit(ctx context.Context, path string, opts schemeta.Options) (table.Table, table.Table, error) {
	t, err := schemeta.Load(path, opts)
	if err != nil {
		return table.Table{}, table.Table{}, err
	}
	rows, cols := t.Shape()
	logging.TableLoaded(ctx, path, rows, cols)

	meta, data, err := table.Split(t, opts.Orientation, opts.MetadataCount)
	if err != nil {
		return table.Table{}, table.Table{}, errors.Wrapf(err, "split %s", path)
	}
	records, metaFields := meta.Shape()
	_, dataFields := data.Shape()
	logging.TableSplit(ctx, opts.Orientation.String(), opts.MetadataCount, records, metaFields, dataFields)
	return meta, data, nil
}

// readPair loads a split pair from delimited files, Parquet files or a
// SQLite database, chosen by the content of metaPath.
func readPair(ctx context.Context, metaPath, dataPath string, opts schemeta.Options) (table.Table, table.Table, error) {
	kind, err := detectFileType(metaPath)
	if err != nil {
		return table.Table{}, table.Table{}, err
	}
	if kind != validation.FileTypeSQLite && dataPath == "" {
		return table.Table{}, table.Table{}, errors.NewValidation("data", "a data table is required")
	}

	var meta, data table.Table
	switch kind {
	case validation.FileTypeSQLite:
		meta, data, err = sqlite.Import(ctx, metaPath)
		if err != nil {
			return table.Table{}, table.Table{}, err
		}
	case validation.FileTypeParquet:
		if meta, err = parquet.ReadTable(ctx, metaPath); err != nil {
			return table.Table{}, table.Table{}, err
		}
		if data, err = parquet.ReadTable(ctx, dataPath); err != nil {
			return table.Table{}, table.Table{}, err
		}
	case validation.FileTypeUnknown:
		return table.Table{}, table.Table{}, errors.NewUnsupported("table file", metaPath)
	default:
		if meta, data, err = schemeta.ReadSplit(metaPath, dataPath, opts); err != nil {
			return table.Table{}, table.Table{}, err
		}
	}

	if kind == validation.FileTypeSQLite || kind == validation.FileTypeParquet {
		if err := table.CheckPair(meta, data, opts.MetadataCount); err != nil {
			return table.Table{}, table.Table{}, err
		}
	}

	records, metaFields := meta.Shape()
	_, dataFields := data.Shape()
	logging.TableLoaded(ctx, metaPath, records, metaFields, "role", "metadata", "kind", string(kind))
	if dataPath != "" && kind != validation.FileTypeSQLite {
		logging.TableLoaded(ctx, dataPath, records, dataFields, "role", "data", "kind", string(kind))
	}
	logging.InfoContext(ctx, "pair_loaded",
		"records", records,
		"metadata_fields", metaFields,
		"data_fields", dataFields,
	)
	return meta, data, nil
}

func detectFileType(path string) (validation.FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return validation.FileTypeUnknown, errors.NewIO("open", path, err)
	}
	defer f.Close()
	kind, err := validation.DetectFileType(f, path)
	if err != nil {
		return validation.FileTypeUnknown, errors.Wrap(err, path)
	}
	return kind, nil
}

// validatePaths checks every non-empty path argument.
func validatePaths(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := validation.ValidatePath(p); err != nil {
			return fmt.Errorf("invalid path %q: %w", p, err)
		}
	}
	return nil
}

func logWritten(ctx context.Context, path, format string, args ...any) {
	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}
	logging.TableWritten(ctx, path, format, size, args...)
}

// configPaths returns the configuration files kong should try by default.
func configPaths() []string {
	if _, err := os.Stat(configFile); err == nil {
		return []string{configFile}
	}
	return nil
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string, stdout, stderr io.Writer, options ...kong.Option) int {
	var cli CLI
	options = append([]kong.Option{
		kong.Name("schemeta"),
		kong.Description("Split tables into metadata and data keyed by record identifier"),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version},
		kong.Configuration(kong.JSON, configPaths()...),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)

	parser, err := kong.New(&cli, options...)
	if err != nil {
		fmt.Fprintf(stderr, "schemeta: %v\n", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "schemeta: %v\n", err)
		return 1
	}

	level, _ := logging.ParseLevel(cli.LogLevel)
	format, _ := logging.ParseFormat(cli.LogFormat)
	logging.SetOutput(stderr)
	logging.InitLogger(level, format)

	runID := logging.NewRunID()
	ctx := logging.WithRunID(context.Background(), runID)
	logging.DebugContext(ctx, "command_started", "command", kctx.Command())

	app := &App{Ctx: ctx, Out: stdout}
	if err := kctx.Run(app); err != nil {
		logging.CommandFailed(ctx, kctx.Command(), err)
		fmt.Fprintf(stderr, "schemeta: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
