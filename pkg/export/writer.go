// Package export writes loaded tables and filtered views to files.
//
// Text formats (dump, csv, json lines) are compressed when the output path
// carries a compression extension such as .gz or .zst. Binary formats
// (arrow, parquet, avro) use their own codecs instead. A dump written here
// reloads with the same columns, types, values and metadata; frames the
// dump format cannot represent are rejected before anything is renamed
// into place.
package export

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/compression"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// Format is an output file format
type Format string

const (
	Dump    Format = "dump"
	CSV     Format = "csv"
	JSON    Format = "json"
	Arrow   Format = "arrow"
	Parquet Format = "parquet"
	Avro    Format = "avro"
)

// IsText reports whether the format is line oriented text
func (f Format) IsText() bool {
	return f == Dump || f == CSV || f == JSON
}

// ParseFormat maps a format name to a Format
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case Dump, CSV, JSON, Arrow, Parquet, Avro:
		return f, nil
	}
	return "", errors.New(errors.ErrorTypeValidation, "unknown export format").
		WithDetail("format", name)
}

var extensions = map[string]Format{
	".dat":     Dump,
	".dump":    Dump,
	".txt":     Dump,
	".csv":     CSV,
	".json":    JSON,
	".jsonl":   JSON,
	".ndjson":  JSON,
	".arrow":   Arrow,
	".ipc":     Arrow,
	".feather": Arrow,
	".parquet": Parquet,
	".avro":    Avro,
}

// FormatFromPath picks the format from the output extension, ignoring a
// compression suffix
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(compression.TrimExtension(path)))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrorTypeValidation, "cannot infer export format from extension").
		WithDetail("path", path)
}

// Writer writes frames in one output format
type Writer interface {
	// WriteFrame writes every row of f. The frame must have the columns
	// the writer was created with.
	WriteFrame(ctx context.Context, f columnar.Frame) error
	// Close flushes buffered data and writes any trailer. It does not
	// close the underlying io.Writer.
	Close() error
	Format() Format
	RowsWritten() int64
}

// WriterConfig configures format writers
type WriterConfig struct {
	Format Format
	// Codec is the internal compression of parquet and avro files:
	// none, snappy, gzip, zstd or lz4
	Codec string
	// BatchSize is the number of rows per arrow/parquet record batch and
	// per avro append
	BatchSize int
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Format:    Dump,
		Codec:     "snappy",
		BatchSize: 64 * 1024,
	}
}

// NewWriter creates a writer for frames with the given columns and
// metadata
func NewWriter(w io.Writer, columns []schema.Column, meta schema.Metadata, cfg *WriterConfig) (Writer, error) {
	if cfg == nil {
		cfg = DefaultWriterConfig()
	}
	if cfg.BatchSize <= 0 {
		c := *cfg
		c.BatchSize = DefaultWriterConfig().BatchSize
		cfg = &c
	}
	if len(columns) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "nothing to export: frame has no columns")
	}

	// binary writers may close what they are handed
	w = struct{ io.Writer }{w}

	switch cfg.Format {
	case Dump:
		return newDumpWriter(w, columns, meta)
	case CSV:
		return newCSVWriter(w, columns)
	case JSON:
		return newJSONWriter(w, columns)
	case Arrow:
		return newArrowWriter(w, columns, meta, cfg)
	case Parquet:
		return newParquetWriter(w, columns, meta, cfg)
	case Avro:
		return newAvroWriter(w, columns, meta, cfg)
	default:
		return nil, errors.New(errors.ErrorTypeValidation, "unknown export format").
			WithDetail("format", string(cfg.Format))
	}
}

// checkColumns verifies that f has the columns a writer was created for
func checkColumns(want []schema.Column, f columnar.Frame) error {
	got := f.Columns()
	if len(got) != len(want) {
		return errors.New(errors.ErrorTypeValidation, "frame columns differ from writer columns").
			WithDetail("expected", len(want)).
			WithDetail("got", len(got))
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Type != want[i].Type {
			return errors.New(errors.ErrorTypeValidation, "frame columns differ from writer columns").
				WithDetail("column", got[i].Name).
				WithDetail("position", i)
		}
	}
	return nil
}

// values holds a frame's column data as typed slices
type values struct {
	ints    [][]int64
	floats  [][]float64
	strings [][]string
}

func columnValues(f columnar.Frame) values {
	n := len(f.Columns())
	v := values{
		ints:    make([][]int64, n),
		floats:  make([][]float64, n),
		strings: make([][]string, n),
	}
	for i := 0; i < n; i++ {
		switch c := f.ColumnAt(i).(type) {
		case *columnar.IntColumn:
			v.ints[i] = c.Values()
		case *columnar.FloatColumn:
			v.floats[i] = c.Values()
		case *columnar.StringColumn:
			v.strings[i] = c.Values()
		}
	}
	return v
}
