package config

import (
	"runtime"
	"strings"
	"unicode"

	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/logger"
)

// Attribute types accepted in HDF5Config.Attributes
const (
	AttrInt    = "int"
	AttrFloat  = "float"
	AttrString = "string"
)

// Config is the top-level configuration of sttools
type Config struct {
	// Logging configures the process-wide logger used by the CLI
	Logging logger.Config `yaml:"logging" json:"logging"`

	// Dump configures the columnar dump loader
	Dump LoaderConfig `yaml:"dump" json:"dump"`

	// TFS configures the TFS table loader
	TFS LoaderConfig `yaml:"tfs" json:"tfs"`

	// HDF5 configures the HDF5 dataset adapter
	HDF5 HDF5Config `yaml:"hdf5" json:"hdf5"`

	Export  ExportConfig  `yaml:"export" json:"export"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
	Scan    ScanConfig    `yaml:"scan" json:"scan"`
}

// LoaderConfig controls a text adapter
type LoaderConfig struct {
	// IndexColumns lists columns to index in addition to the integer
	// columns found by type inference
	IndexColumns []string `yaml:"index_columns" json:"index_columns"`
	// LenientRowLength drops rows with a wrong token count instead of
	// failing the load
	LenientRowLength bool `yaml:"lenient_row_length" json:"lenient_row_length"`
	// CommentMarkers is the set of leading characters marking comment and
	// header lines
	CommentMarkers string `yaml:"comment_markers" json:"comment_markers"`
}

// HDF5Config controls the HDF5 adapter
type HDF5Config struct {
	// Attributes maps dataset attribute names to int, float or string.
	// Attributes missing from a dataset are skipped.
	Attributes map[string]string `yaml:"attributes" json:"attributes"`
}

// ExportConfig controls re-export of loaded tables
type ExportConfig struct {
	// Format is one of dump, csv, json, arrow, parquet, avro. Empty means
	// the format is chosen from the output file extension.
	Format string `yaml:"format" json:"format"`
	// ParquetCompression is one of none, snappy, gzip, zstd, lz4
	ParquetCompression string `yaml:"parquet_compression" json:"parquet_compression"`
	// UploadURL is an optional s3://, gs:// or file:// destination
	UploadURL string `yaml:"upload_url" json:"upload_url"`
}

// MetricsConfig controls load metrics
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// TextfilePath receives the metrics in Prometheus text format on exit
	TextfilePath string `yaml:"textfile_path" json:"textfile_path"`
}

// TracingConfig controls OpenTelemetry tracing
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	ServiceName string `yaml:"service_name" json:"service_name"`
	// Output is stdout or stderr
	Output string `yaml:"output" json:"output"`
}

// ScanConfig controls simulation ensemble loading
type ScanConfig struct {
	// Workers bounds concurrent loads; 0 means one per CPU
	Workers int `yaml:"workers" json:"workers"`
	// LoadOnly restricts scanning to the named simulation folders
	LoadOnly []string `yaml:"load_only" json:"load_only"`
	// ForceAccept accepts folders without fort.2 and fort.3
	ForceAccept bool `yaml:"force_accept" json:"force_accept"`
}

// DefaultDumpConfig returns the dump loader defaults: lenient row length and
// the #, % and ! comment markers.
func DefaultDumpConfig() LoaderConfig {
	return LoaderConfig{
		LenientRowLength: true,
		CommentMarkers:   "#%!",
	}
}

// DefaultTFSConfig returns the TFS loader defaults: strict row length and
// # comments.
func DefaultTFSConfig() LoaderConfig {
	return LoaderConfig{
		LenientRowLength: false,
		CommentMarkers:   "#",
	}
}

// DefaultHDF5Config returns the attribute set written by the SixTrack
// HDF5 importer.
func DefaultHDF5Config() HDF5Config {
	return HDF5Config{
		Attributes: map[string]string{
			"S":        AttrFloat,
			"KTRACK":   AttrInt,
			"NPART":    AttrInt,
			"UNITS_S":  AttrString,
			"UNITS_X":  AttrString,
			"UNITS_XP": AttrString,
			"UNITS_Y":  AttrString,
			"UNITS_YP": AttrString,
			"UNITS_Z":  AttrString,
		},
	}
}

// Default returns a configuration with every section at its default
func Default() *Config {
	return &Config{
		Logging: logger.DefaultConfig(),
		Dump:    DefaultDumpConfig(),
		TFS:     DefaultTFSConfig(),
		HDF5:    DefaultHDF5Config(),
		Export: ExportConfig{
			ParquetCompression: "snappy",
		},
		Tracing: TracingConfig{
			ServiceName: "sttools",
			Output:      "stderr",
		},
		Scan: ScanConfig{
			Workers: runtime.NumCPU(),
		},
	}
}

var exportFormats = map[string]bool{
	"": true, "dump": true, "csv": true, "json": true, "arrow": true, "parquet": true, "avro": true,
}

var parquetCodecs = map[string]bool{
	"": true, "none": true, "snappy": true, "gzip": true, "zstd": true, "lz4": true,
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if err := c.Dump.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid dump section")
	}
	if err := c.TFS.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid tfs section")
	}
	if err := c.HDF5.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid hdf5 section")
	}
	if !exportFormats[strings.ToLower(c.Export.Format)] {
		return errors.New(errors.ErrorTypeConfig, "unknown export format").
			WithDetail("format", c.Export.Format)
	}
	if !parquetCodecs[strings.ToLower(c.Export.ParquetCompression)] {
		return errors.New(errors.ErrorTypeConfig, "unknown parquet compression").
			WithDetail("codec", c.Export.ParquetCompression)
	}
	switch c.Tracing.Output {
	case "", "stdout", "stderr":
	default:
		return errors.New(errors.ErrorTypeConfig, "tracing output must be stdout or stderr").
			WithDetail("output", c.Tracing.Output)
	}
	if c.Scan.Workers < 0 {
		return errors.New(errors.ErrorTypeConfig, "scan workers must be non-negative").
			WithDetail("workers", c.Scan.Workers)
	}
	return nil
}

// Validate checks that the comment markers are usable line prefixes
func (l LoaderConfig) Validate() error {
	if l.CommentMarkers == "" {
		return errors.New(errors.ErrorTypeConfig, "comment markers must not be empty")
	}
	for _, r := range l.CommentMarkers {
		if r > unicode.MaxASCII || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return errors.New(errors.ErrorTypeConfig, "comment marker must be an ASCII symbol").
				WithDetail("marker", string(r))
		}
	}
	for _, name := range l.IndexColumns {
		if strings.TrimSpace(name) == "" {
			return errors.New(errors.ErrorTypeConfig, "index column name must not be empty")
		}
	}
	return nil
}

// IsComment reports whether line starts with one of the comment markers
func (l LoaderConfig) IsComment(line string) bool {
	return len(line) > 0 && strings.IndexByte(l.CommentMarkers, line[0]) >= 0
}

// Validate checks that every attribute has a known type
func (h HDF5Config) Validate() error {
	for name, typ := range h.Attributes {
		switch typ {
		case AttrInt, AttrFloat, AttrString:
		default:
			return errors.New(errors.ErrorTypeConfig, "unknown attribute type").
				WithDetail("attribute", name).
				WithDetail("type", typ)
		}
	}
	return nil
}
