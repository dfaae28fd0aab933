// Package formats detects the format of an input file and dispatches the
// load to the matching adapter.
package formats

import (
	"context"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/compression"
	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/formats/dump"
	"github.com/ajitpratap0/sttools/pkg/formats/hdf5"
	"github.com/ajitpratap0/sttools/pkg/formats/lines"
	"github.com/ajitpratap0/sttools/pkg/formats/tfs"
	"github.com/ajitpratap0/sttools/pkg/metrics"
	"github.com/ajitpratap0/sttools/pkg/observability"
)

// Format identifies an input file format
type Format string

const (
	// FormatAuto asks Load to detect the format
	FormatAuto Format = ""
	FormatDump Format = "dump"
	FormatTFS  Format = "tfs"
	FormatHDF5 Format = "hdf5"
)

// ParseFormat maps a format name to a Format. An empty name is FormatAuto.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatAuto, FormatDump, FormatTFS, FormatHDF5:
		return f, nil
	}
	return FormatAuto, errors.New(errors.ErrorTypeValidation, "unknown input format").
		WithDetail("format", name)
}

// Detect guesses the format of path: by extension first, ignoring a
// compression suffix, and otherwise from the first non-blank line. TFS
// files open with @ or * lines; anything else is read as a dump.
func Detect(ctx context.Context, path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(compression.TrimExtension(path))) {
	case ".tfs":
		return FormatTFS, nil
	case ".h5", ".hdf5":
		return FormatHDF5, nil
	}

	r, err := lines.Open(ctx, path)
	if err != nil {
		return FormatAuto, err
	}
	defer r.Close()

	for r.Next() {
		line := strings.TrimSpace(r.Line())
		if line == "" {
			continue
		}
		if line[0] == '@' || line[0] == '*' {
			return FormatTFS, nil
		}
		return FormatDump, nil
	}
	if err := r.Err(); err != nil {
		return FormatAuto, err
	}
	return FormatAuto, errors.New(errors.ErrorTypeFormat, "cannot detect the format of an empty file").
		WithDetail("file", path)
}

// Options controls a dispatched load
type Options struct {
	// Format forces an adapter; FormatAuto detects it
	Format Format
	// Config supplies the per-adapter settings; nil means config.Default()
	Config *config.Config
	// Dataset names the HDF5 dataset to read
	Dataset string
	// Metrics receives load statistics; nil disables them
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Load reads path with the adapter for its format. Each load runs in its
// own span and is recorded in opts.Metrics.
func Load(ctx context.Context, path string, opts Options) (*columnar.Table, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	format := opts.Format
	if format == FormatAuto {
		detected, err := Detect(ctx, path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	timer := metrics.NewTimer()
	var table *columnar.Table
	err := observability.Trace(ctx, "sttools.load", func(ctx context.Context, span *observability.Span) error {
		var err error
		switch format {
		case FormatDump:
			table, err = dump.Load(ctx, path, cfg.Dump, log)
		case FormatTFS:
			var t *tfs.Table
			t, err = tfs.Load(ctx, path, cfg.TFS, log)
			if err == nil {
				table = t.Table
			}
		case FormatHDF5:
			table, err = hdf5.Load(ctx, path, opts.Dataset, cfg.HDF5, log)
		default:
			err = errors.New(errors.ErrorTypeValidation, "unknown input format").
				WithDetail("format", string(format))
		}
		if err == nil {
			span.SetAttribute("rows", table.Rows())
			span.SetAttribute("skipped", table.Skipped())
		}
		return err
	}, attribute.String("file", path), attribute.String("format", string(format)))

	rows, skipped := 0, 0
	if table != nil {
		rows, skipped = table.Rows(), table.Skipped()
	}
	opts.Metrics.FileLoaded(string(format), rows, skipped, timer.Stop(), err)
	if err != nil {
		log.Debug("load failed", zap.String("file", path), zap.String("format", string(format)), zap.Error(err))
		return nil, err
	}
	return table, nil
}

// Filter filters table and records the outcome in collector
func Filter(table *columnar.Table, column string, value interface{}, collector *metrics.Collector) (*columnar.FilteredView, error) {
	view, err := table.Filter(column, value)
	collector.FilterApplied(err)
	return view, err
}
