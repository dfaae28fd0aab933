package export

import (
	"context"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/compression"
	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/observability"
)

// Options controls Write
type Options struct {
	// Format is the output format; empty picks it from the path extension
	Format Format
	// Codec is the internal compression of parquet and avro output
	Codec     string
	BatchSize int
	Logger    *zap.Logger
}

// OptionsFromConfig builds Options from the export section of the
// configuration
func OptionsFromConfig(cfg config.ExportConfig, log *zap.Logger) (Options, error) {
	opts := Options{Codec: cfg.ParquetCompression, Logger: log}
	if cfg.Format != "" {
		f, err := ParseFormat(cfg.Format)
		if err != nil {
			return Options{}, err
		}
		opts.Format = f
	}
	return opts, nil
}

// Result describes a written file
type Result struct {
	Path   string
	Format Format
	Rows   int64
	Bytes  int64
}

// Write writes f to path. The parent directory must exist. The file is
// written under a temporary name and renamed into place, so a failed
// export leaves no partial output.
func Write(ctx context.Context, f columnar.Frame, path string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	format := opts.Format
	if format == "" {
		detected, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	alg := compression.FromExtension(path)
	if alg != compression.None && !format.IsText() {
		return nil, errors.New(errors.ErrorTypeValidation, "compression suffix applies to text formats only").
			WithDetail("path", path).
			WithDetail("format", string(format))
	}

	dir := filepath.Dir(path)
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return nil, errors.New(errors.ErrorTypeNotFound, "output directory does not exist").
			WithDetail("path", path).
			WithDetail("dir", dir)
	}

	result := &Result{Path: path, Format: format}
	err = observability.Trace(ctx, "sttools.export", func(ctx context.Context, span *observability.Span) error {
		if err := writeFile(ctx, f, path, format, alg, opts, result); err != nil {
			return err
		}
		span.SetAttribute("rows", result.Rows)
		span.SetAttribute("bytes", result.Bytes)
		return nil
	}, attribute.String("file", path), attribute.String("format", string(format)))
	if err != nil {
		return nil, err
	}

	log.Info("table exported",
		zap.String("source", f.Source()),
		zap.String("file", path),
		zap.String("format", string(format)),
		zap.Int64("rows", result.Rows),
		zap.Int64("bytes", result.Bytes))
	return result, nil
}

func writeFile(ctx context.Context, f columnar.Frame, path string, format Format, alg compression.Algorithm, opts Options, result *Result) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	out, err := compression.NewWriter(tmp, alg, compression.Default)
	if err != nil {
		return err
	}

	w, err := NewWriter(out, f.Columns(), f.Metadata(), &WriterConfig{
		Format:    format,
		Codec:     opts.Codec,
		BatchSize: opts.BatchSize,
	})
	if err != nil {
		return err
	}
	if err = w.WriteFrame(ctx, f); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush compressed output").
			WithDetail("path", path)
	}

	st, err := tmp.Stat()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to stat output file").
			WithDetail("path", path)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output file").
			WithDetail("path", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to move output into place").
			WithDetail("path", path)
	}

	result.Rows = w.RowsWritten()
	result.Bytes = st.Size()
	return nil
}
