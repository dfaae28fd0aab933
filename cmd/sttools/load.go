package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/export"
	"github.com/ajitpratap0/sttools/pkg/formats"
	"github.com/ajitpratap0/sttools/pkg/sink"
)

// addInputFlags registers the flags selecting how an input file is read
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input-format", "", "Input format (dump, tfs, hdf5); detected when empty")
	cmd.Flags().String("dataset", "", "HDF5 dataset to read; required when the file holds several")
}

// inputFormat resolves the input format of path from --input-format or by
// detection
func (a *app) inputFormat(ctx context.Context, path string) (formats.Format, error) {
	f, err := formats.ParseFormat(a.v.GetString("input-format"))
	if err != nil {
		return f, err
	}
	if f == formats.FormatAuto {
		return formats.Detect(ctx, path)
	}
	return f, nil
}

// load reads path with the configured adapter
func (a *app) load(ctx context.Context, path string) (*columnar.Table, formats.Format, error) {
	format, err := a.inputFormat(ctx, path)
	if err != nil {
		return nil, format, err
	}
	table, err := formats.Load(ctx, path, formats.Options{
		Format:  format,
		Config:  a.cfg,
		Dataset: a.v.GetString("dataset"),
		Metrics: a.metrics,
		Logger:  a.log,
	})
	if err != nil {
		return nil, format, err
	}
	a.log.Info("file loaded",
		zap.String("file", path),
		zap.String("format", string(format)),
		zap.Int("rows", table.Rows()),
		zap.Int("skipped", table.Skipped()))
	return table, format, nil
}

// exportOptions merges the export section of the configuration with the
// --format and --codec flags
func (a *app) exportOptions() (export.Options, error) {
	opts, err := export.OptionsFromConfig(a.cfg.Export, a.log)
	if err != nil {
		return opts, err
	}
	if name := a.v.GetString("format"); name != "" {
		f, err := export.ParseFormat(name)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if codec := a.v.GetString("codec"); codec != "" {
		opts.Codec = codec
	}
	return opts, nil
}

// addExportFlags registers the output flags shared by filter and export
func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "Output file; the extension selects format and compression")
	cmd.Flags().String("format", "", "Output format (dump, csv, json, arrow, parquet, avro)")
	cmd.Flags().String("codec", "", "Parquet or Avro compression (none, snappy, gzip, zstd, lz4)")
	cmd.Flags().String("upload", "", "Upload the output to an s3://, gs:// or file:// destination")
}

// write exports f to --out and uploads it to --upload or the configured
// upload URL
func (a *app) write(ctx context.Context, f columnar.Frame, out string) error {
	opts, err := a.exportOptions()
	if err != nil {
		return err
	}
	result, err := export.Write(ctx, f, out, opts)
	if err != nil {
		return err
	}
	a.printf("wrote %d rows to %s (%s, %d bytes)\n", result.Rows, result.Path, result.Format, result.Bytes)

	url := a.v.GetString("upload")
	if url == "" {
		url = a.cfg.Export.UploadURL
	}
	if url == "" {
		return nil
	}

	s, err := sink.New(ctx, url, sink.Options{Logger: a.log})
	if err != nil {
		return err
	}
	defer s.Close()

	dest, err := s.Upload(ctx, result.Path)
	if err != nil {
		return err
	}
	a.printf("uploaded %s\n", dest)
	return nil
}
