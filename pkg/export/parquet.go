package export

import (
	"context"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// parquetWriter writes a parquet file through the arrow bridge. Each
// record batch becomes one row group.
type parquetWriter struct {
	config     *WriterConfig
	columns    []schema.Column
	schema     *arrow.Schema
	fileWriter *pqarrow.FileWriter
	pool       memory.Allocator
	rows       int64
}

func newParquetWriter(w io.Writer, columns []schema.Column, meta schema.Metadata, config *WriterConfig) (*parquetWriter, error) {
	codec, err := parquetCompression(config.Codec)
	if err != nil {
		return nil, err
	}

	pool := memory.NewGoAllocator()
	sc := toArrowSchema(columns, meta)

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithAllocator(pool),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(pool),
		pqarrow.WithStoreSchema(),
	)

	fw, err := pqarrow.NewFileWriter(sc, w, props, arrowProps)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create parquet writer")
	}

	return &parquetWriter{
		config:     config,
		columns:    columns,
		schema:     sc,
		fileWriter: fw,
		pool:       pool,
	}, nil
}

func (pw *parquetWriter) WriteFrame(ctx context.Context, f columnar.Frame) error {
	if err := checkColumns(pw.columns, f); err != nil {
		return err
	}
	return recordBatches(ctx, pw.pool, pw.schema, f, pw.config.BatchSize, func(rec arrow.Record) error {
		if err := pw.fileWriter.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row group")
		}
		pw.rows += rec.NumRows()
		return nil
	})
}

func (pw *parquetWriter) Close() error {
	if err := pw.fileWriter.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close parquet writer")
	}
	return nil
}

func (pw *parquetWriter) Format() Format { return Parquet }

func (pw *parquetWriter) RowsWritten() int64 { return pw.rows }

func parquetCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	}
	return compress.Codecs.Uncompressed, errors.New(errors.ErrorTypeConfig, "unknown parquet compression").
		WithDetail("codec", name)
}
