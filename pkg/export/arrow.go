package export

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// LabelKey holds the original header label in arrow field metadata
const LabelKey = "sttools.label"

// toArrowSchema maps the columns to non-nullable arrow fields and the
// table metadata to schema metadata
func toArrowSchema(columns []schema.Column, meta schema.Metadata) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		var typ arrow.DataType
		switch c.Type {
		case schema.TypeInt:
			typ = arrow.PrimitiveTypes.Int64
		case schema.TypeFloat:
			typ = arrow.PrimitiveTypes.Float64
		default:
			typ = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     typ,
			Nullable: false,
			Metadata: arrow.NewMetadata([]string{LabelKey}, []string{c.Label}),
		}
	}

	keys := meta.Keys()
	vals := make([]string, len(keys))
	for i, k := range keys {
		vals[i] = meta[k].String()
	}
	md := arrow.NewMetadata(keys, vals)
	return arrow.NewSchema(fields, &md)
}

// recordBatches builds arrow records of at most batchSize rows from f and
// hands each to emit
func recordBatches(ctx context.Context, mem memory.Allocator, sc *arrow.Schema, f columnar.Frame, batchSize int, emit func(arrow.Record) error) error {
	b := array.NewRecordBuilder(mem, sc)
	defer b.Release()

	data := columnValues(f)
	for start := 0; start < f.Rows(); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batchSize
		if end > f.Rows() {
			end = f.Rows()
		}
		for i := range sc.Fields() {
			switch fb := b.Field(i).(type) {
			case *array.Int64Builder:
				fb.AppendValues(data.ints[i][start:end], nil)
			case *array.Float64Builder:
				fb.AppendValues(data.floats[i][start:end], nil)
			case *array.StringBuilder:
				fb.AppendValues(data.strings[i][start:end], nil)
			}
		}
		rec := b.NewRecord()
		err := emit(rec)
		rec.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

// arrowWriter writes the arrow IPC file format
type arrowWriter struct {
	config     *WriterConfig
	columns    []schema.Column
	schema     *arrow.Schema
	fileWriter *ipc.FileWriter
	pool       memory.Allocator
	rows       int64
}

func newArrowWriter(w io.Writer, columns []schema.Column, meta schema.Metadata, config *WriterConfig) (*arrowWriter, error) {
	pool := memory.NewGoAllocator()
	sc := toArrowSchema(columns, meta)

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(sc), ipc.WithAllocator(pool))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create arrow writer")
	}

	return &arrowWriter{
		config:     config,
		columns:    columns,
		schema:     sc,
		fileWriter: fw,
		pool:       pool,
	}, nil
}

func (aw *arrowWriter) WriteFrame(ctx context.Context, f columnar.Frame) error {
	if err := checkColumns(aw.columns, f); err != nil {
		return err
	}
	return recordBatches(ctx, aw.pool, aw.schema, f, aw.config.BatchSize, func(rec arrow.Record) error {
		if err := aw.fileWriter.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write record batch")
		}
		aw.rows += rec.NumRows()
		return nil
	})
}

func (aw *arrowWriter) Close() error {
	if err := aw.fileWriter.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close arrow writer")
	}
	return nil
}

func (aw *arrowWriter) Format() Format { return Arrow }

func (aw *arrowWriter) RowsWritten() int64 { return aw.rows }
