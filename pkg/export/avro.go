package export

import (
	"context"
	"io"
	"strings"

	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/json"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// MetadataKey holds the table metadata, as a JSON object, in the avro
// file header
const MetadataKey = "sttools.metadata"

// avroWriter writes an avro object container file
type avroWriter struct {
	config    *WriterConfig
	columns   []schema.Column
	names     []string
	ocfWriter *goavro.OCFWriter
	rows      int64
}

func newAvroWriter(w io.Writer, columns []schema.Column, meta schema.Metadata, config *WriterConfig) (*avroWriter, error) {
	codecName, err := avroCompression(config.Codec)
	if err != nil {
		return nil, err
	}

	names, err := avroNames(columns)
	if err != nil {
		return nil, err
	}
	avroSchema, err := toAvroSchema(columns, names)
	if err != nil {
		return nil, err
	}

	codec, err := goavro.NewCodec(avroSchema)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create avro codec")
	}

	native := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		native[k] = v.Value()
	}
	metaJSON, err := json.Marshal(native)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to encode metadata")
	}

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: codecName,
		MetaData:        map[string][]byte{MetadataKey: metaJSON},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create avro writer")
	}

	return &avroWriter{
		config:    config,
		columns:   columns,
		names:     names,
		ocfWriter: ocfWriter,
	}, nil
}

func (aw *avroWriter) WriteFrame(ctx context.Context, f columnar.Frame) error {
	if err := checkColumns(aw.columns, f); err != nil {
		return err
	}
	batch := make([]interface{}, 0, aw.config.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := aw.ocfWriter.Append(batch); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to write avro records")
		}
		aw.rows += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for r := 0; r < f.Rows(); r++ {
		if r%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		record := make(map[string]interface{}, len(aw.names))
		for c, name := range aw.names {
			record[name] = f.ColumnAt(c).Get(r)
		}
		batch = append(batch, record)
		if len(batch) >= aw.config.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Close is a no-op: the container writer flushes on every Append
func (aw *avroWriter) Close() error { return nil }

func (aw *avroWriter) Format() Format { return Avro }

func (aw *avroWriter) RowsWritten() int64 { return aw.rows }

func toAvroSchema(columns []schema.Column, names []string) (string, error) {
	fields := make([]map[string]interface{}, len(columns))
	for i, c := range columns {
		typ := "string"
		switch c.Type {
		case schema.TypeInt:
			typ = "long"
		case schema.TypeFloat:
			typ = "double"
		}
		fields[i] = map[string]interface{}{
			"name": names[i],
			"type": typ,
			"doc":  c.Label,
		}
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":      "record",
		"name":      "Row",
		"namespace": "sttools",
		"fields":    fields,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode avro schema")
	}
	return string(data), nil
}

// avroNames maps every column to its avro field name. Two columns mapping
// to the same field, such as 1X and _1X, are a validation error.
func avroNames(columns []schema.Column) ([]string, error) {
	names := make([]string, len(columns))
	owner := make(map[string]string, len(columns))
	for i, c := range columns {
		names[i] = avroName(c.Name)
		if prev, ok := owner[names[i]]; ok {
			return nil, errors.New(errors.ErrorTypeValidation, "columns map to the same avro field").
				WithDetail("field", names[i]).
				WithDetail("columns", prev+","+c.Name)
		}
		owner[names[i]] = c.Name
	}
	return names, nil
}

// avroName makes a column name a valid avro name. Column names are
// already restricted to [0-9A-Z_] but may start with a digit.
func avroName(name string) string {
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		return "_" + name
	}
	return name
}

func avroCompression(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return goavro.CompressionSnappyLabel, nil
	case "none":
		return goavro.CompressionNullLabel, nil
	case "gzip", "deflate":
		return goavro.CompressionDeflateLabel, nil
	}
	return "", errors.New(errors.ErrorTypeCapability, "compression not available for avro").
		WithDetail("codec", name)
}
