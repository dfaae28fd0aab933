package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/json"
	"github.com/ajitpratap0/sttools/pkg/schema"
	stringpool "github.com/ajitpratap0/sttools/pkg/strings"
)

// ctxCheckEvery is the number of rows between cancellation checks
const ctxCheckEvery = 4096

// dumpMarkers are the comment markers the dump reader skips by default
var dumpMarkers = config.DefaultDumpConfig().CommentMarkers

// dumpWriter writes the dump text format: a metadata line, a header line
// and one blank separated line per row. The format has no quoting, so
// values that would not read back as written are rejected with a
// validation error: empty strings or strings with blanks, a first-row
// string that parses as a number, a leading string starting with a comment
// marker, and metadata holding commas or line breaks.
type dumpWriter struct {
	w       *bufio.Writer
	columns []schema.Column
	rows    int64
}

func newDumpWriter(w io.Writer, columns []schema.Column, meta schema.Metadata) (*dumpWriter, error) {
	if err := checkDumpMetadata(meta); err != nil {
		return nil, err
	}
	dw := &dumpWriter{w: bufio.NewWriterSize(w, 64*1024), columns: columns}

	b := stringpool.GetBuilder(stringpool.Medium)
	defer stringpool.PutBuilder(b, stringpool.Medium)

	format, ok := meta.Text(schema.FormatKey)
	if !ok || format == "" {
		format = "DUMP"
	}
	b.WriteString("# ")
	b.WriteString(format)
	for _, key := range meta.Keys() {
		if key == schema.FormatKey {
			continue
		}
		b.WriteString(", ")
		b.WriteString(key)
		b.WriteString(" = ")
		b.WriteString(meta[key].String())
	}
	b.WriteString("\n# ")
	for i, c := range columns {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(headerToken(c))
	}
	b.WriteByte('\n')

	if _, err := dw.w.WriteString(b.String()); err != nil {
		return nil, err
	}
	return dw, nil
}

// headerToken keeps the original label, with its unit, when it still
// names the column
func headerToken(c schema.Column) string {
	if c.Label != "" && !strings.ContainsAny(c.Label, " \t,") && schema.SanitizeName(c.Label) == c.Name {
		return c.Label
	}
	return c.Name
}

func (dw *dumpWriter) WriteFrame(ctx context.Context, f columnar.Frame) error {
	if err := checkColumns(dw.columns, f); err != nil {
		return err
	}
	for r := 0; r < f.Rows(); r++ {
		if r%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for c, col := range dw.columns {
			if c > 0 {
				if err := dw.w.WriteByte(' '); err != nil {
					return err
				}
			}
			token := f.ColumnAt(c).Raw(r)
			if col.Type == schema.TypeString {
				if err := checkDumpString(token, c == 0, dw.rows == 0); err != nil {
					return err.WithDetail("column", col.Name).WithDetail("row", r)
				}
			}
			if _, err := dw.w.WriteString(token); err != nil {
				return err
			}
		}
		if err := dw.w.WriteByte('\n'); err != nil {
			return err
		}
		dw.rows++
	}
	return nil
}

func (dw *dumpWriter) Close() error { return dw.w.Flush() }

// checkDumpString reports a string token the dump reader would split, drop
// or retype. leading marks the first column, first the first written row.
func checkDumpString(v string, leading, first bool) *errors.Error {
	switch {
	case v == "" || strings.IndexFunc(v, unicode.IsSpace) >= 0:
		return errors.New(errors.ErrorTypeValidation, "dump format cannot hold empty strings or strings with blanks").
			WithDetail("value", v)
	case first && schema.InferType(v) != schema.TypeString:
		return errors.New(errors.ErrorTypeValidation, "first dump row would read back as a number").
			WithDetail("value", v)
	case leading && stringpool.HasMarker(v, dumpMarkers):
		return errors.New(errors.ErrorTypeValidation, "dump row would read back as a comment").
			WithDetail("value", v)
	}
	return nil
}

// checkDumpMetadata reports metadata that the metadata line parser would
// split or rename
func checkDumpMetadata(meta schema.Metadata) error {
	for _, key := range meta.Keys() {
		if key == schema.FormatKey {
			if v := meta[key].String(); strings.ContainsAny(v, ",\n\r") || strings.TrimSpace(v) != v {
				return errors.New(errors.ErrorTypeValidation, "dump format name cannot hold commas").
					WithDetail("format", v)
			}
			continue
		}
		if strings.ContainsAny(key, ",=") || strings.ReplaceAll(strings.ToUpper(key), " ", "_") != key {
			return errors.New(errors.ErrorTypeValidation, "metadata key cannot be written to a dump").
				WithDetail("key", key)
		}
		v := meta[key]
		if v.Type != schema.TypeString {
			continue
		}
		if strings.ContainsAny(v.Str, ",\n\r") || strings.TrimSpace(v.Str) != v.Str ||
			schema.InferScalar(v.Str).Type != schema.TypeString {
			return errors.New(errors.ErrorTypeValidation, "metadata value cannot be written to a dump").
				WithDetail("key", key).
				WithDetail("value", v.Str)
		}
	}
	return nil
}

func (dw *dumpWriter) Format() Format { return Dump }

func (dw *dumpWriter) RowsWritten() int64 { return dw.rows }

// csvWriter writes a header row of column names followed by raw tokens
type csvWriter struct {
	w       *csv.Writer
	columns []schema.Column
	record  []string
	rows    int64
}

func newCSVWriter(w io.Writer, columns []schema.Column) (*csvWriter, error) {
	cw := &csvWriter{
		w:       csv.NewWriter(w),
		columns: columns,
		record:  make([]string, len(columns)),
	}
	for i, c := range columns {
		cw.record[i] = c.Name
	}
	if err := cw.w.Write(cw.record); err != nil {
		return nil, err
	}
	return cw, nil
}

func (cw *csvWriter) WriteFrame(ctx context.Context, f columnar.Frame) error {
	if err := checkColumns(cw.columns, f); err != nil {
		return err
	}
	for r := 0; r < f.Rows(); r++ {
		if r%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for c := range cw.columns {
			cw.record[c] = f.ColumnAt(c).Raw(r)
		}
		if err := cw.w.Write(cw.record); err != nil {
			return err
		}
		cw.rows++
	}
	return nil
}

func (cw *csvWriter) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}

func (cw *csvWriter) Format() Format { return CSV }

func (cw *csvWriter) RowsWritten() int64 { return cw.rows }

// jsonWriter writes one JSON object per row. NaN and infinities, which
// JSON cannot represent, are written as null.
type jsonWriter struct {
	w       *bufio.Writer
	enc     *json.StreamingEncoder
	columns []schema.Column
}

func newJSONWriter(w io.Writer, columns []schema.Column) (*jsonWriter, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	enc, err := json.NewStreamingEncoder(bw, false)
	if err != nil {
		return nil, err
	}
	return &jsonWriter{w: bw, enc: enc, columns: columns}, nil
}

func (jw *jsonWriter) WriteFrame(ctx context.Context, f columnar.Frame) error {
	if err := checkColumns(jw.columns, f); err != nil {
		return err
	}
	row := make(map[string]interface{}, len(jw.columns))
	for r := 0; r < f.Rows(); r++ {
		if r%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for c, col := range jw.columns {
			v := f.ColumnAt(c).Get(r)
			if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
				v = nil
			}
			row[col.Name] = v
		}
		if err := jw.enc.Encode(row); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to encode row").
				WithDetail("row", r)
		}
	}
	return nil
}

func (jw *jsonWriter) Close() error {
	if err := jw.enc.Close(); err != nil {
		return err
	}
	return jw.w.Flush()
}

func (jw *jsonWriter) Format() Format { return JSON }

func (jw *jsonWriter) RowsWritten() int64 { return jw.enc.Count() }
