package tfs

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

const (
	nameColumn   = "NAME"
	sColumn      = "S"
	lengthKey    = "LENGTH"
	sliceNameSep = ".."
)

// SliceRange is the longitudinal extent of a sliced element
type SliceRange struct {
	SMin float64
	SMax float64
}

// summaryWriter keeps the first write error, since the table renderer
// drops them
type summaryWriter struct {
	w   io.Writer
	err error
}

func (sw *summaryWriter) Write(p []byte) (int, error) {
	if sw.err != nil {
		return 0, sw.err
	}
	n, err := sw.w.Write(p)
	if err != nil {
		sw.err = err
	}
	return n, err
}

// Summary writes the file info, metadata and column types as tables.
// It returns the first error of the underlying writer.
func (t *Table) Summary(out io.Writer) error {
	sw := &summaryWriter{w: out}
	var w io.Writer = sw

	fmt.Fprintln(w, "File Info:")
	info := tablewriter.NewWriter(w)
	info.SetHeader([]string{"Field", "Value"})
	info.Append([]string{"Name", filepath.Base(t.Source())})
	info.Append([]string{"Path", filepath.Dir(t.Source())})
	info.Append([]string{"Size", fmt.Sprintf("%.2f kB", float64(t.size)/1024)})
	info.Append([]string{"Lines", strconv.Itoa(t.Rows())})
	info.Render()

	fmt.Fprintln(w, "Meta Data:")
	meta := tablewriter.NewWriter(w)
	meta.SetHeader([]string{"Name", "Type", "Value"})
	md := t.Metadata()
	for _, name := range t.metaOrder {
		v := md[name]
		var rendered string
		switch v.Type {
		case schema.TypeFloat:
			rendered = fmt.Sprintf("%22.15e", v.Float)
		case schema.TypeString:
			rendered = strconv.Quote(v.Str)
		default:
			rendered = v.String()
		}
		meta.Append([]string{name, t.metaTypes[name], strings.TrimSpace(rendered)})
	}
	meta.Render()

	fmt.Fprintln(w, "Data Headers:")
	cols := tablewriter.NewWriter(w)
	cols.SetHeader([]string{"Column", "Type", "TFS Type", "Indexed"})
	for i, c := range t.Columns() {
		cols.Append([]string{c.Name, c.Type.String(), t.colTypes[i], strconv.FormatBool(c.Indexed)})
	}
	cols.Render()

	if sw.err != nil {
		return errors.Wrap(sw.err, errors.ErrorTypeFile, "failed to write summary").
			WithDetail("file", t.Source())
	}
	return nil
}

func (t *Table) stringColumn(name string) (*columnar.StringColumn, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, errors.Wrap(columnar.ErrUnknownColumn, errors.ErrorTypeNotFound, "missing column").
			WithDetail("file", t.Source()).
			WithDetail("column", name)
	}
	sc, ok := col.(*columnar.StringColumn)
	if !ok {
		return nil, errors.New(errors.ErrorTypeValidation, "column is not a string column").
			WithDetail("column", name).
			WithDetail("type", col.Type().String())
	}
	return sc, nil
}

func (t *Table) floatColumn(name string) (*columnar.FloatColumn, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, errors.Wrap(columnar.ErrUnknownColumn, errors.ErrorTypeNotFound, "missing column").
			WithDetail("file", t.Source()).
			WithDetail("column", name)
	}
	fc, ok := col.(*columnar.FloatColumn)
	if !ok {
		return nil, errors.New(errors.ErrorTypeValidation, "column is not a float column").
			WithDetail("column", name).
			WithDetail("type", col.Type().String())
	}
	return fc, nil
}

// SlicedElements groups sliced element names "BASE..k" into the S range
// they cover. Slices of one element must be numbered consecutively. A
// positive maxSearch limits how many rows after the first slice are
// searched for further slices.
func (t *Table) SlicedElements(maxSearch int, log *zap.Logger) (map[string]SliceRange, error) {
	if log == nil {
		log = zap.NewNop()
	}
	names, err := t.stringColumn(nameColumn)
	if err != nil {
		return nil, err
	}
	s, err := t.floatColumn(sColumn)
	if err != nil {
		return nil, err
	}

	out := make(map[string]SliceRange)
	rows := t.Rows()
	for i := 0; i < rows; i++ {
		base, idx, ok := splitSliceName(names.At(i))
		if !ok {
			continue
		}
		if _, done := out[base]; done {
			continue
		}
		if idx != 1 {
			log.Warn("starting in the middle of a sliced element",
				zap.String("element", base), zap.Int("first_index", idx))
		}

		r := SliceRange{SMin: s.At(i), SMax: s.At(i)}
		end := rows
		if maxSearch > 0 && i+1+maxSearch < end {
			end = i + 1 + maxSearch
		}
		for j := i + 1; j < end; j++ {
			base2, idx2, ok := splitSliceName(names.At(j))
			if !ok || base2 != base {
				continue
			}
			idx++
			if idx2 != idx {
				return nil, errors.New(errors.ErrorTypeData, "sliced element is not numbered consecutively").
					WithDetail("file", t.Source()).
					WithDetail("element", base).
					WithDetail("expected", idx).
					WithDetail("got", idx2)
			}
			r.SMax = s.At(j)
		}
		out[base] = r
	}
	return out, nil
}

// splitSliceName splits "BASE..k" into its base name and slice number
func splitSliceName(name string) (string, int, bool) {
	parts := strings.Split(name, sliceNameSep)
	if len(parts) != 2 {
		return "", 0, false
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, false
	}
	return parts[0], idx, true
}

// ShiftSequence returns a new table rotated so that element first is row 0.
// S is re-zeroed on the new first element and wrapped modulo the LENGTH
// metadata value; a last element landing on 0 is moved to LENGTH.
func (t *Table) ShiftSequence(first string, log *zap.Logger) (*Table, error) {
	if log == nil {
		log = zap.NewNop()
	}
	names, err := t.stringColumn(nameColumn)
	if err != nil {
		return nil, err
	}
	if _, err := t.floatColumn(sColumn); err != nil {
		return nil, err
	}
	length, ok := t.Metadata().Float(lengthKey)
	if !ok {
		return nil, errors.New(errors.ErrorTypeData, "sequence length is missing from the metadata").
			WithDetail("file", t.Source()).
			WithDetail("key", lengthKey)
	}

	start := -1
	for i := 0; i < t.Rows(); i++ {
		if names.At(i) == first {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, errors.Wrap(columnar.ErrValueNotFound, errors.ErrorTypeNotFound, "no element with this name").
			WithDetail("file", t.Source()).
			WithDetail("element", first)
	}

	rotated, err := t.Rotate(start)
	if err != nil {
		return nil, err
	}
	sCol, _ := rotated.Column(sColumn)
	s0 := sCol.(*columnar.FloatColumn).At(0)
	last := rotated.Rows() - 1

	shifted, err := rotated.MapFloat(sColumn, func(row int, v float64) float64 {
		v -= s0
		if v < 0 {
			v += length
		}
		if row == last && v == 0 {
			log.Warn("shifting last element to the sequence length", zap.Float64("length", length))
			v = length
		}
		return v
	})
	if err != nil {
		return nil, err
	}

	return &Table{
		Table:     shifted,
		size:      t.size,
		metaOrder: t.MetadataNames(),
		metaTypes: t.metaTypes,
		colTypes:  t.ColumnTypes(),
	}, nil
}

// FindRows returns the rows of a string column matching pattern at the
// start of the value
func (t *Table) FindRows(column, pattern string) ([]int, error) {
	col, err := t.stringColumn(column)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid search pattern").
			WithDetail("pattern", pattern)
	}

	var rows []int
	for i := 0; i < col.Len(); i++ {
		if re.MatchString(col.At(i)) {
			rows = append(rows, i)
		}
	}
	return rows, nil
}
