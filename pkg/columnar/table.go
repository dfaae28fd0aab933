package columnar

import (
	"strconv"

	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
	stringpool "github.com/ajitpratap0/sttools/pkg/strings"
)

// Frame is the read-only, table-shaped view shared by Table and
// FilteredView
type Frame interface {
	Source() string
	Columns() []schema.Column
	ColumnNames() []string
	Column(name string) (Column, bool)
	ColumnAt(i int) Column
	Rows() int
	Metadata() schema.Metadata
	Row(i int) []interface{}
}

// frame holds ordered typed columns of equal length
type frame struct {
	source  string
	columns []schema.Column
	data    []Column
	rows    int
	meta    schema.Metadata
}

// Source returns the file the data was loaded from
func (f *frame) Source() string { return f.source }

// Columns returns the column descriptors in file order
func (f *frame) Columns() []schema.Column {
	return append([]schema.Column(nil), f.columns...)
}

// ColumnNames returns the column names in file order
func (f *frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column
func (f *frame) Column(name string) (Column, bool) {
	i := f.position(name)
	if i < 0 {
		return nil, false
	}
	return f.data[i], true
}

// ColumnAt returns the i-th column in file order
func (f *frame) ColumnAt(i int) Column { return f.data[i] }

// Rows returns the number of rows
func (f *frame) Rows() int { return f.rows }

// Metadata returns a copy of the header metadata
func (f *frame) Metadata() schema.Metadata { return f.meta.Clone() }

// Row returns the values of row i in column order
func (f *frame) Row(i int) []interface{} {
	out := make([]interface{}, len(f.data))
	for c, col := range f.data {
		out[c] = col.Get(i)
	}
	return out
}

// MemoryUsage returns the approximate size of the column data in bytes
func (f *frame) MemoryUsage() int64 {
	var total int64
	for i, col := range f.data {
		total += int64(len(f.columns[i].Name))
		total += col.MemoryUsage()
	}
	return total
}

func (f *frame) position(name string) int {
	for i, c := range f.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Table is a finalized, loaded file with its indices
type Table struct {
	frame
	indices map[string]*Index
	skipped int
}

// Skipped returns the number of data lines dropped while loading
func (t *Table) Skipped() int { return t.skipped }

// NewTable assembles a table from already typed columns. Every column must
// have the same length. No index is built; see AddIndex.
func NewTable(source string, columns []schema.Column, data []Column, meta schema.Metadata) (*Table, error) {
	if len(columns) != len(data) {
		return nil, errors.New(errors.ErrorTypeValidation, "column descriptors and data differ in count").
			WithDetail("descriptors", len(columns)).
			WithDetail("columns", len(data))
	}

	rows := 0
	cols := make([]schema.Column, len(columns))
	for i, c := range columns {
		if data[i].Type() != c.Type {
			return nil, errors.New(errors.ErrorTypeValidation, "column data does not match its declared type").
				WithDetail("column", c.Name).
				WithDetail("declared", c.Type.String()).
				WithDetail("actual", data[i].Type().String())
		}
		if i == 0 {
			rows = data[i].Len()
		} else if data[i].Len() != rows {
			return nil, errors.New(errors.ErrorTypeValidation, "columns differ in length").
				WithDetail("column", c.Name).
				WithDetail("expected", rows).
				WithDetail("got", data[i].Len())
		}
		c.Indexed = false
		cols[i] = c
	}
	if meta == nil {
		meta = schema.Metadata{}
	}

	return &Table{
		frame: frame{
			source:  source,
			columns: cols,
			data:    append([]Column(nil), data...),
			rows:    rows,
			meta:    meta,
		},
		indices: make(map[string]*Index),
	}, nil
}

// Index returns the index of a column
func (t *Table) Index(name string) (*Index, bool) {
	ix, ok := t.indices[name]
	return ix, ok
}

// IndexedColumns returns the indexed column names in column order
func (t *Table) IndexedColumns() []string {
	var names []string
	for _, c := range t.columns {
		if _, ok := t.indices[c.Name]; ok {
			names = append(names, c.Name)
		}
	}
	return names
}

// AddIndex builds an index over a finalized column. Integers are keyed by
// their base-10 form and strings verbatim; float columns are rejected.
// Indexing an already indexed column is a no-op. AddIndex is not safe for
// concurrent use with other Table methods.
func (t *Table) AddIndex(name string) error {
	if _, ok := t.indices[name]; ok {
		return nil
	}
	pos := t.position(name)
	if pos < 0 {
		return errors.Wrap(ErrUnknownColumn, errors.ErrorTypeNotFound, "cannot index column").
			WithDetail("file", t.source).
			WithDetail("column", name)
	}

	col := t.data[pos]
	if col.Type() == schema.TypeFloat {
		return errors.New(errors.ErrorTypeValidation, "float columns cannot be indexed").
			WithDetail("file", t.source).
			WithDetail("column", name)
	}

	ix := NewIndex(name)
	for i := 0; i < col.Len(); i++ {
		ix.Add(col.Raw(i), i)
	}

	columns := append([]schema.Column(nil), t.columns...)
	columns[pos].Indexed = true
	t.columns = columns
	t.indices[name] = ix
	return nil
}

// Rotate returns a new table whose row 0 is row first of t. Index
// positions are remapped to the new row order.
func (t *Table) Rotate(first int) (*Table, error) {
	if first < 0 || first >= t.rows {
		return nil, errors.New(errors.ErrorTypeValidation, "rotation start out of range").
			WithDetail("file", t.source).
			WithDetail("row", first).
			WithDetail("rows", t.rows)
	}

	order := make([]int, t.rows)
	for i := range order {
		order[i] = (first + i) % t.rows
	}
	data := make([]Column, len(t.data))
	for i, col := range t.data {
		data[i] = col.gather(order)
	}

	indices := make(map[string]*Index, len(t.indices))
	for name, ix := range t.indices {
		indices[name] = ix.remap(name, func(p int) int {
			return (p - first + t.rows) % t.rows
		})
	}

	return &Table{
		frame: frame{
			source:  t.source,
			columns: t.Columns(),
			data:    data,
			rows:    t.rows,
			meta:    t.meta.Clone(),
		},
		indices: indices,
		skipped: t.skipped,
	}, nil
}

// MapFloat returns a new table where the named float column is replaced by
// fn applied to each value. Other columns and the indices are shared.
func (t *Table) MapFloat(name string, fn func(row int, v float64) float64) (*Table, error) {
	pos := t.position(name)
	if pos < 0 {
		return nil, errors.Wrap(ErrUnknownColumn, errors.ErrorTypeNotFound, "cannot map column").
			WithDetail("file", t.source).
			WithDetail("column", name)
	}
	fc, ok := t.data[pos].(*FloatColumn)
	if !ok {
		return nil, errors.New(errors.ErrorTypeValidation, "column is not a float column").
			WithDetail("column", name).
			WithDetail("type", t.data[pos].Type().String())
	}

	values := make([]float64, len(fc.values))
	for i, v := range fc.values {
		values[i] = fn(i, v)
	}

	data := append([]Column(nil), t.data...)
	data[pos] = NewFloatColumn(values)
	return &Table{
		frame: frame{
			source:  t.source,
			columns: t.Columns(),
			data:    data,
			rows:    t.rows,
			meta:    t.meta.Clone(),
		},
		indices: t.copyIndices(),
		skipped: t.skipped,
	}, nil
}

// RenameColumns returns a new table with columns renamed according to
// names (old name to new name). Labels are kept. Column data is shared.
func (t *Table) RenameColumns(names map[string]string) (*Table, error) {
	columns := t.Columns()
	seen := make(map[string]bool, len(columns))
	for i := range columns {
		if to, ok := names[columns[i].Name]; ok {
			columns[i].Name = to
		}
	}
	for _, c := range columns {
		if seen[c.Name] {
			return nil, errors.New(errors.ErrorTypeValidation, "rename produces duplicate column").
				WithDetail("file", t.source).
				WithDetail("column", c.Name)
		}
		seen[c.Name] = true
	}

	indices := make(map[string]*Index, len(t.indices))
	for name, ix := range t.indices {
		if to, ok := names[name]; ok {
			name = to
		}
		indices[name] = ix.renamed(name)
	}

	return &Table{
		frame: frame{
			source:  t.source,
			columns: columns,
			data:    append([]Column(nil), t.data...),
			rows:    t.rows,
			meta:    t.meta.Clone(),
		},
		indices: indices,
		skipped: t.skipped,
	}, nil
}

func (t *Table) copyIndices() map[string]*Index {
	out := make(map[string]*Index, len(t.indices))
	for k, v := range t.indices {
		out[k] = v
	}
	return out
}

// RawValue renders a filter value as a raw token: strings as is, integer
// kinds in base 10, fmt.Stringer via String and anything else with
// fmt.Sprint.
func RawValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case interface{ String() string }:
		return x.String()
	default:
		return stringpool.Sprintf("%v", x)
	}
}
