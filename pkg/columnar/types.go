package columnar

import (
	"strconv"

	"github.com/ajitpratap0/sttools/pkg/schema"
)

// Column is the typed storage of one table column. Implementations are
// *IntColumn, *FloatColumn and *StringColumn; consumers type-switch on
// them for typed access.
type Column interface {
	Type() schema.Type
	Len() int
	// Get returns the value at row i as int64, float64 or string
	Get(i int) interface{}
	// Raw renders the value at row i as a file token
	Raw(i int) string
	MemoryUsage() int64

	gather(rows []int) Column
}

// IntColumn stores integer values
type IntColumn struct {
	values []int64
}

// NewIntColumn creates a column that takes ownership of values
func NewIntColumn(values []int64) *IntColumn {
	return &IntColumn{values: values}
}

func (c *IntColumn) Type() schema.Type     { return schema.TypeInt }
func (c *IntColumn) Len() int              { return len(c.values) }
func (c *IntColumn) Get(i int) interface{} { return c.values[i] }
func (c *IntColumn) Raw(i int) string      { return strconv.FormatInt(c.values[i], 10) }

// At returns the value at row i
func (c *IntColumn) At(i int) int64 { return c.values[i] }

// Values returns a copy of the column data
func (c *IntColumn) Values() []int64 {
	return append([]int64(nil), c.values...)
}

func (c *IntColumn) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per int64
}

func (c *IntColumn) gather(rows []int) Column {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = c.values[r]
	}
	return &IntColumn{values: out}
}

// FloatColumn stores floating point values
type FloatColumn struct {
	values []float64
}

// NewFloatColumn creates a column that takes ownership of values
func NewFloatColumn(values []float64) *FloatColumn {
	return &FloatColumn{values: values}
}

func (c *FloatColumn) Type() schema.Type     { return schema.TypeFloat }
func (c *FloatColumn) Len() int              { return len(c.values) }
func (c *FloatColumn) Get(i int) interface{} { return c.values[i] }
func (c *FloatColumn) Raw(i int) string      { return schema.FormatFloat(c.values[i]) }

// At returns the value at row i
func (c *FloatColumn) At(i int) float64 { return c.values[i] }

// Values returns a copy of the column data
func (c *FloatColumn) Values() []float64 {
	return append([]float64(nil), c.values...)
}

func (c *FloatColumn) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per float64
}

func (c *FloatColumn) gather(rows []int) Column {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = c.values[r]
	}
	return &FloatColumn{values: out}
}

// StringColumn stores string values
type StringColumn struct {
	values []string
}

// NewStringColumn creates a column that takes ownership of values
func NewStringColumn(values []string) *StringColumn {
	return &StringColumn{values: values}
}

func (c *StringColumn) Type() schema.Type     { return schema.TypeString }
func (c *StringColumn) Len() int              { return len(c.values) }
func (c *StringColumn) Get(i int) interface{} { return c.values[i] }
func (c *StringColumn) Raw(i int) string      { return c.values[i] }

// At returns the value at row i
func (c *StringColumn) At(i int) string { return c.values[i] }

// Values returns a copy of the column data
func (c *StringColumn) Values() []string {
	return append([]string(nil), c.values...)
}

func (c *StringColumn) MemoryUsage() int64 {
	var total int64
	for _, v := range c.values {
		total += int64(len(v))
		total += 16 // string header overhead
	}
	return total
}

func (c *StringColumn) gather(rows []int) Column {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = c.values[r]
	}
	return &StringColumn{values: out}
}

// newColumnOfType converts raw tokens into a typed column. On failure it
// returns the offending row.
func newColumnOfType(t schema.Type, raw []string) (Column, int, error) {
	switch t {
	case schema.TypeInt:
		values := make([]int64, len(raw))
		for i, tok := range raw {
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, i, err
			}
			values[i] = v
		}
		return NewIntColumn(values), 0, nil
	case schema.TypeFloat:
		values := make([]float64, len(raw))
		for i, tok := range raw {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, i, err
			}
			values[i] = v
		}
		return NewFloatColumn(values), 0, nil
	default:
		return NewStringColumn(raw), 0, nil
	}
}
