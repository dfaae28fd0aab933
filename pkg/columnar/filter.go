package columnar

import (
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// FilteredView holds copies of the rows of a Table matching one indexed
// value. It shares no mutable state with the Table.
type FilteredView struct {
	frame
	column string
	value  string
}

// FilterColumn returns the column the view was selected on
func (v *FilteredView) FilterColumn() string { return v.column }

// FilterValue returns the raw token the view was selected on
func (v *FilteredView) FilterValue() string { return v.value }

// Filter selects every row whose indexed column holds value. The value is
// compared as a raw token, see RawValue. An unknown or unindexed column
// returns ErrUnknownColumn and a missing value ErrValueNotFound.
func (t *Table) Filter(column string, value interface{}) (*FilteredView, error) {
	return t.FilterColumns(column, value)
}

// FilterColumns is Filter projected onto the named columns, in the given
// order. With no names every column is kept.
func (t *Table) FilterColumns(column string, value interface{}, names ...string) (*FilteredView, error) {
	raw := RawValue(value)

	ix, ok := t.indices[column]
	if !ok {
		return nil, errors.Wrap(ErrUnknownColumn, errors.ErrorTypeNotFound, "column is not indexed").
			WithDetail("file", t.source).
			WithDetail("column", column)
	}

	rows, ok := ix.lookup(raw)
	if !ok {
		return nil, errors.Wrap(ErrValueNotFound, errors.ErrorTypeNotFound, "no rows hold the value").
			WithDetail("file", t.source).
			WithDetail("column", column).
			WithDetail("value", raw)
	}

	positions := make([]int, 0, len(t.columns))
	if len(names) == 0 {
		for i := range t.columns {
			positions = append(positions, i)
		}
	} else {
		for _, name := range names {
			p := t.position(name)
			if p < 0 {
				return nil, errors.Wrap(ErrUnknownColumn, errors.ErrorTypeNotFound, "cannot project column").
					WithDetail("file", t.source).
					WithDetail("column", name)
			}
			positions = append(positions, p)
		}
	}

	cols := make([]schema.Column, len(positions))
	data := make([]Column, len(positions))
	for i, p := range positions {
		cols[i] = t.columns[p]
		data[i] = t.data[p].gather(rows)
	}

	return &FilteredView{
		frame: frame{
			source:  t.source,
			columns: cols,
			data:    data,
			rows:    len(rows),
			meta:    t.meta.Clone(),
		},
		column: column,
		value:  raw,
	}, nil
}
