package columnar

import "slices"

// Index maps raw tokens of one column to the ascending row positions
// holding them
type Index struct {
	column    string
	positions map[string][]int
	keys      []string
}

// NewIndex creates an empty index for a column
func NewIndex(column string) *Index {
	return &Index{
		column:    column,
		positions: make(map[string][]int),
	}
}

// Add records row under key. Rows must be added in ascending order.
func (ix *Index) Add(key string, row int) {
	rows, ok := ix.positions[key]
	if !ok {
		ix.keys = append(ix.keys, key)
	}
	ix.positions[key] = append(rows, row)
}

// Column returns the indexed column name
func (ix *Index) Column() string { return ix.column }

// Len returns the number of distinct keys
func (ix *Index) Len() int { return len(ix.keys) }

// Keys returns the distinct keys in order of first appearance
func (ix *Index) Keys() []string {
	return append([]string(nil), ix.keys...)
}

// Rows returns a copy of the row positions for key
func (ix *Index) Rows(key string) ([]int, bool) {
	rows, ok := ix.positions[key]
	if !ok {
		return nil, false
	}
	return append([]int(nil), rows...), true
}

// Count returns the number of rows holding key
func (ix *Index) Count(key string) int {
	return len(ix.positions[key])
}

// lookup returns the internal position slice. Callers must not modify it.
func (ix *Index) lookup(key string) ([]int, bool) {
	rows, ok := ix.positions[key]
	return rows, ok
}

// remap returns a copy of the index with every position p replaced by
// fn(p). Position lists are re-sorted ascending.
func (ix *Index) remap(column string, fn func(int) int) *Index {
	out := &Index{
		column:    column,
		positions: make(map[string][]int, len(ix.positions)),
		keys:      append([]string(nil), ix.keys...),
	}
	for key, rows := range ix.positions {
		moved := make([]int, len(rows))
		for i, r := range rows {
			moved[i] = fn(r)
		}
		slices.Sort(moved)
		out.positions[key] = moved
	}
	return out
}

// renamed returns a copy of the index under a new column name. Position
// slices are shared since indices are never mutated after build.
func (ix *Index) renamed(column string) *Index {
	return &Index{column: column, positions: ix.positions, keys: ix.keys}
}
