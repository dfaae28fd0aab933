package columnar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

func dumpColumns() []schema.Column {
	return []schema.Column{
		{Name: "ID", Label: "ID", Type: schema.TypeInt, Indexed: true},
		{Name: "TURN", Label: "TURN", Type: schema.TypeInt, Indexed: true},
		{Name: "X", Label: "X[mm]", Type: schema.TypeFloat},
	}
}

// buildScenarioTable loads six rows: particles 1..3 on turns 1 and 2.
func buildScenarioTable(t *testing.T) *Table {
	t.Helper()
	b := NewBuilder("scenario.dat", dumpColumns(), BuilderOptions{Logger: zaptest.NewLogger(t)})
	rows := []string{
		"1 1 0.1",
		"2 1 0.2",
		"3 1 0.3",
		"1 2 1.1",
		"2 2 1.2",
		"3 2 1.3",
	}
	for i, r := range rows {
		require.NoError(t, b.Append(i+3, strings.Fields(r)))
	}
	table, err := b.Finalize(schema.Metadata{"FORMAT": schema.StringScalar("DUMP")})
	require.NoError(t, err)
	return table
}

func TestBuilderFinalize(t *testing.T) {
	table := buildScenarioTable(t)

	assert.Equal(t, "scenario.dat", table.Source())
	assert.Equal(t, 6, table.Rows())
	assert.Equal(t, []string{"ID", "TURN", "X"}, table.ColumnNames())

	for i := 0; i < len(table.Columns()); i++ {
		assert.Equal(t, table.Rows(), table.ColumnAt(i).Len(), "every column has rows entries")
	}

	col, ok := table.Column("X")
	require.True(t, ok)
	fc, ok := col.(*FloatColumn)
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 1.1, 1.2, 1.3}, fc.Values())

	id, _ := table.Column("ID")
	assert.Equal(t, []int64{1, 2, 3, 1, 2, 3}, id.(*IntColumn).Values())

	assert.Equal(t, []interface{}{int64(2), int64(2), 1.2}, table.Row(4))
	assert.Equal(t, []string{"ID", "TURN"}, table.IndexedColumns())
	assert.Positive(t, table.MemoryUsage())
}

func TestBuilderRowLength(t *testing.T) {
	t.Run("lenient skips", func(t *testing.T) {
		b := NewBuilder("lenient.dat", dumpColumns(), BuilderOptions{Lenient: true, Logger: zaptest.NewLogger(t)})
		require.NoError(t, b.Append(3, []string{"1", "1", "0.5"}))
		require.NoError(t, b.Append(4, []string{"2", "1"}))
		require.NoError(t, b.Append(5, []string{"3", "1", "0.5", "extra"}))
		require.NoError(t, b.Append(6, []string{"4", "1", "0.5"}))

		assert.Equal(t, 2, b.Rows())
		assert.Equal(t, 2, b.Skipped())

		table, err := b.Finalize(nil)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Skipped())
		ix, ok := table.Index("TURN")
		require.True(t, ok)
		rows, _ := ix.Rows("1")
		assert.Equal(t, []int{0, 1}, rows, "skipped rows add no index entries")
	})

	t.Run("strict fails", func(t *testing.T) {
		b := NewBuilder("strict.tfs", dumpColumns(), BuilderOptions{})
		err := b.Append(12, []string{"1", "1", "0.5", "7", "8"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRowLength))
		assert.Contains(t, err.Error(), "line=12")
		assert.Contains(t, err.Error(), "file=strict.tfs")
	})
}

func TestBuilderConversionFailure(t *testing.T) {
	b := NewBuilder("bad.dat", dumpColumns(), BuilderOptions{})
	require.NoError(t, b.Append(3, []string{"1", "1", "0.5"}))
	require.NoError(t, b.Append(4, []string{"2", "1.5", "0.5"}))

	_, err := b.Finalize(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversion))
	assert.Contains(t, err.Error(), "column=TURN")
	assert.Contains(t, err.Error(), "line=4")
	assert.Contains(t, err.Error(), "token=1.5")
}

func TestBuilderRejectsUseAfterFinalize(t *testing.T) {
	b := NewBuilder("done.dat", dumpColumns(), BuilderOptions{})
	require.NoError(t, b.Append(1, []string{"1", "1", "0.5"}))
	_, err := b.Finalize(nil)
	require.NoError(t, err)

	err = b.Append(2, []string{"2", "1", "0.5"})
	assert.True(t, errors.Is(err, ErrFinalized))

	_, err = b.Finalize(nil)
	assert.True(t, errors.Is(err, ErrFinalized))
}

func TestIndexKeysAreRawTokens(t *testing.T) {
	b := NewBuilder("raw.dat", dumpColumns(), BuilderOptions{})
	require.NoError(t, b.Append(1, []string{"7", "1", "0"}))
	require.NoError(t, b.Append(2, []string{"07", "1", "0"}))
	table, err := b.Finalize(nil)
	require.NoError(t, err)

	ix, _ := table.Index("ID")
	assert.Equal(t, []string{"7", "07"}, ix.Keys())
	assert.Equal(t, 1, ix.Count("7"))
	assert.Equal(t, 1, ix.Count("07"))

	view, err := table.Filter("ID", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Rows())
}

func TestIndexExactness(t *testing.T) {
	table := buildScenarioTable(t)

	for _, name := range table.IndexedColumns() {
		ix, _ := table.Index(name)
		col, _ := table.Column(name)

		total := 0
		for _, key := range ix.Keys() {
			rows, ok := ix.Rows(key)
			require.True(t, ok)
			for i, r := range rows {
				assert.Equal(t, key, col.Raw(r))
				if i > 0 {
					assert.Less(t, rows[i-1], r, "positions ascend")
				}
			}
			total += len(rows)
		}
		assert.Equal(t, table.Rows(), total, "index %s covers every row once", name)
	}
}
