package dump

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
	"github.com/ajitpratap0/sttools/pkg/testutil"
)

func parse(t *testing.T, content string, cfg config.LoaderConfig) (*columnar.Table, error) {
	t.Helper()
	return Parse(context.Background(), "fixture.dat", strings.NewReader(content), cfg, testutil.TestLogger(t))
}

func TestLoadScenario(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "dump_ip5.dat", testutil.DumpScenario)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	table, err := Load(ctx, path, config.DefaultDumpConfig(), testutil.TestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 6, table.Rows())
	assert.Equal(t, []string{"ID", "TURN", "X"}, table.ColumnNames())

	cols := table.Columns()
	assert.Equal(t, schema.TypeInt, cols[0].Type)
	assert.Equal(t, schema.TypeInt, cols[1].Type)
	assert.Equal(t, schema.TypeFloat, cols[2].Type)
	assert.Equal(t, "X[mm]", cols[2].Label)
	assert.Equal(t, []string{"ID", "TURN"}, table.IndexedColumns())

	view, err := table.Filter("TURN", "1")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Rows())

	_, err = table.Filter("TURN", "99")
	assert.True(t, errors.Is(err, columnar.ErrValueNotFound))
}

func TestMetadataLine(t *testing.T) {
	table, err := parse(t, "# DUMP, bez = IP5, number of particles = 2\n# ID TURN\n1 1\n", config.DefaultDumpConfig())
	require.NoError(t, err)

	meta := table.Metadata()
	bez, ok := meta.Text("BEZ")
	require.True(t, ok)
	assert.Equal(t, "IP5", bez)

	n, ok := meta.Int("NUMBER_OF_PARTICLES")
	require.True(t, ok)
	assert.Equal(t, int64(2), n)

	format, _ := meta.Text(schema.FormatKey)
	assert.Equal(t, "DUMP", format)
}

func TestSingleHeaderLine(t *testing.T) {
	table, err := parse(t, "% ID TURN S\n1 1 0.0\n2 1 0.5\n", config.DefaultDumpConfig())
	require.NoError(t, err)

	format, _ := table.Metadata().Text(schema.FormatKey)
	assert.Equal(t, schema.UnknownFormat, format)
	assert.Equal(t, []string{"ID", "TURN", "S"}, table.ColumnNames())
	assert.Equal(t, 2, table.Rows())
}

func TestMiddleHeaderLinesAreIgnored(t *testing.T) {
	content := "# DUMP, bez = IP1\n! produced by SixTrack\n# ID TURN\n1 1\n"
	table, err := parse(t, content, config.DefaultDumpConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "TURN"}, table.ColumnNames())
}

func TestCommentsAndBlankLinesInData(t *testing.T) {
	content := "# DUMP\n# ID TURN\n\n1 1\n# turn 2\n   \n  2 2\n! end\n"
	table, err := parse(t, content, config.DefaultDumpConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rows())
}

func TestLenientRowLength(t *testing.T) {
	content := "# DUMP\n# ID TURN X\n1 1 0.5\n2 1\n3 1 0.5 9\n4 1 0.5\n"
	table, err := parse(t, content, config.DefaultDumpConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rows())
	assert.Equal(t, 2, table.Skipped())

	strict := config.DefaultDumpConfig()
	strict.LenientRowLength = false
	_, err = parse(t, content, strict)
	require.Error(t, err)
	assert.True(t, errors.Is(err, columnar.ErrRowLength))
	assert.Contains(t, err.Error(), "line=4")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"no marker", "1 1 0.5\n", schema.ErrMissingMarker},
		{"no data", "# DUMP\n# ID TURN\n", schema.ErrNoData},
		{"empty file", "", schema.ErrNoData},
		{"type change", "# DUMP\n# ID X\n1 1\n2 abc\n", schema.ErrConversion},
		{"duplicate column", "# DUMP\n# ID id\n1 1\n", schema.ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.content, config.DefaultDumpConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), "fixture.dat")
		})
	}
}

func TestFirstRowLengthMismatch(t *testing.T) {
	content := "# DUMP\n# ID TURN X\n1 1\n2 1 0.5\n3 1 0.7\n"

	table, err := parse(t, content, config.DefaultDumpConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rows())
	assert.Equal(t, 1, table.Skipped())
	col, ok := table.Column("X")
	require.True(t, ok)
	assert.Equal(t, schema.TypeFloat, col.Type())
	idx, ok := table.Index("ID")
	require.True(t, ok)
	rows, ok := idx.Rows("2")
	require.True(t, ok)
	assert.Equal(t, []int{0}, rows)

	strict := config.DefaultDumpConfig()
	strict.LenientRowLength = false
	_, err = parse(t, content, strict)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrRowLength), "got %v", err)
	assert.Contains(t, err.Error(), "line=3")
}

func TestAllRowsSkipped(t *testing.T) {
	_, err := parse(t, "# DUMP\n# ID TURN\n1 1 1\n", config.DefaultDumpConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrNoData), "got %v", err)
}

func TestTypeInferenceIsStable(t *testing.T) {
	// the first row decides: X is int here and a later float fails the load
	_, err := parse(t, "# DUMP\n# ID X\n1 1\n2 1.5\n", config.DefaultDumpConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrConversion))

	// while a float first row accepts later integral tokens
	table, err := parse(t, "# DUMP\n# ID X\n1 1.5\n2 1\n", config.DefaultDumpConfig())
	require.NoError(t, err)
	x, _ := table.Column("X")
	assert.Equal(t, []float64{1.5, 1}, x.(*columnar.FloatColumn).Values())
}

func TestIndexColumns(t *testing.T) {
	cfg := config.DefaultDumpConfig()
	cfg.IndexColumns = []string{"BEZ", "MISSING"}

	table, err := parse(t, "# DUMP\n# ID BEZ\n1 IP1\n2 IP5\n3 IP1\n", cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "BEZ"}, table.IndexedColumns())

	view, err := table.Filter("BEZ", "IP1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Rows())
}

func TestStringColumnFilterIsUnknown(t *testing.T) {
	table, err := parse(t, "# DUMP\n# ID BEZ\n1 IP1\n", config.DefaultDumpConfig())
	require.NoError(t, err)

	_, err = table.Filter("BEZ", "IP1")
	assert.True(t, errors.Is(err, columnar.ErrUnknownColumn))
}

func TestCompressedInput(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "dump.dat.gz", testutil.DumpScenario)
	table, err := Load(context.Background(), path, config.DefaultDumpConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Rows())
}

func TestLoadIsIdempotent(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "dump.dat", testutil.DumpScenario)

	a, err := Load(context.Background(), path, config.DefaultDumpConfig(), nil)
	require.NoError(t, err)
	b, err := Load(context.Background(), path, config.DefaultDumpConfig(), nil)
	require.NoError(t, err)

	require.Equal(t, a.Rows(), b.Rows())
	for i := 0; i < a.Rows(); i++ {
		assert.Equal(t, a.Row(i), b.Row(i))
	}
	assert.Equal(t, a.Metadata(), b.Metadata())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.dat"), config.DefaultDumpConfig(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestCancelledLoad(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, "fixture.dat", strings.NewReader(testutil.DumpScenario), config.DefaultDumpConfig(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
