package tfs

import (
	"bytes"
	"context"
	"io"
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

func parse(t *testing.T, content string) (*Table, error) {
	t.Helper()
	return Parse(context.Background(), "twiss.tfs", strings.NewReader(content), config.DefaultTFSConfig(), testutil.TestLogger(t))
}

func TestLoad(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "twiss.tfs", testutil.TFSScenario)

	table, err := Load(context.Background(), path, config.DefaultTFSConfig(), testutil.TestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 5, table.Rows())
	assert.Equal(t, []string{"NAME", "KEYWORD", "S", "BETX", "MU1"}, table.ColumnNames())
	assert.Equal(t, []string{"%s", "%s", "%le", "%le", "%d"}, table.ColumnTypes())
	assert.Equal(t, []string{"MU1"}, table.IndexedColumns())
	assert.Positive(t, table.Size())

	meta := table.Metadata()
	assert.Equal(t, []string{"NAME", "TYPE", "LENGTH", "NPART"}, table.MetadataNames())
	name, _ := meta.Text("NAME")
	assert.Equal(t, "TWISS", name)
	length, _ := meta.Float("LENGTH")
	assert.Equal(t, 100.0, length)
	npart, _ := meta.Int("NPART")
	assert.Equal(t, int64(2), npart)

	names, _ := table.Column("NAME")
	assert.Equal(t, []string{"IP1", "MQ.1R1", "MQ.2R1", "IP5", "MQ.1R5"}, names.(*columnar.StringColumn).Values())

	view, err := table.Filter("MU1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Rows())
}

func TestRowLengthIsStrict(t *testing.T) {
	content := "* NAME S X Y\n$ %s %le %le %le\n\"A\" 1.0 2.0 3.0\n\"B\" 1.0 2.0 3.0 4.0\n"
	_, err := parse(t, content)
	require.Error(t, err)
	assert.True(t, errors.Is(err, columnar.ErrRowLength))
	assert.Contains(t, err.Error(), "line=4")

	lenient := config.DefaultTFSConfig()
	lenient.LenientRowLength = true
	table, err := Parse(context.Background(), "twiss.tfs", strings.NewReader(content), lenient, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Rows())
}

func TestQuotedStringsWithBlanks(t *testing.T) {
	content := "@ TITLE %s \"LHC optics v6.5\"\n* NAME COMMENT N\n$ %s %s %d\n\"IP 1\" 'a b c' 7\n"
	table, err := parse(t, content)
	require.NoError(t, err)

	title, _ := table.Metadata().Text("TITLE")
	assert.Equal(t, "LHC optics v6.5", title)
	assert.Equal(t, []interface{}{"IP 1", "a b c", int64(7)}, table.Row(0))
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"unknown metadata type", "@ X %q 1\n* A\n$ %d\n1\n", ErrUnknownType},
		{"unknown column type", "* A B\n$ %d %z\n1 2\n", ErrUnknownType},
		{"type count", "* A B\n$ %d\n1 2\n", schema.ErrInvalidHeader},
		{"data before header", "@ X %d 1\n1 2\n", schema.ErrMissingMarker},
		{"types before names", "$ %d\n* A\n1\n", ErrOutOfOrder},
		{"metadata after header", "* A\n$ %d\n@ X %d 1\n1\n", ErrOutOfOrder},
		{"repeated names", "* A\n* A\n$ %d\n1\n", ErrOutOfOrder},
		{"metadata conversion", "@ X %d abc\n* A\n$ %d\n1\n", schema.ErrConversion},
		{"data conversion", "* A\n$ %d\n1.5\n", schema.ErrConversion},
		{"no header at all", "@ X %d 1\n", schema.ErrMissingMarker},
		{"duplicate names", "* A A\n$ %d %d\n1 1\n", schema.ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), "twiss.tfs")
		})
	}
}

func TestHeaderWithoutRows(t *testing.T) {
	table, err := parse(t, "@ X %d 1\n* A B\n$ %d %s\n")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Rows())
	assert.Equal(t, []string{"A", "B"}, table.ColumnNames())
}

func TestCommentsAreSkipped(t *testing.T) {
	table, err := parse(t, "# generated\n* A\n$ %d\n# mid\n1\n\n2\n")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rows())
}

func TestSplitQuoted(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`"IP1" 0.0 1`, []string{`"IP1"`, "0.0", "1"}},
		{`  "a b"	'c d'  x`, []string{`"a b"`, `'c d'`, "x"}},
		{`"it's" "x"`, []string{`"it's"`, `"x"`}},
		{``, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitQuoted(tt.line), tt.line)
	}
}

func TestSummary(t *testing.T) {
	table, err := parse(t, testutil.TFSScenario)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.Summary(&buf))
	out := buf.String()

	assert.Contains(t, out, "twiss.tfs")
	assert.Contains(t, out, "LENGTH")
	assert.Contains(t, out, "1.000000000000000e+02")
	assert.Contains(t, out, `"TWISS"`)
	assert.Contains(t, out, "BETX")
}

// limitedWriter fails once more than n bytes were written
type limitedWriter struct {
	n         int
	failed    bool
	afterFail int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if lw.failed {
		lw.afterFail++
		return 0, io.ErrShortWrite
	}
	if len(p) > lw.n {
		lw.failed = true
		return lw.n, io.ErrShortWrite
	}
	lw.n -= len(p)
	return len(p), nil
}

func TestSummaryWriteError(t *testing.T) {
	table, err := parse(t, testutil.TFSScenario)
	require.NoError(t, err)

	for _, limit := range []int{0, 20, 400} {
		lw := &limitedWriter{n: limit}
		err := table.Summary(lw)
		require.Error(t, err, "limit %d", limit)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
		assert.ErrorIs(t, err, io.ErrShortWrite)
		assert.Zero(t, lw.afterFail, "writes after the first failure, limit %d", limit)
	}
}
