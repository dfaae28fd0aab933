package formats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/metrics"
	fixtures "github.com/ajitpratap0/sttools/pkg/testutil"
)

func TestDetect(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    Format
	}{
		{"tfs extension", "twiss.tfs", "anything", FormatTFS},
		{"compressed tfs extension", "twiss.tfs.gz", fixtures.TFSScenario, FormatTFS},
		{"hdf5 extension", "run.h5", "", FormatHDF5},
		{"sniffed tfs", "twiss.out", "\n" + fixtures.TFSScenario, FormatTFS},
		{"sniffed tfs names line", "names.dat", "* NAME S\n$ %s %le\n", FormatTFS},
		{"sniffed dump", "dump_ip5.dat", fixtures.DumpScenario, FormatDump},
		{"sniffed compressed dump", "dump_ip5.dat.zst", fixtures.DumpScenario, FormatDump},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := fixtures.WriteFile(t, dir, tt.file, tt.content)
			got, err := Detect(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Detect(context.Background(), filepath.Join(dir, "missing.dat"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	empty := fixtures.WriteFile(t, dir, "empty.dat", "\n\n")
	_, err = Detect(context.Background(), empty)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("TFS")
	require.NoError(t, err)
	assert.Equal(t, FormatTFS, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	_, err = ParseFormat("sdds")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()
	collector := metrics.NewCollector()
	ctx, cancel := fixtures.TestContext(t)
	defer cancel()

	dumpPath := fixtures.WriteFile(t, dir, "dump_ip5.dat", fixtures.DumpScenario)
	table, err := Load(ctx, dumpPath, Options{Metrics: collector, Logger: fixtures.TestLogger(t)})
	require.NoError(t, err)
	assert.Equal(t, 6, table.Rows())
	assert.Equal(t, []string{"ID", "TURN"}, table.IndexedColumns())

	tfsPath := fixtures.WriteFile(t, dir, "twiss.tfs", fixtures.TFSScenario)
	table, err = Load(ctx, tfsPath, Options{Metrics: collector})
	require.NoError(t, err)
	assert.Equal(t, 5, table.Rows())

	n, err := testutil.GatherAndCount(collector.Registry(), "sttools_files_loaded_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per format")
}

func TestLoadForcedFormat(t *testing.T) {
	dir := t.TempDir()
	path := fixtures.WriteFile(t, dir, "twiss.dat", fixtures.TFSScenario)

	table, err := Load(context.Background(), path, Options{Format: FormatTFS})
	require.NoError(t, err)
	assert.Equal(t, 5, table.Rows())
}

func TestLoadFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	collector := metrics.NewCollector()
	path := fixtures.WriteFile(t, dir, "bad.tfs", "* NAME S\n$ %s %le\n\"A\" 1.0 2.0\n")

	_, err := Load(context.Background(), path, Options{Metrics: collector})
	require.Error(t, err)
	assert.True(t, errors.Is(err, columnar.ErrRowLength))

	families, err := collector.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "sttools_files_loaded_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == metrics.StatusError {
					found = true
				}
			}
		}
	}
	assert.True(t, found)
}

func TestFilterRecordsOutcome(t *testing.T) {
	dir := t.TempDir()
	collector := metrics.NewCollector()
	path := fixtures.WriteFile(t, dir, "dump_ip5.dat", fixtures.DumpScenario)

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)

	view, err := Filter(table, "TURN", 1, collector)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Rows())

	_, err = Filter(table, "TURN", 99, collector)
	assert.True(t, errors.Is(err, columnar.ErrValueNotFound))

	n, err := testutil.GatherAndCount(collector.Registry(), "sttools_filter_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
