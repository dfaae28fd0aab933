package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/json"
	"github.com/ajitpratap0/sttools/pkg/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sttools v"+version)
}

func TestInfoJSON(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "dump_ip5.dat", testutil.DumpScenario)

	out, err := run(t, "info", path, "--json")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "\n"), "one JSON object per line")
	var info fileInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dump", info.Format)
	assert.Equal(t, 6, info.Rows)
	assert.Equal(t, "IP5", info.Metadata["BEZ"])
	require.Len(t, info.Columns, 3)
	assert.Equal(t, columnInfo{Name: "ID", Label: "ID", Type: "int", Indexed: true}, info.Columns[0])
	assert.Equal(t, "X[mm]", info.Columns[2].Label)
	assert.False(t, info.Columns[2].Indexed)
}

func TestInfoTables(t *testing.T) {
	dir := t.TempDir()
	dump := testutil.WriteFile(t, dir, "dump_ip5.dat.gz", testutil.DumpScenario)
	twiss := testutil.WriteFile(t, dir, "twiss.tfs", testutil.TFSScenario)

	out, err := run(t, "info", dump)
	require.NoError(t, err)
	assert.Contains(t, out, "File Info:")
	assert.Contains(t, out, "X[mm]")

	out, err = run(t, "info", twiss)
	require.NoError(t, err)
	assert.Contains(t, out, "Data Headers:")
	assert.Contains(t, out, "BETX")
}

func TestInfoMissingFile(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "missing.dat"), "--input-format", "dump")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestFilterPrintsRows(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "dump_ip5.dat", testutil.DumpScenario)

	out, err := run(t, "filter", path, "--column", "ID", "--value", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows with ID = 2")
	assert.Contains(t, out, "1.2")

	_, err = run(t, "filter", path, "--column", "X", "--value", "0.1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestFilterFromEnvironment(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "dump_ip5.dat", testutil.DumpScenario)
	t.Setenv("STTOOLS_COLUMN", "ID")
	t.Setenv("STTOOLS_VALUE", "2")

	out, err := run(t, "filter", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows with ID = 2")

	out, err = run(t, "filter", path, "--value", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows with ID = 3")
}

func TestFilterNeedsColumnAndValue(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "dump_ip5.dat", testutil.DumpScenario)

	for _, args := range [][]string{
		{"filter", path},
		{"filter", path, "--column", "ID"},
		{"filter", path, "--value", "2"},
	} {
		_, err := run(t, args...)
		require.Error(t, err, args)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "%v: %v", args, err)
	}
}

func TestFilterExportsView(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "dump_ip5.dat", testutil.DumpScenario)
	out := filepath.Join(dir, "turn2.csv")

	stdout, err := run(t, "filter", path, "--column", "TURN", "--value", "2", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 3 rows")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "3,2,1.3")
}

func TestExportAndUpload(t *testing.T) {
	dir := t.TempDir()
	uploads := t.TempDir()
	path := testutil.WriteFile(t, dir, "twiss.tfs", testutil.TFSScenario)
	out := filepath.Join(dir, "twiss.parquet")

	stdout, err := run(t, "export", path, "--out", out, "--upload", "file://"+uploads)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 5 rows")
	assert.Contains(t, stdout, "uploaded")
	assert.FileExists(t, filepath.Join(uploads, "twiss.parquet"))

	_, err = run(t, "export", path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"run_1", "run_2"} {
		for file, content := range testutil.InputFiles().With("dump_ip5.dat", testutil.DumpScenario) {
			testutil.WriteFile(t, filepath.Join(root, name), file, content)
		}
	}
	testutil.WriteFile(t, filepath.Join(root, "run_3"), "fort.3", "ENDE\n")

	out, err := run(t, "scan", root)
	require.NoError(t, err)
	assert.Contains(t, out, "3 simulations")
	assert.Contains(t, out, "dump_ip5.dat")

	out, err = run(t, "scan", root, "--dataset", "dump_ip5.dat", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "missing")
}

func TestMetricsOut(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "dump_ip5.dat", testutil.DumpScenario)
	prom := filepath.Join(dir, "sttools.prom")

	_, err := run(t, "info", path, "--json", "--metrics-out", prom)
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sttools_files_loaded_total")
	assert.Contains(t, string(data), `format="dump"`)
}

func TestEnvironmentSetsFlags(t *testing.T) {
	t.Setenv("STTOOLS_LOG_LEVEL", "verbose")
	_, err := run(t, "version")
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testutil.WriteFile(t, dir, "sttools.yaml", "dump:\n  index_columns: [X]\n  comment_markers: \"#\"\n  lenient_row_length: true\n")
	path := testutil.WriteFile(t, dir, "dump_ip5.dat", testutil.DumpScenario)

	out, err := run(t, "--config", cfg, "filter", path, "--column", "X", "--value", "1.3")
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows with X = 1.3")
}
