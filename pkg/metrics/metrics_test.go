package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

func TestFileLoaded(t *testing.T) {
	c := NewCollector()

	c.FileLoaded("dump", 6, 1, 20*time.Millisecond, nil)
	c.FileLoaded("dump", 4, 0, 10*time.Millisecond, nil)
	c.FileLoaded("tfs", 0, 0, time.Millisecond, errors.New(errors.ErrorTypeFormat, "bad row"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.filesLoaded.WithLabelValues("dump", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.filesLoaded.WithLabelValues("tfs", StatusError)))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.rowsLoaded.WithLabelValues("dump")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rowsSkipped.WithLabelValues("dump")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.rowsLoaded.WithLabelValues("tfs")))
}

func TestFilterApplied(t *testing.T) {
	c := NewCollector()

	c.FilterApplied(nil)
	c.FilterApplied(errors.New(errors.ErrorTypeNotFound, "value not found"))
	c.FilterApplied(errors.New(errors.ErrorTypeNotFound, "unknown column"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.filters.WithLabelValues(StatusOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.filters.WithLabelValues(StatusNotFound)))
}

func TestCollectorsDoNotShareState(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.FilterApplied(nil)

	n, err := testutil.GatherAndCount(b.Registry(), "sttools_filter_total")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.FileLoaded("dump", 1, 0, time.Second, nil)
		c.FilterApplied(nil)
	})
	families, err := c.Gather()
	assert.NoError(t, err)
	assert.Nil(t, families)
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.FileLoaded("tfs", 5, 0, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "sttools.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `sttools_files_loaded_total{format="tfs",status="ok"} 1`))
}

func TestWriteTextfileMissingDirectory(t *testing.T) {
	c := NewCollector()

	err := c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "sttools.prom"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusOK, Status(nil))
	assert.Equal(t, StatusNotFound, Status(errors.New(errors.ErrorTypeNotFound, "x")))
	assert.Equal(t, StatusError, Status(os.ErrClosed))
}
