package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
	"github.com/ajitpratap0/sttools/pkg/testutil"
)

type memDataset struct {
	name   string
	fields []Field
	data   []columnar.Column
	attrs  map[string]schema.Scalar
	err    error
}

func (m *memDataset) Name() string { return m.name }

func (m *memDataset) Read() ([]Field, []columnar.Column, error) {
	return m.fields, m.data, m.err
}

func (m *memDataset) Attribute(name string, t schema.Type) (schema.Scalar, bool, error) {
	v, ok := m.attrs[name]
	return v, ok, nil
}

func (m *memDataset) Close() error { return nil }

func dumpDataset() *memDataset {
	return &memDataset{
		name: "/dump/ip5",
		fields: []Field{
			{Name: "ID", Type: schema.TypeInt},
			{Name: "TURN", Type: schema.TypeInt},
			{Name: "X", Type: schema.TypeFloat},
		},
		data: []columnar.Column{
			columnar.NewIntColumn([]int64{1, 2, 1}),
			columnar.NewIntColumn([]int64{1, 1, 2}),
			columnar.NewFloatColumn([]float64{0.1, 0.2, 0.3}),
		},
		attrs: map[string]schema.Scalar{
			"S":       schema.FloatScalar(26658.88),
			"NPART":   schema.IntScalar(2),
			"UNITS_X": schema.StringScalar("mm"),
		},
	}
}

func TestFromDataset(t *testing.T) {
	table, err := FromDataset("run.h5", dumpDataset(), config.DefaultHDF5Config(), testutil.TestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "run.h5", table.Source())
	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, []string{"ID", "TURN", "X"}, table.ColumnNames())
	assert.Empty(t, table.IndexedColumns())

	meta := table.Metadata()
	format, _ := meta.Text(schema.FormatKey)
	assert.Equal(t, FormatName, format)
	dataset, _ := meta.Text(DatasetKey)
	assert.Equal(t, "/dump/ip5", dataset)

	s, ok := meta.Float("S")
	require.True(t, ok)
	assert.InDelta(t, 26658.88, s, 1e-9)
	npart, ok := meta.Int("NPART")
	require.True(t, ok)
	assert.Equal(t, int64(2), npart)
	units, _ := meta.Text("UNITS_X")
	assert.Equal(t, "mm", units)

	_, ok = meta.Int("KTRACK")
	assert.False(t, ok, "missing attributes are skipped")
}

func TestFromDatasetIndexOnDemand(t *testing.T) {
	table, err := FromDataset("run.h5", dumpDataset(), config.DefaultHDF5Config(), nil)
	require.NoError(t, err)

	require.NoError(t, table.AddIndex("ID"))
	idx, ok := table.Index("ID")
	require.True(t, ok)
	rows, ok := idx.Rows("1")
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, rows)
}

func TestFromDatasetErrors(t *testing.T) {
	t.Run("read failure", func(t *testing.T) {
		ds := dumpDataset()
		ds.err = errors.New(errors.ErrorTypeCapability, "only compound datasets are supported")

		_, err := FromDataset("run.h5", ds, config.DefaultHDF5Config(), nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	})

	t.Run("ragged columns", func(t *testing.T) {
		ds := dumpDataset()
		ds.data[2] = columnar.NewFloatColumn([]float64{0.1})

		_, err := FromDataset("run.h5", ds, config.DefaultHDF5Config(), nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
	})

	t.Run("invalid attribute type", func(t *testing.T) {
		cfg := config.HDF5Config{Attributes: map[string]string{"S": "complex"}}

		_, err := FromDataset("run.h5", dumpDataset(), cfg, nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}
