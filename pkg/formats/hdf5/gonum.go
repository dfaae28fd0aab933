//go:build cgo

package hdf5

import (
	"reflect"
	"strconv"

	gonum "gonum.org/v1/hdf5"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

type gonumFile struct {
	f *gonum.File
}

// Open opens an HDF5 file read-only
func Open(path string) (File, error) {
	if !gonum.IsHDF5(path) {
		return nil, errors.New(errors.ErrorTypeFile, "not an HDF5 file").
			WithDetail("file", path)
	}
	f, err := gonum.OpenFile(path, gonum.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open HDF5 file").
			WithDetail("file", path)
	}
	return &gonumFile{f: f}, nil
}

func (g *gonumFile) Datasets() ([]string, error) {
	n, err := g.f.NumObjects()
	if err != nil {
		return nil, err
	}
	var names []string
	for i := uint(0); i < n; i++ {
		typ, err := g.f.ObjectTypeByIndex(i)
		if err != nil {
			return nil, err
		}
		if typ != gonum.H5G_DATASET {
			continue
		}
		name, err := g.f.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (g *gonumFile) OpenDataset(name string) (Dataset, error) {
	ds, err := g.f.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	return &gonumDataset{name: name, ds: ds}, nil
}

func (g *gonumFile) Close() error {
	return g.f.Close()
}

type gonumDataset struct {
	name string
	ds   *gonum.Dataset
}

func (d *gonumDataset) Name() string { return d.name }

func (d *gonumDataset) Close() error { return d.ds.Close() }

// Read maps the compound members onto a generated Go struct so the library
// converts each record, then splits the records into columns
func (d *gonumDataset) Read() ([]Field, []columnar.Column, error) {
	dt, err := d.ds.Datatype()
	if err != nil {
		return nil, nil, err
	}
	defer dt.Close()

	if dt.Class() != gonum.T_COMPOUND {
		return nil, nil, errors.New(errors.ErrorTypeCapability, "only compound datasets are supported").
			WithDetail("dataset", d.name)
	}
	ct := &gonum.CompoundType{Datatype: *dt}

	fields := make([]Field, 0, ct.NMembers())
	structFields := make([]reflect.StructField, 0, ct.NMembers())
	for i := 0; i < ct.NMembers(); i++ {
		name := ct.MemberName(i)
		var (
			t  schema.Type
			rt reflect.Type
		)
		switch ct.MemberClass(i) {
		case gonum.T_INTEGER:
			t, rt = schema.TypeInt, reflect.TypeOf(int64(0))
		case gonum.T_FLOAT:
			t, rt = schema.TypeFloat, reflect.TypeOf(float64(0))
		case gonum.T_STRING:
			t, rt = schema.TypeString, reflect.TypeOf("")
		default:
			return nil, nil, errors.New(errors.ErrorTypeCapability, "unsupported compound member type").
				WithDetail("dataset", d.name).
				WithDetail("member", name)
		}
		fields = append(fields, Field{Name: schema.SanitizeName(name), Type: t})
		structFields = append(structFields, reflect.StructField{
			Name: "F" + strconv.Itoa(i),
			Type: rt,
			Tag:  reflect.StructTag(`hdf5:"` + name + `"`),
		})
	}

	space := d.ds.Space()
	defer space.Close()
	n := space.SimpleExtentNPoints()

	rowType := reflect.StructOf(structFields)
	records := reflect.New(reflect.SliceOf(rowType))
	records.Elem().Set(reflect.MakeSlice(reflect.SliceOf(rowType), n, n))
	if err := d.ds.Read(records.Interface()); err != nil {
		return nil, nil, err
	}

	rows := records.Elem()
	data := make([]columnar.Column, len(fields))
	for c, f := range fields {
		switch f.Type {
		case schema.TypeInt:
			values := make([]int64, n)
			for r := 0; r < n; r++ {
				values[r] = rows.Index(r).Field(c).Int()
			}
			data[c] = columnar.NewIntColumn(values)
		case schema.TypeFloat:
			values := make([]float64, n)
			for r := 0; r < n; r++ {
				values[r] = rows.Index(r).Field(c).Float()
			}
			data[c] = columnar.NewFloatColumn(values)
		default:
			values := make([]string, n)
			for r := 0; r < n; r++ {
				values[r] = rows.Index(r).Field(c).String()
			}
			data[c] = columnar.NewStringColumn(values)
		}
	}
	return fields, data, nil
}

func (d *gonumDataset) Attribute(name string, t schema.Type) (schema.Scalar, bool, error) {
	attr, err := d.ds.OpenAttribute(name)
	if err != nil {
		// the library reports a missing attribute as an open failure
		return schema.Scalar{}, false, nil
	}
	defer attr.Close()

	switch t {
	case schema.TypeInt:
		var v int64
		if err := attr.Read(&v, gonum.T_NATIVE_INT64); err != nil {
			return schema.Scalar{}, false, err
		}
		return schema.IntScalar(v), true, nil
	case schema.TypeFloat:
		var v float64
		if err := attr.Read(&v, gonum.T_NATIVE_DOUBLE); err != nil {
			return schema.Scalar{}, false, err
		}
		return schema.FloatScalar(v), true, nil
	default:
		var v string
		if err := attr.Read(&v, gonum.T_GO_STRING); err != nil {
			return schema.Scalar{}, false, err
		}
		return schema.StringScalar(v), true, nil
	}
}
