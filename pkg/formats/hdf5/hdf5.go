// Package hdf5 reads compound HDF5 datasets, as written by the SixTrack
// HDF5 output, into columnar tables.
//
// Each compound member becomes a column. A configurable set of dataset
// attributes becomes the table metadata. No index is built; callers index
// the columns they need with Table.AddIndex.
//
// Reading needs cgo and the HDF5 C library. Without cgo, Open returns a
// capability error.
package hdf5

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// FormatName is stored under the FORMAT metadata key
const FormatName = "HDF5"

// DatasetKey holds the dataset path in the table metadata
const DatasetKey = "DATASET"

// Field is one member of a compound dataset
type Field struct {
	Name string
	Type schema.Type
}

// Dataset is an open compound dataset
type Dataset interface {
	// Name returns the dataset path inside the file
	Name() string
	// Read returns the compound members and their data
	Read() ([]Field, []columnar.Column, error)
	// Attribute reads a scalar attribute. ok is false when the attribute
	// does not exist.
	Attribute(name string, t schema.Type) (value schema.Scalar, ok bool, err error)
	Close() error
}

// File is an open HDF5 file
type File interface {
	// Datasets lists the datasets at the root of the file
	Datasets() ([]string, error)
	OpenDataset(name string) (Dataset, error)
	Close() error
}

// Load reads dataset from the HDF5 file at path. An empty dataset name
// selects the only dataset of the file.
func Load(ctx context.Context, path, dataset string, cfg config.HDF5Config, log *zap.Logger) (*columnar.Table, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if dataset == "" {
		names, err := f.Datasets()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot list datasets").
				WithDetail("file", path)
		}
		if len(names) != 1 {
			return nil, errors.New(errors.ErrorTypeValidation, "file has several datasets; name one").
				WithDetail("file", path).
				WithDetail("datasets", names)
		}
		dataset = names[0]
	}

	ds, err := f.OpenDataset(dataset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "cannot open dataset").
			WithDetail("file", path).
			WithDetail("dataset", dataset)
	}
	defer ds.Close()

	return FromDataset(path, ds, cfg, log)
}

// FromDataset converts an open dataset into a table. source names the file
// in errors and in Table.Source.
func FromDataset(source string, ds Dataset, cfg config.HDF5Config, log *zap.Logger) (*columnar.Table, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fields, data, err := ds.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot read dataset").
			WithDetail("file", source).
			WithDetail("dataset", ds.Name())
	}

	cols := make([]schema.Column, len(fields))
	for i, f := range fields {
		cols[i] = schema.Column{Name: f.Name, Label: f.Name, Type: f.Type}
	}

	meta := schema.Metadata{
		schema.FormatKey: schema.StringScalar(FormatName),
		DatasetKey:       schema.StringScalar(ds.Name()),
	}

	names := make([]string, 0, len(cfg.Attributes))
	for name := range cfg.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t, _ := schema.ParseType(cfg.Attributes[name])
		v, ok, err := ds.Attribute(name, t)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "cannot read attribute").
				WithDetail("file", source).
				WithDetail("dataset", ds.Name()).
				WithDetail("attribute", name)
		}
		if !ok {
			log.Debug("attribute not present", zap.String("attribute", name))
			continue
		}
		meta[name] = v
	}

	table, err := columnar.NewTable(source, cols, data, meta)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "dataset columns are inconsistent").
			WithDetail("file", source).
			WithDetail("dataset", ds.Name())
	}

	log.Info("hdf5 dataset loaded",
		zap.String("file", source),
		zap.String("dataset", ds.Name()),
		zap.Int("rows", table.Rows()),
		zap.Int("columns", len(cols)))
	return table, nil
}
