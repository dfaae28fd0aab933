//go:build !cgo

package hdf5

import "github.com/ajitpratap0/sttools/pkg/errors"

// Open reports that HDF5 support was not compiled in
func Open(path string) (File, error) {
	return nil, errors.New(errors.ErrorTypeCapability, "HDF5 support requires a cgo build").
		WithDetail("file", path)
}
