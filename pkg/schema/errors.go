package schema

import "github.com/ajitpratap0/sttools/pkg/errors"

// Sentinel errors returned (wrapped) by the schema and loader packages.
// Match them with errors.Is.
var (
	// ErrMissingMarker means a required marker line was not found
	ErrMissingMarker = errors.Sentinel(errors.ErrorTypeFormat, "missing marker line")
	// ErrInvalidHeader means a header line yields empty or duplicate names
	ErrInvalidHeader = errors.Sentinel(errors.ErrorTypeFormat, "invalid column header")
	// ErrRowLength means a row's token count differs from the column count
	ErrRowLength = errors.Sentinel(errors.ErrorTypeFormat, "unexpected number of tokens")
	// ErrConversion means a token does not parse as its column type
	ErrConversion = errors.Sentinel(errors.ErrorTypeData, "value conversion failed")
	// ErrNoData means no data line was found to infer column types from
	ErrNoData = errors.Sentinel(errors.ErrorTypeFormat, "no data line")
)
