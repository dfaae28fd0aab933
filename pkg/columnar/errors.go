package columnar

import (
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// Sentinel errors. Match them with errors.Is.
var (
	// ErrUnknownColumn means the column does not exist or is not indexed
	ErrUnknownColumn = errors.Sentinel(errors.ErrorTypeNotFound, "unknown column")
	// ErrValueNotFound means no row holds the requested value
	ErrValueNotFound = errors.Sentinel(errors.ErrorTypeNotFound, "value not found")
	// ErrFinalized means the builder no longer accepts rows
	ErrFinalized = errors.Sentinel(errors.ErrorTypeInternal, "builder already finalized")

	// ErrRowLength is re-exported from schema
	ErrRowLength = schema.ErrRowLength
	// ErrConversion is re-exported from schema
	ErrConversion = schema.ErrConversion
)
