// Package errors provides examples of structured error handling in sttools.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeFormat, "row has an unexpected number of tokens").
		WithDetail("file", "dump_ip1.dat").
		WithDetail("line", 42)

	fmt.Println(err.Error())

	// Output:
	// format: row has an unexpected number of tokens [file=dump_ip1.dat line=42]
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	originalErr := io.ErrUnexpectedEOF

	err := errors.Wrap(originalErr, errors.ErrorTypeFile, "failed to read dump file").
		WithDetail("file", "dump.dat")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Original error was unexpected EOF")
	}

	// Output:
	// This is a file error
	// Original error was unexpected EOF
}

// ExampleSentinel demonstrates matching a wrapped sentinel.
func ExampleSentinel() {
	errNotIndexed := errors.Sentinel(errors.ErrorTypeNotFound, "unknown column")

	err := errors.Wrap(errNotIndexed, errors.ErrorTypeNotFound, "column is not indexed").
		WithDetail("column", "BEZ")

	fmt.Println(errors.Is(err, errNotIndexed))
	fmt.Println(err)

	// Output:
	// true
	// not_found: column is not indexed [column=BEZ]: not_found: unknown column
}

// ExampleIsType demonstrates checking error types.
func ExampleIsType() {
	fileErr := errors.New(errors.ErrorTypeNotFound, "file not found")
	wrapped := errors.Wrap(fileErr, errors.ErrorTypeData, "load failed")

	fmt.Printf("Is not_found: %v\n", errors.IsType(fileErr, errors.ErrorTypeNotFound))
	fmt.Printf("Wrapped is data: %v\n", errors.IsType(wrapped, errors.ErrorTypeData))
	fmt.Printf("Wrapped is not_found: %v\n", errors.IsType(wrapped, errors.ErrorTypeNotFound))

	// Output:
	// Is not_found: true
	// Wrapped is data: true
	// Wrapped is not_found: false
}
