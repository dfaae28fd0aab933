// Package columnar holds loaded physics tables in typed columns and keeps
// inverted indices over selected columns for fast particle and turn
// lookups.
//
// # Overview
//
// A Table is built in a single pass by a Builder:
//
//	b := columnar.NewBuilder("dump_ip1.dat", cols, columnar.BuilderOptions{Lenient: true})
//	for each data line {
//	    if err := b.Append(lineNo, tokens); err != nil { ... }
//	}
//	table, err := b.Finalize(meta)
//
// Append keeps the raw tokens and, for every indexed column, records the
// row position under the raw token. Finalize converts the raw tokens to
// IntColumn, FloatColumn or StringColumn storage according to the inferred
// column types. A conversion failure fails the whole table.
//
// # Indices
//
// Index keys are the raw tokens as written in the file, so "7" and "07" are
// different keys. Positions are stored in ascending order. Integer columns
// are indexed by default; further columns can be indexed with
// Table.AddIndex once the table is finalized.
//
// # Filtering
//
//	view, err := table.Filter("TURN", 1)
//	if errors.Is(err, columnar.ErrValueNotFound) { ... }
//
// A FilteredView owns copies of the selected values, gathered in index
// order. It never shares mutable state with its Table.
//
// # Concurrency
//
// A finalized Table is read-only: Filter and the accessors may be called
// from several goroutines. AddIndex mutates the table and must not run
// concurrently with other calls.
package columnar
