// Package schema infers the shape of whitespace-delimited physics tables:
// metadata lines, column header lines and per-column scalar types decided
// from the first data row.
package schema
