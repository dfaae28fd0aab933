// Package sttools is a toolbox for the output files of the SixTrack
// particle tracking code and of MadX.
//
// It loads three kinds of tabular files into typed, immutable columnar
// tables:
//   - SixTrack dump and collimation files: a "# DUMP, key = value, ..."
//     metadata line, a "# COL1 COL2 ..." header line and blank-separated rows
//   - MadX TFS tables: "@" metadata lines, "*" column names, "$" column
//     types and rows with quoted strings
//   - HDF5 datasets written by the SixTrack HDF5 module (cgo builds only)
//
// Integer columns, and any column named in the configuration, get an
// inverted index from raw token to row numbers, so that all rows of one
// particle, turn or element can be selected without a scan.
//
// # Quick Start
//
//	table, err := formats.Load(ctx, "dump_ip5.dat.gz", formats.Options{
//	    Logger: log,
//	})
//	if err != nil {
//	    return err
//	}
//
//	view, err := table.Filter("ID", 42)
//	if err != nil {
//	    return err
//	}
//
//	_, err = export.Write(ctx, view, "particle42.parquet", export.Options{})
//
// # Key Packages
//
//	pkg/schema       - Column types, header and metadata line parsing
//	pkg/columnar     - Typed columns, tables, indices and filtered views
//	pkg/formats      - Format detection and the dump, tfs and hdf5 adapters
//	pkg/simset       - Simulation ensemble scanning and concurrent loading
//	pkg/export       - Dump, CSV, JSON lines, Arrow, Parquet and Avro writers
//	pkg/sink         - Upload of exports to S3, GCS or a local folder
//	pkg/compression  - Transparent gzip, zstd, snappy, s2 and lz4 streams
//	pkg/config       - YAML configuration with ${VAR} substitution
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus load metrics
//	pkg/observability - OpenTelemetry tracing
//
// # Command Line
//
//	sttools info twiss.tfs
//	sttools filter dump_ip5.dat --column ID --value 42 --out p42.csv
//	sttools export fort.dat --out fort.parquet --upload s3://bucket/runs
//	sttools scan ./simulations --dataset first_impacts --workers 8
//
// Every flag can also be set through an STTOOLS_ environment variable.
package sttools
