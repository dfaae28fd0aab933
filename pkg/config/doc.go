// Package config holds the settings shared by the loaders, exporters and
// the sttools command.
//
// The configuration is organized into sections:
//   - Logging: level, encoding and output of the zap logger
//   - Dump, TFS: per-adapter loader settings (index columns, row length policy, comment markers)
//   - HDF5: dataset attributes to read and their types
//   - Export: default output format and upload destination
//   - Metrics, Tracing: observability switches
//   - Scan: simulation ensemble loading
//
// Example usage:
//
//	cfg, err := config.Load("sttools.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := dump.Load(ctx, "dump_ip1.dat", cfg.Dump, logger)
package config
