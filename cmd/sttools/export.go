package main

import (
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

func (a *app) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Convert a file to another format",
		Long: `Convert a file to dump, CSV, JSON lines, Arrow IPC, Parquet or Avro.

The output format is taken from --format or the --out extension. Text formats
are compressed when --out ends in .gz, .zst, .lz4 or .sz.

Example:
  sttools export twiss.tfs --out twiss.parquet --upload s3://beam-data/runs/42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.v.GetString("out")
			if out == "" {
				return errors.New(errors.ErrorTypeValidation, "--out is required")
			}
			table, _, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.write(cmd.Context(), table, out)
		},
	}
	addInputFlags(cmd)
	addExportFlags(cmd)
	return cmd
}
