package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/formats"
)

func (a *app) filterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <file>",
		Short: "Select the rows whose indexed column holds a value",
		Long: `Select the rows whose indexed column holds a value. The value is compared
with the raw file token, so integer columns match "1" but not "01".

Without --out the row count and the first rows are printed.

Example:
  sttools filter dump_ip5.dat --column ID --value 3 --out particle3.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			column := a.v.GetString("column")
			value := a.v.GetString("value")
			if column == "" || value == "" {
				return errors.New(errors.ErrorTypeValidation, "a column and a value are required").
					WithDetail("column", column).
					WithDetail("value", value)
			}

			table, format, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}
			if _, ok := table.Index(column); !ok && format == formats.FormatHDF5 {
				a.log.Debug("indexing HDF5 column", zap.String("column", column))
				if err := table.AddIndex(column); err != nil {
					return err
				}
			}

			view, err := formats.Filter(table, column, value, a.metrics)
			if err != nil {
				return err
			}
			a.log.Info("rows selected",
				zap.String("column", column),
				zap.String("value", value),
				zap.Int("rows", view.Rows()))

			if out := a.v.GetString("out"); out != "" {
				return a.write(ctx, view, out)
			}
			a.printf("%d rows with %s = %s\n", view.Rows(), column, value)
			a.printRows(view, a.v.GetInt("limit"))
			return nil
		},
	}
	addInputFlags(cmd)
	addExportFlags(cmd)
	cmd.Flags().String("column", "", "Indexed column to filter on (required, or STTOOLS_COLUMN)")
	cmd.Flags().String("value", "", "Value to select (required, or STTOOLS_VALUE)")
	cmd.Flags().Int("limit", 10, "Number of rows to print when --out is not set")
	return cmd
}

// printRows renders up to limit rows of f using the file tokens
func (a *app) printRows(f columnar.Frame, limit int) {
	if limit <= 0 || f.Rows() == 0 {
		return
	}
	if limit > f.Rows() {
		limit = f.Rows()
	}

	tbl := tablewriter.NewWriter(a.out)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetHeader(f.ColumnNames())
	for i := 0; i < limit; i++ {
		row := make([]string, 0, len(f.Columns()))
		for j := range f.Columns() {
			row = append(row, f.ColumnAt(j).Raw(i))
		}
		tbl.Append(row)
	}
	tbl.Render()
}
