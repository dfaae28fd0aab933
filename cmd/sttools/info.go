package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/formats"
	"github.com/ajitpratap0/sttools/pkg/formats/tfs"
	"github.com/ajitpratap0/sttools/pkg/json"
	"github.com/ajitpratap0/sttools/pkg/metrics"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

// fileInfo is the --json form of info
type fileInfo struct {
	File     string                 `json:"file"`
	Format   string                 `json:"format"`
	Rows     int                    `json:"rows"`
	Skipped  int                    `json:"skipped"`
	Memory   int64                  `json:"memory_bytes"`
	Metadata map[string]interface{} `json:"metadata"`
	Columns  []columnInfo           `json:"columns"`
}

type columnInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed"`
}

func (a *app) infoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show the columns, types and metadata of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx := cmd.Context()

			format, err := a.inputFormat(ctx, path)
			if err != nil {
				return err
			}
			if format == formats.FormatTFS && !a.v.GetBool("json") {
				return a.tfsSummary(cmd, path)
			}

			table, format, err := a.load(ctx, path)
			if err != nil {
				return err
			}
			info := describe(table, format)
			if a.v.GetBool("json") {
				return json.MarshalToWriter(a.out, info)
			}
			a.renderInfo(info, table.Metadata())
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the summary as JSON")
	return cmd
}

// tfsSummary prints the TFS file info, typed metadata and column tables
func (a *app) tfsSummary(cmd *cobra.Command, path string) error {
	timer := metrics.NewTimer()
	t, err := tfs.Load(cmd.Context(), path, a.cfg.TFS, a.log)
	rows, skipped := 0, 0
	if t != nil {
		rows, skipped = t.Rows(), t.Skipped()
	}
	a.metrics.FileLoaded(string(formats.FormatTFS), rows, skipped, timer.Stop(), err)
	if err != nil {
		return err
	}
	return t.Summary(a.out)
}

func describe(t *columnar.Table, format formats.Format) fileInfo {
	info := fileInfo{
		File:     t.Source(),
		Format:   string(format),
		Rows:     t.Rows(),
		Skipped:  t.Skipped(),
		Memory:   t.MemoryUsage(),
		Metadata: make(map[string]interface{}),
	}
	for key, v := range t.Metadata() {
		info.Metadata[key] = v.Value()
	}
	for _, c := range t.Columns() {
		_, indexed := t.Index(c.Name)
		info.Columns = append(info.Columns, columnInfo{
			Name:    c.Name,
			Label:   c.Label,
			Type:    c.Type.String(),
			Indexed: indexed,
		})
	}
	return info
}

func (a *app) renderInfo(info fileInfo, meta schema.Metadata) {
	fmt.Fprintln(a.out, "File Info:")
	summary := tablewriter.NewWriter(a.out)
	summary.SetHeader([]string{"Field", "Value"})
	summary.Append([]string{"File", info.File})
	summary.Append([]string{"Format", info.Format})
	summary.Append([]string{"Rows", strconv.Itoa(info.Rows)})
	summary.Append([]string{"Skipped", strconv.Itoa(info.Skipped)})
	summary.Append([]string{"Memory", fmt.Sprintf("%.2f kB", float64(info.Memory)/1024)})
	summary.Render()

	fmt.Fprintln(a.out, "Meta Data:")
	mt := tablewriter.NewWriter(a.out)
	mt.SetHeader([]string{"Name", "Type", "Value"})
	for _, key := range meta.Keys() {
		v := meta[key]
		mt.Append([]string{key, v.Type.String(), v.String()})
	}
	mt.Render()

	fmt.Fprintln(a.out, "Columns:")
	cols := tablewriter.NewWriter(a.out)
	cols.SetHeader([]string{"Column", "Label", "Type", "Indexed"})
	for _, c := range info.Columns {
		cols.Append([]string{c.Name, c.Label, c.Type, strconv.FormatBool(c.Indexed)})
	}
	cols.Render()
}
