package main

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/sttools/pkg/simset"
)

func (a *app) scanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "List the simulations of an ensemble folder",
		Long: `List the simulation folders below dir and the datasets they hold. A folder
is a simulation when it contains fort.2 or fort.3.

With --dataset the dataset is loaded from every simulation holding it and the
row count of each is reported. Datasets may be named by file or by alias,
e.g. dist0, first_impacts or coll_summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := simset.OptionsFromConfig(a.cfg, a.metrics, a.log)
			if only := a.v.GetStringSlice("only"); len(only) > 0 {
				opts.LoadOnly = only
			}
			if a.v.GetBool("force") {
				opts.ForceAccept = true
			}

			set, err := simset.Scan(args[0], opts)
			if err != nil {
				return err
			}

			dataset := a.v.GetString("dataset")
			if dataset == "" {
				a.renderSimulations(set)
				return nil
			}

			results, err := set.LoadAll(cmd.Context(), dataset, a.v.GetInt("workers"))
			if err != nil {
				return err
			}
			name, _ := set.Resolve(dataset)
			ok := color.New(color.FgGreen).SprintFunc()
			missing := color.New(color.FgYellow).SprintFunc()

			loaded := make(map[string]int, len(results))
			for _, r := range results {
				loaded[r.Simulation] = r.Table.Rows()
			}
			tbl := tablewriter.NewWriter(a.out)
			tbl.SetHeader([]string{"Simulation", "Status", "Rows"})
			for _, sim := range set.Simulations() {
				rows, found := loaded[sim.Name]
				if !found {
					tbl.Append([]string{sim.Name, missing("missing"), "-"})
					continue
				}
				tbl.Append([]string{sim.Name, ok("loaded"), strconv.Itoa(rows)})
			}
			a.printf("Dataset %s:\n", name)
			tbl.Render()
			return nil
		},
	}
	cmd.Flags().String("dataset", "", "Load this dataset from every simulation")
	cmd.Flags().Int("workers", 0, "Concurrent loads; 0 uses the configured scan workers")
	cmd.Flags().StringSlice("only", nil, "Only scan these simulation folders")
	cmd.Flags().Bool("force", false, "Accept folders without fort.2 or fort.3")
	return cmd
}

func (a *app) renderSimulations(set *simset.Set) {
	a.printf("%d simulations in %s\n", set.Len(), set.Root())
	tbl := tablewriter.NewWriter(a.out)
	tbl.SetHeader([]string{"Simulation", "Files", "Datasets"})
	tbl.SetAutoWrapText(false)
	for _, sim := range set.Simulations() {
		tbl.Append([]string{sim.Name, strconv.Itoa(len(sim.Files)), strings.Join(sim.Datasets, " ")})
	}
	tbl.Render()

	if ds := set.Datasets(); len(ds) > 0 {
		a.printf("Datasets: %s\n", color.CyanString(strings.Join(ds, ", ")))
	}
}
