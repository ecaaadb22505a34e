package main

import (
	"os"
	"strconv"

	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var weightsCmd = &cobra.Command{
	Use:   "weights <signatures>",
	Short: "List the most discriminative features by fisher score",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeights,
}

func init() {
	weightsCmd.Flags().Float64("used", 0, "fraction of features listed, overrides the config")
}

func runWeights(cmd *cobra.Command, args []string) error {
	a := must(cmd)
	if used, _ := cmd.Flags().GetFloat64("used"); used > 0 {
		a.cfg.Weights.Used = used
	}
	ts := dataset.New(nil, dataset.WithLogger(a.log))
	if err := ts.Load(args[0]); err != nil {
		return err
	}
	stats := ts.ColumnStats()
	columns := make(map[string]int, ts.FeatureCount())
	for i, name := range ts.FeatureNames() {
		columns[name] = i
	}
	if err := ts.Normalize(); err != nil {
		return err
	}
	if err := ts.ComputeFeatureWeights(a.cfg.Weights.Used); err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"rank", "feature", "weight", "mean", "std-dev", "min", "max"})
	for i, f := range ts.RankedWeights(a.cfg.Weights.Used) {
		st := stats[columns[f.Name]]
		table.Append([]string{
			strconv.Itoa(i + 1),
			f.Name,
			strconv.FormatFloat(f.Weight, 'g', 5, 64),
			strconv.FormatFloat(st.Avg(), 'g', 5, 64),
			strconv.FormatFloat(st.StDev(), 'g', 5, 64),
			strconv.FormatFloat(st.Min(), 'g', 5, 64),
			strconv.FormatFloat(st.Max(), 'g', 5, 64),
		})
	}
	table.Render()
	return nil
}
