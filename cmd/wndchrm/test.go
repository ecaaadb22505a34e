package main

import (
	"fmt"
	"os"

	"github.com/drakos74/wndchrm/internal/classifier"
	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/evaluate"
	"github.com/drakos74/wndchrm/internal/storage"
	"github.com/drakos74/wndchrm/internal/storage/file/json"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test <signatures>",
	Short: "Evaluate a classifier with repeated random train/test splits",
	Args:  cobra.ExactArgs(1),
	RunE:  runTest,
}

func init() {
	testCmd.Flags().String("method", "", "classification method (wnn|wnd|forest)")
	testCmd.Flags().Int("rank", 0, "count an image as accurate if its class is within the rank most probable")
	testCmd.Flags().Int("splits", 0, "number of random splits")
	testCmd.Flags().Float64("ratio", -1, "fraction of images per class used for testing")
	testCmd.Flags().Int("tiles", 0, "number of tiles per image")
	testCmd.Flags().Int("max-train", -1, "maximum training images per class")
	testCmd.Flags().Int("max-test", -1, "maximum test images per class")
	testCmd.Flags().Bool("exact", false, "drop classes without enough images")
	testCmd.Flags().Int("workers", 0, "images classified concurrently")
	testCmd.Flags().String("report", "", "store the json report under this name")
	testCmd.Flags().Bool("summary", false, "print per class precision and recall")
}

func runTest(cmd *cobra.Command, args []string) error {
	a := must(cmd)
	cfg := a.cfg
	flags := cmd.Flags()
	if m, _ := flags.GetString("method"); m != "" {
		cfg.Classify.Method = m
	}
	if v, _ := flags.GetInt("rank"); v > 0 {
		cfg.Classify.Rank = v
	}
	if v, _ := flags.GetInt("splits"); v > 0 {
		cfg.Classify.Splits = v
	}
	if v, _ := flags.GetInt("workers"); v > 0 {
		cfg.Classify.Workers = v
	}
	if v, _ := flags.GetFloat64("ratio"); v >= 0 {
		cfg.Split.Ratio = v
	}
	if v, _ := flags.GetInt("tiles"); v > 0 {
		cfg.Split.Tiles = v
	}
	if v, _ := flags.GetInt("max-train"); v >= 0 {
		cfg.Split.MaxTrain = v
	}
	if v, _ := flags.GetInt("max-test"); v >= 0 {
		cfg.Split.MaxTest = v
	}
	if v, _ := flags.GetBool("exact"); v {
		cfg.Split.Exact = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	method, err := classifier.ParseMethod(cfg.Classify.Method)
	if err != nil {
		return err
	}

	ts := dataset.New(nil, dataset.WithLogger(a.log))
	if err := ts.Load(args[0]); err != nil {
		return err
	}

	evaluator := evaluate.New(
		evaluate.WithLogger(a.log),
		evaluate.WithWorkers(cfg.Classify.Workers),
		evaluate.WithClassifierOptions(classifier.WithTrees(cfg.Classify.Trees)),
	)
	report, err := evaluator.Run(cmd.Context(), ts, evaluate.Experiment{
		Split:  cfg.Split,
		Used:   cfg.Weights.Used,
		Method: method,
		Rank:   cfg.Classify.Rank,
		Splits: cfg.Classify.Splits,
		Seed:   cfg.Classify.Seed,
	})
	if err != nil {
		return err
	}

	last := report.Results[len(report.Results)-1]
	fmt.Fprintln(os.Stdout, "confusion matrix")
	last.WriteConfusion(os.Stdout)
	fmt.Fprintln(os.Stdout, "similarity matrix")
	last.WriteSimilarity(os.Stdout)
	report.WriteReport(os.Stdout)
	if summary, _ := flags.GetBool("summary"); summary {
		fmt.Fprintln(os.Stdout, last.Summary())
	}

	name, _ := flags.GetString("report")
	if err := reports(a, name, method).Store(storage.Key{Name: name, Label: report.ID}, report); err != nil {
		return fmt.Errorf("could not store report: %w", err)
	}
	return nil
}

// reports returns the store of the experiment reports, reports without a name are discarded.
func reports(a *app, name string, method classifier.Method) storage.Persistence {
	if name == "" {
		return storage.NewVoidStorage()
	}
	return json.NewJsonBlob(storage.ReportsDir, string(method), a.cfg.Log.Level == "debug").WithPath(a.store)
}
