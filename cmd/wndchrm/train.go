package main

import (
	"fmt"

	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/storage"
	"github.com/drakos74/wndchrm/internal/storage/file/pack"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train <signatures>",
	Short: "Normalize and weight a training set and store it for classification",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().String("name", "default", "name of the stored trained set")
	trainCmd.Flags().String("weights", "", "also write the feature weights to this file")
	trainCmd.Flags().Float64("used", 0, "fraction of features kept, overrides the config")
	trainCmd.Flags().String("out", "", "also write the normalized set to this file")
	trainCmd.Flags().String("merge", "", "combine the computed weights with the weights of this file")
	trainCmd.Flags().String("factor", "replace", "how merged weights combine (replace|add|subtract)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	a := must(cmd)
	if used, _ := cmd.Flags().GetFloat64("used"); used > 0 {
		a.cfg.Weights.Used = used
	}
	name, _ := cmd.Flags().GetString("name")

	ts := dataset.New(nil, dataset.WithLogger(a.log))
	if err := ts.Load(args[0]); err != nil {
		return err
	}
	if err := ts.Normalize(); err != nil {
		return err
	}
	if err := ts.ComputeFeatureWeights(a.cfg.Weights.Used); err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("merge"); path != "" {
		f, _ := cmd.Flags().GetString("factor")
		factor, err := parseFactor(f)
		if err != nil {
			return err
		}
		distance, err := ts.LoadWeights(path, factor)
		if err != nil {
			return err
		}
		a.log.Info().Str("path", path).Float64("distance", distance).Msg("merged weights")
	}
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := ts.Save(path); err != nil {
			return err
		}
	}
	if path, _ := cmd.Flags().GetString("weights"); path != "" {
		if err := ts.SaveWeights(path); err != nil {
			return err
		}
	}

	store := pack.NewPackBlob(storage.SetsDir).WithPath(a.store)
	if err := store.Store(storage.Key{Name: name}, ts.Snapshot()); err != nil {
		return fmt.Errorf("could not store trained set '%s': %w", name, err)
	}
	a.log.Info().
		Str("name", name).
		Int("classes", ts.ClassCount()).
		Int("samples", ts.Count()).
		Float64("used", a.cfg.Weights.Used).
		Msg("stored trained set")
	return nil
}

func parseFactor(s string) (dataset.WeightFactor, error) {
	switch s {
	case "replace":
		return dataset.Replace, nil
	case "add":
		return dataset.Add, nil
	case "subtract":
		return dataset.Subtract, nil
	}
	return dataset.Replace, fmt.Errorf("unknown weight factor '%s'", s)
}
