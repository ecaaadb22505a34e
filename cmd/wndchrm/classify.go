package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/drakos74/wndchrm/internal/classifier"
	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/storage"
	"github.com/drakos74/wndchrm/internal/storage/file/pack"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <signatures>",
	Short: "Classify every signature of a file against a stored trained set",
	Long:  `Classify every signature of a file against a stored trained set. Signatures may be unlabeled, class 0, or carry the class of the trained set.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().String("name", "default", "name of the stored trained set")
	classifyCmd.Flags().String("method", "", "classification method (wnn|wnd|forest)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	a := must(cmd)
	name, _ := cmd.Flags().GetString("name")
	if m, _ := cmd.Flags().GetString("method"); m != "" {
		a.cfg.Classify.Method = m
	}
	method, err := classifier.ParseMethod(a.cfg.Classify.Method)
	if err != nil {
		return err
	}

	var snap dataset.Snapshot
	store := pack.NewPackBlob(storage.SetsDir).WithPath(a.store)
	if err := store.Load(storage.Key{Name: name}, &snap); err != nil {
		return fmt.Errorf("could not load trained set '%s': %w", name, err)
	}
	train, err := dataset.FromSnapshot(snap, dataset.WithLogger(a.log))
	if err != nil {
		return err
	}
	queries, err := loadQueries(args[0], train, a.log)
	if err != nil {
		return err
	}

	cls, err := classifier.New(method, train, classifier.WithTrees(a.cfg.Classify.Trees))
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"source", "predicted", "probability"})
	for _, s := range queries.Samples() {
		decision, err := cls.Classify(s)
		if err != nil {
			return err
		}
		table.Append([]string{
			s.Source,
			train.Label(decision.Class),
			strconv.FormatFloat(decision.Probabilities[decision.Class], 'f', 3, 64),
		})
	}
	table.Render()
	return nil
}

// loadQueries loads the signatures to classify, they must share the feature layout of the trained set.
func loadQueries(path string, train *dataset.TrainingSet, log zerolog.Logger) (*dataset.TrainingSet, error) {
	queries := dataset.New(nil, dataset.WithLogger(log), dataset.Unlabeled())
	if err := queries.Load(path); err != nil {
		return nil, err
	}
	if err := train.MatchFeatures(queries); err != nil {
		return nil, fmt.Errorf("signatures of '%s' do not match the trained set: %w", path, err)
	}
	return queries, nil
}
