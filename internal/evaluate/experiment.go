package evaluate

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/drakos74/wndchrm/internal/classifier"
	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Experiment defines repeated split and test runs over one set.
type Experiment struct {
	Split  dataset.SplitConfig
	Used   float64
	Method classifier.Method
	Rank   int
	Splits int
	Seed   int64
}

// Report aggregates the results of an experiment.
type Report struct {
	ID      string                  `json:"id"`
	Method  string                  `json:"method"`
	Results []*Result               `json:"results"`
	Mean    float64                 `json:"mean"`
	StdDev  float64                 `json:"std_dev"`
	Ranked  []dataset.RankedFeature `json:"ranked"`
}

// Accuracies returns the accuracy of every split.
func (r Report) Accuracies() []float64 {
	accuracies := make([]float64, len(r.Results))
	for i, result := range r.Results {
		accuracies[i] = result.Accuracy
	}
	return accuracies
}

// Run splits the set, computes bounds and weights on the train part only and tests the test part, for every split.
// In exact split mode the set itself may lose under-populated classes.
func (e *Evaluator) Run(ctx context.Context, ts *dataset.TrainingSet, exp Experiment) (*Report, error) {
	if exp.Splits < 1 {
		exp.Splits = 1
	}
	rng := rand.New(rand.NewSource(exp.Seed))
	report := &Report{
		ID:      uuid.New().String(),
		Method:  string(exp.Method),
		Results: make([]*Result, 0, exp.Splits),
	}
	for i := 0; i < exp.Splits; i++ {
		train, test, err := ts.Split(exp.Split, rng)
		if err != nil {
			return nil, fmt.Errorf("could not split set for run %d: %w", i, err)
		}
		if err := train.Normalize(); err != nil {
			return nil, fmt.Errorf("could not normalize train set for run %d: %w", i, err)
		}
		if err := train.ComputeFeatureWeights(exp.Used); err != nil {
			return nil, fmt.Errorf("could not weight train set for run %d: %w", i, err)
		}
		result, err := e.Test(ctx, train, test, exp.Method, exp.Split.Tiles, exp.Rank)
		if err != nil {
			return nil, fmt.Errorf("could not test run %d: %w", i, err)
		}
		report.Results = append(report.Results, result)
		if i == exp.Splits-1 {
			report.Ranked = train.RankedWeights(exp.Used)
		}
		e.log.Debug().
			Int("split", i).
			Int("train", train.Count()).
			Int("test", test.Count()).
			Float64("accuracy", result.Accuracy).
			Msg("completed split")
	}
	report.Mean, report.StdDev = stat.MeanStdDev(report.Accuracies(), nil)
	if len(report.Results) < 2 {
		report.StdDev = 0
	}
	e.log.Info().
		Str("id", report.ID).
		Str("method", report.Method).
		Int("splits", len(report.Results)).
		Float64("mean", report.Mean).
		Float64("std-dev", report.StdDev).
		Msg("completed experiment")
	return report, nil
}
