package classifier

import (
	"fmt"
	"math"

	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/model"
)

// Method names a classification rule.
type Method string

const (
	// WNN assigns the class of the closest training sample.
	WNN Method = "wnn"
	// WND assigns the class with the lowest averaged weighted distance.
	WND Method = "wnd"
	// Forest is a random forest baseline, trained on the normalized values.
	Forest Method = "forest"
)

// ParseMethod parses the method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case WNN, WND, Forest:
		return m, nil
	}
	return "", fmt.Errorf("unknown classification method '%s'", s)
}

// Decision is the outcome of classifying a single sample.
type Decision struct {
	// Class is the predicted class.
	Class int
	// Probabilities holds the marginal probability of every class, index 0 is unused.
	Probabilities []float64
	// Score is the distance or score backing the prediction.
	Score float64
}

// Classifier predicts the class of a sample out of a trained set.
// Implementations never modify the trained set or the given sample, so they are safe for concurrent use.
type Classifier interface {
	Classify(s *model.Signature) (Decision, error)
}

// New creates a classifier for the method over the given trained set.
// The set must have been normalized and weighted.
func New(method Method, train *dataset.TrainingSet, opts ...Option) (Classifier, error) {
	cfg := newConfig(opts...)
	if err := check(train); err != nil {
		return nil, err
	}
	switch method {
	case WNN:
		return &NearestNeighbor{train: train, log: train.Logger()}, nil
	case WND:
		return &NeighborDistance{train: train, log: train.Logger()}, nil
	case Forest:
		return NewRandomForest(train, cfg.trees)
	}
	return nil, fmt.Errorf("unknown classification method '%s'", method)
}

// Option configures a classifier.
type Option func(cfg *config)

type config struct {
	trees int
}

func newConfig(opts ...Option) config {
	cfg := config{trees: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTrees sets the number of trees of the forest baseline.
func WithTrees(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.trees = n
		}
	}
}

func check(train *dataset.TrainingSet) error {
	if train.Count() == 0 {
		return fmt.Errorf("no training samples: %w", model.ErrEmptySet)
	}
	if unlabeled := train.ClassSizes()[0]; unlabeled > 0 {
		return fmt.Errorf("%d training samples without a class: %w", unlabeled, model.ErrInvalidClass)
	}
	if !train.Bounded() {
		return fmt.Errorf("training set must be normalized: %w", model.ErrNotNormalized)
	}
	if !train.Weighted() {
		return fmt.Errorf("training set must be weighted: %w", model.ErrNotWeighted)
	}
	return nil
}

// prepare returns a copy of the query normalized with the bounds of the trained set.
func prepare(train *dataset.TrainingSet, s *model.Signature) (*model.Signature, error) {
	q := s.Clone()
	if err := train.NormalizeSample(q); err != nil {
		return nil, err
	}
	return q, nil
}

// weightedSquared returns sum(w * (a - b)^2).
func weightedSquared(weights, a, b []float64) float64 {
	var sum float64
	for f, w := range weights {
		if w == 0 {
			continue
		}
		d := a[f] - b[f]
		sum += w * d * d
	}
	return sum
}

// marginal turns per-class scores, lower being better, into probabilities proportional to the inverse score.
// An exact match of the predicted class takes the whole probability mass.
func marginal(scores []float64, predicted int) []float64 {
	probabilities := make([]float64, len(scores))
	if predicted > 0 && scores[predicted] == 0 {
		probabilities[predicted] = 1
		return probabilities
	}
	var sum float64
	for c := 1; c < len(scores); c++ {
		if scores[c] > 0 && !math.IsInf(scores[c], 1) {
			sum += 1 / scores[c]
		}
	}
	if sum == 0 {
		return probabilities
	}
	for c := 1; c < len(scores); c++ {
		if scores[c] > 0 && !math.IsInf(scores[c], 1) {
			probabilities[c] = (1 / scores[c]) / sum
		}
	}
	return probabilities
}
