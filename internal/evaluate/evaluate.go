package evaluate

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/drakos74/wndchrm/internal/classifier"
	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/metrics"
	"github.com/drakos74/wndchrm/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Option configures an Evaluator.
type Option func(e *Evaluator)

// WithLogger sets the logger of the evaluator.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.log = logger
	}
}

// WithWorkers sets the number of images classified concurrently.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClassifierOptions passes options to the classifiers created by the evaluator.
func WithClassifierOptions(opts ...classifier.Option) Option {
	return func(e *Evaluator) {
		e.classifierOptions = append(e.classifierOptions, opts...)
	}
}

// Evaluator classifies test sets against trained sets and aggregates the decisions.
type Evaluator struct {
	log               zerolog.Logger
	workers           int
	classifierOptions []classifier.Option
}

// New creates a new evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		log:     zerolog.Nop(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of evaluating one test set.
// Matrices are indexed by class starting at 1, rows are the actual and columns the predicted classes.
type Result struct {
	ID            string      `json:"id"`
	Method        string      `json:"method"`
	Labels        []string    `json:"labels"`
	Confusion     [][]int     `json:"confusion"`
	Similarity    [][]float64 `json:"similarity"`
	Images        int         `json:"images"`
	Accurate      int         `json:"accurate"`
	Accuracy      float64     `json:"accuracy"`
	ClassAccuracy []float64   `json:"class_accuracy"`
	// Pearson correlates the interpolated values with the numeric class labels, if all labels are numeric.
	Pearson    float64 `json:"pearson"`
	HasPearson bool    `json:"has_pearson"`
}

func newResult(method classifier.Method, labels []string) *Result {
	n := len(labels)
	r := &Result{
		ID:            uuid.New().String(),
		Method:        string(method),
		Labels:        append([]string{}, labels...),
		Confusion:     make([][]int, n),
		Similarity:    make([][]float64, n),
		ClassAccuracy: make([]float64, n),
	}
	for c := 0; c < n; c++ {
		r.Confusion[c] = make([]int, n)
		r.Similarity[c] = make([]float64, n)
	}
	return r
}

// Test classifies every image of the test set against the trained set.
// Images consist of tiles contiguous samples, their tile probabilities are averaged before the decision.
// An image counts as accurate if its class is within the rank most probable classes,
// the confusion matrix records only the most probable one.
func (e *Evaluator) Test(ctx context.Context, train, test *dataset.TrainingSet, method classifier.Method, tiles, rank int) (*Result, error) {
	if tiles < 1 {
		tiles = 1
	}
	if rank < 1 {
		rank = 1
	}
	if test.Count() == 0 {
		return nil, fmt.Errorf("nothing to test: %w", model.ErrEmptySet)
	}
	if test.ClassCount() != train.ClassCount() {
		return nil, fmt.Errorf("test set has %d classes, trained set %d: %w", test.ClassCount(), train.ClassCount(), model.ErrInvalidClass)
	}
	if err := train.MatchFeatures(test); err != nil {
		return nil, fmt.Errorf("test set does not match the trained set: %w", err)
	}
	if sizes := test.ClassSizes(); sizes[0] > 0 {
		return nil, fmt.Errorf("%d test samples without a class: %w", sizes[0], model.ErrInvalidClass)
	}
	if test.Count() < tiles {
		return nil, fmt.Errorf("%d test samples do not fill an image of %d tiles: %w", test.Count(), tiles, model.ErrEmptySet)
	}
	if rest := test.Count() % tiles; rest != 0 {
		e.log.Warn().
			Int("samples", test.Count()).
			Int("tiles", tiles).
			Msg("incomplete image at the end of the test set ignored")
	}

	cls, err := classifier.New(method, train, e.classifierOptions...)
	if err != nil {
		return nil, fmt.Errorf("could not create '%s' classifier: %w", method, err)
	}

	samples := test.Samples()
	images := len(samples) / tiles
	probabilities := make([][]float64, images)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < images; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			p, err := classifyImage(cls, samples[i*tiles:(i+1)*tiles], train.ClassCount())
			if err != nil {
				return fmt.Errorf("could not classify image %d: %w", i, err)
			}
			probabilities[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := newResult(method, train.Labels())
	values, numeric := numericLabels(train.Labels())
	imageAccurate := make([]int, len(result.Labels))
	imageCount := make([]int, len(result.Labels))
	interpolated := make([]float64, 0, images)
	actuals := make([]float64, 0, images)
	for i, p := range probabilities {
		actual := samples[i*tiles].Class
		picks := topClasses(p, rank)
		predicted := picks[0]
		accurate := false
		for _, c := range picks {
			if c == actual {
				accurate = true
			}
		}

		result.Confusion[actual][predicted]++
		for c := 1; c < len(p); c++ {
			result.Similarity[actual][c] += p[c]
		}
		imageCount[actual]++
		if accurate {
			result.Accurate++
			imageAccurate[actual]++
		}
		metrics.Observer.Classified(string(method), accurate)

		if numeric {
			var v float64
			for c := 1; c < len(p); c++ {
				v += p[c] * values[c]
			}
			for _, s := range samples[i*tiles : (i+1)*tiles] {
				s.Interpolated = v
				s.HasInterpolated = true
			}
			interpolated = append(interpolated, v)
			actuals = append(actuals, values[actual])
		}
		e.log.Trace().
			Str("source", samples[i*tiles].Source).
			Int("actual", actual).
			Int("predicted", predicted).
			Bool("accurate", accurate).
			Msg("classified image")
	}

	for c := 1; c < len(result.Similarity); c++ {
		if d := result.Similarity[c][c]; d > 0 {
			for j := 1; j < len(result.Similarity[c]); j++ {
				result.Similarity[c][j] /= d
			}
		}
		if imageCount[c] > 0 {
			result.ClassAccuracy[c] = float64(imageAccurate[c]) / float64(imageCount[c])
		}
	}
	result.Images = images
	result.Accuracy = float64(result.Accurate) / float64(images)
	if len(interpolated) > 1 {
		if r := stat.Correlation(interpolated, actuals, nil); !math.IsNaN(r) {
			result.Pearson = r
			result.HasPearson = true
		}
	}
	metrics.Observer.Accuracy(string(method), result.Accuracy)
	e.log.Info().
		Str("id", result.ID).
		Str("method", result.Method).
		Int("images", images).
		Int("rank", rank).
		Float64("accuracy", result.Accuracy).
		Msg("tested set")
	return result, nil
}

// classifyImage averages the class probabilities of the tiles of an image.
func classifyImage(cls classifier.Classifier, tiles []*model.Signature, classes int) ([]float64, error) {
	p := make([]float64, classes+1)
	for _, tile := range tiles {
		decision, err := cls.Classify(tile)
		if err != nil {
			return nil, err
		}
		for c := 1; c < len(p) && c < len(decision.Probabilities); c++ {
			p[c] += decision.Probabilities[c]
		}
	}
	for c := range p {
		p[c] /= float64(len(tiles))
	}
	return p, nil
}

// topClasses returns the rank most probable classes in decreasing order, lower classes winning ties.
func topClasses(p []float64, rank int) []int {
	if rank > len(p)-1 {
		rank = len(p) - 1
	}
	selected := make([]bool, len(p))
	picks := make([]int, 0, rank)
	for r := 0; r < rank; r++ {
		best := 0
		for c := 1; c < len(p); c++ {
			if selected[c] {
				continue
			}
			if best == 0 || p[c] > p[best] {
				best = c
			}
		}
		selected[best] = true
		picks = append(picks, best)
	}
	return picks
}

// numericLabels parses the class labels as numbers, index 0 is ignored.
func numericLabels(labels []string) ([]float64, bool) {
	values := make([]float64, len(labels))
	for c := 1; c < len(labels); c++ {
		v, err := strconv.ParseFloat(labels[c], 64)
		if err != nil {
			return nil, false
		}
		values[c] = v
	}
	return values, len(labels) > 1
}
