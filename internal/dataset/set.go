package dataset

import (
	"fmt"
	"math"

	"github.com/drakos74/wndchrm/internal/buffer"
	"github.com/drakos74/wndchrm/internal/model"
	"github.com/rs/zerolog"
)

// Option configures a TrainingSet.
type Option func(ts *TrainingSet)

// WithLogger sets the logger of the set and of all sets derived from it.
func WithLogger(logger zerolog.Logger) Option {
	return func(ts *TrainingSet) {
		ts.log = logger
	}
}

// Unlabeled lets the set hold samples without a class, as sets of queries do.
// Such samples keep class 0 and are skipped by weighting and splitting.
func Unlabeled() Option {
	return func(ts *TrainingSet) {
		ts.unlabeled = true
	}
}

// TrainingSet is a labeled collection of signatures sharing the same feature vector layout.
// It owns its samples, derived sets always receive deep copies.
type TrainingSet struct {
	samples   []*model.Signature
	names     []string
	weights   []float64
	mins      []float64
	maxes     []float64
	labels    []string
	weighted  bool
	bounded   bool
	unlabeled bool
	log       zerolog.Logger
}

// New creates an empty training set for the given class labels.
// Labels are assigned to the class indices 1..len(labels).
func New(labels []string, opts ...Option) *TrainingSet {
	ts := &TrainingSet{
		samples: make([]*model.Signature, 0),
		labels:  append([]string{""}, labels...),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// derive creates an empty set with the same layout and labels.
// Bounds and weights are reset, they must be computed on the derived data itself.
func (ts *TrainingSet) derive() *TrainingSet {
	d := &TrainingSet{
		samples:   make([]*model.Signature, 0),
		labels:    make([]string, len(ts.labels)),
		unlabeled: ts.unlabeled,
		log:       ts.log,
	}
	copy(d.labels, ts.labels)
	d.SetFeatureNames(ts.names)
	return d
}

// Clone creates a deep copy of the set, including bounds and weights.
func (ts *TrainingSet) Clone() *TrainingSet {
	c := ts.derive()
	copy(c.weights, ts.weights)
	copy(c.mins, ts.mins)
	copy(c.maxes, ts.maxes)
	c.weighted = ts.weighted
	c.bounded = ts.bounded
	for _, s := range ts.samples {
		c.samples = append(c.samples, s.Clone())
	}
	return c
}

// SetFeatureNames defines the canonical feature order and resets weights and bounds.
func (ts *TrainingSet) SetFeatureNames(names []string) {
	n := len(names)
	ts.names = make([]string, n)
	copy(ts.names, names)
	ts.weights = make([]float64, n)
	ts.mins = make([]float64, n)
	ts.maxes = make([]float64, n)
	for i := 0; i < n; i++ {
		ts.mins[i] = math.Inf(1)
		ts.maxes[i] = math.Inf(-1)
	}
	ts.weighted = false
	ts.bounded = false
}

// AddClass appends a new class with the given label and returns its index.
func (ts *TrainingSet) AddClass(label string) int {
	ts.labels = append(ts.labels, label)
	return len(ts.labels) - 1
}

// AddSample validates and adds the sample to the set.
// The first sample defines the feature names if the set has none yet.
// Invalid samples are rejected and the set is left untouched.
func (ts *TrainingSet) AddSample(s *model.Signature) error {
	if len(ts.names) == 0 {
		if len(s.Names) == 0 || len(s.Names) != len(s.Values) {
			return fmt.Errorf("first sample of the set has no feature names: %w", model.ErrFeatureMismatch)
		}
		if err := ts.validate(s, nil); err != nil {
			return err
		}
		ts.SetFeatureNames(s.Names)
	} else if err := ts.validate(s, ts.names); err != nil {
		return err
	}
	ts.samples = append(ts.samples, s)
	return nil
}

func (ts *TrainingSet) validate(s *model.Signature, names []string) error {
	if ts.unlabeled && s.Class == 0 {
		return s.ValidateFeatures(names)
	}
	return s.Validate(ts.ClassCount(), names)
}

// MatchFeatures checks that the other set has the same feature name sequence.
func (ts *TrainingSet) MatchFeatures(other *TrainingSet) error {
	if len(ts.names) != len(other.names) {
		return fmt.Errorf("%d features against %d: %w", len(other.names), len(ts.names), model.ErrFeatureMismatch)
	}
	for i, name := range ts.names {
		if other.names[i] != name {
			return fmt.Errorf("feature %d is '%s' instead of '%s': %w", i, other.names[i], name, model.ErrFeatureMismatch)
		}
	}
	return nil
}

// ColumnStats returns the running statistics of every feature column over all samples.
func (ts *TrainingSet) ColumnStats() []*buffer.Stats {
	collector := buffer.NewStatsCollector(len(ts.names))
	for _, s := range ts.samples {
		collector.Push(s.Values...)
	}
	return collector.Stats()
}

// ClassCount returns the number of classes.
func (ts *TrainingSet) ClassCount() int {
	return len(ts.labels) - 1
}

// Count returns the number of samples.
func (ts *TrainingSet) Count() int {
	return len(ts.samples)
}

// FeatureCount returns the length of the feature vector.
func (ts *TrainingSet) FeatureCount() int {
	return len(ts.names)
}

// Samples returns the samples of the set in insertion order.
func (ts *TrainingSet) Samples() []*model.Signature {
	return ts.samples
}

// FeatureNames returns the canonical feature order.
func (ts *TrainingSet) FeatureNames() []string {
	return ts.names
}

// Weights returns the feature weights.
func (ts *TrainingSet) Weights() []float64 {
	return ts.weights
}

// Mins returns the lower normalization bounds.
func (ts *TrainingSet) Mins() []float64 {
	return ts.mins
}

// Maxes returns the upper normalization bounds.
func (ts *TrainingSet) Maxes() []float64 {
	return ts.maxes
}

// Weighted reports if feature weights have been computed or loaded.
func (ts *TrainingSet) Weighted() bool {
	return ts.weighted
}

// Bounded reports if normalization bounds have been computed.
func (ts *TrainingSet) Bounded() bool {
	return ts.bounded
}

// Label returns the display label of the class.
func (ts *TrainingSet) Label(class int) string {
	if class < 0 || class >= len(ts.labels) {
		return ""
	}
	return ts.labels[class]
}

// Labels returns the class labels, index 0 is an unused placeholder.
func (ts *TrainingSet) Labels() []string {
	return ts.labels
}

// ClassSizes returns the number of samples per class, indexed by class.
func (ts *TrainingSet) ClassSizes() []int {
	sizes := make([]int, len(ts.labels))
	for _, s := range ts.samples {
		sizes[s.Class]++
	}
	return sizes
}

// Logger returns the logger of the set.
func (ts *TrainingSet) Logger() zerolog.Logger {
	return ts.log
}

// WithoutClasses returns a copy of the set with the given classes removed.
// Samples of removed classes are dropped and the remaining classes are renumbered contiguously.
func (ts *TrainingSet) WithoutClasses(classes ...int) (*TrainingSet, error) {
	remove := make(map[int]bool, len(classes))
	for _, c := range classes {
		if c < 1 || c > ts.ClassCount() {
			return nil, fmt.Errorf("cannot remove class %d of %d: %w", c, ts.ClassCount(), model.ErrInvalidClass)
		}
		remove[c] = true
	}
	// mapping from old to new class index, 0 for removed classes
	mapping := make([]int, len(ts.labels))
	labels := []string{ts.labels[0]}
	for c := 1; c < len(ts.labels); c++ {
		if remove[c] {
			continue
		}
		labels = append(labels, ts.labels[c])
		mapping[c] = len(labels) - 1
	}

	r := ts.Clone()
	r.labels = labels
	r.samples = make([]*model.Signature, 0, len(ts.samples))
	for _, s := range ts.samples {
		if s.Class != 0 && mapping[s.Class] == 0 {
			continue
		}
		c := s.Clone()
		c.Class = mapping[s.Class]
		r.samples = append(r.samples, c)
	}
	return r, nil
}

// RemoveClass removes the class from the set, renumbering all higher classes down by one.
// The set is only modified if the removal succeeds.
func (ts *TrainingSet) RemoveClass(class int) error {
	r, err := ts.WithoutClasses(class)
	if err != nil {
		return err
	}
	ts.replace(r)
	return nil
}

// replace swaps the contents of the set with the given one.
func (ts *TrainingSet) replace(other *TrainingSet) {
	ts.samples = other.samples
	ts.names = other.names
	ts.weights = other.weights
	ts.mins = other.mins
	ts.maxes = other.maxes
	ts.labels = other.labels
	ts.weighted = other.weighted
	ts.bounded = other.bounded
	ts.unlabeled = other.unlabeled
}
