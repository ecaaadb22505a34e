package dataset

import (
	"fmt"

	"github.com/drakos74/wndchrm/internal/model"
)

// Snapshot is the flat, serializable form of a set including its bounds and weights.
type Snapshot struct {
	Labels   []string    `msgpack:"labels" json:"labels"`
	Names    []string    `msgpack:"names" json:"names"`
	Weights  []float64   `msgpack:"weights" json:"weights"`
	Mins     []float64   `msgpack:"mins" json:"mins"`
	Maxes    []float64   `msgpack:"maxes" json:"maxes"`
	Weighted bool        `msgpack:"weighted" json:"weighted"`
	Bounded  bool        `msgpack:"bounded" json:"bounded"`
	Values   [][]float64 `msgpack:"values" json:"values"`
	Classes  []int       `msgpack:"classes" json:"classes"`
	Sources  []string    `msgpack:"sources" json:"sources"`
}

// Snapshot copies the set into its serializable form.
func (ts *TrainingSet) Snapshot() Snapshot {
	c := ts.Clone()
	snap := Snapshot{
		Labels:   c.labels,
		Names:    c.names,
		Weights:  c.weights,
		Mins:     c.mins,
		Maxes:    c.maxes,
		Weighted: c.weighted,
		Bounded:  c.bounded,
		Values:   make([][]float64, len(c.samples)),
		Classes:  make([]int, len(c.samples)),
		Sources:  make([]string, len(c.samples)),
	}
	for i, s := range c.samples {
		snap.Values[i] = s.Values
		snap.Classes[i] = s.Class
		snap.Sources[i] = s.Source
	}
	return snap
}

// FromSnapshot rebuilds a set out of a snapshot, validating every sample.
func FromSnapshot(snap Snapshot, opts ...Option) (*TrainingSet, error) {
	if len(snap.Labels) == 0 {
		return nil, fmt.Errorf("snapshot without label placeholder: %w", model.ErrInvalidClass)
	}
	n := len(snap.Names)
	if len(snap.Weights) != n || len(snap.Mins) != n || len(snap.Maxes) != n {
		return nil, fmt.Errorf("snapshot arrays do not match %d features: %w", n, model.ErrFeatureMismatch)
	}
	if len(snap.Classes) != len(snap.Values) || len(snap.Sources) != len(snap.Values) {
		return nil, fmt.Errorf("snapshot sample arrays are not aligned: %w", model.ErrFeatureMismatch)
	}
	ts := New(snap.Labels[1:], opts...)
	ts.labels[0] = snap.Labels[0]
	ts.SetFeatureNames(snap.Names)
	copy(ts.weights, snap.Weights)
	copy(ts.mins, snap.Mins)
	copy(ts.maxes, snap.Maxes)
	ts.weighted = snap.Weighted
	ts.bounded = snap.Bounded
	for i, values := range snap.Values {
		s := &model.Signature{
			Values: make([]float64, len(values)),
			Class:  snap.Classes[i],
			Source: snap.Sources[i],
		}
		copy(s.Values, values)
		if err := ts.AddSample(s); err != nil {
			return nil, fmt.Errorf("snapshot sample %d rejected: %w", i, err)
		}
	}
	return ts, nil
}
