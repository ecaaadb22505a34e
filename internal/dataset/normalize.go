package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/drakos74/wndchrm/internal/model"
)

const (
	// Scale is the upper end of the normalized value range.
	Scale = 100.0
	// lowerPercentile and upperPercentile define the clipping bounds of a feature column.
	lowerPercentile = 0.025
	upperPercentile = 0.975
)

// Normalize computes the clipping bounds of every feature column and rescales all samples into [0, Scale].
// The bounds are stored so that foreign samples can be normalized the same way with NormalizeSample.
func (ts *TrainingSet) Normalize() error {
	if len(ts.samples) == 0 {
		return fmt.Errorf("cannot normalize: %w", model.ErrEmptySet)
	}
	column := make([]float64, len(ts.samples))
	for f := range ts.names {
		for i, s := range ts.samples {
			column[i] = s.Values[f]
		}
		ts.mins[f], ts.maxes[f] = bounds(column)
		for _, s := range ts.samples {
			s.Values[f] = rescale(s.Values[f], ts.mins[f], ts.maxes[f])
		}
	}
	ts.bounded = true
	ts.log.Debug().
		Int("features", len(ts.names)).
		Int("samples", len(ts.samples)).
		Msg("normalized training set")
	return nil
}

// NormalizeSample rescales the sample in place with the bounds computed on the set.
func (ts *TrainingSet) NormalizeSample(s *model.Signature) error {
	if !ts.bounded {
		return fmt.Errorf("cannot normalize '%s': %w", s.Source, model.ErrNotNormalized)
	}
	if len(s.Values) != len(ts.names) {
		return fmt.Errorf("cannot normalize '%s' with %d values against %d features: %w",
			s.Source, len(s.Values), len(ts.names), model.ErrFeatureMismatch)
	}
	if err := s.ValidateFeatures(ts.names); err != nil {
		return fmt.Errorf("cannot normalize: %w", err)
	}
	for f := range s.Values {
		s.Values[f] = rescale(s.Values[f], ts.mins[f], ts.maxes[f])
	}
	return nil
}

// bounds returns the lower and upper percentile values of the column.
// Trailing missing values are excluded from the upper bound.
func bounds(column []float64) (float64, float64) {
	sorted := make([]float64, len(column))
	for i, v := range column {
		if math.IsNaN(v) {
			v = model.Infinity
		}
		sorted[i] = v
	}
	sort.Float64s(sorted)
	minIndex := int(math.Floor(lowerPercentile * float64(len(sorted))))
	maxIndex := len(sorted) - 1
	for maxIndex > 0 && model.IsMissing(sorted[maxIndex]) {
		maxIndex--
	}
	maxIndex = int(math.Floor(upperPercentile * float64(maxIndex)))
	if minIndex > maxIndex {
		// mostly missing values
		minIndex = maxIndex
	}
	return sorted[minIndex], sorted[maxIndex]
}

// rescale clips the value to [min, max] and maps it linearly to [0, Scale].
// Missing values and degenerate ranges map to 0.
func rescale(v, min, max float64) float64 {
	if model.IsMissing(v) || min >= max {
		return 0
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	r := (v - min) / (max - min) * Scale
	if r > Scale {
		return Scale
	}
	if r < 0 {
		return 0
	}
	return r
}
