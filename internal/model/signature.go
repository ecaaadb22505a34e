package model

import (
	"errors"
	"fmt"
	"math"
)

// Infinity is the sentinel feature value for features that could not be computed.
// Values at or above it are treated as missing by normalization.
const Infinity = 1e50

var (
	ErrInvalidClass    = errors.New("invalid class")
	ErrFeatureMismatch = errors.New("feature mismatch")
	ErrNotWeighted     = errors.New("feature weights not computed")
	ErrNotNormalized   = errors.New("feature bounds not computed")
	ErrEmptySet        = errors.New("empty set")
)

// Signature is the feature vector of one image or image tile.
// The order of the features is significant, it defines the position of each value in the vector.
type Signature struct {
	// Names holds the feature names, it can be left empty when the owning set defines them.
	Names  []string
	Values []float64
	// Class is the 1-based class index, 0 means unassigned.
	Class int
	// Source is the originating file of the signature, used only for reporting.
	Source string
	// Interpolated is set by evaluation when all class labels are numeric.
	Interpolated    float64
	HasInterpolated bool
}

// Clone creates a deep copy of the signature.
func (s *Signature) Clone() *Signature {
	c := *s
	if s.Names != nil {
		c.Names = make([]string, len(s.Names))
		copy(c.Names, s.Names)
	}
	c.Values = make([]float64, len(s.Values))
	copy(c.Values, s.Values)
	return &c
}

// Validate checks the signature against the class count and the canonical feature names of a set.
func (s *Signature) Validate(classCount int, names []string) error {
	if s.Class < 1 || s.Class > classCount {
		return fmt.Errorf("class %d outside [1,%d] for '%s': %w", s.Class, classCount, s.Source, ErrInvalidClass)
	}
	return s.ValidateFeatures(names)
}

// ValidateFeatures checks the feature count and, if the signature carries names, their order.
func (s *Signature) ValidateFeatures(names []string) error {
	if len(names) > 0 && len(s.Values) != len(names) {
		return fmt.Errorf("%d values instead of %d for '%s': %w", len(s.Values), len(names), s.Source, ErrFeatureMismatch)
	}
	if len(s.Names) > 0 {
		if len(s.Names) != len(s.Values) {
			return fmt.Errorf("%d names for %d values for '%s': %w", len(s.Names), len(s.Values), s.Source, ErrFeatureMismatch)
		}
		for i, n := range names {
			if s.Names[i] != n {
				return fmt.Errorf("feature %d is '%s' instead of '%s' for '%s': %w", i, s.Names[i], n, s.Source, ErrFeatureMismatch)
			}
		}
	}
	return nil
}

// IsMissing reports if the value is the infinity sentinel or not a number.
func IsMissing(v float64) bool {
	return v >= Infinity || math.IsNaN(v)
}
