package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/wndchrm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingSet_ComputeFeatureWeights(t *testing.T) {
	// f1 has identical class means, f2 is well separated, f3 is separated but noisy
	ts := newSet(t, []string{"a", "b"},
		[]float64{1, 1, 0, 0},
		[]float64{1, 3, 1, 10},
		[]float64{2, 1, 10, 5},
		[]float64{2, 3, 11, 15},
	)
	require.NoError(t, ts.ComputeFeatureWeights(1))
	assert.True(t, ts.Weighted())

	w := ts.Weights()
	assert.Equal(t, 0.0, w[0])
	// means 0.5 and 10.5 -> sample variance 50, within variance 0.25
	assert.InDelta(t, 200, w[1], 1e-9)
	// means 5 and 10 -> sample variance 12.5, within variance 25
	assert.InDelta(t, 0.5, w[2], 1e-9)
	assert.Greater(t, w[1], w[0])
}

func TestTrainingSet_ComputeFeatureWeights_Degenerate(t *testing.T) {

	type test struct {
		set      func(t *testing.T) *TrainingSet
		expected []float64
	}

	tests := map[string]test{
		"single-class": {
			set: func(t *testing.T) *TrainingSet {
				return newSet(t, []string{"a", "b"},
					[]float64{1, 1, 2, 3},
					[]float64{1, 4, 5, 6},
				)
			},
			expected: []float64{0, 0, 0},
		},
		"zero-variance": {
			set: func(t *testing.T) *TrainingSet {
				return newSet(t, []string{"a", "b"},
					[]float64{1, 0, 1, 1},
					[]float64{1, 0, 1, 1},
					[]float64{2, 0, 2, 1},
					[]float64{2, 0, 2, 1},
				)
			},
			// means 1 and 2 -> variance 0.5 over the epsilon floor
			expected: []float64{0, 0.5 / 1e-6, 0},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ts := tt.set(t)
			require.NoError(t, ts.ComputeFeatureWeights(1))
			for f, w := range ts.Weights() {
				assert.InDelta(t, tt.expected[f], w, 1e-6)
			}
		})
	}
}

func TestTrainingSet_ComputeFeatureWeights_Selection(t *testing.T) {
	ts := newSet(t, []string{"a", "b"},
		[]float64{1, 1, 0, 0},
		[]float64{1, 3, 1, 10},
		[]float64{2, 1, 10, 5},
		[]float64{2, 3, 11, 15},
	)
	assert.Error(t, ts.ComputeFeatureWeights(0))
	assert.Error(t, ts.ComputeFeatureWeights(1.5))

	// threshold at index floor(0.66 * 3) = 1, the second smallest weight survives
	require.NoError(t, ts.ComputeFeatureWeights(0.34))
	w := ts.Weights()
	assert.Equal(t, 0.0, w[0])
	assert.Greater(t, w[1], 0.0)
	assert.Greater(t, w[2], 0.0)

	// threshold at index floor(0.9 * 3) = 2, only the best feature survives
	require.NoError(t, ts.ComputeFeatureWeights(0.1))
	w = ts.Weights()
	assert.Equal(t, 0.0, w[2])
	assert.Greater(t, w[1], 0.0)

	ranked := ts.RankedWeights(0.34)
	require.Len(t, ranked, 1)
	assert.Equal(t, "f2", ranked[0].Name)
	assert.Len(t, ts.RankedWeights(1), 3)
}

func TestTrainingSet_Weights_File(t *testing.T) {
	ts := clusters(t)
	require.NoError(t, ts.ComputeFeatureWeights(1))
	original := append([]float64{}, ts.Weights()...)

	path := filepath.Join(t.TempDir(), "weights.txt")
	require.NoError(t, ts.SaveWeights(path))

	type test struct {
		factor   WeightFactor
		expected func(w float64) float64
		distance func(w []float64) float64
	}

	tests := map[string]test{
		"replace": {
			factor:   Replace,
			expected: func(w float64) float64 { return w },
		},
		"add": {
			factor:   Add,
			expected: func(w float64) float64 { return 2 * w },
		},
		"subtract": {
			factor:   Subtract,
			expected: func(w float64) float64 { return 0 },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := ts.Clone()
			distance, err := c.LoadWeights(path, tt.factor)
			require.NoError(t, err)
			var sq float64
			for f, w := range c.Weights() {
				assert.InEpsilon(t, tt.expected(original[f])+1, w+1, 1e-4)
				d := w - original[f]
				sq += d * d
			}
			assert.InDelta(t, sq, distance*distance, 1e-3*(1+sq))
		})
	}
}

func TestTrainingSet_LoadWeights_Mismatch(t *testing.T) {
	ts := clusters(t)
	path := filepath.Join(t.TempDir(), "weights.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 f1\n2 f2\n"), 0644))

	distance, err := ts.LoadWeights(path, Replace)
	assert.ErrorIs(t, err, model.ErrFeatureMismatch)
	assert.Equal(t, -1.0, distance)
	assert.False(t, ts.Weighted())

	_, err = ts.LoadWeights(filepath.Join(t.TempDir(), "missing.txt"), Replace)
	assert.Error(t, err)
}
