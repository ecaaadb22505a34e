package dataset

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/drakos74/wndchrm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tiledSet creates a set with the given number of images per class, each image split into tiles.
func tiledSet(t *testing.T, images []int, tiles int) *TrainingSet {
	labels := make([]string, len(images))
	for c := range images {
		labels[c] = fmt.Sprintf("class-%d", c+1)
	}
	ts := New(labels)
	ts.SetFeatureNames(names)
	for c, n := range images {
		for img := 0; img < n; img++ {
			for tile := 0; tile < tiles; tile++ {
				v := float64(10*(c+1) + img)
				require.NoError(t, ts.AddSample(&model.Signature{
					Class:  c + 1,
					Values: []float64{v, v, float64(tile)},
					Source: fmt.Sprintf("c%d-img%d.tif", c+1, img),
				}))
			}
		}
	}
	return ts
}

func sources(ts *TrainingSet) map[string]int {
	counts := make(map[string]int)
	for _, s := range ts.Samples() {
		counts[s.Source]++
	}
	return counts
}

func TestTrainingSet_Split(t *testing.T) {

	type test struct {
		images []int
		tiles  int
		cfg    SplitConfig
		train  []int
		test   []int
	}

	tests := map[string]test{
		"ratio": {
			images: []int{10, 8},
			tiles:  1,
			cfg:    SplitConfig{Ratio: 0.25},
			train:  []int{0, 7, 6},
			test:   []int{0, 3, 2},
		},
		"tiles": {
			images: []int{4, 4},
			tiles:  4,
			cfg:    SplitConfig{Ratio: 0.5, Tiles: 4},
			train:  []int{0, 8, 8},
			test:   []int{0, 8, 8},
		},
		"max-train": {
			images: []int{10, 6},
			tiles:  1,
			cfg:    SplitConfig{Ratio: 0.5, MaxTrain: 4},
			train:  []int{0, 4, 4},
			test:   []int{0, 6, 2},
		},
		"max-test": {
			images: []int{10, 6},
			tiles:  1,
			cfg:    SplitConfig{Ratio: 0.5, MaxTrain: 2, MaxTest: 3},
			train:  []int{0, 2, 2},
			test:   []int{0, 3, 3},
		},
		"all-test": {
			images: []int{3, 3},
			tiles:  1,
			cfg:    SplitConfig{Ratio: 1},
			train:  []int{0, 0, 0},
			test:   []int{0, 3, 3},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ts := tiledSet(t, tt.images, tt.tiles)
			train, test, err := ts.Split(tt.cfg, rand.New(rand.NewSource(1)))
			require.NoError(t, err)

			assert.Equal(t, tt.train, train.ClassSizes())
			assert.Equal(t, tt.test, test.ClassSizes())
			assert.LessOrEqual(t, train.Count()+test.Count(), ts.Count())
			assert.Equal(t, ts.Labels(), train.Labels())
			assert.Equal(t, ts.Labels(), test.Labels())
			assert.Equal(t, ts.FeatureNames(), test.FeatureNames())

			// tile-groups are never separated
			trainSources := sources(train)
			for src, n := range sources(test) {
				assert.Equal(t, tt.tiles, n)
				_, ok := trainSources[src]
				assert.False(t, ok, "image %s in both sets", src)
			}
			for _, n := range trainSources {
				assert.Equal(t, tt.tiles, n)
			}
		})
	}
}

func TestTrainingSet_Split_Contiguous(t *testing.T) {
	ts := tiledSet(t, []int{5, 5}, 3)
	_, test, err := ts.Split(SplitConfig{Ratio: 0.4, Tiles: 3}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	samples := test.Samples()
	require.Equal(t, 12, len(samples))
	for i := 0; i < len(samples); i += 3 {
		for j := 0; j < 3; j++ {
			assert.Equal(t, samples[i].Source, samples[i+j].Source)
			assert.Equal(t, float64(j), samples[i+j].Values[2])
		}
	}
}

func TestTrainingSet_Split_DeepCopy(t *testing.T) {
	ts := tiledSet(t, []int{4, 4}, 1)
	train, test, err := ts.Split(SplitConfig{Ratio: 0.5}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.NoError(t, train.Normalize())
	require.NoError(t, test.Normalize())
	for _, s := range ts.Samples() {
		assert.GreaterOrEqual(t, s.Values[0], 10.0)
	}
	assert.False(t, ts.Bounded())
	assert.False(t, test.Weighted())
}

func TestTrainingSet_Split_Exact(t *testing.T) {
	ts := tiledSet(t, []int{6, 2, 5}, 1)
	train, test, err := ts.Split(SplitConfig{Ratio: 0.5, MaxTrain: 3, MaxTest: 1, Exact: true}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	// class 2 has 2 <= 3 - 1 groups and is removed everywhere, class 3 is renumbered
	assert.Equal(t, 2, ts.ClassCount())
	assert.Equal(t, []string{"", "class-1", "class-3"}, ts.Labels())
	assert.Equal(t, []int{0, 6, 5}, ts.ClassSizes())
	assert.Equal(t, []int{0, 3, 3}, train.ClassSizes())
	assert.Equal(t, []int{0, 1, 1}, test.ClassSizes())
	assert.Equal(t, ts.Labels(), train.Labels())
	assert.Equal(t, ts.Labels(), test.Labels())
}

func TestTrainingSet_Split_Invalid(t *testing.T) {
	ts := tiledSet(t, []int{2, 2}, 1)
	_, _, err := ts.Split(SplitConfig{Ratio: 2}, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	empty := New([]string{"a"})
	_, _, err = empty.Split(SplitConfig{Ratio: 0.5}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, model.ErrEmptySet)
}
