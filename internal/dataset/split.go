package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/drakos74/wndchrm/internal/model"
)

// SplitConfig defines how a set is partitioned into train and test sets.
type SplitConfig struct {
	// Ratio is the fraction of tile-groups of each class moved to the test set.
	Ratio float64 `toml:"ratio" json:"ratio"`
	// Tiles is the number of contiguous samples forming one image.
	Tiles int `toml:"tiles" json:"tiles"`
	// MaxTrain caps the training tile-groups per class, 0 means unlimited.
	MaxTrain int `toml:"max_train" json:"max_train"`
	// MaxTest caps the test tile-groups per class, 0 means unlimited.
	MaxTest int `toml:"max_test" json:"max_test"`
	// Exact removes classes without enough groups for the requested train and test sizes.
	Exact bool `toml:"exact" json:"exact"`
}

// groups returns the sample indices of each class chunked into tile-groups, indexed by class.
func (ts *TrainingSet) groups(tiles int) [][][]int {
	members := make([][]int, len(ts.labels))
	for i, s := range ts.samples {
		members[s.Class] = append(members[s.Class], i)
	}
	groups := make([][][]int, len(ts.labels))
	for c, m := range members {
		if c == 0 {
			// unlabeled samples are never split
			continue
		}
		for start := 0; start+tiles <= len(m); start += tiles {
			groups[c] = append(groups[c], m[start:start+tiles])
		}
		if rest := len(m) % tiles; rest != 0 {
			ts.log.Warn().
				Int("class", c).
				Int("samples", len(m)).
				Int("tiles", tiles).
				Msg("incomplete tile-group ignored")
		}
	}
	return groups
}

// Split partitions the set per class into a train and a test set.
// Tile-groups are selected for the test set uniformly at random and never separated.
// In exact mode under-populated classes are removed from the set itself before splitting.
func (ts *TrainingSet) Split(cfg SplitConfig, rng *rand.Rand) (*TrainingSet, *TrainingSet, error) {
	if cfg.Tiles < 1 {
		cfg.Tiles = 1
	}
	if cfg.Ratio < 0 || cfg.Ratio > 1 {
		return nil, nil, fmt.Errorf("split ratio %v outside [0,1]", cfg.Ratio)
	}
	if len(ts.samples) == 0 {
		return nil, nil, fmt.Errorf("cannot split: %w", model.ErrEmptySet)
	}

	if cfg.Exact {
		if err := ts.pruneClasses(cfg); err != nil {
			return nil, nil, err
		}
	}

	train := ts.derive()
	test := ts.derive()
	groups := ts.groups(cfg.Tiles)
	for c := 1; c < len(groups); c++ {
		count := len(groups[c])
		nTest := testSize(count, cfg)

		selected := rng.Perm(count)[:nTest]
		sort.Ints(selected)
		isTest := make([]bool, count)
		for _, g := range selected {
			isTest[g] = true
			for _, i := range groups[c][g] {
				test.samples = append(test.samples, ts.samples[i].Clone())
			}
		}

		var nTrain int
		for g := 0; g < count; g++ {
			if isTest[g] {
				continue
			}
			if cfg.MaxTrain > 0 && nTrain >= cfg.MaxTrain {
				break
			}
			for _, i := range groups[c][g] {
				train.samples = append(train.samples, ts.samples[i].Clone())
			}
			nTrain++
		}
		ts.log.Debug().
			Int("class", c).
			Int("groups", count).
			Int("train", nTrain).
			Int("test", nTest).
			Msg("split class")
	}
	return train, test, nil
}

// testSize returns the number of tile-groups of a class going to the test set.
func testSize(count int, cfg SplitConfig) int {
	n := int(math.Round(cfg.Ratio * float64(count)))
	if cfg.MaxTrain > 0 {
		n = count - cfg.MaxTrain
	}
	if cfg.MaxTest > 0 && n > cfg.MaxTest {
		n = cfg.MaxTest
	}
	if n < 0 {
		n = 0
	}
	if n > count {
		n = count
	}
	return n
}

// pruneClasses removes the classes with at most MaxTrain - MaxTest tile-groups.
// The set is replaced at once so that it is never left partially renumbered.
func (ts *TrainingSet) pruneClasses(cfg SplitConfig) error {
	limit := cfg.MaxTrain - cfg.MaxTest
	sizes := ts.ClassSizes()
	remove := make([]int, 0)
	for c := 1; c < len(sizes); c++ {
		if sizes[c]/cfg.Tiles <= limit {
			remove = append(remove, c)
		}
	}
	if len(remove) == 0 {
		return nil
	}
	pruned, err := ts.WithoutClasses(remove...)
	if err != nil {
		return fmt.Errorf("could not prune under-populated classes: %w", err)
	}
	ts.log.Info().
		Ints("classes", remove).
		Int("limit", limit).
		Msg("removed under-populated classes")
	ts.replace(pruned)
	return nil
}
