package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/drakos74/wndchrm/internal/buffer"
	"github.com/drakos74/wndchrm/internal/model"
	"github.com/drakos74/wndchrm/internal/storage"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minWithinVariance is the floor of the mean within-class variance.
const minWithinVariance = 1e-6

// WeightFactor defines how loaded weights combine with the current ones.
type WeightFactor float64

const (
	Replace  WeightFactor = 0
	Add      WeightFactor = 1
	Subtract WeightFactor = -1
)

// RankedFeature is a feature name with its weight.
type RankedFeature struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// ComputeFeatureWeights computes the Fisher score of every feature
// and zeroes the weights that fall below the (1 - used) quantile.
func (ts *TrainingSet) ComputeFeatureWeights(used float64) error {
	if len(ts.samples) == 0 {
		return fmt.Errorf("cannot compute weights: %w", model.ErrEmptySet)
	}
	if used <= 0 || used > 1 {
		return fmt.Errorf("used fraction %v outside (0,1]", used)
	}

	classes := make([]*buffer.StatsCollector, len(ts.labels))
	for _, s := range ts.samples {
		if s.Class == 0 {
			continue
		}
		if classes[s.Class] == nil {
			classes[s.Class] = buffer.NewStatsCollector(len(ts.names))
		}
		classes[s.Class].Push(s.Values...)
	}

	means := make([]float64, 0, len(classes))
	variances := make([]float64, 0, len(classes))
	for f := range ts.names {
		means = means[:0]
		variances = variances[:0]
		for _, collector := range classes {
			if collector == nil {
				continue
			}
			st := collector.Stats()[f]
			means = append(means, st.Avg())
			variances = append(variances, st.Variance())
		}
		between := 0.0
		if len(means) > 1 {
			between = stat.Variance(means, nil)
		}
		within := floats.Sum(variances) / float64(len(variances))
		if within < minWithinVariance {
			within = minWithinVariance
		}
		ts.weights[f] = between / within
	}

	threshold := weightThreshold(ts.weights, used)
	var zeroed int
	for f, w := range ts.weights {
		if w < threshold {
			ts.weights[f] = 0
			zeroed++
		}
	}
	ts.weighted = true
	ts.log.Debug().
		Int("features", len(ts.names)).
		Int("zeroed", zeroed).
		Float64("threshold", threshold).
		Float64("used", used).
		Msg("computed fisher scores")
	return nil
}

// weightThreshold returns the weight at the (1 - used) quantile.
func weightThreshold(weights []float64, used float64) float64 {
	if len(weights) == 0 {
		return 0
	}
	sorted := make([]float64, len(weights))
	copy(sorted, weights)
	sort.Float64s(sorted)
	index := int(math.Floor((1 - used) * float64(len(sorted))))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// RankedWeights lists the top used fraction of the features by descending weight.
func (ts *TrainingSet) RankedWeights(used float64) []RankedFeature {
	ranked := make([]RankedFeature, len(ts.names))
	for f, name := range ts.names {
		ranked[f] = RankedFeature{Name: name, Weight: ts.weights[f]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})
	n := int(math.Round(used * float64(len(ranked))))
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	return ranked[:n]
}

// SaveWeights writes one '<weight> <name>' line per feature.
func (ts *TrainingSet) SaveWeights(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create weights file '%s': %w", path, err)
	}
	if err := ts.encodeWeights(f); err != nil {
		f.Close()
		return fmt.Errorf("could not write weights to '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close weights file '%s': %w", path, err)
	}
	return nil
}

func (ts *TrainingSet) encodeWeights(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, name := range ts.names {
		if _, err := fmt.Fprintf(bw, "%s %s\n", formatValue(ts.weights[i]), name); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadWeights reads a weight vector file and combines it with the current weights.
// It returns the euclidean distance between the old and the new weight vectors,
// or -1 if the file does not hold one weight per feature.
func (ts *TrainingSet) LoadWeights(path string, factor WeightFactor) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return -1, fmt.Errorf("could not open weights file '%s' %s: %w", path, err.Error(), storage.NotFoundErr)
	}
	defer f.Close()

	loaded := make([]float64, 0, len(ts.names))
	names := make([]string, 0, len(ts.names))
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		w, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return -1, fmt.Errorf("could not parse weight '%s': %w", parts[0], storage.CouldNotLoadErr)
		}
		loaded = append(loaded, w)
		if len(parts) > 1 {
			names = append(names, parts[1])
		} else {
			names = append(names, "")
		}
	}
	if err := scanner.Err(); err != nil {
		return -1, fmt.Errorf("could not read weights file '%s' %s: %w", path, err.Error(), storage.CouldNotLoadErr)
	}
	if len(loaded) != len(ts.names) {
		return -1, fmt.Errorf("%d weights for %d features: %w", len(loaded), len(ts.names), model.ErrFeatureMismatch)
	}
	for i, name := range names {
		if name != ts.names[i] {
			ts.log.Warn().
				Int("index", i).
				Str("loaded", name).
				Str("feature", ts.names[i]).
				Msg("weight name does not match feature")
		}
	}

	updated := make([]float64, len(loaded))
	for i, w := range loaded {
		if factor == Replace {
			updated[i] = w
		} else {
			updated[i] = ts.weights[i] + float64(factor)*w
		}
	}
	distance := floats.Distance(ts.weights, updated, 2)
	ts.weights = updated
	ts.weighted = true
	return distance, nil
}
