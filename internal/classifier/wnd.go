package classifier

import (
	"math"

	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/model"
	"github.com/rs/zerolog"
)

// NeighborDistance is the weighted neighbor distance rule.
// Every training sample contributes the square of its weighted squared distance to the score of its class,
// the class with the lowest average score wins.
type NeighborDistance struct {
	train *dataset.TrainingSet
	log   zerolog.Logger
}

// Classify scores every class against the query, empty classes get an infinite score.
func (nd *NeighborDistance) Classify(s *model.Signature) (Decision, error) {
	q, err := prepare(nd.train, s)
	if err != nil {
		return Decision{}, err
	}
	weights := nd.train.Weights()
	n := nd.train.ClassCount() + 1
	sums := make([]float64, n)
	counts := make([]int, n)
	var total float64
	for _, sample := range nd.train.Samples() {
		d := weightedSquared(weights, q.Values, sample.Values)
		sums[sample.Class] += d * d
		counts[sample.Class]++
		total += d * d
	}

	scores := make([]float64, n)
	scores[0] = math.Inf(1)
	predicted := 0
	best := math.Inf(1)
	for c := 1; c < n; c++ {
		if counts[c] == 0 {
			scores[c] = math.Inf(1)
			continue
		}
		scores[c] = sums[c] / float64(counts[c])
		if scores[c] < best {
			best = scores[c]
			predicted = c
		}
	}
	nd.log.Trace().
		Int("class", predicted).
		Float64("score", best).
		Float64("total", total/float64(nd.train.Count())).
		Msg("wnd decision")
	return Decision{
		Class:         predicted,
		Probabilities: marginal(scores, predicted),
		Score:         best,
	}, nil
}
