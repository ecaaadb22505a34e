package classifier

import (
	"math"

	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/model"
	"github.com/rs/zerolog"
)

// NearestNeighbor is the weighted nearest neighbor rule.
// The prediction is the class of the closest training sample, the first one scanned winning ties.
type NearestNeighbor struct {
	train *dataset.TrainingSet
	log   zerolog.Logger
}

// Classify computes the weighted euclidean distance to every training sample.
// The minimum distance per class drives the probabilities.
func (nn *NearestNeighbor) Classify(s *model.Signature) (Decision, error) {
	q, err := prepare(nn.train, s)
	if err != nil {
		return Decision{}, err
	}
	weights := nn.train.Weights()
	closest := make([]float64, nn.train.ClassCount()+1)
	for c := range closest {
		closest[c] = math.Inf(1)
	}
	predicted := 0
	best := math.Inf(1)
	for _, sample := range nn.train.Samples() {
		d := math.Sqrt(weightedSquared(weights, q.Values, sample.Values))
		if d < best {
			best = d
			predicted = sample.Class
		}
		if d < closest[sample.Class] {
			closest[sample.Class] = d
		}
	}
	nn.log.Trace().
		Int("class", predicted).
		Float64("distance", best).
		Msg("wnn decision")
	return Decision{
		Class:         predicted,
		Probabilities: marginal(closest, predicted),
		Score:         best,
	}, nil
}
