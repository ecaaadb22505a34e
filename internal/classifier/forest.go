package classifier

import (
	"fmt"

	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/drakos74/wndchrm/internal/model"
	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog"
)

// RandomForest is a baseline classifier over the normalized feature values.
// Feature weights are not used for the decision, the forest importances are exposed for comparison instead.
type RandomForest struct {
	train  *dataset.TrainingSet
	forest *randomforest.Forest
	log    zerolog.Logger
}

// NewRandomForest trains a forest with the given number of trees on the trained set.
func NewRandomForest(train *dataset.TrainingSet, trees int) (*RandomForest, error) {
	if train.FeatureCount() == 0 {
		return nil, fmt.Errorf("no features to train a forest: %w", model.ErrFeatureMismatch)
	}
	xData := make([][]float64, train.Count())
	yData := make([]int, train.Count())
	for i, s := range train.Samples() {
		xData[i] = s.Values
		// forest classes start at 0
		yData[i] = s.Class - 1
	}
	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: xData, Class: yData}
	forest.Train(trees)
	rf := &RandomForest{
		train:  train,
		forest: forest,
		log:    train.Logger(),
	}
	rf.log.Debug().
		Int("trees", trees).
		Int("samples", len(xData)).
		Msg("trained random forest")
	return rf, nil
}

// Importance returns the forest feature importances, aligned with the feature names.
func (rf *RandomForest) Importance() []float64 {
	return rf.forest.FeatureImportance
}

// Classify returns the class with the highest share of votes, the vote shares being the probabilities.
func (rf *RandomForest) Classify(s *model.Signature) (Decision, error) {
	q, err := prepare(rf.train, s)
	if err != nil {
		return Decision{}, err
	}
	votes := rf.forest.Vote(q.Values)
	probabilities := make([]float64, rf.train.ClassCount()+1)
	predicted := 0
	best := -1.0
	for i, v := range votes {
		c := i + 1
		if c >= len(probabilities) {
			break
		}
		probabilities[c] = v
		if v > best {
			best = v
			predicted = c
		}
	}
	return Decision{
		Class:         predicted,
		Probabilities: probabilities,
		Score:         best,
	}, nil
}
