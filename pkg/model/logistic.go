package model

import (
	"fmt"
	"math"
	"phishdetect/pkg/config"
)

// Logistic is a binary linear model: sigmoid(bias + w·x) >= threshold
// selects the second class.
type Logistic struct {
	classes   []int
	weights   []float64
	bias      float64
	threshold float64
}

func newLogistic(a Artifact) (*Logistic, error) {
	if len(a.Weights) != config.NumFeatures {
		return nil, fmt.Errorf("logistic model has %d weights, want %d", len(a.Weights), config.NumFeatures)
	}
	classes := a.classes()
	if len(classes) != 2 {
		return nil, fmt.Errorf("logistic model needs exactly 2 classes, got %d", len(classes))
	}
	threshold := 0.5
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	return &Logistic{classes: classes, weights: a.Weights, bias: a.Bias, threshold: threshold}, nil
}

// Probability returns the probability of the second class.
func (l *Logistic) Probability(v config.FeatureVector) (float64, error) {
	if err := checkFinite(v); err != nil {
		return 0, err
	}
	z := l.bias
	for i, w := range l.weights {
		z += w * v[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (l *Logistic) Predict(v config.FeatureVector) (int, error) {
	p, err := l.Probability(v)
	if err != nil {
		return 0, err
	}
	if p >= l.threshold {
		return l.classes[1], nil
	}
	return l.classes[0], nil
}
