// Package model loads a pre-trained classifier and scores feature vectors.
//
// A Classifier is immutable once loaded, so one instance serves concurrent
// requests for the life of the process.
package model

import (
	"fmt"
	"math"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
)

const (
	ClassLegitimate = 0
	ClassPhishing   = 1

	LabelPhishing   = "Phishing Website"
	LabelLegitimate = "Legitimate Website"
)

// Classifier maps a feature vector to a class.
type Classifier interface {
	Predict(v config.FeatureVector) (int, error)
}

// Label names a predicted class. Anything but ClassPhishing is legitimate.
func Label(class int) string {
	if class == ClassPhishing {
		return LabelPhishing
	}
	return LabelLegitimate
}

// checkFinite rejects vectors the model cannot score.
func checkFinite(v config.FeatureVector) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: feature %s (slot %d) is not finite", common.ErrClassification, config.FeatureNames[i], i+1)
		}
	}
	return nil
}
