package model

import (
	"fmt"
	"os"
	"phishdetect/pkg/config"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact is the serialized model. JSON is valid YAML, so exports from
// either format load the same way.
type Artifact struct {
	Type      string     `yaml:"type"`
	NFeatures int        `yaml:"n_features"`
	Classes   []int      `yaml:"classes"`
	Trees     []TreeSpec `yaml:"trees"`
	Weights   []float64  `yaml:"weights"`
	Bias      float64    `yaml:"bias"`
	Threshold *float64   `yaml:"threshold"`
}

// TreeSpec mirrors scikit-learn's tree_ arrays. Leaves have -1 children.
type TreeSpec struct {
	ChildrenLeft  []int       `yaml:"children_left"`
	ChildrenRight []int       `yaml:"children_right"`
	Feature       []int       `yaml:"feature"`
	Threshold     []float64   `yaml:"threshold"`
	Value         [][]float64 `yaml:"value"`
}

func (a Artifact) classes() []int {
	if len(a.Classes) == 0 {
		return []int{ClassLegitimate, ClassPhishing}
	}
	return a.Classes
}

// Load reads and validates a model artifact from disk.
func Load(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a Classifier from artifact bytes.
func Parse(data []byte) (Classifier, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if a.NFeatures != 0 && a.NFeatures != config.NumFeatures {
		return nil, fmt.Errorf("model expects %d features, extractor produces %d", a.NFeatures, config.NumFeatures)
	}

	switch strings.ToLower(a.Type) {
	case "random_forest", "decision_tree":
		return newRandomForest(a)
	case "logistic":
		return newLogistic(a)
	default:
		return nil, fmt.Errorf("unknown model type %q", a.Type)
	}
}
