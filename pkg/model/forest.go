package model

import (
	"fmt"
	"phishdetect/pkg/config"
)

const leafNode = -1

type tree struct {
	left      []int
	right     []int
	feature   []int
	threshold []float64
	dist      [][]float64 // per-node class distribution, normalised to sum 1
}

// RandomForest averages the leaf distributions of its trees, the way
// scikit-learn's RandomForestClassifier.predict does.
type RandomForest struct {
	classes []int
	trees   []tree
}

func newRandomForest(a Artifact) (*RandomForest, error) {
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("random forest has no trees")
	}
	f := &RandomForest{classes: a.classes()}
	for i, spec := range a.Trees {
		t, err := buildTree(spec, len(f.classes))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.trees = append(f.trees, t)
	}
	return f, nil
}

func buildTree(spec TreeSpec, nClasses int) (tree, error) {
	n := len(spec.ChildrenLeft)
	if n == 0 {
		return tree{}, fmt.Errorf("empty tree")
	}
	if len(spec.ChildrenRight) != n || len(spec.Feature) != n || len(spec.Threshold) != n || len(spec.Value) != n {
		return tree{}, fmt.Errorf("node arrays differ in length")
	}

	t := tree{
		left:      spec.ChildrenLeft,
		right:     spec.ChildrenRight,
		feature:   spec.Feature,
		threshold: spec.Threshold,
		dist:      make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := spec.ChildrenLeft[i], spec.ChildrenRight[i]
		if l == leafNode || r == leafNode {
			if l != r {
				return tree{}, fmt.Errorf("node %d has exactly one child", i)
			}
		} else {
			// Children always follow their parent in depth-first order,
			// which also rules out cycles.
			if l <= i || r <= i || l >= n || r >= n {
				return tree{}, fmt.Errorf("node %d has out of range children %d/%d", i, l, r)
			}
			if f := spec.Feature[i]; f < 0 || f >= config.NumFeatures {
				return tree{}, fmt.Errorf("node %d splits on unknown feature %d", i, f)
			}
		}

		if len(spec.Value[i]) != nClasses {
			return tree{}, fmt.Errorf("node %d has %d class counts, want %d", i, len(spec.Value[i]), nClasses)
		}
		t.dist[i] = normalise(spec.Value[i])
	}
	return t, nil
}

func normalise(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total <= 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}

func (t tree) leaf(x config.FeatureVector) []float64 {
	i := 0
	for t.left[i] != leafNode {
		if x[t.feature[i]] <= t.threshold[i] {
			i = t.left[i]
		} else {
			i = t.right[i]
		}
	}
	return t.dist[i]
}

// Probabilities returns the mean class distribution over all trees.
func (f *RandomForest) Probabilities(v config.FeatureVector) ([]float64, error) {
	if err := checkFinite(v); err != nil {
		return nil, err
	}
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		for k, p := range t.leaf(v) {
			proba[k] += p
		}
	}
	for k := range proba {
		proba[k] /= float64(len(f.trees))
	}
	return proba, nil
}

// Predict returns the most probable class; ties go to the first class listed.
func (f *RandomForest) Predict(v config.FeatureVector) (int, error) {
	proba, err := f.Probabilities(v)
	if err != nil {
		return 0, err
	}
	best := 0
	for k := 1; k < len(proba); k++ {
		if proba[k] > proba[best] {
			best = k
		}
	}
	return f.classes[best], nil
}
