package registry

import (
	"fmt"

	"github.com/agrisense/yield-engine/internal/models"
)

// Algorithm is the closed set of estimator families the registry understands.
type Algorithm string

const (
	AlgorithmGradientBoosting Algorithm = "gradient_boosting"
	AlgorithmRandomForest     Algorithm = "random_forest"
	AlgorithmRidge            Algorithm = "linear"
)

// algorithmPriority is the fixed selection order within a location.
var algorithmPriority = []Algorithm{
	AlgorithmGradientBoosting,
	AlgorithmRandomForest,
	AlgorithmRidge,
}

// ParseAlgorithm maps artifact identifiers onto the closed Algorithm set.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch value {
	case string(AlgorithmGradientBoosting), "gbdt", "gradient_boosted":
		return AlgorithmGradientBoosting, nil
	case string(AlgorithmRandomForest), "rf":
		return AlgorithmRandomForest, nil
	case string(AlgorithmRidge), "ridge":
		return AlgorithmRidge, nil
	default:
		return "", fmt.Errorf("unknown algorithm %q", value)
	}
}

// Estimator is the minimal prediction contract every model variant satisfies.
// Inputs are already scaled and expanded; implementations must be pure.
type Estimator interface {
	Predict(features []float64) float64
}

// ridgeEstimator is a fitted linear model: dot(coefficients, x) + intercept.
type ridgeEstimator struct {
	intercept    float64
	coefficients []float64
}

func (e *ridgeEstimator) Predict(features []float64) float64 {
	sum := e.intercept
	n := len(e.coefficients)
	if len(features) < n {
		n = len(features)
	}
	for i := 0; i < n; i++ {
		sum += e.coefficients[i] * features[i]
	}
	return sum
}

// treeNode is one node of a serialized regression tree. Leaf nodes have
// Left == -1 and Right == -1.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *regressionTree) predict(features []float64) float64 {
	idx := 0
	for steps := 0; steps < len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.Left < 0 || node.Right < 0 {
			return node.Value
		}
		if node.Feature >= 0 && node.Feature < len(features) && features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return node.Value
		}
	}
	return 0
}

// treeEnsembleEstimator covers both forest averaging and boosted additive
// ensembles; the mode is declared by the artifact, not sniffed.
type treeEnsembleEstimator struct {
	trees        []regressionTree
	baseScore    float64
	learningRate float64
	averaged     bool
}

func (e *treeEnsembleEstimator) Predict(features []float64) float64 {
	if len(e.trees) == 0 {
		return e.baseScore
	}
	if e.averaged {
		sum := 0.0
		for i := range e.trees {
			sum += e.trees[i].predict(features)
		}
		return sum / float64(len(e.trees))
	}
	lr := e.learningRate
	if lr <= 0 {
		lr = 1
	}
	sum := e.baseScore
	for i := range e.trees {
		sum += lr * e.trees[i].predict(features)
	}
	return sum
}

// standardScaler mirrors the fitted preprocessing step persisted with each
// artifact: (x - mean) / scale, elementwise.
type standardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *standardScaler) transform(features []float64) []float64 {
	if s == nil || len(s.Mean) == 0 {
		return features
	}
	out := make([]float64, len(features))
	for i, v := range features {
		m, sc := 0.0, 1.0
		if i < len(s.Mean) {
			m = s.Mean[i]
		}
		if i < len(s.Scale) && s.Scale[i] != 0 {
			sc = s.Scale[i]
		}
		out[i] = (v - m) / sc
	}
	return out
}

// expandPolynomial produces the degree-2 expansion in deterministic order:
// the original features followed by every pairwise product x_i*x_j with
// i <= j. Degree <= 1 is the identity.
func expandPolynomial(features []float64, degree int) []float64 {
	if degree < 2 {
		return features
	}
	n := len(features)
	out := make([]float64, 0, n+n*(n+1)/2)
	out = append(out, features...)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out = append(out, features[i]*features[j])
		}
	}
	return out
}

// Metrics are the performance figures persisted alongside a trained model.
type Metrics struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// Handle is an immutable, read-only trained estimator plus the preprocessing
// and metadata needed to serve it. Built once at load time and shared across
// concurrent requests without synchronization.
type Handle struct {
	Location         string
	Algorithm        Algorithm
	Features         []string
	Provenance       models.ModelProvenance
	Metrics          Metrics
	estimator        Estimator
	scaler           *standardScaler
	polynomialDegree int
	sigma            float64
}

// Predict runs the full serving path: scale, expand, estimate.
func (h *Handle) Predict(features []float64) float64 {
	x := h.scaler.transform(features)
	x = expandPolynomial(x, h.polynomialDegree)
	return h.estimator.Predict(x)
}

// Sigma is the assumed residual standard deviation for the confidence band.
func (h *Handle) Sigma() float64 {
	if h.sigma > 0 {
		return h.sigma
	}
	if h.Metrics.RMSE > 0 {
		return h.Metrics.RMSE
	}
	return 1.0
}
