package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRidgeEstimator(t *testing.T) {
	e := &ridgeEstimator{intercept: 1.5, coefficients: []float64{2, -1}}
	assert.InDelta(t, 1.5+2*3-1*4, e.Predict([]float64{3, 4}), 1e-9)

	// Extra features beyond the fitted coefficients are ignored.
	assert.InDelta(t, 1.5+2*3-1*4, e.Predict([]float64{3, 4, 99}), 1e-9)
}

func TestTreeEnsembleBoosted(t *testing.T) {
	stump := regressionTree{Nodes: []treeNode{
		{Feature: 0, Threshold: 1.0, Left: 1, Right: 2},
		{Left: -1, Right: -1, Value: 10},
		{Left: -1, Right: -1, Value: 20},
	}}
	e := &treeEnsembleEstimator{trees: []regressionTree{stump, stump}, baseScore: 1, learningRate: 0.5}

	assert.InDelta(t, 1+0.5*10+0.5*10, e.Predict([]float64{0.5}), 1e-9)
	assert.InDelta(t, 1+0.5*20+0.5*20, e.Predict([]float64{2.0}), 1e-9)
}

func TestTreeEnsembleAveraged(t *testing.T) {
	leafA := regressionTree{Nodes: []treeNode{{Left: -1, Right: -1, Value: 4}}}
	leafB := regressionTree{Nodes: []treeNode{{Left: -1, Right: -1, Value: 6}}}
	e := &treeEnsembleEstimator{trees: []regressionTree{leafA, leafB}, averaged: true}

	assert.InDelta(t, 5.0, e.Predict(nil), 1e-9)
}

func TestStandardScaler(t *testing.T) {
	s := &standardScaler{Mean: []float64{10, 0}, Scale: []float64{2, 0}}
	out := s.transform([]float64{14, 3})
	assert.InDelta(t, 2.0, out[0], 1e-9)
	// A zero scale falls back to 1 instead of dividing by zero.
	assert.InDelta(t, 3.0, out[1], 1e-9)

	var nilScaler *standardScaler
	in := []float64{1, 2}
	assert.Equal(t, in, nilScaler.transform(in))
}

func TestExpandPolynomial(t *testing.T) {
	in := []float64{2, 3}
	out := expandPolynomial(in, 2)
	assert.Equal(t, []float64{2, 3, 4, 6, 9}, out)

	assert.Equal(t, in, expandPolynomial(in, 1))
}

func TestHandleSigma(t *testing.T) {
	assert.InDelta(t, 0.7, (&Handle{sigma: 0.7}).Sigma(), 1e-9)
	assert.InDelta(t, 0.4, (&Handle{Metrics: Metrics{RMSE: 0.4}}).Sigma(), 1e-9)
	assert.InDelta(t, 1.0, (&Handle{}).Sigma(), 1e-9)
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{in: "gradient_boosting", want: AlgorithmGradientBoosting},
		{in: "rf", want: AlgorithmRandomForest},
		{in: "ridge", want: AlgorithmRidge},
		{in: "linear", want: AlgorithmRidge},
		{in: "svm", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
