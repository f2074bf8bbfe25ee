package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/yield-engine/internal/models"
)

func validEnvelope() artifactEnvelope {
	return artifactEnvelope{
		SchemaVersion:     1,
		MinRuntimeVersion: 2,
		Features:          []string{"temp_avg_c", "ndvi"},
		Scaler:            &standardScaler{Mean: []float64{25, 0.5}, Scale: []float64{5, 0.2}},
		Metrics:           &Metrics{R2: 0.82, MAE: 0.3, RMSE: 0.45},
		Model: &artifactModel{
			Type:         "ridge",
			Intercept:    3.0,
			Coefficients: []float64{0.4, 1.1},
		},
	}
}

func writeArtifact(t *testing.T, dir, filename string, env artifactEnvelope) {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0o644))
}

func TestLoadAllMixedArtifacts(t *testing.T) {
	dir := t.TempDir()

	writeArtifact(t, dir, "bhopal_linear_20240101.json", validEnvelope())

	incompatible := validEnvelope()
	incompatible.MinRuntimeVersion = 3
	writeArtifact(t, dir, "lucknow_linear_20240101.json", incompatible)

	structural := validEnvelope()
	structural.Scaler = nil
	writeArtifact(t, dir, "jaipur_random_forest_20240101.json", structural)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "patna_linear_20240101.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	reg := LoadAll(dir, DefaultPriors(), nil)
	summary := reg.Summary()

	assert.Equal(t, 4, summary.Scanned)
	assert.Equal(t, 1, summary.Loaded)
	assert.Equal(t, 0, summary.Synthesized)

	byReason := summary.RejectionsByReason()
	assert.Equal(t, 1, byReason[RejectRuntimeIncompatible])
	assert.Equal(t, 1, byReason[RejectStructuralMismatch])
	assert.Equal(t, 1, byReason[RejectDeserializationError])

	h, err := reg.Get("Bhopal")
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceTrained, h.Provenance)
	assert.Equal(t, AlgorithmRidge, h.Algorithm)
}

func TestLoadAllSynthesizesWhenNothingLoads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bhopal_linear_1.json"), []byte("garbage"), 0o644))

	reg := LoadAll(dir, DefaultPriors(), nil)
	summary := reg.Summary()

	assert.Equal(t, 0, summary.Loaded)
	assert.Greater(t, summary.Synthesized, 0)

	h, err := reg.Get("Bhopal")
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceFallback, h.Provenance)
	// Fallback predictions must stay plausible for neutral inputs.
	assert.Greater(t, h.Sigma(), 0.0)
}

func TestLoadAllMissingDirectorySynthesizes(t *testing.T) {
	reg := LoadAll(filepath.Join(t.TempDir(), "does-not-exist"), DefaultPriors(), nil)
	summary := reg.Summary()

	assert.Equal(t, 0, summary.Scanned)
	assert.Greater(t, summary.Synthesized, 0)
	assert.Contains(t, reg.Locations(), regionalKey)
}

func TestGetSelectionOrder(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "bhopal_linear_20240101.json", validEnvelope())
	writeArtifact(t, dir, "all_north_india_linear_20240101.json", validEnvelope())

	reg := LoadAll(dir, DefaultPriors(), nil)

	exact, err := reg.Get("bhopal")
	require.NoError(t, err)
	assert.Equal(t, "bhopal", exact.Location)

	// Substring specificity: "bhopal rural" contains the stored key.
	sub, err := reg.Get("Bhopal Rural")
	require.NoError(t, err)
	assert.Equal(t, "bhopal", sub.Location)

	regional, err := reg.Get("Gotham")
	require.NoError(t, err)
	assert.Equal(t, regionalKey, regional.Location)
}

func TestGetAlgorithmPriority(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "bhopal_linear_20240101.json", validEnvelope())

	boosted := validEnvelope()
	boosted.Model = &artifactModel{
		Type:      "tree_ensemble",
		BaseScore: 3.0,
		Trees:     []regressionTree{{Nodes: []treeNode{{Left: -1, Right: -1, Value: 0.5}}}},
	}
	writeArtifact(t, dir, "bhopal_gradient_boosting_20240101.json", boosted)

	reg := LoadAll(dir, DefaultPriors(), nil)

	h, err := reg.Get("bhopal")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmGradientBoosting, h.Algorithm)

	preferred, err := reg.Get("bhopal", AlgorithmRidge)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmRidge, preferred.Algorithm)
}

func TestHandlePredictScalesAndEstimates(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "bhopal_linear_20240101.json", validEnvelope())

	reg := LoadAll(dir, DefaultPriors(), nil)
	h, err := reg.Get("bhopal")
	require.NoError(t, err)

	// (30-25)/5 = 1, (0.7-0.5)/0.2 = 1 -> 3.0 + 0.4 + 1.1
	assert.InDelta(t, 4.5, h.Predict([]float64{30, 0.7}), 1e-9)
}
