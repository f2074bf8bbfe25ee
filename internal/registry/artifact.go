package registry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agrisense/yield-engine/internal/models"
)

// servingRuntimeMajor is the numeric-runtime major version this build serves
// with. Artifacts declare the minimum major they require; compatibility is
// checked explicitly, never inferred.
const servingRuntimeMajor = 2

// RejectionReason classifies why an artifact was refused at load time.
type RejectionReason string

const (
	RejectStructuralMismatch   RejectionReason = "StructuralMismatch"
	RejectRuntimeIncompatible  RejectionReason = "RuntimeIncompatible"
	RejectDeserializationError RejectionReason = "DeserializationError"
	RejectUnknown              RejectionReason = "Unknown"
)

// Rejection records a single refused artifact with its reason class.
type Rejection struct {
	File   string
	Reason RejectionReason
	Detail string
}

// artifactEnvelope is the versioned on-disk schema for persisted models.
type artifactEnvelope struct {
	SchemaVersion     int             `json:"schema_version"`
	MinRuntimeVersion int             `json:"min_runtime_version"`
	Location          string          `json:"location"`
	Algorithm         string          `json:"algorithm"`
	Features          []string        `json:"features"`
	Scaler            *standardScaler `json:"scaler"`
	PolynomialDegree  int             `json:"polynomial_degree"`
	Metrics           *Metrics        `json:"metrics"`
	Model             *artifactModel  `json:"model"`
	TrainedAt         time.Time       `json:"trained_at"`
}

type artifactModel struct {
	Type         string           `json:"type"` // "ridge" or "tree_ensemble"
	Intercept    float64          `json:"intercept"`
	Coefficients []float64        `json:"coefficients"`
	BaseScore    float64          `json:"base_score"`
	LearningRate float64          `json:"learning_rate"`
	Averaged     bool             `json:"averaged"`
	Trees        []regressionTree `json:"trees"`
}

// artifactName carries the fields parsed from an artifact filename of the
// form <location>_<algorithm>_<timestamp>.json.
type artifactName struct {
	Location  string
	Algorithm Algorithm
	Timestamp string
}

func parseArtifactName(filename string) (artifactName, error) {
	base := strings.TrimSuffix(filename, ".json")
	if base == filename {
		return artifactName{}, fmt.Errorf("artifact %q is not a .json file", filename)
	}
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return artifactName{}, fmt.Errorf("artifact name %q missing location/algorithm/timestamp", filename)
	}

	timestamp := parts[len(parts)-1]
	rest := parts[:len(parts)-1]

	// Algorithm identifiers may contain one underscore (gradient_boosting,
	// random_forest), so try the two-token form before the one-token form.
	if len(rest) >= 3 {
		if alg, err := ParseAlgorithm(strings.Join(rest[len(rest)-2:], "_")); err == nil {
			return artifactName{
				Location:  strings.Join(rest[:len(rest)-2], "_"),
				Algorithm: alg,
				Timestamp: timestamp,
			}, nil
		}
	}
	alg, err := ParseAlgorithm(rest[len(rest)-1])
	if err != nil {
		return artifactName{}, fmt.Errorf("artifact name %q: %w", filename, err)
	}
	return artifactName{
		Location:  strings.Join(rest[:len(rest)-1], "_"),
		Algorithm: alg,
		Timestamp: timestamp,
	}, nil
}

// buildHandle deserializes and validates one artifact. The reason is set for
// every returned error.
func buildHandle(name artifactName, data []byte) (*Handle, RejectionReason, error) {
	var env artifactEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, RejectDeserializationError, fmt.Errorf("decode artifact: %w", err)
	}

	// Structural validation: the envelope must expose model, scaler,
	// features and metrics.
	switch {
	case env.Model == nil:
		return nil, RejectStructuralMismatch, fmt.Errorf("artifact missing model section")
	case env.Scaler == nil:
		return nil, RejectStructuralMismatch, fmt.Errorf("artifact missing scaler section")
	case len(env.Features) == 0:
		return nil, RejectStructuralMismatch, fmt.Errorf("artifact missing features list")
	case env.Metrics == nil:
		return nil, RejectStructuralMismatch, fmt.Errorf("artifact missing metrics section")
	}

	// Runtime compatibility: serving major must satisfy the artifact minimum.
	if env.MinRuntimeVersion > servingRuntimeMajor {
		return nil, RejectRuntimeIncompatible, fmt.Errorf(
			"artifact requires runtime major >= %d, serving %d", env.MinRuntimeVersion, servingRuntimeMajor)
	}

	estimator, err := buildEstimator(env.Model)
	if err != nil {
		return nil, RejectStructuralMismatch, err
	}

	return &Handle{
		Location:         normalizeLocation(firstNonEmptyString(env.Location, name.Location)),
		Algorithm:        name.Algorithm,
		Features:         append([]string(nil), env.Features...),
		Provenance:       models.ProvenanceTrained,
		Metrics:          *env.Metrics,
		estimator:        estimator,
		scaler:           env.Scaler,
		polynomialDegree: env.PolynomialDegree,
		sigma:            env.Metrics.RMSE,
	}, "", nil
}

func buildEstimator(m *artifactModel) (Estimator, error) {
	switch m.Type {
	case "ridge":
		if len(m.Coefficients) == 0 {
			return nil, fmt.Errorf("ridge model has no coefficients")
		}
		return &ridgeEstimator{intercept: m.Intercept, coefficients: m.Coefficients}, nil
	case "tree_ensemble":
		if len(m.Trees) == 0 {
			return nil, fmt.Errorf("tree ensemble has no trees")
		}
		return &treeEnsembleEstimator{
			trees:        m.Trees,
			baseScore:    m.BaseScore,
			learningRate: m.LearningRate,
			averaged:     m.Averaged,
		}, nil
	default:
		return nil, fmt.Errorf("unknown model type %q", m.Type)
	}
}

// normalizeLocation lowers the name and collapses separators to underscores
// so filename keys and request locations compare consistently.
func normalizeLocation(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
