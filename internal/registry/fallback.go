package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agrisense/yield-engine/internal/features"
	"github.com/agrisense/yield-engine/internal/models"
)

// Priors are the domain-tuned constants fallback models are synthesized
// from. They are configuration, not derived values.
type Priors struct {
	Locations    []string           `yaml:"locations"`
	BaseYield    float64            `yaml:"baseYield"`
	Sigma        float64            `yaml:"sigma"`
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// DefaultPriors returns the built-in agronomic priors used when no priors
// file is configured.
func DefaultPriors() Priors {
	return Priors{
		Locations: []string{
			"bhopal", "lucknow", "chandigarh", "jaipur", "patna", regionalKey,
		},
		BaseYield: 2.8,
		Sigma:     0.9,
		Coefficients: map[string]float64{
			features.FeatTempAvg:      0.045,
			features.FeatPrecip:       0.0018,
			features.FeatHumidity:     0.004,
			features.FeatGDD:          0.00035,
			features.FeatHeatStress:   -0.55,
			features.FeatWaterAvail:   0.012,
			features.FeatNDVI:         2.1,
			features.FeatFPAR:         0.8,
			features.FeatLAI:          0.15,
			features.FeatSeasonKharif: 0.2,
			features.FeatSeasonRabi:   0.25,
			features.FeatSeasonZaid:   -0.1,
		},
	}
}

// LoadPriors reads priors from a YAML file, falling back to the defaults
// when the path is empty. Fields omitted from the file keep their defaults.
func LoadPriors(path string) (Priors, error) {
	priors := DefaultPriors()
	if path == "" {
		return priors, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return priors, fmt.Errorf("read priors: %w", err)
	}
	if err := yaml.Unmarshal(data, &priors); err != nil {
		return priors, fmt.Errorf("parse priors: %w", err)
	}
	if priors.BaseYield <= 0 {
		priors.BaseYield = DefaultPriors().BaseYield
	}
	if priors.Sigma <= 0 {
		priors.Sigma = DefaultPriors().Sigma
	}
	if len(priors.Locations) == 0 {
		priors.Locations = DefaultPriors().Locations
	}
	return priors, nil
}

// synthesizeFallbacks builds one fixed-coefficient linear handle per known
// (location, algorithm) combination. Accuracy is degraded by construction;
// the fallback provenance tag signals that to callers.
func synthesizeFallbacks(priors Priors) []*Handle {
	order := features.CanonicalOrder()
	coefficients := make([]float64, len(order))
	for i, name := range order {
		coefficients[i] = priors.Coefficients[name]
	}

	handles := make([]*Handle, 0, len(priors.Locations)*len(algorithmPriority))
	for _, location := range priors.Locations {
		for _, alg := range algorithmPriority {
			handles = append(handles, &Handle{
				Location:   normalizeLocation(location),
				Algorithm:  alg,
				Features:   append([]string(nil), order...),
				Provenance: models.ProvenanceFallback,
				estimator: &ridgeEstimator{
					intercept:    priors.BaseYield,
					coefficients: coefficients,
				},
				sigma: priors.Sigma,
			})
		}
	}
	return handles
}
