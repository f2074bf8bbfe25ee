// Package engine composes variety resolution, data acquisition, feature
// assembly and model selection into the prediction pipeline. The flow is a
// strict linear stage machine; every fallback decision taken along the way
// is recorded on the result.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agrisense/yield-engine/internal/features"
	"github.com/agrisense/yield-engine/internal/models"
	"github.com/agrisense/yield-engine/internal/registry"
	"github.com/agrisense/yield-engine/internal/utils"
)

// VarietyResolver defines the variety selection behaviour the pipeline uses.
type VarietyResolver interface {
	Resolve(ctx context.Context, crop models.CropType, locationName string) (models.VarietySelection, error)
	Validate(ctx context.Context, crop models.CropType, name string) (models.VarietySelection, error)
}

// DataAcquirer defines the tiered acquisition behaviour the pipeline uses.
type DataAcquirer interface {
	Acquire(ctx context.Context, lat, lon float64, locationName string, useRealTime bool) (models.DataTierResult, error)
}

// ModelSource defines the registry lookup the pipeline uses.
type ModelSource interface {
	Get(location string, preferred ...registry.Algorithm) (*registry.Handle, error)
}

// VarietyLookup fetches full variety parameters for feature assembly.
type VarietyLookup interface {
	VarietyByName(ctx context.Context, crop models.CropType, name string) (models.Variety, bool, error)
}

// Stage names used in timings and logs.
const (
	StageVarietyResolved   = "variety_resolved"
	StageDataAcquired      = "data_acquired"
	StageFeaturesAssembled = "features_assembled"
	StageModelSelected     = "model_selected"
	StagePredictionDone    = "prediction_computed"
)

// confidence band half-width multiplier for the assumed sigma.
const confidenceZ = 1.96

// Pipeline orchestrates one prediction request end to end.
type Pipeline struct {
	logger   *slog.Logger
	resolver VarietyResolver
	acquirer DataAcquirer
	registry ModelSource
	catalog  VarietyLookup
	now      func() time.Time
}

// NewPipeline constructs the prediction pipeline.
func NewPipeline(logger *slog.Logger, resolver VarietyResolver, acquirer DataAcquirer, reg ModelSource, catalog VarietyLookup) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:   logger,
		resolver: resolver,
		acquirer: acquirer,
		registry: reg,
		catalog:  catalog,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Predict runs the linear stage machine: variety -> data -> features ->
// model -> prediction. Failures past variety resolution are terminal for the
// request; nothing is retried across stage boundaries.
func (p *Pipeline) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	if p.resolver == nil || p.acquirer == nil || p.registry == nil {
		return models.PredictionResult{}, utils.NewPredictionError(
			utils.KindInternalError, "engine.Predict", "prediction pipeline not configured",
			fmt.Errorf("missing pipeline dependency"))
	}

	timings := make([]models.StageTiming, 0, 5)
	observe := func(stage string, started time.Time) {
		elapsed := time.Since(started)
		timings = append(timings, models.StageTiming{Stage: stage, Elapsed: elapsed})
		p.logger.Debug("stage complete", slog.String("stage", stage), slog.Duration("elapsed", elapsed))
	}

	// Variety resolution. Bypassed entirely when the caller supplied one;
	// an explicit variety is validated, never assumed.
	start := time.Now()
	var selection models.VarietySelection
	var err error
	if req.VarietyName != "" {
		selection, err = p.resolver.Validate(ctx, req.Crop, req.VarietyName)
	} else {
		selection, err = p.resolver.Resolve(ctx, req.Crop, req.LocationName)
	}
	if err != nil {
		if ctx.Err() != nil {
			return models.PredictionResult{}, ctx.Err()
		}
		return models.PredictionResult{}, err
	}
	observe(StageVarietyResolved, start)

	// Data acquisition.
	start = time.Now()
	data, err := p.acquirer.Acquire(ctx, req.Latitude, req.Longitude, req.LocationName, req.UseRealTime)
	if err != nil {
		if ctx.Err() != nil {
			return models.PredictionResult{}, ctx.Err()
		}
		return models.PredictionResult{}, err
	}
	observe(StageDataAcquired, start)

	// Feature assembly. Pure; variety parameters are best-effort.
	start = time.Now()
	varietyParams := p.varietyParams(ctx, req.Crop, selection.VarietyName)
	vector := features.Assemble(varietyParams, data, features.CalendarContext{
		SowingDate: req.SowingDate,
		Now:        p.now(),
	})
	observe(StageFeaturesAssembled, start)

	// Model selection.
	start = time.Now()
	handle, err := p.registry.Get(req.LocationName)
	if err != nil {
		return models.PredictionResult{}, utils.NewPredictionError(
			utils.KindModelUnavailable, "engine.Predict", "no prediction model available", err)
	}
	observe(StageModelSelected, start)

	// Prediction. A feature misalignment here is a programming error.
	start = time.Now()
	aligned, err := vector.Align(handle.Features)
	if err != nil {
		return models.PredictionResult{}, utils.NewPredictionError(
			utils.KindInternalError, "engine.Predict", "prediction could not be computed", err)
	}
	yield := handle.Predict(aligned)
	if yield < 0 {
		yield = 0
	}

	sigma := handle.Sigma()
	lower := yield - confidenceZ*sigma
	if lower < 0 {
		lower = 0
	}
	upper := yield + confidenceZ*sigma
	observe(StagePredictionDone, start)

	result := models.PredictionResult{
		PredictionID:   uuid.NewString(),
		Crop:           req.Crop,
		Variety:        selection,
		YieldTonsPerHa: yield,
		LowerBound:     lower,
		UpperBound:     upper,
		Confidence:     confidenceScore(handle, data, selection),
		Trail:          buildTrail(selection, data, handle),
		FreshnessHours: utils.HoursSince(data.NewestObservation(), p.now()),
		Adjustments:    environmentalAdjustments(vector),
		StageTimings:   timings,
		GeneratedAt:    p.now(),
	}

	p.logger.Info("prediction computed",
		slog.String("prediction_id", result.PredictionID),
		slog.String("crop", string(req.Crop)),
		slog.String("variety", selection.VarietyName),
		slog.String("data_tier", string(data.Tier)),
		slog.String("model_provenance", string(handle.Provenance)),
		slog.Float64("yield", yield))

	return result, nil
}

// varietyParams fetches full catalog parameters for the resolved variety.
// The assembler has documented neutral defaults, so a lookup failure only
// costs feature fidelity, never the request.
func (p *Pipeline) varietyParams(ctx context.Context, crop models.CropType, name string) models.Variety {
	if p.catalog == nil || name == "" {
		return models.Variety{Name: name, Crop: crop}
	}
	entry, ok, err := p.catalog.VarietyByName(ctx, crop, name)
	if err != nil || !ok {
		if err != nil {
			p.logger.Debug("variety parameter lookup failed", slog.Any("error", err))
		}
		return models.Variety{Name: name, Crop: crop}
	}
	return entry
}

func buildTrail(selection models.VarietySelection, data models.DataTierResult, handle *registry.Handle) models.FallbackTrail {
	trail := models.FallbackTrail{
		VarietyAssumed:  selection.Assumed,
		DataTier:        data.Tier,
		DataQuality:     data.Quality,
		ModelProvenance: handle.Provenance,
		ModelLocation:   handle.Location,
		ModelAlgorithm:  string(handle.Algorithm),
	}
	if selection.Metadata != nil {
		trail.VarietyReason = selection.Metadata.Reason
	}
	return trail
}

// confidenceScore blends model quality, data quality, and the variety
// assumption into a [0,1] trust signal.
func confidenceScore(handle *registry.Handle, data models.DataTierResult, selection models.VarietySelection) float64 {
	base := 0.35
	if handle.Provenance == models.ProvenanceTrained {
		base = 0.55 + 0.25*clamp(handle.Metrics.R2, 0, 1)
	}
	score := base * (0.6 + 0.4*clamp(data.Quality, 0, 1))
	if selection.Assumed {
		score *= 0.95
	}
	return clamp(score, 0, 1)
}

// environmentalAdjustments summarises the feature-level conditions that
// pushed the estimate around, for the response factors block.
func environmentalAdjustments(v features.Vector) []string {
	adjustments := make([]string, 0, 3)
	if v.Value(features.FeatHeatStress) > 0 {
		adjustments = append(adjustments,
			fmt.Sprintf("heat stress: max temperature %.1f C above %0.f C threshold",
				v.Value(features.FeatTempMax), 35.0))
	}
	if v.Value(features.FeatWaterAvail) < 1.0 {
		adjustments = append(adjustments, "low water availability for the period")
	}
	switch {
	case v.Value(features.FeatSeasonKharif) > 0 && v.Value(features.FeatSeasonRabi) > 0:
		adjustments = append(adjustments, "kharif/rabi transition window")
	case v.Value(features.FeatSeasonKharif) > 0:
		adjustments = append(adjustments, "kharif season conditions applied")
	case v.Value(features.FeatSeasonRabi) > 0:
		adjustments = append(adjustments, "rabi season conditions applied")
	case v.Value(features.FeatSeasonZaid) > 0:
		adjustments = append(adjustments, "zaid season conditions applied")
	}
	return adjustments
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
