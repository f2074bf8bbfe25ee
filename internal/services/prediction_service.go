// Package services holds the request-facing facade over the prediction
// pipeline: domain validation, the overall request deadline, metrics and
// latency accounting.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agrisense/yield-engine/internal/metrics"
	"github.com/agrisense/yield-engine/internal/models"
	"github.com/agrisense/yield-engine/internal/utils"
)

// sowingDateMaxAge bounds how far back a sowing date may lie.
const sowingDateMaxAge = 730 * 24 * time.Hour

// Predictor is the pipeline behaviour the service depends on.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error)
}

// PredictionService validates requests, enforces the overall deadline and
// runs the pipeline.
type PredictionService struct {
	logger         *slog.Logger
	pipeline       Predictor
	requestTimeout time.Duration
	latencies      *utils.LatencyTracker
	now            func() time.Time
}

// NewPredictionService constructs the service facade.
func NewPredictionService(logger *slog.Logger, pipeline Predictor, requestTimeout time.Duration) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	return &PredictionService{
		logger:         logger,
		pipeline:       pipeline,
		requestTimeout: requestTimeout,
		latencies:      utils.NewLatencyTracker(1024),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Predict validates and executes one prediction request. A deadline hit
// anywhere in the pipeline surfaces as a single RequestTimeout rather than
// partial fallback results.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	if err := s.validate(req); err != nil {
		metrics.ObservePrediction(0, metrics.OutcomeError)
		return models.PredictionResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.pipeline.Predict(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ObservePrediction(duration, metrics.OutcomeError)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.PredictionResult{}, utils.NewPredictionError(
				utils.KindRequestTimeout, "services.Predict",
				"prediction did not complete within the request deadline", err)
		}
		s.logger.Error("prediction failed",
			slog.String("kind", string(utils.KindOf(err))), slog.Any("error", err))
		return models.PredictionResult{}, err
	}

	s.latencies.Observe(duration)
	metrics.ObservePrediction(duration, metrics.OutcomeSuccess)
	metrics.ObserveFallbacks(string(result.Trail.DataTier), string(result.Trail.ModelProvenance))
	for _, timing := range result.StageTimings {
		metrics.ObserveStage(timing.Stage, timing.Elapsed)
	}
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("prediction latency",
			slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	return result, nil
}

// LatencyP95 returns the current p95 prediction latency.
func (s *PredictionService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *PredictionService) validate(req models.PredictionRequest) error {
	const op = "services.validate"

	if !req.Crop.Valid() {
		return utils.InvalidInput(op, "crop_type must be one of Rice, Wheat, Maize")
	}
	if req.LocationName == "" {
		return utils.InvalidInput(op, "location_name is required")
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		return utils.InvalidInput(op, "latitude must be within -90..90")
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return utils.InvalidInput(op, "longitude must be within -180..180")
	}

	now := s.now()
	if req.SowingDate.IsZero() {
		return utils.InvalidInput(op, "sowing_date is required")
	}
	if req.SowingDate.After(now) {
		return utils.InvalidInput(op, "sowing_date must not be in the future")
	}
	if now.Sub(req.SowingDate) > sowingDateMaxAge {
		return utils.InvalidInput(op, "sowing_date must not be older than 730 days")
	}
	return nil
}
