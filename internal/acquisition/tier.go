// Package acquisition produces the satellite and weather inputs for a
// prediction, degrading tier by tier: live collaborator calls, then cached
// history, then synthetic climatology. It always returns a result with an
// authoritative tier tag and quality score.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrisense/yield-engine/internal/cache"
	"github.com/agrisense/yield-engine/internal/models"
	"github.com/agrisense/yield-engine/internal/utils"
)

// SatelliteClient is the satellite collaborator surface the tier depends on.
type SatelliteClient interface {
	FetchVegetationSeries(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.SatelliteObservation, error)
}

// WeatherClient is the weather collaborator surface the tier depends on.
// Weather is load-bearing: its failure fails the whole live tier.
type WeatherClient interface {
	FetchObservations(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.WeatherObservation, error)
}

// Options tune the acquisition behaviour.
type Options struct {
	CallTimeout  time.Duration // per collaborator call
	LookbackDays int           // observation window before now
	HistoryTTL   time.Duration
	MinQuality   float64 // historical tier gate
}

func (o *Options) normalize() {
	if o.CallTimeout <= 0 {
		o.CallTimeout = 5 * time.Second
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = 7
	}
	if o.HistoryTTL <= 0 {
		o.HistoryTTL = 6 * time.Hour
	}
	if o.MinQuality <= 0 {
		o.MinQuality = 0.3
	}
}

// Tier orchestrates the three acquisition tiers.
type Tier struct {
	logger    *slog.Logger
	satellite SatelliteClient
	weather   WeatherClient
	history   *historyStore
	opts      Options
}

// NewTier constructs the acquisition layer. The cache provider backs the
// historical tier; pass cache.NoopProvider to disable it.
func NewTier(logger *slog.Logger, satellite SatelliteClient, weather WeatherClient, provider cache.Provider, opts Options) *Tier {
	if logger == nil {
		logger = slog.Default()
	}
	opts.normalize()
	return &Tier{
		logger:    logger,
		satellite: satellite,
		weather:   weather,
		history:   newHistoryStore(provider, opts.HistoryTTL),
		opts:      opts,
	}
}

// Acquire returns data for the location, degrading live -> historical ->
// synthetic. It returns an error only when the parent context is done
// (surfaced as a timeout upstream) or the weather collaborator fails
// unrecoverably during a requested live acquisition.
func (t *Tier) Acquire(ctx context.Context, lat, lon float64, locationName string, useRealTime bool) (models.DataTierResult, error) {
	const op = "acquisition.Acquire"

	if useRealTime {
		result, err := t.acquireLive(ctx, lat, lon)
		if err == nil {
			t.history.store(ctx, locationName, result)
			return result, nil
		}
		if ctx.Err() != nil {
			return models.DataTierResult{}, ctx.Err()
		}
		var unrec *unrecoverableWeatherError
		if errors.As(err, &unrec) {
			return models.DataTierResult{}, utils.NewPredictionError(
				utils.KindDataCollectionFailed, op,
				"weather data collection failed; retry with use_real_time_data=false", err)
		}
		t.logger.Warn("live tier unavailable, degrading",
			slog.String("location", locationName), slog.Any("error", err))
	}

	if result, ok := t.history.load(ctx, locationName, t.opts.LookbackDays, t.opts.MinQuality); ok {
		return result, nil
	}

	return t.synthetic(lat, lon, time.Now().UTC()), nil
}

// acquireLive calls the satellite and weather collaborators concurrently
// with bounded timeouts. A satellite-only failure substitutes synthetic
// vegetation values while the tier stays live: weather features carry
// materially more predictive weight.
func (t *Tier) acquireLive(ctx context.Context, lat, lon float64) (models.DataTierResult, error) {
	if t.weather == nil {
		return models.DataTierResult{}, fmt.Errorf("weather client not configured")
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -t.opts.LookbackDays)

	var (
		satellite []models.SatelliteObservation
		weather   []models.WeatherObservation
		satErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &unrecoverableWeatherError{cause: fmt.Errorf("weather collaborator panic: %v", r)}
			}
		}()
		callCtx, cancel := context.WithTimeout(gctx, t.opts.CallTimeout)
		defer cancel()
		weather, err = t.weather.FetchObservations(callCtx, lat, lon, start, now)
		return err
	})
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				satErr = fmt.Errorf("satellite collaborator panic: %v", r)
			}
		}()
		if t.satellite == nil {
			satErr = fmt.Errorf("satellite client not configured")
			return nil
		}
		callCtx, cancel := context.WithTimeout(gctx, t.opts.CallTimeout)
		defer cancel()
		satellite, satErr = t.satellite.FetchVegetationSeries(callCtx, lat, lon, start, now)
		// Satellite failure alone never fails the live tier.
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.DataTierResult{}, fmt.Errorf("live weather fetch: %w", err)
	}
	if len(weather) == 0 {
		return models.DataTierResult{}, fmt.Errorf("live weather fetch returned no observations")
	}

	quality := 1.0
	if satErr != nil || len(satellite) == 0 {
		t.logger.Debug("satellite unavailable, substituting synthetic vegetation", slog.Any("error", satErr))
		satellite = syntheticSatelliteSeries(lat, lon, now, t.opts.LookbackDays)
		quality = 0.85
	}

	return models.DataTierResult{
		Satellite: satellite,
		Weather:   weather,
		Tier:      models.TierLive,
		Quality:   quality,
	}, nil
}

func (t *Tier) synthetic(lat, lon float64, now time.Time) models.DataTierResult {
	return models.DataTierResult{
		Satellite: syntheticSatelliteSeries(lat, lon, now, t.opts.LookbackDays),
		Weather:   syntheticWeatherSeries(lat, lon, now, t.opts.LookbackDays),
		Tier:      models.TierSynthetic,
		Quality:   syntheticQuality,
	}
}

// unrecoverableWeatherError marks weather collaborator failures that must
// fail the request instead of degrading it.
type unrecoverableWeatherError struct {
	cause error
}

func (e *unrecoverableWeatherError) Error() string {
	return fmt.Sprintf("unrecoverable weather failure: %v", e.cause)
}

func (e *unrecoverableWeatherError) Unwrap() error { return e.cause }
