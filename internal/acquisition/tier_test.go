package acquisition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/yield-engine/internal/cache"
	"github.com/agrisense/yield-engine/internal/models"
	"github.com/agrisense/yield-engine/internal/utils"
)

type fakeSatellite struct {
	fn func(ctx context.Context) ([]models.SatelliteObservation, error)
}

func (f *fakeSatellite) FetchVegetationSeries(ctx context.Context, _, _ float64, _, _ time.Time) ([]models.SatelliteObservation, error) {
	return f.fn(ctx)
}

type fakeWeather struct {
	fn func(ctx context.Context) ([]models.WeatherObservation, error)
}

func (f *fakeWeather) FetchObservations(ctx context.Context, _, _ float64, _, _ time.Time) ([]models.WeatherObservation, error) {
	return f.fn(ctx)
}

func weatherSeries(n int) []models.WeatherObservation {
	series := make([]models.WeatherObservation, n)
	now := time.Now().UTC()
	for i := range series {
		series[i] = models.WeatherObservation{
			Timestamp:      now.AddDate(0, 0, -i),
			TempMaxC:       32,
			TempMinC:       20,
			TempMeanC:      26,
			HumidityPct:    60,
			PrecipMm:       4,
			SolarRadiation: 200,
		}
	}
	return series
}

func satelliteSeries(n int) []models.SatelliteObservation {
	series := make([]models.SatelliteObservation, n)
	now := time.Now().UTC()
	for i := range series {
		series[i] = models.SatelliteObservation{
			Timestamp: now.AddDate(0, 0, -i),
			NDVI:      0.6,
			EVI:       0.5,
			FPAR:      0.55,
			LAI:       2.4,
		}
	}
	return series
}

func TestAcquireLiveSuccess(t *testing.T) {
	sat := &fakeSatellite{fn: func(context.Context) ([]models.SatelliteObservation, error) {
		return satelliteSeries(3), nil
	}}
	wx := &fakeWeather{fn: func(context.Context) ([]models.WeatherObservation, error) {
		return weatherSeries(3), nil
	}}
	tier := NewTier(nil, sat, wx, cache.NewMemoryProvider(16), Options{})

	result, err := tier.Acquire(context.Background(), 23.25, 77.41, "Bhopal", true)
	require.NoError(t, err)

	assert.Equal(t, models.TierLive, result.Tier)
	assert.InDelta(t, 1.0, result.Quality, 1e-9)
	assert.Len(t, result.Weather, 3)
	assert.Len(t, result.Satellite, 3)
}

func TestAcquireSatelliteFailureStaysLive(t *testing.T) {
	sat := &fakeSatellite{fn: func(context.Context) ([]models.SatelliteObservation, error) {
		return nil, errors.New("satellite gateway down")
	}}
	wx := &fakeWeather{fn: func(context.Context) ([]models.WeatherObservation, error) {
		return weatherSeries(3), nil
	}}
	tier := NewTier(nil, sat, wx, cache.NewMemoryProvider(16), Options{LookbackDays: 7})

	result, err := tier.Acquire(context.Background(), 23.25, 77.41, "Bhopal", true)
	require.NoError(t, err)

	assert.Equal(t, models.TierLive, result.Tier)
	assert.InDelta(t, 0.85, result.Quality, 1e-9)
	// Synthetic vegetation fills the gap so features always have inputs.
	assert.NotEmpty(t, result.Satellite)
}

func TestAcquireWeatherErrorDegradesToSynthetic(t *testing.T) {
	sat := &fakeSatellite{fn: func(context.Context) ([]models.SatelliteObservation, error) {
		return satelliteSeries(3), nil
	}}
	wx := &fakeWeather{fn: func(context.Context) ([]models.WeatherObservation, error) {
		return nil, errors.New("weather service 500")
	}}
	tier := NewTier(nil, sat, wx, cache.NewMemoryProvider(16), Options{})

	result, err := tier.Acquire(context.Background(), 23.25, 77.41, "Bhopal", true)
	require.NoError(t, err)

	assert.Equal(t, models.TierSynthetic, result.Tier)
	assert.InDelta(t, syntheticQuality, result.Quality, 1e-9)
	assert.NotEmpty(t, result.Weather)
	assert.NotEmpty(t, result.Satellite)
}

func TestAcquireWeatherPanicFailsRequest(t *testing.T) {
	sat := &fakeSatellite{fn: func(context.Context) ([]models.SatelliteObservation, error) {
		return satelliteSeries(3), nil
	}}
	wx := &fakeWeather{fn: func(context.Context) ([]models.WeatherObservation, error) {
		panic("weather client corrupted")
	}}
	tier := NewTier(nil, sat, wx, cache.NewMemoryProvider(16), Options{})

	_, err := tier.Acquire(context.Background(), 23.25, 77.41, "Bhopal", true)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindDataCollectionFailed))
	assert.Contains(t, utils.ClientMessage(err), "use_real_time_data=false")
}

func TestAcquireParentContextCancellation(t *testing.T) {
	wx := &fakeWeather{fn: func(ctx context.Context) ([]models.WeatherObservation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	tier := NewTier(nil, nil, wx, cache.NewMemoryProvider(16), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tier.Acquire(ctx, 23.25, 77.41, "Bhopal", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquireServesHistoricalTier(t *testing.T) {
	provider := cache.NewMemoryProvider(16)
	sat := &fakeSatellite{fn: func(context.Context) ([]models.SatelliteObservation, error) {
		return satelliteSeries(2), nil
	}}
	calls := 0
	wx := &fakeWeather{fn: func(context.Context) ([]models.WeatherObservation, error) {
		calls++
		if calls == 1 {
			return weatherSeries(2), nil
		}
		return nil, errors.New("weather service down")
	}}
	tier := NewTier(nil, sat, wx, provider, Options{LookbackDays: 2, MinQuality: 0.05})

	// First call populates today's history entry.
	first, err := tier.Acquire(context.Background(), 23.25, 77.41, "Bhopal", true)
	require.NoError(t, err)
	require.Equal(t, models.TierLive, first.Tier)

	second, err := tier.Acquire(context.Background(), 23.25, 77.41, "Bhopal", true)
	require.NoError(t, err)

	assert.Equal(t, models.TierHistorical, second.Tier)
	// One of two lookback days is present and the entry is fresh.
	assert.InDelta(t, 0.5, second.Quality, 0.01)
	assert.NotEmpty(t, second.Weather)
}

func TestAcquireSkipsLiveWhenNotRequested(t *testing.T) {
	wx := &fakeWeather{fn: func(context.Context) ([]models.WeatherObservation, error) {
		t.Fatal("live tier must not be called")
		return nil, nil
	}}
	tier := NewTier(nil, nil, wx, cache.NoopProvider{}, Options{})

	result, err := tier.Acquire(context.Background(), 23.25, 77.41, "Bhopal", false)
	require.NoError(t, err)
	assert.Equal(t, models.TierSynthetic, result.Tier)
}

func TestSyntheticSeriesDeterministic(t *testing.T) {
	now := time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC)

	a := syntheticWeatherSeries(23.25, 77.41, now, 7)
	b := syntheticWeatherSeries(23.25, 77.41, now, 7)
	assert.Equal(t, a, b)

	other := syntheticWeatherSeries(26.85, 80.95, now, 7)
	assert.NotEqual(t, a, other)

	for _, obs := range a {
		assert.GreaterOrEqual(t, obs.TempMaxC, obs.TempMinC)
		assert.GreaterOrEqual(t, obs.HumidityPct, 10.0)
		assert.LessOrEqual(t, obs.HumidityPct, 100.0)
		assert.GreaterOrEqual(t, obs.PrecipMm, 0.0)
	}

	sat := syntheticSatelliteSeries(23.25, 77.41, now, 7)
	for _, obs := range sat {
		assert.GreaterOrEqual(t, obs.NDVI, 0.0)
		assert.LessOrEqual(t, obs.NDVI, 1.0)
		assert.GreaterOrEqual(t, obs.FPAR, 0.0)
		assert.LessOrEqual(t, obs.FPAR, 1.0)
	}
}

func TestRecencyScore(t *testing.T) {
	now := time.Now().UTC()
	assert.InDelta(t, 1.0, recencyScore(now, now), 1e-9)
	assert.InDelta(t, 0.5, recencyScore(now.Add(-36*time.Hour), now), 1e-9)
	assert.InDelta(t, 0.0, recencyScore(now.Add(-100*time.Hour), now), 1e-9)
	assert.InDelta(t, 0.0, recencyScore(time.Time{}, now), 1e-9)
}
