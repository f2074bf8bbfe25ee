package acquisition

import (
	"math"
	"math/rand"
	"time"

	"github.com/agrisense/yield-engine/internal/models"
)

// syntheticQuality is the fixed quality score of climatological defaults.
const syntheticQuality = 0.25

// syntheticSeed derives a deterministic seed from coordinate and day of year
// so identical requests produce identical synthetic series.
func syntheticSeed(lat, lon float64, now time.Time) int64 {
	return int64(lat*1e4)*31 + int64(lon*1e4)*17 + int64(now.YearDay())
}

// syntheticWeatherSeries generates climatological defaults constrained to
// physically plausible local bounds.
func syntheticWeatherSeries(lat, lon float64, now time.Time, days int) []models.WeatherObservation {
	rng := rand.New(rand.NewSource(syntheticSeed(lat, lon, now)))
	base := seasonalBaseTemp(lat, now)

	series := make([]models.WeatherObservation, 0, days)
	for i := days - 1; i >= 0; i-- {
		ts := now.AddDate(0, 0, -i)
		mean := base + rng.Float64()*2 - 1
		tmax := mean + 5 + rng.Float64()*2
		tmin := mean - 5 - rng.Float64()*2
		series = append(series, models.WeatherObservation{
			Timestamp:      ts,
			TempMaxC:       clampFloat(tmax, -5, 48),
			TempMinC:       clampFloat(tmin, -10, 35),
			TempMeanC:      clampFloat(mean, -8, 42),
			HumidityPct:    clampFloat(55+rng.Float64()*20, 10, 100),
			PrecipMm:       clampFloat(rng.Float64()*monsoonFactor(now)*8, 0, 80),
			SolarRadiation: clampFloat(180+rng.Float64()*60, 50, 320),
		})
	}
	return series
}

// syntheticSatelliteSeries generates vegetation defaults; NDVI and FPAR stay
// in [0,1], LAI within crop-canopy range.
func syntheticSatelliteSeries(lat, lon float64, now time.Time, days int) []models.SatelliteObservation {
	rng := rand.New(rand.NewSource(syntheticSeed(lat, lon, now) + 1))

	series := make([]models.SatelliteObservation, 0, days)
	for i := days - 1; i >= 0; i-- {
		ts := now.AddDate(0, 0, -i)
		ndvi := clampFloat(0.45+rng.Float64()*0.2, 0, 1)
		series = append(series, models.SatelliteObservation{
			Timestamp: ts,
			NDVI:      ndvi,
			EVI:       clampFloat(ndvi*0.85, 0, 1),
			FPAR:      clampFloat(ndvi*0.95, 0, 1),
			LAI:       clampFloat(ndvi*4.5, 0, 7),
		})
	}
	return series
}

// seasonalBaseTemp approximates the mean temperature for northern-India
// latitudes: peak around June, trough around January.
func seasonalBaseTemp(lat float64, now time.Time) float64 {
	phase := 2 * math.Pi * float64(now.YearDay()-15) / 365
	amplitude := 11.0
	base := 25.0 - math.Abs(lat-24)*0.3
	return base - amplitude*math.Cos(phase)
}

// monsoonFactor boosts synthetic precipitation during July-September.
func monsoonFactor(now time.Time) float64 {
	switch now.Month() {
	case time.July, time.August, time.September:
		return 3.0
	case time.June, time.October:
		return 1.5
	default:
		return 0.5
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
