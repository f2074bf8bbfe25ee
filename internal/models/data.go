package models

import "time"

// DataTier identifies the degradation level the acquisition layer landed on.
type DataTier string

const (
	TierLive       DataTier = "live"
	TierHistorical DataTier = "historical"
	TierSynthetic  DataTier = "synthetic"
)

// SatelliteObservation is one vegetation-index sample.
type SatelliteObservation struct {
	Timestamp time.Time
	NDVI      float64
	EVI       float64
	FPAR      float64
	LAI       float64
}

// WeatherObservation is one weather sample.
type WeatherObservation struct {
	Timestamp      time.Time
	TempMaxC       float64
	TempMinC       float64
	TempMeanC      float64
	HumidityPct    float64
	PrecipMm       float64
	SolarRadiation float64
}

// DataTierResult bundles the series the acquisition layer produced alongside
// the tier tag and quality score. The tier tag is authoritative; callers must
// not infer the tier from presence or absence of data.
type DataTierResult struct {
	Satellite []SatelliteObservation
	Weather   []WeatherObservation
	Tier      DataTier
	Quality   float64 // [0,1] completeness x recency
}

// NewestObservation returns the most recent timestamp across both series.
func (r DataTierResult) NewestObservation() time.Time {
	var newest time.Time
	for _, o := range r.Satellite {
		if o.Timestamp.After(newest) {
			newest = o.Timestamp
		}
	}
	for _, o := range r.Weather {
		if o.Timestamp.After(newest) {
			newest = o.Timestamp
		}
	}
	return newest
}
