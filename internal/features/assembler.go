// Package features turns variety, acquisition output and calendar context
// into the fixed-order numeric vector the trained models expect. Assembly is
// pure: no I/O, no failure, documented neutral defaults for missing inputs.
package features

import (
	"fmt"
	"time"

	"github.com/agrisense/yield-engine/internal/models"
)

// Canonical feature names, in serving order.
const (
	FeatTempMax      = "temp_max_c"
	FeatTempMin      = "temp_min_c"
	FeatTempAvg      = "temp_avg_c"
	FeatPrecip       = "precip_mm"
	FeatHumidity     = "humidity_pct"
	FeatDiurnalRange = "diurnal_temp_range"
	FeatGDD          = "gdd_base10"
	FeatHeatStress   = "heat_stress"
	FeatWaterAvail   = "water_availability"
	FeatSeasonKharif = "season_kharif"
	FeatSeasonRabi   = "season_rabi"
	FeatSeasonZaid   = "season_zaid"
	FeatFPAR         = "fpar"
	FeatNDVI         = "ndvi"
	FeatLAI          = "lai"
)

// Neutral defaults used when an input series carries no usable sample.
const (
	defaultHumidityPct = 50.0
	defaultTempMaxC    = 30.0
	defaultTempMinC    = 18.0
	gddBaseC           = 10.0
	heatStressThreshC  = 35.0
)

// CanonicalOrder returns the full feature-name list in serving order.
func CanonicalOrder() []string {
	return []string{
		FeatTempMax, FeatTempMin, FeatTempAvg,
		FeatPrecip, FeatHumidity,
		FeatDiurnalRange, FeatGDD, FeatHeatStress, FeatWaterAvail,
		FeatSeasonKharif, FeatSeasonRabi, FeatSeasonZaid,
		FeatFPAR, FeatNDVI, FeatLAI,
	}
}

// CalendarContext carries the request calendar inputs for seasonal flags and
// growth accumulation.
type CalendarContext struct {
	SowingDate time.Time
	Now        time.Time
}

// Vector is an assembled feature set addressable by canonical name.
type Vector struct {
	values map[string]float64
}

// Value returns the named feature, or zero when absent.
func (v Vector) Value(name string) float64 {
	return v.values[name]
}

// Align produces the positional array matching the supplied model feature
// list. An unknown name is a programming error (a model/assembler drift), not
// a runtime condition to recover from.
func (v Vector) Align(modelFeatures []string) ([]float64, error) {
	if len(modelFeatures) == 0 {
		return nil, fmt.Errorf("model declares no features")
	}
	out := make([]float64, len(modelFeatures))
	for i, name := range modelFeatures {
		value, ok := v.values[name]
		if !ok {
			return nil, fmt.Errorf("model expects unknown feature %q", name)
		}
		out[i] = value
	}
	return out, nil
}

// Assemble computes the canonical feature vector from the acquisition result
// and calendar context. The variety parameters shape the growth accumulation
// horizon; missing observations fall back to the documented neutral values.
func Assemble(variety models.Variety, data models.DataTierResult, cal CalendarContext) Vector {
	weather := summarizeWeather(data.Weather)
	satellite := summarizeSatellite(data.Satellite)

	now := cal.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	growthDays := growthWindowDays(cal.SowingDate, now, variety.MaturityDays)
	gdd := growingDegreeDays(weather.tempAvg, growthDays)

	heatStress := 0.0
	if weather.tempMax > heatStressThreshC {
		heatStress = 1.0
	}
	waterAvail := weather.precip / (0.01*weather.solar + 1)

	month := int(now.Month())
	if !cal.SowingDate.IsZero() {
		month = int(cal.SowingDate.Month())
	}
	kharif, rabi, zaid := seasonFlags(month)

	return Vector{values: map[string]float64{
		FeatTempMax:      weather.tempMax,
		FeatTempMin:      weather.tempMin,
		FeatTempAvg:      weather.tempAvg,
		FeatPrecip:       weather.precip,
		FeatHumidity:     weather.humidity,
		FeatDiurnalRange: weather.tempMax - weather.tempMin,
		FeatGDD:          gdd,
		FeatHeatStress:   heatStress,
		FeatWaterAvail:   waterAvail,
		FeatSeasonKharif: kharif,
		FeatSeasonRabi:   rabi,
		FeatSeasonZaid:   zaid,
		FeatFPAR:         satellite.fpar,
		FeatNDVI:         satellite.ndvi,
		FeatLAI:          satellite.lai,
	}}
}

type weatherSummary struct {
	tempMax  float64
	tempMin  float64
	tempAvg  float64
	precip   float64
	humidity float64
	solar    float64
}

func summarizeWeather(series []models.WeatherObservation) weatherSummary {
	if len(series) == 0 {
		return weatherSummary{
			tempMax:  defaultTempMaxC,
			tempMin:  defaultTempMinC,
			tempAvg:  (defaultTempMaxC + defaultTempMinC) / 2,
			humidity: defaultHumidityPct,
		}
	}

	s := weatherSummary{tempMax: series[0].TempMaxC, tempMin: series[0].TempMinC}
	var avgSum, humSum, solarSum float64
	for _, o := range series {
		if o.TempMaxC > s.tempMax {
			s.tempMax = o.TempMaxC
		}
		if o.TempMinC < s.tempMin {
			s.tempMin = o.TempMinC
		}
		avgSum += o.TempMeanC
		humSum += o.HumidityPct
		solarSum += o.SolarRadiation
		s.precip += o.PrecipMm
	}
	n := float64(len(series))
	s.tempAvg = avgSum / n
	s.humidity = humSum / n
	s.solar = solarSum / n
	if s.humidity <= 0 {
		s.humidity = defaultHumidityPct
	}
	return s
}

type satelliteSummary struct {
	ndvi float64
	fpar float64
	lai  float64
}

func summarizeSatellite(series []models.SatelliteObservation) satelliteSummary {
	if len(series) == 0 {
		// Mid-season canopy as a neutral stand-in.
		return satelliteSummary{ndvi: 0.5, fpar: 0.5, lai: 2.0}
	}
	var s satelliteSummary
	for _, o := range series {
		s.ndvi += o.NDVI
		s.fpar += o.FPAR
		s.lai += o.LAI
	}
	n := float64(len(series))
	s.ndvi /= n
	s.fpar /= n
	s.lai /= n
	return s
}

func growthWindowDays(sowing, now time.Time, maturityDays int) float64 {
	if sowing.IsZero() || now.Before(sowing) {
		return 0
	}
	days := now.Sub(sowing).Hours() / 24
	if maturityDays > 0 && days > float64(maturityDays) {
		days = float64(maturityDays)
	}
	return days
}

func growingDegreeDays(tempAvg, days float64) float64 {
	perDay := tempAvg - gddBaseC
	if perDay < 0 {
		perDay = 0
	}
	return perDay * days
}

// seasonFlags computes the three membership flags. The windows overlap at
// boundary months (June in both kharif and zaid, October and November in
// both kharif and rabi); the flags are features, not a partition.
func seasonFlags(month int) (kharif, rabi, zaid float64) {
	if month >= 6 && month <= 11 {
		kharif = 1
	}
	if month >= 10 || month <= 3 {
		rabi = 1
	}
	if month >= 4 && month <= 6 {
		zaid = 1
	}
	return kharif, rabi, zaid
}
