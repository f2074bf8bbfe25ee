package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/agrisense/yield-engine/internal/models"
)

// WeatherClient fetches current and recent observations from the weather
// provider. Weather is load-bearing for the live data tier: a failure here
// fails the whole tier.
type WeatherClient struct {
	*resilientClient
}

// NewWeatherClient constructs a client for the weather feed.
func NewWeatherClient(baseURL string, timeout time.Duration) *WeatherClient {
	return &WeatherClient{
		resilientClient: newResilientClient("weather-feed", baseURL, timeout),
	}
}

// FetchObservations queries weather samples for the coordinate and date range.
func (c *WeatherClient) FetchObservations(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.WeatherObservation, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("weather client not configured")
	}

	payload := map[string]any{
		"latitude":  lat,
		"longitude": lon,
		"start":     start.Format(time.RFC3339),
		"end":       end.Format(time.RFC3339),
	}

	var response struct {
		Observations []struct {
			Timestamp      time.Time `json:"timestamp"`
			TempMaxC       float64   `json:"temp_max_c"`
			TempMinC       float64   `json:"temp_min_c"`
			TempMeanC      float64   `json:"temp_mean_c"`
			HumidityPct    float64   `json:"humidity_pct"`
			PrecipMm       float64   `json:"precip_mm"`
			SolarRadiation float64   `json:"solar_radiation"`
		} `json:"observations"`
	}
	if err := c.postJSON(ctx, c.resolvePath("/api/v1/observations"), payload, &response); err != nil {
		return nil, fmt.Errorf("weather observations request failed: %w", err)
	}

	observations := make([]models.WeatherObservation, 0, len(response.Observations))
	for _, o := range response.Observations {
		observations = append(observations, models.WeatherObservation{
			Timestamp:      o.Timestamp,
			TempMaxC:       o.TempMaxC,
			TempMinC:       o.TempMinC,
			TempMeanC:      o.TempMeanC,
			HumidityPct:    o.HumidityPct,
			PrecipMm:       o.PrecipMm,
			SolarRadiation: o.SolarRadiation,
		})
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("weather feed returned no observations")
	}
	return observations, nil
}
