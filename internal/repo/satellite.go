package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/agrisense/yield-engine/internal/models"
)

// SatelliteClient fetches vegetation-index time series from the satellite
// data provider.
type SatelliteClient struct {
	*resilientClient
}

// NewSatelliteClient constructs a client for the satellite feed.
func NewSatelliteClient(baseURL string, timeout time.Duration) *SatelliteClient {
	return &SatelliteClient{
		resilientClient: newResilientClient("satellite-feed", baseURL, timeout),
	}
}

// FetchVegetationSeries queries NDVI/EVI/FPAR/LAI samples for the coordinate
// and date range.
func (c *SatelliteClient) FetchVegetationSeries(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.SatelliteObservation, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("satellite client not configured")
	}

	payload := map[string]any{
		"latitude":  lat,
		"longitude": lon,
		"start":     start.Format(time.RFC3339),
		"end":       end.Format(time.RFC3339),
		"indices":   []string{"ndvi", "evi", "fpar", "lai"},
	}

	var response struct {
		Series []struct {
			Timestamp time.Time `json:"timestamp"`
			NDVI      float64   `json:"ndvi"`
			EVI       float64   `json:"evi"`
			FPAR      float64   `json:"fpar"`
			LAI       float64   `json:"lai"`
		} `json:"series"`
	}
	if err := c.postJSON(ctx, c.resolvePath("/api/v1/vegetation"), payload, &response); err != nil {
		return nil, fmt.Errorf("satellite vegetation request failed: %w", err)
	}

	observations := make([]models.SatelliteObservation, 0, len(response.Series))
	for _, s := range response.Series {
		observations = append(observations, models.SatelliteObservation{
			Timestamp: s.Timestamp,
			NDVI:      s.NDVI,
			EVI:       s.EVI,
			FPAR:      s.FPAR,
			LAI:       s.LAI,
		})
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("satellite feed returned no samples")
	}
	return observations, nil
}
