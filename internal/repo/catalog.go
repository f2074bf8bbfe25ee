package repo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/agrisense/yield-engine/internal/models"
)

// CatalogClient wraps the variety catalog service. The catalog guarantees
// uniqueness per (crop, variety name).
type CatalogClient struct {
	*resilientClient
}

// NewCatalogClient constructs a client targeting the configured catalog instance.
func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		resilientClient: newResilientClient("variety-catalog", baseURL, timeout),
	}
}

type catalogVariety struct {
	Name             string  `json:"name"`
	Crop             string  `json:"crop"`
	Region           string  `json:"region"`
	YieldPotential   float64 `json:"yield_potential"`
	MaturityDays     int     `json:"maturity_days"`
	TempToleranceC   float64 `json:"temp_tolerance_c"`
	WaterRequirement float64 `json:"water_requirement_mm"`
}

// VarietiesByRegion returns catalog entries for (crop, region) ordered by
// descending yield potential, as the catalog serves them.
func (c *CatalogClient) VarietiesByRegion(ctx context.Context, crop models.CropType, region string) ([]models.Variety, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("catalog client not configured")
	}

	query := url.Values{}
	query.Set("crop", string(crop))
	query.Set("region", region)
	query.Set("order", "yield_potential.desc")

	var response struct {
		Varieties []catalogVariety `json:"varieties"`
	}
	if err := c.getJSON(ctx, c.resolvePath("/api/v1/varieties"), query, &response); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog region lookup failed: %w", err)
	}

	varieties := make([]models.Variety, 0, len(response.Varieties))
	for _, v := range response.Varieties {
		varieties = append(varieties, fromCatalogVariety(v))
	}
	return varieties, nil
}

// VarietyByName looks up a single entry by (crop, name). The ok result is
// false when the catalog has no such entry for that crop.
func (c *CatalogClient) VarietyByName(ctx context.Context, crop models.CropType, name string) (models.Variety, bool, error) {
	if c == nil || c.baseURL == "" {
		return models.Variety{}, false, fmt.Errorf("catalog client not configured")
	}

	query := url.Values{}
	query.Set("crop", string(crop))
	query.Set("name", name)

	var response struct {
		Variety *catalogVariety `json:"variety"`
	}
	if err := c.getJSON(ctx, c.resolvePath("/api/v1/varieties/lookup"), query, &response); err != nil {
		if IsNotFound(err) {
			return models.Variety{}, false, nil
		}
		return models.Variety{}, false, fmt.Errorf("catalog name lookup failed: %w", err)
	}
	if response.Variety == nil {
		return models.Variety{}, false, nil
	}
	return fromCatalogVariety(*response.Variety), true, nil
}

func fromCatalogVariety(v catalogVariety) models.Variety {
	crop, err := models.ParseCropType(v.Crop)
	if err != nil {
		crop = models.CropType(v.Crop)
	}
	return models.Variety{
		Name:             v.Name,
		Crop:             crop,
		Region:           v.Region,
		YieldPotential:   v.YieldPotential,
		MaturityDays:     v.MaturityDays,
		TempToleranceC:   v.TempToleranceC,
		WaterRequirement: v.WaterRequirement,
	}
}
