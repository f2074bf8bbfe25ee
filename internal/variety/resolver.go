// Package variety selects a cultivar when the caller omits one, walking a
// three-tier fallback chain: regional highest yield, the All North India
// region, then a hard-coded per-crop priority list. Every candidate is
// re-validated against the catalog before acceptance.
package variety

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agrisense/yield-engine/internal/models"
	"github.com/agrisense/yield-engine/internal/utils"
)

// Catalog defines the variety catalog operations the resolver depends on.
type Catalog interface {
	VarietiesByRegion(ctx context.Context, crop models.CropType, region string) ([]models.Variety, error)
	VarietyByName(ctx context.Context, crop models.CropType, name string) (models.Variety, bool, error)
}

// globalDefaults is the per-crop priority list used when both regional tiers
// come up empty. The first entry that verifiably exists in the catalog wins.
var globalDefaults = map[models.CropType][]string{
	models.CropRice:  {"Pusa Basmati 1121", "Swarna", "IR 64"},
	models.CropWheat: {"HD 2967", "HD 3086", "PBW 343"},
	models.CropMaize: {"DHM 117", "Ganga 5", "HQPM 1"},
}

// Resolver implements variety auto-selection.
type Resolver struct {
	logger  *slog.Logger
	catalog Catalog
}

// NewResolver constructs a Resolver over the given catalog.
func NewResolver(logger *slog.Logger, catalog Catalog) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger, catalog: catalog}
}

// Resolve selects a variety for (crop, location). It fails only with
// NoVarietiesAvailable, after every tier is exhausted.
func (r *Resolver) Resolve(ctx context.Context, crop models.CropType, locationName string) (models.VarietySelection, error) {
	const op = "variety.Resolve"

	if r.catalog == nil {
		return models.VarietySelection{}, utils.NewPredictionError(
			utils.KindInternalError, op, "variety selection is unavailable", fmt.Errorf("catalog not configured"))
	}

	region := regionFor(locationName)

	// Tier 1: highest yield potential within the mapped region.
	if selection, ok, err := r.pickRegional(ctx, crop, region); err == nil && ok {
		selection.Metadata.Reason = models.ReasonRegionalHighestYield
		return selection, nil
	} else if err != nil {
		r.logger.Warn("regional variety lookup failed",
			slog.String("region", region), slog.Any("error", err))
	}

	// Tier 2: the broader sentinel region, unless tier 1 already used it.
	if region != RegionAllNorthIndia {
		if selection, ok, err := r.pickRegional(ctx, crop, RegionAllNorthIndia); err == nil && ok {
			selection.Metadata.Reason = models.ReasonRegionalFallback
			selection.Metadata.Region = region
			return selection, nil
		} else if err != nil {
			r.logger.Warn("fallback region variety lookup failed", slog.Any("error", err))
		}
	}

	// Tier 3: hard-coded priority list, first entry the catalog confirms.
	attempted := make([]string, 0, 4)
	for _, name := range globalDefaults[crop] {
		attempted = append(attempted, name)
		entry, ok, err := r.catalog.VarietyByName(ctx, crop, name)
		if err != nil {
			r.logger.Warn("global default validation failed",
				slog.String("variety", name), slog.Any("error", err))
			continue
		}
		if !ok {
			continue
		}
		return models.VarietySelection{
			VarietyName: entry.Name,
			Assumed:     true,
			Metadata: &models.SelectionMetadata{
				Region:         region,
				Reason:         models.ReasonGlobalDefault,
				YieldPotential: entry.YieldPotential,
			},
		}, nil
	}

	// An expired deadline makes every tier fail; that is a timeout, not an
	// empty catalog.
	if ctx.Err() != nil {
		return models.VarietySelection{}, ctx.Err()
	}

	return models.VarietySelection{}, utils.NewPredictionError(
		utils.KindNoVarietiesAvailable, op,
		fmt.Sprintf("no %s variety available; attempted %s", crop, strings.Join(attempted, ", ")),
		nil)
}

// Validate confirms a caller-supplied variety exists in the catalog for the
// crop. A mismatch is an InvalidInput, surfaced directly.
func (r *Resolver) Validate(ctx context.Context, crop models.CropType, name string) (models.VarietySelection, error) {
	const op = "variety.Validate"

	entry, ok, err := r.catalog.VarietyByName(ctx, crop, name)
	if err != nil {
		return models.VarietySelection{}, utils.NewPredictionError(
			utils.KindInternalError, op, "variety validation is unavailable", err)
	}
	if !ok {
		return models.VarietySelection{}, utils.InvalidInput(op,
			fmt.Sprintf("variety %q is not a known %s variety", name, crop))
	}
	return models.VarietySelection{VarietyName: entry.Name, Assumed: false}, nil
}

// pickRegional runs one regional tier: order by descending yield potential,
// take the top entry, and re-check it still exists in the catalog in case of
// catalog drift between the two queries.
func (r *Resolver) pickRegional(ctx context.Context, crop models.CropType, region string) (models.VarietySelection, bool, error) {
	varieties, err := r.catalog.VarietiesByRegion(ctx, crop, region)
	if err != nil {
		return models.VarietySelection{}, false, err
	}
	if len(varieties) == 0 {
		return models.VarietySelection{}, false, nil
	}

	sort.SliceStable(varieties, func(i, j int) bool {
		return varieties[i].YieldPotential > varieties[j].YieldPotential
	})
	top := varieties[0]

	if _, ok, err := r.catalog.VarietyByName(ctx, crop, top.Name); err != nil || !ok {
		if err != nil {
			return models.VarietySelection{}, false, err
		}
		return models.VarietySelection{}, false, nil
	}

	alternatives := make([]string, 0, 3)
	for _, v := range varieties[1:] {
		if len(alternatives) == 3 {
			break
		}
		alternatives = append(alternatives, v.Name)
	}

	return models.VarietySelection{
		VarietyName: top.Name,
		Assumed:     true,
		Metadata: &models.SelectionMetadata{
			Region:         region,
			YieldPotential: top.YieldPotential,
			Alternatives:   alternatives,
		},
	}, true, nil
}
