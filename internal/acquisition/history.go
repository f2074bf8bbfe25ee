package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agrisense/yield-engine/internal/cache"
	"github.com/agrisense/yield-engine/internal/models"
)

// historyStore keeps recent per-(location, day) observations in a bounded
// TTL cache so the historical tier has something to serve when live calls
// fail. Stale-but-valid reads are acceptable.
type historyStore struct {
	provider cache.Provider
	ttl      time.Duration
}

type historyEntry struct {
	Satellite []models.SatelliteObservation `json:"satellite"`
	Weather   []models.WeatherObservation   `json:"weather"`
	StoredAt  time.Time                     `json:"stored_at"`
}

func newHistoryStore(provider cache.Provider, ttl time.Duration) *historyStore {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &historyStore{provider: provider, ttl: ttl}
}

func historyKey(location string, day time.Time) string {
	return fmt.Sprintf("history:%s:%s", location, day.UTC().Format("2006-01-02"))
}

// store records a successful live acquisition under today's key. SetNX keeps
// single-writer-per-key semantics: the first writer of the day wins.
func (h *historyStore) store(ctx context.Context, location string, result models.DataTierResult) {
	entry := historyEntry{
		Satellite: result.Satellite,
		Weather:   result.Weather,
		StoredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = h.provider.SetNX(ctx, historyKey(location, entry.StoredAt), payload, h.ttl)
}

// load gathers cached entries across the lookback window and computes the
// quality score as completeness x recency. Used only when non-empty and the
// score clears the minimum.
func (h *historyStore) load(ctx context.Context, location string, lookbackDays int, minQuality float64) (models.DataTierResult, bool) {
	now := time.Now().UTC()

	var merged historyEntry
	var newest time.Time
	found := 0
	for i := 0; i < lookbackDays; i++ {
		day := now.AddDate(0, 0, -i)
		payload, err := h.provider.Get(ctx, historyKey(location, day))
		if err != nil {
			continue
		}
		var entry historyEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			continue
		}
		found++
		merged.Satellite = append(merged.Satellite, entry.Satellite...)
		merged.Weather = append(merged.Weather, entry.Weather...)
		if entry.StoredAt.After(newest) {
			newest = entry.StoredAt
		}
	}

	if found == 0 || len(merged.Weather) == 0 {
		return models.DataTierResult{}, false
	}

	completeness := float64(found) / float64(lookbackDays)
	quality := completeness * recencyScore(newest, now)
	if quality < minQuality {
		return models.DataTierResult{}, false
	}

	return models.DataTierResult{
		Satellite: merged.Satellite,
		Weather:   merged.Weather,
		Tier:      models.TierHistorical,
		Quality:   quality,
	}, true
}

// recencyScore decays linearly from 1 (fresh) to 0 over three days.
func recencyScore(newest, now time.Time) float64 {
	if newest.IsZero() {
		return 0
	}
	age := now.Sub(newest)
	if age <= 0 {
		return 1
	}
	const horizon = 72 * time.Hour
	if age >= horizon {
		return 0
	}
	return 1 - float64(age)/float64(horizon)
}
