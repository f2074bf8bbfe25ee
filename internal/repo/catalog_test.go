package repo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/yield-engine/internal/models"
)

func TestVarietiesByRegion(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/varieties", r.URL.Path)
		assert.Equal(t, "Wheat", r.URL.Query().Get("crop"))
		assert.Equal(t, "Madhya Pradesh", r.URL.Query().Get("region"))
		assert.Equal(t, "yield_potential.desc", r.URL.Query().Get("order"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"varieties": [
			{"name": "JW 3382", "crop": "Wheat", "region": "Madhya Pradesh", "yield_potential": 5.2, "maturity_days": 120},
			{"name": "HI 1544", "crop": "Wheat", "region": "Madhya Pradesh", "yield_potential": 4.6, "maturity_days": 115}
		]}`))
	}))
	defer ts.Close()

	client := NewCatalogClient(ts.URL, time.Second)
	varieties, err := client.VarietiesByRegion(context.Background(), models.CropWheat, "Madhya Pradesh")
	require.NoError(t, err)

	require.Len(t, varieties, 2)
	assert.Equal(t, "JW 3382", varieties[0].Name)
	assert.Equal(t, models.CropWheat, varieties[0].Crop)
	assert.Equal(t, 120, varieties[0].MaturityDays)
}

func TestVarietiesByRegionNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewCatalogClient(ts.URL, time.Second)
	varieties, err := client.VarietiesByRegion(context.Background(), models.CropRice, "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, varieties)
}

func TestVarietyByName(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/varieties/lookup", r.URL.Path)
		assert.Equal(t, "HD 2967", r.URL.Query().Get("name"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"variety": {"name": "HD 2967", "crop": "Wheat", "yield_potential": 4.8}}`))
	}))
	defer ts.Close()

	client := NewCatalogClient(ts.URL, time.Second)
	entry, ok, err := client.VarietyByName(context.Background(), models.CropWheat, "HD 2967")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "HD 2967", entry.Name)
	assert.InDelta(t, 4.8, entry.YieldPotential, 1e-9)
}

func TestVarietyByNameMissing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"variety": null}`))
	}))
	defer ts.Close()

	client := NewCatalogClient(ts.URL, time.Second)
	_, ok, err := client.VarietyByName(context.Background(), models.CropWheat, "Unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVarietyByNameServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewCatalogClient(ts.URL, time.Second)
	_, _, err := client.VarietyByName(context.Background(), models.CropWheat, "HD 2967")
	require.Error(t, err)
}

func TestCatalogClientUnconfigured(t *testing.T) {
	client := NewCatalogClient("", time.Second)
	_, err := client.VarietiesByRegion(context.Background(), models.CropWheat, "Punjab")
	require.Error(t, err)
}
