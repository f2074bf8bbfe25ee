package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherClientFetchObservations(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/observations", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.InDelta(t, 23.25, payload["latitude"].(float64), 1e-9)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"observations": [
			{"timestamp": "2026-07-15T00:00:00Z", "temp_max_c": 33, "temp_min_c": 21, "temp_mean_c": 27,
			 "humidity_pct": 65, "precip_mm": 10, "solar_radiation": 210}
		]}`))
	}))
	defer ts.Close()

	client := NewWeatherClient(ts.URL, time.Second)
	obs, err := client.FetchObservations(context.Background(), 23.25, 77.41, time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)

	require.Len(t, obs, 1)
	assert.InDelta(t, 33, obs[0].TempMaxC, 1e-9)
	assert.InDelta(t, 210, obs[0].SolarRadiation, 1e-9)
}

func TestWeatherClientEmptySeriesIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"observations": []}`))
	}))
	defer ts.Close()

	client := NewWeatherClient(ts.URL, time.Second)
	_, err := client.FetchObservations(context.Background(), 23.25, 77.41, time.Now().AddDate(0, 0, -7), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no observations")
}

func TestSatelliteClientFetchVegetationSeries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/vegetation", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"series": [
			{"timestamp": "2026-07-15T00:00:00Z", "ndvi": 0.6, "evi": 0.5, "fpar": 0.55, "lai": 2.4}
		]}`))
	}))
	defer ts.Close()

	client := NewSatelliteClient(ts.URL, time.Second)
	series, err := client.FetchVegetationSeries(context.Background(), 23.25, 77.41, time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)

	require.Len(t, series, 1)
	assert.InDelta(t, 0.6, series[0].NDVI, 1e-9)
	assert.InDelta(t, 2.4, series[0].LAI, 1e-9)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewWeatherClient(ts.URL, time.Second)

	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = client.FetchObservations(context.Background(), 23.25, 77.41, time.Now().AddDate(0, 0, -1), time.Now())
		require.Error(t, lastErr)
	}
	assert.ErrorIs(t, lastErr, gobreaker.ErrOpenState)
}

func TestResolvePath(t *testing.T) {
	c := newResilientClient("test", "http://example.com/base/", time.Second)
	assert.Equal(t, "http://example.com/base/api/v1/varieties", c.resolvePath("api/v1/varieties"))
	assert.Equal(t, "http://example.com/base/api/v1/varieties", c.resolvePath("/api/v1/varieties"))

	empty := newResilientClient("test", "", time.Second)
	assert.Equal(t, "", empty.resolvePath("/x"))
}
