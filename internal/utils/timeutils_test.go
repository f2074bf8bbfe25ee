package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSowingDate(t *testing.T) {
	got, err := ParseSowingDate("2026-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseSowingDate("2026-06-15T08:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.June, 15, 8, 30, 0, 0, time.UTC), got)

	_, err = ParseSowingDate("June 15th 2026")
	require.Error(t, err)

	_, err = ParseSowingDate("")
	require.Error(t, err)
}

func TestHoursSince(t *testing.T) {
	now := time.Date(2026, time.July, 15, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, 4.5, HoursSince(now.Add(-270*time.Minute), now), 1e-9)
	assert.InDelta(t, 0, HoursSince(now.Add(time.Hour), now), 1e-9)
	assert.InDelta(t, 0, HoursSince(time.Time{}, now), 1e-9)
}
