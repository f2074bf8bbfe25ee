package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := NewPredictionError(KindModelUnavailable, "test.op", "no model", nil)
	assert.Equal(t, KindModelUnavailable, KindOf(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, KindModelUnavailable, KindOf(wrapped))

	assert.Equal(t, KindInternalError, KindOf(errors.New("raw failure")))
	assert.Equal(t, KindInternalError, KindOf(nil))
}

func TestClientMessageRedaction(t *testing.T) {
	err := NewPredictionError(KindDataCollectionFailed, "acq.fetch",
		"weather data collection failed", errors.New("dial tcp 10.0.0.8:443: connection refused"))

	msg := ClientMessage(err)
	assert.Equal(t, "weather data collection failed", msg)
	assert.NotContains(t, msg, "10.0.0.8")

	// Untyped errors never leak their text.
	assert.Equal(t, "an unexpected error occurred", ClientMessage(errors.New("secret detail")))

	// Typed but empty message falls back to the generic text too.
	empty := NewPredictionError(KindInternalError, "op", "", errors.New("internal detail"))
	assert.Equal(t, "an unexpected error occurred", ClientMessage(empty))
}

func TestIsKind(t *testing.T) {
	err := InvalidInput("test.op", "latitude out of range")
	assert.True(t, IsKind(err, KindInvalidInput))
	assert.False(t, IsKind(err, KindRequestTimeout))
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewPredictionError(KindInternalError, "test.op", "failed", cause)
	assert.Contains(t, err.Error(), "test.op")
	assert.Contains(t, err.Error(), "boom")
	assert.ErrorIs(t, err, cause)
}
