package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRatingStatus(t *testing.T) {
	for _, value := range []string{"watching", "completed", "plan_to_watch", "dropped"} {
		status, err := ParseRatingStatus(value)
		require.NoError(t, err, value)
		assert.Equal(t, RatingStatus(value), status)
	}

	status, err := ParseRatingStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusWatching, status)

	for _, value := range []string{"finished", "WATCHING", "plan-to-watch", " "} {
		_, err := ParseRatingStatus(value)
		assert.Error(t, err, value)
	}
}

func TestValidScore(t *testing.T) {
	for _, score := range []float64{1, 1.5, 2.7, 4.3, 5} {
		assert.True(t, ValidScore(score), "score %v", score)
	}
	for _, score := range []float64{0, 0.5, 5.1, -3, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.False(t, ValidScore(score), "score %v", score)
	}
}
