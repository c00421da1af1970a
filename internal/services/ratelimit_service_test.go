// internal/services/ratelimit_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carverse/partsearch-backend/internal/models"
)

func TestNextResetTimeIsUpcomingUTCMidnight(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	reset := nextResetTime(now)

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), reset)
}

func TestNextResetTimeJustBeforeMidnight(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), nextResetTime(now))
}

func TestNextResetTimeAtMidnightRollsToNextDay(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	// a window starting exactly at midnight expires at the following midnight
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), nextResetTime(now))
}

func TestNextResetTimeNormalizesZone(t *testing.T) {
	zone := time.FixedZone("SGT", 8*3600)
	now := time.Date(2024, 3, 16, 1, 0, 0, 0, zone) // 2024-03-15T17:00Z

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), nextResetTime(now))
}

func TestNextResetTimeMonthBoundary(t *testing.T) {
	now := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nextResetTime(now))
}

func TestWindowExpiredBoundary(t *testing.T) {
	resetAt := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	state := models.APIRateLimit{ResetAt: resetAt}

	assert.False(t, state.WindowExpired(resetAt.Add(-time.Second)))
	assert.True(t, state.WindowExpired(resetAt), "the reset instant itself starts the new window")
	assert.True(t, state.WindowExpired(resetAt.Add(time.Hour)))
}
