// internal/services/ratelimit_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/carverse/partsearch-backend/internal/models"
)

// RateLimitService tracks per-source, per-endpoint call counts against
// daily quotas in durable storage, so restarts and multiple instances share
// one budget.
type RateLimitService struct {
	db *gorm.DB
}

func NewRateLimitService(db *gorm.DB) *RateLimitService {
	return &RateLimitService{db: db}
}

// Allow claims one call from the quota. The claim is a conditional update
// on remaining > 0, so concurrent requests cannot overrun the budget.
func (s *RateLimitService) Allow(ctx context.Context, source, endpoint string, dailyLimit int) (bool, error) {
	now := time.Now().UTC()

	state, err := s.loadOrCreate(ctx, source, endpoint, dailyLimit, now)
	if err != nil {
		return false, err
	}

	if state.WindowExpired(now) {
		if err := s.resetWindow(ctx, state, dailyLimit, now); err != nil {
			return false, err
		}
	}

	result := s.db.WithContext(ctx).
		Model(&models.APIRateLimit{}).
		Where("id = ? AND remaining > 0", state.ID).
		Updates(map[string]interface{}{
			"call_count": gorm.Expr("call_count + 1"),
			"remaining":  gorm.Expr("remaining - 1"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim rate limit slot: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		logrus.WithFields(logrus.Fields{
			"source":   source,
			"endpoint": endpoint,
			"reset_at": state.ResetAt,
		}).Warn("Daily quota exhausted for source")
		return false, nil
	}

	return true, nil
}

// Remaining reports the unclaimed budget without consuming any of it.
func (s *RateLimitService) Remaining(ctx context.Context, source, endpoint string) (int, error) {
	var state models.APIRateLimit
	err := s.db.WithContext(ctx).
		Where("source = ? AND endpoint = ?", source, endpoint).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load rate limit state: %w", err)
	}

	if state.WindowExpired(time.Now().UTC()) {
		return state.DailyLimit, nil
	}
	return state.Remaining, nil
}

// Status lists every tracked source/endpoint pair for the ops endpoint.
func (s *RateLimitService) Status(ctx context.Context) ([]models.APIRateLimit, error) {
	var states []models.APIRateLimit
	err := s.db.WithContext(ctx).
		Order("source, endpoint").
		Find(&states).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rate limit state: %w", err)
	}
	return states, nil
}

func (s *RateLimitService) loadOrCreate(ctx context.Context, source, endpoint string, dailyLimit int, now time.Time) (*models.APIRateLimit, error) {
	state := models.APIRateLimit{
		Source:     source,
		Endpoint:   endpoint,
		DailyLimit: dailyLimit,
		Remaining:  dailyLimit,
		ResetAt:    nextResetTime(now),
	}

	err := s.db.WithContext(ctx).
		Where("source = ? AND endpoint = ?", source, endpoint).
		FirstOrCreate(&state).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rate limit state: %w", err)
	}

	return &state, nil
}

func (s *RateLimitService) resetWindow(ctx context.Context, state *models.APIRateLimit, dailyLimit int, now time.Time) error {
	reset := nextResetTime(now)
	err := s.db.WithContext(ctx).
		Model(&models.APIRateLimit{}).
		Where("id = ?", state.ID).
		Updates(map[string]interface{}{
			"call_count":  0,
			"remaining":   dailyLimit,
			"daily_limit": dailyLimit,
			"reset_at":    reset,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset rate limit window: %w", err)
	}

	state.CallCount = 0
	state.Remaining = dailyLimit
	state.DailyLimit = dailyLimit
	state.ResetAt = reset
	return nil
}

// nextResetTime is the upcoming UTC midnight, the boundary all daily source
// quotas roll over on.
func nextResetTime(now time.Time) time.Time {
	year, month, day := now.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
