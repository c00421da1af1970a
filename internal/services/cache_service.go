// internal/services/cache_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carverse/partsearch-backend/internal/models"
	"github.com/carverse/partsearch-backend/internal/utils"
)

// CacheService memoizes complete search payloads keyed by the canonical
// query hash, with a TTL and a hit counter.
type CacheService struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewCacheService(db *gorm.DB, ttl time.Duration) *CacheService {
	return &CacheService{db: db, ttl: ttl}
}

// CacheKey canonicalizes the query and vehicle triple so that incidental
// casing and whitespace collide to the same digest.
func CacheKey(query string, vehicle *Vehicle) string {
	var vehicleMake, vehicleModel, year string
	if vehicle != nil {
		vehicleMake = strings.ToLower(vehicle.Make)
		vehicleModel = strings.ToLower(vehicle.Model)
		if vehicle.Year > 0 {
			year = strconv.Itoa(vehicle.Year)
		}
	}

	key := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(query)),
		vehicleMake,
		vehicleModel,
		year,
	}, "|")

	return utils.HashString(key)
}

// Lookup returns the cached payload for the hash, or nil on a miss or an
// expired entry. A live hit increments the entry's hit counter.
func (s *CacheService) Lookup(ctx context.Context, queryHash string) (*SearchResponse, error) {
	var entry models.SearchCacheEntry
	err := s.db.WithContext(ctx).
		Where("query_hash = ? AND expires_at > ?", queryHash, time.Now()).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read search cache: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&entry).
		UpdateColumn("hit_count", gorm.Expr("hit_count + 1")).Error; err != nil {
		logrus.WithError(err).Warn("Failed to increment cache hit counter")
	}

	payload, err := decodeCachedResponse(entry.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached payload: %w", err)
	}

	return payload, nil
}

// Store upserts the payload under its canonical hash with a fresh TTL.
func (s *CacheService) Store(ctx context.Context, query string, vehicle *Vehicle, payload *SearchResponse, sourcesQueried []string) error {
	results, err := encodeCachedResponse(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for caching: %w", err)
	}

	entry := models.SearchCacheEntry{
		QueryHash:      CacheKey(query, vehicle),
		QueryText:      strings.TrimSpace(query),
		Results:        results,
		ResultCount:    len(payload.Results),
		SourcesQueried: sourcesQueried,
		ExpiresAt:      time.Now().Add(s.ttl),
	}
	if vehicle != nil {
		entry.VehicleMake = vehicle.Make
		entry.VehicleModel = vehicle.Model
		entry.VehicleYear = vehicle.Year
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "query_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"query_text", "vehicle_make", "vehicle_model", "vehicle_year",
				"results", "result_count", "sources_queried", "expires_at",
				"updated_at",
			}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}

	return nil
}

// PurgeExpired hard-deletes entries past their TTL and returns how many
// were removed.
func (s *CacheService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Unscoped().
		Where("expires_at <= ?", time.Now()).
		Delete(&models.SearchCacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired cache entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// TopQueries lists the most re-requested live entries, an operational
// signal for what the catalog should stock.
func (s *CacheService) TopQueries(ctx context.Context, limit int) ([]models.SearchCacheEntry, error) {
	var entries []models.SearchCacheEntry
	err := s.db.WithContext(ctx).
		Select("query_text", "vehicle_make", "vehicle_model", "vehicle_year", "result_count", "hit_count", "expires_at").
		Where("expires_at > ?", time.Now()).
		Order("hit_count DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top queries: %w", err)
	}
	return entries, nil
}

func encodeCachedResponse(payload *SearchResponse) (models.JSONB, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var results models.JSONB
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func decodeCachedResponse(results models.JSONB) (*SearchResponse, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}

	var payload SearchResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
