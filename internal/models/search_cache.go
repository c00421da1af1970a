// internal/models/search_cache.go
package models

import (
	"time"

	"github.com/lib/pq"
)

type SearchCacheEntry struct {
	BaseModel
	QueryHash      string         `json:"query_hash" gorm:"size:64;not null;uniqueIndex"`
	QueryText      string         `json:"query_text" gorm:"size:500;not null;index"`
	VehicleMake    string         `json:"vehicle_make" gorm:"size:50"`
	VehicleModel   string         `json:"vehicle_model" gorm:"size:100"`
	VehicleYear    int            `json:"vehicle_year" gorm:"default:0"`
	Results        JSONB          `json:"results" gorm:"type:jsonb;not null"`
	ResultCount    int            `json:"result_count" gorm:"not null;default:0"`
	SourcesQueried pq.StringArray `json:"sources_queried" gorm:"type:text[]"`
	ExpiresAt      time.Time      `json:"expires_at" gorm:"not null;index"`
	HitCount       int            `json:"hit_count" gorm:"default:0"`
}

func (SearchCacheEntry) TableName() string {
	return "search_cache"
}

// Live reports whether the entry is still valid for reads.
func (e SearchCacheEntry) Live(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
