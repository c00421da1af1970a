// internal/models/rate_limit.go
package models

import (
	"time"
)

type APIRateLimit struct {
	BaseModel
	Source     string    `json:"source" gorm:"size:50;not null;uniqueIndex:idx_rate_source_endpoint"`
	Endpoint   string    `json:"endpoint" gorm:"size:200;not null;uniqueIndex:idx_rate_source_endpoint"`
	CallCount  int       `json:"call_count" gorm:"default:0"`
	DailyLimit int       `json:"daily_limit" gorm:"not null"`
	Remaining  int       `json:"remaining" gorm:"not null"`
	ResetAt    time.Time `json:"reset_at" gorm:"not null;index"`
}

func (APIRateLimit) TableName() string {
	return "api_rate_limits"
}

// WindowExpired reports whether the current quota window has rolled over.
func (l APIRateLimit) WindowExpired(now time.Time) bool {
	return !now.Before(l.ResetAt)
}
