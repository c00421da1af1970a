// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type OriginLabel string

const (
	OriginLocalCatalog  OriginLabel = "local_catalog"
	OriginWebAggregator OriginLabel = "web_aggregator"
	OriginAuctionMarket OriginLabel = "auction_marketplace"
)

type PartGrade string

const (
	PartGradeOEM         PartGrade = "oem"
	PartGradeAftermarket PartGrade = "aftermarket"
)

type PartCondition string

const (
	PartConditionNew         PartCondition = "new"
	PartConditionUsed        PartCondition = "used"
	PartConditionRefurbished PartCondition = "refurbished"
)

type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityLimited    Availability = "limited"
	AvailabilityUnknown    Availability = "unknown"
)

type CompatibilityLevel string

const (
	CompatibilityUniversal    CompatibilityLevel = "universal"
	CompatibilityGuaranteed   CompatibilityLevel = "guaranteed"
	CompatibilityHigh         CompatibilityLevel = "high"
	CompatibilityModerate     CompatibilityLevel = "moderate"
	CompatibilityLow          CompatibilityLevel = "low"
	CompatibilityPossible     CompatibilityLevel = "possible"
	CompatibilityIncompatible CompatibilityLevel = "incompatible"
)
