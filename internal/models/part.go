// internal/models/part.go
package models

import (
	"time"

	"github.com/lib/pq"
)

type Part struct {
	BaseModel
	PartNumber    string         `json:"part_number" gorm:"size:100;not null;index"`
	Source        string         `json:"source" gorm:"size:50;not null;uniqueIndex:idx_parts_source_listing"`
	SourceID      string         `json:"source_id" gorm:"size:200;not null;uniqueIndex:idx_parts_source_listing"`
	Name          string         `json:"name" gorm:"size:500;not null"`
	Description   string         `json:"description" gorm:"type:text"`
	Category      string         `json:"category" gorm:"size:100;index"`
	Subcategory   string         `json:"subcategory" gorm:"size:100"`
	Brand         string         `json:"brand" gorm:"size:100;index"`
	Grade         PartGrade      `json:"grade" gorm:"type:varchar(20);default:'aftermarket';index"`
	Condition     PartCondition  `json:"condition" gorm:"type:varchar(20);default:'new'"`
	Attributes    JSONB          `json:"attributes" gorm:"type:jsonb"`
	ImageURL      string         `json:"image_url" gorm:"size:1000"`
	ImageURLs     pq.StringArray `json:"image_urls" gorm:"type:text[]"`
	ShipsToRegion bool           `json:"ships_to_region" gorm:"default:true;index"`
	OriginLabel   OriginLabel    `json:"origin_label" gorm:"type:varchar(30);not null;index"`
	RetrievedAt   *time.Time     `json:"retrieved_at"`

	// Relationships
	Prices        []PriceQuote        `json:"prices,omitempty" gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE"`
	Compatibility []CompatibilityRule `json:"compatibility,omitempty" gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE"`
}

func (Part) TableName() string {
	return "parts_catalog"
}
