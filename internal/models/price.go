// internal/models/price.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type PriceQuote struct {
	BaseModel
	PartID          uuid.UUID     `json:"part_id" gorm:"type:uuid;not null;index"`
	Currency        string        `json:"currency" gorm:"size:10;not null"`
	Price           float64       `json:"price" gorm:"type:decimal(10,2);not null"`
	OriginalPrice   float64       `json:"original_price" gorm:"type:decimal(10,2)"`
	ShippingCost    float64       `json:"shipping_cost" gorm:"type:decimal(10,2)"`
	SellerName      string        `json:"seller_name" gorm:"size:200"`
	SellerRating    float64       `json:"seller_rating" gorm:"type:decimal(3,2)"`
	Availability    Availability  `json:"availability" gorm:"type:varchar(20);default:'unknown'"`
	Condition       PartCondition `json:"condition" gorm:"type:varchar(20);default:'new'"`
	StockQuantity   int           `json:"stock_quantity" gorm:"default:0"`
	ShipsToRegion   bool          `json:"ships_to_region" gorm:"default:false;index"`
	DeliveryDaysMin int           `json:"delivery_days_min" gorm:"default:0"`
	DeliveryDaysMax int           `json:"delivery_days_max" gorm:"default:0"`
	SourceURL       string        `json:"source_url" gorm:"size:1000"`
	LastUpdatedAt   *time.Time    `json:"last_updated_at"`
	ValidUntil      *time.Time    `json:"valid_until" gorm:"index"`

	// Relationships
	Part Part `json:"part,omitempty" gorm:"foreignKey:PartID"`
}

func (PriceQuote) TableName() string {
	return "part_prices"
}
