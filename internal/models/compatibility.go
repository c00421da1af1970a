// internal/models/compatibility.go
package models

import (
	"github.com/google/uuid"
)

type CompatibilityRule struct {
	BaseModel
	PartID       uuid.UUID `json:"part_id" gorm:"type:uuid;not null;index"`
	Make         string    `json:"make" gorm:"size:50;not null;index"`
	Model        string    `json:"model" gorm:"size:100;not null;index"`
	YearStart    int       `json:"year_start" gorm:"not null;index"`
	YearEnd      int       `json:"year_end" gorm:"not null;index"`
	Trim         string    `json:"trim" gorm:"size:100"`
	Engine       string    `json:"engine" gorm:"size:100"`
	Transmission string    `json:"transmission" gorm:"size:50"`
	DriveType    string    `json:"drive_type" gorm:"size:20"`
	Position     string    `json:"position" gorm:"size:50"`
	Notes        string    `json:"notes" gorm:"type:text"`
	Confidence   float64   `json:"confidence" gorm:"type:decimal(3,2);default:1.0"`
	IsUniversal  bool      `json:"is_universal" gorm:"default:false;index"`
	Source       string    `json:"source" gorm:"size:50"`

	// Relationships
	Part Part `json:"part,omitempty" gorm:"foreignKey:PartID"`
}

func (CompatibilityRule) TableName() string {
	return "part_compatibility"
}

// Valid reports whether the rule's year range is well formed. Rules that
// fail this check are skipped during matching instead of raising.
func (r CompatibilityRule) Valid() bool {
	return r.IsUniversal || r.YearStart <= r.YearEnd
}

// CoversYear reports whether year falls inside the inclusive range.
func (r CompatibilityRule) CoversYear(year int) bool {
	return year >= r.YearStart && year <= r.YearEnd
}
