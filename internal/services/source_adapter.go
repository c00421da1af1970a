// internal/services/source_adapter.go
package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/carverse/partsearch-backend/internal/models"
)

// SourceAdapter is one external marketplace source. Implementations never
// return an error from SearchParts: a disabled source, an exhausted quota,
// or a transport/parse failure all degrade to an empty contribution with
// the cause logged.
type SourceAdapter interface {
	Name() string
	Enabled() bool
	SearchParts(ctx context.Context, query string, vehicle *Vehicle, filters *SearchFilters, limit int) []ExternalPart
}

// RateGate is the quota check adapters consult before a live call. A denied
// or failed check skips the call for this request.
type RateGate interface {
	Allow(ctx context.Context, source, endpoint string, dailyLimit int) (bool, error)
}

// ExternalPart is an adapter's normalized result. The inline quote fields
// are split into a PriceQuote row when the record is persisted.
type ExternalPart struct {
	PartNumber    string
	Source        string
	SourceID      string
	Name          string
	Description   string
	Category      string
	Brand         string
	Grade         models.PartGrade
	Condition     models.PartCondition
	ImageURL      string
	ListingURL    string
	OriginLabel   models.OriginLabel
	ShipsToRegion bool
	Attributes    models.JSONB

	Price        float64
	Currency     string
	ShippingCost float64
	SellerName   string
	SellerRating float64
	Availability models.Availability
}

// partsBrands is the vocabulary scanned against listing titles when the
// source exposes no structured brand field.
var partsBrands = []string{
	"Bosch", "Brembo", "Denso", "NGK", "Michelin", "Continental",
	"Bridgestone", "Castrol", "Mobil", "Shell", "3M", "Akebono",
	"ACDelco", "Monroe", "KYB", "Bilstein", "Mann", "Philips",
	"Osram", "Valeo", "Sachs", "TRW",
}

// vehicleMakes extends the scan for marketplaces that title listings by the
// target vehicle rather than the part manufacturer.
var vehicleMakes = []string{
	"Toyota", "Honda", "Mazda", "Nissan", "Mitsubishi", "Subaru",
	"Hyundai", "Kia", "BMW", "Mercedes-Benz", "Audi", "Volkswagen",
	"Volvo", "Lexus",
}

func inferBrand(title string, vocab []string) string {
	lower := strings.ToLower(title)
	for _, brand := range vocab {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}
	return ""
}

func inferGrade(title string) models.PartGrade {
	lower := strings.ToLower(title)
	for _, marker := range []string{"oem", "genuine", "original"} {
		if strings.Contains(lower, marker) {
			return models.PartGradeOEM
		}
	}
	return models.PartGradeAftermarket
}

// buildSearchQuery concatenates the base query with whatever vehicle tokens
// are present, the shape every marketplace search box expects.
func buildSearchQuery(query string, vehicle *Vehicle) string {
	tokens := []string{strings.TrimSpace(query)}
	if vehicle != nil {
		if vehicle.Make != "" {
			tokens = append(tokens, vehicle.Make)
		}
		if vehicle.Model != "" {
			tokens = append(tokens, vehicle.Model)
		}
		if vehicle.Year > 0 {
			tokens = append(tokens, strconv.Itoa(vehicle.Year))
		}
	}
	return strings.Join(tokens, " ")
}
