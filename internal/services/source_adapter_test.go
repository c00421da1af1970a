// internal/services/source_adapter_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverse/partsearch-backend/internal/models"
)

func TestBuildSearchQuery(t *testing.T) {
	assert.Equal(t, "brake pads", buildSearchQuery("  brake pads  ", nil))

	vehicle := &Vehicle{Make: "Honda", Model: "Civic", Year: 2015}
	assert.Equal(t, "brake pads Honda Civic 2015", buildSearchQuery("brake pads", vehicle))

	partial := &Vehicle{Make: "Honda"}
	assert.Equal(t, "brake pads Honda", buildSearchQuery("brake pads", partial))
}

func TestInferBrand(t *testing.T) {
	assert.Equal(t, "Brembo", inferBrand("BREMBO front brake pads ceramic", partsBrands))
	assert.Equal(t, "NGK", inferBrand("4x ngk iridium spark plugs", partsBrands))
	assert.Equal(t, "", inferBrand("generic brake pads no name", partsBrands))

	// auction vocabulary also recognizes vehicle makes
	assert.Equal(t, "Honda", inferBrand("For Honda Civic 2015 front bumper", auctionBrandVocab))
}

func TestInferGrade(t *testing.T) {
	assert.Equal(t, models.PartGradeOEM, inferGrade("OEM brake pads Honda"))
	assert.Equal(t, models.PartGradeOEM, inferGrade("Genuine Toyota oil filter"))
	assert.Equal(t, models.PartGradeOEM, inferGrade("original equipment strut"))
	assert.Equal(t, models.PartGradeAftermarket, inferGrade("performance ceramic pads"))
}
