// internal/utils/validator.go
package utils

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("vehicle_year", validateVehicleYear)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Model years before mass production or more than one year ahead of the
// current calendar year are rejected. Zero means "not specified".
func validateVehicleYear(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	if year == 0 {
		return true
	}
	return year >= 1900 && year <= time.Now().Year()+1
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "lte":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "vehicle_year":
		return "Vehicle year must be between 1900 and next model year"
	default:
		return e.Field() + " is invalid"
	}
}
