// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Parts
	KeyPartNotFound = "part.not_found"

	// Search
	KeySearchFailed       = "search.failed"
	KeySearchNoResults    = "search.no_results"
	KeySearchResultsFound = "search.results_found"

	// Compatibility
	KeyCompatibilityFailed = "compatibility.failed"

	// Sources
	KeySourceStatusFailed = "sources.status_failed"

	// Rate limiting
	KeyRateLimited = "rate.limited"
)
