// internal/services/cache_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyNormalizesQueryAndVehicle(t *testing.T) {
	vehicle := &Vehicle{Make: "Honda", Model: "Civic", Year: 2015}

	base := CacheKey("brake pads", vehicle)

	assert.Len(t, base, 64)
	assert.Equal(t, base, CacheKey("  Brake Pads  ", vehicle))
	assert.Equal(t, base, CacheKey("BRAKE PADS", &Vehicle{Make: "HONDA", Model: "CIVIC", Year: 2015}))
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	vehicle := &Vehicle{Make: "Honda", Model: "Civic", Year: 2015}
	base := CacheKey("brake pads", vehicle)

	assert.NotEqual(t, base, CacheKey("brake discs", vehicle))
	assert.NotEqual(t, base, CacheKey("brake pads", &Vehicle{Make: "Honda", Model: "Civic", Year: 2016}))
	assert.NotEqual(t, base, CacheKey("brake pads", &Vehicle{Make: "Honda", Model: "Accord", Year: 2015}))
	assert.NotEqual(t, base, CacheKey("brake pads", nil))
}

func TestCacheKeyIgnoresTrimAndEngine(t *testing.T) {
	plain := CacheKey("oil filter", &Vehicle{Make: "Toyota", Model: "Corolla", Year: 2018})
	detailed := CacheKey("oil filter", &Vehicle{Make: "Toyota", Model: "Corolla", Year: 2018, Trim: "Altis", Engine: "1.6L"})

	assert.Equal(t, plain, detailed)
}

func TestCachedResponseRoundTrip(t *testing.T) {
	payload := &SearchResponse{
		Query: "brake pads",
		Vehicle: &Vehicle{
			Make:  "Honda",
			Model: "Civic",
			Year:  2015,
		},
		Results: []PartResult{
			{PartNumber: "P28022", Name: "Brembo Front Brake Pad Set", Source: "local", SourceID: "seed-0001", Relevance: 0.9},
		},
		TotalResults:   1,
		SourcesQueried: []string{"local_catalog"},
		RegionOnly:     true,
	}

	encoded, err := encodeCachedResponse(payload)
	require.NoError(t, err)

	decoded, err := decodeCachedResponse(encoded)
	require.NoError(t, err)

	assert.Equal(t, payload.Query, decoded.Query)
	require.NotNil(t, decoded.Vehicle)
	assert.Equal(t, payload.Vehicle.Make, decoded.Vehicle.Make)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "P28022", decoded.Results[0].PartNumber)
	assert.Equal(t, payload.TotalResults, decoded.TotalResults)
	assert.Equal(t, payload.SourcesQueried, decoded.SourcesQueried)
	assert.True(t, decoded.RegionOnly)
}
