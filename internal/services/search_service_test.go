// internal/services/search_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/models"
)

type stubCatalog struct {
	local       []PartResult
	localErr    error
	searchCalls int
	lastLimit   int
	storeCalls  int
	storedInput []ExternalPart
}

func (s *stubCatalog) SearchLocal(ctx context.Context, query string, limit int) ([]PartResult, error) {
	s.searchCalls++
	s.lastLimit = limit
	if s.localErr != nil {
		return nil, s.localErr
	}
	return append([]PartResult{}, s.local...), nil
}

func (s *stubCatalog) StoreExternalParts(ctx context.Context, externals []ExternalPart) []PartResult {
	s.storeCalls++
	s.storedInput = externals

	results := make([]PartResult, 0, len(externals))
	for _, ext := range externals {
		quote := models.PriceQuote{Price: ext.Price, Currency: ext.Currency, ShipsToRegion: ext.ShipsToRegion}
		results = append(results, PartResult{
			ID:          uuid.New(),
			PartNumber:  ext.PartNumber,
			Name:        ext.Name,
			Source:      ext.Source,
			SourceID:    ext.SourceID,
			Brand:       ext.Brand,
			Grade:       ext.Grade,
			Condition:   ext.Condition,
			OriginLabel: ext.OriginLabel,
			Relevance:   0.8,
			Quote:       &quote,
			quotes:      []models.PriceQuote{quote},
		})
	}
	return results
}

func (s *stubCatalog) UpdateImageURL(ctx context.Context, partID uuid.UUID, imageURL string) error {
	return nil
}

type stubCache struct {
	hit     *SearchResponse
	lookups int
	stores  int
	stored  *SearchResponse
}

func (s *stubCache) Lookup(ctx context.Context, queryHash string) (*SearchResponse, error) {
	s.lookups++
	return s.hit, nil
}

func (s *stubCache) Store(ctx context.Context, query string, vehicle *Vehicle, payload *SearchResponse, sourcesQueried []string) error {
	s.stores++
	s.stored = payload
	return nil
}

type stubCompat struct {
	verdicts map[uuid.UUID]CompatibilityResult
	err      error
	calls    int
}

func (s *stubCompat) CheckMany(ctx context.Context, partIDs []uuid.UUID, vehicle Vehicle, strict bool) (map[uuid.UUID]CompatibilityResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.verdicts, nil
}

type stubMirror struct{}

func (stubMirror) Enabled() bool { return false }
func (stubMirror) MirrorImage(ctx context.Context, source, sourceID, imageURL string) string {
	return imageURL
}

type fakeAdapter struct {
	name    string
	enabled bool
	parts   []ExternalPart
	calls   int
}

func (a *fakeAdapter) Name() string    { return a.name }
func (a *fakeAdapter) Enabled() bool   { return a.enabled }
func (a *fakeAdapter) SearchParts(ctx context.Context, query string, vehicle *Vehicle, filters *SearchFilters, limit int) []ExternalPart {
	a.calls++
	return a.parts
}

func localResult(sourceID string, relevance, price float64, regional bool) PartResult {
	quote := models.PriceQuote{Price: price, Currency: "SGD", ShipsToRegion: regional}
	return PartResult{
		ID:            uuid.New(),
		PartNumber:    "PN-" + sourceID,
		Name:          sourceID,
		Source:        "local",
		SourceID:      sourceID,
		OriginLabel:   models.OriginLocalCatalog,
		ShipsToRegion: true,
		Relevance:     relevance,
		Quote:         &quote,
		quotes:        []models.PriceQuote{quote},
	}
}

func externalPart(source, sourceID string, price float64) ExternalPart {
	return ExternalPart{
		PartNumber:    source + "-" + sourceID,
		Source:        source,
		SourceID:      sourceID,
		Name:          sourceID,
		Condition:     models.PartConditionNew,
		OriginLabel:   models.OriginWebAggregator,
		ShipsToRegion: true,
		Price:         price,
		Currency:      "SGD",
	}
}

func boolPtr(b bool) *bool { return &b }

type SearchServiceTestSuite struct {
	suite.Suite
	catalog *stubCatalog
	cache   *stubCache
	compat  *stubCompat
	web     *fakeAdapter
	auction *fakeAdapter
	service *SearchService
}

func (suite *SearchServiceTestSuite) SetupTest() {
	suite.catalog = &stubCatalog{}
	suite.cache = &stubCache{}
	suite.compat = &stubCompat{}
	suite.web = &fakeAdapter{name: "web_aggregator", enabled: true}
	suite.auction = &fakeAdapter{name: "auction_marketplace", enabled: true}

	suite.service = NewSearchService(
		suite.catalog,
		suite.cache,
		suite.compat,
		stubMirror{},
		[]SourceAdapter{suite.web, suite.auction},
		config.SearchConfig{
			CacheTTL:              3600,
			DefaultLimit:          20,
			MaxLimit:              100,
			ExternalTimeout:       5,
			ExternalBaseRelevance: 0.8,
		},
	)
}

func (suite *SearchServiceTestSuite) TestCacheHitShortCircuits() {
	suite.cache.hit = &SearchResponse{
		Query:        "brake pads",
		Results:      []PartResult{{PartNumber: "P28022"}},
		TotalResults: 1,
	}

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"cache"}, response.SourcesQueried)
	assert.Equal(suite.T(), 1, response.TotalResults)
	assert.Zero(suite.T(), suite.catalog.searchCalls)
	assert.Zero(suite.T(), suite.web.calls)
	assert.Zero(suite.T(), suite.auction.calls)
	assert.Zero(suite.T(), suite.cache.stores)
}

func (suite *SearchServiceTestSuite) TestLocalResultsSufficientSkipFanOut() {
	suite.catalog.local = []PartResult{
		localResult("a", 0.9, 50, true),
		localResult("b", 0.8, 60, true),
		localResult("c", 0.7, 70, true),
	}

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads", Limit: 2})

	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), suite.web.calls)
	assert.Zero(suite.T(), suite.auction.calls)
	assert.Equal(suite.T(), []string{"local_catalog"}, response.SourcesQueried)
	assert.Len(suite.T(), response.Results, 2)
	assert.Equal(suite.T(), 2, response.TotalResults)
	assert.Equal(suite.T(), 1, suite.cache.stores)
}

func (suite *SearchServiceTestSuite) TestFanOutOnShortfall() {
	suite.catalog.local = []PartResult{localResult("a", 0.9, 50, true)}
	suite.web.parts = []ExternalPart{
		externalPart("lazada", "w1", 45),
		externalPart("shopee", "w2", 55),
	}
	suite.auction.parts = []ExternalPart{externalPart("auction_marketplace", "e1", 65)}

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, suite.web.calls)
	assert.Equal(suite.T(), 1, suite.auction.calls)
	assert.Equal(suite.T(), 1, suite.catalog.storeCalls)
	assert.Len(suite.T(), suite.catalog.storedInput, 3)
	assert.Len(suite.T(), response.Results, 4)
	assert.Contains(suite.T(), response.SourcesQueried, "local_catalog")
	assert.Contains(suite.T(), response.SourcesQueried, "web_aggregator")
	assert.Contains(suite.T(), response.SourcesQueried, "auction_marketplace")
}

func (suite *SearchServiceTestSuite) TestDisabledAdapterSkipped() {
	suite.web.enabled = false
	suite.auction.parts = []ExternalPart{externalPart("auction_marketplace", "e1", 65)}

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), suite.web.calls)
	assert.NotContains(suite.T(), response.SourcesQueried, "web_aggregator")
	assert.Contains(suite.T(), response.SourcesQueried, "auction_marketplace")
}

func (suite *SearchServiceTestSuite) TestEmptyAdapterContributionTolerated() {
	suite.catalog.local = []PartResult{localResult("a", 0.9, 50, true)}

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, suite.web.calls)
	assert.Zero(suite.T(), suite.catalog.storeCalls, "nothing to persist when adapters return nothing")
	assert.Len(suite.T(), response.Results, 1)
	// consulted sources are reported even when they contribute nothing
	assert.Contains(suite.T(), response.SourcesQueried, "web_aggregator")
	assert.Contains(suite.T(), response.SourcesQueried, "auction_marketplace")
}

func (suite *SearchServiceTestSuite) TestVehicleFilterDropsIncompatible() {
	fits := localResult("fits", 0.9, 50, true)
	wrong := localResult("wrong", 0.8, 60, true)
	suite.catalog.local = []PartResult{fits, wrong}
	suite.compat.verdicts = map[uuid.UUID]CompatibilityResult{
		fits.ID:  {Compatible: true, Confidence: 0.98, Level: models.CompatibilityGuaranteed},
		wrong.ID: {Compatible: false, Level: models.CompatibilityIncompatible},
	}

	vehicle := &Vehicle{Make: "Honda", Model: "Civic", Year: 2015}
	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads", Vehicle: vehicle})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, suite.compat.calls)
	require.Len(suite.T(), response.Results, 1)
	assert.Equal(suite.T(), "fits", response.Results[0].SourceID)
	require.NotNil(suite.T(), response.Results[0].Compatibility)
	assert.True(suite.T(), response.Results[0].Compatibility.Compatible)
	assert.InDelta(suite.T(), 0.98, response.Results[0].Compatibility.Confidence, 1e-9)
}

func (suite *SearchServiceTestSuite) TestCompatibilityFailureKeepsResults() {
	suite.catalog.local = []PartResult{
		localResult("a", 0.9, 50, true),
		localResult("b", 0.8, 60, true),
	}
	suite.compat.err = assert.AnError

	vehicle := &Vehicle{Make: "Honda", Model: "Civic", Year: 2015}
	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads", Vehicle: vehicle})

	require.NoError(suite.T(), err)
	assert.Len(suite.T(), response.Results, 2)
	assert.Nil(suite.T(), response.Results[0].Compatibility)
}

func (suite *SearchServiceTestSuite) TestCallerFiltersApplied() {
	bosch := localResult("bosch", 0.9, 50, true)
	bosch.Brand = "Bosch"
	brembo := localResult("brembo", 0.8, 60, true)
	brembo.Brand = "Brembo"
	suite.catalog.local = []PartResult{bosch, brembo}

	response, err := suite.service.Search(context.Background(), &SearchRequest{
		Query:   "brake pads",
		Filters: &SearchFilters{Brand: "Bosch"},
	})

	require.NoError(suite.T(), err)
	require.Len(suite.T(), response.Results, 1)
	assert.Equal(suite.T(), "Bosch", response.Results[0].Brand)
}

func (suite *SearchServiceTestSuite) TestRegionOnlyDropsNonShippable() {
	suite.catalog.local = []PartResult{
		localResult("regional", 0.9, 50, true),
		localResult("overseas", 0.8, 30, false),
	}

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	require.Len(suite.T(), response.Results, 1)
	assert.Equal(suite.T(), "regional", response.Results[0].SourceID)
	assert.True(suite.T(), response.RegionOnly)
}

func (suite *SearchServiceTestSuite) TestRegionOnlyDisabledKeepsEverything() {
	suite.catalog.local = []PartResult{
		localResult("regional", 0.9, 50, true),
		localResult("overseas", 0.8, 30, false),
	}

	response, err := suite.service.Search(context.Background(), &SearchRequest{
		Query:      "brake pads",
		RegionOnly: boolPtr(false),
	})

	require.NoError(suite.T(), err)
	assert.Len(suite.T(), response.Results, 2)
	assert.False(suite.T(), response.RegionOnly)
}

func (suite *SearchServiceTestSuite) TestRegionOnlyAttachesCheapestRegionalQuote() {
	result := localResult("multi", 0.9, 50, true)
	result.quotes = []models.PriceQuote{
		{Price: 50, ShipsToRegion: true},
		{Price: 10, ShipsToRegion: false},
		{Price: 30, ShipsToRegion: true},
	}
	suite.catalog.local = []PartResult{result}

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	require.Len(suite.T(), response.Results, 1)
	require.NotNil(suite.T(), response.Results[0].Quote)
	assert.InDelta(suite.T(), 30, response.Results[0].Quote.Price, 1e-9)
}

func (suite *SearchServiceTestSuite) TestUseCacheDisabledBypassesCache() {
	suite.catalog.local = []PartResult{localResult("a", 0.9, 50, true)}

	_, err := suite.service.Search(context.Background(), &SearchRequest{
		Query:    "brake pads",
		UseCache: boolPtr(false),
	})

	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), suite.cache.lookups)
	assert.Zero(suite.T(), suite.cache.stores)
}

func (suite *SearchServiceTestSuite) TestEmptyResponseNotCached() {
	suite.web.enabled = false
	suite.auction.enabled = false

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), response.Results)
	assert.Zero(suite.T(), suite.cache.stores)
}

func (suite *SearchServiceTestSuite) TestLocalFailureDegradesToExternal() {
	suite.catalog.localErr = assert.AnError
	suite.web.parts = []ExternalPart{externalPart("lazada", "w1", 45)}
	suite.auction.enabled = false

	response, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads"})

	require.NoError(suite.T(), err)
	require.Len(suite.T(), response.Results, 1)
	assert.Equal(suite.T(), "lazada", response.Results[0].Source)
}

func (suite *SearchServiceTestSuite) TestLimitClampedToMax() {
	_, err := suite.service.Search(context.Background(), &SearchRequest{Query: "brake pads", Limit: 500})

	require.NoError(suite.T(), err)
	// the local stage over-fetches at twice the effective limit
	assert.Equal(suite.T(), 200, suite.catalog.lastLimit)
}

func (suite *SearchServiceTestSuite) TestRankingPrefersBoostedResults() {
	oem := localResult("oem", 0.48, 40, false)
	oem.Grade = models.PartGradeOEM
	oem.Quote = nil
	plain := localResult("plain", 0.5, 50, false)
	plain.Quote = nil
	suite.catalog.local = []PartResult{plain, oem}

	response, err := suite.service.Search(context.Background(), &SearchRequest{
		Query:      "brake pads",
		RegionOnly: boolPtr(false),
	})

	require.NoError(suite.T(), err)
	require.Len(suite.T(), response.Results, 2)
	// 0.48 * 1.1 outranks the flat 0.5
	assert.Equal(suite.T(), "oem", response.Results[0].SourceID)
}

func TestSearchServiceSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceTestSuite))
}
