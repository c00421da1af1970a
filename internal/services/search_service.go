// internal/services/search_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/metrics"
	"github.com/carverse/partsearch-backend/internal/models"
)

// Vehicle identifies the caller's car for fitment checks.
type Vehicle struct {
	Make   string `json:"make" validate:"required"`
	Model  string `json:"model" validate:"required"`
	Year   int    `json:"year" validate:"required,vehicle_year"`
	Trim   string `json:"trim,omitempty"`
	Engine string `json:"engine,omitempty"`
}

// SearchFilters narrows results after retrieval. Nil price bounds mean
// unbounded on that side.
type SearchFilters struct {
	PriceMin  *float64 `json:"price_min,omitempty" validate:"omitempty,gte=0"`
	PriceMax  *float64 `json:"price_max,omitempty" validate:"omitempty,gte=0"`
	Brand     string   `json:"brand,omitempty"`
	Condition string   `json:"condition,omitempty" validate:"omitempty,oneof=new used refurbished"`
	OEMOnly   bool     `json:"oem_only,omitempty"`
}

// SearchRequest is the caller's search input. UseCache and RegionOnly
// default to true when omitted.
type SearchRequest struct {
	Query      string         `json:"query" validate:"required,min=2,max=200"`
	Vehicle    *Vehicle       `json:"vehicle,omitempty"`
	Limit      int            `json:"limit,omitempty" validate:"omitempty,min=1"`
	Filters    *SearchFilters `json:"filters,omitempty"`
	UseCache   *bool          `json:"use_cache,omitempty"`
	RegionOnly *bool          `json:"region_only,omitempty"`
}

// CompatibilitySummary is the per-result fitment annotation attached when
// the caller supplies a vehicle.
type CompatibilitySummary struct {
	Compatible bool                      `json:"compatible"`
	Confidence float64                   `json:"confidence"`
	Level      models.CompatibilityLevel `json:"level"`
}

// PartResult is one ranked search hit with its representative quote.
type PartResult struct {
	ID            uuid.UUID             `json:"id"`
	PartNumber    string                `json:"part_number"`
	Name          string                `json:"name"`
	Description   string                `json:"description,omitempty"`
	Category      string                `json:"category,omitempty"`
	Subcategory   string                `json:"subcategory,omitempty"`
	Brand         string                `json:"brand,omitempty"`
	Grade         models.PartGrade      `json:"grade"`
	Condition     models.PartCondition  `json:"condition"`
	Source        string                `json:"source"`
	SourceID      string                `json:"source_id"`
	OriginLabel   models.OriginLabel    `json:"origin_label"`
	ImageURL      string                `json:"image_url,omitempty"`
	ShipsToRegion bool                  `json:"ships_to_region"`
	Attributes    models.JSONB          `json:"attributes,omitempty"`
	Relevance     float64               `json:"relevance"`
	Score         float64               `json:"score"`
	Compatibility *CompatibilitySummary `json:"compatibility,omitempty"`
	Quote         *models.PriceQuote    `json:"quote,omitempty"`

	// all loaded quotes, kept for the region-restriction stage
	quotes []models.PriceQuote
}

type SearchResponse struct {
	Query            string       `json:"query"`
	Vehicle          *Vehicle     `json:"vehicle,omitempty"`
	Results          []PartResult `json:"results"`
	TotalResults     int          `json:"total_results"`
	SourcesQueried   []string     `json:"sources_queried"`
	ProcessingTimeMs int64        `json:"processing_time_ms"`
	RegionOnly       bool         `json:"region_only"`
}

type catalogStore interface {
	SearchLocal(ctx context.Context, query string, limit int) ([]PartResult, error)
	StoreExternalParts(ctx context.Context, externals []ExternalPart) []PartResult
	UpdateImageURL(ctx context.Context, partID uuid.UUID, imageURL string) error
}

type cacheStore interface {
	Lookup(ctx context.Context, queryHash string) (*SearchResponse, error)
	Store(ctx context.Context, query string, vehicle *Vehicle, payload *SearchResponse, sourcesQueried []string) error
}

type compatibilityChecker interface {
	CheckMany(ctx context.Context, partIDs []uuid.UUID, vehicle Vehicle, strict bool) (map[uuid.UUID]CompatibilityResult, error)
}

type imageMirror interface {
	Enabled() bool
	MirrorImage(ctx context.Context, source, sourceID, imageURL string) string
}

// SearchService runs the staged hybrid search pipeline: cache, local
// catalog, external fan-out with persistence, dedup, fitment filter, caller
// filters, region restriction, ranking, cache write.
type SearchService struct {
	catalog  catalogStore
	cache    cacheStore
	compat   compatibilityChecker
	images   imageMirror
	adapters []SourceAdapter
	cfg      config.SearchConfig
	group    singleflight.Group
}

func NewSearchService(catalog catalogStore, cache cacheStore, compat compatibilityChecker, images imageMirror, adapters []SourceAdapter, cfg config.SearchConfig) *SearchService {
	return &SearchService{
		catalog:  catalog,
		cache:    cache,
		compat:   compat,
		images:   images,
		adapters: adapters,
		cfg:      cfg,
	}
}

// Search serves one search request. Identical concurrent searches coalesce
// onto a single pipeline run keyed by the cache hash.
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	useCache := req.UseCache == nil || *req.UseCache
	regionOnly := req.RegionOnly == nil || *req.RegionOnly

	queryHash := CacheKey(req.Query, req.Vehicle)

	if useCache {
		cached, err := s.cache.Lookup(ctx, queryHash)
		if err != nil {
			logrus.WithError(err).Warn("Cache lookup failed, continuing uncached")
		}
		if cached != nil {
			metrics.CacheHits.Inc()
			cached.SourcesQueried = []string{"cache"}
			cached.ProcessingTimeMs = time.Since(start).Milliseconds()
			logrus.WithField("query", req.Query).Info("Parts search served from cache")
			return cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	result, err, shared := s.group.Do(queryHash, func() (interface{}, error) {
		return s.runPipeline(ctx, req, limit, useCache, regionOnly), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logrus.WithField("query", req.Query).Debug("Joined identical in-flight search")
	}

	return result.(*SearchResponse), nil
}

func (s *SearchService) runPipeline(ctx context.Context, req *SearchRequest, limit int, useCache, regionOnly bool) *SearchResponse {
	start := time.Now()

	logrus.WithFields(logrus.Fields{
		"query":       req.Query,
		"limit":       limit,
		"region_only": regionOnly,
	}).Info("Parts search started")

	sourcesQueried := []string{"local_catalog"}

	results, err := s.catalog.SearchLocal(ctx, req.Query, limit*2)
	if err != nil {
		logrus.WithError(err).Error("Local catalog search failed, continuing with external sources")
		results = nil
	}

	if len(results) < limit {
		external, queried := s.fanOut(ctx, req.Query, req.Vehicle, req.Filters, limit)
		sourcesQueried = append(sourcesQueried, queried...)
		if len(external) > 0 {
			stored := s.catalog.StoreExternalParts(ctx, external)
			s.mirrorImages(stored)
			results = append(results, stored...)
		}
	}

	results = DedupeParts(results)

	if req.Vehicle != nil {
		results = s.filterCompatible(ctx, results, *req.Vehicle)
	}

	if req.Filters != nil {
		results = filterParts(results, req.Filters)
	}

	if regionOnly {
		results = filterRegionShippable(results, start)
	}

	results = RankParts(results)

	if len(results) > limit {
		results = results[:limit]
	}

	response := &SearchResponse{
		Query:            req.Query,
		Vehicle:          req.Vehicle,
		Results:          results,
		TotalResults:     len(results),
		SourcesQueried:   sourcesQueried,
		RegionOnly:       regionOnly,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	if useCache && len(results) > 0 {
		if err := s.cache.Store(ctx, req.Query, req.Vehicle, response, sourcesQueried); err != nil {
			logrus.WithError(err).Warn("Cache write failed, serving uncached response")
		}
	}

	logrus.WithFields(logrus.Fields{
		"query":              req.Query,
		"results":            len(results),
		"sources":            sourcesQueried,
		"processing_time_ms": response.ProcessingTimeMs,
	}).Info("Parts search completed")

	return response
}

// fanOut queries every enabled adapter concurrently, each under its own
// timeout, and merges whatever arrived by the time all calls return. The
// returned names list the sources actually consulted.
func (s *SearchService) fanOut(ctx context.Context, query string, vehicle *Vehicle, filters *SearchFilters, limit int) ([]ExternalPart, []string) {
	var (
		mu      sync.Mutex
		merged  []ExternalPart
		queried []string
		wg      sync.WaitGroup
	)

	timeout := time.Duration(s.cfg.ExternalTimeout) * time.Second

	for _, adapter := range s.adapters {
		if !adapter.Enabled() {
			continue
		}
		queried = append(queried, adapter.Name())

		wg.Add(1)
		go func(adapter SourceAdapter) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			parts := adapter.SearchParts(callCtx, query, vehicle, filters, limit)
			if len(parts) == 0 {
				return
			}

			mu.Lock()
			merged = append(merged, parts...)
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()
	return merged, queried
}

// filterCompatible drops results whose fitment check fails and annotates the
// survivors. When the check itself cannot run the results pass unfiltered;
// best-effort fusion prefers unverified results over none.
func (s *SearchService) filterCompatible(ctx context.Context, results []PartResult, vehicle Vehicle) []PartResult {
	if len(results) == 0 {
		return results
	}

	ids := make([]uuid.UUID, 0, len(results))
	for _, result := range results {
		ids = append(ids, result.ID)
	}

	verdicts, err := s.compat.CheckMany(ctx, ids, vehicle, true)
	if err != nil {
		logrus.WithError(err).Error("Compatibility check failed, returning unfiltered results")
		return results
	}

	kept := make([]PartResult, 0, len(results))
	for _, result := range results {
		verdict, ok := verdicts[result.ID]
		if !ok || !verdict.Compatible {
			continue
		}
		result.Compatibility = &CompatibilitySummary{
			Compatible: true,
			Confidence: verdict.Confidence,
			Level:      verdict.Level,
		}
		kept = append(kept, result)
	}

	logrus.WithFields(logrus.Fields{
		"original": len(results),
		"filtered": len(kept),
	}).Debug("Compatibility filter applied")

	return kept
}

// mirrorImages re-hosts listing images in the background so the search
// response never waits on image transfers.
func (s *SearchService) mirrorImages(stored []PartResult) {
	if s.images == nil || !s.images.Enabled() {
		return
	}

	go func(results []PartResult) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		for _, result := range results {
			if result.ImageURL == "" {
				continue
			}
			mirrored := s.images.MirrorImage(ctx, result.Source, result.SourceID, result.ImageURL)
			if mirrored == result.ImageURL {
				continue
			}
			if err := s.catalog.UpdateImageURL(ctx, result.ID, mirrored); err != nil {
				logrus.WithError(err).WithField("part_id", result.ID).Warn("Failed to persist mirrored image URL")
			}
		}
	}(stored)
}
