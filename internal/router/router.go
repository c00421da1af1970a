// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/database"
	"github.com/carverse/partsearch-backend/internal/handlers"
	"github.com/carverse/partsearch-backend/internal/metrics"
	"github.com/carverse/partsearch-backend/internal/middleware"
	"github.com/carverse/partsearch-backend/internal/services"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	rateLimitService := services.NewRateLimitService(db)
	cacheService := services.NewCacheService(db, time.Duration(cfg.Search.CacheTTL)*time.Second)
	catalogService := services.NewCatalogService(db, cfg.Search.ExternalBaseRelevance)
	compatibilityService := services.NewCompatibilityService(db)
	storageService, _ := services.NewStorageService(cfg)

	adapters := []services.SourceAdapter{
		services.NewWebSearchAdapter(cfg.Sources.WebSearch, cfg.Region, rateLimitService),
		services.NewAuctionAdapter(cfg.Sources.Auction, cfg.Region, rateLimitService),
	}

	searchService := services.NewSearchService(catalogService, cacheService, compatibilityService, storageService, adapters, cfg.Search)

	// Initialize handlers
	partsHandler := handlers.NewPartsHandler(searchService, catalogService, compatibilityService)
	sourcesHandler := handlers.NewSourcesHandler(rateLimitService, cacheService, adapters)

	ipLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.I18nMiddleware())
	r.Use(ipLimiter.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := database.HealthCheck(db); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Parts search and detail routes
		parts := v1.Group("/parts")
		{
			parts.POST("/search", partsHandler.SearchParts)
			parts.POST("/compatibility/batch", partsHandler.BatchCheckCompatibility)
			parts.GET("/:id", partsHandler.GetPart)
			parts.POST("/:id/compatibility", partsHandler.CheckCompatibility)
			parts.GET("/:id/vehicles", partsHandler.GetCompatibleVehicles)
		}

		// Source operational routes
		sources := v1.Group("/sources")
		{
			sources.GET("/status", sourcesHandler.GetSourceStatus)
		}

		// Search analytics routes
		search := v1.Group("/search")
		{
			search.GET("/top", sourcesHandler.GetTopQueries)
		}
	}

	return r
}
