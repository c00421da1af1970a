// internal/handlers/sources.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carverse/partsearch-backend/internal/i18n"
	"github.com/carverse/partsearch-backend/internal/services"
	"github.com/carverse/partsearch-backend/internal/utils"
)

// SourcesHandler exposes the operational surface: per-source quota state and
// the most requested cached queries.
type SourcesHandler struct {
	rateLimitService *services.RateLimitService
	cacheService     *services.CacheService
	adapters         []services.SourceAdapter
}

func NewSourcesHandler(rateLimitService *services.RateLimitService, cacheService *services.CacheService, adapters []services.SourceAdapter) *SourcesHandler {
	return &SourcesHandler{
		rateLimitService: rateLimitService,
		cacheService:     cacheService,
		adapters:         adapters,
	}
}

// GET /sources/status
func (h *SourcesHandler) GetSourceStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	quotas, err := h.rateLimitService.Status(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeySourceStatusFailed))
		return
	}

	sources := make([]gin.H, 0, len(h.adapters))
	for _, adapter := range h.adapters {
		entry := gin.H{
			"name":    adapter.Name(),
			"enabled": adapter.Enabled(),
		}
		for _, quota := range quotas {
			if quota.Source != adapter.Name() {
				continue
			}
			entry["endpoint"] = quota.Endpoint
			entry["call_count"] = quota.CallCount
			entry["daily_limit"] = quota.DailyLimit
			entry["remaining"] = quota.Remaining
			entry["reset_at"] = quota.ResetAt
			break
		}
		sources = append(sources, entry)
	}

	utils.SuccessResponse(c, gin.H{"sources": sources})
}

// GET /search/top
func (h *SourcesHandler) GetTopQueries(c *gin.Context) {
	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	entries, err := h.cacheService.TopQueries(c.Request.Context(), limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"queries": entries})
}
