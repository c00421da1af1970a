// internal/handlers/parts.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carverse/partsearch-backend/internal/i18n"
	"github.com/carverse/partsearch-backend/internal/services"
	"github.com/carverse/partsearch-backend/internal/utils"
)

type PartsHandler struct {
	searchService        *services.SearchService
	catalogService       *services.CatalogService
	compatibilityService *services.CompatibilityService
}

func NewPartsHandler(searchService *services.SearchService, catalogService *services.CatalogService, compatibilityService *services.CompatibilityService) *PartsHandler {
	return &PartsHandler{
		searchService:        searchService,
		catalogService:       catalogService,
		compatibilityService: compatibilityService,
	}
}

// POST /parts/search
func (h *PartsHandler) SearchParts(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeySearchFailed))
		return
	}

	utils.SuccessResponse(c, response)
}

// GET /parts/:id
func (h *PartsHandler) GetPart(c *gin.Context) {
	partID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid part ID", nil)
		return
	}

	part, err := h.catalogService.GetPartDetails(c.Request.Context(), partID)
	if err != nil {
		if errors.Is(err, services.ErrPartNotFound) {
			utils.NotFoundResponse(c, "part")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, part)
}

// POST /parts/:id/compatibility
func (h *PartsHandler) CheckCompatibility(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	partID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid part ID", nil)
		return
	}

	var req services.CompatibilityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.compatibilityService.Check(c.Request.Context(), partID, req.Vehicle, req.Strict)
	if err != nil {
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyCompatibilityFailed))
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /parts/compatibility/batch
func (h *PartsHandler) BatchCheckCompatibility(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.BatchCompatibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	results, err := h.compatibilityService.CheckMany(c.Request.Context(), req.PartIDs, req.Vehicle, req.Strict)
	if err != nil {
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyCompatibilityFailed))
		return
	}

	utils.SuccessResponse(c, gin.H{
		"vehicle": req.Vehicle,
		"results": results,
	})
}

// GET /parts/:id/vehicles
func (h *PartsHandler) GetCompatibleVehicles(c *gin.Context) {
	partID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid part ID", nil)
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	vehicles, err := h.compatibilityService.ListCompatibleVehicles(c.Request.Context(), partID, limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"part_id":  partID,
		"vehicles": vehicles,
	})
}
