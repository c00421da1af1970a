// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/carverse/partsearch-backend/internal/database"
	"github.com/carverse/partsearch-backend/internal/metrics"
	"github.com/carverse/partsearch-backend/internal/models"
)

var ErrPartNotFound = errors.New("part not found")

// CatalogService owns the local parts catalog: relevance-ranked full-text
// search and the persistence of externally sourced records.
type CatalogService struct {
	db            *gorm.DB
	baseRelevance float64
}

func NewCatalogService(db *gorm.DB, baseRelevance float64) *CatalogService {
	return &CatalogService{db: db, baseRelevance: baseRelevance}
}

const fullTextQuery = `
	SELECT
		id,
		ts_rank(
			to_tsvector('english', name || ' ' || COALESCE(description, '')),
			plainto_tsquery('english', ?)
		) AS rank
	FROM parts_catalog
	WHERE to_tsvector('english', name || ' ' || COALESCE(description, ''))
		@@ plainto_tsquery('english', ?)
		AND deleted_at IS NULL
	ORDER BY rank DESC, id
	LIMIT ?`

// SearchLocal runs relevance-ranked full-text search over part names and
// descriptions and returns annotated results in rank order.
func (s *CatalogService) SearchLocal(ctx context.Context, query string, limit int) ([]PartResult, error) {
	type ftsRow struct {
		ID   uuid.UUID
		Rank float64
	}

	var rows []ftsRow
	err := s.db.WithContext(ctx).
		Raw(fullTextQuery, query, query, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var parts []models.Part
	err = s.db.WithContext(ctx).
		Preload("Prices").
		Where("id IN ?", ids).
		Find(&parts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load matched parts: %w", err)
	}

	byID := make(map[uuid.UUID]models.Part, len(parts))
	for _, part := range parts {
		byID[part.ID] = part
	}

	now := time.Now()
	results := make([]PartResult, 0, len(rows))
	for _, row := range rows {
		part, ok := byID[row.ID]
		if !ok {
			continue
		}
		results = append(results, partResultFromModel(part, row.Rank, now))
	}

	logrus.WithFields(logrus.Fields{
		"query":   query,
		"results": len(results),
	}).Debug("Local catalog search completed")

	return results, nil
}

// StoreExternalParts upserts adapter results by (source, sourceId) so that
// future searches are served from the catalog. A record that fails to
// persist is dropped from the returned set; the rest continue.
func (s *CatalogService) StoreExternalParts(ctx context.Context, externals []ExternalPart) []PartResult {
	now := time.Now()
	results := make([]PartResult, 0, len(externals))

	for _, ext := range externals {
		if ext.Source == "" || ext.SourceID == "" {
			continue
		}

		part, err := s.upsertExternalPart(ctx, ext, now)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"source":    ext.Source,
				"source_id": ext.SourceID,
			}).Error("Failed to persist external part, dropping record")
			continue
		}

		metrics.ExternalPartsPersisted.Inc()
		results = append(results, partResultFromModel(*part, s.baseRelevance, now))
	}

	return results
}

func (s *CatalogService) upsertExternalPart(ctx context.Context, ext ExternalPart, now time.Time) (*models.Part, error) {
	var part models.Part

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		err := tx.Where("source = ? AND source_id = ?", ext.Source, ext.SourceID).
			First(&part).Error

		switch {
		case err == nil:
			updates := map[string]interface{}{
				"name":         ext.Name,
				"description":  ext.Description,
				"brand":        ext.Brand,
				"condition":    ext.Condition,
				"retrieved_at": now,
			}
			if ext.ImageURL != "" {
				updates["image_url"] = ext.ImageURL
			}
			if err := tx.Model(&part).Updates(updates).Error; err != nil {
				return err
			}

		case errors.Is(err, gorm.ErrRecordNotFound):
			part = models.Part{
				PartNumber:    ext.PartNumber,
				Source:        ext.Source,
				SourceID:      ext.SourceID,
				Name:          ext.Name,
				Description:   ext.Description,
				Category:      ext.Category,
				Brand:         ext.Brand,
				Grade:         ext.Grade,
				Condition:     ext.Condition,
				Attributes:    ext.Attributes,
				ImageURL:      ext.ImageURL,
				ShipsToRegion: ext.ShipsToRegion,
				OriginLabel:   ext.OriginLabel,
				RetrievedAt:   &now,
			}
			if err := tx.Create(&part).Error; err != nil {
				return err
			}

		default:
			return err
		}

		if ext.Price > 0 {
			validUntil := now.Add(24 * time.Hour)
			quote := models.PriceQuote{
				PartID:        part.ID,
				Currency:      ext.Currency,
				Price:         ext.Price,
				ShippingCost:  ext.ShippingCost,
				SellerName:    ext.SellerName,
				SellerRating:  ext.SellerRating,
				Availability:  ext.Availability,
				Condition:     ext.Condition,
				ShipsToRegion: ext.ShipsToRegion,
				SourceURL:     ext.ListingURL,
				LastUpdatedAt: &now,
				ValidUntil:    &validUntil,
			}
			if err := tx.Create(&quote).Error; err != nil {
				return err
			}
			part.Prices = append(part.Prices, quote)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &part, nil
}

// UpdateImageURL swaps in the mirrored image URL after a successful mirror.
func (s *CatalogService) UpdateImageURL(ctx context.Context, partID uuid.UUID, imageURL string) error {
	return s.db.WithContext(ctx).Model(&models.Part{}).
		Where("id = ?", partID).
		UpdateColumn("image_url", imageURL).Error
}

// GetPartDetails loads one part with its quotes and fitment rules.
func (s *CatalogService) GetPartDetails(ctx context.Context, partID uuid.UUID) (*models.Part, error) {
	var part models.Part
	err := s.db.WithContext(ctx).
		Preload("Prices").
		Preload("Compatibility").
		First(&part, "id = ?", partID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load part: %w", err)
	}
	return &part, nil
}

func partResultFromModel(part models.Part, relevance float64, now time.Time) PartResult {
	return PartResult{
		ID:            part.ID,
		PartNumber:    part.PartNumber,
		Name:          part.Name,
		Description:   part.Description,
		Category:      part.Category,
		Subcategory:   part.Subcategory,
		Brand:         part.Brand,
		Grade:         part.Grade,
		Condition:     part.Condition,
		Source:        part.Source,
		SourceID:      part.SourceID,
		OriginLabel:   part.OriginLabel,
		ImageURL:      part.ImageURL,
		ShipsToRegion: part.ShipsToRegion,
		Attributes:    part.Attributes,
		Relevance:     relevance,
		Quote:         bestQuote(part.Prices, false, now),
		quotes:        part.Prices,
	}
}
