// internal/services/auction_adapter.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/metrics"
	"github.com/carverse/partsearch-backend/internal/models"
)

const auctionSourceName = "auction_marketplace"

var auctionConditionIDs = map[string]string{
	"new":  "1000",
	"used": "3000",
}

// auctionBrandVocab adds vehicle makes to the brand scan because auction
// listings are usually titled by the target vehicle.
var auctionBrandVocab = append(append([]string{}, partsBrands...), vehicleMakes...)

// AuctionAdapter queries a Finding-style auction marketplace API scoped to
// the motor-parts category and listings located in the configured region.
type AuctionAdapter struct {
	cfg     config.AuctionConfig
	region  config.RegionConfig
	gate    RateGate
	limiter *rate.Limiter
	client  *http.Client
}

func NewAuctionAdapter(cfg config.AuctionConfig, region config.RegionConfig, gate RateGate) *AuctionAdapter {
	return &AuctionAdapter{
		cfg:     cfg,
		region:  region,
		gate:    gate,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *AuctionAdapter) Name() string {
	return auctionSourceName
}

func (a *AuctionAdapter) Enabled() bool {
	return a.cfg.Enabled && a.cfg.AppID != ""
}

func (a *AuctionAdapter) SearchParts(ctx context.Context, query string, vehicle *Vehicle, filters *SearchFilters, limit int) []ExternalPart {
	if !a.Enabled() {
		metrics.SourceCalls.WithLabelValues(auctionSourceName, "disabled").Inc()
		return nil
	}

	allowed, err := a.gate.Allow(ctx, auctionSourceName, "finding", a.cfg.DailyLimit)
	if err != nil {
		logrus.WithError(err).Warn("Auction quota check failed, skipping source")
		metrics.SourceCalls.WithLabelValues(auctionSourceName, "error").Inc()
		return nil
	}
	if !allowed {
		metrics.SourceCalls.WithLabelValues(auctionSourceName, "denied").Inc()
		return nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		metrics.SourceCalls.WithLabelValues(auctionSourceName, "error").Inc()
		return nil
	}

	// listing titles lead with year make model
	tokens := []string{strings.TrimSpace(query)}
	if vehicle != nil {
		if vehicle.Year > 0 {
			tokens = append(tokens, strconv.Itoa(vehicle.Year))
		}
		if vehicle.Make != "" {
			tokens = append(tokens, vehicle.Make)
		}
		if vehicle.Model != "" {
			tokens = append(tokens, vehicle.Model)
		}
	}
	searchQuery := strings.Join(tokens, " ")

	items, err := a.execute(ctx, searchQuery, filters, limit)
	if err != nil {
		logrus.WithError(err).WithField("query", searchQuery).Error("Auction search request failed")
		metrics.SourceCalls.WithLabelValues(auctionSourceName, "error").Inc()
		return nil
	}

	parts := make([]ExternalPart, 0, len(items))
	for _, item := range items {
		part, ok := a.normalize(item)
		if !ok {
			continue
		}
		parts = append(parts, part)
	}

	metrics.SourceCalls.WithLabelValues(auctionSourceName, "ok").Inc()
	logrus.WithFields(logrus.Fields{
		"query":   searchQuery,
		"results": len(parts),
	}).Info("Auction search completed")

	return parts
}

// The Finding API wraps every field in a single-element array and encodes
// amounts as {"@currencyId": ..., "__value__": ...}.
type auctionSearchResponse struct {
	Response []auctionFindResponse `json:"findItemsAdvancedResponse"`
}

type auctionFindResponse struct {
	Ack          []string              `json:"ack"`
	SearchResult []auctionSearchResult `json:"searchResult"`
}

type auctionSearchResult struct {
	Count string        `json:"@count"`
	Items []auctionItem `json:"item"`
}

type auctionItem struct {
	ItemID        []string               `json:"itemId"`
	Title         []string               `json:"title"`
	GalleryURL    []string               `json:"galleryURL"`
	ViewItemURL   []string               `json:"viewItemURL"`
	Location      []string               `json:"location"`
	Condition     []auctionCondition     `json:"condition"`
	SellingStatus []auctionSellingStatus `json:"sellingStatus"`
	SellerInfo    []auctionSellerInfo    `json:"sellerInfo"`
}

type auctionCondition struct {
	ConditionID          []string `json:"conditionId"`
	ConditionDisplayName []string `json:"conditionDisplayName"`
}

type auctionSellingStatus struct {
	CurrentPrice []auctionAmount `json:"currentPrice"`
}

type auctionAmount struct {
	CurrencyID string `json:"@currencyId"`
	Value      string `json:"__value__"`
}

type auctionSellerInfo struct {
	SellerUserName []string `json:"sellerUserName"`
	FeedbackScore  []string `json:"feedbackScore"`
}

func (a *AuctionAdapter) execute(ctx context.Context, query string, filters *SearchFilters, limit int) ([]auctionItem, error) {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("OPERATION-NAME", "findItemsAdvanced")
	params.Set("SERVICE-VERSION", "1.0.0")
	params.Set("SECURITY-APPNAME", a.cfg.AppID)
	params.Set("RESPONSE-DATA-FORMAT", "JSON")
	params.Set("REST-PAYLOAD", "")
	params.Set("GLOBAL-ID", a.cfg.Marketplace)
	params.Set("keywords", query)
	params.Set("paginationInput.entriesPerPage", strconv.Itoa(limit))

	itemFilters := []struct {
		name  string
		value string
	}{
		{"categoryId", a.cfg.CategoryID},
		{"locatedIn", a.region.Code},
	}
	if filters != nil {
		if filters.PriceMin != nil {
			itemFilters = append(itemFilters, struct{ name, value string }{"MinPrice", strconv.FormatFloat(*filters.PriceMin, 'f', -1, 64)})
		}
		if filters.PriceMax != nil {
			itemFilters = append(itemFilters, struct{ name, value string }{"MaxPrice", strconv.FormatFloat(*filters.PriceMax, 'f', -1, 64)})
		}
		if id, ok := auctionConditionIDs[filters.Condition]; ok {
			itemFilters = append(itemFilters, struct{ name, value string }{"Condition", id})
		}
	}
	for i, filter := range itemFilters {
		params.Set(fmt.Sprintf("itemFilter(%d).name", i), filter.name)
		params.Set(fmt.Sprintf("itemFilter(%d).value", i), filter.value)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", a.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create finding request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("finding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded auctionSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode finding response: %w", err)
	}

	if len(decoded.Response) == 0 {
		return nil, nil
	}
	response := decoded.Response[0]

	if ack := first(response.Ack); ack != "" && ack != "Success" {
		logrus.WithField("ack", ack).Warn("Finding API returned non-success ack")
	}

	if len(response.SearchResult) == 0 {
		return nil, nil
	}
	return response.SearchResult[0].Items, nil
}

func (a *AuctionAdapter) normalize(item auctionItem) (ExternalPart, bool) {
	itemID := first(item.ItemID)
	title := first(item.Title)
	if itemID == "" || title == "" {
		return ExternalPart{}, false
	}

	var price float64
	if len(item.SellingStatus) > 0 && len(item.SellingStatus[0].CurrentPrice) > 0 {
		amount := item.SellingStatus[0].CurrentPrice[0]
		if v, err := strconv.ParseFloat(amount.Value, 64); err == nil {
			price = v
		}
		if amount.CurrencyID != "" && amount.CurrencyID != a.region.Currency {
			logrus.WithFields(logrus.Fields{
				"currency": amount.CurrencyID,
				"item_id":  itemID,
			}).Warn("Foreign currency listing, assuming regional currency")
		}
	}

	sellerName := "Unknown"
	feedback := 0
	if len(item.SellerInfo) > 0 {
		if name := first(item.SellerInfo[0].SellerUserName); name != "" {
			sellerName = name
		}
		if v, err := strconv.Atoi(first(item.SellerInfo[0].FeedbackScore)); err == nil {
			feedback = v
		}
	}

	conditionName := "New"
	if len(item.Condition) > 0 {
		if name := first(item.Condition[0].ConditionDisplayName); name != "" {
			conditionName = name
		}
	}

	var attributes models.JSONB
	if location := first(item.Location); location != "" {
		attributes = models.JSONB{"seller_location": location}
	}

	part := ExternalPart{
		PartNumber:    "AUC-" + itemID,
		Source:        auctionSourceName,
		SourceID:      itemID,
		Name:          title,
		Description:   title,
		Brand:         inferBrand(title, auctionBrandVocab),
		Grade:         inferGrade(title),
		Condition:     mapListingCondition(conditionName),
		ImageURL:      first(item.GalleryURL),
		ListingURL:    first(item.ViewItemURL),
		OriginLabel:   models.OriginAuctionMarket,
		ShipsToRegion: true,
		Attributes:    attributes,
		Price:         price,
		Currency:      a.region.Currency,
		SellerName:    sellerName,
		SellerRating:  sellerRating(feedback),
		Availability:  models.AvailabilityInStock,
	}

	return part, true
}

// sellerRating maps a raw feedback score onto a 0-5 scale, saturating at
// 1000 feedback points.
func sellerRating(feedback int) float64 {
	rating := float64(feedback) / 1000 * 5
	if rating > 5.0 {
		return 5.0
	}
	return rating
}

func mapListingCondition(display string) models.PartCondition {
	lower := strings.ToLower(display)
	switch {
	case strings.Contains(lower, "refurbished"):
		return models.PartConditionRefurbished
	case strings.Contains(lower, "used"), strings.Contains(lower, "pre-owned"):
		return models.PartConditionUsed
	default:
		return models.PartConditionNew
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
