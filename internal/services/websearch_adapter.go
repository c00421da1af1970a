// internal/services/websearch_adapter.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/metrics"
	"github.com/carverse/partsearch-backend/internal/models"
	"github.com/carverse/partsearch-backend/internal/utils"
)

const webSourceName = "web_aggregator"

// WebSearchAdapter queries a programmable web-search index scoped to an
// allow-list of marketplace domains and normalizes product listings out of
// the structured pagemap data each result carries.
type WebSearchAdapter struct {
	cfg     config.WebSearchConfig
	region  config.RegionConfig
	gate    RateGate
	limiter *rate.Limiter
	client  *http.Client
}

func NewWebSearchAdapter(cfg config.WebSearchConfig, region config.RegionConfig, gate RateGate) *WebSearchAdapter {
	return &WebSearchAdapter{
		cfg:    cfg,
		region: region,
		gate:   gate,
		// the index allows two queries per second per project
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *WebSearchAdapter) Name() string {
	return webSourceName
}

func (a *WebSearchAdapter) Enabled() bool {
	return a.cfg.Enabled && a.cfg.APIKey != "" && a.cfg.EngineID != ""
}

func (a *WebSearchAdapter) SearchParts(ctx context.Context, query string, vehicle *Vehicle, filters *SearchFilters, limit int) []ExternalPart {
	if !a.Enabled() {
		metrics.SourceCalls.WithLabelValues(webSourceName, "disabled").Inc()
		return nil
	}

	allowed, err := a.gate.Allow(ctx, webSourceName, "search", a.cfg.DailyLimit)
	if err != nil {
		logrus.WithError(err).Warn("Web search quota check failed, skipping source")
		metrics.SourceCalls.WithLabelValues(webSourceName, "error").Inc()
		return nil
	}
	if !allowed {
		metrics.SourceCalls.WithLabelValues(webSourceName, "denied").Inc()
		return nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		metrics.SourceCalls.WithLabelValues(webSourceName, "error").Inc()
		return nil
	}

	searchQuery := strings.TrimSpace(buildSearchQuery(query, vehicle) + " car parts " + a.region.Name)

	items, err := a.execute(ctx, searchQuery, limit)
	if err != nil {
		logrus.WithError(err).WithField("query", searchQuery).Error("Web search request failed")
		metrics.SourceCalls.WithLabelValues(webSourceName, "error").Inc()
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

	metrics.SourceCalls.WithLabelValues(webSourceName, "ok").Inc()
	logrus.WithFields(logrus.Fields{
		"query":   searchQuery,
		"results": len(parts),
	}).Info("Web search completed")

	return parts
}

type webSearchResponse struct {
	Items []webSearchItem `json:"items"`
}

type webSearchItem struct {
	Title   string                              `json:"title"`
	Link    string                              `json:"link"`
	Snippet string                              `json:"snippet"`
	Pagemap map[string][]map[string]interface{} `json:"pagemap"`
}

func (a *WebSearchAdapter) execute(ctx context.Context, query string, limit int) ([]webSearchItem, error) {
	// the API serves at most 10 results per request
	if limit <= 0 || limit > 10 {
		limit = 10
	}

	params := url.Values{}
	params.Set("key", a.cfg.APIKey)
	params.Set("cx", a.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("gl", strings.ToLower(a.region.Code))
	params.Set("lr", "lang_en")

	req, err := http.NewRequestWithContext(ctx, "GET", a.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search index returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return decoded.Items, nil
}

// normalize turns one search result into an ExternalPart. Results whose URL
// does not belong to an allow-listed marketplace are skipped.
func (a *WebSearchAdapter) normalize(item webSearchItem) (ExternalPart, bool) {
	marketplace := a.matchMarketplace(item.Link)
	if marketplace == "" {
		return ExternalPart{}, false
	}

	part := ExternalPart{
		PartNumber:    fmt.Sprintf("%s-%06d", strings.ToUpper(marketplace), utils.NumericHash(item.Link)%1000000),
		Source:        marketplace,
		SourceID:      utils.ShortHash(item.Link),
		Name:          item.Title,
		Description:   item.Snippet,
		Brand:         inferBrand(item.Title, partsBrands),
		Grade:         inferGrade(item.Title),
		Condition:     models.PartConditionNew,
		ImageURL:      extractImage(item.Pagemap),
		ListingURL:    item.Link,
		OriginLabel:   models.OriginWebAggregator,
		ShipsToRegion: true,
		Price:         extractPrice(item.Pagemap, item.Snippet),
		Currency:      a.region.Currency,
		SellerName:    marketplaceSeller(marketplace),
		Availability:  models.AvailabilityUnknown,
	}

	return part, true
}

// matchMarketplace resolves the listing URL's host against the configured
// site allow-list and returns the marketplace label (first domain label).
func (a *WebSearchAdapter) matchMarketplace(listing string) string {
	parsed, err := url.Parse(listing)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	for _, site := range a.cfg.Sites {
		site = strings.ToLower(site)
		if host != site && !strings.HasSuffix(host, "."+site) {
			continue
		}
		if i := strings.Index(site, "."); i > 0 {
			return site[:i]
		}
		return site
	}

	return ""
}

var snippetPriceRe = regexp.MustCompile(`\$\s*(\d+(?:\.\d{2})?)`)

// extractPrice prefers structured offer/product data and falls back to a
// dollar-amount scan of the snippet.
func extractPrice(pagemap map[string][]map[string]interface{}, snippet string) float64 {
	for _, section := range []string{"offer", "product"} {
		if price := pagemapPrice(pagemap[section]); price > 0 {
			return price
		}
	}

	if m := snippetPriceRe.FindStringSubmatch(snippet); m != nil {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil {
			return price
		}
	}

	return 0
}

func pagemapPrice(entries []map[string]interface{}) float64 {
	if len(entries) == 0 {
		return 0
	}

	switch v := entries[0]["price"].(type) {
	case string:
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			return price
		}
	case float64:
		return v
	}

	return 0
}

func extractImage(pagemap map[string][]map[string]interface{}) string {
	for _, key := range []string{"og:image", "twitter:image", "image"} {
		if v := pagemapString(pagemap["metatags"], key); v != "" {
			return v
		}
	}
	return pagemapString(pagemap["cse_image"], "src")
}

func pagemapString(entries []map[string]interface{}, key string) string {
	if len(entries) == 0 {
		return ""
	}
	if v, ok := entries[0][key].(string); ok {
		return v
	}
	return ""
}

func marketplaceSeller(marketplace string) string {
	if marketplace == "" {
		return "Unknown Seller"
	}
	return strings.ToUpper(marketplace[:1]) + marketplace[1:] + " Seller"
}
