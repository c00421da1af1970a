// internal/services/websearch_adapter_test.go
package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/models"
)

type stubGate struct {
	allowed bool
	err     error
	calls   int
}

func (g *stubGate) Allow(ctx context.Context, source, endpoint string, dailyLimit int) (bool, error) {
	g.calls++
	return g.allowed, g.err
}

func testRegion() config.RegionConfig {
	return config.RegionConfig{Code: "SG", Name: "Singapore", Currency: "SGD"}
}

const webSearchFixture = `{
	"items": [
		{
			"title": "Brembo Brake Pads for Honda Civic",
			"link": "https://www.lazada.sg/products/brembo-brake-pads-i123.html",
			"snippet": "Brand new pads. $89.90 with free delivery.",
			"pagemap": {
				"offer": [{"price": "79.90"}],
				"metatags": [{"og:image": "https://img.lazada.sg/p/123.jpg"}]
			}
		},
		{
			"title": "OEM NGK spark plug set",
			"link": "https://shopee.sg/ngk-plug-i.456",
			"snippet": "NGK iridium, only $24.50 per set",
			"pagemap": {
				"cse_image": [{"src": "https://cf.shopee.sg/1.jpg"}]
			}
		},
		{
			"title": "Forum discussion about brake pads",
			"link": "https://forums.example.com/thread/1",
			"snippet": "which pads should I buy"
		}
	]
}`

func TestWebSearchAdapterNormalizesListings(t *testing.T) {
	var captured map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		captured = map[string]string{
			"key": q.Get("key"),
			"cx":  q.Get("cx"),
			"q":   q.Get("q"),
			"num": q.Get("num"),
			"gl":  q.Get("gl"),
			"lr":  q.Get("lr"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(webSearchFixture))
	}))
	defer server.Close()

	adapter := NewWebSearchAdapter(config.WebSearchConfig{
		Enabled:    true,
		APIKey:     "test-key",
		EngineID:   "test-engine",
		Endpoint:   server.URL,
		Sites:      []string{"lazada.sg", "shopee.sg"},
		DailyLimit: 100,
	}, testRegion(), &stubGate{allowed: true})

	vehicle := &Vehicle{Make: "Honda", Model: "Civic", Year: 2015}
	parts := adapter.SearchParts(context.Background(), "brake pads", vehicle, nil, 10)

	require.Len(t, parts, 2, "the unlisted domain must be dropped")

	assert.Equal(t, "test-key", captured["key"])
	assert.Equal(t, "test-engine", captured["cx"])
	assert.Equal(t, "brake pads Honda Civic 2015 car parts Singapore", captured["q"])
	assert.Equal(t, "10", captured["num"])
	assert.Equal(t, "sg", captured["gl"])
	assert.Equal(t, "lang_en", captured["lr"])

	lazada := parts[0]
	assert.Equal(t, "lazada", lazada.Source)
	assert.Regexp(t, `^LAZADA-\d{6}$`, lazada.PartNumber)
	assert.Len(t, lazada.SourceID, 16)
	assert.Equal(t, "Brembo", lazada.Brand)
	assert.Equal(t, models.PartGradeAftermarket, lazada.Grade)
	assert.Equal(t, models.PartConditionNew, lazada.Condition)
	assert.InDelta(t, 79.90, lazada.Price, 1e-9, "structured offer price wins over the snippet")
	assert.Equal(t, "SGD", lazada.Currency)
	assert.Equal(t, "https://img.lazada.sg/p/123.jpg", lazada.ImageURL)
	assert.Equal(t, "Lazada Seller", lazada.SellerName)
	assert.Equal(t, models.OriginWebAggregator, lazada.OriginLabel)
	assert.True(t, lazada.ShipsToRegion)
	assert.Equal(t, models.AvailabilityUnknown, lazada.Availability)

	shopee := parts[1]
	assert.Equal(t, "shopee", shopee.Source)
	assert.Equal(t, models.PartGradeOEM, shopee.Grade)
	assert.InDelta(t, 24.50, shopee.Price, 1e-9, "snippet scan is the fallback")
	assert.Equal(t, "https://cf.shopee.sg/1.jpg", shopee.ImageURL)
}

func TestWebSearchAdapterDisabled(t *testing.T) {
	gate := &stubGate{allowed: true}
	adapter := NewWebSearchAdapter(config.WebSearchConfig{
		Enabled: true, // no credentials
	}, testRegion(), gate)

	assert.False(t, adapter.Enabled())
	assert.Nil(t, adapter.SearchParts(context.Background(), "brake pads", nil, nil, 10))
	assert.Zero(t, gate.calls, "a disabled source never consults the quota")
}

func TestWebSearchAdapterQuotaDenied(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer server.Close()

	gate := &stubGate{allowed: false}
	adapter := NewWebSearchAdapter(config.WebSearchConfig{
		Enabled:  true,
		APIKey:   "k",
		EngineID: "e",
		Endpoint: server.URL,
	}, testRegion(), gate)

	assert.Nil(t, adapter.SearchParts(context.Background(), "brake pads", nil, nil, 10))
	assert.Equal(t, 1, gate.calls)
	assert.False(t, hit, "a denied quota must not reach the network")
}

func TestWebSearchAdapterQuotaCheckError(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer server.Close()

	adapter := NewWebSearchAdapter(config.WebSearchConfig{
		Enabled:  true,
		APIKey:   "k",
		EngineID: "e",
		Endpoint: server.URL,
	}, testRegion(), &stubGate{err: assert.AnError})

	assert.Nil(t, adapter.SearchParts(context.Background(), "brake pads", nil, nil, 10))
	assert.False(t, hit)
}

func TestWebSearchAdapterUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 429}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewWebSearchAdapter(config.WebSearchConfig{
		Enabled:  true,
		APIKey:   "k",
		EngineID: "e",
		Endpoint: server.URL,
		Sites:    []string{"lazada.sg"},
	}, testRegion(), &stubGate{allowed: true})

	assert.Nil(t, adapter.SearchParts(context.Background(), "brake pads", nil, nil, 10))
}

func TestMatchMarketplace(t *testing.T) {
	adapter := NewWebSearchAdapter(config.WebSearchConfig{
		Sites: []string{"lazada.sg", "shopee.sg"},
	}, testRegion(), &stubGate{})

	assert.Equal(t, "lazada", adapter.matchMarketplace("https://lazada.sg/item/1"))
	assert.Equal(t, "lazada", adapter.matchMarketplace("https://www.lazada.sg/item/1"))
	assert.Equal(t, "shopee", adapter.matchMarketplace("https://mall.shopee.sg/x"))
	assert.Equal(t, "", adapter.matchMarketplace("https://notlazada.sg/item/1"))
	assert.Equal(t, "", adapter.matchMarketplace("https://evil.com/lazada.sg"))
	assert.Equal(t, "", adapter.matchMarketplace("https://example.com/"))
}

func TestExtractPrice(t *testing.T) {
	offer := map[string][]map[string]interface{}{
		"offer": {{"price": "129.00"}},
	}
	assert.InDelta(t, 129.00, extractPrice(offer, "costs $9.99"), 1e-9)

	product := map[string][]map[string]interface{}{
		"product": {{"price": 55.5}},
	}
	assert.InDelta(t, 55.5, extractPrice(product, ""), 1e-9)

	assert.InDelta(t, 42.50, extractPrice(nil, "selling at $ 42.50 nett"), 1e-9)
	assert.Zero(t, extractPrice(nil, "price on request"))
}

func TestExtractImageFallbackOrder(t *testing.T) {
	full := map[string][]map[string]interface{}{
		"metatags":  {{"og:image": "og.jpg", "twitter:image": "tw.jpg"}},
		"cse_image": {{"src": "cse.jpg"}},
	}
	assert.Equal(t, "og.jpg", extractImage(full))

	twitterOnly := map[string][]map[string]interface{}{
		"metatags":  {{"twitter:image": "tw.jpg"}},
		"cse_image": {{"src": "cse.jpg"}},
	}
	assert.Equal(t, "tw.jpg", extractImage(twitterOnly))

	cseOnly := map[string][]map[string]interface{}{
		"cse_image": {{"src": "cse.jpg"}},
	}
	assert.Equal(t, "cse.jpg", extractImage(cseOnly))

	assert.Equal(t, "", extractImage(nil))
}

func TestMarketplaceSeller(t *testing.T) {
	assert.Equal(t, "Lazada Seller", marketplaceSeller("lazada"))
	assert.Equal(t, "Unknown Seller", marketplaceSeller(""))
}
