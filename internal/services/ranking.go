// internal/services/ranking.go
package services

import (
	"sort"
	"time"

	"github.com/carverse/partsearch-backend/internal/models"
)

const (
	rankBoostCompatible = 1.5
	rankBoostRegion     = 1.3
	rankBoostOEM        = 1.1
)

// DedupeParts drops records sharing a (source, sourceId) identity, keeping
// the first occurrence in input order.
func DedupeParts(results []PartResult) []PartResult {
	seen := make(map[string]struct{}, len(results))
	unique := make([]PartResult, 0, len(results))

	for _, result := range results {
		key := result.Source + "|" + result.SourceID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, result)
	}

	return unique
}

// RankParts scores every result and sorts descending. The sort is stable so
// equal scores preserve input order.
func RankParts(results []PartResult) []PartResult {
	for i := range results {
		results[i].Score = compositeScore(results[i])
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

func compositeScore(result PartResult) float64 {
	score := result.Relevance

	if result.Compatibility != nil && result.Compatibility.Compatible {
		score *= rankBoostCompatible
	}
	if result.Quote != nil && result.Quote.ShipsToRegion {
		score *= rankBoostRegion
	}
	if result.Grade == models.PartGradeOEM {
		score *= rankBoostOEM
	}

	return score
}

// bestQuote picks the cheapest still-valid quote, optionally restricted to
// region-shippable ones. Returns nil when no quote qualifies.
func bestQuote(quotes []models.PriceQuote, regionOnly bool, now time.Time) *models.PriceQuote {
	var best *models.PriceQuote

	for i := range quotes {
		quote := quotes[i]
		if quote.ValidUntil != nil && quote.ValidUntil.Before(now) {
			continue
		}
		if regionOnly && !quote.ShipsToRegion {
			continue
		}
		if best == nil || quote.Price < best.Price {
			copied := quote
			best = &copied
		}
	}

	return best
}

// filterParts applies caller-supplied filters. A price window drops records
// that carry no quote at all.
func filterParts(results []PartResult, filters *SearchFilters) []PartResult {
	if filters == nil {
		return results
	}

	filtered := results

	if filters.PriceMin != nil || filters.PriceMax != nil {
		priceMin := 0.0
		if filters.PriceMin != nil {
			priceMin = *filters.PriceMin
		}

		kept := make([]PartResult, 0, len(filtered))
		for _, result := range filtered {
			if result.Quote == nil {
				continue
			}
			if result.Quote.Price < priceMin {
				continue
			}
			if filters.PriceMax != nil && result.Quote.Price > *filters.PriceMax {
				continue
			}
			kept = append(kept, result)
		}
		filtered = kept
	}

	if filters.Brand != "" {
		kept := make([]PartResult, 0, len(filtered))
		for _, result := range filtered {
			if result.Brand == filters.Brand {
				kept = append(kept, result)
			}
		}
		filtered = kept
	}

	if filters.Condition != "" {
		kept := make([]PartResult, 0, len(filtered))
		for _, result := range filtered {
			if string(result.Condition) == filters.Condition {
				kept = append(kept, result)
			}
		}
		filtered = kept
	}

	if filters.OEMOnly {
		kept := make([]PartResult, 0, len(filtered))
		for _, result := range filtered {
			if result.Grade == models.PartGradeOEM {
				kept = append(kept, result)
			}
		}
		filtered = kept
	}

	return filtered
}

// filterRegionShippable keeps records with at least one live region-shippable
// quote and re-attaches the cheapest such quote as the representative price.
func filterRegionShippable(results []PartResult, now time.Time) []PartResult {
	kept := make([]PartResult, 0, len(results))

	for _, result := range results {
		quote := bestQuote(result.quotes, true, now)
		if quote == nil {
			continue
		}
		result.Quote = quote
		kept = append(kept, result)
	}

	return kept
}
