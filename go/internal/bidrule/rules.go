package bidrule

import (
	"sort"

	"github.com/kpatel93/auctionday/go/internal/models"
)

// MinIncrement returns the minimum raise required over currentPrice.
// Rules form price bands: the rule with the highest threshold not above
// currentPrice wins. With no matching rule the auction-level fallback
// applies.
func MinIncrement(rules []models.BidRule, currentPrice, fallback float64) float64 {
	best := -1
	for i, r := range rules {
		if r.ThresholdAmount > currentPrice {
			continue
		}
		if best == -1 || r.ThresholdAmount > rules[best].ThresholdAmount {
			best = i
		}
	}
	if best == -1 {
		return fallback
	}
	return rules[best].IncrementAmount
}

// SortByThreshold orders rules ascending by threshold for display.
func SortByThreshold(rules []models.BidRule) {
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ThresholdAmount < rules[j].ThresholdAmount
	})
}
