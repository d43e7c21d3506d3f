package bidrule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kpatel93/auctionday/go/internal/models"
)

func bands(pairs ...float64) []models.BidRule {
	rules := make([]models.BidRule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rules = append(rules, models.BidRule{
			ThresholdAmount: pairs[i],
			IncrementAmount: pairs[i+1],
		})
	}
	return rules
}

func TestMinIncrementNoRules(t *testing.T) {
	assert.Equal(t, 10.0, MinIncrement(nil, 100, 10))
}

func TestMinIncrementSingleBand(t *testing.T) {
	rules := bands(0, 50)
	assert.Equal(t, 50.0, MinIncrement(rules, 100, 10))
}

func TestMinIncrementPicksHighestMatchingBand(t *testing.T) {
	rules := bands(0, 10, 200, 25, 500, 50)

	assert.Equal(t, 10.0, MinIncrement(rules, 150, 5))
	assert.Equal(t, 25.0, MinIncrement(rules, 200, 5))
	assert.Equal(t, 25.0, MinIncrement(rules, 499, 5))
	assert.Equal(t, 50.0, MinIncrement(rules, 500, 5))
	assert.Equal(t, 50.0, MinIncrement(rules, 2000, 5))
}

func TestMinIncrementAllBandsAbovePrice(t *testing.T) {
	rules := bands(500, 50, 1000, 100)
	assert.Equal(t, 10.0, MinIncrement(rules, 100, 10))
}

func TestMinIncrementOrderIndependent(t *testing.T) {
	rules := bands(500, 50, 0, 10, 200, 25)
	assert.Equal(t, 25.0, MinIncrement(rules, 300, 5))
}

func TestSortByThreshold(t *testing.T) {
	rules := bands(500, 50, 0, 10, 200, 25)
	SortByThreshold(rules)

	assert.Equal(t, 0.0, rules[0].ThresholdAmount)
	assert.Equal(t, 200.0, rules[1].ThresholdAmount)
	assert.Equal(t, 500.0, rules[2].ThresholdAmount)
}
