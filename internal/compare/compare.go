// Package compare runs the cost comparison pipeline for one amount.
package compare

import (
	"github.com/opensource-finance/kestrel/internal/calculator"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/preference"
	"github.com/opensource-finance/kestrel/internal/ranking"
)

// Costs returns one CostResult per offer, in input order.
// Empty input yields an empty, non-nil slice.
func Costs(offers []domain.PlatformOffer, amount float64) []domain.CostResult {
	results := make([]domain.CostResult, 0, len(offers))
	for _, o := range offers {
		results = append(results, calculator.Cost(o, amount))
	}
	return results
}

// Ranked returns the offers scored with the weights of the given preference
// tag, best first. Unknown tags rank as Balanced.
func Ranked(offers []domain.PlatformOffer, amount float64, pref string) []domain.ScoredResult {
	return ranking.Rank(Costs(offers, amount), preference.Weights(pref))
}

// Unscored strips scores, keeping order.
func Unscored(scored []domain.ScoredResult) []domain.CostResult {
	results := make([]domain.CostResult, len(scored))
	for i, s := range scored {
		results[i] = s.CostResult
	}
	return results
}
