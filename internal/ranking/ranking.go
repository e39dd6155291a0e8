// Package ranking scores cost results and orders them by preference.
package ranking

import (
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Score combines cost, speed and net received into one comparable number.
//
// The cost and speed terms are 1/(1+x) transforms in (0,1], so no global
// maximum is needed. The net term is not normalized and dominates at
// ordinary transfer sizes: higher net received is the primary signal.
func Score(netReceived, totalCost float64, settlementDays int, w domain.Weights) float64 {
	costScore := 1 / (1 + totalCost)
	speedScore := 1 / (1 + float64(settlementDays))

	return w.Cost*costScore +
		w.Speed*speedScore +
		w.Net*netReceived
}

// ScoreAll scores results without reordering them.
func ScoreAll(results []domain.CostResult, w domain.Weights) []domain.ScoredResult {
	scored := make([]domain.ScoredResult, len(results))
	for i, r := range results {
		scored[i] = domain.ScoredResult{
			CostResult: r,
			Score:      Score(r.NetReceived, r.TotalCost, r.SettlementTimeDays, w),
		}
	}
	return scored
}

// Rank scores results and sorts them by descending score.
// Equal scores keep their input order.
func Rank(results []domain.CostResult, w domain.Weights) []domain.ScoredResult {
	scored := ScoreAll(results, w)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
