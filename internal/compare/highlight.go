package compare

import (
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Highlight picks the cheapest platform by total cost and reports how much it
// saves against the next cheapest. It needs at least two results.
func Highlight(results []domain.CostResult) (domain.Highlight, bool) {
	if len(results) < 2 {
		return domain.Highlight{}, false
	}

	byCost := make([]domain.CostResult, len(results))
	copy(byCost, results)
	sort.SliceStable(byCost, func(i, j int) bool {
		return byCost[i].TotalCost < byCost[j].TotalCost
	})

	best, second := byCost[0], byCost[1]
	h := domain.Highlight{
		Cheapest: best.Platform,
		RunnerUp: second.Platform,
		Savings:  second.TotalCost - best.TotalCost,
	}
	// Two free platforms: nothing to save, avoid 0/0.
	if second.TotalCost != 0 {
		h.SavingsPercent = h.Savings / second.TotalCost * 100
	}
	return h, true
}

// SavingsVersus returns the net received by platform minus the mean net
// received of every other result. ok is false when platform is missing or is
// the only option.
func SavingsVersus(results []domain.CostResult, platform string) (savings float64, ok bool) {
	var chosen *domain.CostResult
	var otherSum float64
	var others int

	for i := range results {
		if results[i].Platform == platform && chosen == nil {
			chosen = &results[i]
			continue
		}
		if results[i].Platform != platform {
			otherSum += results[i].NetReceived
			others++
		}
	}

	if chosen == nil || others == 0 {
		return 0, false
	}
	return chosen.NetReceived - otherSum/float64(others), true
}
