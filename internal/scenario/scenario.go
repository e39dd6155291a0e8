// Package scenario runs what-if cost simulations across transfer amounts,
// joined with historical FX volatility.
package scenario

import (
	"github.com/opensource-finance/kestrel/internal/calculator"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/volatility"
)

// Simulate computes one row per (amount, offer), amounts outer and offers
// inner. AvgFXVolatility is the mean volatility index of the offer's currency
// pair, or nil when the history has no sample for that pair.
func Simulate(offers []domain.PlatformOffer, amounts []float64, history []domain.FXSample) []domain.ScenarioRow {
	rows := make([]domain.ScenarioRow, 0, len(amounts)*len(offers))
	if len(amounts) == 0 || len(offers) == 0 {
		return rows
	}

	means := volatility.Means(history)

	for _, amount := range amounts {
		for _, o := range offers {
			cost := calculator.Cost(o, amount)

			row := domain.ScenarioRow{
				Amount:             amount,
				Platform:           o.Platform,
				TotalCost:          cost.TotalCost,
				NetReceived:        cost.NetReceived,
				SettlementTimeDays: o.SettlementTimeDays,
			}
			if avg, ok := means[volatility.Pair{Base: o.CurrencySent, Target: o.CurrencyReceived}]; ok {
				v := avg
				row.AvgFXVolatility = &v
			}

			rows = append(rows, row)
		}
	}

	return rows
}
