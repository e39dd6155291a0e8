package api

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Money is presented rounded half away from zero to 2 decimals. The core
// keeps full precision; rounding happens only here. Non-finite values pass
// through since decimal cannot represent them.
func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ResultRow is one ranked platform in a comparison response.
type ResultRow struct {
	Rank               int     `json:"rank"`
	Platform           string  `json:"platform"`
	TotalFee           float64 `json:"totalFee"`
	FXLoss             float64 `json:"fxLoss"`
	TotalCost          float64 `json:"totalCost"`
	NetReceived        float64 `json:"netReceived"`
	SettlementTimeDays int     `json:"settlementTimeDays"`
	CurrencySent       string  `json:"currencySent"`
	CurrencyReceived   string  `json:"currencyReceived"`
	Score              float64 `json:"score"`
}

func presentRanked(ranked []domain.ScoredResult) []ResultRow {
	rows := make([]ResultRow, len(ranked))
	for i, r := range ranked {
		rows[i] = ResultRow{
			Rank:               i + 1,
			Platform:           r.Platform,
			TotalFee:           round2(r.TotalFee),
			FXLoss:             round2(r.FXLoss),
			TotalCost:          round2(r.TotalCost),
			NetReceived:        round2(r.NetReceived),
			SettlementTimeDays: r.SettlementTimeDays,
			CurrencySent:       r.CurrencySent,
			CurrencyReceived:   r.CurrencyReceived,
			Score:              r.Score,
		}
	}
	return rows
}

func presentHighlight(h domain.Highlight) *domain.Highlight {
	return &domain.Highlight{
		Cheapest:       h.Cheapest,
		RunnerUp:       h.RunnerUp,
		Savings:        round2(h.Savings),
		SavingsPercent: round2(h.SavingsPercent),
	}
}

func presentScenario(rows []domain.ScenarioRow) []domain.ScenarioRow {
	out := make([]domain.ScenarioRow, len(rows))
	for i, r := range rows {
		r.Amount = round2(r.Amount)
		r.TotalCost = round2(r.TotalCost)
		r.NetReceived = round2(r.NetReceived)
		out[i] = r
	}
	return out
}
