package domain

import "time"

// FXSample is one observation of the historical FX series for a pair.
type FXSample struct {
	BaseCurrency    string    `json:"baseCurrency"`
	TargetCurrency  string    `json:"targetCurrency"`
	Date            time.Time `json:"date"`
	AvgRate         float64   `json:"avgRate"`
	VolatilityIndex float64   `json:"volatilityIndex"`
}

// ScenarioRow is one (amount, platform) cell of a what-if simulation.
// AvgFXVolatility is nil when no history exists for the currency pair,
// which is distinct from a zero volatility.
type ScenarioRow struct {
	Amount             float64  `json:"amount"`
	Platform           string   `json:"platform"`
	TotalCost          float64  `json:"totalCost"`
	NetReceived        float64  `json:"netReceived"`
	SettlementTimeDays int      `json:"settlementTimeDays"`
	AvgFXVolatility    *float64 `json:"avgFxVolatility"`
}

// VolatilityLevel buckets a mean volatility index.
type VolatilityLevel string

const (
	VolatilityHigh     VolatilityLevel = "high"
	VolatilityModerate VolatilityLevel = "moderate"
	VolatilityStable   VolatilityLevel = "stable"
	VolatilityUnknown  VolatilityLevel = "unknown"
)

// PairVolatility summarizes the FX history of one currency pair.
type PairVolatility struct {
	BaseCurrency   string          `json:"baseCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Samples        []FXSample      `json:"samples"`
	AvgVolatility  *float64        `json:"avgVolatility"`
	Level          VolatilityLevel `json:"level"`
}
