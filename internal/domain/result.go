package domain

// CostResult is the cost breakdown of one offer for one amount.
// Values are unrounded; rounding happens at presentation.
type CostResult struct {
	Platform           string  `json:"platform"`
	TotalFee           float64 `json:"totalFee"`
	FXLoss             float64 `json:"fxLoss"`
	TotalCost          float64 `json:"totalCost"`
	NetReceived        float64 `json:"netReceived"`
	SettlementTimeDays int     `json:"settlementTimeDays"`
	CurrencySent       string  `json:"currencySent"`
	CurrencyReceived   string  `json:"currencyReceived"`
}

// Weights is the (cost, speed, net) triple used for scoring.
// The fields need not sum to 1, so scores are not bounded to [0,1].
type Weights struct {
	Cost  float64 `json:"cost"`
	Speed float64 `json:"speed"`
	Net   float64 `json:"net"`
}

// ScoredResult is a CostResult with its preference score. Higher is better.
type ScoredResult struct {
	CostResult
	Score float64 `json:"score"`
}

// Highlight compares the cheapest platform with the next best by total cost.
type Highlight struct {
	Cheapest       string  `json:"cheapest"`
	RunnerUp       string  `json:"runnerUp"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savingsPercent"`
}
