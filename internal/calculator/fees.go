// Package calculator provides the deterministic fee and FX cost primitives.
//
// The functions are total over float64: they do not validate their inputs and
// never fail. Offers are validated at ingestion (see domain.PlatformOffer.Validate).
package calculator

import "github.com/opensource-finance/kestrel/internal/domain"

// FixedFee returns the flat fee of a transfer. The amount is unused today and
// kept so amount-tiered schedules can slot in without changing callers.
func FixedFee(amount, fixedFee float64) float64 {
	_ = amount
	return fixedFee
}

// PercentageFee returns amount * percent / 100.
func PercentageFee(amount, percent float64) float64 {
	return amount * (percent / 100)
}

// FXMarkupLoss returns the loss from the exchange-rate spread.
func FXMarkupLoss(amount, markupPercent float64) float64 {
	return amount * (markupPercent / 100)
}

// TotalFee returns fixed + percentage fees.
func TotalFee(fixedFee, percentageFee float64) float64 {
	return fixedFee + percentageFee
}

// TotalCost returns fees plus FX loss.
func TotalCost(totalFee, fxLoss float64) float64 {
	return totalFee + fxLoss
}

// NetReceived returns what the recipient actually gets.
func NetReceived(amount, totalFee, fxLoss float64) float64 {
	return amount - totalFee - fxLoss
}

// Cost applies the primitives to one offer and amount.
func Cost(offer domain.PlatformOffer, amount float64) domain.CostResult {
	fixed := FixedFee(amount, offer.FixedFee)
	pct := PercentageFee(amount, offer.PercentageFee)
	fee := TotalFee(fixed, pct)
	fxLoss := FXMarkupLoss(amount, offer.FXMarkupPercent)

	return domain.CostResult{
		Platform:           offer.Platform,
		TotalFee:           fee,
		FXLoss:             fxLoss,
		TotalCost:          TotalCost(fee, fxLoss),
		NetReceived:        NetReceived(amount, fee, fxLoss),
		SettlementTimeDays: offer.SettlementTimeDays,
		CurrencySent:       offer.CurrencySent,
		CurrencyReceived:   offer.CurrencyReceived,
	}
}
