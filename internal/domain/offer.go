package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOffer is returned when offer reference data fails validation.
var ErrInvalidOffer = errors.New("invalid offer")

// PlatformOffer is the fee schedule of one transfer platform for a corridor.
// Percent fields are in percent units (1.5 means 1.5%).
type PlatformOffer struct {
	Platform           string  `json:"platform"`
	FixedFee           float64 `json:"fixedFee"`
	PercentageFee      float64 `json:"percentageFee"`
	FXMarkupPercent    float64 `json:"fxMarkupPercent"`
	SettlementTimeDays int     `json:"settlementTimeDays"`
	CurrencySent       string  `json:"currencySent"`
	CurrencyReceived   string  `json:"currencyReceived"`
}

// Validate rejects offers the cost primitives would turn into negative costs.
// The primitives themselves do not validate; ingestion does.
func (o *PlatformOffer) Validate() error {
	if o.Platform == "" {
		return fmt.Errorf("%w: platform is required", ErrInvalidOffer)
	}

	checks := []struct {
		name  string
		value float64
	}{
		{"fixedFee", o.FixedFee},
		{"percentageFee", o.PercentageFee},
		{"fxMarkupPercent", o.FXMarkupPercent},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidOffer, c.name)
		}
	}

	if o.SettlementTimeDays < 0 {
		return fmt.Errorf("%w: settlementTimeDays must be non-negative", ErrInvalidOffer)
	}
	return nil
}

// CorridorOffer is a PlatformOffer as stored in reference data, keyed by
// (sender country, receiver country, platform).
type CorridorOffer struct {
	PlatformOffer

	SenderCountry   string `json:"senderCountry"`
	ReceiverCountry string `json:"receiverCountry"`
	Supported       bool   `json:"supported"`

	// Position preserves reference-data row order across storage.
	Position int `json:"position"`
}

// Corridor is a (sender country, receiver country) pair.
type Corridor struct {
	SenderCountry   string `json:"senderCountry"`
	ReceiverCountry string `json:"receiverCountry"`
	OfferCount      int    `json:"offerCount"`
}

// Key returns the cache/event key of the corridor.
func (c Corridor) Key() string {
	return c.SenderCountry + "->" + c.ReceiverCountry
}
