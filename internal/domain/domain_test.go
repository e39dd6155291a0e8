package domain

import (
	"errors"
	"math"
	"testing"
)

func TestPlatformOfferValidate(t *testing.T) {
	valid := PlatformOffer{
		Platform:           "Wise",
		FixedFee:           5,
		PercentageFee:      1.0,
		FXMarkupPercent:    2.0,
		SettlementTimeDays: 2,
		CurrencySent:       "USD",
		CurrencyReceived:   "GBP",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid offer, got %v", err)
	}

	zero := PlatformOffer{Platform: "Free"}
	if err := zero.Validate(); err != nil {
		t.Errorf("zero fees should be valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(o *PlatformOffer)
	}{
		{"MissingPlatform", func(o *PlatformOffer) { o.Platform = "" }},
		{"NegativeFixedFee", func(o *PlatformOffer) { o.FixedFee = -1 }},
		{"NegativePercentage", func(o *PlatformOffer) { o.PercentageFee = -0.5 }},
		{"NegativeMarkup", func(o *PlatformOffer) { o.FXMarkupPercent = -2 }},
		{"NaNFee", func(o *PlatformOffer) { o.FixedFee = math.NaN() }},
		{"InfiniteMarkup", func(o *PlatformOffer) { o.FXMarkupPercent = math.Inf(1) }},
		{"NegativeSettlement", func(o *PlatformOffer) { o.SettlementTimeDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.mutate(&o)
			if err := o.Validate(); !errors.Is(err, ErrInvalidOffer) {
				t.Errorf("expected ErrInvalidOffer, got %v", err)
			}
		})
	}
}

func TestCorridorKey(t *testing.T) {
	c := Corridor{SenderCountry: "US", ReceiverCountry: "GB"}
	if c.Key() != "US->GB" {
		t.Errorf("unexpected key: %s", c.Key())
	}
}

func TestAIRecommendationOK(t *testing.T) {
	if !(AIRecommendation{Status: AIStatusOK, Platform: "Wise"}).OK() {
		t.Error("expected ok")
	}
	if (AIRecommendation{Status: AIStatusUnavailable, Reason: ReasonRequestFailed}).OK() {
		t.Error("expected unavailable")
	}
}

func TestConfigTiers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Tier != TierCommunity || cfg.Repository.Driver != "sqlite" || cfg.Cache.Type != "memory" || cfg.EventBus.Type != "channel" {
		t.Errorf("unexpected community config: %+v", cfg)
	}
	if cfg.Advisor.Timeout.Seconds() != 25 {
		t.Errorf("expected 25s advisor timeout, got %v", cfg.Advisor.Timeout)
	}

	pro := ProConfig()
	if pro.Tier != TierPro || pro.Repository.Driver != "postgres" || pro.Cache.Type != "redis" || pro.EventBus.Type != "nats" {
		t.Errorf("unexpected pro config: %+v", pro)
	}
	if !pro.Cache.EnableTwoPhase {
		t.Error("pro tier should use the two-phase cache")
	}
}
