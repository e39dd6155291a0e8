package api

import (
	"math"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{18.990000000000002, 18.99},
		{16.009999999999998, 16.01},
		{2.675, 2.68},
		{-2.675, -2.68},
		{1000, 1000},
	}

	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if got := round2(math.Inf(1)); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf to pass through, got %v", got)
	}
	if got := round2(math.Inf(-1)); !math.IsInf(got, -1) {
		t.Errorf("expected -Inf to pass through, got %v", got)
	}
	if got := round2(math.NaN()); !math.IsNaN(got) {
		t.Errorf("expected NaN to pass through, got %v", got)
	}
}

func TestPresentRankedOverflow(t *testing.T) {
	rows := presentRanked([]domain.ScoredResult{{
		CostResult: domain.CostResult{Platform: "Huge", TotalCost: math.Inf(1), NetReceived: math.Inf(-1)},
	}})
	if len(rows) != 1 || !math.IsInf(rows[0].TotalCost, 1) {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   bool
	}{
		{1000, true},
		{maxAmount, true},
		{0, false},
		{-1, false},
		{1e308, false},
		{math.Inf(1), false},
		{math.NaN(), false},
	}

	for _, tt := range tests {
		if got := validAmount(tt.amount); got != tt.want {
			t.Errorf("validAmount(%v): expected %v, got %v", tt.amount, tt.want, got)
		}
	}
}
