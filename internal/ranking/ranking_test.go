package ranking

import (
	"math"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var balanced = domain.Weights{Cost: 0.4, Speed: 0.3, Net: 0.3}

func TestScoreConcreteScenario(t *testing.T) {
	// amount=1000, fixed=5, pct=1.0, markup=2.0, days=2
	got := Score(965, 35, 2, balanced)
	want := 0.4/36 + 0.3/3 + 0.3*965

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if math.Abs(got-289.611) > 1e-3 {
		t.Errorf("expected ~289.611, got %.4f", got)
	}
}

func TestScoreDecreasesWithCost(t *testing.T) {
	w := domain.Weights{Cost: 0.5, Speed: 0.2, Net: 0.3}

	prev := Score(900, 0, 1, w)
	for _, cost := range []float64{0.5, 1, 10, 35, 100, 1e4} {
		s := Score(900, cost, 1, w)
		if s >= prev {
			t.Errorf("score did not decrease: cost %v gave %v, previous %v", cost, s, prev)
		}
		prev = s
	}
}

func TestScoreIsUnbounded(t *testing.T) {
	// The net term is unnormalized: a large transfer scores far above 1
	// whatever the cost/speed weights are.
	s := Score(9650, 350, 0, domain.Weights{Cost: 1, Speed: 1, Net: 0.01})
	if s <= 1 {
		t.Errorf("expected net term to dominate, got %v", s)
	}
}

func TestRankNetOnly(t *testing.T) {
	results := []domain.CostResult{
		{Platform: "B", NetReceived: 960, TotalCost: 40, SettlementTimeDays: 0},
		{Platform: "A", NetReceived: 965, TotalCost: 35, SettlementTimeDays: 5},
	}

	ranked := Rank(results, domain.Weights{Net: 1})

	if ranked[0].Platform != "A" {
		t.Errorf("expected A (965) first, got %s", ranked[0].Platform)
	}
	if ranked[0].Score != 965 || ranked[1].Score != 960 {
		t.Errorf("unexpected scores: %v, %v", ranked[0].Score, ranked[1].Score)
	}
}

func TestRankStableOnTies(t *testing.T) {
	results := []domain.CostResult{
		{Platform: "first", NetReceived: 100, TotalCost: 5, SettlementTimeDays: 1},
		{Platform: "better", NetReceived: 200, TotalCost: 5, SettlementTimeDays: 1},
		{Platform: "second", NetReceived: 100, TotalCost: 5, SettlementTimeDays: 1},
		{Platform: "third", NetReceived: 100, TotalCost: 5, SettlementTimeDays: 1},
	}

	ranked := Rank(results, balanced)

	want := []string{"better", "first", "second", "third"}
	for i, name := range want {
		if ranked[i].Platform != name {
			t.Errorf("position %d: expected %s, got %s", i, name, ranked[i].Platform)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	results := []domain.CostResult{
		{Platform: "low", NetReceived: 1},
		{Platform: "high", NetReceived: 2},
	}
	_ = Rank(results, balanced)

	if results[0].Platform != "low" {
		t.Error("input slice was reordered")
	}
}

func TestScoreAllKeepsOrder(t *testing.T) {
	results := []domain.CostResult{
		{Platform: "low", NetReceived: 1},
		{Platform: "high", NetReceived: 2},
	}
	scored := ScoreAll(results, balanced)
	if scored[0].Platform != "low" || scored[1].Platform != "high" {
		t.Errorf("ScoreAll reordered results: %+v", scored)
	}
}
