package preference

import (
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestWeights(t *testing.T) {
	balanced := domain.Weights{Cost: 0.4, Speed: 0.3, Net: 0.3}

	tests := []struct {
		tag  string
		want domain.Weights
	}{
		{"Cheapest", domain.Weights{Cost: 0.6, Speed: 0.1, Net: 0.3}},
		{"Fastest", domain.Weights{Cost: 0.2, Speed: 0.6, Net: 0.2}},
		{"Balanced", balanced},
		{"  Fastest ", domain.Weights{Cost: 0.2, Speed: 0.6, Net: 0.2}},
		{"", balanced},
		{"cheapest", balanced},
		{"Whatever", balanced},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := Weights(tt.tag); got != tt.want {
				t.Errorf("Weights(%q) = %+v, want %+v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if got := Parse("Fastest"); got != Fastest {
		t.Errorf("expected Fastest, got %s", got)
	}
	if got := Parse("unknown"); got != Balanced {
		t.Errorf("expected Balanced fallback, got %s", got)
	}
}
