// Package preference maps a user preference to scoring weights.
package preference

import (
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Preference is a named ranking preference.
type Preference string

const (
	Cheapest Preference = "Cheapest"
	Fastest  Preference = "Fastest"
	Balanced Preference = "Balanced"
)

var weights = map[Preference]domain.Weights{
	Cheapest: {Cost: 0.6, Speed: 0.1, Net: 0.3},
	Fastest:  {Cost: 0.2, Speed: 0.6, Net: 0.2},
	Balanced: {Cost: 0.4, Speed: 0.3, Net: 0.3},
}

// Parse resolves a free-text tag. Unknown and empty tags resolve to Balanced.
func Parse(tag string) Preference {
	p := Preference(strings.TrimSpace(tag))
	if _, ok := weights[p]; ok {
		return p
	}
	return Balanced
}

// Weights returns the weight triple for a tag. It never fails.
func Weights(tag string) domain.Weights {
	return weights[Parse(tag)]
}
