// Package advisor produces a natural-language recommendation for a
// comparison. It asks an AI model and falls back to a deterministic pick
// (highest net received) whenever the model is unavailable.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// ErrNoResults is returned when there is nothing to recommend.
var ErrNoResults = errors.New("no results to analyze")

// Asker is the AI side of the advisor.
type Asker interface {
	Ask(ctx context.Context, results []domain.CostResult) domain.AIRecommendation
}

// Advisor always returns a usable recommendation for non-empty results.
type Advisor struct {
	asker   Asker
	timeout time.Duration
}

// New creates an advisor. A nil asker means fallback only.
func New(asker Asker, timeout time.Duration) *Advisor {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Advisor{
		asker:   asker,
		timeout: timeout,
	}
}

// Recommend picks the best platform among results.
func (a *Advisor) Recommend(ctx context.Context, results []domain.CostResult) (domain.Recommendation, error) {
	if len(results) == 0 {
		return domain.Recommendation{}, ErrNoResults
	}

	ai := domain.AIRecommendation{Status: domain.AIStatusUnavailable, Reason: domain.ReasonMissingCredential}
	if a.asker != nil {
		askCtx, cancel := context.WithTimeout(ctx, a.timeout)
		ai = a.asker.Ask(askCtx, results)
		cancel()
	}

	// A platform we did not offer is as unusable as no answer.
	if ai.OK() && !contains(results, ai.Platform) {
		slog.Warn("ai recommended unknown platform", "platform", ai.Platform)
		ai = domain.AIRecommendation{Status: domain.AIStatusUnavailable, Reason: domain.ReasonMalformedResponse}
	}

	if ai.OK() {
		return domain.Recommendation{
			Platform:    ai.Platform,
			Explanation: normalizeSpace(ai.Explanation),
			Source:      domain.SourceAI,
		}, nil
	}

	slog.Info("using deterministic recommendation", "reason", ai.Reason)
	return Fallback(results, ai.Reason), nil
}

// Fallback returns the first result with the highest net received and a
// templated explanation for the given reason. results must not be empty.
func Fallback(results []domain.CostResult, reason string) domain.Recommendation {
	best := results[0]
	for _, r := range results[1:] {
		if r.NetReceived > best.NetReceived {
			best = r
		}
	}

	var explanation string
	switch reason {
	case domain.ReasonRequestFailed:
		explanation = fmt.Sprintf("%s provides the highest net received amount after fees and FX loss. "+
			"This recommendation is based on deterministic cost analysis.", best.Platform)
	case domain.ReasonMalformedResponse:
		explanation = fmt.Sprintf("%s maximizes the amount received "+
			"and keeps overall costs low compared to other options.", best.Platform)
	default:
		explanation = fmt.Sprintf("%s offers the highest net received amount with competitive fees and FX costs. "+
			"It is the safest choice based on pure cost efficiency.", best.Platform)
	}

	return domain.Recommendation{
		Platform:       best.Platform,
		Explanation:    explanation,
		Source:         domain.SourceFallback,
		FallbackReason: reason,
	}
}

func contains(results []domain.CostResult, platform string) bool {
	for _, r := range results {
		if r.Platform == platform {
			return true
		}
	}
	return false
}

// normalizeSpace collapses runs of whitespace, fixing glued lines from the model.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
