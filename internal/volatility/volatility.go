// Package volatility aggregates historical FX volatility per currency pair.
package volatility

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Thresholds on the mean volatility index.
const (
	HighThreshold     = 0.25
	ModerateThreshold = 0.15
)

// HistoryCacheKey prefixes the cache key of the full FX history table.
const HistoryCacheKey = "fx:history"

// Pair identifies a currency pair.
type Pair struct {
	Base   string
	Target string
}

// MeanIndex returns the arithmetic mean of VolatilityIndex over the samples of
// the pair. ok is false when the history has no sample for it.
func MeanIndex(history []domain.FXSample, base, target string) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, s := range history {
		if s.BaseCurrency == base && s.TargetCurrency == target {
			sum += s.VolatilityIndex
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Means computes MeanIndex for every pair present in the history in one pass.
func Means(history []domain.FXSample) map[Pair]float64 {
	sums := make(map[Pair]float64)
	counts := make(map[Pair]int)
	for _, s := range history {
		p := Pair{Base: s.BaseCurrency, Target: s.TargetCurrency}
		sums[p] += s.VolatilityIndex
		counts[p]++
	}

	means := make(map[Pair]float64, len(sums))
	for p, sum := range sums {
		means[p] = sum / float64(counts[p])
	}
	return means
}

// Classify buckets a mean volatility index.
func Classify(avg float64) domain.VolatilityLevel {
	switch {
	case avg > HighThreshold:
		return domain.VolatilityHigh
	case avg > ModerateThreshold:
		return domain.VolatilityModerate
	default:
		return domain.VolatilityStable
	}
}

// Summarize builds the pair summary from its samples, ordered by date.
func Summarize(base, target string, samples []domain.FXSample) domain.PairVolatility {
	sorted := make([]domain.FXSample, 0, len(samples))
	for _, s := range samples {
		if s.BaseCurrency == base && s.TargetCurrency == target {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	summary := domain.PairVolatility{
		BaseCurrency:   base,
		TargetCurrency: target,
		Samples:        sorted,
		Level:          domain.VolatilityUnknown,
	}
	if avg, ok := MeanIndex(sorted, base, target); ok {
		summary.AvgVolatility = &avg
		summary.Level = Classify(avg)
	}
	return summary
}

// Service serves FX history from the repository, cached as a whole table.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
	ttl   time.Duration
}

// NewService creates a new volatility service. c may be nil.
func NewService(repo domain.Repository, c domain.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:  repo,
		cache: c,
		ttl:   ttl,
	}
}

// History returns the full FX history table.
func (s *Service) History(ctx context.Context) ([]domain.FXSample, error) {
	key, cached := s.historyKey(ctx)
	if cached {
		var history []domain.FXSample
		found, err := cache.GetJSON(ctx, s.cache, key, &history)
		if err != nil {
			slog.Warn("fx history cache read failed", "error", err)
		}
		if found {
			return history, nil
		}
	}

	if s.repo == nil {
		return nil, fmt.Errorf("no data source available")
	}

	history, err := s.repo.ListFXHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fx history: %w", err)
	}

	if cached {
		if err := cache.SetJSON(ctx, s.cache, key, history, s.ttl); err != nil {
			slog.Warn("failed to cache fx history", "error", err)
		}
	}

	return history, nil
}

// PairSummary returns the volatility summary of one currency pair. It reuses
// the cached table when present and otherwise reads only the pair.
func (s *Service) PairSummary(ctx context.Context, base, target string) (domain.PairVolatility, error) {
	if base == "" || target == "" {
		return domain.PairVolatility{}, fmt.Errorf("base and target currencies are required")
	}

	if key, cached := s.historyKey(ctx); cached {
		var history []domain.FXSample
		found, err := cache.GetJSON(ctx, s.cache, key, &history)
		if err != nil {
			slog.Warn("fx history cache read failed", "error", err)
		}
		if found {
			return Summarize(base, target, history), nil
		}
	}

	if s.repo == nil {
		return domain.PairVolatility{}, fmt.Errorf("no data source available")
	}

	samples, err := s.repo.ListFXHistoryForPair(ctx, base, target)
	if err != nil {
		return domain.PairVolatility{}, fmt.Errorf("failed to list fx history for %s/%s: %w", base, target, err)
	}
	return Summarize(base, target, samples), nil
}

// Invalidate drops the cached history of the current FX generation. Readers
// that loaded the table before the change write under that generation, which
// is retired once the generation is bumped.
func (s *Service) Invalidate(ctx context.Context) error {
	key, cached := s.historyKey(ctx)
	if !cached {
		return nil
	}
	return s.cache.Delete(ctx, key)
}

// historyKey stamps the table key with the FX generation. cached is false
// when there is no cache or the generation cannot be read.
func (s *Service) historyKey(ctx context.Context) (key string, cached bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, cache.FXGenerationKey)
	if err != nil {
		slog.Warn("failed to read fx generation", "error", err)
		return "", false
	}
	return historyCacheKey(gen), true
}

func historyCacheKey(gen int64) string {
	return fmt.Sprintf("%s:g%d", HistoryCacheKey, gen)
}
