package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/compare"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/eligibility"
	"github.com/opensource-finance/kestrel/internal/preference"
	"github.com/opensource-finance/kestrel/internal/scenario"
)

var errNoEligible = errors.New("no eligible platforms for corridor")

// maxAmount bounds transfer amounts so costs stay finite and encodable.
const maxAmount = 1e15

// CompareRequest is the request body for POST /compare.
type CompareRequest struct {
	SenderCountry   string   `json:"senderCountry"`
	ReceiverCountry string   `json:"receiverCountry"`
	Amount          float64  `json:"amount"`
	Preference      string   `json:"preference"`
	Constraints     []string `json:"constraints,omitempty"`
	Recommend       bool     `json:"recommend"`
}

// CompareResponse is the response for POST /compare.
type CompareResponse struct {
	ComparisonID    string                 `json:"comparisonId"`
	SenderCountry   string                 `json:"senderCountry"`
	ReceiverCountry string                 `json:"receiverCountry"`
	Amount          float64                `json:"amount"`
	Preference      string                 `json:"preference"`
	Weights         domain.Weights         `json:"weights"`
	Results         []ResultRow            `json:"results"`
	Highlight       *domain.Highlight      `json:"highlight,omitempty"`
	Recommendation  *domain.Recommendation `json:"recommendation,omitempty"`
	Savings         *float64               `json:"savings,omitempty"`
	Metadata        ResponseMetadata       `json:"metadata"`
}

// ScenarioRequest is the request body for POST /scenarios.
type ScenarioRequest struct {
	SenderCountry   string    `json:"senderCountry"`
	ReceiverCountry string    `json:"receiverCountry"`
	Amounts         []float64 `json:"amounts"`
	Constraints     []string  `json:"constraints,omitempty"`
}

// ScenarioResponse is the response for POST /scenarios.
type ScenarioResponse struct {
	SenderCountry   string               `json:"senderCountry"`
	ReceiverCountry string               `json:"receiverCountry"`
	Rows            []domain.ScenarioRow `json:"rows"`
	Metadata        ResponseMetadata     `json:"metadata"`
}

// ResponseMetadata describes how a computed response was produced.
type ResponseMetadata struct {
	TraceID string `json:"traceId"`
	Cached  bool   `json:"cached"`
	TotalMs int64  `json:"totalMs"`
	Version string `json:"version"`
}

// Compare handles POST /compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	if h.repo == nil || h.eligibility == nil {
		writeError(w, http.StatusServiceUnavailable, "reference data not available")
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	req.SenderCountry = strings.TrimSpace(req.SenderCountry)
	req.ReceiverCountry = strings.TrimSpace(req.ReceiverCountry)
	req.Preference = string(preference.Parse(req.Preference))

	if req.SenderCountry == "" || req.ReceiverCountry == "" {
		writeError(w, http.StatusBadRequest, "senderCountry and receiverCountry are required")
		return
	}
	if !validAmount(req.Amount) {
		writeError(w, http.StatusBadRequest, "amount must be a positive number no larger than 1e15")
		return
	}
	if err := h.validateConstraints(req.Constraints); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := h.cacheKey(ctx, "compare", req.SenderCountry, req.ReceiverCountry, false, req)

	var resp CompareResponse
	cached := h.lookup(ctx, key, &resp)
	if !cached {
		var err error
		resp, err = h.compare(ctx, req)
		if errors.Is(err, errNoEligible) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, eligibility.ErrInvalidConstraint) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			slog.Error("comparison failed", "error", err)
			writeError(w, http.StatusInternalServerError, "comparison failed")
			return
		}

		// A fallback recommendation may be transient; only cache stable answers.
		if resp.Recommendation == nil || resp.Recommendation.Source == domain.SourceAI {
			h.store(ctx, key, resp)
		}
	}

	resp.ComparisonID = uuid.New().String()
	resp.Metadata = h.metadata(ctx, start, cached)

	slog.Info("comparison served",
		"sender_country", req.SenderCountry,
		"receiver_country", req.ReceiverCountry,
		"preference", req.Preference,
		"platforms", len(resp.Results),
		"cached", cached,
		"duration_ms", resp.Metadata.TotalMs,
	)

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) compare(ctx context.Context, req CompareRequest) (CompareResponse, error) {
	ctx, span := tracer.Start(ctx, "compare.rank",
		trace.WithAttributes(
			attribute.String("corridor", req.SenderCountry+"->"+req.ReceiverCountry),
			attribute.String("preference", req.Preference),
			attribute.Float64("amount", req.Amount),
		),
	)
	defer span.End()

	offers, err := h.eligibleOffers(ctx, req.SenderCountry, req.ReceiverCountry, req.Amount, req.Constraints)
	if err != nil {
		return CompareResponse{}, err
	}
	span.SetAttributes(attribute.Int("offers", len(offers)))

	ranked := compare.Ranked(offers, req.Amount, req.Preference)
	results := compare.Unscored(ranked)

	resp := CompareResponse{
		SenderCountry:   req.SenderCountry,
		ReceiverCountry: req.ReceiverCountry,
		Amount:          req.Amount,
		Preference:      req.Preference,
		Weights:         preference.Weights(req.Preference),
		Results:         presentRanked(ranked),
	}
	if hl, ok := compare.Highlight(results); ok {
		resp.Highlight = presentHighlight(hl)
	}

	if req.Recommend {
		rec, err := h.advisor.Recommend(ctx, results)
		if err != nil {
			return CompareResponse{}, fmt.Errorf("failed to recommend: %w", err)
		}
		resp.Recommendation = &rec
		span.SetAttributes(attribute.String("recommendation.source", rec.Source))

		if savings, ok := compare.SavingsVersus(results, rec.Platform); ok {
			s := round2(savings)
			resp.Savings = &s
		}
	}

	return resp, nil
}

// Scenarios handles POST /scenarios.
func (h *Handler) Scenarios(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	if h.repo == nil || h.eligibility == nil {
		writeError(w, http.StatusServiceUnavailable, "reference data not available")
		return
	}

	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	req.SenderCountry = strings.TrimSpace(req.SenderCountry)
	req.ReceiverCountry = strings.TrimSpace(req.ReceiverCountry)

	if req.SenderCountry == "" || req.ReceiverCountry == "" {
		writeError(w, http.StatusBadRequest, "senderCountry and receiverCountry are required")
		return
	}
	for _, a := range req.Amounts {
		if !validAmount(a) {
			writeError(w, http.StatusBadRequest, "every amount must be a positive number no larger than 1e15")
			return
		}
	}
	if err := h.validateConstraints(req.Constraints); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := h.cacheKey(ctx, "scenario", req.SenderCountry, req.ReceiverCountry, true, req)

	var resp ScenarioResponse
	cached := h.lookup(ctx, key, &resp)
	if !cached {
		var err error
		resp, err = h.simulate(ctx, req)
		if errors.Is(err, errNoEligible) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, eligibility.ErrInvalidConstraint) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			slog.Error("scenario simulation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "scenario simulation failed")
			return
		}
		h.store(ctx, key, resp)
	}

	resp.Metadata = h.metadata(ctx, start, cached)
	writeJSON(w, http.StatusOK, resp)
}

// simulate filters per amount, since constraints may reference the amount,
// and keeps amounts as the outer loop.
func (h *Handler) simulate(ctx context.Context, req ScenarioRequest) (ScenarioResponse, error) {
	ctx, span := tracer.Start(ctx, "scenario.simulate",
		trace.WithAttributes(
			attribute.String("corridor", req.SenderCountry+"->"+req.ReceiverCountry),
			attribute.Int("amounts", len(req.Amounts)),
		),
	)
	defer span.End()

	resp := ScenarioResponse{
		SenderCountry:   req.SenderCountry,
		ReceiverCountry: req.ReceiverCountry,
		Rows:            []domain.ScenarioRow{},
	}
	if len(req.Amounts) == 0 {
		return resp, nil
	}

	stored, err := h.repo.ListOffers(ctx, req.SenderCountry, req.ReceiverCountry)
	if err != nil {
		return ScenarioResponse{}, fmt.Errorf("failed to list offers: %w", err)
	}

	var history []domain.FXSample
	if h.volatility != nil {
		history, err = h.volatility.History(ctx)
		if err != nil {
			return ScenarioResponse{}, fmt.Errorf("failed to load fx history: %w", err)
		}
	}

	found := false
	for _, amount := range req.Amounts {
		offers, err := h.eligibility.Filter(stored, eligibility.Request{
			SenderCountry:   req.SenderCountry,
			ReceiverCountry: req.ReceiverCountry,
			Amount:          amount,
			Constraints:     req.Constraints,
		})
		if err != nil {
			return ScenarioResponse{}, err
		}
		found = found || len(offers) > 0
		resp.Rows = append(resp.Rows, scenario.Simulate(offers, []float64{amount}, history)...)
	}
	if !found {
		return ScenarioResponse{}, errNoEligible
	}

	resp.Rows = presentScenario(resp.Rows)
	return resp, nil
}

func (h *Handler) eligibleOffers(ctx context.Context, sender, receiver string, amount float64, constraints []string) ([]domain.PlatformOffer, error) {
	stored, err := h.repo.ListOffers(ctx, sender, receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	offers, err := h.eligibility.Filter(stored, eligibility.Request{
		SenderCountry:   sender,
		ReceiverCountry: receiver,
		Amount:          amount,
		Constraints:     constraints,
	})
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, errNoEligible
	}
	return offers, nil
}

func (h *Handler) validateConstraints(constraints []string) error {
	for _, c := range constraints {
		if err := h.eligibility.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// cacheKey derives a key from the request and the generations of the data it
// reads, so an invalidation event retires old entries. It returns "" when
// caching is unavailable.
func (h *Handler) cacheKey(ctx context.Context, kind, sender, receiver string, withFX bool, req any) string {
	if h.cache == nil {
		return ""
	}

	corridorGen, err := h.cache.Generation(ctx, cache.CorridorGenerationKey(sender, receiver))
	if err != nil {
		slog.Warn("failed to read corridor generation", "error", err)
		return ""
	}

	var fxGen int64
	if withFX {
		if fxGen, err = h.cache.Generation(ctx, cache.FXGenerationKey); err != nil {
			slog.Warn("failed to read fx generation", "error", err)
			return ""
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(body)

	return fmt.Sprintf("%s:%s->%s:g%d:f%d:%s", kind, sender, receiver, corridorGen, fxGen, hex.EncodeToString(sum[:16]))
}

func (h *Handler) lookup(ctx context.Context, key string, v any) bool {
	if key == "" {
		return false
	}
	found, err := cache.GetJSON(ctx, h.cache, key, v)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	return found
}

func (h *Handler) store(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	if err := cache.SetJSON(ctx, h.cache, key, v, h.comparisonTTL); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

func (h *Handler) metadata(ctx context.Context, start time.Time, cached bool) ResponseMetadata {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return ResponseMetadata{
		TraceID: traceID,
		Cached:  cached,
		TotalMs: time.Since(start).Milliseconds(),
		Version: h.version,
	}
}

func validAmount(v float64) bool {
	return v > 0 && v <= maxAmount && !math.IsNaN(v)
}
