package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/repository"
)

// OfferRequest is the request body for POST /offers.
type OfferRequest struct {
	SenderCountry      string  `json:"senderCountry"`
	ReceiverCountry    string  `json:"receiverCountry"`
	Platform           string  `json:"platform"`
	FixedFee           float64 `json:"fixedFee"`
	PercentageFee      float64 `json:"percentageFee"`
	FXMarkupPercent    float64 `json:"fxMarkupPercent"`
	SettlementTimeDays int     `json:"settlementTimeDays"`
	CurrencySent       string  `json:"currencySent"`
	CurrencyReceived   string  `json:"currencyReceived"`

	// Supported defaults to true when omitted.
	Supported *bool `json:"supported,omitempty"`
}

// FXSampleRequest is the request body for POST /fx.
type FXSampleRequest struct {
	BaseCurrency    string  `json:"baseCurrency"`
	TargetCurrency  string  `json:"targetCurrency"`
	Date            string  `json:"date"` // YYYY-MM-DD
	AvgRate         float64 `json:"avgRate"`
	VolatilityIndex float64 `json:"volatilityIndex"`
}

// ListCorridors returns every corridor with stored offers.
func (h *Handler) ListCorridors(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	corridors, err := h.repo.ListCorridors(r.Context())
	if err != nil {
		slog.Error("failed to list corridors", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list corridors")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"corridors": corridors,
		"count":     len(corridors),
	})
}

// ListOffers returns the stored offers of a corridor in reference-data order,
// including unsupported ones.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	sender := strings.TrimSpace(chi.URLParam(r, "sender"))
	receiver := strings.TrimSpace(chi.URLParam(r, "receiver"))

	offers, err := h.repo.ListOffers(r.Context(), sender, receiver)
	if err != nil {
		slog.Error("failed to list offers",
			"sender_country", sender,
			"receiver_country", receiver,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to list offers")
		return
	}
	if len(offers) == 0 {
		writeError(w, http.StatusNotFound, "no offers for corridor")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"senderCountry":   sender,
		"receiverCountry": receiver,
		"offers":          offers,
		"count":           len(offers),
	})
}

// SaveOffer upserts an offer and announces the corridor change.
func (h *Handler) SaveOffer(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	var req OfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	supported := true
	if req.Supported != nil {
		supported = *req.Supported
	}

	offer := &domain.CorridorOffer{
		PlatformOffer: domain.PlatformOffer{
			Platform:           strings.TrimSpace(req.Platform),
			FixedFee:           req.FixedFee,
			PercentageFee:      req.PercentageFee,
			FXMarkupPercent:    req.FXMarkupPercent,
			SettlementTimeDays: req.SettlementTimeDays,
			CurrencySent:       strings.TrimSpace(req.CurrencySent),
			CurrencyReceived:   strings.TrimSpace(req.CurrencyReceived),
		},
		SenderCountry:   strings.TrimSpace(req.SenderCountry),
		ReceiverCountry: strings.TrimSpace(req.ReceiverCountry),
		Supported:       supported,
	}

	ctx := r.Context()
	if err := h.repo.SaveOffer(ctx, offer); err != nil {
		if errors.Is(err, domain.ErrInvalidOffer) || errors.Is(err, repository.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save offer", "platform", offer.Platform, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save offer")
		return
	}

	// The write already succeeded; a lost event only delays invalidation
	// until the comparison TTL.
	if h.bus != nil {
		event := domain.OffersUpdatedEvent{
			SenderCountry:   offer.SenderCountry,
			ReceiverCountry: offer.ReceiverCountry,
			Platform:        offer.Platform,
		}
		if err := bus.PublishJSON(ctx, h.bus, domain.TopicOffersUpdated, event); err != nil {
			slog.Error("failed to publish offers update", "platform", offer.Platform, "error", err)
		}
	}

	slog.Info("offer saved",
		"sender_country", offer.SenderCountry,
		"receiver_country", offer.ReceiverCountry,
		"platform", offer.Platform,
		"position", offer.Position,
	)

	writeJSON(w, http.StatusCreated, offer)
}

// SaveFXSample stores one FX history sample and announces the change.
func (h *Handler) SaveFXSample(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	var req FXSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.VolatilityIndex < 0 || req.AvgRate < 0 {
		writeError(w, http.StatusBadRequest, "avgRate and volatilityIndex must be non-negative")
		return
	}

	sample := &domain.FXSample{
		BaseCurrency:    strings.TrimSpace(req.BaseCurrency),
		TargetCurrency:  strings.TrimSpace(req.TargetCurrency),
		Date:            date,
		AvgRate:         req.AvgRate,
		VolatilityIndex: req.VolatilityIndex,
	}

	ctx := r.Context()
	if err := h.repo.SaveFXSample(ctx, sample); err != nil {
		if errors.Is(err, repository.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save fx sample", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save fx sample")
		return
	}

	if h.bus != nil {
		event := domain.FXUpdatedEvent{
			BaseCurrency:   sample.BaseCurrency,
			TargetCurrency: sample.TargetCurrency,
		}
		if err := bus.PublishJSON(ctx, h.bus, domain.TopicFXUpdated, event); err != nil {
			slog.Error("failed to publish fx update", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, sample)
}

// PairVolatility returns the FX history summary of a currency pair. A pair
// without history answers 200 with level "unknown" and a null average.
func (h *Handler) PairVolatility(w http.ResponseWriter, r *http.Request) {
	if h.volatility == nil {
		writeError(w, http.StatusServiceUnavailable, "fx history not available")
		return
	}

	base := strings.TrimSpace(chi.URLParam(r, "base"))
	target := strings.TrimSpace(chi.URLParam(r, "target"))

	summary, err := h.volatility.PairSummary(r.Context(), base, target)
	if err != nil {
		slog.Error("failed to summarize fx pair",
			"base_currency", base,
			"target_currency", target,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to load fx history")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
