package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/opensource-finance/kestrel/internal/advisor"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/eligibility"
	"github.com/opensource-finance/kestrel/internal/volatility"
)

// Dependencies are the collaborators of the API handlers. Repo, Cache, Bus
// and Volatility may be nil; the endpoints that need them answer 503.
type Dependencies struct {
	Repo        domain.Repository
	Cache       domain.Cache
	Bus         domain.EventBus
	Eligibility *eligibility.Engine
	Volatility  *volatility.Service
	Advisor     *advisor.Advisor

	// ComparisonTTL bounds how long computed comparisons are cached.
	ComparisonTTL time.Duration
}

// Handler holds dependencies for API handlers.
type Handler struct {
	repo          domain.Repository
	cache         domain.Cache
	bus           domain.EventBus
	eligibility   *eligibility.Engine
	volatility    *volatility.Service
	advisor       *advisor.Advisor
	comparisonTTL time.Duration
	version       string
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies, version string) *Handler {
	ttl := deps.ComparisonTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	adv := deps.Advisor
	if adv == nil {
		adv = advisor.New(nil, 0)
	}

	return &Handler{
		repo:          deps.Repo,
		cache:         deps.Cache,
		bus:           deps.Bus,
		eligibility:   deps.Eligibility,
		volatility:    deps.Volatility,
		advisor:       adv,
		comparisonTTL: ttl,
		version:       version,
	}
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := "healthy"
	checks := map[string]string{}

	check := func(name string, ping func() error) {
		if err := ping(); err != nil {
			status = "degraded"
			checks[name] = err.Error()
			return
		}
		checks[name] = "ok"
	}

	if h.repo != nil {
		check("repository", func() error { return h.repo.Ping(ctx) })
	}
	if h.cache != nil {
		check("cache", func() error { return h.cache.Ping(ctx) })
	}
	if h.bus != nil {
		check("eventBus", func() error { return h.bus.Ping(ctx) })
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": h.version,
		"checks":  checks,
	})
}

// Ready reports whether reference data can be served.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil || h.eligibility == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
