package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saranya/insurewise/internal/domain"
	"github.com/saranya/insurewise/internal/metrics"
	"github.com/saranya/insurewise/internal/recommend"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// CatalogSource is the read-only catalog view the handlers depend on. A
// fabricated implementation can be injected in tests.
type CatalogSource interface {
	Policies() []domain.PolicyRecord
	Count() int
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	catalog CatalogSource
	metrics *metrics.Metrics
	nowFn   func() time.Time
	refFn   func() string
}

// NewAPIHandlers constructs an APIHandlers instance. metrics may be nil.
func NewAPIHandlers(logger *slog.Logger, catalog CatalogSource, m *metrics.Metrics) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		catalog: catalog,
		metrics: m,
		nowFn:   time.Now,
		refFn:   func() string { return uuid.New().String() },
	}
}

func (h *APIHandlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	// The catch-all pattern also receives unknown paths.
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	respondJSON(w, http.StatusOK, rootResponse{
		Status:         "Insurance recommendation service is running.",
		Version:        Version,
		PoliciesLoaded: h.catalog.Count(),
		Endpoints: map[string]string{
			"GET /policies": "Get all insurance policies",
			"POST /quote":   "Get policy recommendations",
			"POST /handoff": "Schedule a human agent callback",
			"GET /health":   "Health check endpoint",
		},
	})
}

func (h *APIHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	respondJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		PoliciesCount: h.catalog.Count(),
		Timestamp:     h.nowFn().UTC().Format(time.RFC3339),
	})
}

func (h *APIHandlers) handlePolicies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	policies := h.catalog.Policies()
	if policies == nil {
		policies = []domain.PolicyRecord{}
	}
	respondJSON(w, http.StatusOK, policies)
}

func (h *APIHandlers) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload quoteRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile, err := payload.toProfile()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	recommendations := recommend.Recommend(h.catalog.Policies(), profile, recommend.DefaultTopN)
	if h.metrics != nil {
		h.metrics.ObserveRecommendations(len(recommendations))
	}

	respondJSON(w, http.StatusOK, quoteResponse{Recommendations: recommendations})
}

func (h *APIHandlers) handleHandoff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	// No ticketing system is integrated yet; acknowledge with a reference
	// the caller can quote when the integration lands.
	ref := h.refFn()
	h.logger.Info("handoff requested", "referenceId", ref)

	respondJSON(w, http.StatusOK, handoffResponse{
		Status:      "success",
		Message:     "A callback has been scheduled with a human agent.",
		ReferenceID: ref,
	})
}

// --- Request & Response DTOs ---

// quoteRequest mirrors domain.UserProfile with pointer fields so that
// absent required fields are distinguishable from zero values.
type quoteRequest struct {
	Age                  *int     `json:"age"`
	DependentsCount      *int     `json:"dependents_count"`
	AnnualIncomeBand     *int     `json:"annual_income_band"`
	RiskTolerance        *string  `json:"risk_tolerance"`
	PreferredPremiumBand *int     `json:"preferred_premium_band"`
	VehicleType          *string  `json:"vehicle_type"`
	HealthFlags          []string `json:"health_flags"`
}

func (req quoteRequest) toProfile() (domain.UserProfile, error) {
	for _, field := range []struct {
		name    string
		present bool
	}{
		{"age", req.Age != nil},
		{"dependents_count", req.DependentsCount != nil},
		{"annual_income_band", req.AnnualIncomeBand != nil},
		{"risk_tolerance", req.RiskTolerance != nil},
		{"preferred_premium_band", req.PreferredPremiumBand != nil},
	} {
		if !field.present {
			return domain.UserProfile{}, errors.New(field.name + " is required")
		}
	}
	if *req.PreferredPremiumBand == 0 {
		return domain.UserProfile{}, errors.New("preferred_premium_band must be non-zero")
	}

	profile := domain.UserProfile{
		Age:                  *req.Age,
		DependentsCount:      *req.DependentsCount,
		AnnualIncomeBand:     *req.AnnualIncomeBand,
		RiskTolerance:        *req.RiskTolerance,
		PreferredPremiumBand: *req.PreferredPremiumBand,
		HealthFlags:          req.HealthFlags,
	}
	if req.VehicleType != nil {
		profile.VehicleType = *req.VehicleType
	}
	return profile, nil
}

type rootResponse struct {
	Status         string            `json:"status"`
	Version        string            `json:"version"`
	PoliciesLoaded int               `json:"policies_loaded"`
	Endpoints      map[string]string `json:"endpoints"`
}

type healthResponse struct {
	Status        string `json:"status"`
	PoliciesCount int    `json:"policies_count"`
	Timestamp     string `json:"timestamp"`
}

type quoteResponse struct {
	Recommendations []domain.PolicyRecord `json:"recommendations"`
}

type handoffResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	ReferenceID string `json:"reference_id"`
}

// --- Helpers ---

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
