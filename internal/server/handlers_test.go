package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saranya/insurewise/internal/domain"
)

type stubCatalog struct {
	policies []domain.PolicyRecord
}

func (s *stubCatalog) Policies() []domain.PolicyRecord { return s.policies }
func (s *stubCatalog) Count() int                      { return len(s.policies) }

func intPtr(v int) *int { return &v }

func testCatalog() *stubCatalog {
	return &stubCatalog{policies: []domain.PolicyRecord{
		{
			PolicyID:   "P1",
			Name:       "MediShield",
			Type:       "health",
			SumInsured: []float64{500000},
			PremiumYearly: domain.NewPremiumTable(
				domain.PremiumEntry{Key: "500000", Premium: 5000},
			),
			Eligibility: domain.Eligibility{MinAge: intPtr(18), MaxAge: intPtr(65)},
			Exclusions:  []string{},
			Riders:      []any{},
		},
		{
			PolicyID:   "P2",
			Name:       "SecureLife Term",
			Type:       "life",
			SumInsured: []float64{2500000},
			PremiumYearly: domain.NewPremiumTable(
				domain.PremiumEntry{Key: "2500000", Premium: 6200},
			),
			Eligibility: domain.Eligibility{MinAge: intPtr(18), MaxAge: intPtr(65)},
			Exclusions:  []string{},
			Riders:      []any{},
		},
	}}
}

func testHandlers(catalog CatalogSource) *APIHandlers {
	h := NewAPIHandlers(slog.New(slog.NewTextHandler(io.Discard, nil)), catalog, nil)
	h.nowFn = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	h.refFn = func() string { return "ref-fixed" }
	return h
}

func TestHandleRoot(t *testing.T) {
	handlers := testHandlers(testCatalog())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handlers.handleRoot(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload rootResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.PoliciesLoaded != 2 {
		t.Fatalf("expected 2 policies loaded, got %d", payload.PoliciesLoaded)
	}
	if payload.Version != Version {
		t.Fatalf("expected version %s, got %s", Version, payload.Version)
	}
	if len(payload.Endpoints) == 0 {
		t.Fatalf("expected documented endpoints")
	}
}

func TestHandleRootUnknownPath(t *testing.T) {
	handlers := testHandlers(testCatalog())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	handlers.handleRoot(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHealthAndPoliciesCountsAgree(t *testing.T) {
	handlers := testHandlers(testCatalog())

	healthRec := httptest.NewRecorder()
	handlers.handleHealth(healthRec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if healthRec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", healthRec.Code)
	}

	var health healthResponse
	if err := json.Unmarshal(healthRec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health.Status != "healthy" {
		t.Fatalf("expected healthy status, got %s", health.Status)
	}

	policiesRec := httptest.NewRecorder()
	handlers.handlePolicies(policiesRec, httptest.NewRequest(http.MethodGet, "/policies", nil))
	if policiesRec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", policiesRec.Code)
	}

	var policies []domain.PolicyRecord
	if err := json.Unmarshal(policiesRec.Body.Bytes(), &policies); err != nil {
		t.Fatalf("failed to decode policies response: %v", err)
	}
	if len(policies) != health.PoliciesCount {
		t.Fatalf("policies endpoint returned %d records but health reports %d", len(policies), health.PoliciesCount)
	}
}

func TestHandlePoliciesEmptyCatalogReturnsArray(t *testing.T) {
	handlers := testHandlers(&stubCatalog{})

	rec := httptest.NewRecorder()
	handlers.handlePolicies(rec, httptest.NewRequest(http.MethodGet, "/policies", nil))

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty JSON array, got %s", body)
	}
}

func TestHandleQuoteReturnsRankedRecommendations(t *testing.T) {
	handlers := testHandlers(testCatalog())

	body := `{
		"age": 30,
		"dependents_count": 2,
		"annual_income_band": 800000,
		"risk_tolerance": "Low",
		"preferred_premium_band": 5000
	}`
	req := httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handlers.handleQuote(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload quoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Recommendations) == 0 || len(payload.Recommendations) > 3 {
		t.Fatalf("expected 1-3 recommendations, got %d", len(payload.Recommendations))
	}
	// P1 scores 5 (premium match + Low/health), P2 scores 2 (Low/life only).
	if payload.Recommendations[0].PolicyID != "P1" {
		t.Fatalf("expected P1 ranked first, got %s", payload.Recommendations[0].PolicyID)
	}
	for _, p := range payload.Recommendations {
		if !p.Eligibility.Covers(30) {
			t.Fatalf("recommended policy %s does not cover the profile age", p.PolicyID)
		}
	}
}

func TestHandleQuoteMissingFieldRejected(t *testing.T) {
	handlers := testHandlers(testCatalog())

	body := `{"age": 30, "dependents_count": 2, "annual_income_band": 800000, "risk_tolerance": "Low"}`
	rec := httptest.NewRecorder()
	handlers.handleQuote(rec, httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(body)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "preferred_premium_band") {
		t.Fatalf("expected the missing field to be named, got %s", rec.Body.String())
	}
}

func TestHandleQuoteZeroPremiumBandRejected(t *testing.T) {
	handlers := testHandlers(testCatalog())

	body := `{
		"age": 30,
		"dependents_count": 2,
		"annual_income_band": 800000,
		"risk_tolerance": "Low",
		"preferred_premium_band": 0
	}`
	rec := httptest.NewRecorder()
	handlers.handleQuote(rec, httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(body)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestHandleQuoteMalformedBodyRejected(t *testing.T) {
	handlers := testHandlers(testCatalog())

	rec := httptest.NewRecorder()
	handlers.handleQuote(rec, httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(`{"age": "thirty"}`)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestHandleQuoteWrongMethod(t *testing.T) {
	handlers := testHandlers(testCatalog())

	rec := httptest.NewRecorder()
	handlers.handleQuote(rec, httptest.NewRequest(http.MethodGet, "/quote", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow: POST, got %q", allow)
	}
}

func TestHandleHandoff(t *testing.T) {
	handlers := testHandlers(testCatalog())

	rec := httptest.NewRecorder()
	handlers.handleHandoff(rec, httptest.NewRequest(http.MethodPost, "/handoff", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload handoffResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "success" {
		t.Fatalf("expected success status, got %s", payload.Status)
	}
	if payload.ReferenceID != "ref-fixed" {
		t.Fatalf("expected injected reference ID, got %s", payload.ReferenceID)
	}
}

func TestRouterAllowsAnyOrigin(t *testing.T) {
	handlers := testHandlers(testCatalog())
	router := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), RouterDependencies{
		API:              handlers,
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://widgets.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://widgets.example.com" {
		t.Fatalf("expected origin reflected, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials allowed")
	}
}

func TestRouterAnswersPreflight(t *testing.T) {
	handlers := testHandlers(testCatalog())
	router := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), RouterDependencies{
		API:              handlers,
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
	})

	req := httptest.NewRequest(http.MethodOptions, "/quote", nil)
	req.Header.Set("Origin", "https://widgets.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Trace-Id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-Trace-Id" {
		t.Fatalf("expected requested headers echoed, got %q", got)
	}
}
