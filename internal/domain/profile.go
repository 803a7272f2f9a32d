package domain

// Risk tolerance values that carry a scoring bonus. Any other value is
// accepted but yields no bonus.
const (
	RiskToleranceLow  = "Low"
	RiskToleranceHigh = "High"
)

// UserProfile is a quote request payload after validation. Profiles are
// per-request and never stored.
type UserProfile struct {
	Age                  int      `json:"age"`
	DependentsCount      int      `json:"dependents_count"`
	AnnualIncomeBand     int      `json:"annual_income_band"`
	RiskTolerance        string   `json:"risk_tolerance"`
	PreferredPremiumBand int      `json:"preferred_premium_band"`
	VehicleType          string   `json:"vehicle_type,omitempty"`
	HealthFlags          []string `json:"health_flags,omitempty"`
}
