// Package generator synthesises policy catalogs for load and manual
// testing. Generation is deterministic for a fixed seed.
package generator

import (
	"fmt"
	"math/rand"

	"github.com/saranya/insurewise/internal/domain"
)

// Config drives the synthetic catalog generator.
type Config struct {
	NumPolicies int
	Seed        int64
}

// DefaultConfig returns baseline settings producing a small varied catalog.
func DefaultConfig() Config {
	return Config{
		NumPolicies: 12,
		Seed:        42,
	}
}

// Generator produces synthetic policy records aligned with the catalog schema.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.NumPolicies <= 0 {
		cfg.NumPolicies = DefaultConfig().NumPolicies
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultConfig().Seed
	}
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

type template struct {
	policyType  string
	namePattern string
	description string
	flatPlan    bool
	minAge      int
	maxAge      int
	baseTier    float64
	basePremium float64
	exclusions  []string
	riders      []any
}

var templates = []template{
	{
		policyType:  "life",
		namePattern: "SecureLife Term Plan %s",
		description: "Pure protection term life cover with level premiums.",
		minAge:      18, maxAge: 65,
		baseTier: 2500000, basePremium: 6000,
		exclusions: []string{"Death by suicide within 12 months", "Undisclosed pre-existing illness"},
		riders:     []any{"Accidental Death Benefit", "Waiver of Premium"},
	},
	{
		policyType:  "health",
		namePattern: "MediShield Family Floater %s",
		description: "Cashless hospitalisation cover for the whole family.",
		minAge:      18, maxAge: 70,
		baseTier: 300000, basePremium: 8000,
		exclusions: []string{"Cosmetic procedures", "Pre-existing conditions for 36 months"},
		riders:     []any{"Maternity Cover", "Critical Illness"},
	},
	{
		policyType:  "investment",
		namePattern: "WealthMax ULIP Growth %s",
		description: "Market-linked plan combining life cover with equity funds.",
		minAge:      18, maxAge: 60,
		baseTier: 1000000, basePremium: 24000,
		exclusions: []string{"Partial withdrawal within 5 years"},
		riders:     []any{"Fund Switch Pack"},
	},
	{
		policyType:  "motor",
		namePattern: "DriveSafe Motor Comprehensive %s",
		description: "Own-damage and third-party cover priced as a flat plan.",
		flatPlan:    true,
		minAge:      18, maxAge: 75,
		basePremium: 5500,
		exclusions:  []string{"Driving without a valid licence", "Consequential mechanical failure"},
		riders:      []any{"Zero Depreciation", "Roadside Assistance"},
	},
	{
		policyType:  "accident",
		namePattern: "Guardian Personal Accident %s",
		description: "Fixed-benefit cover for accidental death and disability.",
		minAge:      18, maxAge: 70,
		baseTier: 500000, basePremium: 1500,
		exclusions: []string{"Self-inflicted injury", "Adventure sports"},
		riders:     []any{"Hospital Cash"},
	},
}

var editions = []string{"Silver", "Gold", "Platinum", "Prime", "Elite", "Plus"}

// Generate synthesises the configured number of policy records.
func (g *Generator) Generate() []domain.PolicyRecord {
	policies := make([]domain.PolicyRecord, g.cfg.NumPolicies)
	for i := range policies {
		tpl := templates[i%len(templates)]
		edition := editions[g.rand.Intn(len(editions))]

		record := domain.PolicyRecord{
			PolicyID:    fmt.Sprintf("POL-%04d", i+1),
			Name:        fmt.Sprintf(tpl.namePattern, edition),
			Type:        tpl.policyType,
			Description: tpl.description,
			Eligibility: domain.Eligibility{
				MinAge: intPtr(tpl.minAge),
				MaxAge: intPtr(tpl.maxAge),
			},
			Exclusions: append([]string(nil), tpl.exclusions...),
			Riders:     append([]any(nil), tpl.riders...),
		}

		if tpl.flatPlan {
			record.SumInsured = []float64{0}
			record.PremiumYearly = domain.NewPremiumTable(domain.PremiumEntry{
				Key:     "flat",
				Premium: g.jitterPremium(tpl.basePremium),
			})
		} else {
			tiers, entries := g.tieredPremiums(tpl)
			record.SumInsured = tiers
			record.PremiumYearly = domain.NewPremiumTable(entries...)
		}

		policies[i] = record
	}
	return policies
}

// tieredPremiums builds 2-4 coverage tiers with premiums scaling
// sublinearly in the sum insured.
func (g *Generator) tieredPremiums(tpl template) ([]float64, []domain.PremiumEntry) {
	numTiers := 2 + g.rand.Intn(3)
	tiers := make([]float64, 0, numTiers)
	entries := make([]domain.PremiumEntry, 0, numTiers)

	for i := 0; i < numTiers; i++ {
		multiplier := float64(uint(1) << uint(i))
		tier := tpl.baseTier * multiplier
		premium := g.jitterPremium(tpl.basePremium * (1 + 0.7*float64(i)))
		tiers = append(tiers, tier)
		entries = append(entries, domain.PremiumEntry{
			Key:     domain.TierKey(tier),
			Premium: premium,
		})
	}
	return tiers, entries
}

// jitterPremium perturbs a base premium by up to ±15% and rounds to a
// whole rupee amount.
func (g *Generator) jitterPremium(base float64) float64 {
	factor := 0.85 + 0.3*g.rand.Float64()
	return float64(int(base * factor))
}

func intPtr(v int) *int { return &v }
