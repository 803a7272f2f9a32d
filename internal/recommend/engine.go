// Package recommend ranks catalog policies against a user profile. The
// engine is a pure function over its inputs: same catalog snapshot and
// profile always produce the same output.
package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/saranya/insurewise/internal/domain"
)

// DefaultTopN is the number of recommendations the quote endpoint returns.
const DefaultTopN = 3

// Recommend filters policies by age eligibility, scores the survivors
// against the profile, and returns at most topN of them ordered by score
// descending. Ties keep catalog order. Policies whose reference premium
// cannot be resolved are dropped silently.
//
// The profile's PreferredPremiumBand must be non-zero; the request layer
// enforces that before calling here.
func Recommend(policies []domain.PolicyRecord, profile domain.UserProfile, topN int) []domain.PolicyRecord {
	scored := make([]scoredPolicy, 0, len(policies))
	for _, policy := range policies {
		if !policy.Eligibility.Covers(profile.Age) {
			continue
		}
		score, ok := scorePolicy(policy, profile)
		if !ok {
			continue
		}
		scored = append(scored, scoredPolicy{policy: policy, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if topN < len(scored) {
		scored = scored[:topN]
	}

	out := make([]domain.PolicyRecord, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.policy)
	}
	return out
}

type scoredPolicy struct {
	policy domain.PolicyRecord
	score  int
}

// scorePolicy computes the integer match score for one eligible policy.
// ok is false when the policy's reference premium cannot be resolved, in
// which case the policy is excluded from ranking entirely.
func scorePolicy(policy domain.PolicyRecord, profile domain.UserProfile) (score int, ok bool) {
	ref, err := referencePremium(policy)
	if err != nil {
		return 0, false
	}

	// Premium proximity: within 20% of the preferred band scores highest.
	// An unresolvable tier key left ref at +Inf, which lands in neither
	// bucket but keeps the policy in the ranking.
	band := float64(profile.PreferredPremiumBand)
	diff := math.Abs(ref-band) / band
	switch {
	case diff < 0.2:
		score += 3
	case diff < 0.5:
		score += 1
	}

	if profile.RiskTolerance == domain.RiskToleranceLow &&
		(policy.Type == "life" || policy.Type == "health") {
		score += 2
	}
	if profile.RiskTolerance == domain.RiskToleranceHigh &&
		strings.Contains(policy.Name, "ULIP") {
		score += 3
	}

	return score, true
}

// referencePremium selects the single premium a policy is compared on.
// Flat-plan policies (no sum_insured tiers, or the [0] sentinel) use the
// first premium in the table; tiered policies use the premium keyed by
// their lowest sum_insured, falling back to +Inf when that tier is
// missing from the table.
func referencePremium(policy domain.PolicyRecord) (float64, error) {
	if isFlatPlan(policy.SumInsured) {
		return policy.PremiumYearly.First()
	}

	key := domain.TierKey(lowestTier(policy.SumInsured))
	value, present, err := policy.PremiumYearly.Premium(key)
	if err != nil {
		return 0, err
	}
	if !present {
		return math.Inf(1), nil
	}
	return value, nil
}

func isFlatPlan(sumInsured []float64) bool {
	if len(sumInsured) == 0 {
		return true
	}
	return len(sumInsured) == 1 && sumInsured[0] == 0
}

func lowestTier(sumInsured []float64) float64 {
	lowest := sumInsured[0]
	for _, v := range sumInsured[1:] {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}
