package domain

import "errors"

// Decision is a learner's verdict on a candidate word during the
// swipe-based picking flow.
type Decision string

// Possible selection decisions.
const (
	DecisionSelect Decision = "select"
	DecisionSkip   Decision = "skip"
)

// IsValid reports whether d is a defined decision.
func (d Decision) IsValid() bool {
	return d == DecisionSelect || d == DecisionSkip
}

// Tier is the subscription level that determines the daily selection
// ceiling. Tier resolution itself is owned by the billing layer; the
// core only reads it.
type Tier string

// Subscription tiers.
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// IsValid reports whether t is a defined tier.
func (t Tier) IsValid() bool {
	return t == TierFree || t == TierPremium
}

// ErrInvalidDecision is returned when a decision value is neither
// select nor skip.
var ErrInvalidDecision = errors.New("invalid selection decision")
