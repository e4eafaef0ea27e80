package selection

import (
	"context"
	"time"

	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// QuotaPolicy resolves the daily selection allowance. Day rollover and
// tier resolution are externally owned; the flow only compares count
// against ceiling.
type QuotaPolicy interface {
	// CurrentCount returns how many selections the learner has made
	// during the current calendar day.
	CurrentCount(ctx context.Context, tier domain.Tier) (int, error)

	// Ceiling returns the tier's daily selection limit.
	Ceiling(tier domain.Tier) int
}

// Ceilings holds the per-tier daily limits.
type Ceilings struct {
	Free    int
	Premium int
}

// DefaultCeilings are the production limits.
var DefaultCeilings = Ceilings{
	Free:    15,
	Premium: 200,
}

// StoreQuotaPolicy implements QuotaPolicy on top of the selection
// store, counting select decisions since the start of the current
// calendar day as reported by the injected clock.
type StoreQuotaPolicy struct {
	selections store.SelectionStore
	ceilings   Ceilings
	now        func() time.Time
}

// NewStoreQuotaPolicy creates a quota policy backed by the selection
// store. A nil clock defaults to time.Now in UTC.
func NewStoreQuotaPolicy(
	selections store.SelectionStore,
	ceilings Ceilings,
	now func() time.Time,
) *StoreQuotaPolicy {
	if selections == nil {
		panic("selections cannot be nil")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if ceilings.Free <= 0 {
		ceilings.Free = DefaultCeilings.Free
	}
	if ceilings.Premium <= 0 {
		ceilings.Premium = DefaultCeilings.Premium
	}
	return &StoreQuotaPolicy{
		selections: selections,
		ceilings:   ceilings,
		now:        now,
	}
}

var _ QuotaPolicy = (*StoreQuotaPolicy)(nil)

// CurrentCount implements QuotaPolicy.CurrentCount.
func (p *StoreQuotaPolicy) CurrentCount(ctx context.Context, tier domain.Tier) (int, error) {
	now := p.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return p.selections.CountSelected(ctx, dayStart)
}

// Ceiling implements QuotaPolicy.Ceiling.
func (p *StoreQuotaPolicy) Ceiling(tier domain.Tier) int {
	if tier == domain.TierPremium {
		return p.ceilings.Premium
	}
	return p.ceilings.Free
}
