// Package plans provides the caller identity and plan-based generation quotas.
package plans

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

// Plan tiers. The identity provider supplies the tier as an opaque string.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// LimitReachedMessage is the error string the front-end matches to show the upgrade prompt.
const LimitReachedMessage = "Limite atteinte"

// Unlimited marks a quota without a ceiling.
const Unlimited = -1

// Identity is the read-only view of the authenticated caller.
type Identity struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// LimitReachedError reports an exhausted quota.
type LimitReachedError struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
}

func (e *LimitReachedError) Error() string {
	return fmt.Sprintf("%s: %d/%d", LimitReachedMessage, e.Current, e.Limit)
}

// Limits maps plan tiers to monthly generation quotas per document kind.
type Limits map[string]map[types.Kind]int

// DefaultLimits returns the built-in quotas. Unknown plans fall back to the free tier.
func DefaultLimits() Limits {
	return Limits{
		PlanFree:    {types.KindCV: 3, types.KindLetter: 3},
		PlanPremium: {types.KindCV: Unlimited, types.KindLetter: Unlimited},
	}
}

// Limit returns the quota for plan and kind.
func (l Limits) Limit(plan string, kind types.Kind) int {
	tier, ok := l[plan]
	if !ok {
		tier = l[PlanFree]
	}
	if n, ok := tier[kind]; ok {
		return n
	}
	return 0
}

// UsageCounter counts generations already performed.
type UsageCounter interface {
	CountGenerations(ctx context.Context, userID string, kind types.Kind, since time.Time) (int, error)
}

// Gate checks quotas before a generation.
type Gate struct {
	limits  Limits
	counter UsageCounter
	now     func() time.Time
}

// NewGate returns a Gate using limits and counter.
func NewGate(limits Limits, counter UsageCounter) *Gate {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Gate{limits: limits, counter: counter, now: time.Now}
}

// Check returns a *LimitReachedError when id has used its monthly quota for kind.
func (g *Gate) Check(ctx context.Context, id Identity, kind types.Kind) error {
	limit := g.limits.Limit(id.Plan, kind)
	if limit == Unlimited {
		return nil
	}

	used, err := g.counter.CountGenerations(ctx, id.UserID, kind, storage.StartOfMonth(g.now()))
	if err != nil {
		return fmt.Errorf("failed to count generations: %w", err)
	}
	if used >= limit {
		return &LimitReachedError{Current: used, Limit: limit}
	}
	return nil
}
