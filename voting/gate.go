package voting

import (
	"context"
	"sync"
	"time"

	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
)

// Endpoint classes with independent rate-limit thresholds.
const (
	ClassVote         = "vote"
	ClassAuth         = "auth"
	ClassRegistration = "registration"
	ClassDefault      = "default"
)

type RateLimit struct {
	Requests int64
	Window   time.Duration
}

// DefaultRateLimits mirror the thresholds the platform has always run
// with: 10 votes/min, 5 auth attempts/5min, 3 registrations/hour,
// 60 requests/min otherwise.
func DefaultRateLimits() map[string]RateLimit {
	return map[string]RateLimit{
		ClassVote:         {Requests: 10, Window: time.Minute},
		ClassAuth:         {Requests: 5, Window: 5 * time.Minute},
		ClassRegistration: {Requests: 3, Window: time.Hour},
		ClassDefault:      {Requests: 60, Window: time.Minute},
	}
}

type GateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
	// Degraded marks decisions taken on the in-process fallback counter,
	// which is per-process rather than cluster-wide.
	Degraded bool
}

// SecurityGate enforces per-(client, endpoint class) sliding counters
// against a shared store. When the store is unavailable it degrades to an
// in-process counter instead of failing the request or failing open.
type SecurityGate struct {
	store  storage.RateLimitStorage
	limits map[string]RateLimit

	mu       sync.Mutex
	fallback map[string]*fallbackWindow
}

type fallbackWindow struct {
	count   int64
	resetAt time.Time
}

func NewSecurityGate(store storage.RateLimitStorage, limits map[string]RateLimit) *SecurityGate {
	if limits == nil {
		limits = DefaultRateLimits()
	}
	return &SecurityGate{
		store:    store,
		limits:   limits,
		fallback: make(map[string]*fallbackWindow),
	}
}

// Allow checks and consumes one request for the client in the given class.
func (g *SecurityGate) Allow(ctx context.Context, client, class string) GateDecision {
	limit, ok := g.limits[class]
	if !ok {
		limit = g.limits[ClassDefault]
	}

	key := class + "#" + client
	count, err := g.store.Increment(ctx, key, limit.Window)
	if err != nil {
		logging.Log.Warnf("GATE: rate-limit store unavailable, using in-process fallback: %v", err)
		return g.allowFallback(key, limit)
	}

	if count > limit.Requests {
		return GateDecision{Allowed: false, RetryAfter: limit.Window}
	}
	return GateDecision{Allowed: true}
}

func (g *SecurityGate) allowFallback(key string, limit RateLimit) GateDecision {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for k, win := range g.fallback {
		if now.After(win.resetAt) {
			delete(g.fallback, k)
		}
	}

	w, ok := g.fallback[key]
	if !ok {
		w = &fallbackWindow{resetAt: now.Add(limit.Window)}
		g.fallback[key] = w
	}
	w.count++

	if w.count > limit.Requests {
		return GateDecision{Allowed: false, RetryAfter: time.Until(w.resetAt), Degraded: true}
	}
	return GateDecision{Allowed: true, Degraded: true}
}
