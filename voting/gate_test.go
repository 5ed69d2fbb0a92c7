package voting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage/memorystore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type erroringRateLimitStore struct{}

func (erroringRateLimitStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store unavailable")
}

func TestSecurityGate(t *testing.T) {
	logging.Log = logrus.New()

	t.Run("Vote class allows 10 then denies", func(t *testing.T) {
		gate := NewSecurityGate(memorystore.NewRateLimitStore(), nil)

		for i := 0; i < 10; i++ {
			decision := gate.Allow(context.Background(), "voter-1", ClassVote)
			assert.True(t, decision.Allowed, "request %d should pass", i+1)
		}

		decision := gate.Allow(context.Background(), "voter-1", ClassVote)
		assert.False(t, decision.Allowed)
		assert.Greater(t, decision.RetryAfter, time.Duration(0))
	})

	t.Run("Clients are counted independently", func(t *testing.T) {
		gate := NewSecurityGate(memorystore.NewRateLimitStore(), nil)

		for i := 0; i < 10; i++ {
			gate.Allow(context.Background(), "voter-1", ClassVote)
		}
		assert.False(t, gate.Allow(context.Background(), "voter-1", ClassVote).Allowed)
		assert.True(t, gate.Allow(context.Background(), "voter-2", ClassVote).Allowed)
	})

	t.Run("Classes are counted independently", func(t *testing.T) {
		gate := NewSecurityGate(memorystore.NewRateLimitStore(), nil)

		for i := 0; i < 5; i++ {
			gate.Allow(context.Background(), "voter-1", ClassAuth)
		}
		assert.False(t, gate.Allow(context.Background(), "voter-1", ClassAuth).Allowed)
		assert.True(t, gate.Allow(context.Background(), "voter-1", ClassVote).Allowed)
	})

	t.Run("Unknown class uses the default limit", func(t *testing.T) {
		gate := NewSecurityGate(memorystore.NewRateLimitStore(), nil)

		for i := 0; i < 60; i++ {
			assert.True(t, gate.Allow(context.Background(), "voter-1", "mystery").Allowed)
		}
		assert.False(t, gate.Allow(context.Background(), "voter-1", "mystery").Allowed)
	})

	t.Run("Store failure degrades to in-process counting, not fail-open", func(t *testing.T) {
		gate := NewSecurityGate(erroringRateLimitStore{}, nil)

		for i := 0; i < 10; i++ {
			decision := gate.Allow(context.Background(), "voter-1", ClassVote)
			assert.True(t, decision.Allowed)
			assert.True(t, decision.Degraded)
		}

		decision := gate.Allow(context.Background(), "voter-1", ClassVote)
		assert.False(t, decision.Allowed)
		assert.True(t, decision.Degraded)
	})

	t.Run("Fallback evicts expired windows", func(t *testing.T) {
		gate := NewSecurityGate(erroringRateLimitStore{}, map[string]RateLimit{
			ClassVote:    {Requests: 5, Window: 10 * time.Millisecond},
			ClassDefault: {Requests: 5, Window: 10 * time.Millisecond},
		})

		for i := 0; i < 20; i++ {
			gate.Allow(context.Background(), "voter-"+string(rune('a'+i)), ClassVote)
		}
		time.Sleep(20 * time.Millisecond)

		// The next insert prunes every expired window instead of letting
		// them pile up for the life of the outage.
		gate.Allow(context.Background(), "voter-z", ClassVote)

		gate.mu.Lock()
		remaining := len(gate.fallback)
		gate.mu.Unlock()
		assert.Equal(t, 1, remaining)
	})

	t.Run("Custom limits override the defaults", func(t *testing.T) {
		gate := NewSecurityGate(memorystore.NewRateLimitStore(), map[string]RateLimit{
			ClassVote:    {Requests: 2, Window: time.Minute},
			ClassDefault: {Requests: 1, Window: time.Minute},
		})

		assert.True(t, gate.Allow(context.Background(), "voter-1", ClassVote).Allowed)
		assert.True(t, gate.Allow(context.Background(), "voter-1", ClassVote).Allowed)
		assert.False(t, gate.Allow(context.Background(), "voter-1", ClassVote).Allowed)
	})
}
