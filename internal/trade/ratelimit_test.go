package trade_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuliguang/Sidekick/internal/trade"
)

func TestRateLimiter_WaitWithoutPenalty(t *testing.T) {
	t.Parallel()

	rl := trade.NewRateLimiter(0, 0)
	for range 5 {
		require.NoError(t, rl.Wait(context.Background()))
	}
}

func TestRateLimiter_PenaltyBlocksUntilCanceled(t *testing.T) {
	t.Parallel()

	rl := trade.NewRateLimiter(100, 10)
	rl.Penalize(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "waiting out throttle")
}

func TestRateLimiter_ExpiredPenalty(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := trade.NewRateLimiter(100, 10, trade.WithRateLimiterNowFunc(func() time.Time { return now }))

	rl.Penalize(10 * time.Second)
	now = now.Add(11 * time.Second)

	require.NoError(t, rl.Wait(context.Background()))
}

func TestRateLimiter_PenaltyNeverShrinks(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := trade.NewRateLimiter(1, 1, trade.WithRateLimiterNowFunc(func() time.Time { return now }))

	rl.Penalize(time.Minute)
	rl.Penalize(time.Second)

	assert.Equal(t, now.Add(time.Minute), rl.BlockedUntil())
}

func TestRateLimiter_TokenBucketCanceled(t *testing.T) {
	t.Parallel()

	// one token per hour, burst 1: the second wait cannot be satisfied.
	rl := trade.NewRateLimiter(1.0/3600, 1)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter wait")
}
