package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_AllowsWithinBurst(t *testing.T) {
	limiter := New(Config{RequestsPerSecond: 100, BurstSize: 5})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
}

func TestAllow_BlockedDuringBackoff(t *testing.T) {
	limiter := New(Config{RequestsPerSecond: 100, BurstSize: 5})
	assert.True(t, limiter.Allow())

	limiter.RecordRateLimitError(30)
	assert.False(t, limiter.Allow())
}

func TestWait_RespectsContextDuringBackoff(t *testing.T) {
	limiter := New(Config{RequestsPerSecond: 100, BurstSize: 5})
	limiter.RecordRateLimitError(60)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_DefaultsZeroConfig(t *testing.T) {
	limiter := New(Config{})
	assert.True(t, limiter.Allow())
}
