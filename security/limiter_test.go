package security_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-authflow/security"
	"github.com/stretchr/testify/assert"
)

func TestAttemptLimiterBlocksAfterBurst(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	limiter := security.NewAttemptLimiter(3, time.Minute, 3,
		security.WithLimiterClock(func() time.Time { return clock }))

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("email:a@b.c"), "attempt %d", i)
	}
	assert.False(t, limiter.Allow("email:a@b.c"))
	assert.True(t, limiter.Allow("email:other@b.c"), "keys are independent")

	clock = now.Add(21 * time.Second)
	assert.True(t, limiter.Allow("email:a@b.c"), "one token refilled")
}

func TestAttemptLimiterReset(t *testing.T) {
	now := time.Now()
	limiter := security.NewAttemptLimiter(1, time.Hour, 1,
		security.WithLimiterClock(func() time.Time { return now }))

	assert.True(t, limiter.Allow("k"))
	assert.False(t, limiter.Allow("k"))
	limiter.Reset("k")
	assert.True(t, limiter.Allow("k"))
}

func TestAttemptLimiterDisabled(t *testing.T) {
	limiter := security.NewAttemptLimiter(0, time.Minute, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow("k"))
	}

	var nilLimiter *security.AttemptLimiter
	assert.True(t, nilLimiter.Allow("k"))
	nilLimiter.Reset("k")
}
