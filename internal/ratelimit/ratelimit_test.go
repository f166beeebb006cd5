package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRateLimiterClampsInvertedBounds(t *testing.T) {
	r := NewSimpleRateLimiter(20*time.Second, 5*time.Second)

	// A min above max must not blow up the jitter calculation.
	delay := r.calculateDelay()
	assert.Equal(t, 20*time.Second, delay)

	r.SetDelay(10*time.Second, time.Second)
	assert.Equal(t, 10*time.Second, r.calculateDelay())
}

func TestSimpleRateLimiterDelayWithinBounds(t *testing.T) {
	r := NewSimpleRateLimiter(100*time.Millisecond, 300*time.Millisecond)

	for i := 0; i < 20; i++ {
		delay := r.calculateDelay()
		assert.GreaterOrEqual(t, delay, 100*time.Millisecond)
		assert.Less(t, delay, 300*time.Millisecond)
	}
}

func TestSimpleRateLimiterFirstCallImmediate(t *testing.T) {
	r := NewSimpleRateLimiter(time.Minute, time.Minute)

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSimpleRateLimiterWaitHonorsContext(t *testing.T) {
	r := NewSimpleRateLimiter(time.Minute, time.Minute)
	require.NoError(t, r.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdaptiveRateLimiterBacksOffAfterErrors(t *testing.T) {
	a := NewAdaptiveRateLimiter(10*time.Second, 20*time.Second)

	for i := 0; i < 3; i++ {
		a.RecordError()
	}

	assert.Equal(t, 15*time.Second, a.minDelay)
	assert.Equal(t, 30*time.Second, a.maxDelay)
}

func TestAdaptiveRateLimiterSpeedsUpAfterSuccess(t *testing.T) {
	a := NewAdaptiveRateLimiter(10*time.Second, 20*time.Second)

	for i := 0; i < 6; i++ {
		a.RecordSuccess()
	}

	assert.Equal(t, 9*time.Second, a.minDelay)
}

func TestAdaptiveRateLimiterSuccessResetsErrorStreak(t *testing.T) {
	a := NewAdaptiveRateLimiter(10*time.Second, 20*time.Second)

	a.RecordError()
	a.RecordError()
	a.RecordSuccess()
	a.RecordError()
	a.RecordError()

	// The streak never reached three consecutive errors.
	assert.Equal(t, 10*time.Second, a.minDelay)
}

func TestAdaptiveRateLimiterImplementsRecorder(t *testing.T) {
	var _ Recorder = NewAdaptiveRateLimiter(time.Second, 2*time.Second)
	var _ RateLimiter = NewAdaptiveRateLimiter(time.Second, 2*time.Second)
}
