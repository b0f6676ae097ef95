package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := New(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(), "request %d should be allowed", i+1)
	}

	assert.False(t, limiter.Allow(), "request 6 should be blocked")
}

func TestRateLimiter_Wait(t *testing.T) {
	limiter := New(5, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		err := limiter.Wait(context.Background())
		assert.NoError(t, err)
	}
}

func TestRateLimiter_Wait_ContextCancellation(t *testing.T) {
	limiter := New(1, time.Second)

	err := limiter.Wait(context.Background())
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = limiter.Wait(ctx)
	assert.Error(t, err)
}

func TestRateLimiter_WaitN_Weight(t *testing.T) {
	limiter := New(10, time.Minute)

	assert.NoError(t, limiter.WaitN(context.Background(), 4))
	assert.NoError(t, limiter.WaitN(context.Background(), 0))

	snap := limiter.Metrics()
	assert.Equal(t, int64(2), snap.AllowedRequests)
	assert.Equal(t, int64(5), snap.ConsumedWeight)
}

func TestRateLimiter_WaitN_ClampsToBurst(t *testing.T) {
	limiter := New(3, time.Second)

	assert.NoError(t, limiter.WaitN(context.Background(), 50))
	assert.Equal(t, int64(3), limiter.Metrics().ConsumedWeight)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := New(100, time.Second)

	var wg sync.WaitGroup
	results := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- limiter.Allow()
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}

	assert.GreaterOrEqual(t, allowed, 100)
	assert.Less(t, allowed, 200)
	assert.Equal(t, int64(200), limiter.Metrics().TotalRequests)
}
