package hfit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewRateLimiter_Burst(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "token %d", i)
	}
	assert.False(t, limiter.Allow())
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{})
	assert.Equal(t, 60, limiter.Burst())
	assert.Equal(t, rate.Every(time.Second), limiter.Limit())

	limiter = NewRateLimiter(RateLimitConfig{RequestsPerMinute: 120})
	assert.Equal(t, 120, limiter.Burst())
}

func TestNewRateLimiter_Refill(t *testing.T) {
	// 6000 per minute is one token every 10ms.
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 6000, BurstSize: 1})

	require.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, limiter.Allow())
}

type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) Translate(_ context.Context, req TranslateRequest) ([]string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return req.Texts, nil
}

func TestRateLimitedProvider(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, RateLimitConfig{RequestsPerMinute: 6000, BurstSize: 2})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})
			assert.NoError(t, err)
			assert.Equal(t, []string{"a"}, out)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, inner.calls)
	assert.NotNil(t, p.Limiter())
}

func TestRateLimitedProvider_ContextCancelled(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1})
	require.True(t, p.Limiter().Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Translate(ctx, TranslateRequest{Texts: []string{"a"}})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Retryable)
	assert.Zero(t, inner.calls)
}
