package embedding

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
	"github.com/spacetwo/spacetwo-chat/internal/resilience"
)

// RateLimitedEmbedder bounds the request rate towards the upstream.
// Waiting is bounded by the caller's context; a wait that cannot finish in time
// fails with FailureRateLimited.
type RateLimitedEmbedder struct {
	inner   domain.Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder wraps inner with a token bucket of rps and burst.
func NewRateLimitedEmbedder(inner domain.Embedder, rps float64, burst int) *RateLimitedEmbedder {
	return &RateLimitedEmbedder{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), max(burst, 1))}
}

// Embed implements domain.Embedder.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.EmbeddingResult{}, domain.NewUpstreamError("embedding.rate_limit", domain.FailureRateLimited,
			fmt.Errorf("%w: %v", domain.ErrRateLimited, err))
	}
	return r.inner.Embed(ctx, text)
}

// BreakerEmbedder short-circuits calls while the upstream keeps failing.
type BreakerEmbedder struct {
	inner   domain.Embedder
	breaker *resilience.Breaker
}

// NewBreakerEmbedder wraps inner with a circuit breaker. Caller cancellations do not count as failures.
func NewBreakerEmbedder(inner domain.Embedder, provider string, opts resilience.BreakerOpts) *BreakerEmbedder {
	opts.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	opts.OnStateChange = func(s resilience.State) {
		metrics.EmbeddingCircuitState.WithLabelValues(provider).Set(float64(s))
	}
	return &BreakerEmbedder{inner: inner, breaker: resilience.NewBreaker(opts)}
}

// State returns the breaker state.
func (b *BreakerEmbedder) State() resilience.State { return b.breaker.State() }

// Embed implements domain.Embedder.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res := resilience.CallResult(ctx, b.breaker, func(ctx context.Context) domain.Result[domain.EmbeddingResult] {
		return domain.FromPair(b.inner.Embed(ctx, text))
	})
	if res.Kind() == domain.FailureCircuitOpen {
		return domain.EmbeddingResult{}, domain.NewUpstreamError("embedding.breaker", domain.FailureCircuitOpen, res.Err())
	}
	return res.Unwrap()
}
