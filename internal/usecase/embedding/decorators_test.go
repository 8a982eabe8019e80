package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/resilience"
)

func TestRateLimitedEmbedder_PassesThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	r := NewRateLimitedEmbedder(inner, 100, 1)

	res, err := r.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, res.Embedding)
}

func TestRateLimitedEmbedder_DeadlineIsRateLimited(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	r := NewRateLimitedEmbedder(inner, 0.01, 1)

	_, err := r.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Embed(ctx, "second")
	assert.Equal(t, domain.FailureRateLimited, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.EqualValues(t, 1, inner.calls.Load())
}

func TestBreakerEmbedder_OpensAndShortCircuits(t *testing.T) {
	inner := &mockEmbedder{err: domain.NewUpstreamError("test", domain.FailureUnavailable, errors.New("503"))}
	b := NewBreakerEmbedder(inner, "test-breaker", resilience.BreakerOpts{FailThreshold: 2, Timeout: time.Hour})
	ctx := context.Background()

	for range 2 {
		_, err := b.Embed(ctx, "x")
		assert.Equal(t, domain.FailureUnavailable, domain.KindOf(err))
	}
	require.Equal(t, resilience.StateOpen, b.State())

	_, err := b.Embed(ctx, "x")
	assert.Equal(t, domain.FailureCircuitOpen, domain.KindOf(err))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestBreakerEmbedder_CancellationDoesNotTrip(t *testing.T) {
	inner := &mockEmbedder{err: context.Canceled}
	b := NewBreakerEmbedder(inner, "test-breaker-cancel", resilience.BreakerOpts{FailThreshold: 1})

	_, err := b.Embed(context.Background(), "x")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, resilience.StateClosed, b.State())
}
