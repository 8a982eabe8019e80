package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
)

const testDim = 8

func unitVec(i int) []float32 {
	v := make([]float32, testDim)
	v[i%testDim] = 1
	return v
}

func newTestProvider(primary domain.Embedder, forceLocal bool) *Provider {
	return NewProvider(ProviderConfig{
		Primary:    primary,
		Dimension:  testDim,
		Model:      "test-model",
		ForceLocal: forceLocal,
	}, zap.NewNop())
}

func TestProvider_UsesPrimary(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: unitVec(2)}}
	p := newTestProvider(inner, false)

	v, src := p.EmbedWithSource(context.Background(), "hello")
	assert.Equal(t, SourcePrimary, src)
	assert.Equal(t, domain.Vector(unitVec(2)), v)
	assert.Equal(t, SourcePrimary, p.Mode())
}

func TestProvider_ForcedLocal(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: unitVec(2)}}
	p := newTestProvider(inner, true)

	v, src := p.EmbedWithSource(context.Background(), "hello")
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, NewHashEmbedder(testDim).Vector("hello"), v)
	assert.Zero(t, inner.calls.Load())
}

func TestProvider_NoCredentialFallsBack(t *testing.T) {
	before := testutil.ToFloat64(metrics.EmbeddingFallbackTotal.WithLabelValues(reasonNoCredential))
	p := newTestProvider(nil, false)

	v := p.Embed(context.Background(), "I need a video editor")
	require.Len(t, v, testDim)
	assert.InDelta(t, 1.0, v.Norm(), 1e-6)
	assert.Equal(t, SourceLocal, p.Mode())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EmbeddingFallbackTotal.WithLabelValues(reasonNoCredential)))
}

func TestProvider_FallsBackOnEveryFailureKind(t *testing.T) {
	kinds := []domain.FailureKind{
		domain.FailureAuth, domain.FailureQuota, domain.FailureRateLimited, domain.FailureNetwork,
		domain.FailureTimeout, domain.FailureMalformed, domain.FailureUnavailable, domain.FailureCircuitOpen,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			before := testutil.ToFloat64(metrics.EmbeddingFallbackTotal.WithLabelValues(string(kind)))
			inner := &mockEmbedder{err: domain.NewUpstreamError("test", kind, errors.New("boom"))}
			core, logs := observer.New(zapcore.DebugLevel)
			p := NewProvider(ProviderConfig{Primary: inner, Dimension: testDim, Model: "test-model"}, zap.New(core))

			v, src := p.EmbedWithSource(context.Background(), "text")
			assert.Equal(t, SourceLocal, src)
			assert.Equal(t, NewHashEmbedder(testDim).Vector("text"), v)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.EmbeddingFallbackTotal.WithLabelValues(string(kind))))

			entries := logs.FilterFieldKey("failure_kind").All()
			require.Len(t, entries, 1)
			assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
			assert.Equal(t, string(kind), entries[0].ContextMap()["failure_kind"])
			assert.Equal(t, "test-model", entries[0].ContextMap()["model"])
		})
	}
}

func TestProvider_UnclassifiedErrorStillReturnsVector(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("nil pointer somewhere")}
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewProvider(ProviderConfig{Primary: inner, Dimension: testDim, Model: "test-model"}, zap.New(core))

	v, src := p.EmbedWithSource(context.Background(), "text")
	assert.Equal(t, SourceLocal, src)
	assert.Len(t, v, testDim)

	entries := logs.FilterFieldKey("failure_kind").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, string(domain.FailureInternal), entries[0].ContextMap()["failure_kind"])
}

func TestProvider_WrongDimensionIsMalformed(t *testing.T) {
	before := testutil.ToFloat64(metrics.EmbeddingFallbackTotal.WithLabelValues(string(domain.FailureMalformed)))
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}}
	p := newTestProvider(inner, false)

	v, src := p.EmbedWithSource(context.Background(), "text")
	assert.Equal(t, SourceLocal, src)
	assert.Len(t, v, testDim)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EmbeddingFallbackTotal.WithLabelValues(string(domain.FailureMalformed))))
}

func TestProvider_EmbedBatchPreservesOrder(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	inner := &mockEmbedder{embed: func(_ context.Context, text string) (domain.EmbeddingResult, error) {
		mu.Lock()
		seen[text] = true
		mu.Unlock()
		var i int
		_, _ = fmt.Sscanf(text, "t%d", &i)
		return domain.EmbeddingResult{Embedding: unitVec(i)}, nil
	}}
	p := newTestProvider(inner, false)

	texts := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}
	vecs, err := p.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		assert.Equal(t, domain.Vector(unitVec(i)), v, "index %d", i)
	}
	assert.Len(t, seen, len(texts))
}

func TestProvider_EmbedBatchCancelled(t *testing.T) {
	p := newTestProvider(nil, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.EmbedBatch(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_HealthCheck(t *testing.T) {
	down := errors.New("down")
	p := newTestProvider(&healthEmbedder{healthErr: down}, false)
	assert.ErrorIs(t, p.HealthCheck(context.Background()), down)

	p = newTestProvider(&healthEmbedder{healthErr: down}, true)
	assert.NoError(t, p.HealthCheck(context.Background()))
}
