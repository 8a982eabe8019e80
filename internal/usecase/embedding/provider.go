// Package embedding turns text into vectors. The Provider always returns a vector:
// upstream failures are classified, logged and answered by the local hash embedder.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
)

// Source names the embedder that produced a vector.
type Source string

// Embedding sources.
const (
	SourcePrimary Source = "primary"
	SourceLocal   Source = "local"
)

// Fallback reasons that are not upstream failure kinds.
const (
	reasonConfigured   = "configured"
	reasonNoCredential = "no_credential"
)

// DefaultBatchConcurrency caps concurrent upstream calls in EmbedBatch.
const DefaultBatchConcurrency = 8

// Provider selects between the upstream embedder and the local hash embedder.
type Provider struct {
	primary     domain.Embedder
	local       *HashEmbedder
	forceLocal  bool
	dim         int
	model       string
	concurrency int
	logger      *zap.Logger
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// Primary is the decorated upstream embedder; nil means no credential is configured.
	Primary domain.Embedder
	// Dimension is the vector length every returned vector has.
	Dimension int
	// Model labels log lines.
	Model string
	// ForceLocal selects the local embedder unconditionally.
	ForceLocal bool
	// Concurrency bounds EmbedBatch; zero uses DefaultBatchConcurrency.
	Concurrency int
}

// NewProvider creates an embedding provider.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) *Provider {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultBatchConcurrency
	}
	return &Provider{
		primary:     cfg.Primary,
		local:       NewHashEmbedder(cfg.Dimension),
		forceLocal:  cfg.ForceLocal,
		dim:         cfg.Dimension,
		model:       cfg.Model,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
}

// Dimension returns the vector length.
func (p *Provider) Dimension() int { return p.dim }

// Mode reports which embedder new requests start with.
func (p *Provider) Mode() Source {
	if p.forceLocal || p.primary == nil {
		return SourceLocal
	}
	return SourcePrimary
}

// Embed returns the vector for text. It never fails.
func (p *Provider) Embed(ctx context.Context, text string) domain.Vector {
	v, _ := p.EmbedWithSource(ctx, text)
	return v
}

// EmbedWithSource is Embed that also reports which embedder produced the vector.
func (p *Provider) EmbedWithSource(ctx context.Context, text string) (domain.Vector, Source) {
	switch {
	case p.forceLocal:
		return p.fallback(reasonConfigured, text), SourceLocal
	case p.primary == nil:
		return p.fallback(reasonNoCredential, text), SourceLocal
	}

	res := p.callPrimary(ctx, text)
	if res.IsOk() {
		return res.UnwrapOr(nil), SourcePrimary
	}

	kind := res.Kind()
	fields := []zap.Field{
		zap.String("failure_kind", string(kind)),
		zap.String("model", p.model),
		zap.Error(res.Err()),
	}
	if kind == domain.FailureInternal {
		p.logger.Error("Embedding failed with unclassified error, using local fallback", fields...)
	} else {
		p.logger.Warn("Embedding upstream failed, using local fallback", fields...)
	}
	return p.fallback(string(kind), text), SourceLocal
}

// callPrimary runs the upstream embedder and enforces the configured dimension.
func (p *Provider) callPrimary(ctx context.Context, text string) domain.Result[domain.Vector] {
	r, err := p.primary.Embed(ctx, text)
	if err != nil {
		return domain.Fail[domain.Vector](domain.KindOf(err), err)
	}
	v := domain.Vector(r.Embedding)
	if err := v.CheckDim(p.dim); err != nil {
		return domain.Fail[domain.Vector](domain.FailureMalformed, fmt.Errorf("upstream vector: %w", err))
	}
	return domain.Ok(v)
}

// EmbedBatch embeds texts concurrently and returns vectors in input order.
// It fails only when ctx is done before all vectors are produced.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.Embed(gctx, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	return out, nil
}

// HealthCheck probes the upstream when one is configured and selected.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.Mode() == SourceLocal {
		return nil
	}
	hc, ok := p.primary.(domain.HealthChecker)
	if !ok {
		return nil
	}
	return hc.HealthCheck(ctx)
}

func (p *Provider) fallback(reason, text string) domain.Vector {
	metrics.EmbeddingFallbackTotal.WithLabelValues(reason).Inc()
	return p.local.Vector(text)
}
