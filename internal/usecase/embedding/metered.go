package embedding

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
)

// BudgetChecker gates upstream calls on a token budget.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// MeteredEmbedder charges upstream calls against a token budget and traces them.
// Request counters and latency live in transport/openai.
type MeteredEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	budget   BudgetChecker
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewMeteredEmbedder wraps inner. A nil budget only traces.
func NewMeteredEmbedder(inner domain.Embedder, provider, model string, budget BudgetChecker, logger *zap.Logger) *MeteredEmbedder {
	return &MeteredEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		tracer:   otel.Tracer("spacetwo-chat/embedding"),
		logger:   logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// Embed refuses up front when the budget rejects, otherwise calls inner and charges the tokens it reports.
func (m *MeteredEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, span := m.tracer.Start(ctx, "embedding.Upstream", trace.WithAttributes(
		attribute.String("embedding.provider", m.provider),
		attribute.String("embedding.model", m.model),
		attribute.Int("embedding.input_chars", len(text)),
	))
	defer span.End()

	if m.budget != nil {
		if err := m.budget.Check(ctx); err != nil {
			span.SetStatus(codes.Error, "budget exhausted")
			return domain.EmbeddingResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := m.inner.Embed(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		kind := domain.KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		m.logger.Debug("Upstream embedding failed",
			zap.String("failure_kind", string(kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	span.SetAttributes(attribute.Int("embedding.total_tokens", res.TotalTokens))
	m.charge(res.TotalTokens)

	m.logger.Debug("Upstream embedding done",
		zap.Duration("elapsed", elapsed),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

func (m *MeteredEmbedder) charge(tokens int) {
	if m.budget == nil || tokens <= 0 {
		return
	}
	m.budget.Record(int64(tokens))
	g := metrics.EmbeddingBudgetTokensRemaining
	g.WithLabelValues(m.provider, "daily").Set(float64(m.budget.RemainingDaily()))
	g.WithLabelValues(m.provider, "monthly").Set(float64(m.budget.RemainingMonthly()))
}
