package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
)

func TestMeteredEmbedder_PassesThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 7}}
	m := NewMeteredEmbedder(inner, "metered-pass", "m", nil, zap.NewNop())

	res, err := m.Embed(context.Background(), "lo-fi editor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 7 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestMeteredEmbedder_KeepsFailureKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.FailureKind
	}{
		{"auth", domain.NewUpstreamError("embed", domain.FailureAuth, errors.New("bad key")), domain.FailureAuth},
		{"timeout", context.DeadlineExceeded, domain.FailureTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeteredEmbedder(&mockEmbedder{err: tt.err}, "metered-kind", "m", nil, zap.NewNop())
			_, err := m.Embed(context.Background(), "x")
			if got := domain.KindOf(err); got != tt.want {
				t.Errorf("kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMeteredEmbedder_BudgetRejectsBeforeUpstream(t *testing.T) {
	budget := NewBudgetTracker("metered-reject", 100, 0, BudgetActionReject, zap.NewNop())
	budget.Record(100)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	m := NewMeteredEmbedder(inner, "metered-reject", "m", budget, zap.NewNop())

	_, err := m.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
	if domain.KindOf(err) != domain.FailureQuota {
		t.Errorf("kind = %q, want quota", domain.KindOf(err))
	}
	if inner.calls.Load() != 0 {
		t.Error("upstream must not be called once the budget is spent")
	}
}

func TestMeteredEmbedder_ChargesBudget(t *testing.T) {
	budget := NewBudgetTracker("metered-charge", 1000, 5000, BudgetActionReject, zap.NewNop())
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 400}}
	m := NewMeteredEmbedder(inner, "metered-charge", "m", budget, zap.NewNop())

	if _, err := m.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := budget.RemainingDaily(); got != 600 {
		t.Errorf("daily remaining = %d, want 600", got)
	}
	if got := budget.RemainingMonthly(); got != 4600 {
		t.Errorf("monthly remaining = %d, want 4600", got)
	}
	g := metrics.EmbeddingBudgetTokensRemaining.WithLabelValues("metered-charge", "daily")
	if v := testutil.ToFloat64(g); v != 600 {
		t.Errorf("daily gauge = %v, want 600", v)
	}
}

func TestMeteredEmbedder_ZeroTokensNotCharged(t *testing.T) {
	budget := NewBudgetTracker("metered-zero", 1000, 0, BudgetActionWarn, zap.NewNop())
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	m := NewMeteredEmbedder(inner, "metered-zero", "m", budget, zap.NewNop())

	if _, err := m.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := budget.RemainingDaily(); got != 1000 {
		t.Errorf("daily remaining = %d, want 1000", got)
	}
}
