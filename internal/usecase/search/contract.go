package search

import (
	"context"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
)

// Gateway is the vector index contract implemented by every index driver.
type Gateway interface {
	EnsureIndex(ctx context.Context, dim int) (domain.IndexHandle, error)
	Query(ctx context.Context, h domain.IndexHandle, vec domain.Vector, topK int, f filter.Filter) ([]domain.SearchHit, error)
	Upsert(ctx context.Context, h domain.IndexHandle, records []domain.IndexRecord) (int, error)
}

// Embedder vectorizes query text. Embed never fails; it falls back locally.
type Embedder interface {
	Embed(ctx context.Context, text string) domain.Vector
	Dimension() int
}
