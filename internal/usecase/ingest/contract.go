package ingest

import (
	"context"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
)

// Indexer writes records to the vector index in one call.
type Indexer interface {
	Upsert(ctx context.Context, records []domain.IndexRecord) (int, error)
}

// Embedder vectorizes a batch of texts, preserving order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]domain.Vector, error)
}
