package chi

import (
	"context"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
	chatuc "github.com/spacetwo/spacetwo-chat/internal/usecase/chat"
	healthuc "github.com/spacetwo/spacetwo-chat/internal/usecase/health"
	ingestuc "github.com/spacetwo/spacetwo-chat/internal/usecase/ingest"
)

// ChatService answers chat turns.
type ChatService interface {
	Handle(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
}

// IngestService writes collaborator items to the index.
type IngestService interface {
	Ingest(ctx context.Context, items []ingestuc.Item) (int, error)
}

// SearchService runs raw similarity queries.
type SearchService interface {
	Search(ctx context.Context, query string, topK int, f filter.Filter) ([]domain.SearchHit, error)
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
