package chat

import (
	"context"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	domchat "github.com/spacetwo/spacetwo-chat/internal/domain/chat"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
	"github.com/spacetwo/spacetwo-chat/internal/domain/intent"
)

// Router classifies a chat turn. It never fails.
type Router interface {
	Route(ctx context.Context, conv domchat.Conversation, latest string) intent.Decision
}

// Searcher runs a similarity query against the collaborator index.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, f filter.Filter) ([]domain.SearchHit, error)
}
