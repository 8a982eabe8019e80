// Package ingest embeds collaborator items and writes them to the vector index.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
)

// MaxBatchSize is the maximum number of items per ingest request.
const MaxBatchSize = 100

// Item is one collaborator to index.
type Item struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Service validates, embeds and upserts ingest batches. Re-ingesting an ID overwrites it.
type Service struct {
	index        Indexer
	embed        Embedder
	maxBatchSize int
}

// New creates an ingest service.
func New(index Indexer, embed Embedder) *Service {
	return &Service{index: index, embed: embed, maxBatchSize: MaxBatchSize}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Ingest writes all items or none of them and returns the number written.
func (s *Service) Ingest(ctx context.Context, items []Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if len(items) > s.maxBatchSize {
		return 0, fmt.Errorf("%w: batch size %d exceeds %d", domain.ErrInvalidRequest, len(items), s.maxBatchSize)
	}

	texts := make([]string, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			return 0, fmt.Errorf("%w: item %d: id is required", domain.ErrInvalidRequest, i)
		}
		if strings.TrimSpace(it.Text) == "" {
			return 0, fmt.Errorf("%w: item %q: text is required", domain.ErrInvalidRequest, it.ID)
		}
		texts[i] = it.Text
	}

	vecs, err := s.embed.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed items: %w", err)
	}

	records := make([]domain.IndexRecord, len(items))
	for i, it := range items {
		md := it.Metadata
		if md == nil {
			md = map[string]any{}
		}
		records[i] = domain.IndexRecord{ID: it.ID, Vector: vecs[i], Metadata: md}
	}

	n, err := s.index.Upsert(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("upsert %d items: %w", len(records), err)
	}
	return n, nil
}
