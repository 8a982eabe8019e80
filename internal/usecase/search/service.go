// Package search embeds queries and runs them against the vector index.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
)

const tracerName = "github.com/spacetwo/spacetwo-chat/internal/usecase/search"

// Service owns the index handle and the query path.
type Service struct {
	gw     Gateway
	embed  Embedder
	driver string
	tracer trace.Tracer

	mu     sync.Mutex
	handle *domain.IndexHandle
	broken error // sticky configuration failure
}

// New creates a search service. driver labels metrics and spans.
func New(gw Gateway, embed Embedder, driver string) *Service {
	return &Service{
		gw:     gw,
		embed:  embed,
		driver: driver,
		tracer: otel.Tracer(tracerName),
	}
}

// Handle returns the index handle, ensuring the index on first use.
// Concurrent first callers block on a single EnsureIndex call. Transient
// failures are retried by the next caller; a create failure or dimension
// mismatch is remembered and returned to every later caller.
func (s *Service) Handle(ctx context.Context) (domain.IndexHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return *s.handle, nil
	}
	if s.broken != nil {
		return domain.IndexHandle{}, s.broken
	}
	h, err := s.gw.EnsureIndex(ctx, s.embed.Dimension())
	if err != nil {
		err = fmt.Errorf("ensure index: %w", err)
		if domain.IsConfigError(err) {
			s.broken = err
		}
		return domain.IndexHandle{}, err
	}
	s.handle = &h
	return h, nil
}

// Search embeds query and returns up to topK hits ordered by descending score.
func (s *Service) Search(ctx context.Context, query string, topK int, f filter.Filter) ([]domain.SearchHit, error) {
	ctx, span := s.tracer.Start(ctx, "search.Query", trace.WithAttributes(
		attribute.String("index.driver", s.driver),
		attribute.Int("search.top_k", topK),
		attribute.Int("search.conditions", len(f.Conditions())),
	))
	defer span.End()

	hits, err := s.search(ctx, query, topK, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	return hits, nil
}

func (s *Service) search(ctx context.Context, query string, topK int, f filter.Filter) ([]domain.SearchHit, error) {
	h, err := s.Handle(ctx)
	if err != nil {
		return nil, err
	}

	vec := s.embed.Embed(ctx, query)

	start := time.Now()
	hits, err := s.gw.Query(ctx, h, vec, topK, f)
	metrics.IndexQueryDuration.WithLabelValues(s.driver).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("query index %s: %w", h.Name, err)
	}
	return hits, nil
}

// Upsert writes records to the index in one gateway call.
func (s *Service) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	h, err := s.Handle(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.gw.Upsert(ctx, h, records)
	if err != nil {
		return 0, err
	}
	metrics.IndexUpsertedTotal.WithLabelValues(s.driver).Add(float64(n))
	return n, nil
}
