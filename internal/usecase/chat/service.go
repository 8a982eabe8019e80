// Package chat answers a chat turn with a reply and, when asked, collaborator recommendations.
package chat

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	domchat "github.com/spacetwo/spacetwo-chat/internal/domain/chat"
	"github.com/spacetwo/spacetwo-chat/internal/domain/intent"
	"github.com/spacetwo/spacetwo-chat/internal/domain/recommendation"
	"github.com/spacetwo/spacetwo-chat/internal/logger"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
	"github.com/spacetwo/spacetwo-chat/internal/usecase/recommend"
)

const tracerName = "github.com/spacetwo/spacetwo-chat/internal/usecase/chat"

// Defaults used when Options leaves a field zero.
const (
	DefaultTopK          = 6
	DefaultHistoryWindow = 10
)

// Fixed replies.
const (
	replyProjects  = "Here are some projects you might like (stub)."
	replySmallTalk = "Got it. Tell me what you want to make, and I can line up the right people."
)

// Request outcomes for metrics.
const (
	outcomeOK       = "ok"
	outcomeEmpty    = "empty"
	outcomeDegraded = "degraded"
)

// Message is one incoming conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat turn with its conversation so far.
type Request struct {
	ConversationID       string
	Messages             []Message
	Geo                  *recommend.Geo
	AvailabilityRequired bool
}

// Response is the reply and the recommendations backing it.
type Response struct {
	Reply           string                          `json:"reply"`
	Recommendations []recommendation.Recommendation `json:"recommendations"`
}

// Options tunes the orchestrator.
type Options struct {
	TopK          int
	HistoryWindow int
}

// Service routes a chat turn and assembles the response. It holds no per-conversation state.
type Service struct {
	router   Router
	searcher Searcher
	opts     Options
	tracer   trace.Tracer
}

// New creates a chat service.
func New(router Router, searcher Searcher, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	return &Service{router: router, searcher: searcher, opts: opts, tracer: otel.Tracer(tracerName)}
}

// Handle answers req. Only request validation errors are returned; pipeline failures degrade the reply.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	conv, err := toConversation(req.Messages)
	if err != nil {
		return Response{}, err
	}

	ctx, span := s.tracer.Start(ctx, "chat.Handle", trace.WithAttributes(
		attribute.String("chat.conversation_id", req.ConversationID),
		attribute.Int("chat.messages", len(conv)),
	))
	defer span.End()
	if req.ConversationID != "" {
		ctx = logger.With(ctx, zap.String("conversation_id", req.ConversationID))
	}

	latest := conv.LatestUserText()
	d := s.router.Route(ctx, conv.Window(s.opts.HistoryWindow), latest)
	span.SetAttributes(
		attribute.String("chat.intent", string(d.Intent)),
		attribute.String("chat.route_source", string(d.Source)),
	)

	var (
		resp    Response
		outcome = outcomeOK
	)
	switch d.Intent {
	case intent.RecommendCollaborators:
		resp, outcome = s.collaborators(ctx, req, d.Query)
	case intent.RecommendProjects:
		resp = Response{Reply: replyProjects, Recommendations: []recommendation.Recommendation{}}
	default:
		resp = Response{Reply: replySmallTalk, Recommendations: []recommendation.Recommendation{}}
	}

	span.SetAttributes(attribute.String("chat.outcome", outcome))
	metrics.ChatRequestsTotal.WithLabelValues(string(d.Intent), outcome).Inc()
	return resp, nil
}

func (s *Service) collaborators(ctx context.Context, req Request, query string) (Response, string) {
	f := recommend.BuildFilter(recommend.RequestContext{
		AvailabilityRequired: req.AvailabilityRequired,
		Geo:                  req.Geo,
	})

	hits, err := s.searcher.Search(ctx, query, s.opts.TopK, f)
	if err != nil {
		log := logger.FromContext(ctx).Warn
		if domain.IsConfigError(err) {
			log = logger.FromContext(ctx).Error
		}
		log("Collaborator search failed, replying without recommendations",
			zap.String("failure_kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		trace.SpanFromContext(ctx).RecordError(err)
		return Response{
			Reply:           fmt.Sprintf("I couldn't find any matching collaborators for ‘%s’ right now.", query),
			Recommendations: []recommendation.Recommendation{},
		}, outcomeDegraded
	}

	recs := recommend.ToRecommendations(hits)
	outcome := outcomeOK
	if len(recs) == 0 {
		outcome = outcomeEmpty
	}
	return Response{
		Reply:           fmt.Sprintf("I found %d collaborators for ‘%s’. Want to invite any of them?", len(recs), query),
		Recommendations: recs,
	}, outcome
}

func toConversation(msgs []Message) (domchat.Conversation, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", domain.ErrInvalidRequest)
	}
	conv := make(domchat.Conversation, 0, len(msgs))
	for i, m := range msgs {
		role, err := domchat.ParseRole(m.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: message %d: %v", domain.ErrInvalidRequest, i, err)
		}
		conv = append(conv, domchat.Turn{Role: role, Content: m.Content})
	}
	return conv, nil
}
