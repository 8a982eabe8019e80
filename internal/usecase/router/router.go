// Package router decides what a chat turn is asking for.
package router

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/chat"
	"github.com/spacetwo/spacetwo-chat/internal/domain/intent"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
)

// DefaultKeywords trigger collaborator recommendations in the rule-based fallback.
var DefaultKeywords = []string{"editor", "composer", "designer", "animator", "collab", "recommend"}

// Classifier is the upstream intent classifier. Errors must be *domain.UpstreamError.
type Classifier interface {
	Classify(ctx context.Context, history, latest string) (intent.Classification, error)
}

// Router classifies a chat turn with the upstream model and falls back to keyword rules.
type Router struct {
	classifier Classifier
	keywords   []string
	model      string
	logger     *zap.Logger
}

// New creates a router. classifier may be nil, in which case only the rules are used.
func New(classifier Classifier, keywords []string, model string, logger *zap.Logger) *Router {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}
	return &Router{classifier: classifier, keywords: lower, model: model, logger: logger}
}

// Route returns the decision for latest given the preceding conversation. It never fails.
func (r *Router) Route(ctx context.Context, conv chat.Conversation, latest string) intent.Decision {
	history := conv.History()

	d, ok := r.classify(ctx, history, latest)
	if !ok {
		d = r.rules(history, latest)
	}
	metrics.RouteDecisionsTotal.WithLabelValues(string(d.Intent), string(d.Source)).Inc()
	return d
}

func (r *Router) classify(ctx context.Context, history, latest string) (intent.Decision, bool) {
	if r.classifier == nil {
		return intent.Decision{}, false
	}

	res := domain.FromPair(r.classifier.Classify(ctx, history, latest))
	if !res.IsOk() {
		metrics.ClassifierErrorsTotal.WithLabelValues(r.model, string(res.Kind())).Inc()
		r.logger.Warn("Intent classifier failed, using keyword rules",
			zap.String("failure_kind", string(res.Kind())),
			zap.String("model", r.model),
			zap.Error(res.Err()),
		)
		return intent.Decision{}, false
	}

	out, _ := res.Unwrap()
	return intent.New(intent.Parse(out.Intent), out.Query, out.Tags, latest, intent.SourceClassifier), true
}

// rules is the offline fallback: any keyword in history or latest means collaborators.
func (r *Router) rules(history, latest string) intent.Decision {
	text := strings.ToLower(history + "\n" + latest)
	for _, k := range r.keywords {
		if strings.Contains(text, k) {
			return intent.New(intent.RecommendCollaborators, latest, nil, latest, intent.SourceRules)
		}
	}
	return intent.New(intent.SmallTalk, latest, nil, latest, intent.SourceRules)
}
