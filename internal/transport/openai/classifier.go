package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/intent"
)

const opClassify = "openai.classify"

const routerSystemPrompt = `You are a router for a creative-collaboration chat. Decide whether the latest user
message should trigger recommendations. Output STRICT JSON with keys:
- intent: one of ["recommend_collaborators","recommend_projects","small_talk"].
- query: a concise search string derived from user context.
- tags: list of style/role tags.`

// Classifier asks a chat-completion model for the intent of the latest message.
type Classifier struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithTemperature sets the sampling temperature (default 0).
func WithTemperature(t float32) ClassifierOption {
	return func(c *Classifier) { c.temperature = t }
}

// WithRateLimit bounds outbound requests. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) ClassifierOption {
	return func(c *Classifier) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClassifier creates an intent classifier.
func NewClassifier(cfg *Config, opts ...ClassifierOption) *Classifier {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{
		client:  newClient(cfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured chat model.
func (c *Classifier) Model() string { return c.model }

// Classify sends the conversation history and latest message and parses the JSON answer.
func (c *Classifier) Classify(ctx context.Context, history, latest string) (intent.Classification, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return intent.Classification{}, domain.NewUpstreamError(opClassify, domain.FailureRateLimited,
			fmt.Errorf("local rate limit: %w", domain.ErrRateLimited))
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature(c.temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: routerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "History: " + history + "\nLatest: " + latest},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return intent.Classification{}, classify(opClassify, domain.ErrClassifierError, err)
	}
	if len(resp.Choices) == 0 {
		return intent.Classification{}, domain.NewUpstreamError(opClassify, domain.FailureMalformed,
			fmt.Errorf("empty response: %w", domain.ErrClassifierError))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	out, err := parseClassification(content)
	if err != nil {
		return intent.Classification{}, domain.NewUpstreamError(opClassify, domain.FailureMalformed,
			fmt.Errorf("parse response: %v: %w", err, domain.ErrClassifierError))
	}

	c.logger.Debug("intent classified",
		zap.String("model", c.model),
		zap.String("intent", out.Intent),
		zap.Int("tokens_total", resp.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return out, nil
}

// parseClassification requires a JSON object. Keys of the wrong type are treated as missing.
func parseClassification(content string) (intent.Classification, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return intent.Classification{}, err
	}
	var out intent.Classification
	out.Intent, _ = raw["intent"].(string)
	out.Query, _ = raw["query"].(string)
	if tags, ok := raw["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok && s != "" {
				out.Tags = append(out.Tags, s)
			}
		}
	}
	return out, nil
}

// temperature maps 0 to the smallest positive float32: go-openai drops a zero
// temperature from the request body and the API would apply its default of 1.
func temperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
