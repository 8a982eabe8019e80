// Package nats carries ingest batches over NATS with W3C trace context in message headers.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	ingestuc "github.com/spacetwo/spacetwo-chat/internal/usecase/ingest"
)

// IngestRequest is the message body published to the ingest subject.
type IngestRequest struct {
	Items []ingestuc.Item `json:"items"`
}

// IngestReply is sent back when the request carries a reply subject.
type IngestReply struct {
	Upserted int    `json:"upserted"`
	Error    string `json:"error,omitempty"`
}

// IngestService writes collaborator items to the index.
type IngestService interface {
	Ingest(ctx context.Context, items []ingestuc.Item) (int, error)
}

// conn is the subset of *nats.Conn used here.
type conn interface {
	PublishMsg(m *natsgo.Msg) error
	QueueSubscribe(subj, queue string, cb natsgo.MsgHandler) (*natsgo.Subscription, error)
}

// Connect dials NATS with reconnects that never give up.
func Connect(url, name string, logger *zap.Logger) (*natsgo.Conn, error) {
	nc, err := natsgo.Connect(url,
		natsgo.Name(name),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		natsgo.ReconnectHandler(func(c *natsgo.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// Subscriber feeds ingest messages into the ingest service.
type Subscriber struct {
	conn    conn
	ingest  IngestService
	timeout time.Duration
	logger  *zap.Logger
}

// NewSubscriber creates a subscriber. timeout bounds each message; zero means no bound.
func NewSubscriber(c conn, ingest IngestService, timeout time.Duration, logger *zap.Logger) *Subscriber {
	return &Subscriber{conn: c, ingest: ingest, timeout: timeout, logger: logger}
}

// Subscribe starts consuming subject. An empty queue subscribes every instance.
func (s *Subscriber) Subscribe(subject, queue string) (*natsgo.Subscription, error) {
	sub, err := s.conn.QueueSubscribe(subject, queue, s.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.logger.Info("Subscribed to ingest subject", zap.String("subject", subject), zap.String("queue", queue))
	return sub, nil
}

func (s *Subscriber) handle(msg *natsgo.Msg) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))

	var req IngestRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("Dropping malformed ingest message",
			zap.String("subject", msg.Subject),
			zap.Int("bytes", len(msg.Data)),
			zap.Error(err),
		)
		s.reply(ctx, msg, IngestReply{Error: "malformed ingest request: " + err.Error()})
		return
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var reply IngestReply
	n, err := s.ingest.Ingest(ctx, req.Items)
	if err != nil {
		s.logger.Error("Ingest message failed",
			zap.String("subject", msg.Subject),
			zap.Int("items", len(req.Items)),
			zap.Error(err),
		)
		reply.Error = err.Error()
	} else {
		reply.Upserted = n
		s.logger.Debug("Ingest message processed", zap.Int("upserted", n))
	}

	s.reply(ctx, msg, reply)
}

func (s *Subscriber) reply(ctx context.Context, msg *natsgo.Msg, reply IngestReply) {
	if msg.Reply == "" {
		return
	}
	if err := publish(ctx, s.conn, msg.Reply, reply); err != nil {
		s.logger.Warn("Failed to reply to ingest message", zap.String("reply", msg.Reply), zap.Error(err))
	}
}

// Publish sends an ingest request with the trace context from ctx.
func Publish(ctx context.Context, c conn, subject string, req IngestRequest) error {
	return publish(ctx, c, subject, req)
}

// Request publishes an ingest request and waits for the reply.
func Request(ctx context.Context, nc *natsgo.Conn, subject string, req IngestRequest, timeout time.Duration) (IngestReply, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return IngestReply{}, fmt.Errorf("marshal ingest request: %w", err)
	}
	msg := &natsgo.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	resp, err := nc.RequestMsg(msg, timeout)
	if err != nil {
		return IngestReply{}, fmt.Errorf("ingest request %s: %w", subject, err)
	}
	var reply IngestReply
	if err := json.Unmarshal(resp.Data, &reply); err != nil {
		return IngestReply{}, fmt.Errorf("decode ingest reply: %w", err)
	}
	return reply, nil
}

func publish[T any](ctx context.Context, c conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	msg := &natsgo.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if err := c.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
