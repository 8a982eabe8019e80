// Package embcache keeps upstream embeddings in the key-value store so that
// repeated profile and query texts are not sent upstream twice.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/db"
	"github.com/spacetwo/spacetwo-chat/internal/domain"
)

// DefaultTTL applies when Options.TTL is zero.
const DefaultTTL = 30 * 24 * time.Hour

const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultCorrupt = "corrupt"
)

// Options describe the vectors a Cache accepts.
type Options struct {
	Model string
	Dim   int // 0 accepts any length
	TTL   time.Duration
}

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a read-through embedder. Store failures never fail a request:
// a broken cache degrades to calling next directly.
type Cache struct {
	next    domain.Embedder
	kv      kv
	opts    Options
	results *prometheus.CounterVec
	log     *zap.Logger
}

// New wraps next. results is labelled by "result" and may be nil.
func New(next domain.Embedder, store kv, opts Options, results *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Cache{next: next, kv: store, opts: opts, results: results, log: logger}
}

// Embed serves text from the cache, falling through to next on a miss.
// Hits report zero tokens since nothing was billed.
func (c *Cache) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.Key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		c.count(resultHit)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count(resultMiss)

	res, err := c.next.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	if c.fits(res.Embedding) {
		// The caller may cancel as soon as it has the vector; the write should still land.
		c.store(context.WithoutCancel(ctx), key, res.Embedding)
	}
	return res, nil
}

// Key is the store key for text under the configured model and dimension.
func (c *Cache) Key(text string) string {
	sum := sha256.Sum256([]byte(c.opts.Model + "\x00" + strconv.Itoa(c.opts.Dim) + "\x00" + text))
	return domain.KeyPrefix + "emb:" + hex.EncodeToString(sum[:])
}

func (c *Cache) fits(vec []float32) bool {
	if len(vec) == 0 {
		return false
	}
	return c.opts.Dim == 0 || len(vec) == c.opts.Dim
}

func (c *Cache) lookup(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.log.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := db.DecodeVector(raw)
	if err != nil || !c.fits(vec) {
		c.count(resultCorrupt)
		c.log.Warn("Discarding unusable cached embedding",
			zap.String("key", key), zap.Int("bytes", len(raw)), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *Cache) store(ctx context.Context, key string, vec []float32) {
	if err := c.kv.SetWithTTL(ctx, key, []byte(db.EncodeVector(vec)), c.opts.TTL); err != nil {
		c.log.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) count(result string) {
	if c.results != nil {
		c.results.WithLabelValues(result).Inc()
	}
}
