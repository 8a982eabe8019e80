package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/db"
	"github.com/spacetwo/spacetwo-chat/internal/domain"
)

type stubEmbedder struct {
	res   domain.EmbeddingResult
	err   error
	calls int
}

func (s *stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	s.calls++
	return s.res, s.err
}

type entry struct {
	value []byte
	ttl   time.Duration
}

// memKV is an in-memory kv with optional injected failures.
type memKV struct {
	mu      sync.Mutex
	data    map[string]entry
	readErr error
	setErr  error
}

func newMemKV() *memKV { return &memKV{data: map[string]entry{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	e, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = entry{value: value, ttl: ttl}
	return nil
}

func (m *memKV) put(key string, vec []float32) {
	m.data[key] = entry{value: []byte(db.EncodeVector(vec))}
}

func newCache(t *testing.T, next *stubEmbedder) (*Cache, *memKV) {
	t.Helper()
	kv := newMemKV()
	return New(next, kv, Options{Model: "test-model", Dim: 3}, nil, zap.NewNop()), kv
}
