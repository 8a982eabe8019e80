// Package db is the storage facade shared by the index, budget and embedding cache repositories.
// The valkey subpackage implements it for both Valkey (valkey-search) and Redis 8.
package db

import (
	"context"
	"time"
)

// Store is everything the repositories need from the server.
// Each repository declares the narrow slice it uses.
type Store interface {
	Ping(ctx context.Context) error
	HashStore
	KVStore
	VectorStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Hash is one key with its field/value pairs.
type Hash struct {
	Key    string
	Fields map[string]string
}

// HashStore reads and writes hashes.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HSetMulti writes every hash in one pipelined round-trip.
	HSetMulti(ctx context.Context, hashes []Hash) error
	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore holds counters and opaque blobs.
type KVStore interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, delta int64) error
	// Expire with nx only sets a TTL on keys that have none.
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// VectorStore manages FT indexes and runs KNN queries against them.
type VectorStore interface {
	// CreateIndex returns ErrIndexExists when another writer won the race.
	CreateIndex(ctx context.Context, s Schema) error
	IndexExists(ctx context.Context, name string) (bool, error)
	// SearchKNN returns hits nearest first. ErrIndexNotFound when the index is gone.
	SearchKNN(ctx context.Context, q KNNQuery) ([]Hit, error)
}
