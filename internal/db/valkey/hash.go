package valkey

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/spacetwo/spacetwo-chat/internal/db"
)

func (s *Store) hset(h db.Hash) rueidis.Completed {
	cmd := s.client.B().Hset().Key(h.Key).FieldValue()
	for k, v := range h.Fields {
		cmd = cmd.FieldValue(k, v)
	}
	return cmd.Build()
}

// HSet writes fields into one hash.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	return s.exec(ctx, db.OpHSet, s.hset(db.Hash{Key: key, Fields: fields}))
}

// HSetMulti pipelines one HSET per hash. The first failure is returned with its key.
func (s *Store) HSetMulti(ctx context.Context, hashes []db.Hash) error {
	if len(hashes) == 0 {
		return nil
	}
	cmds := make([]rueidis.Completed, 0, len(hashes))
	for _, h := range hashes {
		cmds = append(cmds, s.hset(h))
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", hashes[i].Key, err)}
		}
	}
	return nil
}

// HGetAll reads a whole hash.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}
