package valkey

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/spacetwo/spacetwo-chat/internal/db"
)

// CreateIndex runs FT.CREATE for s.
func (s *Store) CreateIndex(ctx context.Context, schema db.Schema) error {
	args, err := schema.CreateArgs()
	if err != nil {
		return fmt.Errorf("schema %s: %w", schema.Index, err)
	}
	err = s.client.Do(ctx, s.client.B().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case indexExists(err):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// IndexExists probes with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.client.Do(ctx, s.client.B().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case missingIndex(err):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// SearchKNN runs FT.SEARCH and converts distances to similarities.
func (s *Store) SearchKNN(ctx context.Context, q db.KNNQuery) ([]db.Hit, error) {
	args, err := q.SearchArgs()
	if err != nil {
		return nil, err
	}
	reply, err := s.client.Do(ctx, s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		if missingIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseHits(reply)
}

// parseHits reads [total, key, [field, value, ...], key, [...], ...].
func parseHits(reply []rueidis.RedisMessage) ([]db.Hit, error) {
	if len(reply) == 0 {
		return []db.Hit{}, nil
	}
	if _, err := reply[0].AsInt64(); err != nil {
		return nil, fmt.Errorf("parse FT.SEARCH total: %w", err)
	}

	hits := make([]db.Hit, 0, (len(reply)-1)/2)
	for i := 1; i+1 < len(reply); i += 2 {
		key, err := reply[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := reply[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := make(map[string]string, len(pairs)/2)
		for j := 0; j+1 < len(pairs); j += 2 {
			name, nerr := pairs[j].ToString()
			value, verr := pairs[j+1].ToString()
			if nerr == nil && verr == nil {
				fields[name] = value
			}
		}

		hit := db.Hit{Key: key, Fields: fields}
		if d, err := strconv.ParseFloat(fields[db.ScoreField], 64); err == nil {
			hit.Score = 1 - d
		}
		delete(fields, db.ScoreField)
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	return hits, nil
}
