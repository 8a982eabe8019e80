// Package memory is an in-process vector index with brute-force cosine search.
// Writes are visible to the next query immediately.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
)

// Driver is the name reported in index handles.
const Driver = "memory"

type entry struct {
	vector   domain.Vector
	metadata map[string]any
}

// Index implements usecase/search.Gateway in memory.
type Index struct {
	mu      sync.RWMutex
	name    string
	dim     int
	entries map[string]entry
}

// New creates an empty in-memory index.
func New(name string) *Index {
	return &Index{name: name, entries: make(map[string]entry)}
}

// EnsureIndex fixes the dimension on first use and rejects a different one afterwards.
func (x *Index) EnsureIndex(_ context.Context, dim int) (domain.IndexHandle, error) {
	if dim <= 0 {
		return domain.IndexHandle{}, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidRequest)
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim == 0 {
		x.dim = dim
	}
	if x.dim != dim {
		return domain.IndexHandle{}, fmt.Errorf("index %s: %w", x.name, &domain.DimensionError{Want: x.dim, Got: dim})
	}
	return domain.IndexHandle{Name: x.name, Dimension: dim, Driver: Driver}, nil
}

// Upsert stores or replaces every record. Validation runs before any write.
func (x *Index) Upsert(_ context.Context, h domain.IndexHandle, records []domain.IndexRecord) (int, error) {
	for _, rec := range records {
		if err := rec.Validate(h.Dimension); err != nil {
			return 0, err
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, rec := range records {
		x.entries[rec.ID] = entry{
			vector:   append(domain.Vector(nil), rec.Vector...),
			metadata: maps.Clone(rec.Metadata),
		}
	}
	return len(records), nil
}

// Query scores every matching entry and returns the best topK.
func (x *Index) Query(
	_ context.Context, h domain.IndexHandle, vec domain.Vector, topK int, f filter.Filter,
) ([]domain.SearchHit, error) {
	if err := vec.CheckDim(h.Dimension); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.SearchHit{}, nil
	}

	x.mu.RLock()
	hits := make([]domain.SearchHit, 0, len(x.entries))
	for id, e := range x.entries {
		if !matches(e.metadata, f) {
			continue
		}
		md := maps.Clone(e.metadata)
		if md == nil {
			md = map[string]any{}
		}
		hits = append(hits, domain.SearchHit{ID: id, Score: domain.Cosine(vec, e.vector), Metadata: md})
	}
	x.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Ping always succeeds.
func (x *Index) Ping(context.Context) error { return nil }

// Len returns the number of stored records.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// matches evaluates the filter against a metadata bag. Missing fields never match.
func matches(md map[string]any, f filter.Filter) bool {
	for _, c := range f.Conditions() {
		v, ok := md[c.Key()]
		if !ok {
			return false
		}
		switch c.Kind() {
		case filter.KindBool:
			b, ok := v.(bool)
			if !ok || b != c.Bool() {
				return false
			}
		case filter.KindMatch:
			if !containsString(v, c.Match()) {
				return false
			}
		case filter.KindRange:
			n, ok := toFloat(v)
			if !ok || !c.Range().Contains(n) {
				return false
			}
		}
	}
	return true
}

func containsString(v any, want string) bool {
	switch s := v.(type) {
	case string:
		return s == want
	case []string:
		for _, x := range s {
			if x == want {
				return true
			}
		}
	case []any:
		for _, x := range s {
			if x == want {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
