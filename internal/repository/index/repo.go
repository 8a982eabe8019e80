// Package index stores collaborator vectors in a Valkey/Redis FT index.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spacetwo/spacetwo-chat/internal/db"
	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
	"github.com/spacetwo/spacetwo-chat/internal/domain/profile"
)

// Hash fields written next to the indexed attributes.
const (
	fieldVector = "__vector"
	fieldMeta   = "__meta"
	tagSep      = "|"
)

// store is the consumer interface for the index repository (ISP).
type store interface {
	Ping(ctx context.Context) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, hashes []db.Hash) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, s db.Schema) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q db.KNNQuery) ([]db.Hit, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements usecase/search.Gateway on top of FT.* commands.
type Repo struct {
	store  store
	name   string
	driver string
	hnsw   HNSWConfig
	now    func() time.Time
}

// New creates an index repository for the named index.
func New(s store, name, driver string) *Repo {
	return &Repo{
		store:  s,
		name:   name,
		driver: driver,
		hnsw:   HNSWConfig{M: 16, EFConstruct: 200},
		now:    time.Now,
	}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Ping checks that the server answers.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// EnsureIndex returns a handle to the index, creating it with cosine distance if absent.
// The dimension is recorded in a metadata hash and checked on every later call.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) (domain.IndexHandle, error) {
	if dim <= 0 {
		return domain.IndexHandle{}, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidRequest)
	}
	handle := domain.IndexHandle{Name: r.name, Dimension: dim, Driver: r.driver}

	meta, err := r.store.HGetAll(ctx, metaKey(r.name))
	if err != nil {
		return domain.IndexHandle{}, fmt.Errorf("read index meta %s: %w", r.name, err)
	}
	if existing, ok := meta["dim"]; ok {
		if n, err := strconv.Atoi(existing); err == nil && n != dim {
			return domain.IndexHandle{}, fmt.Errorf("index %s: %w", r.name, &domain.DimensionError{Want: n, Got: dim})
		}
	}

	exists, err := r.store.IndexExists(ctx, indexName(r.name))
	if err != nil {
		return domain.IndexHandle{}, fmt.Errorf("check index %s: %w", r.name, err)
	}
	if !exists {
		schema := profileSchema(r.name, dim, r.hnsw)
		if err := r.store.CreateIndex(ctx, schema); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return domain.IndexHandle{}, fmt.Errorf("%w: %s: %w", domain.ErrIndexCreate, r.name, err)
		}
	}

	if len(meta) == 0 {
		fields := map[string]string{
			"dim":        strconv.Itoa(dim),
			"metric":     string(db.MetricCosine),
			"created_at": strconv.FormatInt(r.now().UnixMilli(), 10),
		}
		if err := r.store.HSet(ctx, metaKey(r.name), fields); err != nil {
			return domain.IndexHandle{}, fmt.Errorf("write index meta %s: %w", r.name, err)
		}
	}

	return handle, nil
}

// Upsert writes all records in one pipelined round-trip. Re-writing an ID overwrites it.
func (r *Repo) Upsert(ctx context.Context, h domain.IndexHandle, records []domain.IndexRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	hashes := make([]db.Hash, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(h.Dimension); err != nil {
			return 0, err
		}
		fields, err := recordToHash(rec)
		if err != nil {
			return 0, &domain.BatchError{Index: h.Name, Count: len(records), Err: err}
		}
		hashes = append(hashes, db.Hash{Key: docKey(h.Name, rec.ID), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, hashes); err != nil {
		return 0, &domain.BatchError{Index: h.Name, Count: len(records), Err: err}
	}
	return len(records), nil
}

// Query returns up to topK hits ordered by descending cosine similarity.
func (r *Repo) Query(
	ctx context.Context, h domain.IndexHandle, vec domain.Vector, topK int, f filter.Filter,
) ([]domain.SearchHit, error) {
	if err := vec.CheckDim(h.Dimension); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.SearchHit{}, nil
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	res, err := r.store.SearchKNN(ctx, db.KNNQuery{
		Index:       indexName(h.Name),
		VectorField: vectorAlias,
		Vector:      vec,
		K:           topK,
		Filter:      f,
		Return:      []string{fieldMeta},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%s: %w", h.Name, domain.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("knn search %s: %w", h.Name, err)
	}

	prefix := docPrefix(h.Name)
	hits := make([]domain.SearchHit, 0, len(res))
	for _, e := range res {
		hits = append(hits, domain.SearchHit{
			ID:       strings.TrimPrefix(e.Key, prefix),
			Score:    e.Score,
			Metadata: decodeMeta(e.Fields[fieldMeta]),
		})
		if len(hits) == topK {
			break
		}
	}
	return hits, nil
}

// recordToHash flattens a record into hash fields: TAG attributes for filtering,
// the raw vector, and the metadata bag as JSON exactly as it was given.
func recordToHash(rec domain.IndexRecord) (map[string]string, error) {
	md := profile.FromMap(rec.Metadata)

	bag := rec.Metadata
	if bag == nil {
		bag = map[string]any{}
	}
	meta, err := json.Marshal(bag)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata for %q: %w", rec.ID, err)
	}

	fields := map[string]string{
		fieldVector: db.EncodeVector(rec.Vector),
		fieldMeta:   string(meta),
	}
	fields[profile.FieldAvailability] = strconv.FormatBool(md.Availability)
	if len(md.Roles) > 0 {
		fields[profile.FieldRoles] = strings.Join(md.Roles, tagSep)
	}
	if len(md.Styles) > 0 {
		fields[profile.FieldStyles] = strings.Join(md.Styles, tagSep)
	}
	return fields, nil
}

func decodeMeta(raw string) map[string]any {
	m := map[string]any{}
	if raw == "" {
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// Key patterns: spacetwo:index:{name}, spacetwo:{name}:idx, spacetwo:{name}:{id}

func metaKey(name string) string {
	return fmt.Sprintf("%sindex:%s", domain.KeyPrefix, name)
}

func indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}

func docPrefix(name string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, name)
}

func docKey(name, id string) string {
	return docPrefix(name) + id
}
