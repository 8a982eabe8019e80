package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
)

func seeded(t *testing.T) (*Index, domain.IndexHandle) {
	t.Helper()
	x := New("test")
	h, err := x.EnsureIndex(context.Background(), 3)
	require.NoError(t, err)

	_, err = x.Upsert(context.Background(), h, []domain.IndexRecord{
		{ID: "u1", Vector: domain.Vector{1, 0, 0}, Metadata: map[string]any{
			"name": "Maya Tan", "availability": true, "roles": []string{"Video Editor"}, "rate": 40.0,
		}},
		{ID: "u2", Vector: domain.Vector{0.8, 0.6, 0}, Metadata: map[string]any{
			"name": "Leo Park", "availability": false, "roles": []any{"Composer"},
		}},
		{ID: "u3", Vector: domain.Vector{0, 0, 1}},
	})
	require.NoError(t, err)
	return x, h
}

func TestQuery_OrderedBySimilarity(t *testing.T) {
	x, h := seeded(t)

	hits, err := x.Query(context.Background(), h, domain.Vector{1, 0, 0}, 10, filter.Filter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "u1", hits[0].ID)
	assert.Equal(t, "u2", hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.8, hits[1].Score, 1e-6)
	assert.NotNil(t, hits[2].Metadata)
}

func TestQuery_TopK(t *testing.T) {
	x, h := seeded(t)

	hits, err := x.Query(context.Background(), h, domain.Vector{1, 0, 0}, 1, filter.Filter{})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = x.Query(context.Background(), h, domain.Vector{1, 0, 0}, 0, filter.Filter{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQuery_Filters(t *testing.T) {
	x, h := seeded(t)
	ctx := context.Background()

	hits, err := x.Query(ctx, h, domain.Vector{1, 0, 0}, 10, filter.Filter{}.Eq("availability", true))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "u1", hits[0].ID)

	hits, err = x.Query(ctx, h, domain.Vector{1, 0, 0}, 10, filter.Filter{}.Match("roles", "Composer"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "u2", hits[0].ID)

	lte := 50.0
	r, err := filter.NewRange(nil, nil, nil, &lte)
	require.NoError(t, err)
	hits, err = x.Query(ctx, h, domain.Vector{1, 0, 0}, 10, filter.Filter{}.InRange("rate", r))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "u1", hits[0].ID)
}

func TestUpsert_Idempotent(t *testing.T) {
	x, h := seeded(t)

	_, err := x.Upsert(context.Background(), h, []domain.IndexRecord{
		{ID: "u3", Vector: domain.Vector{0, 1, 0}, Metadata: map[string]any{"name": "Jay"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, x.Len())

	hits, err := x.Query(context.Background(), h, domain.Vector{0, 1, 0}, 1, filter.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "u3", hits[0].ID)
	assert.Equal(t, "Jay", hits[0].Metadata["name"])
}

func TestUpsert_ValidatesBeforeWriting(t *testing.T) {
	x, h := seeded(t)

	_, err := x.Upsert(context.Background(), h, []domain.IndexRecord{
		{ID: "u9", Vector: domain.Vector{0, 1, 0}},
		{ID: "u10", Vector: domain.Vector{0, 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrVectorDimMismatch))
	assert.Equal(t, 3, x.Len())
}

func TestEnsureIndex_DimensionFixed(t *testing.T) {
	x := New("test")
	_, err := x.EnsureIndex(context.Background(), 3)
	require.NoError(t, err)

	_, err = x.EnsureIndex(context.Background(), 4)
	assert.ErrorIs(t, err, domain.ErrVectorDimMismatch)
}

func TestQuery_DimensionMismatch(t *testing.T) {
	x, h := seeded(t)
	_, err := x.Query(context.Background(), h, domain.Vector{1, 0}, 3, filter.Filter{})
	assert.ErrorIs(t, err, domain.ErrVectorDimMismatch)
}
