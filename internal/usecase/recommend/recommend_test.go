package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
	"github.com/spacetwo/spacetwo-chat/internal/domain/recommendation"
)

func TestBuildFilter(t *testing.T) {
	f := BuildFilter(RequestContext{AvailabilityRequired: true})
	require.Len(t, f.Conditions(), 1)
	c := f.Conditions()[0]
	assert.Equal(t, "availability", c.Key())
	assert.Equal(t, filter.KindBool, c.Kind())
	assert.True(t, c.Bool())

	assert.True(t, BuildFilter(RequestContext{}).IsEmpty())
	assert.True(t, BuildFilter(RequestContext{Geo: &Geo{Lat: 51.5, Lng: -0.1}}).IsEmpty())
}

func TestToRecommendations_EmptyMetadata(t *testing.T) {
	recs := ToRecommendations([]domain.SearchHit{{ID: "u9", Score: 0.42, Metadata: map[string]any{}}})

	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "u9", r.ID)
	assert.Equal(t, recommendation.KindCollaborator, r.Kind)
	assert.Equal(t, "Untitled", r.Title)
	assert.Equal(t, "Creator", r.Subtitle)
	assert.Nil(t, r.MediaURL)
	assert.Equal(t, 0.42, r.Score)
	assert.Equal(t, []string{}, r.Meta["styles"])
	assert.Equal(t, false, r.Meta["availability"])
}

func TestToRecommendations_FullProfile(t *testing.T) {
	hits := []domain.SearchHit{{
		ID:    "u1",
		Score: -0.05,
		Metadata: map[string]any{
			"name":          "Maya Tan",
			"roles":         []any{"Video Editor", "Colorist"},
			"styles":        []any{"lo-fi", "documentary"},
			"availability":  true,
			"portfolio_url": "https://example.com/maya",
			"location":      map[string]any{"lat": 51.5, "lng": -0.12},
			"bio":           "Cuts music videos.",
			"media_url":     "https://example.com/maya.jpg",
			"rate":          40.0,
		},
	}}

	r := ToRecommendations(hits)[0]
	assert.Equal(t, "Maya Tan", r.Title)
	assert.Equal(t, "Video Editor, Colorist", r.Subtitle)
	require.NotNil(t, r.MediaURL)
	assert.Equal(t, "https://example.com/maya.jpg", *r.MediaURL)
	assert.Equal(t, -0.05, r.Score, "score is copied verbatim")
	assert.Equal(t, []string{"lo-fi", "documentary"}, r.Meta["styles"])
	assert.Equal(t, true, r.Meta["availability"])
	assert.Equal(t, "https://example.com/maya", r.Meta["portfolio_url"])
	assert.Equal(t, map[string]any{"lat": 51.5, "lng": -0.12}, r.Meta["location"])
	assert.Equal(t, "Cuts music videos.", r.Meta["bio"])
	assert.Equal(t, 40.0, r.Meta["rate"])
	assert.NotContains(t, r.Meta, "name")
}

func TestToRecommendations_LegacyRole(t *testing.T) {
	r := ToRecommendations([]domain.SearchHit{{ID: "u2", Metadata: map[string]any{"role": "Composer"}}})[0]
	assert.Equal(t, "Composer", r.Subtitle)
}

func TestToRecommendations_KeepsOrder(t *testing.T) {
	recs := ToRecommendations([]domain.SearchHit{{ID: "a", Score: 0.9}, {ID: "b", Score: 0.8}})
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
	assert.Empty(t, ToRecommendations(nil))
}
