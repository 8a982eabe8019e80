// Package recommend turns request context into index filters and index hits into recommendations.
package recommend

import (
	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
	"github.com/spacetwo/spacetwo-chat/internal/domain/profile"
	"github.com/spacetwo/spacetwo-chat/internal/domain/recommendation"
)

// Geo is the caller's location hint.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RequestContext carries the request fields that constrain a search.
type RequestContext struct {
	AvailabilityRequired bool
	// Geo is accepted but not yet translated into a predicate.
	Geo *Geo
}

// BuildFilter composes the metadata filter for a request. An empty filter means no constraint.
func BuildFilter(rc RequestContext) filter.Filter {
	var f filter.Filter
	if rc.AvailabilityRequired {
		f = f.Eq(profile.FieldAvailability, true)
	}
	// TODO: map rc.Geo to a geohash bucket predicate once records carry a bucket field.
	return f
}

// ToRecommendations maps hits to collaborator recommendations, keeping hit order and raw scores.
func ToRecommendations(hits []domain.SearchHit) []recommendation.Recommendation {
	out := make([]recommendation.Recommendation, 0, len(hits))
	for _, h := range hits {
		out = append(out, toRecommendation(h))
	}
	return out
}

func toRecommendation(h domain.SearchHit) recommendation.Recommendation {
	md := profile.FromMap(h.Metadata)

	meta := make(map[string]any, len(md.Extra)+5)
	for k, v := range md.Extra {
		meta[k] = v
	}
	meta[profile.FieldStyles] = nonNil(md.Styles)
	meta[profile.FieldAvailability] = md.Availability
	if md.PortfolioURL != nil {
		meta[profile.FieldPortfolioURL] = *md.PortfolioURL
	}
	// location may be a string or a {lat, lng} object; pass it through as stored.
	if loc, ok := h.Metadata[profile.FieldLocation]; ok && loc != nil {
		meta[profile.FieldLocation] = loc
	}
	if md.Bio != nil {
		meta[profile.FieldBio] = *md.Bio
	}

	return recommendation.Recommendation{
		ID:       h.ID,
		Kind:     recommendation.KindCollaborator,
		Title:    md.DisplayName(),
		Subtitle: md.RoleLine(),
		MediaURL: md.MediaURL,
		Score:    h.Score,
		Meta:     meta,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
