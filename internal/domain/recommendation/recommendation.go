// Package recommendation defines the items returned to chat clients.
package recommendation

// Kind is the type of recommended entity.
type Kind string

// Known kinds.
const (
	KindCollaborator Kind = "collaborator"
	KindProject      Kind = "project"
	KindCluster      Kind = "cluster"
)

// Recommendation is one ranked suggestion shown to the user.
type Recommendation struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Title      string         `json:"title"`
	Subtitle   string         `json:"subtitle,omitempty"`
	MediaURL   *string        `json:"media_url,omitempty"`
	DistanceKM *float64       `json:"distance_km,omitempty"` // reserved for geo ranking
	Score      float64        `json:"score"`
	Meta       map[string]any `json:"meta"`
}
