// Package seed holds the demo collaborator profiles loaded by `spacetwo seed`.
package seed

import (
	"fmt"
	"strings"

	"github.com/spacetwo/spacetwo-chat/internal/domain/profile"
	ingestuc "github.com/spacetwo/spacetwo-chat/internal/usecase/ingest"
)

// Profile is one demo collaborator.
type Profile struct {
	ID       string
	Name     string
	Role     string
	Styles   []string
	Location string
	Bio      string
}

// Profiles are the demo collaborators.
var Profiles = []Profile{
	{
		ID: "u1", Name: "Maya Tan", Role: "Video Editor",
		Styles: []string{"lo-fi", "fast cuts", "TikTok"}, Location: "Glasgow, UK",
		Bio: "Lo-fi reels editor; punchy transitions, vintage overlays.",
	},
	{
		ID: "u2", Name: "Leo Park", Role: "Video Editor",
		Styles: []string{"cinematic", "color grading"}, Location: "London, UK",
		Bio: "Filmic LUTs, smooth cross-cuts, tasteful sound design.",
	},
	{
		ID: "u3", Name: "Anya Rao", Role: "Motion Designer",
		Styles: []string{"kinetic type", "music sync"}, Location: "Manchester, UK",
		Bio: "Text-driven motion; bold type systems timed to beats.",
	},
	{
		ID: "u4", Name: "Jay Patel", Role: "Video Editor",
		Styles: []string{"lo-fi", "fast cuts", "humor"}, Location: "Edinburgh, UK",
		Bio: "Comedy shorts; whip cuts, punch-ins, meme timing.",
	},
	{
		ID: "u5", Name: "Sara Kim", Role: "Sound Designer",
		Styles: []string{"ambient", "lo-fi"}, Location: "Glasgow, UK",
		Bio: "Ambient beds, tape hiss, vinyl crackle, subtle risers.",
	},
}

// Text is the string embedded for p.
func (p Profile) Text() string {
	return fmt.Sprintf("%s — %s.\nStyles: %s.\nLocation: %s.\nBio: %s",
		p.Name, p.Role, strings.Join(p.Styles, ", "), p.Location, p.Bio)
}

// Item converts p into an ingest item. Demo profiles are always available.
func (p Profile) Item() ingestuc.Item {
	md := profile.Metadata{
		Name:         profile.String(p.Name),
		Roles:        []string{p.Role},
		Styles:       append([]string(nil), p.Styles...),
		Availability: true,
		Location:     profile.String(p.Location),
		Bio:          profile.String(p.Bio),
	}
	return ingestuc.Item{ID: p.ID, Text: p.Text(), Metadata: md.ToMap()}
}

// Items returns every demo profile as an ingest item.
func Items() []ingestuc.Item {
	out := make([]ingestuc.Item, len(Profiles))
	for i, p := range Profiles {
		out[i] = p.Item()
	}
	return out
}
