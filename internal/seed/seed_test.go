package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileText(t *testing.T) {
	got := Profiles[0].Text()
	want := "Maya Tan — Video Editor.\nStyles: lo-fi, fast cuts, TikTok.\nLocation: Glasgow, UK.\n" +
		"Bio: Lo-fi reels editor; punchy transitions, vintage overlays."
	assert.Equal(t, want, got)
}

func TestItems(t *testing.T) {
	items := Items()
	require.Len(t, items, 5)

	ids := make(map[string]bool)
	for _, it := range items {
		ids[it.ID] = true
		assert.NotEmpty(t, it.Text)
		assert.Equal(t, true, it.Metadata["availability"])
	}
	assert.Len(t, ids, 5)

	first := items[0].Metadata
	assert.Equal(t, "Maya Tan", first["name"])
	assert.Equal(t, []string{"Video Editor"}, first["roles"])
	assert.Equal(t, "Glasgow, UK", first["location"])
}
