package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(1536)

	a := h.Vector("I need a video editor for a lo-fi TikTok")
	b := h.Vector("I need a video editor for a lo-fi TikTok")
	require.Len(t, a, 1536)
	assert.Equal(t, a, b)
}

func TestHashEmbedder_DistinctTexts(t *testing.T) {
	h := NewHashEmbedder(64)

	texts := []string{"", "a", "b", "video editor", "Video editor", "composer"}
	seen := make(map[string]string, len(texts))
	for _, text := range texts {
		v := h.Vector(text)
		key := fmtVec(v)
		if prev, ok := seen[key]; ok {
			t.Fatalf("%q and %q produced the same vector", prev, text)
		}
		seen[key] = text
	}
}

func TestHashEmbedder_UnitNorm(t *testing.T) {
	for _, dim := range []int{1, 8, 384, 1536, 3072} {
		v := NewHashEmbedder(dim).Vector("norm check")
		assert.InDelta(t, 1.0, v.Norm(), 1e-6, "dim=%d", dim)
		for _, x := range v {
			assert.False(t, math.IsNaN(float64(x)))
		}
	}
}

func fmtVec(v []float32) string {
	b := make([]byte, 0, len(v)*4)
	for _, x := range v {
		u := math.Float32bits(x)
		b = append(b, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	}
	return string(b)
}
