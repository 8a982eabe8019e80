package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
)

// seedModulus bounds the derived seed to [0, 2^32-2].
const seedModulus = 1<<32 - 1

// HashEmbedder derives a unit vector from the SHA-256 digest of the text.
// The vectors carry no semantic meaning; they keep the pipeline available
// without network access or credentials.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a local embedder producing vectors of length dim.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{dim: dim}
}

// Dimension returns the vector length.
func (h *HashEmbedder) Dimension() int { return h.dim }

// Vector returns the deterministic unit vector for text.
func (h *HashEmbedder) Vector(text string) domain.Vector {
	sum := sha256.Sum256([]byte(text))
	seed := binary.BigEndian.Uint64(sum[:8]) % seedModulus
	rng := rand.New(rand.NewPCG(seed, seed))

	raw := make([]float64, h.dim)
	var norm float64
	for i := range raw {
		raw[i] = rng.NormFloat64()
		norm += raw[i] * raw[i]
	}
	norm = math.Sqrt(norm)

	v := make(domain.Vector, h.dim)
	for i, x := range raw {
		v[i] = float32(x / norm)
	}
	return v
}

// Embed implements domain.Embedder. It never fails and reports no token usage.
func (h *HashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: h.Vector(text)}, nil
}
