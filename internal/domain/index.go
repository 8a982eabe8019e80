package domain

import (
	"fmt"
	"strings"
)

// KeyPrefix namespaces every key this service writes to a shared key-value store.
const KeyPrefix = "spacetwo:"

// IndexHandle identifies a ready vector index.
type IndexHandle struct {
	Name      string
	Dimension int
	Driver    string
}

// IndexRecord is one item written to the vector index.
type IndexRecord struct {
	ID       string
	Vector   Vector
	Metadata map[string]any
}

// Validate checks the record against the index dimension.
func (r IndexRecord) Validate(dim int) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: record id is required", ErrInvalidRequest)
	}
	if err := r.Vector.CheckDim(dim); err != nil {
		return fmt.Errorf("record %q: %w", r.ID, err)
	}
	return nil
}

// SearchHit is one ranked result of a similarity query.
// Score is the raw cosine similarity reported by the index.
type SearchHit struct {
	ID       string
	Score    float64
	Metadata map[string]any
}
