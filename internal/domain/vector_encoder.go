package domain

import (
	"context"
)

// VectorEncoder defines the interface for generating embeddings.
// Dimension is a fixed configuration constant shared with the vector index.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Version() string
}
