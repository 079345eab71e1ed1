package domain

import "context"

// VectorHit is a single nearest-neighbor result. Position references the
// corpus load order; Distance is in the index's configured metric (L2), so
// hits arrive ordered by increasing distance.
type VectorHit struct {
	Position int
	Distance float32
}

// VectorIndex exposes similarity search over the precomputed recipe
// embeddings. IsReady reports whether the index can serve queries at all;
// callers must treat false as "use the lexical fallback", never as an
// error.
type VectorIndex interface {
	IsReady(ctx context.Context) bool
	Search(ctx context.Context, vector []float32, k int) ([]VectorHit, error)
}
