package domain

import "context"

// CrossEncoder scores (query, passage) pairs by encoding them jointly,
// which is finer-grained than comparing independently encoded vectors.
//
// Load performs the one-time model initialization and must be called before
// Score. Score returns one raw, unbounded score per passage, in passage
// order; callers apply their own normalization.
type CrossEncoder interface {
	Load(ctx context.Context) error
	Score(ctx context.Context, query string, passages []string) ([]float32, error)

	// ModelName returns the model identifier for logging and status
	// reporting.
	ModelName() string
}
