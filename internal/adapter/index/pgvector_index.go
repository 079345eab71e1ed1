package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"fridge-chef/internal/domain"
)

// pgvectorIndex serves nearest-neighbour queries over the
// recipe_embeddings table. A nil pool is a valid state: the service runs
// without a database and the index simply reports not ready.
type pgvectorIndex struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPgvectorIndex creates a vector index backed by pgvector.
func NewPgvectorIndex(pool *pgxpool.Pool, logger *slog.Logger) domain.VectorIndex {
	return &pgvectorIndex{pool: pool, logger: logger}
}

var _ domain.VectorIndex = (*pgvectorIndex)(nil)

func (x *pgvectorIndex) IsReady(ctx context.Context) bool {
	if x.pool == nil {
		return false
	}

	var count int
	err := x.pool.QueryRow(ctx, `SELECT count(*) FROM recipe_embeddings`).Scan(&count)
	if err != nil {
		x.logger.Warn("vector_index_probe_failed", slog.String("error", err.Error()))
		return false
	}
	return count > 0
}

// Search returns the k nearest stored embeddings by L2 distance,
// closest first.
func (x *pgvectorIndex) Search(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	if x.pool == nil {
		return nil, errors.New("vector index unavailable: no database pool")
	}

	rows, err := x.pool.Query(ctx, `
		SELECT recipe_position, embedding <-> $1 AS distance
		FROM recipe_embeddings
		ORDER BY distance
		LIMIT $2`,
		pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var hits []domain.VectorHit
	for rows.Next() {
		var hit domain.VectorHit
		if err := rows.Scan(&hit.Position, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hits: %w", err)
	}

	return hits, nil
}
