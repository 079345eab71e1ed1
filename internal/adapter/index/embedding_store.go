package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// Embedding is one row destined for the recipe_embeddings table.
type Embedding struct {
	Position     int
	Vector       []float32
	ModelVersion string
}

// EmbeddingStore is the write side of the vector index: the server
// ensures the schema at boot and an external indexing job populates the
// rows. Serving traffic goes through NewPgvectorIndex.
type EmbeddingStore struct {
	pool *pgxpool.Pool
}

func NewEmbeddingStore(pool *pgxpool.Pool) *EmbeddingStore {
	return &EmbeddingStore{pool: pool}
}

// EnsureExtension installs pgvector using a plain connection. It must
// run before the pool is created: pool connections register the vector
// type on connect, which fails while the extension is missing.
func EnsureExtension(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	return nil
}

// EnsureSchema creates the embeddings table if it does not exist yet.
func (s *EmbeddingStore) EnsureSchema(ctx context.Context, dimension int) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS recipe_embeddings (
			recipe_position INTEGER PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			model_version TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create recipe_embeddings: %w", err)
	}
	return nil
}

// MaxPosition returns the highest embedded position, or -1 when the
// table is empty. Indexing jobs resume from the next position.
func (s *EmbeddingStore) MaxPosition(ctx context.Context) (int, error) {
	var max int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(recipe_position), -1) FROM recipe_embeddings`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max position: %w", err)
	}
	return max, nil
}

func (s *EmbeddingStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM recipe_embeddings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// BulkInsert writes a batch of embeddings with CopyFrom. Callers must
// not insert positions that already exist; resume via MaxPosition or
// Reset first.
func (s *EmbeddingStore) BulkInsert(ctx context.Context, batch []Embedding) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(batch))
	for i, e := range batch {
		rows[i] = []interface{}{
			e.Position,
			pgvector.NewVector(e.Vector),
			e.ModelVersion,
		}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"recipe_embeddings"},
		[]string{"recipe_position", "embedding", "model_version"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy embeddings: %w", err)
	}
	return nil
}

// Reset removes all stored embeddings.
func (s *EmbeddingStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE recipe_embeddings`); err != nil {
		return fmt.Errorf("failed to truncate recipe_embeddings: %w", err)
	}
	return nil
}
