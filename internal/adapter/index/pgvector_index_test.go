package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fridge-chef/internal/infra"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPgvectorIndex_NoPool(t *testing.T) {
	idx := NewPgvectorIndex(nil, discardLogger())

	assert.False(t, idx.IsReady(context.Background()))

	_, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	assert.Error(t, err)
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port())
}

func TestPgvectorIndex_SearchAndBackfill(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	dsn := startPostgres(t)

	require.NoError(t, EnsureExtension(ctx, dsn))

	pool, err := infra.NewPostgresDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewEmbeddingStore(pool)
	require.NoError(t, store.EnsureSchema(ctx, 3))

	idx := NewPgvectorIndex(pool, discardLogger())
	assert.False(t, idx.IsReady(ctx), "index with no rows should not be ready")

	max, err := store.MaxPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, max, "empty table resumes from position 0")

	err = store.BulkInsert(ctx, []Embedding{
		{Position: 0, Vector: []float32{0, 0, 1}, ModelVersion: "test"},
		{Position: 1, Vector: []float32{0, 1, 0}, ModelVersion: "test"},
		{Position: 2, Vector: []float32{1, 0, 0}, ModelVersion: "test"},
	})
	require.NoError(t, err)

	assert.True(t, idx.IsReady(ctx))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 2, hits[0].Position)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)

	max, err = store.MaxPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, max)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.Reset(ctx))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.False(t, idx.IsReady(ctx))
}
