package job

import (
	"GridForge/internal/pipeline"
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database only when GRIDFORGE_TEST_DATABASE_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("GRIDFORGE_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("GRIDFORGE_TEST_DATABASE_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewPostgresStore(pool)
	require.NoError(t, s.EnsureSchema(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	job := &Job{ID: uuid.New(), Root: "/videos", Output: "/out/grid.mp4", Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Create(ctx, job))

	job.Status = StatusSucceeded
	job.Result = &pipeline.Result{State: pipeline.StateSucceeded, Output: job.Output, GridSize: 3, Rows: 2}
	job.CompletedAt = &now
	require.NoError(t, s.Update(ctx, job))

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, 3, got.Result.GridSize)
	require.NotNil(t, got.CompletedAt)

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
