package job

import (
	"GridForge/internal/pipeline"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS compose_jobs (
		id            UUID PRIMARY KEY,
		root          TEXT NOT NULL,
		output        TEXT NOT NULL,
		status        TEXT NOT NULL,
		error_message TEXT,
		result        JSONB,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		completed_at  TIMESTAMPTZ
	)
`

// PostgresStore handles database operations for jobs
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the compose_jobs table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, job *Job) error {
	query := `
		INSERT INTO compose_jobs (id, root, output, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query,
		job.ID, job.Root, job.Output, string(job.Status),
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, root, output, status, error_message, result,
		       created_at, updated_at, completed_at
		FROM compose_jobs
		WHERE id = $1
	`

	var job Job
	var status string
	var errorMessage *string
	var result []byte
	var completedAt *time.Time

	err := s.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Root, &job.Output, &status, &errorMessage, &result,
		&job.CreatedAt, &job.UpdatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.Status = JobStatus(status)
	if errorMessage != nil {
		job.ErrorMessage = *errorMessage
	}
	if result != nil {
		var r pipeline.Result
		if err := json.Unmarshal(result, &r); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &r
	}
	job.CompletedAt = completedAt
	return &job, nil
}

func (s *PostgresStore) Update(ctx context.Context, job *Job) error {
	var resultJSON []byte
	if job.Result != nil {
		var err error
		resultJSON, err = json.Marshal(job.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}
	var errorMessage *string
	if job.ErrorMessage != "" {
		errorMessage = &job.ErrorMessage
	}

	query := `
		UPDATE compose_jobs
		SET status = $2, error_message = $3, result = $4,
		    updated_at = $5, completed_at = $6
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		job.ID, string(job.Status), errorMessage, resultJSON,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, job.ID)
	}
	return nil
}
