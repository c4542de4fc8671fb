package job

import (
	"GridForge/internal/pipeline"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager handles the job lifecycle: pending -> running -> succeeded,
// failed or skipped.
type Manager struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (m *Manager) Create(ctx context.Context, root, output string) (*Job, error) {
	now := m.now()
	job := &Job{
		ID:        uuid.New(),
		Root:      root,
		Output:    output,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, job); err != nil {
		m.logger.Error("Failed to create job", zap.Error(err))
		return nil, err
	}

	m.logger.Info("Job created",
		zap.String("job_id", job.ID.String()),
		zap.String("root", root),
		zap.String("output", output),
	)
	return job, nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	return m.store.Get(ctx, id)
}

func (m *Manager) Start(ctx context.Context, id uuid.UUID) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	job.Status = StatusRunning
	job.UpdatedAt = m.now()
	if err := m.store.Update(ctx, job); err != nil {
		m.logger.Error("Failed to mark job running", zap.String("job_id", id.String()), zap.Error(err))
		return err
	}
	m.logger.Info("Job running", zap.String("job_id", id.String()))
	return nil
}

// Finish records the outcome of a run. ErrNoInputs marks the job skipped;
// any other error marks it failed.
func (m *Manager) Finish(ctx context.Context, id uuid.UUID, result *pipeline.Result, runErr error) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	now := m.now()
	job.Result = result
	job.UpdatedAt = now
	job.CompletedAt = &now
	switch {
	case runErr == nil:
		job.Status = StatusSucceeded
	case errors.Is(runErr, pipeline.ErrNoInputs):
		job.Status = StatusSkipped
		job.ErrorMessage = runErr.Error()
	default:
		job.Status = StatusFailed
		job.ErrorMessage = runErr.Error()
	}

	if err := m.store.Update(ctx, job); err != nil {
		m.logger.Error("Failed to record job outcome", zap.String("job_id", id.String()), zap.Error(err))
		return err
	}

	fields := []zap.Field{zap.String("job_id", id.String()), zap.String("status", string(job.Status))}
	if job.Status == StatusFailed {
		m.logger.Error("Job failed", append(fields, zap.String("error", job.ErrorMessage))...)
	} else {
		m.logger.Info("Job finished", fields...)
	}
	return nil
}
