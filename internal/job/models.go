package job

import (
	"GridForge/internal/pipeline"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusSkipped   JobStatus = "skipped"
)

// Terminal reports whether no further transition is expected.
func (s JobStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// Job represents one grid composition request
type Job struct {
	ID           uuid.UUID        `json:"id"`
	Root         string           `json:"root"`
	Output       string           `json:"output"`
	Status       JobStatus        `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Result       *pipeline.Result `json:"result,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}
