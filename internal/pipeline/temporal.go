package pipeline

import (
	types "GridForge/pkg"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
)

const (
	discoveryErrorType   = "DiscoveryError"
	compositionErrorType = "CompositionError"
)

// TemporalWorkflow runs grid compositions as durable Temporal workflows.
// It implements Executor so callers need not know which backend is used.
type TemporalWorkflow struct {
	client     client.Client
	worker     worker.Worker
	taskQueue  string
	publish    bool
	activities *Activities
	logger     *zap.Logger
}

// WorkflowInput represents the input for the grid compose workflow
type WorkflowInput struct {
	Root    string               `json:"root"`
	Output  string               `json:"output"`
	Compose *types.ComposeConfig `json:"compose,omitempty"`
	Publish bool                 `json:"publish"`
}

type ComposeActivityInput struct {
	Inputs  []string             `json:"inputs"`
	Output  string               `json:"output"`
	Compose *types.ComposeConfig `json:"compose,omitempty"`
}

// DiscoveryFailure and CompositionFailure travel as application error
// details so the caller can rebuild the typed error.
type DiscoveryFailure struct {
	Root    string             `json:"root"`
	Path    string             `json:"path"`
	Kind    DiscoveryErrorKind `json:"kind"`
	Message string             `json:"message"`
}

type CompositionFailure struct {
	Output     string `json:"output"`
	ExitCode   int    `json:"exit_code"`
	Diagnostic string `json:"diagnostic"`
}

// NewTemporalWorkflow creates a new Temporal workflow manager. activities may
// be nil for a client that only starts workflows.
func NewTemporalWorkflow(c client.Client, taskQueue string, publish bool, activities *Activities, logger *zap.Logger) *TemporalWorkflow {
	return &TemporalWorkflow{
		client:     c,
		taskQueue:  taskQueue,
		publish:    publish,
		activities: activities,
		logger:     logger,
	}
}

// StartWorker starts the Temporal worker
func (tw *TemporalWorkflow) StartWorker() error {
	if tw.activities == nil {
		return errors.New("cannot start worker without activities")
	}
	tw.worker = worker.New(tw.client, tw.taskQueue, worker.Options{})
	tw.worker.RegisterWorkflow(GridComposeWorkflow)
	tw.worker.RegisterActivity(tw.activities.DiscoverActivity)
	tw.worker.RegisterActivity(tw.activities.ComposeActivity)
	tw.worker.RegisterActivity(tw.activities.PublishActivity)

	tw.logger.Info("Starting Temporal worker", zap.String("task_queue", tw.taskQueue))
	return tw.worker.Start()
}

// StopWorker stops the Temporal worker
func (tw *TemporalWorkflow) StopWorker() {
	if tw.worker != nil {
		tw.worker.Stop()
	}
}

// Run starts a workflow and waits for it. Failures come back as the same
// typed errors the in-process Workflow returns.
func (tw *TemporalWorkflow) Run(ctx context.Context, req Request) (*Result, error) {
	options := client.StartWorkflowOptions{
		ID:                       fmt.Sprintf("grid-compose-%s", uuid.NewString()),
		TaskQueue:                tw.taskQueue,
		WorkflowExecutionTimeout: 6 * time.Hour,
	}
	input := WorkflowInput{Root: req.Root, Output: req.Output, Compose: req.Compose, Publish: tw.publish}

	we, err := tw.client.ExecuteWorkflow(ctx, options, GridComposeWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}
	tw.logger.Info("Workflow started", zap.String("workflow_id", we.GetID()), zap.String("run_id", we.GetRunID()))

	var result Result
	if err := we.Get(ctx, &result); err != nil {
		failed := &Result{State: StateFailed, Root: req.Root, Output: req.Output}
		typed := fromTemporalError(err)
		var compErr *CompositionError
		if errors.As(typed, &compErr) {
			failed.Diagnostic = compErr.Diagnostic
		}
		return failed, typed
	}
	return resultFromWorkflow(result)
}

// resultFromWorkflow turns a completed workflow's result into the same
// (result, error) pair Workflow.Run returns.
func resultFromWorkflow(result Result) (*Result, error) {
	switch {
	case result.State == StateSkipped:
		return &result, ErrNoInputs
	case result.PublishError != "":
		return &result, &PublishError{Output: result.Output, Err: errors.New(result.PublishError)}
	}
	return &result, nil
}

// GridComposeWorkflow is the Temporal rendition of Workflow.Run. Composition
// is attempted exactly once.
func GridComposeWorkflow(ctx workflow.Context, input WorkflowInput) (Result, error) {
	logger := workflow.GetLogger(ctx)
	startTime := workflow.Now(ctx)
	result := Result{State: StateIdle, Root: input.Root, Output: input.Output}

	logger.Info("Starting grid compose workflow", "root", input.Root, "output", input.Output)

	// Step 1: Discover
	discoverCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var inputs []string
	if err := workflow.ExecuteActivity(discoverCtx, "DiscoverActivity", input.Root).Get(ctx, &inputs); err != nil {
		return result, err
	}
	result.Inputs = inputs

	if len(inputs) == 0 {
		logger.Info("No video files found", "root", input.Root)
		result.State = StateSkipped
		result.Duration = workflow.Now(ctx).Sub(startTime)
		return result, nil
	}

	// Step 2: Compose
	composeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 4 * time.Hour,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var composed ComposeResult
	composeInput := ComposeActivityInput{Inputs: inputs, Output: input.Output, Compose: input.Compose}
	if err := workflow.ExecuteActivity(composeCtx, "ComposeActivity", composeInput).Get(ctx, &composed); err != nil {
		return result, err
	}
	result.State = composed.State
	result.GridSize = composed.GridSize
	result.Rows = composed.Rows

	// Step 3: Publish
	if input.Publish {
		publishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 30 * time.Minute,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
		})
		var key string
		if err := workflow.ExecuteActivity(publishCtx, "PublishActivity", input.Output).Get(ctx, &key); err != nil {
			// The composite exists, so the run completes and carries the failure.
			result.PublishError = err.Error()
			var appErr *temporal.ApplicationError
			if errors.As(err, &appErr) {
				result.PublishError = appErr.Message()
			}
			logger.Error("Publish failed", "output", input.Output, "error", result.PublishError)
		} else {
			result.StorageKey = key
		}
	}

	result.Duration = workflow.Now(ctx).Sub(startTime)
	logger.Info("Grid compose workflow completed", "output", input.Output, "inputs", len(inputs), "duration", result.Duration)
	return result, nil
}

// Activities holds dependencies for Temporal activities
type Activities struct {
	discoverer *Discoverer
	composer   *Composer
	publisher  *Publisher
	logger     *zap.Logger
}

func NewActivities(discoverer *Discoverer, composer *Composer, publisher *Publisher, logger *zap.Logger) *Activities {
	return &Activities{
		discoverer: discoverer,
		composer:   composer,
		publisher:  publisher,
		logger:     logger,
	}
}

func (a *Activities) DiscoverActivity(ctx context.Context, root string) ([]string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting discovery activity", "root", root)

	files, err := a.discoverer.Discover(ctx, root)
	if err != nil {
		var discErr *DiscoveryError
		if errors.As(err, &discErr) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), discoveryErrorType, err, DiscoveryFailure{
				Root:    discErr.Root,
				Path:    discErr.Path,
				Kind:    discErr.Kind,
				Message: err.Error(),
			})
		}
		return nil, err
	}
	return files, nil
}

func (a *Activities) ComposeActivity(ctx context.Context, input ComposeActivityInput) (ComposeResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting compose activity", "inputs", len(input.Inputs), "output", input.Output)

	composer := a.composer
	if input.Compose != nil {
		composer = composer.WithConfig(*input.Compose)
	}
	result, err := composer.Compose(ctx, input.Inputs, input.Output)
	if err != nil {
		var compErr *CompositionError
		if errors.As(err, &compErr) {
			return ComposeResult{}, temporal.NewNonRetryableApplicationError(err.Error(), compositionErrorType, err, CompositionFailure{
				Output:     compErr.Output,
				ExitCode:   compErr.ExitCode,
				Diagnostic: compErr.Diagnostic,
			})
		}
		return ComposeResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "ComposeSetupError", err)
	}
	return *result, nil
}

func (a *Activities) PublishActivity(ctx context.Context, output string) (string, error) {
	logger := activity.GetLogger(ctx)
	if !a.publisher.Enabled() {
		logger.Info("Publishing disabled, skipping upload", "output", output)
		return "", nil
	}
	return a.publisher.Publish(ctx, output)
}

// fromTemporalError maps application errors raised by the activities back to
// *DiscoveryError and *CompositionError. Anything else is returned as is.
func fromTemporalError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case discoveryErrorType:
		var failure DiscoveryFailure
		if appErr.HasDetails() {
			if detailsErr := appErr.Details(&failure); detailsErr != nil {
				return err
			}
		}
		return &DiscoveryError{Root: failure.Root, Path: failure.Path, Kind: failure.Kind, Err: errors.New(failure.Message)}
	case compositionErrorType:
		var failure CompositionFailure
		if appErr.HasDetails() {
			if detailsErr := appErr.Details(&failure); detailsErr != nil {
				return err
			}
		}
		return &CompositionError{Output: failure.Output, ExitCode: failure.ExitCode, Diagnostic: failure.Diagnostic, Err: errors.New(appErr.Message())}
	}
	return err
}
