package pipeline

import (
	types "GridForge/pkg"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Request names one composition run. A nil Compose uses the composer's
// configured defaults.
type Request struct {
	Root    string               `json:"root"`
	Output  string               `json:"output"`
	Compose *types.ComposeConfig `json:"compose,omitempty"`
}

type Result struct {
	State      ComposeState  `json:"state"`
	Root       string        `json:"root"`
	Output     string        `json:"output"`
	Inputs     []string      `json:"inputs,omitempty"`
	GridSize   int           `json:"grid_size"`
	Rows       int           `json:"rows"`
	StorageKey string        `json:"storage_key,omitempty"`
	// PublishError is set when the composite exists but its upload failed.
	PublishError string        `json:"publish_error,omitempty"`
	Diagnostic   string        `json:"diagnostic,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Executor runs a Request end to end. Implemented by the in-process
// Workflow and by TemporalWorkflow.
type Executor interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Workflow runs discover -> compose -> publish in-process.
type Workflow struct {
	discoverer *Discoverer
	composer   *Composer
	publisher  *Publisher
	logger     *zap.Logger
}

func NewWorkflow(discoverer *Discoverer, composer *Composer, publisher *Publisher, logger *zap.Logger) *Workflow {
	return &Workflow{
		discoverer: discoverer,
		composer:   composer,
		publisher:  publisher,
		logger:     logger,
	}
}

// Run returns ErrNoInputs (with a skipped result) when nothing was found,
// a *DiscoveryError before any ffmpeg run when the root is unusable, and a
// *CompositionError when ffmpeg fails. A failed upload returns a
// *PublishError alongside a result that stays StateSucceeded.
func (w *Workflow) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{State: StateIdle, Root: req.Root, Output: req.Output}

	// Step 1: Discover
	w.logger.Info("Starting discovery", zap.String("root", req.Root))
	inputs, err := w.discoverer.Discover(ctx, req.Root)
	if err != nil {
		result.State = StateFailed
		result.Duration = time.Since(start)
		w.logger.Error("Discovery failed", zap.String("root", req.Root), zap.Error(err))
		return result, err
	}
	result.Inputs = inputs

	// Step 2: Compose
	composer := w.composer
	if req.Compose != nil {
		composer = composer.WithConfig(*req.Compose)
	}
	composeResult, err := composer.Compose(ctx, inputs, req.Output)
	if composeResult != nil {
		result.State = composeResult.State
		result.GridSize = composeResult.GridSize
		result.Rows = composeResult.Rows
		result.Diagnostic = composeResult.Diagnostic
	}
	if err != nil {
		result.Duration = time.Since(start)
		if errors.Is(err, ErrNoInputs) {
			w.logger.Info("Nothing to compose", zap.String("root", req.Root))
		}
		return result, err
	}

	// Step 3: Publish
	if w.publisher.Enabled() {
		key, err := w.publisher.Publish(ctx, req.Output)
		if err != nil {
			result.Duration = time.Since(start)
			result.PublishError = err.Error()
			w.logger.Error("Publish failed", zap.String("output", req.Output), zap.Error(err))
			return result, &PublishError{Output: req.Output, Err: err}
		}
		result.StorageKey = key
	}

	result.Duration = time.Since(start)
	w.logger.Info("Workflow completed",
		zap.String("output", req.Output),
		zap.Int("inputs", len(inputs)),
		zap.Duration("duration", result.Duration))
	return result, nil
}
