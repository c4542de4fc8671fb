package pipeline

import (
	types "GridForge/pkg"
	"GridForge/pkg/ffmpeg"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ComposeState is the lifecycle of one composition:
// idle -> running -> succeeded | failed, or idle -> skipped when there is
// nothing to compose.
type ComposeState string

const (
	StateIdle      ComposeState = "idle"
	StateRunning   ComposeState = "running"
	StateSucceeded ComposeState = "succeeded"
	StateFailed    ComposeState = "failed"
	StateSkipped   ComposeState = "skipped"
)

// Plan is everything needed to run a composition, computed without side
// effects.
type Plan struct {
	Inputs      []string
	Output      string
	Layout      ffmpeg.Layout
	FilterGraph string
	Args        []string
}

type ComposeResult struct {
	State      ComposeState  `json:"state"`
	Output     string        `json:"output"`
	Inputs     int           `json:"inputs"`
	GridSize   int           `json:"grid_size"`
	Rows       int           `json:"rows"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Composer tiles a list of videos into one file with a single ffmpeg run.
type Composer struct {
	runner ffmpeg.Runner
	cfg    types.ComposeConfig
	logger *zap.Logger
}

func NewComposer(runner ffmpeg.Runner, cfg types.ComposeConfig, logger *zap.Logger) *Composer {
	return &Composer{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Composer) Config() types.ComposeConfig {
	return c.cfg
}

// WithConfig returns a composer sharing c's runner and logger but using cfg.
func (c *Composer) WithConfig(cfg types.ComposeConfig) *Composer {
	return &Composer{runner: c.runner, cfg: cfg, logger: c.logger}
}

func (c *Composer) Plan(inputs []string, output string) (*Plan, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	args, err := ffmpeg.ComposeArgs(inputs, output, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build ffmpeg arguments: %w", err)
	}
	layout := ffmpeg.NewLayout(len(inputs), c.cfg.TileWidth, c.cfg.TileHeight)
	return &Plan{
		Inputs:      inputs,
		Output:      output,
		Layout:      layout,
		FilterGraph: ffmpeg.FilterGraph(layout),
		Args:        args,
	}, nil
}

// Compose runs ffmpeg once and blocks until it exits. Success means ffmpeg
// exited zero; the output file is not inspected.
func (c *Composer) Compose(ctx context.Context, inputs []string, output string) (*ComposeResult, error) {
	start := time.Now()
	result := &ComposeResult{State: StateIdle, Output: output, Inputs: len(inputs)}

	if len(inputs) == 0 {
		result.State = StateSkipped
		c.logger.Warn("No video files found, skipping composition", zap.String("output", output))
		return result, ErrNoInputs
	}

	plan, err := c.Plan(inputs, output)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	result.GridSize = plan.Layout.GridSize
	result.Rows = plan.Layout.Rows

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			result.State = StateFailed
			return result, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	before, _ := os.Stat(output)

	result.State = StateRunning
	c.logger.Info("Starting composition",
		zap.Int("inputs", len(inputs)),
		zap.Int("grid_size", plan.Layout.GridSize),
		zap.Int("rows", plan.Layout.Rows),
		zap.Int("empty_cells", plan.Layout.EmptyCells()),
		zap.Int("width", plan.Layout.Width()),
		zap.Int("height", plan.Layout.Height()),
		zap.String("output", output))
	c.logger.Debug("ffmpeg arguments", zap.Strings("args", plan.Args))

	diagnostic, err := c.runner.Run(ctx, plan.Args)
	result.Duration = time.Since(start)
	if err != nil {
		result.State = StateFailed
		result.Diagnostic = diagnostic
		c.removePartialOutput(output, before)
		c.logger.Error("Composition failed",
			zap.String("output", output),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
		return result, &CompositionError{
			Output:     output,
			ExitCode:   ffmpeg.ExitCode(err),
			Diagnostic: diagnostic,
			Err:        err,
		}
	}

	result.State = StateSucceeded
	c.logger.Info("Composition completed",
		zap.String("output", output),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// removePartialOutput deletes output if the failed run created or changed
// it. A file the run never touched is left in place.
func (c *Composer) removePartialOutput(output string, before os.FileInfo) {
	if c.cfg.KeepPartialOutput {
		return
	}
	after, err := os.Stat(output)
	if err != nil || after.IsDir() {
		return
	}
	if before != nil && after.ModTime().Equal(before.ModTime()) && after.Size() == before.Size() {
		return
	}
	if err := os.Remove(output); err != nil {
		c.logger.Warn("Failed to remove partial output", zap.String("output", output), zap.Error(err))
		return
	}
	c.logger.Warn("Removed partial output", zap.String("output", output))
}
