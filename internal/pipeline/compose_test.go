package pipeline

import (
	types "GridForge/pkg"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompose_EmptyInputsSkipsFFmpeg(t *testing.T) {
	runner := &fakeRunner{}
	output := filepath.Join(t.TempDir(), "out.mp4")

	result, err := NewComposer(runner, types.DefaultComposeConfig(), zaptest.NewLogger(t)).Compose(context.Background(), nil, output)
	require.ErrorIs(t, err, ErrNoInputs)
	assert.Equal(t, StateSkipped, result.State)
	assert.Empty(t, runner.Calls())
	assert.NoFileExists(t, output)
}

func TestCompose_TwoInputs(t *testing.T) {
	runner := &fakeRunner{}
	output := filepath.Join(t.TempDir(), "grids", "out.mp4")
	inputs := []string{"a.mp4", "b.mp4"}

	result, err := NewComposer(runner, types.DefaultComposeConfig(), zaptest.NewLogger(t)).Compose(context.Background(), inputs, output)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, result.State)
	assert.Equal(t, 2, result.GridSize)
	assert.Equal(t, 1, result.Rows)
	assert.DirExists(t, filepath.Dir(output))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	args := calls[0]
	assert.Equal(t, output, args[len(args)-1])
	assert.Contains(t, args, "[0:v]scale=320:240[v0];[1:v]scale=320:240[v1];"+
		"[v0][v1]xstack=inputs=2:layout=0_0|320_0[xstack];"+
		"[0:a][1:a]amix=inputs=2[mixed_audio]")
	assert.Equal(t, []string{"-y", "-i", "a.mp4", "-i", "b.mp4"}, args[:5])
}

func TestCompose_LogsEmptyCells(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	output := filepath.Join(t.TempDir(), "out.mp4")
	inputs := []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4"}

	_, err := NewComposer(&fakeRunner{}, types.DefaultComposeConfig(), zap.New(core)).Compose(context.Background(), inputs, output)
	require.NoError(t, err)

	started := logs.FilterMessage("Starting composition").All()
	require.Len(t, started, 1)
	fields := started[0].ContextMap()
	assert.Equal(t, int64(3), fields["grid_size"])
	assert.Equal(t, int64(4), fields["empty_cells"])
}

func TestCompose_FailureCarriesDiagnostic(t *testing.T) {
	runner := failingRunner("Input #1: Invalid data found when processing input\n")
	output := filepath.Join(t.TempDir(), "out.mp4")

	result, err := NewComposer(runner, types.DefaultComposeConfig(), zaptest.NewLogger(t)).Compose(context.Background(), []string{"a.mp4"}, output)
	var compErr *CompositionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, output, compErr.Output)
	assert.Contains(t, compErr.Diagnostic, "Invalid data found")
	assert.Contains(t, compErr.Error(), "Invalid data found when processing input")
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, compErr.Diagnostic, result.Diagnostic)
}

func TestCompose_RemovesPartialOutput(t *testing.T) {
	runner := failingRunner("Conversion failed!")
	runner.writeOut = true
	output := filepath.Join(t.TempDir(), "out.mp4")

	_, err := NewComposer(runner, types.DefaultComposeConfig(), zaptest.NewLogger(t)).Compose(context.Background(), []string{"a.mp4"}, output)
	require.Error(t, err)
	assert.NoFileExists(t, output)
}

func TestCompose_KeepsPartialOutputWhenConfigured(t *testing.T) {
	runner := failingRunner("Conversion failed!")
	runner.writeOut = true
	output := filepath.Join(t.TempDir(), "out.mp4")

	cfg := types.DefaultComposeConfig()
	cfg.KeepPartialOutput = true
	_, err := NewComposer(runner, cfg, zaptest.NewLogger(t)).Compose(context.Background(), []string{"a.mp4"}, output)
	require.Error(t, err)
	assert.FileExists(t, output)
}

func TestCompose_LeavesUntouchedExistingOutput(t *testing.T) {
	runner := failingRunner("File 'out.mp4' already exists. Exiting.")
	output := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, os.WriteFile(output, []byte("previous run"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(output, old, old))

	cfg := types.DefaultComposeConfig()
	cfg.Overwrite = false
	_, err := NewComposer(runner, cfg, zaptest.NewLogger(t)).Compose(context.Background(), []string{"a.mp4"}, output)
	require.Error(t, err)

	data, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Equal(t, "previous run", string(data))
	assert.Equal(t, "-n", runner.Calls()[0][0])
}

func TestComposer_PlanIsPure(t *testing.T) {
	runner := &fakeRunner{}
	output := filepath.Join(t.TempDir(), "nested", "out.mp4")

	plan, err := NewComposer(runner, types.DefaultComposeConfig(), zaptest.NewLogger(t)).Plan([]string{"a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4"}, output)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Layout.GridSize)
	assert.Equal(t, 2, plan.Layout.Rows)
	assert.Contains(t, plan.FilterGraph, "xstack=inputs=5:layout=0_0|320_0|640_0|0_240|320_240[xstack]")
	assert.Empty(t, runner.Calls())
	assert.NoDirExists(t, filepath.Dir(output))
}

func TestComposer_WithConfig(t *testing.T) {
	base := NewComposer(&fakeRunner{}, types.DefaultComposeConfig(), zaptest.NewLogger(t))
	cfg := types.DefaultComposeConfig()
	cfg.TileWidth = 640

	derived := base.WithConfig(cfg)
	assert.Equal(t, 640, derived.Config().TileWidth)
	assert.Equal(t, 320, base.Config().TileWidth)
}
