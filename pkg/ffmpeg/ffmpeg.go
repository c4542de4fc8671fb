package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Runner executes one ffmpeg invocation and returns everything it wrote to
// stdout and stderr. A non-nil error means the process could not start or
// exited non-zero; the output is returned in both cases.
type Runner interface {
	Run(ctx context.Context, args []string) (string, error)
}

type FFmpeg struct {
	pathToBinary string
	passthrough  io.Writer
}

func NewFFmpeg(pathToBinary string) *FFmpeg {
	return &FFmpeg{pathToBinary: pathToBinary}
}

// WithPassthrough also copies ffmpeg's output to w while it runs.
func (f *FFmpeg) WithPassthrough(w io.Writer) *FFmpeg {
	return &FFmpeg{pathToBinary: f.pathToBinary, passthrough: w}
}

func (f *FFmpeg) Path() string {
	return f.pathToBinary
}

func (f *FFmpeg) Run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, f.pathToBinary, args...)

	var output bytes.Buffer
	var sink io.Writer = &output
	if f.passthrough != nil {
		sink = io.MultiWriter(&output, f.passthrough)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	if err := cmd.Run(); err != nil {
		return output.String(), fmt.Errorf("ffmpeg command failed: %w", err)
	}
	return output.String(), nil
}

// ExitCode extracts the process exit status from an error returned by Run,
// or -1 when the process never produced one.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
