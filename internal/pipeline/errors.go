package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrNoInputs reports that discovery found nothing to compose. It is an
// outcome, not a failure: no ffmpeg process runs and no output is written.
var ErrNoInputs = errors.New("no video files found")

type DiscoveryErrorKind string

const (
	DiscoveryNotFound         DiscoveryErrorKind = "not_found"
	DiscoveryPermissionDenied DiscoveryErrorKind = "permission_denied"
	DiscoveryNotDirectory     DiscoveryErrorKind = "not_directory"
	DiscoveryUnreadable       DiscoveryErrorKind = "unreadable"
)

// DiscoveryError is returned when the root (or, in strict mode, any
// directory below it) cannot be walked.
type DiscoveryError struct {
	Root string
	Path string
	Kind DiscoveryErrorKind
	Err  error
}

func (e *DiscoveryError) Error() string {
	path := e.Path
	if path == "" {
		path = e.Root
	}
	switch e.Kind {
	case DiscoveryNotFound:
		return fmt.Sprintf("discovery failed: %s: no such file or directory", path)
	case DiscoveryPermissionDenied:
		return fmt.Sprintf("discovery failed: %s: permission denied", path)
	case DiscoveryNotDirectory:
		return fmt.Sprintf("discovery failed: %s: not a directory", path)
	}
	if e.Err != nil {
		return fmt.Sprintf("discovery failed: %s: %v", path, e.Err)
	}
	return fmt.Sprintf("discovery failed: %s", path)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

func newDiscoveryError(root, path string, err error) *DiscoveryError {
	kind := DiscoveryUnreadable
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = DiscoveryNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = DiscoveryPermissionDenied
	}
	return &DiscoveryError{Root: root, Path: path, Kind: kind, Err: err}
}

// CompositionError is returned when ffmpeg exits non-zero or cannot be
// started. Diagnostic holds ffmpeg's combined output verbatim.
type CompositionError struct {
	Output     string
	ExitCode   int
	Diagnostic string
	Err        error
}

func (e *CompositionError) Error() string {
	msg := fmt.Sprintf("composition of %s failed", e.Output)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	}
	if diag := lastLine(e.Diagnostic); diag != "" {
		msg += ": " + diag
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompositionError) Unwrap() error { return e.Err }

// PublishError is returned when the composite was written but could not be
// uploaded. The result that comes with it is still StateSucceeded.
type PublishError struct {
	Output string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("composite %s written but not published: %v", e.Output, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
