package pipeline

import (
	types "GridForge/pkg"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner stands in for ffmpeg. It records every invocation and can
// write a file at the output path to imitate a partial encode.
type fakeRunner struct {
	mu         sync.Mutex
	calls      [][]string
	diagnostic string
	err        error
	writeOut   bool
}

func (f *fakeRunner) Run(_ context.Context, args []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), args...))
	if f.writeOut && len(args) > 0 {
		if err := os.WriteFile(args[len(args)-1], []byte("partial"), 0o644); err != nil {
			return "", err
		}
	}
	return f.diagnostic, f.err
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func failingRunner(diagnostic string) *fakeRunner {
	return &fakeRunner{diagnostic: diagnostic, err: errors.New("exit status 1")}
}

// touch creates each relative path under root with a little content.
func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func testDiscoveryConfig() types.DiscoveryConfig {
	return types.DiscoveryConfig{Extensions: types.DefaultExtensions(), Sort: true}
}

func testRetryConfig() types.RetryConfig {
	return types.RetryConfig{MaxAttempts: 3, InitialIntervalSec: 0.001, BackoffCoefficient: 2}
}
