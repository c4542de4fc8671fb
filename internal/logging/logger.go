// Package logging builds the zap logger described by the logging section of
// the config.
package logging

import (
	types "GridForge/pkg"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for cfg. "console" is a human-readable encoder on
// stderr, "json" the production encoder on stderr, "file" the production
// encoder appended to cfg.FilePath.
func New(cfg types.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Output {
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	case "json":
		zc = zap.NewProductionConfig()
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file_path required for file logging")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zc = zap.NewProductionConfig()
		zc.OutputPaths = []string{cfg.FilePath}
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
