package pipeline

import (
	"GridForge/internal/pipeline/storage"
	types "GridForge/pkg"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// Publisher uploads a finished composite to the configured storage.
type Publisher struct {
	storage storage.Storage
	bucket  string
	prefix  string
	retry   types.RetryConfig
	logger  *zap.Logger
}

// NewPublisher returns a publisher; a nil storage disables publishing.
func NewPublisher(st storage.Storage, cfg types.StorageConfig, retryCfg types.RetryConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		storage: st,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		retry:   retryCfg,
		logger:  logger,
	}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.storage != nil
}

// Key is the object key a composite at output is stored under.
func (p *Publisher) Key(output string) string {
	return path.Join(p.prefix, filepath.Base(output))
}

func (p *Publisher) Publish(ctx context.Context, output string) (string, error) {
	if !p.Enabled() {
		return "", nil
	}
	key := p.Key(output)
	err := Retry(ctx, p.logger, p.retry, fmt.Sprintf("publish %s", output), func() error {
		file, err := os.Open(output)
		if err != nil {
			return err
		}
		defer file.Close()
		return p.storage.Upload(ctx, p.bucket, key, file)
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", output, err)
	}
	p.logger.Info("Composite published", zap.String("bucket", p.bucket), zap.String("key", key))
	return key, nil
}
